package user

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("phone number or email already in use")
)

type Repository interface {
	List(ctx context.Context, limit, offset int) ([]User, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	ListBornBetween(ctx context.Context, from, to time.Time) ([]User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id int64, user User) (User, error)
	Delete(ctx context.Context, id int64) (User, error)
}

// InMemoryRepository keeps users ordered by id and enforces the same
// uniqueness rules as the users table.
type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	nextID int64
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		nextID: 1,
	}

	var maxID int64
	for _, user := range seed {
		user.BirthDate = Date(user.BirthDate)
		repo.users = append(repo.users, user)
		if user.ID > maxID {
			maxID = user.ID
		}
	}
	sort.Slice(repo.users, func(i, j int) bool { return repo.users[i].ID < repo.users[j].ID })

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) List(_ context.Context, limit, offset int) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(r.users) {
		return []User{}, nil
	}

	end := min(offset+limit, len(r.users))
	users := make([]User, end-offset)
	copy(users, r.users[offset:end])
	return users, nil
}

func (r *InMemoryRepository) Search(_ context.Context, criteria SearchCriteria) ([]User, error) {
	preds := criteria.predicates()
	if len(preds) == 0 {
		return []User{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0)
	for _, user := range r.users {
		if matchesAny(preds, user) {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.users[i], nil
	}
	return User{}, ErrNotFound
}

func (r *InMemoryRepository) ListBornBetween(_ context.Context, from, to time.Time) ([]User, error) {
	from, to = Date(from), Date(to)

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0)
	for _, user := range r.users {
		if !user.BirthDate.Before(from) && !user.BirthDate.After(to) {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *InMemoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflicts(0, user) {
		return User{}, ErrDuplicate
	}

	user.ID = r.nextID
	user.BirthDate = Date(user.BirthDate)
	r.nextID++
	r.users = append(r.users, user)
	return user, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int64, userUpdate User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return User{}, ErrNotFound
	}
	if r.conflicts(id, userUpdate) {
		return User{}, ErrDuplicate
	}

	user := r.users[i]
	user.FirstName = userUpdate.FirstName
	user.SecondName = userUpdate.SecondName
	user.EmailAdd = userUpdate.EmailAdd
	user.PhoneNum = userUpdate.PhoneNum
	user.BirthDate = Date(userUpdate.BirthDate)
	r.users[i] = user
	return user, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, id int64) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return User{}, ErrNotFound
	}

	removed := r.users[i]
	r.users = append(r.users[:i], r.users[i+1:]...)
	return removed, nil
}

func (r *InMemoryRepository) indexOf(id int64) int {
	i := sort.Search(len(r.users), func(i int) bool { return r.users[i].ID >= id })
	if i < len(r.users) && r.users[i].ID == id {
		return i
	}
	return -1
}

// conflicts reports whether another user (id != self) holds user's phone or email.
func (r *InMemoryRepository) conflicts(self int64, user User) bool {
	for _, existing := range r.users {
		if existing.ID == self {
			continue
		}
		if existing.PhoneNum == user.PhoneNum || existing.EmailAdd == user.EmailAdd {
			return true
		}
	}
	return false
}
