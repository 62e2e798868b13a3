package user

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces the wall clock used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("list users failed", zap.Int("limit", limit), zap.Int("offset", offset), zap.Error(err))
	}
	return users, err
}

// Search returns users matching any provided criterion. With no criteria it
// returns an empty result.
func (s *Service) Search(ctx context.Context, criteria SearchCriteria) ([]User, error) {
	if criteria.IsEmpty() {
		return []User{}, nil
	}
	users, err := s.repo.Search(ctx, criteria)
	if err != nil {
		s.logger.Error("search users failed", zap.Error(err))
	}
	return users, err
}

func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("get user failed", zap.Int64("user_id", id), zap.Error(err))
	}
	return user, err
}

// BirthdaysWithin returns users whose birth_date lies in [today, today+days].
// The comparison uses the full stored date, year included.
func (s *Service) BirthdaysWithin(ctx context.Context, days int) ([]User, error) {
	from := Date(s.now())
	to := from.AddDate(0, 0, days)

	users, err := s.repo.ListBornBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("birthday lookup failed",
			zap.String("from", from.Format(DateLayout)),
			zap.String("to", to.Format(DateLayout)),
			zap.Error(err))
	}
	return users, err
}

func (s *Service) Create(ctx context.Context, user User) (User, error) {
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		s.logMutationError("create user failed", 0, err)
		return User{}, err
	}
	s.logger.Info("user created", zap.Int64("user_id", created.ID))
	return created, nil
}

// Update replaces every mutable field of the user with id.
func (s *Service) Update(ctx context.Context, id int64, user User) (User, error) {
	updated, err := s.repo.Update(ctx, id, user)
	if err != nil {
		s.logMutationError("update user failed", id, err)
		return User{}, err
	}
	s.logger.Info("user updated", zap.Int64("user_id", id))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (User, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logMutationError("delete user failed", id, err)
		return User{}, err
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return removed, nil
}

func (s *Service) logMutationError(msg string, id int64, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		return
	case errors.Is(err, ErrDuplicate):
		s.logger.Warn(msg, zap.Int64("user_id", id), zap.Error(err))
	default:
		s.logger.Error(msg, zap.Int64("user_id", id), zap.Error(err))
	}
}
