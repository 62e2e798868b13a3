package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE postgres reports for a unique constraint.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	userColumns = `id, first_name, second_name, phone_num, email_add, birth_date`

	listUsersQuery = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	searchUsersQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE %s
		ORDER BY id
	`
	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	listBornBetweenQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE birth_date >= $1 AND birth_date <= $2
		ORDER BY id
	`

	insertUserQuery = `
		INSERT INTO users (first_name, second_name, phone_num, email_add, birth_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	updateUserQuery = `
		UPDATE users
		SET first_name = $1,
			second_name = $2,
			email_add = $3,
			phone_num = $4,
			birth_date = $5
		WHERE id = $6
		RETURNING ` + userColumns
	deleteUserQuery = `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
)

// NewPostgresRepository wraps an open session pool. The pool is owned by the
// caller.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listUsersQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collectUsers(rows)
}

func (r *PostgresRepository) Search(ctx context.Context, criteria SearchCriteria) ([]User, error) {
	preds := criteria.predicates()
	if len(preds) == 0 {
		return []User{}, nil
	}

	clause, args := orClause(preds, 1)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(searchUsersQuery, clause), args...)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return collectUsers(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, getUserByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func (r *PostgresRepository) ListBornBetween(ctx context.Context, from, to time.Time) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, listBornBetweenQuery, Date(from), Date(to))
	if err != nil {
		return nil, fmt.Errorf("list users born between: %w", err)
	}
	return collectUsers(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, user User) (User, error) {
	var created User
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, insertUserQuery,
			user.FirstName,
			user.SecondName,
			user.PhoneNum,
			user.EmailAdd,
			Date(user.BirthDate),
		)
		var err error
		created, err = scanUser(row)
		return err
	})
	if err != nil {
		return User{}, classify("create user", err)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, userUpdate User) (User, error) {
	var updated User
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, updateUserQuery,
			userUpdate.FirstName,
			userUpdate.SecondName,
			userUpdate.EmailAdd,
			userUpdate.PhoneNum,
			Date(userUpdate.BirthDate),
			id,
		)
		var err error
		updated, err = scanUser(row)
		return err
	})
	if err != nil {
		return User{}, classify(fmt.Sprintf("update user %d", id), err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (User, error) {
	var removed User
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		removed, err = scanUser(tx.QueryRowContext(ctx, deleteUserQuery, id))
		return err
	})
	if err != nil {
		return User{}, classify(fmt.Sprintf("delete user %d", id), err)
	}
	return removed, nil
}

// withTx runs fn in a transaction that commits only when fn succeeds.
func (r *PostgresRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// classify maps driver errors onto the package sentinels.
func classify(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pgErr.ConstraintName)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pqErr.Constraint)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func collectUsers(rows *sql.Rows) ([]User, error) {
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(scanner rowScanner) (User, error) {
	user := User{}
	if err := scanner.Scan(
		&user.ID,
		&user.FirstName,
		&user.SecondName,
		&user.PhoneNum,
		&user.EmailAdd,
		&user.BirthDate,
	); err != nil {
		return User{}, err
	}

	user.BirthDate = Date(user.BirthDate)
	return user, nil
}
