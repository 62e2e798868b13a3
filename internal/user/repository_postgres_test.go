package user

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var userCols = []string{"id", "first_name", "second_name", "phone_num", "email_add", "birth_date"}

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresList_OrdersByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(userCols).
		AddRow(1, "Ann", "Smith", "111", "ann@example.com", day(1991, 1, 1)).
		AddRow(2, "Bob", "Brown", "222", "bob@example.com", day(1992, 2, 2))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id LIMIT $1 OFFSET $2")).WithArgs(10, 0).WillReturnRows(rows)

	users, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if len(users) != 2 || users[0].ID != 1 || users[1].FirstName != "Bob" {
		t.Fatalf("unexpected users %+v", users)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresList_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM users").WithArgs(10, 50).WillReturnRows(sqlmock.NewRows(userCols))

	users, err := repo.List(context.Background(), 10, 50)
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", users)
	}
}

func TestPostgresList_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM users").WillReturnError(errors.New("connection reset"))

	if _, err := repo.List(context.Background(), 10, 0); err == nil {
		t.Fatalf("expected error to be surfaced")
	}
}

func TestPostgresSearch_BuildsOrClause(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(userCols).
		AddRow(1, "Ann", "Other", "111", "ann@example.com", day(1991, 1, 1)).
		AddRow(2, "Bob", "Other", "222", "x@y.com", day(1992, 2, 2))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE first_name = $1 OR email_add = $2")).
		WithArgs("Ann", "x@y.com").
		WillReturnRows(rows)

	users, err := repo.Search(context.Background(), SearchCriteria{FirstName: strPtr("Ann"), EmailAdd: strPtr("x@y.com")})
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected both users, got %d", len(users))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSearch_NoCriteriaSkipsQuery(t *testing.T) {
	repo, mock := newMockRepo(t)

	users, err := repo.Search(context.Background(), SearchCriteria{})
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected no users, got %d", len(users))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no query expected: %v", err)
	}
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(9, "Zed", "Zulu", "999", "z@example.com", day(1999, 9, 9)))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(userCols))

	u, err := repo.GetByID(context.Background(), 9)
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if u.ID != 9 || u.EmailAdd != "z@example.com" || !u.BirthDate.Equal(day(1999, 9, 9)) {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := repo.GetByID(context.Background(), 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresListBornBetween(t *testing.T) {
	repo, mock := newMockRepo(t)

	from, to := day(2026, 10, 18), day(2026, 10, 25)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE birth_date >= $1 AND birth_date <= $2")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(4, "Dan", "Dale", "444", "d@example.com", day(2026, 10, 21)))

	users, err := repo.ListBornBetween(context.Background(), from, to)
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if len(users) != 1 || users[0].ID != 4 {
		t.Fatalf("unexpected users %+v", users)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate_CommitsAndReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ann", "Smith", "111", "ann@example.com", day(1991, 1, 1)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "Ann", "Smith", "111", "ann@example.com", day(1991, 1, 1)))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), User{
		FirstName:  "Ann",
		SecondName: "Smith",
		PhoneNum:   "111",
		EmailAdd:   "ann@example.com",
		BirthDate:  day(1991, 1, 1),
	})
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if created.ID != 5 {
		t.Fatalf("expected assigned id 5, got %d", created.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCreate_UniqueViolation(t *testing.T) {
	driverErrors := map[string]error{
		"pgx": &pgconn.PgError{Code: "23505", ConstraintName: "ix_users_email_add"},
		"pq":  &pq.Error{Code: "23505", Constraint: "ix_users_email_add"},
	}

	for name, driverErr := range driverErrors {
		t.Run(name, func(t *testing.T) {
			repo, mock := newMockRepo(t)

			mock.ExpectBegin()
			mock.ExpectQuery("INSERT INTO users").WillReturnError(driverErr)
			mock.ExpectRollback()

			_, err := repo.Create(context.Background(), User{FirstName: "Ann", SecondName: "Smith", PhoneNum: "111", EmailAdd: "ann@example.com"})
			if !errors.Is(err, ErrDuplicate) {
				t.Fatalf("expected ErrDuplicate, got %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestPostgresUpdate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users").
		WithArgs("Anna", "Stone", "anna@example.com", "556", day(1991, 7, 8), int64(1)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "Anna", "Stone", "556", "anna@example.com", day(1991, 7, 8)))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users").WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectRollback()

	replacement := User{FirstName: "Anna", SecondName: "Stone", PhoneNum: "556", EmailAdd: "anna@example.com", BirthDate: day(1991, 7, 8)}
	updated, err := repo.Update(context.Background(), 1, replacement)
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if updated.FirstName != "Anna" || updated.PhoneNum != "556" {
		t.Fatalf("unexpected user %+v", updated)
	}

	if _, err := repo.Update(context.Background(), 2, replacement); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM users WHERE id = $1 RETURNING")).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "Gus", "Gray", "777", "gus@example.com", day(1977, 7, 7)))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery("DELETE FROM users").WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectRollback()

	removed, err := repo.Delete(context.Background(), 7)
	if err != nil {
		t.Fatalf("expected nil err, got %v", err)
	}
	if removed.ID != 7 || removed.FirstName != "Gus" {
		t.Fatalf("unexpected removed user %+v", removed)
	}

	if _, err := repo.Delete(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
