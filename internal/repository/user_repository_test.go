package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"blogssom/internal/models"
)

func defaultRows(changedAt any) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "role", "password_changed_at", "created_at", "updated_at"}).
		AddRow("u1", "a@x.com", "Ada", "Lovelace", "user", changedAt, now, now)
}

func TestCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	repo := NewUserRepository(db)
	u := &models.User{ID: "u1", Email: "a@x.com", Role: "user", PasswordHash: "hash", CreatedAt: time.Now().UTC()}
	if err := repo.Create(context.Background(), u); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDExcludesPasswordHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, email, first_name, last_name, role, password_changed_at, created_at, updated_at\s+FROM users\s+WHERE id = \$1 AND active = TRUE`).
		WithArgs("u1").
		WillReturnRows(defaultRows(nil))

	repo := NewUserRepository(db)
	u, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.PasswordHash != "" {
		t.Fatalf("default projection must not carry a password hash, got %q", u.PasswordHash)
	}
	if u.PasswordChangedAt != nil {
		t.Fatal("expected nil PasswordChangedAt")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM users WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "role", "password_changed_at", "created_at", "updated_at"}))

	repo := NewUserRepository(db)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByEmailWithPasswordIncludesHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, email, first_name, last_name, role, password_hash, password_changed_at, created_at, updated_at\s+FROM users\s+WHERE LOWER\(email\) = LOWER\(\$1\) AND active = TRUE`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "role", "password_hash", "password_changed_at", "created_at", "updated_at"}).
			AddRow("u1", "a@x.com", "Ada", "Lovelace", "user", "bcrypt-hash", now, now, now))

	repo := NewUserRepository(db)
	u, err := repo.GetByEmailWithPassword(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmailWithPassword: %v", err)
	}
	if u.PasswordHash != "bcrypt-hash" {
		t.Fatalf("expected hash in login projection, got %q", u.PasswordHash)
	}
	if u.PasswordChangedAt == nil {
		t.Fatal("expected PasswordChangedAt")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByValidResetTokenHashMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM users\s+WHERE reset_token_hash = \$1\s+AND reset_token_expires_at > \(NOW\(\) AT TIME ZONE 'UTC'\)\s+AND active = TRUE`).
		WithArgs("deadbeef").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "role", "password_changed_at", "created_at", "updated_at"}))

	repo := NewUserRepository(db)
	if _, err := repo.GetByValidResetTokenHash(context.Background(), "deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePasswordClearsResetFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	changed := time.Now().UTC().Add(-time.Second)
	mock.ExpectExec(`UPDATE users\s+SET password_hash = \$1,\s+password_changed_at = \$2,\s+reset_token_hash = NULL,\s+reset_token_expires_at = NULL`).
		WithArgs("new-hash", changed, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepository(db)
	if err := repo.UpdatePassword(context.Background(), "u1", "new-hash", &changed); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeactivateMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE users SET active = FALSE").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	if err := repo.Deactivate(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
