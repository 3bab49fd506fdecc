package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"blogssom/internal/models"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository is the credential store. Default read projections leave
// password_hash and the reset-token fields out; the *WithPassword
// variants exist for the two flows that verify a password. Password
// hashes are only ever written through UpdatePassword, so unrelated
// updates can never re-hash or clobber a credential.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDWithPassword(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error)
	GetByValidResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt *time.Time) error
	SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const defaultColumns = `id, email, first_name, last_name, role, password_changed_at, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Role, user.PasswordHash, user.CreatedAt,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	user.UpdatedAt = user.CreatedAt
	user.Active = true
	return nil
}

func (r *userRepository) scanDefault(row *sql.Row) (*models.User, error) {
	var u models.User
	var changedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &changedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if changedAt.Valid {
		u.PasswordChangedAt = &changedAt.Time
	}
	u.Active = true
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + defaultColumns + ` FROM users WHERE id = $1 AND active = TRUE`
	return r.scanDefault(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + defaultColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND active = TRUE`
	return r.scanDefault(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) scanWithPassword(row *sql.Row) (*models.User, error) {
	var u models.User
	var changedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.PasswordHash, &changedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if changedAt.Valid {
		u.PasswordChangedAt = &changedAt.Time
	}
	u.Active = true
	return &u, nil
}

const passwordColumns = `id, email, first_name, last_name, role, password_hash, password_changed_at, created_at, updated_at`

func (r *userRepository) GetByIDWithPassword(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + passwordColumns + ` FROM users WHERE id = $1 AND active = TRUE`
	return r.scanWithPassword(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + passwordColumns + ` FROM users WHERE LOWER(email) = LOWER($1) AND active = TRUE`
	return r.scanWithPassword(r.db.QueryRowContext(ctx, query, email))
}

// GetByValidResetTokenHash only matches an unexpired token; once the
// reset fields are cleared the same hash can never match again, which is
// what makes reset tokens single-use.
func (r *userRepository) GetByValidResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	query := `
		SELECT ` + defaultColumns + `
		FROM users
		WHERE reset_token_hash = $1
		  AND reset_token_expires_at > (NOW() AT TIME ZONE 'UTC')
		  AND active = TRUE
	`
	return r.scanDefault(r.db.QueryRowContext(ctx, query, tokenHash))
}

func (r *userRepository) ListAll(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + defaultColumns + ` FROM users WHERE active = TRUE ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var changedAt sql.NullTime
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &changedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if changedAt.Valid {
			u.PasswordChangedAt = &changedAt.Time
		}
		u.Active = true
		users = append(users, u)
	}

	return users, rows.Err()
}

// UpdatePassword writes a new hash and changed-at stamp and clears any
// outstanding reset token in the same statement, so a reset token can
// never outlive the password it was issued against.
func (r *userRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt *time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $1,
			password_changed_at = $2,
			reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $3 AND active = TRUE
	`
	return r.execOne(ctx, query, passwordHash, changedAt, id)
}

func (r *userRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token_hash = $1,
			reset_token_expires_at = $2,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $3 AND active = TRUE
	`
	return r.execOne(ctx, query, tokenHash, expiresAt, id)
}

func (r *userRepository) ClearResetToken(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`
	return r.execOne(ctx, query, id)
}

func (r *userRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE users SET active = FALSE, updated_at = NOW() AT TIME ZONE 'UTC' WHERE id = $1 AND active = TRUE`
	return r.execOne(ctx, query, id)
}

func (r *userRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
