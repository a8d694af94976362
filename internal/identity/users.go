package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/clawmap/internal/store/sqlite"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Anonymous    bool
	CreatedAt    string
}

// UserStore keeps accounts in the local database.
type UserStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

func (s *UserStore) CreateAnonymous(ctx context.Context) (*User, error) {
	u := &User{ID: uuid.NewString(), Anonymous: true, CreatedAt: s.now().UTC().Format(sqlite.TimeLayout)}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, anonymous, created_at) VALUES (?, 1, ?)
	`, u.ID, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create anonymous user: %w", err)
	}
	return u, nil
}

func (s *UserStore) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	if _, err := s.ByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	u := &User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash, CreatedAt: s.now().UTC().Format(sqlite.TimeLayout)}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, anonymous, created_at) VALUES (?, ?, ?, 0, ?)
	`, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, "email = ?", email)
}

func (s *UserStore) ByID(ctx context.Context, id string) (*User, error) {
	return s.get(ctx, "id = ?", id)
}

func (s *UserStore) get(ctx context.Context, where string, arg any) (*User, error) {
	u := &User{}
	var email, hash sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, anonymous, created_at FROM users WHERE "+where, arg,
	).Scan(&u.ID, &email, &hash, &u.Anonymous, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Email = email.String
	u.PasswordHash = hash.String
	return u, nil
}

// Attach gives an anonymous user an email and password. It reports false when
// id is not an anonymous user.
func (s *UserStore) Attach(ctx context.Context, id, email, passwordHash string) (bool, error) {
	if _, err := s.ByEmail(ctx, email); err == nil {
		return false, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, password_hash = ?, anonymous = 0, upgraded_at = ?
		WHERE id = ? AND anonymous = 1
	`, email, passwordHash, s.now().UTC().Format(sqlite.TimeLayout), id)
	if err != nil {
		return false, fmt.Errorf("failed to upgrade user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}
