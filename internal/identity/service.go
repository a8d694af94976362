package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

var validate = validator.New()

// Session is a signed-in identity and its bearer token.
type Session struct {
	Identity  Identity  `json:"identity"`
	State     string    `json:"state"`
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	users  *UserStore
	tokens *Tokens
	logger *slog.Logger
}

func NewService(users *UserStore, tokens *Tokens, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

func (s *Service) SignInAnonymously(ctx context.Context, current Identity) (*Session, error) {
	if current.State != SignedOut {
		return nil, ErrInvalidTransition
	}
	u, err := s.users.CreateAnonymous(ctx)
	if err != nil {
		return nil, err
	}
	next, err := current.SignInAnonymously(u.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("anonymous sign-in", "user_id", u.ID)
	return s.session(next)
}

func (s *Service) SignUp(ctx context.Context, current Identity, email, password string) (*Session, error) {
	if current.State != SignedOut {
		return nil, ErrInvalidTransition
	}
	email, hash, err := credentials(email, password)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(ctx, email, hash)
	if err != nil {
		return nil, err
	}
	next, err := current.SignIn(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", "user_id", u.ID)
	return s.session(next)
}

func (s *Service) SignIn(ctx context.Context, current Identity, email, password string) (*Session, error) {
	if current.State != SignedOut {
		return nil, ErrInvalidTransition
	}
	u, err := s.users.ByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	next, err := current.SignIn(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return s.session(next)
}

// Upgrade turns the anonymous current identity into a permanent one. Rows it
// created stay owned because the ID is kept.
func (s *Service) Upgrade(ctx context.Context, current Identity, email, password string) (*Session, error) {
	if current.State != Anonymous {
		return nil, ErrInvalidTransition
	}
	email, hash, err := credentials(email, password)
	if err != nil {
		return nil, err
	}
	ok, err := s.users.Attach(ctx, current.ID, email, hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}
	next, err := current.Upgrade(email)
	if err != nil {
		return nil, err
	}
	s.logger.Info("anonymous user upgraded", "user_id", next.ID)
	return s.session(next)
}

func (s *Service) SignOut(current Identity) Identity {
	return current.SignOut()
}

// Authenticate resolves a bearer token to an identity.
func (s *Service) Authenticate(token string) (Identity, error) {
	return s.tokens.Parse(token)
}

func (s *Service) session(id Identity) (*Session, error) {
	token, exp, err := s.tokens.Issue(id)
	if err != nil {
		return nil, err
	}
	return &Session{Identity: id, State: id.State.String(), Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func credentials(email, password string) (string, string, error) {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return "", "", fmt.Errorf("%w: malformed email", ErrInvalidCredentials)
	}
	if len(password) < minPasswordLen {
		return "", "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidCredentials, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}
	return email, string(hash), nil
}
