// Package identity models who is viewing: signed out, an anonymous guest, or
// a permanent account. An anonymous identity can be upgraded in place, so rows
// it created stay owned by the same ID.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidTransition  = errors.New("invalid identity transition")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
)

type State int

const (
	SignedOut State = iota
	Anonymous
	Permanent
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Permanent:
		return "permanent"
	default:
		return "signed_out"
	}
}

type Identity struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	State State  `json:"-"`
}

func (i Identity) SignedIn() bool {
	return i.State != SignedOut && i.ID != ""
}

// SignInAnonymously starts a guest identity.
func (i Identity) SignInAnonymously(id string) (Identity, error) {
	if i.State != SignedOut || id == "" {
		return i, ErrInvalidTransition
	}
	return Identity{ID: id, State: Anonymous}, nil
}

// SignIn moves a signed-out viewer to a permanent account.
func (i Identity) SignIn(id, email string) (Identity, error) {
	if i.State != SignedOut || id == "" || email == "" {
		return i, ErrInvalidTransition
	}
	return Identity{ID: id, Email: email, State: Permanent}, nil
}

// Upgrade attaches an email to an anonymous identity. The ID never changes.
func (i Identity) Upgrade(email string) (Identity, error) {
	if i.State != Anonymous || email == "" {
		return i, ErrInvalidTransition
	}
	return Identity{ID: i.ID, Email: email, State: Permanent}, nil
}

func (i Identity) SignOut() Identity {
	return Identity{}
}

type viewerKey struct{}

// WithViewer attaches the current identity to ctx.
func WithViewer(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, viewerKey{}, id)
}

// FromContext returns the identity on ctx, or a signed-out one.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(viewerKey{}).(Identity)
	return id
}
