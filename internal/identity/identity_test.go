package identity

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/clawmap/internal/db"
)

func TestStateMachine(t *testing.T) {
	var out Identity
	assert.False(t, out.SignedIn())

	anon, err := out.SignInAnonymously("u1")
	require.NoError(t, err)
	assert.Equal(t, Anonymous, anon.State)
	assert.True(t, anon.SignedIn())

	perm, err := anon.Upgrade("a@example.com")
	require.NoError(t, err)
	assert.Equal(t, Permanent, perm.State)
	assert.Equal(t, "u1", perm.ID)

	_, err = perm.Upgrade("b@example.com")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = out.Upgrade("b@example.com")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = anon.SignInAnonymously("u2")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = perm.SignIn("u3", "c@example.com")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, Identity{}, perm.SignOut())
	assert.Equal(t, Identity{}, anon.SignOut())
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, SignedOut, FromContext(ctx).State)

	id := Identity{ID: "u1", State: Anonymous}
	assert.Equal(t, id, FromContext(WithViewer(ctx, id)))
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	for _, id := range []Identity{
		{ID: "anon", State: Anonymous},
		{ID: "perm", Email: "p@example.com", State: Permanent},
	} {
		signed, exp, err := tokens.Issue(id)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

		got, err := tokens.Parse(signed)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}

	_, _, err := tokens.Issue(Identity{})
	assert.Error(t, err)
}

func TestTokens_SupabaseClaimShape(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	signed, _, err := tokens.Issue(Identity{ID: "u1", State: Anonymous})
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(signed, jwt.MapClaims{})
	require.NoError(t, err)
	mc := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "u1", mc["sub"])
	assert.Equal(t, true, mc["is_anonymous"])
	assert.Equal(t, "authenticated", mc["role"])
	assert.Contains(t, mc, "exp")
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	signed, _, err := tokens.Issue(Identity{ID: "u1", State: Anonymous})
	require.NoError(t, err)

	_, err = NewTokens("other-secret", time.Hour).Parse(signed)
	assert.Error(t, err)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(signed)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewTokens("secret", time.Hour).Parse(none)
	assert.Error(t, err)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(NewUserStore(d), NewTokens("secret", time.Hour), logger)
}

func TestService_AnonymousUpgradeKeepsID(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	anon, err := svc.SignInAnonymously(ctx, Identity{})
	require.NoError(t, err)
	assert.Equal(t, Anonymous, anon.Identity.State)
	assert.Equal(t, "anonymous", anon.State)

	viewer, err := svc.Authenticate(anon.Token)
	require.NoError(t, err)

	upgraded, err := svc.Upgrade(ctx, viewer, " Claw@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, anon.Identity.ID, upgraded.Identity.ID)
	assert.Equal(t, Permanent, upgraded.Identity.State)
	assert.Equal(t, "claw@example.com", upgraded.Identity.Email)

	_, err = svc.Upgrade(ctx, upgraded.Identity, "again@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	again, err := svc.SignIn(ctx, Identity{}, "claw@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, anon.Identity.ID, again.Identity.ID)
}

func TestService_UpgradeRequiresAnonymousRow(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Upgrade(context.Background(), Identity{ID: "ghost", State: Anonymous}, "g@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_SignUpAndSignIn(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, Identity{}, "a@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, Permanent, sess.Identity.State)

	_, err = svc.SignUp(ctx, Identity{}, "A@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.SignIn(ctx, Identity{}, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, Identity{}, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, sess.Identity, "a@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.SignUp(ctx, Identity{}, "not-an-email", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignUp(ctx, Identity{}, "b@example.com", "123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_UpgradeToTakenEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, Identity{}, "taken@example.com", "hunter22")
	require.NoError(t, err)
	anon, err := svc.SignInAnonymously(ctx, Identity{})
	require.NoError(t, err)

	_, err = svc.Upgrade(ctx, anon.Identity, "taken@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrEmailTaken)
}
