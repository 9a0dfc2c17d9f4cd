package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-dev/agora/internal/rtdb"
)

func newTestProvider(t *testing.T) (*Provider, *rtdb.Memory) {
	t.Helper()
	store := rtdb.NewMemory()
	p := NewProvider(store, NewTokens("test-secret", time.Hour))
	require.NoError(t, p.EnsureAccount(context.Background(), "admin@example.com", "hunter22", "Admin", true))
	return p, store
}

func TestSignIn(t *testing.T) {
	testCases := []struct {
		name     string
		email    string
		password string
		wantCode Code
	}{
		{name: "success", email: "admin@example.com", password: "hunter22"},
		{name: "email case and spacing normalized", email: "  Admin@Example.COM ", password: "hunter22"},
		{name: "invalid email", email: "not-an-email", wantCode: CodeInvalidEmail},
		{name: "unknown account", email: "ghost@example.com", password: "x", wantCode: CodeUserNotFound},
		{name: "wrong password", email: "admin@example.com", password: "nope", wantCode: CodeWrongPassword},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, _ := newTestProvider(t)

			token, err := p.SignIn(context.Background(), tc.email, tc.password)

			if tc.wantCode == "" {
				require.NoError(t, err)
				assert.NotEmpty(t, token)
				return
			}
			var authErr *Error
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tc.wantCode, authErr.Code)
			assert.Empty(t, token)
		})
	}
}

func TestSignInIssuesAdminClaim(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	token, err := p.SignIn(ctx, "admin@example.com", "hunter22")
	require.NoError(t, err)

	claims, err := p.tokens.Fetch(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, true, claims["admin"])
	assert.Equal(t, "admin@example.com", claims["email"])
}

func TestSignInThrottlesRepeatedFailures(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	now := time.Now()
	p.now = func() time.Time { return now }

	for i := 0; i < maxAttempts; i++ {
		_, err := p.SignIn(ctx, "admin@example.com", "wrong")
		var authErr *Error
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, CodeWrongPassword, authErr.Code)
	}

	// Correct password is refused too once throttled.
	_, err := p.SignIn(ctx, "admin@example.com", "hunter22")
	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, CodeTooManyRequests, authErr.Code)

	// Outside the window the account unlocks.
	now = now.Add(attemptWindow + time.Minute)
	_, err = p.SignIn(ctx, "admin@example.com", "hunter22")
	assert.NoError(t, err)
}

func TestEnsureAccountIsIdempotent(t *testing.T) {
	p, store := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.EnsureAccount(ctx, "admin@example.com", "different", "Admin", true))

	snap, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.Len(t, snap.Records, 1, "existing account must not be duplicated")

	// Original password still works.
	_, err = p.SignIn(ctx, "admin@example.com", "hunter22")
	assert.NoError(t, err)
}

func TestTokensRejectTampering(t *testing.T) {
	tokens := NewTokens("secret-a", time.Hour)
	other := NewTokens("secret-b", time.Hour)

	token, err := tokens.Issue(User{Id: "u1", Email: "a@b.c", Admin: true})
	require.NoError(t, err)

	_, err = other.Fetch(context.Background(), token)
	assert.Error(t, err, "token signed with a different key must not decode")
}
