package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockFetcher struct {
	fetchFunc func(ctx context.Context, token string) (Claims, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, token string) (Claims, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, token)
	}
	return Claims{}, nil
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name        string
		token       string
		claims      Claims
		fetchErr    error
		wantAdmin   bool
		wantAnon    bool
		wantedEmail string
	}{
		{name: "no token", token: "", wantAnon: true},
		{
			name:        "admin claim true",
			token:       "t",
			claims:      Claims{"uid": "u1", "email": "a@b.c", "admin": true},
			wantAdmin:   true,
			wantedEmail: "a@b.c",
		},
		{
			name:   "admin claim false",
			token:  "t",
			claims: Claims{"uid": "u1", "admin": false},
		},
		{
			name:   "admin claim absent",
			token:  "t",
			claims: Claims{"uid": "u1"},
		},
		{
			name:   "truthy string is not admin",
			token:  "t",
			claims: Claims{"uid": "u1", "admin": "true"},
		},
		{
			name:   "truthy number is not admin",
			token:  "t",
			claims: Claims{"uid": "u1", "admin": float64(1)},
		},
		{
			name:     "fetch failure fails closed",
			token:    "t",
			fetchErr: errors.New("boom"),
			wantAnon: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(&mockFetcher{
				fetchFunc: func(ctx context.Context, token string) (Claims, error) {
					return tc.claims, tc.fetchErr
				},
			})

			s := r.Resolve(context.Background(), tc.token)

			assert.Equal(t, tc.wantAdmin, s.IsAdmin)
			assert.Equal(t, tc.wantAnon, s.Anonymous())
			if tc.wantedEmail != "" {
				assert.Equal(t, tc.wantedEmail, s.Identity.Email)
			}
		})
	}
}
