// Package session turns opaque authentication state into an explicit Session
// value with a defined lifecycle: resolved once per request, carried in the
// request context, never read from globals.
package session

import (
	"context"

	"github.com/agora-dev/agora/internal/domain"
)

// Claims is the decoded claim set of an identity token.
type Claims map[string]any

// ClaimsFetcher produces the claim set for a token. Fetching is a separate,
// fallible step from the identity becoming available.
type ClaimsFetcher interface {
	Fetch(ctx context.Context, token string) (Claims, error)
}

type Resolver struct {
	fetcher ClaimsFetcher
}

func NewResolver(fetcher ClaimsFetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve maps an authentication-state change (the current token, possibly
// empty) to a Session. It fails closed: until a claim set has been produced,
// and whenever producing one fails, the session is anonymous and not admin.
func (r *Resolver) Resolve(ctx context.Context, token string) domain.Session {
	if token == "" {
		return domain.Session{}
	}

	claims, err := r.fetcher.Fetch(ctx, token)
	if err != nil {
		return domain.Session{}
	}

	identity := &domain.Identity{
		UID:   stringClaim(claims, "uid"),
		Email: stringClaim(claims, "email"),
		Name:  stringClaim(claims, "name"),
	}

	// Strict equality: only the boolean true grants admin. A truthy string
	// or number in the claim set does not.
	admin, ok := claims["admin"].(bool)

	return domain.Session{Identity: identity, IsAdmin: ok && admin}
}

func stringClaim(claims Claims, key string) string {
	s, _ := claims[key].(string)
	return s
}
