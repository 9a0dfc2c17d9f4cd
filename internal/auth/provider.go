// Package auth is the client for the hosted identity provider. Accounts live
// in the "users" partition of the tree store; sign-in verifies credentials
// and hands back a signed identity token carrying the custom admin claim.
package auth

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/agora-dev/agora/internal/logger"
	"github.com/agora-dev/agora/internal/rtdb"
)

const usersPath = "users"

// Failed attempts per email before sign-in is throttled, and the window the
// failures are counted over.
const (
	maxAttempts   = 5
	attemptWindow = 10 * time.Minute
)

// Code identifies a provider failure. Handlers map codes to their fixed
// user-facing messages; raw provider text is never shown.
type Code string

const (
	CodeInvalidEmail      Code = "invalid-email"
	CodeUserNotFound      Code = "user-not-found"
	CodeWrongPassword     Code = "wrong-password"
	CodeTooManyRequests   Code = "too-many-requests"
	CodeInvalidCredential Code = "invalid-credential"
	CodeUnavailable       Code = "unavailable"
)

type Error struct {
	Code Code
}

func (e *Error) Error() string {
	return "auth: " + string(e.Code)
}

// User is an account record as stored in the users partition.
type User struct {
	Id           string `json:"-"`
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	PasswordHash string `json:"passwordHash"`
	Admin        bool   `json:"admin,omitempty"`
}

type Provider struct {
	client rtdb.Client
	tokens *Tokens

	mu       sync.Mutex
	attempts map[string][]time.Time
	now      func() time.Time
}

func NewProvider(client rtdb.Client, tokens *Tokens) *Provider {
	return &Provider{
		client:   client,
		tokens:   tokens,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// SignIn verifies credentials and returns an identity token.
func (p *Provider) SignIn(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return "", &Error{Code: CodeInvalidEmail}
	}

	if p.throttled(email) {
		return "", &Error{Code: CodeTooManyRequests}
	}

	user, err := p.lookup(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		p.recordFailure(email)
		return "", &Error{Code: CodeUserNotFound}
	}
	if user.PasswordHash == "" {
		return "", &Error{Code: CodeInvalidCredential}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		p.recordFailure(email)
		return "", &Error{Code: CodeWrongPassword}
	}

	p.clearFailures(email)
	return p.tokens.Issue(*user)
}

// EnsureAccount provisions an account when none exists for the email.
// Used to bootstrap the administrator.
func (p *Provider) EnsureAccount(ctx context.Context, email, password, name string, admin bool) error {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := p.lookup(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = p.client.Push(ctx, usersPath, User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Admin:        admin,
	})
	return err
}

func (p *Provider) lookup(ctx context.Context, email string) (*User, error) {
	snap, err := p.client.Get(ctx, usersPath)
	if err != nil {
		logger.Log.Error("reading user partition", "error", err)
		return nil, &Error{Code: CodeUnavailable}
	}

	for id, raw := range snap.Records {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			logger.Log.Warn("skipping malformed user record", "id", id)
			continue
		}
		if strings.EqualFold(u.Email, email) {
			u.Id = id
			return &u, nil
		}
	}
	return nil, nil
}

func (p *Provider) throttled(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := p.now().Add(-attemptWindow)
	recent := p.attempts[email][:0]
	for _, t := range p.attempts[email] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	p.attempts[email] = recent
	return len(recent) >= maxAttempts
}

func (p *Provider) recordFailure(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[email] = append(p.attempts[email], p.now())
}

func (p *Provider) clearFailures(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attempts, email)
}
