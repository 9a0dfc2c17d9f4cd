package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/agora-dev/agora/internal/domain"
	"github.com/agora-dev/agora/internal/session"
)

// SessionCookie carries the signed token for browser clients.
const SessionCookie = "accessToken"

const flashCookieError = "flash_error"

type key int

const sessionKey key = 0

// Sessions resolves the viewer on every request. Resolution never fails a
// request: a missing or bad token yields the anonymous session and the
// request proceeds.
type Sessions struct {
	resolver      *session.Resolver
	secureCookies bool
}

func NewSessions(resolver *session.Resolver, secureCookies bool) *Sessions {
	return &Sessions{resolver: resolver, secureCookies: secureCookies}
}

// Resolve populates the request context with the viewer's session.
func (s *Sessions) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.resolver.Resolve(r.Context(), tokenFrom(r))
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates the moderation surface. Anyone without the admin claim
// is bounced to the login page with a flash message; they never see a bare
// 401 or 403.
func (s *Sessions) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r)
		if sess.Anonymous() {
			s.redirectToLogin(w, r, "Please log in to continue")
			return
		}
		if !sess.IsAdmin {
			s.redirectToLogin(w, r, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FromContext returns the resolved session, anonymous when the session
// middleware did not run.
func FromContext(r *http.Request) domain.Session {
	if sess, ok := r.Context().Value(sessionKey).(domain.Session); ok {
		return sess
	}
	return domain.Session{}
}

// tokenFrom reads the token from the session cookie, falling back to a
// bearer header for API clients.
func tokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}
	return ""
}

func (s *Sessions) redirectToLogin(w http.ResponseWriter, r *http.Request, msg string) {
	SetFlash(w, flashCookieError, msg, s.secureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// SetFlash stores a one-shot message, base64 encoded so punctuation
// survives the cookie round trip.
func SetFlash(w http.ResponseWriter, name, msg string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    base64.StdEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash reads and clears a flash cookie.
func PopFlash(w http.ResponseWriter, r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(decoded)
}
