package handler

import (
	"errors"
	"net/http"

	"github.com/agora-dev/agora/internal/auth"
	"github.com/agora-dev/agora/internal/logger"
	"github.com/agora-dev/agora/internal/middleware"
)

// signInMessages are the fixed user-facing texts per provider failure. Raw
// provider errors never reach the page.
var signInMessages = map[auth.Code]string{
	auth.CodeInvalidEmail:      "Invalid email address",
	auth.CodeUserNotFound:      "No account found for this email",
	auth.CodeWrongPassword:     "Incorrect password",
	auth.CodeTooManyRequests:   "Too many attempts. Try again later",
	auth.CodeInvalidCredential: "Invalid credentials",
}

func signInMessage(err error) string {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		if msg, ok := signInMessages[authErr.Code]; ok {
			return msg
		}
	}
	return "Sign-in failed. Please try again"
}

func (h *Handler) LoginGetHandler(w http.ResponseWriter, r *http.Request) {
	if middleware.FromContext(r).Identity != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderTemplate(w, r, "login.html", nil)
}

func (h *Handler) LoginPostHandler(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	token, err := h.Auth.SignIn(r.Context(), email, password)
	if err != nil {
		logger.Log.Warn("sign-in failed", "error", err)
		h.redirectWithFlash(w, r, "/login", flashCookieError, signInMessage(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     middleware.SessionCookie,
		Value:    token,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     middleware.SessionCookie,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
