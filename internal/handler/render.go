package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/agora-dev/agora/internal/domain"
	"github.com/agora-dev/agora/internal/logger"
	"github.com/agora-dev/agora/internal/middleware"
)

const (
	flashCookieError   = "flash_error"
	flashCookieSuccess = "flash_success"
)

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common CommonTemplateData
}

type CommonTemplateData struct {
	Session domain.Session
	Error   string
	Success string
}

func (h *Handler) initCommonTemplateData(w http.ResponseWriter, r *http.Request) CommonTemplateData {
	return CommonTemplateData{
		Session: middleware.FromContext(r),
		Error:   middleware.PopFlash(w, r, flashCookieError),
		Success: middleware.PopFlash(w, r, flashCookieSuccess),
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	tmpl, ok := h.Templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	wrapped := TemplateData{
		Data:   data,
		Common: h.initCommonTemplateData(w, r),
	}

	// Render to a buffer first so a template failure can still return a
	// clean 500 instead of a half-written page.
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, wrapped); err != nil {
		logger.Log.Error("executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}
	_, _ = buf.WriteTo(w)
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, cookie, msg string) {
	middleware.SetFlash(w, cookie, msg, h.SecureCookies)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
