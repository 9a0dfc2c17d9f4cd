package handler

import (
	"html/template"
	"net/http"

	"github.com/agora-dev/agora/internal/domain"
	"github.com/agora-dev/agora/internal/logger"
)

type homePageData struct {
	Topics     []domain.PublishedTopic
	MostActive []domain.PublishedTopic
}

func (h *Handler) HomeGetHandler(w http.ResponseWriter, r *http.Request) {
	data := homePageData{
		Topics:     h.Topics.Published(),
		MostActive: h.Topics.MostActive(5),
	}
	h.renderTemplate(w, r, "home.html", data)
}

// SubmitPostHandler takes a public topic submission. The new topic always
// lands in the moderation queue, never directly on the home page.
func (h *Handler) SubmitPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/", flashCookieError, "Invalid form data.")
		return
	}

	_, err := h.Workflow.Submit(r.Context(), r.FormValue("title"), r.FormValue("description"))
	if err != nil {
		logger.Log.Warn("rejecting topic submission", "error", err)
		h.redirectWithFlash(w, r, "/", flashCookieError, template.HTMLEscapeString(err.Error()))
		return
	}

	h.redirectWithFlash(w, r, "/", flashCookieSuccess, "Thanks! Your topic was submitted and will appear once approved.")
}
