package handler

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agora-dev/agora/internal/domain"
	"github.com/agora-dev/agora/internal/logger"
	"github.com/agora-dev/agora/internal/store"
)

type adminPageData struct {
	Pending   []domain.Topic
	Published []domain.PublishedTopic
	Stats     store.Stats
}

func (h *Handler) AdminGetHandler(w http.ResponseWriter, r *http.Request) {
	data := adminPageData{
		Pending:   h.Topics.Pending(),
		Published: h.Topics.Published(),
		Stats:     h.Topics.Stats(),
	}
	h.renderTemplate(w, r, "admin.html", data)
}

func (h *Handler) ApprovePostHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Workflow.Approve(r.Context(), id); err != nil {
		logger.Log.Error("approving topic", "topic", id, "error", err)
		h.redirectWithFlash(w, r, "/admin", flashCookieError, template.HTMLEscapeString(err.Error()))
		return
	}
	h.redirectWithFlash(w, r, "/admin", flashCookieSuccess, "Topic published.")
}

func (h *Handler) RejectPostHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Workflow.Reject(r.Context(), id); err != nil {
		logger.Log.Error("rejecting topic", "topic", id, "error", err)
		h.redirectWithFlash(w, r, "/admin", flashCookieError, template.HTMLEscapeString(err.Error()))
		return
	}
	h.Comments.DropTopic(id)
	h.redirectWithFlash(w, r, "/admin", flashCookieSuccess, "Topic rejected and removed.")
}

// AdminCreatePostHandler creates a topic that is live immediately, skipping
// the queue.
func (h *Handler) AdminCreatePostHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/admin", flashCookieError, "Invalid form data.")
		return
	}

	draft := domain.TopicDraft{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	if _, err := h.Workflow.CreatePublished(r.Context(), draft); err != nil {
		h.redirectWithFlash(w, r, "/admin", flashCookieError, template.HTMLEscapeString(err.Error()))
		return
	}
	h.redirectWithFlash(w, r, "/admin", flashCookieSuccess, "Topic created.")
}

func (h *Handler) AdminEditPostHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/admin", flashCookieError, "Invalid form data.")
		return
	}

	changes := domain.TopicChanges{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
	}
	if err := h.Workflow.Edit(r.Context(), id, changes); err != nil {
		h.redirectWithFlash(w, r, "/admin", flashCookieError, template.HTMLEscapeString(err.Error()))
		return
	}
	h.redirectWithFlash(w, r, "/admin", flashCookieSuccess, "Topic updated.")
}

func (h *Handler) AdminDeletePostHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Workflow.Delete(r.Context(), id); err != nil {
		logger.Log.Error("deleting topic", "topic", id, "error", err)
		h.redirectWithFlash(w, r, "/admin", flashCookieError, template.HTMLEscapeString(err.Error()))
		return
	}
	h.Comments.DropTopic(id)
	h.redirectWithFlash(w, r, "/admin", flashCookieSuccess, "Topic deleted.")
}
