package handler

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agora-dev/agora/internal/domain"
	"github.com/agora-dev/agora/internal/logger"
	"github.com/agora-dev/agora/internal/middleware"
	"github.com/agora-dev/agora/internal/web"
)

type commentView struct {
	domain.Comment
	Html template.HTML
}

type topicPageData struct {
	Topic        domain.Topic
	Description  template.HTML
	Comments     []commentView
	CommentCount int
}

// TopicGetHandler shows one topic's thread. Pending topics exist only for
// admins; everyone else gets a 404, not a 403, so the moderation queue leaks
// nothing.
func (h *Handler) TopicGetHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	topic, ok := h.Topics.Topic(id)
	if !ok || (!topic.IsPublished() && !middleware.FromContext(r).IsAdmin) {
		http.NotFound(w, r)
		return
	}

	adapter, err := h.Comments.ForTopic(r.Context(), id)
	if err != nil {
		logger.Log.Error("opening comment thread", "topic", id, "error", err)
		http.Error(w, "Comments are unavailable right now", http.StatusBadGateway)
		return
	}

	comments := adapter.Comments()
	views := make([]commentView, len(comments))
	for i, c := range comments {
		views[i] = commentView{Comment: c, Html: h.Markdown.Render(c.Text)}
	}

	data := topicPageData{
		Topic:        topic,
		Description:  h.Markdown.Render(topic.Description),
		Comments:     views,
		CommentCount: len(views),
	}
	h.renderTemplate(w, r, "topic.html", data)
}

// CommentPostHandler appends a comment to the thread. Anonymous viewers may
// post; the identity snapshot falls back to the anonymous sentinels.
func (h *Handler) CommentPostHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	target := "/topic/" + id

	topic, ok := h.Topics.Topic(id)
	if !ok || !topic.IsPublished() {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, target, flashCookieError, "Invalid form data.")
		return
	}

	adapter, err := h.Comments.ForTopic(r.Context(), id)
	if err != nil {
		logger.Log.Error("opening comment thread", "topic", id, "error", err)
		h.redirectWithFlash(w, r, target, flashCookieError, "Comments are unavailable right now.")
		return
	}

	sess := middleware.FromContext(r)
	if err := adapter.Append(r.Context(), r.FormValue("text"), sess.Identity); err != nil {
		h.redirectWithFlash(w, r, target, flashCookieError, template.HTMLEscapeString(err.Error()))
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// CommentDeleteHandler removes a single comment. Admin only, enforced by the
// router.
func (h *Handler) CommentDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	commentID := chi.URLParam(r, "commentId")

	adapter, err := h.Comments.ForTopic(r.Context(), id)
	if err != nil {
		web.WriteError(w, err)
		return
	}
	if err := adapter.Delete(r.Context(), commentID); err != nil {
		web.WriteError(w, err)
		return
	}

	http.Redirect(w, r, "/topic/"+id, http.StatusSeeOther)
}
