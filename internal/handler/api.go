package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agora-dev/agora/internal/domain"
	"github.com/agora-dev/agora/internal/middleware"
	"github.com/agora-dev/agora/internal/web"
)

// The JSON API mirrors the HTML surface for programmatic clients. Writes go
// through the same workflow, so API submissions land in the same queue.

type submitTopicRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

type submitCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

type topicCreatedResponse struct {
	Id     string             `json:"id"`
	Status domain.TopicStatus `json:"status"`
}

func (h *Handler) APIListTopics(w http.ResponseWriter, r *http.Request) {
	web.WriteJSON(w, http.StatusOK, h.Topics.Published())
}

func (h *Handler) APISubmitTopic(w http.ResponseWriter, r *http.Request) {
	var req submitTopicRequest
	if err := web.DecodeValidate(r.Body, &req); err != nil {
		web.WriteError(w, err)
		return
	}

	id, err := h.Workflow.Submit(r.Context(), req.Title, req.Description)
	if err != nil {
		web.WriteError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusAccepted, topicCreatedResponse{Id: id, Status: domain.StatusPending})
}

func (h *Handler) APIGetTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	topic, ok := h.Topics.Topic(id)
	if !ok || !topic.IsPublished() {
		http.NotFound(w, r)
		return
	}
	web.WriteJSON(w, http.StatusOK, domain.PublishedTopic{Topic: topic, Id: id, CommentCount: h.Topics.CommentCount(id)})
}

func (h *Handler) APIListComments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	topic, ok := h.Topics.Topic(id)
	if !ok || !topic.IsPublished() {
		http.NotFound(w, r)
		return
	}

	adapter, err := h.Comments.ForTopic(r.Context(), id)
	if err != nil {
		web.WriteError(w, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, adapter.Comments())
}

func (h *Handler) APIPostComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	topic, ok := h.Topics.Topic(id)
	if !ok || !topic.IsPublished() {
		http.NotFound(w, r)
		return
	}

	var req submitCommentRequest
	if err := web.DecodeValidate(r.Body, &req); err != nil {
		web.WriteError(w, err)
		return
	}

	adapter, err := h.Comments.ForTopic(r.Context(), id)
	if err != nil {
		web.WriteError(w, err)
		return
	}

	sess := middleware.FromContext(r)
	if err := adapter.Append(r.Context(), req.Text, sess.Identity); err != nil {
		web.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) APIStats(w http.ResponseWriter, r *http.Request) {
	web.WriteJSON(w, http.StatusOK, h.Topics.Stats())
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
