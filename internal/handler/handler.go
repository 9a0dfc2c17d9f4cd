package handler

import (
	"html/template"

	"github.com/agora-dev/agora/internal/auth"
	"github.com/agora-dev/agora/internal/markdown"
	"github.com/agora-dev/agora/internal/moderation"
	"github.com/agora-dev/agora/internal/store"
)

type Handler struct {
	Templates     map[string]*template.Template
	Topics        *store.TopicAdapter
	Comments      *store.CommentAdapters
	Workflow      *moderation.Workflow
	Auth          *auth.Provider
	Markdown      *markdown.Renderer
	SecureCookies bool
}

func New(templates map[string]*template.Template, topics *store.TopicAdapter, comments *store.CommentAdapters, workflow *moderation.Workflow, provider *auth.Provider, md *markdown.Renderer, secureCookies bool) *Handler {
	return &Handler{
		Templates:     templates,
		Topics:        topics,
		Comments:      comments,
		Workflow:      workflow,
		Auth:          provider,
		Markdown:      md,
		SecureCookies: secureCookies,
	}
}
