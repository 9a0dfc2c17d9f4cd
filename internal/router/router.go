package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agora-dev/agora/internal/middleware"
	"github.com/agora-dev/agora/internal/setup"
)

func Setup(deps *setup.Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders(deps.Config.Public.SecureCookies, deps.Config.Public.CSP))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(deps.Sessions.Resolve)

	// Operational endpoints
	r.Get("/healthz", deps.Handler.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Method(http.MethodGet, "/live", deps.Hub)

	if deps.Config.Public.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(deps.Config.Public.StaticDir))))
	}

	// Public pages
	r.Get("/", deps.Handler.HomeGetHandler)
	r.Post("/submit", deps.Handler.SubmitPostHandler)
	r.Get("/topic/{id}", deps.Handler.TopicGetHandler)
	r.Post("/topic/{id}/comments", deps.Handler.CommentPostHandler)

	r.Get("/login", deps.Handler.LoginGetHandler)
	r.Post("/login", deps.Handler.LoginPostHandler)
	r.Post("/logout", deps.Handler.LogoutHandler)

	// Moderation surface
	r.Group(func(r chi.Router) {
		r.Use(deps.Sessions.RequireAdmin)

		r.Get("/admin", deps.Handler.AdminGetHandler)
		r.Post("/admin/topics", deps.Handler.AdminCreatePostHandler)
		r.Post("/admin/topics/{id}/approve", deps.Handler.ApprovePostHandler)
		r.Post("/admin/topics/{id}/reject", deps.Handler.RejectPostHandler)
		r.Post("/admin/topics/{id}/edit", deps.Handler.AdminEditPostHandler)
		r.Post("/admin/topics/{id}/delete", deps.Handler.AdminDeletePostHandler)
		r.Post("/topic/{id}/comments/{commentId}/delete", deps.Handler.CommentDeleteHandler)
	})

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/topics", deps.Handler.APIListTopics)
		r.Post("/topics", deps.Handler.APISubmitTopic)
		r.Get("/topics/{id}", deps.Handler.APIGetTopic)
		r.Get("/topics/{id}/comments", deps.Handler.APIListComments)
		r.Post("/topics/{id}/comments", deps.Handler.APIPostComment)
		r.Get("/stats", deps.Handler.APIStats)
	})

	return r
}
