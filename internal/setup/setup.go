package setup

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/agora-dev/agora/internal/auth"
	"github.com/agora-dev/agora/internal/config"
	"github.com/agora-dev/agora/internal/handler"
	"github.com/agora-dev/agora/internal/live"
	"github.com/agora-dev/agora/internal/logger"
	"github.com/agora-dev/agora/internal/markdown"
	"github.com/agora-dev/agora/internal/middleware"
	"github.com/agora-dev/agora/internal/moderation"
	"github.com/agora-dev/agora/internal/rtdb"
	"github.com/agora-dev/agora/internal/session"
	"github.com/agora-dev/agora/internal/store"
)

const baseTemplate = "base.html"

type Dependencies struct {
	Config   *config.Config
	Handler  *handler.Handler
	Sessions *middleware.Sessions
	Hub      *live.Hub
	Topics   *store.TopicAdapter
	Comments *store.CommentAdapters
}

func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	client, err := newStoreClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}

	tokens := auth.NewTokens(cfg.JwtKey(), cfg.JwtTTL())
	provider := auth.NewProvider(client, tokens)

	// Bootstrap the administrator account so a fresh deployment is usable.
	if email, password := cfg.AdminCredentials(); email != "" && password != "" {
		if err := provider.EnsureAccount(ctx, email, password, "Admin", true); err != nil {
			return nil, fmt.Errorf("provisioning admin account: %w", err)
		}
	}

	hub := live.NewHub()

	topics := store.NewTopicAdapter(client)
	topics.OnChange(func() { hub.Broadcast("topics") })
	if err := topics.Start(ctx); err != nil {
		return nil, fmt.Errorf("loading topic projections: %w", err)
	}

	comments := store.NewCommentAdapters(client, func() { hub.Broadcast("comments") })

	h := handler.New(
		mustLoadTemplates(cfg.Public.TemplatesDir),
		topics,
		comments,
		moderation.New(topics),
		provider,
		markdown.New(),
		cfg.Public.SecureCookies,
	)

	sessions := middleware.NewSessions(session.NewResolver(tokens), cfg.Public.SecureCookies)

	logger.Log.Info("dependencies ready", "backend", cfg.Public.StoreBackend)

	return &Dependencies{
		Config:   cfg,
		Handler:  h,
		Sessions: sessions,
		Hub:      hub,
		Topics:   topics,
		Comments: comments,
	}, nil
}

func (d *Dependencies) Close() {
	d.Comments.Close()
	d.Topics.Close()
	d.Hub.Close()
}

func newStoreClient(cfg *config.Config) (rtdb.Client, error) {
	switch cfg.Public.StoreBackend {
	case "redis":
		return rtdb.NewRedis(cfg.Public.Redis)
	default:
		return rtdb.NewMemory(), nil
	}
}

func formatTime(millis int64) string {
	if millis == 0 {
		return ""
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02 15:04")
}

func mustLoadTemplates(tmplPath string) map[string]*template.Template {
	templates := make(map[string]*template.Template)
	files, err := os.ReadDir(tmplPath)
	if err != nil {
		log.Fatal(err)
	}

	for _, f := range files {
		if filepath.Ext(f.Name()) == ".html" && f.Name() != baseTemplate {
			templates[f.Name()] = template.Must(template.New(baseTemplate).Funcs(
				template.FuncMap{
					"formatTime": formatTime,
				},
			).ParseFiles(
				path.Join(tmplPath, baseTemplate),
				path.Join(tmplPath, f.Name()),
			))
		}
	}
	return templates
}
