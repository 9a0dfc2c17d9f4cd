// Command create-admin provisions an administrator account directly in the
// store, for deployments that do not configure one in private.yaml.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/agora-dev/agora/internal/auth"
	"github.com/agora-dev/agora/internal/config"
	"github.com/agora-dev/agora/internal/rtdb"
)

func main() {
	var configFolder, email, password, name string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.StringVar(&email, "email", "", "admin email")
	flag.StringVar(&password, "password", "", "admin password")
	flag.StringVar(&name, "name", "Admin", "display name")
	flag.Parse()

	if email == "" || password == "" {
		log.Fatal("email and password are required")
	}

	cfg := config.MustLoad(configFolder)
	if cfg.Public.StoreBackend != "redis" {
		log.Fatal("create-admin needs the redis backend; the memory backend has no durable accounts")
	}

	client, err := rtdb.NewRedis(cfg.Public.Redis)
	if err != nil {
		log.Fatal(err)
	}

	tokens := auth.NewTokens(cfg.JwtKey(), cfg.JwtTTL())
	provider := auth.NewProvider(client, tokens)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := provider.EnsureAccount(ctx, email, password, name, true); err != nil {
		log.Fatal(err)
	}
	log.Printf("admin account ready for %s", email)
}
