package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/dpolishuk/coderead/internal/api"
	"github.com/dpolishuk/coderead/internal/config"
	"github.com/dpolishuk/coderead/internal/db"
	"github.com/dpolishuk/coderead/internal/git"
	"github.com/dpolishuk/coderead/internal/indexer"
	"github.com/dpolishuk/coderead/internal/llm"
	"github.com/dpolishuk/coderead/internal/worker"
	"github.com/dpolishuk/coderead/pkg/treesitter"
	"github.com/gofiber/fiber/v3"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := db.NewNeo4jClient(ctx, db.Neo4jConfig{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUser,
		Password: cfg.Neo4jPass,
		Database: cfg.Neo4jDatabase,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Neo4j: %v", err)
	}
	defer client.Close()

	if err := client.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	store := db.NewStore(client)

	describer, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	registry := treesitter.NewRegistry()
	defer registry.Close()

	pipeline, err := indexer.NewPipeline(store, git.NewGitService(cfg.ReposPath, cfg.GitRemoteBase), describer, registry, indexer.Options{
		AuthToken:      cfg.GitHubToken,
		IgnorePatterns: cfg.IgnorePatterns,
	})
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	pool := worker.NewPool(pipeline, cfg.WorkerCount, 100)
	if err := pool.Resume(ctx, store, time.Now().UTC()); err != nil {
		log.Printf("Failed to resume unfinished jobs: %v", err)
	}
	go func() {
		if err := pool.Run(ctx); err != nil {
			log.Printf("Worker pool stopped: %v", err)
		}
	}()

	app := fiber.New(fiber.Config{
		AppName: "CodeRead API",
	})
	api.SetupRoutes(app, api.NewHandler(store, pool))

	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Printf("Failed to shut down server: %v", err)
		}
	}()

	log.Printf("Starting CodeRead backend on port %s with %d workers", cfg.Port, cfg.WorkerCount)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
