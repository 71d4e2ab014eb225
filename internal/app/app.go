package app

import (
	"context"
	"fmt"
	"log"

	"appforge/internal/codegen"
	"appforge/internal/config"
	"appforge/internal/conversation"
	"appforge/internal/llm"
	"appforge/internal/mlops"
	"appforge/internal/server"
	"appforge/internal/treestore"
)

type App struct {
	server *server.Server
	client llm.Client
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init LLM client: %w", err)
	}
	log.Printf("LLM client: %s", client.Name())

	// Dependencies
	manager := conversation.NewManager(client)
	engine := codegen.New()
	mlSvc := mlops.NewService(mlops.NewFromEnv(cfg.Store.MLOpsPath))

	trees, err := newTreeStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init build storage: %w", err)
	}

	// Routing & Server
	mux := server.NewMux(server.NewHandler(manager, engine, mlSvc, trees))
	srv := server.New(cfg.Port, mux)

	return &App{
		server: srv,
		client: client,
	}, nil
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if cfg.LLM.Fake {
		return llm.NewFakeClient(), nil
	}
	return llm.NewGeminiClient(ctx, cfg.LLM.Model)
}

func newTreeStore(cfg *config.Config) (treestore.Store, error) {
	if cfg.Builds.S3.Enabled {
		s, err := treestore.NewS3Store(treestore.S3Config{
			Endpoint:  cfg.Builds.S3.Endpoint,
			Region:    cfg.Builds.S3.Region,
			AccessKey: cfg.Builds.S3.AccessKey,
			SecretKey: cfg.Builds.S3.SecretKey,
			Bucket:    cfg.Builds.S3.Bucket,
			UseSSL:    cfg.Builds.S3.UseSSL,
		})
		if err == nil {
			return s, nil
		}
		log.Printf("S3 build storage unavailable, falling back to local: %v", err)
	}
	return treestore.NewLocalStore(cfg.Builds.Dir)
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.client != nil {
		_ = a.client.Close()
	}
	return a.server.Shutdown(ctx)
}
