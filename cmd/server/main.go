package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"fliptrack-intel/internal/adapter/api"
	"fliptrack-intel/internal/adapter/client"
	"fliptrack-intel/internal/adapter/store"
	"fliptrack-intel/internal/config"
	"fliptrack-intel/internal/domain/repository"
	"fliptrack-intel/internal/pkg/logger"
	"fliptrack-intel/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog := logger.New(cfg.App.LogLevel, cfg.App.Env)
	defer func() { _ = zlog.Sync() }()

	db, err := store.OpenDatabase(cfg.Database)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	expenses := store.NewGormExpenseSource(db)
	insights := store.NewGormInsightStore(db, zlog)

	ctx := context.Background()

	// Redis usage telemetry is optional; the pipeline runs fine without it.
	var usage repository.UsageTracker = store.NoopUsageTracker{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Warn("redis unreachable, usage telemetry disabled", zap.Error(err))
		} else {
			usage = store.NewRedisUsageTracker(rdb)
		}
	}

	providers := buildProviders(ctx, cfg, zlog)
	if len(providers) == 0 {
		zlog.Fatal("no usable LLM providers in chain", zap.Strings("chain", cfg.LLM.Chain))
	}

	invoker := usecase.NewInvoker(providers, cfg.LLM.Timeout, cfg.LLM.MaxRetries, zlog)
	orchestrator := usecase.NewOrchestrator(expenses, insights, usage, invoker, usecase.OrchestratorConfig{
		TopVendors:    cfg.Analysis.TopVendors,
		TopCategories: cfg.Analysis.TopCategories,
		ClientName:    cfg.Analysis.ClientName,
	}, zlog)

	app := fiber.New(fiber.Config{
		AppName: "FlipTrack Intel",
	})
	handler := api.NewInsightHandler(orchestrator, usage, zlog)
	api.SetupRouter(app, handler, cfg.App.Env)

	zlog.Info("vendor intelligence service listening",
		zap.String("port", cfg.App.Port),
		zap.Strings("providers", providerNames(providers)))
	if err := app.Listen(":" + cfg.App.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

// buildProviders assembles the chain in configured order. A provider without
// credentials is skipped with a warning rather than failing startup, so a
// partially configured environment still serves with whatever chain remains.
func buildProviders(ctx context.Context, cfg *config.Config, zlog *zap.Logger) []repository.Provider {
	var providers []repository.Provider
	for _, name := range cfg.LLM.Chain {
		switch name {
		case "openai":
			if cfg.LLM.OpenAI.APIKey == "" {
				zlog.Warn("openai in chain but OPENAI_API_KEY unset, skipping")
				continue
			}
			providers = append(providers, client.NewOpenAIClient(cfg.LLM.OpenAI))
		case "anthropic":
			if cfg.LLM.Anthropic.APIKey == "" {
				zlog.Warn("anthropic in chain but ANTHROPIC_API_KEY unset, skipping")
				continue
			}
			providers = append(providers, client.NewAnthropicClient(cfg.LLM.Anthropic))
		case "gemini":
			if cfg.LLM.Gemini.APIKey == "" && cfg.LLM.Gemini.Project == "" {
				zlog.Warn("gemini in chain but no API key or project set, skipping")
				continue
			}
			g, err := client.NewGeminiClient(ctx, cfg.LLM.Gemini)
			if err != nil {
				zlog.Warn("gemini client init failed, skipping", zap.Error(err))
				continue
			}
			providers = append(providers, g)
		}
	}
	return providers
}

func providerNames(providers []repository.Provider) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}
