package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yfuks/avahost-tech-test/internal/adapter/llm"
	"github.com/yfuks/avahost-tech-test/internal/broadcast"
	"github.com/yfuks/avahost-tech-test/internal/config"
	"github.com/yfuks/avahost-tech-test/internal/domain"
	"github.com/yfuks/avahost-tech-test/internal/listing"
	"github.com/yfuks/avahost-tech-test/internal/observability"
	store "github.com/yfuks/avahost-tech-test/internal/repository"
	"github.com/yfuks/avahost-tech-test/internal/service"
	transporthttp "github.com/yfuks/avahost-tech-test/internal/transport/http"
	"github.com/yfuks/avahost-tech-test/policy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("starting concierge api",
		"port", cfg.Server.Port,
		"database", cfg.Database.URL,
		"model", cfg.LLM.Model,
		"version", transporthttp.Version)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Listing catalog
	catalog := listing.Demo()
	if cfg.Listings.File != "" {
		catalog, err = listing.Load(cfg.Listings.File)
		if err != nil {
			logger.Error("failed to load listings", "file", cfg.Listings.File, "error", err)
			os.Exit(1)
		}
	}

	// Initialize LLM client. Without a key the API still serves tickets and
	// chat turns report the missing configuration.
	llmClient, err := llm.NewLLMClient(llm.Options{
		Mode:    cfg.LLM.Mode,
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Timeout: cfg.LLMTimeout(),
	}, logger)
	if errors.Is(err, domain.ErrLLMNotConfigured) {
		logger.Warn("no LLM provider configured, chat is disabled", "error", err)
	} else if err != nil {
		logger.Error("failed to initialize LLM client", "error", err)
		os.Exit(1)
	}

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Error("failed to initialize policy engine", "error", err)
		os.Exit(1)
	}

	broadcaster := broadcast.New(logger)

	// Initialize service
	svc := service.New(db, llmClient, catalog, policyEngine, broadcaster, cfg, logger)

	server := transporthttp.NewServer(svc, cfg, logger)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("concierge api started", "port", cfg.Server.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Live ticket streams end first so Shutdown does not wait on them.
	broadcaster.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server gracefully", "error", err)
	}

	logger.Info("concierge api stopped")
}
