// Package main is the entry point for the medical chat service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medchat/config"
	"medchat/internal/cache"
	"medchat/internal/chatstore"
	"medchat/internal/completion"
	"medchat/internal/logging"
	"medchat/internal/payload"
	"medchat/internal/pipeline"
	"medchat/internal/profilestore"
	"medchat/internal/server"
	"medchat/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println("medchat " + Version)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logging.Setup(os.Stdout, cfg.Log.Format, cfg.Log.Level)

	slog.Info("starting medchat", "version", Version)

	ctx := context.Background()

	// Shared database connection
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err, "type", cfg.Storage.Type)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "type", store.Type())

	chats, err := chatstore.New(store)
	if err != nil {
		slog.Error("failed to initialize chat store", "error", err)
		os.Exit(1)
	}
	profiles, err := profilestore.New(store)
	if err != nil {
		slog.Error("failed to initialize profile store", "error", err)
		os.Exit(1)
	}

	profileCache, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize profile cache", "error", err)
		os.Exit(1)
	}
	defer profileCache.Close()

	// A missing API key degrades to the configured fallback message
	// instead of refusing to start.
	completions := completion.New(completion.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
	})
	if completions == nil {
		slog.Warn("OPENAI_API_KEY not set, responding with the fallback message")
	}

	if cfg.Server.MasterKey == "" {
		slog.Warn("MASTER_KEY not set, API is unauthenticated")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	handler := server.NewHandler(
		chats,
		profiles,
		profileCache,
		pipeline.New(cfg.Attachment.MaxBytes),
		payload.New(cfg.Chat.TextModel, cfg.Chat.VisionModel),
		completions,
		server.ChatOptions{
			MaxTokens:       cfg.Chat.MaxTokens,
			Temperature:     cfg.Chat.Temperature,
			SystemPrompt:    cfg.Chat.SystemPrompt,
			FallbackMessage: cfg.Chat.FallbackMessage,
		},
	)

	srv := server.New(handler, &server.Config{
		MasterKey:      cfg.Server.MasterKey,
		MetricsEnabled: cfg.Server.MetricsEnabled,
		BodyLimit:      cfg.Server.BodyLimit,
	})

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}
