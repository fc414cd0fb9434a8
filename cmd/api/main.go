package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/nmoreau/penny/internal/agent"
	"github.com/nmoreau/penny/internal/auth"
	"github.com/nmoreau/penny/internal/config"
	"github.com/nmoreau/penny/internal/database"
	pennyHttp "github.com/nmoreau/penny/internal/http"
	chatHandler "github.com/nmoreau/penny/internal/http/chat"
	txHandler "github.com/nmoreau/penny/internal/http/transaction"
	"github.com/nmoreau/penny/internal/llm"
	"github.com/nmoreau/penny/internal/transaction"
	txStore "github.com/nmoreau/penny/internal/transaction/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	ctx := context.Background()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	model, err := llm.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		slog.Error("failed to create model client", "error", err)
		os.Exit(1)
	}

	var (
		transactionService = transaction.NewService(txStore.New(db))
		chatAgent          = agent.New(model, transactionService)
		verifier           = auth.NewVerifier(auth.CognitoConfig(
			cfg.Cognito.Region, cfg.Cognito.UserPoolID, cfg.Cognito.ClientID,
		))
	)

	var (
		transactionH = txHandler.NewHandler(transactionService)
		chatH        = chatHandler.NewHandler(chatAgent, cfg.Gemini.Timeout)
	)

	router := pennyHttp.New(chatH, transactionH, auth.Middleware(verifier))

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	level := slog.LevelInfo

	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Log.JSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
