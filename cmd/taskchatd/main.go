// Command taskchatd is the taskchat server daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"taskchat/bot"
	"taskchat/chat"
	"taskchat/config"
	"taskchat/internal/version"
	"taskchat/provider"
	"taskchat/provider/mock"
	"taskchat/server"
	"taskchat/storage"
	"taskchat/task"
)

var configPath = flag.String("config", "taskchat.yaml", "path to config file")

func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if _, err := os.Stat(*configPath); err == nil {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
		cfg = loaded
	}
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("COHERE_API_KEY")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	logger.Info("starting taskchatd",
		"version", version.Version,
		"commit", version.Commit,
	)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data dir %s: %v", cfg.DataDir, err)
	}
	db, err := storage.Open(filepath.Join(cfg.DataDir, "taskchat.db"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	tasks, err := task.NewSQLiteStore(db)
	if err != nil {
		log.Fatalf("Failed to init task store: %v", err)
	}
	chats, err := chat.NewSQLiteStore(db)
	if err != nil {
		log.Fatalf("Failed to init chat store: %v", err)
	}
	users, err := server.NewUserStore(db)
	if err != nil {
		log.Fatalf("Failed to init user store: %v", err)
	}

	// The interpreter client is built once at process start and shared.
	interp, err := buildProvider(cfg.Provider)
	if err != nil {
		log.Fatalf("Failed to init provider: %v", err)
	}
	logger.Info("interpreter provider ready", "provider", interp.Name())

	b := bot.New(interp, tasks, chats, logger)

	srv := server.New(*cfg, version.Version, logger)
	srv.SetBot(b)
	srv.SetTaskStore(tasks)
	srv.SetUserStore(users)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case <-sigCh:
	}

	fmt.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("server stop error", "error", err)
	}
	fmt.Println("Shutdown complete")
}

func buildProvider(cfg config.ProviderConfig) (provider.Provider, error) {
	switch cfg.Name {
	case "", "cohere":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("cohere provider requires an API key (config or $COHERE_API_KEY)")
		}
		return provider.NewCohereProvider(provider.CohereConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}), nil
	case "mock":
		return mock.New(), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Name)
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
