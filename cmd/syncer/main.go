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

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"hn_syncer/internal/config"
	"hn_syncer/internal/httpapi"
	"hn_syncer/internal/publisher"
	"hn_syncer/internal/scheduler"
	"hn_syncer/internal/service"
	"hn_syncer/internal/source/hackernews"
	"hn_syncer/internal/storage/postgres"
	"hn_syncer/internal/storage/sqlite"
)

// storyStore combines the write side used by the sync service and the
// read side used by the HTTP API, so main can hold one value per
// backend regardless of driver.
type storyStore interface {
	service.StoryStore
	httpapi.StoryReader
}

type commentStore interface {
	service.CommentStore
	httpapi.CommentReader
}

type syncLogStore interface {
	service.SyncLogStore
	httpapi.SyncLogReader
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, stories, comments, syncLogs, txManager, err := openStorage(cfg.Database)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("storage ready", "driver", cfg.Database.Driver)

	// Initialize RabbitMQ publisher. Publishing is optional: with no URL
	// configured the sync service skips it entirely.
	var pub service.Publisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	// Initialize Hacker News source
	hnSource := hackernews.New(hackernews.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, logger)

	syncService := service.NewSyncService(
		hnSource,
		stories,
		comments,
		syncLogs,
		txManager,
		pub,
		logger,
		cfg.Sync,
	)

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)
	api := httpapi.NewServer(syncService, stories, comments, syncLogs, cfg.Sync.StaleAfter, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown", "error", err)
		}
	}()

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("starting hn syncer",
		"source", hnSource.Name(),
		"interval", cfg.Sync.Interval,
		"top_stories", cfg.Sync.TopStories,
	)

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func openStorage(cfg config.DatabaseConfig) (*sqlx.DB, storyStore, commentStore, syncLogStore, service.TransactionManager, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("open sqlite database: %w", err)
		}
		return db, sqlite.NewStoryStore(db), sqlite.NewCommentStore(db), sqlite.NewSyncLogStore(db), sqlite.NewTransactionManager(db), nil
	case "postgres":
		db, err := sqlx.Connect("postgres", cfg.DSN())
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, nil, nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		return db, postgres.NewStoryStore(db), postgres.NewCommentStore(db), postgres.NewSyncLogStore(db), postgres.NewTransactionManager(db), nil
	default:
		return nil, nil, nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
