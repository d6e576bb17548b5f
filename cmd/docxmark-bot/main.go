// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docxmark/internal/config"
	"github.com/docxmark/internal/convert"
	"github.com/docxmark/internal/database"
	"github.com/docxmark/internal/jobs"
	"github.com/docxmark/internal/logger"
	"github.com/docxmark/internal/parser"
	"github.com/docxmark/internal/queue"
	"github.com/docxmark/internal/server"
	"github.com/docxmark/internal/telegram"
	"github.com/docxmark/internal/watcher"
	"github.com/docxmark/internal/worker"
)

var (
	configPath = flag.String("config", "", "Path to config file (default: ./docxmark.yaml)")
	port       = flag.Int("port", 0, "HTTP port (overrides config and PORT)")
	mode       = flag.String("mode", "", "Bot delivery mode: webhook or polling (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *mode != "" {
		cfg.Bot.Mode = *mode
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	appLogger, err := logger.Init(cfg.Log.File, level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	logger.Printf("Starting docxmark bot (mode=%s port=%d workers=%d)", cfg.Bot.Mode, cfg.Server.Port, cfg.Queue.Workers)

	db, err := database.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	history, err := database.NewHistoryStore(db)
	if err != nil {
		logger.Fatalf("Failed to initialize history: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobQueue, closeQueue := openQueue(ctx, cfg)
	defer closeQueue()

	converter := convert.NewService(parser.DOCX{}, history, cfg.Bot.MaxFileSize)

	bot, err := telegram.New(cfg.Bot, jobQueue)
	if err != nil {
		logger.Fatalf("Failed to start bot: %v", err)
	}

	router := worker.NewRouter()
	router.Handle(jobs.JobTypeConvertDocument, jobs.NewConvertHandler(converter, bot.Client(), bot.Client()).Handle)

	workerCtx, workerCancel := context.WithCancel(ctx)
	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		if err := worker.StartWorkers(workerCtx, jobQueue, router.Dispatch, cfg.Queue.Workers); err != nil {
			logger.Errorf("Worker error: %v", err)
		}
	}()

	watcherMgr := startWatcher(ctx, cfg, db, converter)

	opts := server.Options{
		Converter: converter,
		History:   history,
	}
	if cfg.Bot.Mode == config.ModeWebhook {
		opts.Webhook = bot.WebhookHandler()
		opts.WebhookPath = cfg.Bot.WebhookPath
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Routes(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("HTTP server listening on %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		if err := bot.Run(ctx); err != nil {
			logger.Errorf("Bot stopped: %v", err)
		}
	}()

	waitForShutdown(botDone)

	logger.Println("Shutting down...")
	cancel()
	workerCancel()
	if watcherMgr != nil {
		watcherMgr.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}

	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		logger.Warnf("Workers did not stop in time")
	}
}

// openQueue uses Redis when it is configured and reachable, and an in-process
// queue otherwise
func openQueue(ctx context.Context, cfg *config.Config) (queue.Queue, func()) {
	redisClient, err := config.NewRedisClient(ctx, cfg.Redis)
	if err == nil {
		q, err := queue.NewRedisQueue(ctx, redisClient, cfg.Queue.Key)
		if err == nil {
			logger.Printf("Using Redis job queue %s", cfg.Queue.Key)
			return q, func() { redisClient.Close() }
		}
		logger.Warnf("Failed to create Redis queue: %v", err)
		redisClient.Close()
	} else if !errors.Is(err, config.ErrRedisDisabled) {
		logger.Warnf("Failed to connect to Redis: %v, using in-memory queue", err)
	}

	q := queue.NewMemoryQueue(cfg.Queue.Workers * 16)
	logger.Printf("Using in-memory job queue")
	return q, q.Close
}

func startWatcher(ctx context.Context, cfg *config.Config, db *sql.DB, converter *convert.Service) *watcher.Manager {
	if len(cfg.Watch.Paths) == 0 {
		return nil
	}

	tracked, err := database.NewTrackedFileStore(db)
	if err != nil {
		logger.Errorf("Failed to initialize tracked files, watcher disabled: %v", err)
		return nil
	}

	opts := watcher.Options{
		Paths:     cfg.Watch.Paths,
		OutputDir: cfg.Watch.OutputDir,
		Debounce:  cfg.Watch.Debounce,
	}
	if cfg.Watch.Notify {
		opts.Notifier = watcher.DesktopNotifier{}
	}

	mgr := watcher.NewManager(opts, converter, tracked)
	if err := mgr.Start(ctx); err != nil {
		logger.Errorf("Failed to start watcher: %v", err)
		return nil
	}
	return mgr
}

func waitForShutdown(botDone <-chan struct{}) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Printf("Received %s", sig)
	case <-botDone:
		logger.Warnf("Bot exited")
	}
}
