// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/docxmark/internal/config"
	"github.com/docxmark/internal/convert"
	"github.com/docxmark/internal/database"
	"github.com/docxmark/internal/logger"
	"github.com/docxmark/internal/parser"
	"github.com/docxmark/internal/watcher"
)

var (
	outDir     = flag.String("out", "", "Write <name>.txt files to this directory instead of stdout")
	watch      = flag.Bool("watch", false, "Watch the configured folders and convert .docx files as they change")
	configPath = flag.String("config", "", "Path to config file (default: ./docxmark.yaml)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-out DIR] [-watch] [-config FILE] file.docx...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	// stdout carries the converted text, so logs go to stderr
	appLogger := logger.NewWriterLogger(os.Stderr, level)
	logger.SetDefault(appLogger)
	defer appLogger.Close()

	if *watch {
		if err := runWatch(cfg, flag.Args()); err != nil {
			logger.Fatalf("Watch failed: %v", err)
		}
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	svc := convert.NewService(parser.DOCX{}, nil, 0)
	failed := 0
	for _, path := range flag.Args() {
		if err := convertFile(context.Background(), svc, path, *outDir); err != nil {
			logger.Errorf("%s: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func convertFile(ctx context.Context, svc *convert.Service, path, dir string) error {
	if _, err := parser.ForFile(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	result, err := svc.Convert(ctx, convert.Request{
		Source:   database.SourceCLI,
		FileName: filepath.Base(path),
		Data:     data,
	})
	if err != nil {
		return err
	}

	if dir == "" {
		_, err := fmt.Fprintln(os.Stdout, result.Text)
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	out := filepath.Join(dir, convert.OutputName(path))
	if err := os.WriteFile(out, result.Bytes(), 0644); err != nil {
		return err
	}
	logger.Printf("Wrote %s", out)
	return nil
}

// runWatch converts .docx files in the watch folders until interrupted.
// Extra arguments are added to the configured watch paths.
func runWatch(cfg *config.Config, extra []string) error {
	paths := append(cfg.Watch.Paths, extra...)
	if len(paths) == 0 {
		return fmt.Errorf("no watch paths: set watch.paths or pass folders as arguments")
	}

	db, err := database.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	history, err := database.NewHistoryStore(db)
	if err != nil {
		return err
	}
	tracked, err := database.NewTrackedFileStore(db)
	if err != nil {
		return err
	}

	opts := watcher.Options{
		Paths:     paths,
		OutputDir: cfg.Watch.OutputDir,
		Debounce:  cfg.Watch.Debounce,
	}
	if *outDir != "" {
		opts.OutputDir = *outDir
	}
	if cfg.Watch.Notify {
		opts.Notifier = watcher.DesktopNotifier{}
	}

	mgr := watcher.NewManager(opts, convert.NewService(parser.DOCX{}, history, 0), tracked)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	logger.Printf("Watching %v (Ctrl+C to stop)", mgr.Status().WatchingPaths)

	<-ctx.Done()
	mgr.Stop()

	s := mgr.Status()
	logger.Printf("Stopped: converted=%d skipped=%d errors=%d", s.Converted, s.Skipped, s.Errors)
	return nil
}
