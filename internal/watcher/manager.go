// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docxmark/internal/convert"
	"github.com/docxmark/internal/database"
	"github.com/docxmark/internal/logger"
	"github.com/docxmark/internal/parser"
)

// DefaultDebounce is used when Options.Debounce is zero
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Manager
type Options struct {
	Paths     []string
	OutputDir string // empty writes next to the source file
	Debounce  time.Duration
	Notifier  Notifier
}

// Status represents the current watcher status
type Status struct {
	WatchingPaths []string `json:"watching_paths"`
	Converted     int      `json:"converted"`
	Skipped       int      `json:"skipped"`
	Errors        int      `json:"errors"`
}

// Manager converts .docx files that appear or change in watched folders
type Manager struct {
	opts      Options
	converter *convert.Service
	decisions *DecisionEngine
	debouncer *Debouncer
	notifier  Notifier

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	roots   []string
	status  Status
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewManager creates a watcher manager. Nothing is watched until Start.
func NewManager(opts Options, converter *convert.Service, tracker Tracker) *Manager {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	m := &Manager{
		opts:      opts,
		converter: converter,
		decisions: NewDecisionEngine(tracker),
		notifier:  opts.Notifier,
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	return m
}

// Start watches all configured paths recursively and queues the .docx
// files already in them.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return errors.New("watcher already running")
	}
	if len(m.opts.Paths) == 0 {
		return errors.New("no watch paths configured")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.fsw = fsw
	runCtx := m.ctx
	m.debouncer = NewDebouncer(m.opts.Debounce, func(path string) {
		m.processFile(runCtx, path)
	})
	m.roots = nil

	for _, path := range m.opts.Paths {
		root, err := m.addRoot(path)
		if err != nil {
			logger.Errorf("Failed to watch path %s: %v", path, err)
			continue
		}
		m.roots = append(m.roots, root)
	}
	if len(m.roots) == 0 {
		m.cancel()
		fsw.Close()
		return errors.New("none of the watch paths could be watched")
	}

	m.running = true
	m.wg.Add(1)
	go m.processEvents()

	for _, root := range m.roots {
		m.scanExisting(root)
	}
	return nil
}

// Stop stops watching and waits for in-flight conversions
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.cancel()
	m.debouncer.Stop()
	if err := m.fsw.Close(); err != nil {
		logger.Warnf("Error closing watcher: %v", err)
	}
	m.mu.Unlock()

	m.wg.Wait()
	m.debouncer.Wait()
}

// Status returns the watched roots and conversion counters
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.status
	s.WatchingPaths = append([]string(nil), m.roots...)
	sort.Strings(s.WatchingPaths)
	return s
}

// addRoot adds a directory tree to the watcher, creating it if needed
func (m *Manager) addRoot(path string) (string, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if _, err := os.Stat(root); os.IsNotExist(err) {
		if err := os.MkdirAll(root, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
		logger.Printf("Created watch directory: %s", root)
	}

	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := m.fsw.Add(p); err != nil {
				logger.Warnf("Failed to watch %s: %v", p, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk directory: %w", err)
	}

	logger.Printf("Watching directory (recursive): %s", root)
	return root, nil
}

func (m *Manager) processEvents() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-m.fsw.Events:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-m.fsw.Errors:
			if !ok {
				return
			}
			logger.Errorf("Watcher error: %v", err)
		}
	}
}

func (m *Manager) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := m.fsw.Add(event.Name); err != nil {
				logger.Warnf("Failed to watch new directory %s: %v", event.Name, err)
			} else {
				logger.Printf("Added new directory to watch: %s", event.Name)
			}
			m.scanExisting(event.Name)
			return
		}
	}

	if wanted(event.Name) {
		m.debouncer.Trigger(event.Name)
	}
}

func (m *Manager) scanExisting(dir string) {
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && wanted(p) {
			m.debouncer.Trigger(p)
		}
		return nil
	})
	if err != nil {
		logger.Errorf("Error scanning directory %s: %v", dir, err)
	}
}

func wanted(path string) bool {
	return !parser.IsTemporaryFile(path) && parser.IsSupportedFile(path)
}

// processFile converts one file if its content changed since the last run
// and returns the path of the written output, or "" when nothing was written.
func (m *Manager) processFile(ctx context.Context, path string) string {
	decision, err := m.decisions.Decide(path)
	if err != nil {
		// removed or renamed before the debounce fired
		logger.Warnf("Failed to check %s: %v", path, err)
		m.count(func(s *Status) { s.Errors++ })
		return ""
	}
	if !decision.Convert {
		logger.Debugf("Skipping file: %s - %s", path, decision.Reason)
		m.count(func(s *Status) { s.Skipped++ })
		return ""
	}

	logger.Printf("Processing %s (%s)", path, decision.Kind)

	result, err := m.converter.Convert(ctx, convert.Request{
		Source:   database.SourceWatch,
		FileName: filepath.Base(path),
		Data:     decision.Data,
	})
	if err != nil {
		m.count(func(s *Status) { s.Errors++ })
		if err := m.decisions.MarkProcessed(decision, database.StatusFailed); err != nil {
			logger.Errorf("Failed to update tracked file %s: %v", path, err)
		}
		notify(m.notifier, "docxmark: conversion failed", fmt.Sprintf("%s: %v", filepath.Base(path), err))
		return ""
	}

	out, err := m.writeOutput(path, result)
	if err != nil {
		logger.Errorf("Failed to write output for %s: %v", path, err)
		m.count(func(s *Status) { s.Errors++ })
		return ""
	}

	if err := m.decisions.MarkProcessed(decision, database.StatusSuccess); err != nil {
		logger.Errorf("Failed to update tracked file %s: %v", path, err)
	}
	m.count(func(s *Status) { s.Converted++ })

	logger.Printf("Converted %s -> %s", path, out)
	notify(m.notifier, "docxmark", fmt.Sprintf("Converted %s", filepath.Base(path)))
	return out
}

func (m *Manager) writeOutput(source string, result *convert.Result) (string, error) {
	dir := m.opts.OutputDir
	if dir == "" {
		dir = filepath.Dir(source)
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	out := filepath.Join(dir, convert.OutputName(source))
	if err := os.WriteFile(out, result.Bytes(), 0644); err != nil {
		return "", err
	}
	return out, nil
}

func (m *Manager) count(update func(*Status)) {
	m.mu.Lock()
	update(&m.status)
	m.mu.Unlock()
}
