// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel converts a config value such as "warn" into a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger wraps the standard log package with file output and broadcasting
type Logger struct {
	file        *os.File
	logger      *log.Logger
	level       Level
	broadcast   chan string
	subscribers map[chan string]bool
	subMu       sync.RWMutex
	mu          sync.RWMutex
	closed      bool
}

var (
	defaultLogger *Logger
	defaultMu     sync.Mutex
)

// Init replaces the default logger with one writing to stdout and logFile.
// An empty logFile logs to stdout only.
func Init(logFile string, level Level) (*Logger, error) {
	l, err := NewLogger(logFile, level)
	if err != nil {
		return nil, err
	}

	defaultMu.Lock()
	old := defaultLogger
	defaultLogger = l
	defaultMu.Unlock()

	if old != nil {
		old.Close()
	}
	return l, nil
}

// SetDefault replaces the process-wide logger without closing the old one
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// NewLogger creates a new logger instance
func NewLogger(logFile string, level Level) (*Logger, error) {
	var out io.Writer = os.Stdout
	var file *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		// Create multi-writer: stdout + file
		out = io.MultiWriter(os.Stdout, file)
	}

	return newLogger(out, file, level), nil
}

// NewWriterLogger creates a logger that writes to w only
func NewWriterLogger(w io.Writer, level Level) *Logger {
	return newLogger(w, nil, level)
}

func newLogger(out io.Writer, file *os.File, level Level) *Logger {
	l := &Logger{
		file:        file,
		logger:      log.New(out, "", log.Lshortfile),
		level:       level,
		broadcast:   make(chan string, 100), // Buffered channel to prevent blocking
		subscribers: make(map[chan string]bool),
	}

	go l.broadcastLoop()
	return l
}

// GetDefault returns the default logger instance.
// If none was initialized, or it was closed, a stdout logger is created.
func GetDefault() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLogger != nil {
		defaultLogger.mu.RLock()
		closed := defaultLogger.closed
		defaultLogger.mu.RUnlock()
		if !closed {
			return defaultLogger
		}
	}

	defaultLogger = newLogger(os.Stdout, nil, LevelInfo)
	return defaultLogger
}

// SetLevel changes the minimum level written by the logger
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Subscribe creates a new channel for this client and subscribes it.
// Returns nil if the logger is closed.
func (l *Logger) Subscribe() chan string {
	if l == nil {
		return nil
	}

	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return nil
	}

	clientChan := make(chan string, 10)

	l.subMu.Lock()
	l.subscribers[clientChan] = true
	l.subMu.Unlock()

	return clientChan
}

// Unsubscribe removes a client channel from subscribers
func (l *Logger) Unsubscribe(ch chan string) {
	if ch == nil {
		return
	}

	l.subMu.Lock()
	defer l.subMu.Unlock()

	if l.subscribers[ch] {
		delete(l.subscribers, ch)
		close(ch)
	}
}

// broadcastLoop reads from the main broadcast channel and forwards to all subscribers
func (l *Logger) broadcastLoop() {
	defer func() {
		l.subMu.Lock()
		for ch := range l.subscribers {
			close(ch)
		}
		l.subscribers = make(map[chan string]bool)
		l.subMu.Unlock()
	}()

	for logLine := range l.broadcast {
		l.subMu.RLock()
		for ch := range l.subscribers {
			select {
			case ch <- logLine:
			default:
				// Channel full, skip this subscriber
			}
		}
		l.subMu.RUnlock()
	}
}

// logMessage writes a log message and broadcasts it
func (l *Logger) logMessage(level Level, format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed || level < l.level {
		return
	}

	message := fmt.Sprintf(format, v...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	logLine := fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)

	l.logger.Output(3, logLine)

	select {
	case l.broadcast <- logLine:
	default:
		// Channel full, skip broadcast to prevent blocking
	}
}

// Printf logs a message at INFO level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logMessage(LevelInfo, format, v...)
}

// Println logs a message at INFO level
func (l *Logger) Println(v ...interface{}) {
	l.logMessage(LevelInfo, "%s", fmt.Sprint(v...))
}

// Errorf logs a message at ERROR level
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logMessage(LevelError, format, v...)
}

// Warnf logs a message at WARN level
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logMessage(LevelWarn, format, v...)
}

// Debugf logs a message at DEBUG level
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logMessage(LevelDebug, format, v...)
}

// Fatalf logs a message at FATAL level and exits
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logMessage(LevelFatal, format, v...)
	os.Exit(1)
}

// Close closes the log file and stops broadcasting
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.broadcast)

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Package-level convenience functions
func Printf(format string, v ...interface{}) {
	GetDefault().Printf(format, v...)
}

func Println(v ...interface{}) {
	GetDefault().Println(v...)
}

func Errorf(format string, v ...interface{}) {
	GetDefault().Errorf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	GetDefault().Warnf(format, v...)
}

func Debugf(format string, v ...interface{}) {
	GetDefault().Debugf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	GetDefault().Fatalf(format, v...)
}
