// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Conversion sources
const (
	SourceTelegram = "telegram"
	SourceWatch    = "watch"
	SourceHTTP     = "http"
	SourceCLI      = "cli"
)

// Conversion statuses
const (
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
)

// Conversion is one entry of the conversion history
type Conversion struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	ChatID      int64     `json:"chat_id,omitempty"`
	FileName    string    `json:"file_name"`
	FileHash    string    `json:"file_hash,omitempty"`
	Paragraphs  int       `json:"paragraphs"`
	Runs        int       `json:"runs"`
	OutputBytes int       `json:"output_bytes"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryStore manages the conversion history
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore creates a new history store
func NewHistoryStore(db *sql.DB) (*HistoryStore, error) {
	store := &HistoryStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize conversions schema: %w", err)
	}
	return store, nil
}

// initSchema creates the conversions table if it doesn't exist
func (s *HistoryStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS conversions (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		chat_id INTEGER,
		file_name TEXT NOT NULL,
		file_hash TEXT,
		paragraphs INTEGER NOT NULL DEFAULT 0,
		runs INTEGER NOT NULL DEFAULT 0,
		output_bytes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a conversion, assigning an ID and timestamp when missing
func (s *HistoryStore) Record(ctx context.Context, c *Conversion) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (id, source, chat_id, file_name, file_hash, paragraphs, runs, output_bytes, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Source, c.ChatID, c.FileName, c.FileHash, c.Paragraphs, c.Runs, c.OutputBytes, c.Status, c.Error, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}
	return nil
}

// Recent returns the last N conversions, newest first.
// If source is provided, only conversions from that source are returned.
func (s *HistoryStore) Recent(ctx context.Context, limit int, source string) ([]Conversion, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT id, source, chat_id, file_name, file_hash, paragraphs, runs, output_bytes, status, error, created_at FROM conversions"
	args := []interface{}{}
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	var out []Conversion
	for rows.Next() {
		var c Conversion
		var chatID sql.NullInt64
		var fileHash, errText sql.NullString
		if err := rows.Scan(&c.ID, &c.Source, &chatID, &c.FileName, &fileHash, &c.Paragraphs, &c.Runs, &c.OutputBytes, &c.Status, &errText, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		c.ChatID = chatID.Int64
		c.FileHash = fileHash.String
		c.Error = errText.String
		out = append(out, c)
	}
	return out, rows.Err()
}
