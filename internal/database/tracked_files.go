// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
)

// TrackedFile is a watched file and the hash it was last converted at
type TrackedFile struct {
	FilePath      string
	FileHash      string
	LastProcessed sql.NullTime
	Status        string
}

// TrackedFileStore remembers which watched files were already converted
type TrackedFileStore struct {
	db *sql.DB
}

// NewTrackedFileStore creates the tracked_files table if needed
func NewTrackedFileStore(db *sql.DB) (*TrackedFileStore, error) {
	const schema = `
	CREATE TABLE IF NOT EXISTS tracked_files (
		file_path TEXT PRIMARY KEY,
		file_hash TEXT NOT NULL,
		last_processed DATETIME DEFAULT CURRENT_TIMESTAMP,
		status TEXT DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_tracked_files_hash ON tracked_files(file_hash);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize tracked_files schema: %w", err)
	}
	return &TrackedFileStore{db: db}, nil
}

// Get retrieves a tracked file by path, or nil if it is not tracked
func (s *TrackedFileStore) Get(filePath string) (*TrackedFile, error) {
	var tf TrackedFile

	err := s.db.QueryRow(
		"SELECT file_path, file_hash, last_processed, status FROM tracked_files WHERE file_path = ?",
		filePath,
	).Scan(&tf.FilePath, &tf.FileHash, &tf.LastProcessed, &tf.Status)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked file: %w", err)
	}
	return &tf, nil
}

// Upsert inserts or updates a tracked file
func (s *TrackedFileStore) Upsert(filePath, fileHash, status string) error {
	const query = `
		INSERT INTO tracked_files (file_path, file_hash, status, last_processed)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_path) DO UPDATE SET
			file_hash = excluded.file_hash,
			status = excluded.status,
			last_processed = CURRENT_TIMESTAMP
	`

	if _, err := s.db.Exec(query, filePath, fileHash, status); err != nil {
		return fmt.Errorf("failed to upsert tracked file: %w", err)
	}
	return nil
}
