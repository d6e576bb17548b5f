// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watcher

import (
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/docxmark/internal/database"
	"github.com/docxmark/internal/logger"
)

// ChangeKind says why a file needs converting
type ChangeKind string

const (
	ChangeNew     ChangeKind = "new"
	ChangeUpdated ChangeKind = "updated"
)

// Tracker remembers the content hash each watched file was converted at.
// *database.TrackedFileStore implements it.
type Tracker interface {
	Get(filePath string) (*database.TrackedFile, error)
	Upsert(filePath, fileHash, status string) error
}

// Decision is the outcome of checking one file
type Decision struct {
	Path    string
	Hash    string
	Kind    ChangeKind
	Convert bool
	Reason  string
	Data    []byte
}

// DecisionEngine skips files whose content was already converted
type DecisionEngine struct {
	tracker Tracker
}

// NewDecisionEngine creates a decision engine
func NewDecisionEngine(tracker Tracker) *DecisionEngine {
	return &DecisionEngine{tracker: tracker}
}

// Decide reads the file and compares its hash with the tracked one. The
// returned Decision carries the bytes that were hashed so the conversion
// sees the same content.
func (e *DecisionEngine) Decide(path string) (*Decision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	d := &Decision{Path: path}
	if len(data) == 0 {
		d.Reason = "file is empty"
		return d, nil
	}

	d.Hash = fmt.Sprintf("%x", sha256.Sum256(data))

	tracked, err := e.tracker.Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked file: %w", err)
	}

	switch {
	case tracked == nil:
		d.Kind = ChangeNew
		d.Convert = true
		d.Reason = "new file"
	case tracked.FileHash != d.Hash:
		d.Kind = ChangeUpdated
		d.Convert = true
		d.Reason = "content changed"
	default:
		d.Reason = "unchanged"
	}

	if d.Convert {
		d.Data = data
	}
	logger.Debugf("Decide: path=%s hash=%s convert=%v reason=%q", path, d.Hash, d.Convert, d.Reason)
	return d, nil
}

// MarkProcessed stores the hash the file was converted at
func (e *DecisionEngine) MarkProcessed(d *Decision, status string) error {
	return e.tracker.Upsert(d.Path, d.Hash, status)
}
