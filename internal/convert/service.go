// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package convert

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docxmark/internal/database"
	"github.com/docxmark/internal/formatter"
	"github.com/docxmark/internal/logger"
	"github.com/docxmark/internal/parser"
)

// ErrTooLarge is returned for inputs above the configured size limit.
var ErrTooLarge = errors.New("document too large")

// Recorder stores conversion history entries
type Recorder interface {
	Record(ctx context.Context, c *database.Conversion) error
}

// Request is one document to convert
type Request struct {
	Source   string
	ChatID   int64
	FileName string
	Data     []byte
}

// Result is a finished conversion
type Result struct {
	ID         string
	Text       string
	Paragraphs int
	Runs       int
}

// Bytes returns the UTF-8 encoded output
func (r *Result) Bytes() []byte {
	return []byte(r.Text)
}

// Service converts documents and records each attempt
type Service struct {
	parser  parser.Parser
	history Recorder
	maxSize int64
}

// NewService creates a conversion service. history may be nil; maxSize <= 0
// disables the size limit.
func NewService(p parser.Parser, history Recorder, maxSize int64) *Service {
	return &Service{parser: p, history: history, maxSize: maxSize}
}

// MaxSize returns the input size limit in bytes
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Convert parses req.Data and renders it as markup text
func (s *Service) Convert(ctx context.Context, req Request) (*Result, error) {
	entry := &database.Conversion{
		Source:   req.Source,
		ChatID:   req.ChatID,
		FileName: req.FileName,
		FileHash: fmt.Sprintf("%x", sha256.Sum256(req.Data)),
	}

	if s.maxSize > 0 && int64(len(req.Data)) > s.maxSize {
		err := fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(req.Data), s.maxSize)
		entry.Status = database.StatusRejected
		entry.Error = err.Error()
		s.record(ctx, entry)
		return nil, err
	}

	doc, err := s.parser.Parse(req.Data)
	if err != nil {
		entry.Status = database.StatusFailed
		entry.Error = err.Error()
		s.record(ctx, entry)
		logger.Warnf("Convert: source=%s file=%s failed: %v", req.Source, req.FileName, err)
		return nil, err
	}

	text := formatter.FormatDocument(doc)

	entry.Status = database.StatusSuccess
	entry.Paragraphs = len(doc.Paragraphs)
	entry.Runs = doc.RunCount()
	entry.OutputBytes = len(text)
	s.record(ctx, entry)

	logger.Printf("Convert: source=%s file=%s paragraphs=%d runs=%d bytes=%d", req.Source, req.FileName, entry.Paragraphs, entry.Runs, entry.OutputBytes)

	return &Result{
		ID:         entry.ID,
		Text:       text,
		Paragraphs: entry.Paragraphs,
		Runs:       entry.Runs,
	}, nil
}

// RecordFailure stores a failure that happened outside Convert, such as a
// download error
func (s *Service) RecordFailure(ctx context.Context, req Request, cause error) {
	s.record(ctx, &database.Conversion{
		Source:   req.Source,
		ChatID:   req.ChatID,
		FileName: req.FileName,
		Status:   database.StatusFailed,
		Error:    cause.Error(),
	})
}

func (s *Service) record(ctx context.Context, entry *database.Conversion) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(ctx, entry); err != nil {
		logger.Errorf("Convert: failed to record history for %s: %v", entry.FileName, err)
	}
}

// OutputName returns the text file name for a source document, e.g.
// "report.docx" becomes "report.txt"
func OutputName(sourceName string) string {
	base := filepath.Base(sourceName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
}
