// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docxmark/internal/formatter"
	"github.com/docxmark/internal/logger"
)

// ErrUnsupportedFile is returned for files that are not .docx documents.
var ErrUnsupportedFile = errors.New("unsupported file type")

// ForFile returns the parser for a file name based on its extension
func ForFile(name string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(name))

	switch ext {
	case ".docx":
		return DOCX{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
}

// ParseFile reads a document from disk using the parser for its extension
func ParseFile(filePath string) (formatter.Document, error) {
	p, err := ForFile(filePath)
	if err != nil {
		return formatter.Document{}, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return formatter.Document{}, fmt.Errorf("failed to read file: %w", err)
	}

	doc, err := p.Parse(data)
	if err != nil {
		return formatter.Document{}, err
	}

	logger.Debugf("[TEXT EXTRACT] %s: %d paragraphs, %d runs", filePath, len(doc.Paragraphs), doc.RunCount())
	return doc, nil
}

// IsSupportedFile checks if a file extension is supported
func IsSupportedFile(filePath string) bool {
	_, err := ForFile(filePath)
	return err == nil
}

// IsTemporaryFile checks if a file is a temporary file (e.g., ~$doc.docx)
func IsTemporaryFile(filePath string) bool {
	base := filepath.Base(filePath)
	// Check for common temporary file patterns
	if strings.HasPrefix(base, "~$") {
		return true
	}
	if strings.HasPrefix(base, "._") {
		return true
	}
	if strings.HasSuffix(base, ".tmp") {
		return true
	}
	return false
}
