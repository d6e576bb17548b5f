package parser

import "github.com/docxmark/internal/formatter"

// Parser defines the interface for document readers
type Parser interface {
	// Parse reads a document from raw file bytes
	Parse(data []byte) (formatter.Document, error)
}
