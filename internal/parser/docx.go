// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/docxmark/internal/formatter"
)

// ErrInvalidDocument is returned when the input is not a readable DOCX file.
var ErrInvalidDocument = errors.New("invalid docx document")

// DOCX reads Word documents from memory.
type DOCX struct{}

// Parse implements Parser.
func (DOCX) Parse(data []byte) (formatter.Document, error) {
	return ReadDocument(data)
}

// ReadDocument reads the body paragraphs and their runs from DOCX bytes.
func ReadDocument(data []byte) (formatter.Document, error) {
	if len(data) == 0 {
		return formatter.Document{}, fmt.Errorf("%w: empty input", ErrInvalidDocument)
	}

	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return formatter.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	if strings.TrimSpace(content) == "" {
		return formatter.Document{}, fmt.Errorf("%w: no document content", ErrInvalidDocument)
	}

	doc, err := parseDocumentXML(strings.NewReader(content))
	if err != nil {
		return formatter.Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// runContainers are the paragraph children whose w:r elements count as
// paragraph runs.
var runContainers = map[string]bool{
	"p":         true,
	"hyperlink": true,
	"ins":       true,
	"smartTag":  true,
	"fldSimple": true,
}

// documentParser walks word/document.xml and collects top-level body
// paragraphs. Tables, text boxes and content controls are skipped.
type documentParser struct {
	stack []string

	doc formatter.Document

	inPara bool
	para   formatter.Paragraph

	// runDepth is the stack depth of the open w:r, zero when none is open.
	runDepth int
	run      formatter.Run
	text     strings.Builder
	inText   bool
}

func (p *documentParser) parent() string {
	if len(p.stack) < 2 {
		return ""
	}
	return p.stack[len(p.stack)-2]
}

// runChild reports whether the current element is a direct child of the
// open run.
func (p *documentParser) runChild() bool {
	return p.runDepth > 0 && len(p.stack) == p.runDepth+1
}

// inRunProps reports whether the current element is a direct child of the
// open run's w:rPr.
func (p *documentParser) inRunProps() bool {
	return p.runDepth > 0 && len(p.stack) == p.runDepth+2 && p.parent() == "rPr"
}

func parseDocumentXML(r io.Reader) (formatter.Document, error) {
	dec := xml.NewDecoder(r)
	p := &documentParser{}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return formatter.Document{}, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.stack = append(p.stack, t.Name.Local)
			p.handleStart(t)
		case xml.EndElement:
			p.handleEnd(t.Name.Local)
			if len(p.stack) > 0 {
				p.stack = p.stack[:len(p.stack)-1]
			}
		case xml.CharData:
			if p.inText {
				p.text.Write(t)
			}
		}
	}

	return p.doc, nil
}

func (p *documentParser) handleStart(t xml.StartElement) {
	switch t.Name.Local {
	case "p":
		if p.parent() == "body" {
			p.inPara = true
			p.para = formatter.Paragraph{}
		}
	case "r":
		if p.inPara && p.runDepth == 0 && runContainers[p.parent()] {
			p.runDepth = len(p.stack)
			p.run = formatter.Run{}
			p.text.Reset()
		}
	case "b":
		if p.inRunProps() {
			p.run.Bold = toggleOn(t)
		}
	case "i":
		if p.inRunProps() {
			p.run.Italic = toggleOn(t)
		}
	case "u":
		if p.inRunProps() {
			p.run.Underline = underlineOn(t)
		}
	case "strike":
		if p.inRunProps() {
			p.run.Strike = toggleOn(t)
		}
	case "t":
		if p.runChild() {
			p.inText = true
		}
	case "tab":
		if p.runChild() {
			p.text.WriteByte('\t')
		}
	case "br":
		// page and column breaks carry no text
		if v, _ := attrVal(t, "type"); p.runChild() && (v == "" || v == "textWrapping") {
			p.text.WriteByte('\n')
		}
	case "cr":
		if p.runChild() {
			p.text.WriteByte('\n')
		}
	case "noBreakHyphen":
		if p.runChild() {
			p.text.WriteByte('-')
		}
	}
}

func (p *documentParser) handleEnd(local string) {
	switch local {
	case "t":
		p.inText = false
	case "r":
		if p.runDepth > 0 && len(p.stack) == p.runDepth {
			p.run.Text = p.text.String()
			p.para.Runs = append(p.para.Runs, p.run)
			p.runDepth = 0
		}
	case "p":
		if p.inPara && p.parent() == "body" {
			p.doc.Paragraphs = append(p.doc.Paragraphs, p.para)
			p.inPara = false
		}
	}
}

func attrVal(t xml.StartElement, local string) (string, bool) {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// toggleOn reads an on/off property such as w:b. A missing w:val means on.
func toggleOn(t xml.StartElement) bool {
	v, ok := attrVal(t, "val")
	if !ok {
		return true
	}
	switch strings.ToLower(v) {
	case "0", "false", "off":
		return false
	}
	return true
}

func underlineOn(t xml.StartElement) bool {
	// a bare <w:u/> carries no underline type
	v, ok := attrVal(t, "val")
	if !ok {
		return false
	}
	return strings.ToLower(v) != "none"
}
