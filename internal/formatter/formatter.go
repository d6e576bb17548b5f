// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package formatter

import (
	"strings"
	"unicode"
)

// Run is a span of text with a single set of style flags.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
}

// Paragraph is an ordered list of runs rendered as one output line.
type Paragraph struct {
	Runs []Run
}

// Document is an ordered list of paragraphs.
type Document struct {
	Paragraphs []Paragraph
}

// EscapeChars is the set of characters prefixed with a backslash in output.
const EscapeChars = `."!?)([]%:;-`

// Markup delimiters.
const (
	BoldDelim      = "*"
	ItalicDelim    = "_"
	UnderlineDelim = "__"
	StrikeDelim    = "~"
)

// styleLayer wraps the run core with a delimiter when its flag is set.
type styleLayer struct {
	enabled func(Run) bool
	delim   string
}

// Layers are applied in order, each one wrapping the previous result.
var styleLayers = []styleLayer{
	{enabled: func(r Run) bool { return r.Bold }, delim: BoldDelim},
	{enabled: func(r Run) bool { return r.Italic }, delim: ItalicDelim},
	{enabled: func(r Run) bool { return r.Underline }, delim: UnderlineDelim},
	{enabled: func(r Run) bool { return r.Strike }, delim: StrikeDelim},
}

// Escape prefixes every character from EscapeChars with a backslash.
// It is not idempotent: escaping already escaped text escapes again.
func Escape(text string) string {
	if !strings.ContainsAny(text, EscapeChars) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		if strings.ContainsRune(EscapeChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatRun renders a run as markup, keeping its edge whitespace verbatim.
func FormatRun(run Run) string {
	text := run.Text
	core := strings.TrimSpace(text)
	if core == "" {
		return Escape(text)
	}

	leading := text[:len(text)-len(strings.TrimLeftFunc(text, unicode.IsSpace))]
	trailing := text[len(strings.TrimRightFunc(text, unicode.IsSpace)):]

	return leading + wrapStyles(run, Escape(core)) + trailing
}

func wrapStyles(run Run, core string) string {
	// underline+italic collapses to underline-only markup
	if run.Underline && run.Italic {
		return UnderlineDelim + core + UnderlineDelim
	}

	for _, layer := range styleLayers {
		if layer.enabled(run) {
			core = layer.delim + core + layer.delim
		}
	}
	return core
}

// FormatParagraph concatenates the formatted runs with no separators.
func FormatParagraph(p Paragraph) string {
	var b strings.Builder
	for _, run := range p.Runs {
		b.WriteString(FormatRun(run))
	}
	return b.String()
}

// FormatDocument formats every paragraph and joins them with "\n".
func FormatDocument(d Document) string {
	lines := make([]string, len(d.Paragraphs))
	for i, p := range d.Paragraphs {
		lines[i] = FormatParagraph(p)
	}
	return strings.Join(lines, "\n")
}

// RunCount returns the total number of runs in the document.
func (d Document) RunCount() int {
	n := 0
	for _, p := range d.Paragraphs {
		n += len(p.Runs)
	}
	return n
}
