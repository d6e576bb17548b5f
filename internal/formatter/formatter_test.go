// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package formatter

import (
	"strings"
	"testing"
)

func TestEscape_NoSpecialChars(t *testing.T) {
	inputs := []string{"", "Hello world", "comma, star * under_score ~ tilde", "Привет мир", "back\\slash"}
	for _, in := range inputs {
		if got := Escape(in); got != in {
			t.Errorf("Expected %q unchanged, got %q", in, got)
		}
	}
}

func TestEscape_EveryEscapeChar(t *testing.T) {
	for _, r := range EscapeChars {
		in := "a" + string(r) + "b"
		want := "a\\" + string(r) + "b"
		if got := Escape(in); got != want {
			t.Errorf("Escape(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestEscape_OnlyInsertsBeforeEscapeChars(t *testing.T) {
	in := `Wait... "really"?! (yes) [no] 100% a:b; x-y`
	got := Escape(in)

	// Removing each inserted backslash must give back the input.
	var restored strings.Builder
	runes := []rune(got)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' {
			if i+1 >= len(runes) || !strings.ContainsRune(EscapeChars, runes[i+1]) {
				t.Fatalf("Backslash at %d is not followed by an escape char in %q", i, got)
			}
			continue
		}
		restored.WriteRune(runes[i])
	}
	if restored.String() != in {
		t.Errorf("Expected restored text %q, got %q", in, restored.String())
	}

	want := `Wait\.\.\. \"really\"\?\! \(yes\) \[no\] 100\% a\:b\; x\-y`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestEscape_NotIdempotent(t *testing.T) {
	once := Escape("Hi.")
	twice := Escape(once)
	if once != `Hi\.` {
		t.Fatalf("Expected %q, got %q", `Hi\.`, once)
	}
	// The backslash is not escaped, but the dot gets a second one.
	if twice != `Hi\\.` {
		t.Errorf("Expected double escaping %q, got %q", `Hi\\.`, twice)
	}
	if twice == once {
		t.Error("Expected re-escaping to change the text")
	}
}

func TestFormatRun_WhitespaceOnly(t *testing.T) {
	runs := []Run{
		{Text: ""},
		{Text: "   ", Bold: true},
		{Text: "\t\n", Italic: true, Underline: true},
		{Text: " ", Bold: true, Italic: true, Underline: true, Strike: true},
	}
	for _, run := range runs {
		if got := FormatRun(run); got != Escape(run.Text) {
			t.Errorf("Expected %q for whitespace run, got %q", Escape(run.Text), got)
		}
	}
}

func TestFormatRun_UnderlineItalicDominates(t *testing.T) {
	run := Run{Text: "Note: done", Bold: true, Italic: true, Underline: true, Strike: true}
	want := `__Note\: done__`
	if got := FormatRun(run); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFormatRun_Styles(t *testing.T) {
	tests := []struct {
		name string
		run  Run
		want string
	}{
		{"plain", Run{Text: "plain"}, "plain"},
		{"bold", Run{Text: "x", Bold: true}, "*x*"},
		{"italic", Run{Text: "x", Italic: true}, "_x_"},
		{"underline", Run{Text: "x", Underline: true}, "__x__"},
		{"strike", Run{Text: "x", Strike: true}, "~x~"},
		{"bold underline", Run{Text: "x", Bold: true, Underline: true}, "__*x*__"},
		{"bold italic", Run{Text: "x", Bold: true, Italic: true}, "_*x*_"},
		{"bold italic strike", Run{Text: "x", Bold: true, Italic: true, Strike: true}, "~_*x*_~"},
		{"underline strike", Run{Text: "x", Underline: true, Strike: true}, "~__x__~"},
		{"underline italic", Run{Text: "x", Italic: true, Underline: true}, "__x__"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRun(tt.run); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatRun_PreservesEdgeWhitespace(t *testing.T) {
	run := Run{Text: "  Hello, world!  ", Bold: true}
	want := "  *Hello, world\\!*  "
	if got := FormatRun(run); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	run = Run{Text: "\tend.\n", Strike: true}
	want = "\t~end\\.~\n"
	if got := FormatRun(run); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFormatParagraph(t *testing.T) {
	if got := FormatParagraph(Paragraph{}); got != "" {
		t.Errorf("Expected empty string for empty paragraph, got %q", got)
	}

	p := Paragraph{Runs: []Run{
		{Text: "Hello "},
		{Text: "bold", Bold: true},
		{Text: " and "},
		{Text: "gone", Strike: true},
		{Text: "."},
	}}
	want := "Hello *bold* and ~gone~\\."
	if got := FormatParagraph(p); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFormatDocument_Joins(t *testing.T) {
	doc := Document{Paragraphs: []Paragraph{
		{},
		{Runs: []Run{{Text: "Hi."}}},
	}}
	if got := FormatDocument(doc); got != "\nHi\\." {
		t.Errorf("Expected %q, got %q", "\nHi\\.", got)
	}
}

func TestFormatDocument_LineCountMatchesParagraphs(t *testing.T) {
	doc := Document{Paragraphs: []Paragraph{{}, {}, {Runs: []Run{{Text: "a"}}}, {}}}
	got := FormatDocument(doc)
	if lines := strings.Split(got, "\n"); len(lines) != len(doc.Paragraphs) {
		t.Errorf("Expected %d lines, got %d (%q)", len(doc.Paragraphs), len(lines), got)
	}
	if got != "\n\na\n" {
		t.Errorf("Expected %q, got %q", "\n\na\n", got)
	}

	single := FormatDocument(Document{Paragraphs: []Paragraph{{Runs: []Run{{Text: "a"}}}}})
	if single != "a" || strings.HasSuffix(single, "\n") {
		t.Errorf("Expected %q without trailing newline, got %q", "a", single)
	}

	if got := FormatDocument(Document{}); got != "" {
		t.Errorf("Expected empty output for empty document, got %q", got)
	}
}

func TestFormatDocument_EndToEndItalic(t *testing.T) {
	doc := Document{Paragraphs: []Paragraph{{Runs: []Run{{Text: "Test", Italic: true}}}}}
	if got := FormatDocument(doc); got != "_Test_" {
		t.Errorf("Expected %q, got %q", "_Test_", got)
	}
}

func TestFormatDocument_Deterministic(t *testing.T) {
	doc := Document{Paragraphs: []Paragraph{
		{Runs: []Run{{Text: " a-b ", Bold: true}, {Text: "(c)", Italic: true}}},
		{Runs: []Run{{Text: "d", Underline: true, Strike: true}}},
	}}
	first := FormatDocument(doc)
	for i := 0; i < 10; i++ {
		if got := FormatDocument(doc); got != first {
			t.Fatalf("Expected identical output on run %d, got %q vs %q", i, got, first)
		}
	}
	if doc.RunCount() != 3 {
		t.Errorf("Expected 3 runs, got %d", doc.RunCount())
	}
}
