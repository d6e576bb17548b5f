// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docxmark/internal/docxtest"
	"github.com/docxmark/internal/formatter"
)

func TestReadDocument_RunsAndStyles(t *testing.T) {
	data := docxtest.Build(
		docxtest.Paragraph(
			docxtest.Run{Text: "Hello "},
			docxtest.Run{Text: "world", Bold: true},
			docxtest.Run{Text: "!", Italic: true, Underline: true},
		),
		docxtest.Paragraph(),
		docxtest.Paragraph(docxtest.Run{Text: "gone", Strike: true}),
	)

	doc, err := ReadDocument(data)
	if err != nil {
		t.Fatalf("ReadDocument failed: %v", err)
	}

	if len(doc.Paragraphs) != 3 {
		t.Fatalf("Expected 3 paragraphs, got %d", len(doc.Paragraphs))
	}

	first := doc.Paragraphs[0].Runs
	if len(first) != 3 {
		t.Fatalf("Expected 3 runs in first paragraph, got %d", len(first))
	}
	if first[0] != (formatter.Run{Text: "Hello "}) {
		t.Errorf("Unexpected first run: %+v", first[0])
	}
	if first[1] != (formatter.Run{Text: "world", Bold: true}) {
		t.Errorf("Unexpected second run: %+v", first[1])
	}
	if first[2] != (formatter.Run{Text: "!", Italic: true, Underline: true}) {
		t.Errorf("Unexpected third run: %+v", first[2])
	}

	if len(doc.Paragraphs[1].Runs) != 0 {
		t.Errorf("Expected empty second paragraph, got %d runs", len(doc.Paragraphs[1].Runs))
	}
	if !doc.Paragraphs[2].Runs[0].Strike {
		t.Error("Expected strike on third paragraph run")
	}

	want := "Hello *world*__\\!__\n\n~gone~"
	if got := formatter.FormatDocument(doc); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestParseDocumentXML_ToggleValues(t *testing.T) {
	xml := docxtest.DocumentXML(`<w:p>` +
		`<w:r><w:rPr><w:b w:val="0"/><w:i w:val="false"/><w:strike w:val="off"/><w:u w:val="none"/></w:rPr><w:t>off</w:t></w:r>` +
		`<w:r><w:rPr><w:b w:val="1"/><w:i w:val="true"/><w:u w:val="double"/></w:rPr><w:t>on</w:t></w:r>` +
		`</w:p>`)

	doc, err := parseDocumentXML(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parseDocumentXML failed: %v", err)
	}

	runs := doc.Paragraphs[0].Runs
	if runs[0] != (formatter.Run{Text: "off"}) {
		t.Errorf("Expected all flags off, got %+v", runs[0])
	}
	if runs[1] != (formatter.Run{Text: "on", Bold: true, Italic: true, Underline: true}) {
		t.Errorf("Expected bold, italic, underline on, got %+v", runs[1])
	}
}

func TestParseDocumentXML_BareUnderline(t *testing.T) {
	xml := docxtest.DocumentXML(`<w:p>` +
		`<w:r><w:rPr><w:u/></w:rPr><w:t>bare</w:t></w:r>` +
		`<w:r><w:rPr><w:u w:val="single"/></w:rPr><w:t>single</w:t></w:r>` +
		`</w:p>`)

	doc, err := parseDocumentXML(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parseDocumentXML failed: %v", err)
	}

	runs := doc.Paragraphs[0].Runs
	if runs[0].Underline {
		t.Errorf("Expected <w:u/> without w:val to be ignored, got %+v", runs[0])
	}
	if !runs[1].Underline {
		t.Errorf("Expected single underline, got %+v", runs[1])
	}
}

func TestParseDocumentXML_RunContainers(t *testing.T) {
	xml := docxtest.DocumentXML(`<w:p>` +
		`<w:r><w:t>see </w:t></w:r>` +
		`<w:hyperlink w:history="1"><w:r><w:rPr><w:u w:val="single"/></w:rPr><w:t>link</w:t></w:r></w:hyperlink>` +
		`<w:ins w:id="1" w:author="a"><w:r><w:t> added</w:t></w:r></w:ins>` +
		`<w:smartTag><w:r><w:t> tag</w:t></w:r></w:smartTag>` +
		`<w:fldSimple w:instr="PAGE"><w:r><w:t> 3</w:t></w:r></w:fldSimple>` +
		`</w:p>`)

	doc, err := parseDocumentXML(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parseDocumentXML failed: %v", err)
	}

	want := []formatter.Run{
		{Text: "see "},
		{Text: "link", Underline: true},
		{Text: " added"},
		{Text: " tag"},
		{Text: " 3"},
	}
	runs := doc.Paragraphs[0].Runs
	if len(runs) != len(want) {
		t.Fatalf("Expected %d runs, got %d: %+v", len(want), len(runs), runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("Run %d: expected %+v, got %+v", i, want[i], runs[i])
		}
	}
	if got := formatter.FormatParagraph(doc.Paragraphs[0]); got != "see __link__ added tag 3" {
		t.Errorf("Expected %q, got %q", "see __link__ added tag 3", got)
	}
}

func TestParseDocumentXML_SkipsTablesAndParagraphProps(t *testing.T) {
	xml := docxtest.DocumentXML(
		`<w:p><w:pPr><w:rPr><w:b/></w:rPr></w:pPr><w:r><w:t>plain</w:t></w:r></w:p>`,
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`,
		`<w:p><w:hyperlink><w:r><w:t>link</w:t></w:r></w:hyperlink></w:p>`,
	)

	doc, err := parseDocumentXML(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parseDocumentXML failed: %v", err)
	}

	if len(doc.Paragraphs) != 2 {
		t.Fatalf("Expected 2 body paragraphs, got %d", len(doc.Paragraphs))
	}
	if doc.Paragraphs[0].Runs[0] != (formatter.Run{Text: "plain"}) {
		t.Errorf("Paragraph mark properties leaked into run: %+v", doc.Paragraphs[0].Runs[0])
	}
	if doc.Paragraphs[1].Runs[0].Text != "link" {
		t.Errorf("Expected hyperlink run text, got %q", doc.Paragraphs[1].Runs[0].Text)
	}
}

func TestParseDocumentXML_TabsAndBreaks(t *testing.T) {
	xml := docxtest.DocumentXML(`<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t><w:br w:type="page"/></w:r></w:p>`)

	doc, err := parseDocumentXML(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("parseDocumentXML failed: %v", err)
	}

	if got := doc.Paragraphs[0].Runs[0].Text; got != "a\tb\nc" {
		t.Errorf("Expected %q, got %q", "a\tb\nc", got)
	}
}

func TestReadDocument_Invalid(t *testing.T) {
	inputs := map[string][]byte{
		"empty":     nil,
		"not a zip": []byte("definitely not a zip archive"),
		"bad xml":   docxtest.BuildRaw(`<w:document><w:body><w:p>`),
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := ReadDocument(data)
			if !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("Expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.docx")
	if err := os.WriteFile(path, docxtest.Build(docxtest.Paragraph(docxtest.Run{Text: "Test", Italic: true})), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if got := formatter.FormatDocument(doc); got != "_Test_" {
		t.Errorf("Expected %q, got %q", "_Test_", got)
	}

	if _, err := ParseFile(filepath.Join(dir, "note.pdf")); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("Expected ErrUnsupportedFile, got %v", err)
	}
}

func TestFileFilters(t *testing.T) {
	if !IsSupportedFile("/tmp/Report.DOCX") {
		t.Error("Expected .DOCX to be supported")
	}
	if IsSupportedFile("/tmp/report.doc") {
		t.Error("Expected .doc to be unsupported")
	}
	for _, p := range []string{"~$report.docx", "._report.docx", "report.docx.tmp"} {
		if !IsTemporaryFile(p) {
			t.Errorf("Expected %s to be temporary", p)
		}
	}
	if IsTemporaryFile("report.docx") {
		t.Error("Expected report.docx not to be temporary")
	}
}
