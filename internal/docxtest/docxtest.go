// Package docxtest builds minimal .docx files in memory for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

const documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentFooter = `<w:sectPr/></w:body></w:document>`

// Run describes a styled run for Paragraph.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
}

// Paragraph renders runs as a w:p element.
func Paragraph(runs ...Run) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, r := range runs {
		b.WriteString("<w:r>")
		if r.Bold || r.Italic || r.Underline || r.Strike {
			b.WriteString("<w:rPr>")
			if r.Bold {
				b.WriteString("<w:b/>")
			}
			if r.Italic {
				b.WriteString("<w:i/>")
			}
			if r.Underline {
				b.WriteString(`<w:u w:val="single"/>`)
			}
			if r.Strike {
				b.WriteString("<w:strike/>")
			}
			b.WriteString("</w:rPr>")
		}
		fmt.Fprintf(&b, `<w:t xml:space="preserve">%s</w:t>`, escapeXML(r.Text))
		b.WriteString("</w:r>")
	}
	b.WriteString("</w:p>")
	return b.String()
}

// DocumentXML wraps body elements in a w:document.
func DocumentXML(body ...string) string {
	return documentHeader + strings.Join(body, "") + documentFooter
}

// Build returns a .docx archive whose body holds the given elements.
func Build(body ...string) []byte {
	return BuildRaw(DocumentXML(body...))
}

// BuildRaw returns a .docx archive with documentXML as word/document.xml.
func BuildRaw(documentXML string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
		{"word/_rels/document.xml.rels", documentRels},
		{"word/document.xml", documentXML},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
