// Package docx extracts paragraph text from Office Open XML documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".docx"}
}

// Extract opens the archive and joins the non-empty paragraphs with blank lines.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", domain.ErrParseFailure, path, err)
	}
	defer archive.Close()

	data, err := readPart(&archive.Reader, documentPart)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrParseFailure, path, err)
	}

	paragraphs, err := parseParagraphs(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrParseFailure, path, err)
	}
	return extractors.NormaliseWhitespace(strings.Join(paragraphs, "\n\n")), nil
}

// readPart returns the bytes of a named archive member.
func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("missing %s", name)
}

// documentXML represents the structure of word/document.xml. Body children
// are kept in document order so tables stay where they appear.
type documentXML struct {
	Body struct {
		Elements []bodyElement `xml:",any"`
	} `xml:"body"`
}

// bodyElement is either a paragraph (w:p) or a table (w:tbl).
type bodyElement struct {
	XMLName xml.Name
	Runs    []run      `xml:"r"`
	Rows    []tableRow `xml:"tr"`
}

type tableRow struct {
	Cells []struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"tc"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func runText(runs []run) string {
	var b strings.Builder
	for _, r := range runs {
		for _, t := range r.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// text joins the cells of a table row with tabs.
func (r tableRow) text() string {
	cells := make([]string, 0, len(r.Cells))
	for _, cell := range r.Cells {
		parts := make([]string, 0, len(cell.Paragraphs))
		for _, para := range cell.Paragraphs {
			if t := strings.TrimSpace(runText(para.Runs)); t != "" {
				parts = append(parts, t)
			}
		}
		cells = append(cells, strings.Join(parts, " "))
	}
	return strings.Join(cells, "\t")
}

// parseParagraphs returns the non-empty paragraphs and table rows in
// document order. Each table row counts as one paragraph.
func parseParagraphs(content []byte) ([]string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}

	paragraphs := make([]string, 0, len(doc.Body.Elements))
	add := func(text string) {
		if strings.TrimSpace(text) != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	for _, el := range doc.Body.Elements {
		switch el.XMLName.Local {
		case "p":
			add(runText(el.Runs))
		case "tbl":
			for _, row := range el.Rows {
				add(row.text())
			}
		}
	}
	return paragraphs, nil
}
