// Package source enumerates a document folder and extracts plain text from
// the files in it. PDF files are parsed page by page; text and markdown files
// are read as-is. Extraction failures for individual files are reported as
// warnings by the caller, never as hard errors, so one bad file cannot block
// an indexing run.
package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor converts one file format to plain text.
type Extractor interface {
	// Extensions lists the file extensions this extractor handles,
	// lowercase with leading dot.
	Extensions() []string

	// Extract returns the plain text content of the file at path.
	Extract(path string) (string, error)
}

// PDFExtractor extracts text from PDF files.
type PDFExtractor struct{}

// Verify interface implementation at compile time
var _ Extractor = (*PDFExtractor)(nil)

// Extensions returns the PDF extension.
func (e *PDFExtractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract concatenates the plain text of every page. Pages that fail to
// parse are skipped so a single damaged page does not lose the document.
func (e *PDFExtractor) Extract(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return buf.String(), nil
}

// TextExtractor reads plain text and markdown files verbatim.
type TextExtractor struct{}

// Verify interface implementation at compile time
var _ Extractor = (*TextExtractor)(nil)

// Extensions returns the plain text extensions.
func (e *TextExtractor) Extensions() []string {
	return []string{".txt", ".md"}
}

// Extract reads the whole file.
func (e *TextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// DefaultExtractors returns the extractors enabled out of the box.
func DefaultExtractors() []Extractor {
	return []Extractor{&PDFExtractor{}, &TextExtractor{}}
}

// extractorFor maps extensions to extractors.
func extractorMap(extractors []Extractor) map[string]Extractor {
	m := make(map[string]Extractor)
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			m[strings.ToLower(ext)] = e
		}
	}
	return m
}

// supportedFile reports whether any extractor handles the file.
func supportedFile(path string, byExt map[string]Extractor) bool {
	_, ok := byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}
