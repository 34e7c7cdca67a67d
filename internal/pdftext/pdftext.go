// Package pdftext extracts plain text from PDF documents. Scrapers take the
// Extract function as a dependency so tests can substitute plain text and
// never need a real PDF.
package pdftext

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Extractor converts PDF bytes into plain text.
type Extractor func(content []byte) (string, error)

// Extract reads the text layer of a PDF. An empty string with no error is a
// legitimate outcome for image-only documents; absence of text is not a
// fetch failure.
func Extract(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
