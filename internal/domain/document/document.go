package document

import (
	"fmt"
	"strings"
)

// Document is a retrievable taxonomy entry (immutable value object).
// Text is the description and notes joined by a newline.
type Document struct {
	code string
	text string
}

// New validates and creates a Document. Both code and text must be non-blank.
func New(code, text string) (Document, error) {
	code = strings.TrimSpace(code)
	text = strings.TrimSpace(text)
	if code == "" {
		return Document{}, fmt.Errorf("document code is required")
	}
	if text == "" {
		return Document{}, fmt.Errorf("document %s: text is required", code)
	}
	return Document{code: code, text: text}, nil
}

// Reconstruct creates a Document without validation (artifact hydration).
func Reconstruct(code, text string) Document {
	return Document{code: code, text: text}
}

// Code returns the ECCN of the entry.
func (d Document) Code() string { return d.code }

// Text returns the searchable text.
func (d Document) Text() string { return d.text }

// Codes returns the codes of docs in order.
func Codes(docs []Document) []string {
	codes := make([]string, len(docs))
	for i, d := range docs {
		codes[i] = d.code
	}
	return codes
}
