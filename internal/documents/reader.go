package documents

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// SourceReader resolves a locator into a Document ready for the processor.
// Two concrete readers cover the two ingestion paths: TextReader (a file on
// disk, or raw text already in hand, for POST /documents and
// POST /documents/text) and RowReader (a relational row, for C7's batch
// CRM/ERP sync).
type SourceReader interface {
	Read(ctx context.Context, locator any) (Document, error)
}

// TextLocator addresses a TextReader read: either Path (read from disk) or
// Text (already-in-hand raw text), not both.
type TextLocator struct {
	ID   string
	Path string
	Text string
}

// TextReader turns a TextLocator into a plain-text Document, generalizing
// the directory-walking file reader into a single-locator contract: file
// reads are rejected if the content looks binary.
type TextReader struct{}

func NewTextReader() *TextReader { return &TextReader{} }

func (TextReader) Read(_ context.Context, locator any) (Document, error) {
	loc, ok := locator.(TextLocator)
	if !ok {
		return Document{}, fmt.Errorf("documents: TextReader requires a TextLocator")
	}
	if loc.Path == "" {
		return Document{ID: loc.ID, Format: FormatPlainText, Text: loc.Text}, nil
	}
	file, err := os.Open(loc.Path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", loc.Path, err)
	}
	defer file.Close()
	r := bufio.NewReader(file)
	peek, _ := r.Peek(512 * 1024)
	if isBinary(peek) {
		return Document{}, fmt.Errorf("documents: %s looks binary, skipping", loc.Path)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", loc.Path, err)
	}
	id := loc.ID
	if id == "" {
		id = loc.Path
	}
	return Document{ID: id, SourceURI: loc.Path, Format: FormatPlainText, Text: string(data)}, nil
}

func isBinary(buf []byte) bool {
	if strings.ContainsRune(string(buf), '\x00') {
		return true
	}
	ct := http.DetectContentType(buf)
	return !strings.HasPrefix(ct, "text/") && ct != "application/json"
}

// RowLocator addresses a RowReader read: one relational row, keyed by
// column name, plus an optional explicit format hint (falls back to
// source-string heuristic detection when empty).
type RowLocator struct {
	ID     string
	Row    map[string]any
	Format Format
}

// RowReader adapts one row fetched by C7's BatchProcessor into a structured
// Document for the processor's format detection and field-mapping stage.
type RowReader struct{}

func NewRowReader() *RowReader { return &RowReader{} }

func (RowReader) Read(_ context.Context, locator any) (Document, error) {
	loc, ok := locator.(RowLocator)
	if !ok {
		return Document{}, fmt.Errorf("documents: RowReader requires a RowLocator")
	}
	return Document{ID: loc.ID, Format: loc.Format, Fields: loc.Row}, nil
}
