package documents

import (
	"context"
	"os"
	"testing"

	"github.com/wearforce/convo-core/internal/config"
)

func TestDetectFormat_Precedence(t *testing.T) {
	explicit := Document{Format: FormatERPProduct, Fields: map[string]any{"sku": "X1"}}
	if f, _ := DetectFormat(explicit); f != FormatERPProduct {
		t.Fatalf("explicit hint not honored, got %s", f)
	}

	jsonProbe := Document{Text: `{"email":"a@b.com","name":"Ann"}`}
	if f, fields := DetectFormat(jsonProbe); f != FormatCRMContact || fields["email"] != "a@b.com" {
		t.Fatalf("json probe + heuristic failed, got %s %#v", f, fields)
	}

	plain := Document{Text: "just some prose"}
	if f, _ := DetectFormat(plain); f != FormatPlainText {
		t.Fatalf("expected plain_text fallback, got %s", f)
	}
}

func TestRenderRecord_AliasResolution(t *testing.T) {
	fields := map[string]any{"full_name": "Ann Lee", "email_address": "ann@acme.com", "company_name": "Acme"}
	got := RenderRecord(FormatCRMContact, fields)
	want := "Name: Ann Lee. Email: ann@acme.com. Company: Acme."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestChunkWords_OverlapAndLastChunk(t *testing.T) {
	text := "one two three four five six seven"
	chunks := ChunkWords("doc1", text, 3, 1)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if chunks[0].StartWordIndex != 0 || chunks[0].EndWordIndex != 2 || chunks[0].WordCount != 3 {
		t.Fatalf("unexpected first chunk: %#v", chunks[0])
	}
	last := chunks[len(chunks)-1]
	if last.EndWordIndex != 6 {
		t.Fatalf("expected last chunk to reach end of input, got %#v", last)
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Fatalf("chunk index out of order at %d: %#v", i, c)
		}
	}
}

func TestClean_StripsControlCharsAndCollapsesWhitespace(t *testing.T) {
	in := "Hello,\tworld!!\x07  Multiple   spaces.\n"
	got := Clean(in)
	want := "Hello, world!! Multiple spaces."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestProcessor_Process_StructuredRecord(t *testing.T) {
	p := NewProcessor(config.DocumentConfig{ChunkSize: 50, ChunkOverlap: 0})
	doc := Document{
		ID:     "contact-1",
		Fields: map[string]any{"name": "Ann Lee", "email": "ann@acme.com"},
	}
	chunks, format := p.Process(doc)
	if format != FormatCRMContact {
		t.Fatalf("expected crm_contact, got %s", format)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected a single chunk for a short record, got %d", len(chunks))
	}
	if chunks[0].DocID != "contact-1" {
		t.Fatalf("chunk missing doc id: %#v", chunks[0])
	}
}

func TestTextReader_RawAndFile(t *testing.T) {
	r := NewTextReader()
	ctx := context.Background()

	doc, err := r.Read(ctx, TextLocator{ID: "raw-1", Text: "hello there"})
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if doc.Text != "hello there" || doc.Format != FormatPlainText {
		t.Fatalf("unexpected raw read: %#v", doc)
	}

	dir := t.TempDir()
	path := dir + "/note.txt"
	if err := os.WriteFile(path, []byte("file contents"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	doc, err = r.Read(ctx, TextLocator{Path: path})
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if doc.Text != "file contents" {
		t.Fatalf("unexpected file read: %#v", doc)
	}
}

func TestRowReader_WrapsRow(t *testing.T) {
	r := NewRowReader()
	doc, err := r.Read(context.Background(), RowLocator{ID: "row-1", Row: map[string]any{"sku": "X1"}})
	if err != nil {
		t.Fatalf("read row: %v", err)
	}
	if doc.Fields["sku"] != "X1" {
		t.Fatalf("unexpected row read: %#v", doc)
	}
}
