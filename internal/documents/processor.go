package documents

import (
	"github.com/wearforce/convo-core/internal/config"
)

// Processor turns a Document into an ordered sequence of DocumentChunks:
// detect format, render structured records to a sentence sequence, clean,
// then chunk by words.
type Processor struct {
	chunkSize    int
	chunkOverlap int
}

func NewProcessor(cfg config.DocumentConfig) *Processor {
	size, overlap := cfg.ChunkSize, cfg.ChunkOverlap
	if size <= 0 {
		size = 256
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Processor{chunkSize: size, chunkOverlap: overlap}
}

// Process resolves doc's format, renders/cleans its text and splits it into
// word-bounded chunks.
func (p *Processor) Process(doc Document) ([]DocumentChunk, Format) {
	format, fields := DetectFormat(doc)

	var text string
	if format == FormatPlainText {
		text = doc.Text
	} else {
		text = RenderRecord(format, fields)
	}
	cleaned := Clean(text)
	chunks := ChunkWords(doc.ID, cleaned, p.chunkSize, p.chunkOverlap)
	for i := range chunks {
		if doc.Metadata != nil {
			chunks[i].Metadata = doc.Metadata
		}
	}
	return chunks, format
}
