package documents

import "strings"

// DocumentChunk is one word-bounded slice of a processed Document.
type DocumentChunk struct {
	DocID          string
	ChunkIndex     int
	Text           string
	WordCount      int
	StartWordIndex int
	EndWordIndex   int
	Metadata       map[string]string
}

// Clean collapses whitespace and strips characters outside
// [word, space, basic punctuation].
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true // trims leading whitespace for free
	for _, r := range text {
		switch {
		case isWhitespace(r):
			if lastSpace {
				continue
			}
			b.WriteByte(' ')
			lastSpace = true
		case isWordRune(r) || isBasicPunct(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			// dropped: outside [word, space, basic punctuation]
		}
	}
	return strings.TrimSpace(b.String())
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return true
	default:
		return r > 127 // permissive of non-ASCII letters (accents, CJK, etc.)
	}
}

func isBasicPunct(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ':', ';', '-', '\'', '"', '(', ')', '/', '%', '@', '&':
		return true
	default:
		return false
	}
}

// ChunkWords tokenizes cleaned text by whitespace and produces chunks of
// chunkSize words with chunkOverlap words of overlap between consecutive
// chunks. The last chunk may be shorter.
func ChunkWords(docID, text string, chunkSize, chunkOverlap int) []DocumentChunk {
	if chunkSize <= 0 {
		chunkSize = 256
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := chunkSize - chunkOverlap
	var chunks []DocumentChunk
	idx := 0
	for start := 0; start < len(words); start += step {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, DocumentChunk{
			DocID:          docID,
			ChunkIndex:     idx,
			Text:           strings.Join(words[start:end], " "),
			WordCount:      end - start,
			StartWordIndex: start,
			EndWordIndex:   end - 1,
		})
		idx++
		if end == len(words) {
			break
		}
	}
	return chunks
}
