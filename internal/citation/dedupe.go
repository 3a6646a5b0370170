package citation

import (
	"crypto/sha256"
	"encoding/hex"
)

// dedupHash hashes source ∥ snippet[:50] ∥ title, the key used to drop
// citations that restate the same passage.
func dedupHash(source, snippet, title string) string {
	if len(snippet) > 50 {
		snippet = snippet[:50]
	}
	h := sha256.Sum256([]byte(source + "\x00" + snippet + "\x00" + title))
	return hex.EncodeToString(h[:])
}

// dedupe drops citations whose hash was already seen, preserving the order
// (and therefore the ranking) of the first occurrence of each.
func dedupe(citations []Citation) []Citation {
	seen := make(map[string]struct{}, len(citations))
	out := make([]Citation, 0, len(citations))
	for _, c := range citations {
		if _, ok := seen[c.DedupHash]; ok {
			continue
		}
		seen[c.DedupHash] = struct{}{}
		out = append(out, c)
	}
	return out
}
