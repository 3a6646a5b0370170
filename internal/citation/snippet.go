package citation

import (
	"sort"
	"strings"
)

// SelectSnippet chooses up to two sentences with maximum keyword overlap
// against query; if no sentence overlaps at all, falls back to a
// word-boundary truncation to maxLen with a trailing ellipsis.
func SelectSnippet(content, query string, maxLen int) string {
	sentences := splitSentences(content)
	type scored struct {
		idx     int
		text    string
		overlap float64
	}
	ranked := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		ranked = append(ranked, scored{idx: i, text: s, overlap: keywordOverlap(query, s)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].overlap > ranked[j].overlap
	})

	if len(ranked) == 0 || ranked[0].overlap == 0 {
		return truncateAtWordBoundary(content, maxLen)
	}

	top := ranked
	if len(top) > 2 {
		top = top[:2]
	}
	sort.Slice(top, func(i, j int) bool { return top[i].idx < top[j].idx })
	parts := make([]string, len(top))
	for i, s := range top {
		parts[i] = s.text
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func truncateAtWordBoundary(text string, maxLen int) string {
	trimmed := strings.TrimSpace(text)
	if maxLen <= 0 || len(trimmed) <= maxLen {
		return trimmed
	}
	cut := trimmed[:maxLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}
