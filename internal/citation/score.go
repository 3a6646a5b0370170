package citation

import (
	"strings"
	"time"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "had": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "their": {}, "they": {}, "this": {}, "to": {}, "was": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "will": {}, "with": {},
}

var credibleDomainSubstrings = []string{".gov", ".edu", "wikipedia.org", ".ac.uk"}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

// keywordOverlap = |Q∩D|/|Q| over stop-word-filtered tokens.
func keywordOverlap(query, content string) float64 {
	q := tokenize(query)
	if len(q) == 0 {
		return 0
	}
	d := tokenize(content)
	overlap := 0
	for t := range q {
		if _, ok := d[t]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(q))
}

// contentQuality rewards content that reads like a complete, well-formed
// passage: a reasonable word-count band, a plausible sentence length,
// initial capitalization, terminal punctuation, and informational density
// (digits, structured punctuation).
func contentQuality(content string) float64 {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0
	}
	var score float64
	words := strings.Fields(trimmed)
	wc := len(words)
	switch {
	case wc >= 20 && wc <= 300:
		score += 0.3
	case wc > 0:
		score += 0.1
	}
	sentences := countSentences(trimmed)
	if sentences > 0 {
		ratio := float64(wc) / float64(sentences)
		if ratio >= 8 && ratio <= 35 {
			score += 0.2
		}
	}
	if r := []rune(trimmed)[0]; unicode.IsUpper(r) {
		score += 0.15
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		score += 0.15
	}
	if strings.ContainsAny(trimmed, "0123456789") {
		score += 0.1
	}
	if strings.ContainsAny(trimmed, ":;-") {
		score += 0.1
	}
	return cap1(score)
}

func countSentences(text string) int {
	n := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// sourceCredibility starts from a neutral base and adds bonuses for
// recognizably credible domains and the presence of attribution fields.
func sourceCredibility(meta SourceMeta) float64 {
	score := 0.5
	urlLower := strings.ToLower(meta.URL)
	for _, d := range credibleDomainSubstrings {
		if strings.Contains(urlLower, d) {
			score += 0.2
			break
		}
	}
	if meta.Author != "" {
		score += 0.1
	}
	if meta.Date != "" {
		score += 0.1
	}
	if meta.DOI != "" || meta.ISBN != "" {
		score += 0.1
	}
	return cap1(score)
}

// recency scores by stepwise age of IndexedAt (RFC3339); unparseable or
// absent timestamps are treated as stale.
func recency(indexedAt string, now time.Time) float64 {
	if indexedAt == "" {
		return 0.2
	}
	t, err := time.Parse(time.RFC3339, indexedAt)
	if err != nil {
		return 0.2
	}
	age := now.Sub(t)
	switch {
	case age <= 24*time.Hour:
		return 1.0
	case age <= 7*24*time.Hour:
		return 0.8
	case age <= 30*24*time.Hour:
		return 0.6
	case age <= 365*24*time.Hour:
		return 0.4
	default:
		return 0.2
	}
}

// EnhancedScore blends the candidate's own retrieval score with content
// quality, keyword overlap, source credibility and recency.
func EnhancedScore(query string, c Candidate, now time.Time) float64 {
	base := clamp01(c.BaseScore)
	cq := contentQuality(c.Content)
	ko := keywordOverlap(query, c.Content)
	sc := sourceCredibility(c.Meta)
	rc := recency(c.Meta.IndexedAt, now)
	return cap1(0.4*base + 0.2*cq + 0.2*ko + 0.1*sc + 0.1*rc)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func cap1(f float64) float64 {
	if f > 1 {
		return 1
	}
	return f
}
