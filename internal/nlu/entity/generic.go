package entity

import "regexp"

// genericPattern is one fixed-confidence regex-only entity type.
type genericPattern struct {
	label string
	re    *regexp.Regexp
}

var genericPatterns = []genericPattern{
	{"EMAIL", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"PHONE", regexp.MustCompile(`\b(?:\+?1[-.]?)?\(?([0-9]{3})\)?[-.]?([0-9]{3})[-.]?([0-9]{4})\b`)},
	{"URL", regexp.MustCompile(`https?://[-\w.]+(?::[0-9]+)?(?:/[\w/_.]*(?:\?[\w&=%.]*)?(?:#[\w.]*)?)?`)},
	{"MONEY", regexp.MustCompile(`(?i)\$\d+(?:\.\d{2})?|\b\d+(?:\.\d{2})?\s*(?:dollars?|usd|cents?)\b`)},
	{"PERCENTAGE", regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?%|\b\d+(?:\.\d+)?\s*percent\b`)},
	{"DATE", regexp.MustCompile(`\b\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}\b|\b\d{4}[/\-]\d{1,2}[/\-]\d{1,2}\b`)},
	{"TIME", regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}(?::\d{2})?(?:\s*[ap]m)?\b`)},
	{"ZIPCODE", regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)},
	{"CREDIT_CARD", regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)},
}

// extractGeneric runs the fixed regex set at a flat 0.9 confidence, per the
// spec's generic-entity source.
func extractGeneric(text string) []Entity {
	var out []Entity
	for _, gp := range genericPatterns {
		for _, loc := range gp.re.FindAllStringIndex(text, -1) {
			out = append(out, Entity{
				Text:       text[loc[0]:loc[1]],
				Label:      gp.label,
				Start:      loc[0],
				End:        loc[1],
				Confidence: 0.9,
			})
		}
	}
	return out
}
