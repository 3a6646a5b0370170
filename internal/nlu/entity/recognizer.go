package entity

import "regexp"

type compiledPattern struct {
	def Pattern
	res []*regexp.Regexp
}

// Recognizer matches the business-pattern table against text.
type Recognizer struct {
	compiled []compiledPattern
}

// NewRecognizer compiles the given pattern table. Patterns that fail to
// compile are skipped rather than aborting the whole recognizer.
func NewRecognizer(patterns []Pattern) *Recognizer {
	r := &Recognizer{}
	for _, p := range patterns {
		cp := compiledPattern{def: p}
		for _, raw := range p.Patterns {
			re, err := regexp.Compile(raw)
			if err != nil {
				continue
			}
			cp.res = append(cp.res, re)
		}
		r.compiled = append(r.compiled, cp)
	}
	return r
}

// Labels returns the business-pattern label set the recognizer was built
// with, in table order.
func (r *Recognizer) Labels() []string {
	out := make([]string, len(r.compiled))
	for i, cp := range r.compiled {
		out[i] = cp.def.Label
	}
	return out
}

// Extract returns one entity per regex match, using a capture group as the
// entity text when the pattern defines one.
func (r *Recognizer) Extract(text string) []Entity {
	var out []Entity
	for _, cp := range r.compiled {
		base := 0.75
		if cp.def.IsBusinessEntity {
			base = 0.85
		}
		confidence := base + cp.def.ConfidenceBoost
		if confidence > 1.0 {
			confidence = 1.0
		}
		for _, re := range cp.res {
			for _, match := range re.FindAllStringSubmatchIndex(text, -1) {
				start, end := match[0], match[1]
				entText := text[start:end]
				if len(match) >= 4 && match[2] >= 0 && match[3] >= 0 {
					start, end = match[2], match[3]
					entText = text[start:end]
				}
				out = append(out, Entity{
					Text:       entText,
					Label:      cp.def.Label,
					Start:      start,
					End:        end,
					Confidence: confidence,
				})
			}
		}
	}
	return out
}
