package entity

import (
	"sort"
	"strings"
)

// highConfidenceLabels get the Model NER length bonus boost per the spec's
// "high-confidence label families" set.
var highConfidenceLabels = map[string]bool{
	"PERSON": true, "ORG": true, "GPE": true, "MONEY": true, "DATE": true, "TIME": true,
}

// Extractor runs the Model NER, business recognizer and generic regex
// sources in parallel and merges their output.
type Extractor struct {
	model               ModelNER
	recognizer          *Recognizer
	confidenceThreshold float64
}

// New builds an Extractor. model may be nil to skip the NER source.
func New(model ModelNER, patterns []Pattern, confidenceThreshold float64) *Extractor {
	if confidenceThreshold <= 0 {
		confidenceThreshold = 0.5
	}
	return &Extractor{model: model, recognizer: NewRecognizer(patterns), confidenceThreshold: confidenceThreshold}
}

// Extract runs all three sources, merges overlapping spans keeping the
// higher-confidence entity, and filters by confidence/length/digit rules.
func (e *Extractor) Extract(text string) ([]Entity, error) {
	var all []Entity

	if e.model != nil {
		modelEntities, err := e.model.Recognize(text)
		if err == nil {
			for _, ent := range modelEntities {
				all = append(all, scoreModelEntity(ent))
			}
		}
	}

	all = append(all, e.recognizer.Extract(text)...)
	all = append(all, extractGeneric(text)...)

	merged := mergeOverlapping(all)
	return e.filter(merged), nil
}

// Labels lists every entity label the extractor can produce: the business
// patterns it was built with plus the fixed generic-regex set.
func (e *Extractor) Labels() []string {
	out := e.recognizer.Labels()
	for _, gp := range genericPatterns {
		out = append(out, gp.label)
	}
	sort.Strings(out)
	return out
}

func scoreModelEntity(ent Entity) Entity {
	base := 0.8
	if highConfidenceLabels[ent.Label] {
		base = 0.9
	}
	lengthBoost := float64(len(ent.Text)) * 0.01
	if lengthBoost > 0.1 {
		lengthBoost = 0.1
	}
	confidence := base + lengthBoost
	if confidence > 1.0 {
		confidence = 1.0
	}
	ent.Confidence = confidence
	return ent
}

// mergeOverlapping sorts by (start, end) and collapses every group of
// mutually- or transitively-overlapping spans down to the single
// highest-confidence entity in that group, so no two spans in the result
// ever overlap, even on triple-overlap (chain) inputs. On equal confidence
// the entity that came first in input order (source, then table order) wins.
func mergeOverlapping(entities []Entity) []Entity {
	if len(entities) == 0 {
		return nil
	}
	sorted := make([]Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var out []Entity
	for _, ent := range sorted {
		winner := ent
		kept := out[:0]
		for _, existing := range out {
			if spansOverlap(winner, existing) {
				if existing.Confidence >= winner.Confidence {
					winner = existing
				}
				continue
			}
			kept = append(kept, existing)
		}
		out = append(kept, winner)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

func spansOverlap(a, b Entity) bool {
	return !(a.End <= b.Start || b.End <= a.Start)
}

func (e *Extractor) filter(entities []Entity) []Entity {
	var out []Entity
	for _, ent := range entities {
		if ent.Confidence < e.confidenceThreshold {
			continue
		}
		trimmed := strings.TrimSpace(ent.Text)
		if len(trimmed) < 2 {
			continue
		}
		if isPureDigits(trimmed) && !businessIDAllowList[ent.Label] {
			continue
		}
		out = append(out, ent)
	}
	return out
}

func isPureDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
