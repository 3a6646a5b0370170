package intent

import (
	"regexp"
	"strings"
	"sync"
)

type compiledDefinition struct {
	def      Definition
	patterns []*regexp.Regexp
}

// Classifier scores registered intent definitions against utterance text
// and optionally blends in a ModelClassifier's opinion.
type Classifier struct {
	mu    sync.RWMutex
	defs  map[string]*compiledDefinition
	order []string

	model      ModelClassifier
	emaAlpha   float64
	avgConf    float64
	classified int
}

// New builds a Classifier with the given EMA smoothing factor (spec: 0.1)
// and an optional model-based collaborator (nil disables blending).
func New(emaAlpha float64, model ModelClassifier) *Classifier {
	if emaAlpha <= 0 {
		emaAlpha = 0.1
	}
	return &Classifier{defs: make(map[string]*compiledDefinition), model: model, emaAlpha: emaAlpha}
}

// Register compiles and installs one intent definition, replacing any
// previous definition with the same name.
func (c *Classifier) Register(def Definition) error {
	compiled := make([]*regexp.Regexp, 0, len(def.Patterns))
	for _, p := range def.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return err
		}
		compiled = append(compiled, re)
	}
	if def.ConfidenceThreshold <= 0 {
		def.ConfidenceThreshold = 0.7
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.defs[def.Name]; !exists {
		c.order = append(c.order, def.Name)
	}
	c.defs[def.Name] = &compiledDefinition{def: def, patterns: compiled}
	return nil
}

// RegisterAll registers a batch of definitions, stopping at the first error.
func (c *Classifier) RegisterAll(defs []Definition) error {
	for _, d := range defs {
		if err := c.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// List returns registered intent names in registration order.
func (c *Classifier) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Classify scores text against every registered intent, blends in the
// model classifier's opinion (higher confidence wins), and returns the
// winner, or nil if nothing clears its threshold.
func (c *Classifier) Classify(text string) (*Intent, error) {
	ruleIntent := c.classifyWithRules(text)

	var modelIntent *Intent
	if c.model != nil {
		name, confidence, err := c.model.Classify(text)
		if err == nil && name != "" {
			modelIntent = &Intent{Name: name, Confidence: confidence}
		}
	}

	final := combine(ruleIntent, modelIntent)
	if final != nil {
		c.updateStats(final.Confidence)
	}
	return final, nil
}

func combine(rule, model *Intent) *Intent {
	switch {
	case rule != nil && model != nil:
		if model.Confidence >= rule.Confidence {
			return model
		}
		return rule
	case model != nil:
		return model
	default:
		return rule
	}
}

func (c *Classifier) classifyWithRules(text string) *Intent {
	lower := strings.ToLower(text)

	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *Intent
	var bestScore float64
	for _, name := range c.order {
		cd := c.defs[name]
		score := Score(lower, cd.def, cd.patterns)
		if score >= cd.def.ConfidenceThreshold && score > bestScore {
			bestScore = score
			best = &Intent{
				Name:       name,
				Confidence: score,
				Parameters: ExtractParameters(text, name),
			}
		}
	}
	return best
}

// Score computes the spec's weighted keyword/pattern score:
// 0.4*keyword_match_ratio + 0.6*min(pattern_match_count/patterns_count, 1.0),
// divided by the total weight of the components present (0.4, 0.6 or 1.0).
func Score(lowerText string, def Definition, compiled []*regexp.Regexp) float64 {
	var total, weight float64

	if len(def.Keywords) > 0 {
		matches := 0
		for _, kw := range def.Keywords {
			if strings.Contains(lowerText, strings.ToLower(kw)) {
				matches++
			}
		}
		total += (float64(matches) / float64(len(def.Keywords))) * 0.4
		weight += 0.4
	}

	if len(compiled) > 0 {
		matches := 0
		for _, re := range compiled {
			if re.MatchString(lowerText) {
				matches++
			}
		}
		ratio := float64(matches) / float64(len(compiled))
		if ratio > 1.0 {
			ratio = 1.0
		}
		total += ratio * 0.6
		weight += 0.6
	}

	if weight == 0 {
		return 0
	}
	// Normalize by the weight actually in play rather than a raw component
	// count, so an intent with only keywords (or only patterns) defined
	// still produces a score on the full 0..1 scale instead of being
	// permanently capped at its partial weight.
	return total / weight
}

func (c *Classifier) updateStats(confidence float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classified++
	c.avgConf = c.emaAlpha*confidence + (1-c.emaAlpha)*c.avgConf
}

// Stats reports classifier-wide counters for observability endpoints.
type Stats struct {
	ClassificationCount int
	AvgConfidence       float64
	AvailableIntents    int
}

func (c *Classifier) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{ClassificationCount: c.classified, AvgConfidence: c.avgConf, AvailableIntents: len(c.defs)}
}
