// Package entity implements EntityExtractor: three parallel sources (an
// optional model-based NER, a business-pattern recognizer, and a generic
// regex set) merged by span overlap and filtered by confidence.
package entity

// Entity is one extracted span.
type Entity struct {
	Text       string
	Label      string
	Start      int
	End        int
	Confidence float64
}

// Pattern is one business-entity recognition rule: a label, the regex
// patterns that detect it, and its confidence characteristics.
type Pattern struct {
	Label            string
	Patterns         []string
	Examples         []string
	ConfidenceBoost  float64
	IsBusinessEntity bool
}

// ModelNER is the optional external/ML named-entity recognizer.
type ModelNER interface {
	Recognize(text string) ([]Entity, error)
}

// businessIDAllowList is the set of labels the pure-digit filter exempts.
var businessIDAllowList = map[string]bool{
	"EMPLOYEE_ID":    true,
	"CUSTOMER_ID":    true,
	"ORDER_ID":       true,
	"INVOICE_NUMBER": true,
}
