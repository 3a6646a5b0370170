package intent

import "testing"

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c := New(0.1, nil)
	if err := c.RegisterAll(DefaultDefinitions()); err != nil {
		t.Fatalf("register: %v", err)
	}
	return c
}

func TestClassifyCreateContact(t *testing.T) {
	c := newTestClassifier(t)
	got, err := c.Classify("Create, add, new contact for customer John Doe, john@acme.com")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got == nil || got.Name != "create_contact" {
		t.Fatalf("expected create_contact, got %#v", got)
	}
	if got.Parameters["email"] != "john@acme.com" {
		t.Fatalf("expected extracted email, got %#v", got.Parameters)
	}
}

func TestClassifyGreetingLowerThreshold(t *testing.T) {
	c := newTestClassifier(t)
	got, err := c.Classify("Hello, good morning, how are you today?")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got == nil || got.Name != "greeting" {
		t.Fatalf("expected greeting, got %#v", got)
	}
}

func TestClassifyNoMatchReturnsNil(t *testing.T) {
	c := newTestClassifier(t)
	got, err := c.Classify("the quick brown fox jumps over the lazy dog")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no intent, got %#v", got)
	}
}

type stubModel struct {
	name       string
	confidence float64
}

func (s stubModel) Classify(string) (string, float64, error) { return s.name, s.confidence, nil }

func TestClassifyModelOutranksRules(t *testing.T) {
	c := New(0.1, stubModel{name: "generate_report", confidence: 0.95})
	if err := c.RegisterAll(DefaultDefinitions()); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := c.Classify("create a new contact for Jane")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got == nil || got.Name != "generate_report" {
		t.Fatalf("expected model opinion to win, got %#v", got)
	}
}

func TestScoreAveragesComponents(t *testing.T) {
	def := Definition{Keywords: []string{"order", "create"}, ConfidenceThreshold: 0.5}
	score := Score("create an order", def, nil)
	if score <= 0 || score > 1 {
		t.Fatalf("expected score in (0,1], got %f", score)
	}
}
