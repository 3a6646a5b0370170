package documents

import "unicode/utf8"

// Tokenizer counts tokens in a string. The default build uses RuneTokenizer;
// model-accurate tokenizers are wired in behind build tags (tokenizer_claude.go,
// tokenizer_openai.go) to avoid a mandatory SDK dependency.
type Tokenizer interface {
	Count(s string) int
	Name() string
}

// RuneTokenizer is a simple utf8 rune counter.
type RuneTokenizer struct{}

func (RuneTokenizer) Count(s string) int { return utf8.RuneCountInString(s) }
func (RuneTokenizer) Name() string       { return "rune" }
