// Package databases implements the storage collaborators used by the
// retrieval and conversation components: a pluggable full-text (sparse)
// search backend, a pluggable vector (dense) store, and a durable
// conversation store.
package databases

import (
	"context"
	"time"
)

// SearchResult represents a single hit from the sparse/full-text backend
// consulted by the hybrid search component alongside the dense vector store.
type SearchResult struct {
	ID       string
	Score    float64
	Snippet  string
	Text     string
	Metadata map[string]string
}

// FullTextSearch defines the minimum interface for a pluggable sparse search
// backend (BM25/FTS-style lexical matching).
type FullTextSearch interface {
	Index(ctx context.Context, id string, text string, metadata map[string]string) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// VectorResult represents a single nearest neighbor lookup result. Score is
// similarity, higher is closer.
type VectorResult struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// VectorStore defines the minimum interface for a pluggable dense vector
// index (the VectorIndex collaborator).
type VectorStore interface {
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error
	Delete(ctx context.Context, id string) error
	SimilaritySearch(ctx context.Context, vector []float32, k int, filter map[string]string) ([]VectorResult, error)
}

// Turn is one durable conversation turn.
type Turn struct {
	ConversationID string
	Sequence       int64
	Role           string // user, assistant, system, tool
	Content        string
	Metadata       map[string]string
	CreatedAt      time.Time
}

// ConversationStore persists conversation turns beyond the in-memory
// sliding window the conversation manager keeps per session.
type ConversationStore interface {
	Append(ctx context.Context, turn Turn) error
	Recent(ctx context.Context, conversationID string, limit int) ([]Turn, error)
	Delete(ctx context.Context, conversationID string) error
}

// Manager holds concrete database backends resolved from configuration.
type Manager struct {
	Search FullTextSearch
	Vector VectorStore
	Chat   ConversationStore
}

// Close releases any underlying connection pools; a no-op for memory
// backends.
func (m Manager) Close() {
	if c, ok := any(m.Search).(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := any(m.Vector).(interface{ Close() }); ok {
		c.Close()
	}
	if c, ok := any(m.Chat).(interface{ Close() }); ok {
		c.Close()
	}
}
