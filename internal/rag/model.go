package rag

import (
	"context"

	"github.com/Yates-Labs/concierge/internal/answer"
)

// FAQ is one curated question/answer pair of the knowledge base.
type FAQ struct {
	ID       string `json:"id,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQRecord is an FAQ together with the embedding of its question.
type FAQRecord struct {
	FAQ
	Embedding []float32 `json:"-"`
}

// Backend is the retrieval contract the resolver depends on.
type Backend interface {
	// Search returns at most topK candidates ordered best-first. The text is used by
	// backends that also rank lexically; vector is the normalized question embedding.
	// An empty result is not an error.
	Search(ctx context.Context, text string, vector []float32, topK int) ([]answer.Candidate, error)
}

// Store is a Backend that can also be written to by the indexer.
type Store interface {
	Backend

	// Upsert inserts or replaces records by FAQ ID
	Upsert(ctx context.Context, records []FAQRecord) error

	// Delete removes records by FAQ ID
	Delete(ctx context.Context, ids []string) error

	// Close releases resources and closes connections
	Close() error
}

// IndexOptions provides configuration for FAQ indexing
type IndexOptions struct {
	// BatchSize determines how many questions to embed at once
	BatchSize int
}

// DefaultIndexOptions returns sensible defaults for indexing
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize: 32,
	}
}
