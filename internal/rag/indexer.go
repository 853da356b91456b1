package rag

import (
	"context"
	"fmt"
)

// IndexFAQs embeds FAQ questions in batches and upserts them into the store.
// It returns the number of FAQs written.
func IndexFAQs(
	ctx context.Context,
	faqs []FAQ,
	embedder Embedder,
	store Store,
	opts IndexOptions,
) (int, error) {
	if len(faqs) == 0 {
		return 0, nil
	}

	if embedder == nil {
		return 0, fmt.Errorf("embedder cannot be nil")
	}

	if store == nil {
		return 0, fmt.Errorf("store cannot be nil")
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultIndexOptions().BatchSize
	}

	indexed := 0
	for start := 0; start < len(faqs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return indexed, fmt.Errorf("indexing cancelled after %d FAQs: %w", indexed, err)
		}

		end := start + batchSize
		if end > len(faqs) {
			end = len(faqs)
		}
		batch := faqs[start:end]

		texts := make([]string, len(batch))
		for i, faq := range batch {
			texts[i] = faq.Question
		}

		embeddings, err := embedder.Embed(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
		}
		if len(embeddings) != len(batch) {
			return indexed, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddings))
		}

		records := make([]FAQRecord, len(batch))
		for i, faq := range batch {
			records[i] = FAQRecord{FAQ: faq, Embedding: embeddings[i].Embedding}
		}

		if err := store.Upsert(ctx, records); err != nil {
			return indexed, fmt.Errorf("failed to store batch %d-%d: %w", start, end, err)
		}
		indexed += len(batch)
	}

	return indexed, nil
}
