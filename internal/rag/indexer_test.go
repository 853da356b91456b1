package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yates-Labs/concierge/internal/answer"
)

type fakeEmbedder struct {
	calls [][]string
	err   error
	short bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	records := make([]EmbeddingRecord, n)
	for i := 0; i < n; i++ {
		records[i] = EmbeddingRecord{Text: texts[i], Embedding: []float32{float32(i), 1}, Index: i}
	}
	return records, nil
}

func (f *fakeEmbedder) GetModel() string  { return "fake" }
func (f *fakeEmbedder) GetDimension() int { return 2 }

type fakeStore struct {
	batches [][]FAQRecord
	err     error
}

func (f *fakeStore) Search(ctx context.Context, text string, vector []float32, topK int) ([]answer.Candidate, error) {
	return nil, nil
}

func (f *fakeStore) Upsert(ctx context.Context, records []FAQRecord) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, records)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, ids []string) error { return nil }
func (f *fakeStore) Close() error                                   { return nil }

func sampleFAQs(n int) []FAQ {
	faqs := make([]FAQ, n)
	for i := range faqs {
		q := fmt.Sprintf("question %d", i)
		faqs[i] = FAQ{ID: FAQID(q), Question: q, Answer: fmt.Sprintf("answer %d", i)}
	}
	return faqs
}

func TestIndexFAQs_Batches(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeStore{}

	n, err := IndexFAQs(context.Background(), sampleFAQs(5), embedder, store, IndexOptions{BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.Len(t, embedder.calls, 3)
	assert.Equal(t, []string{"question 0", "question 1"}, embedder.calls[0])
	assert.Equal(t, []string{"question 4"}, embedder.calls[2])

	require.Len(t, store.batches, 3)
	assert.Equal(t, "answer 1", store.batches[0][1].Answer)
	assert.Equal(t, []float32{1, 1}, store.batches[0][1].Embedding)
}

func TestIndexFAQs_DefaultBatchSize(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeStore{}

	n, err := IndexFAQs(context.Background(), sampleFAQs(40), embedder, store, IndexOptions{})
	require.NoError(t, err)
	assert.Equal(t, 40, n)
	assert.Len(t, embedder.calls, 2)
}

func TestIndexFAQs_Empty(t *testing.T) {
	n, err := IndexFAQs(context.Background(), nil, nil, nil, DefaultIndexOptions())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndexFAQs_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := IndexFAQs(ctx, sampleFAQs(1), nil, &fakeStore{}, DefaultIndexOptions())
	assert.Error(t, err)

	_, err = IndexFAQs(ctx, sampleFAQs(1), &fakeEmbedder{}, nil, DefaultIndexOptions())
	assert.Error(t, err)

	embedErr := errors.New("quota exceeded")
	_, err = IndexFAQs(ctx, sampleFAQs(3), &fakeEmbedder{err: embedErr}, &fakeStore{}, DefaultIndexOptions())
	assert.ErrorIs(t, err, embedErr)

	_, err = IndexFAQs(ctx, sampleFAQs(3), &fakeEmbedder{short: true}, &fakeStore{}, DefaultIndexOptions())
	assert.ErrorContains(t, err, "embedding count mismatch")

	n, err := IndexFAQs(ctx, sampleFAQs(3), &fakeEmbedder{}, &fakeStore{err: ErrInsertFailed}, IndexOptions{BatchSize: 1})
	assert.ErrorIs(t, err, ErrInsertFailed)
	assert.Zero(t, n)
}

func TestIndexFAQs_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	embedder := &fakeEmbedder{}
	n, err := IndexFAQs(ctx, sampleFAQs(3), embedder, &fakeStore{}, DefaultIndexOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Empty(t, embedder.calls)
}
