package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/Yates-Labs/concierge/internal/answer"
)

// Common errors for vector store operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrEmptyRecords     = errors.New("no records provided for insertion")
	ErrConnectionFailed = errors.New("failed to connect to knowledge base")
	ErrInsertFailed     = errors.New("failed to insert records")
	ErrSearchFailed     = errors.New("failed to search knowledge base")
)

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension, must match the embedder

	// HNSW index parameters
	M              int // HNSW M parameter (default: 16)
	EfConstruction int // HNSW efConstruction (default: 256)
	SearchEf       int // HNSW ef at query time (default: 64)
}

// DefaultMilvusConfig returns the default FAQ collection configuration
func DefaultMilvusConfig() MilvusConfig {
	return MilvusConfig{
		Address:        "localhost:19530",
		CollectionName: "faqs",
		Dimension:      384,
		M:              16,
		EfConstruction: 256,
		SearchEf:       64,
	}
}

// MilvusStore implements Store using Milvus. Search is purely semantic.
type MilvusStore struct {
	client client.Client
	config MilvusConfig
}

// NewMilvusStore connects to Milvus and ensures the FAQ collection exists
func NewMilvusStore(ctx context.Context, config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	c, err := client.NewGrpcClient(ctx, config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client: c,
		config: config,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !has {
		if err := m.createCollection(ctx); err != nil {
			return err
		}
	}

	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

func (m *MilvusStore) createCollection(ctx context.Context) error {
	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:     "faq_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "question",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "4096",
				},
			},
			{
				Name:     "answer",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.config.Dimension),
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}

	if err := m.client.CreateIndex(ctx, m.config.CollectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Upsert replaces any rows with the same FAQ IDs, then inserts and flushes
func (m *MilvusStore) Upsert(ctx context.Context, records []FAQRecord) error {
	if len(records) == 0 {
		return ErrEmptyRecords
	}

	ids := make([]string, len(records))
	questions := make([]string, len(records))
	answers := make([]string, len(records))
	embeddings := make([][]float32, len(records))

	for i, record := range records {
		if len(record.Embedding) != m.config.Dimension {
			return fmt.Errorf("%w: record %s has %d, expected %d", ErrInvalidDimension, record.ID, len(record.Embedding), m.config.Dimension)
		}
		ids[i] = record.ID
		questions[i] = record.Question
		answers[i] = record.Answer
		embeddings[i] = record.Embedding
	}

	if err := m.Delete(ctx, ids); err != nil {
		return err
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("faq_id", ids),
		entity.NewColumnVarChar("question", questions),
		entity.NewColumnVarChar("answer", answers),
		entity.NewColumnFloatVector("embedding", m.config.Dimension, embeddings),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}

	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to flush data: %w", err)
	}

	return nil
}

// Search performs top-K cosine similarity search. text is ignored.
func (m *MilvusStore) Search(ctx context.Context, text string, vector []float32, topK int) ([]answer.Candidate, error) {
	if len(vector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(vector))
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", ErrSearchFailed, topK)
	}

	sp, err := entity.NewIndexHNSWSearchParam(m.config.SearchEf)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		"",  // no filter
		[]string{"answer"},
		[]entity.Vector{entity.FloatVector(vector)},
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	if len(results) == 0 {
		return []answer.Candidate{}, nil
	}

	return candidatesFromResult(results[0])
}

// candidatesFromResult converts one Milvus result set into candidates.
// COSINE scores are similarities in [-1,1] and are clamped into [0,1].
func candidatesFromResult(result client.SearchResult) ([]answer.Candidate, error) {
	var answers *entity.ColumnVarChar
	for _, field := range result.Fields {
		if field.Name() == "answer" {
			col, ok := field.(*entity.ColumnVarChar)
			if !ok {
				return nil, fmt.Errorf("%w: answer column has type %T", ErrSearchFailed, field)
			}
			answers = col
		}
	}
	if answers == nil {
		if result.ResultCount == 0 {
			return []answer.Candidate{}, nil
		}
		return nil, fmt.Errorf("%w: answer field missing from results", ErrSearchFailed)
	}

	data := answers.Data()
	n := result.ResultCount
	if len(data) < n || len(result.Scores) < n {
		return nil, fmt.Errorf("%w: truncated result set", ErrSearchFailed)
	}

	candidates := make([]answer.Candidate, 0, n)
	for i := 0; i < n; i++ {
		candidates = append(candidates, answer.Candidate{
			Answer: data[i],
			Score:  answer.ClampScore(float64(result.Scores[i])),
		})
	}
	return candidates, nil
}

// Delete removes records by FAQ IDs
func (m *MilvusStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := m.client.Delete(ctx, m.config.CollectionName, "", idFilter(ids)); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}

	return nil
}

// idFilter builds a boolean expression matching any of ids.
func idFilter(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf("faq_id in [%s]", strings.Join(quoted, ", "))
}

// GetStats returns collection statistics
func (m *MilvusStore) GetStats(ctx context.Context) (map[string]string, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.config.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

// Close releases resources and closes the Milvus connection
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
