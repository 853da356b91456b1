package rag

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Yates-Labs/concierge/internal/answer"
)

var ErrInvalidIdentifier = errors.New("invalid SQL identifier")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresConfig contains configuration for the pgvector-backed knowledge base
type PostgresConfig struct {
	// DSN is the PostgreSQL connection string (Supabase or plain Postgres)
	DSN string
	// SearchFunction is the hybrid search SQL function, called as
	// fn(query_text => text, query_embedding => vector, match_count => int)
	// and returning (answer, similarity_score) rows best-first
	SearchFunction string
	// Table holds FAQ rows (id, question, answer, embedding) for indexing
	Table string
	// Dimension of stored and queried vectors
	Dimension int
}

// DefaultPostgresConfig returns the names used by the hosted knowledge base
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		SearchFunction: "hybrid_search_faqs",
		Table:          "faqs",
		Dimension:      384,
	}
}

// PostgresStore implements Store on PostgreSQL with pgvector
type PostgresStore struct {
	db        *sqlx.DB
	dimension int
	searchSQL string
	upsertSQL string
	deleteSQL string
}

type candidateRow struct {
	Answer          string  `db:"answer"`
	SimilarityScore float64 `db:"similarity_score"`
}

// NewPostgresStore opens a connection pool and verifies it
func NewPostgresStore(ctx context.Context, config PostgresConfig) (*PostgresStore, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", ErrConnectionFailed)
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	store, err := NewPostgresStoreFromDB(db, config)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStoreFromDB wraps an existing connection pool
func NewPostgresStoreFromDB(db *sqlx.DB, config PostgresConfig) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	for _, name := range []string{config.SearchFunction, config.Table} {
		if !identifierPattern.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}

	return &PostgresStore{
		db:        db,
		dimension: config.Dimension,
		searchSQL: fmt.Sprintf(
			`SELECT answer, similarity_score FROM %s(query_text => $1, query_embedding => $2::vector, match_count => $3)`,
			config.SearchFunction,
		),
		upsertSQL: fmt.Sprintf(
			`INSERT INTO %s (id, question, answer, embedding) VALUES ($1, $2, $3, $4::vector)
			ON CONFLICT (id) DO UPDATE SET question = EXCLUDED.question, answer = EXCLUDED.answer, embedding = EXCLUDED.embedding`,
			config.Table,
		),
		deleteSQL: fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, config.Table),
	}, nil
}

// Search runs the hybrid (semantic + lexical) search function
func (s *PostgresStore) Search(ctx context.Context, text string, vector []float32, topK int) ([]answer.Candidate, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, s.dimension, len(vector))
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", ErrSearchFailed, topK)
	}

	var rows []candidateRow
	if err := s.db.SelectContext(ctx, &rows, s.searchSQL, text, VectorLiteral(vector), topK); err != nil {
		return nil, wrapPgError(ErrSearchFailed, err)
	}

	candidates := make([]answer.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, answer.Candidate{
			Answer: row.Answer,
			Score:  answer.ClampScore(row.SimilarityScore),
		})
	}
	return candidates, nil
}

// Upsert writes all records in one transaction
func (s *PostgresStore) Upsert(ctx context.Context, records []FAQRecord) (err error) {
	if len(records) == 0 {
		return ErrEmptyRecords
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapPgError(ErrInsertFailed, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, record := range records {
		if len(record.Embedding) != s.dimension {
			return fmt.Errorf("%w: record %s has %d, expected %d", ErrInvalidDimension, record.ID, len(record.Embedding), s.dimension)
		}
		if _, err = tx.ExecContext(ctx, s.upsertSQL, record.ID, record.Question, record.Answer, VectorLiteral(record.Embedding)); err != nil {
			return wrapPgError(ErrInsertFailed, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return wrapPgError(ErrInsertFailed, err)
	}
	return nil
}

// Delete removes rows by FAQ ID
func (s *PostgresStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.deleteSQL, pq.Array(ids)); err != nil {
		return wrapPgError(errors.New("failed to delete records"), err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// VectorLiteral formats v as a pgvector text literal, e.g. [0.1,0.2]
func VectorLiteral(v []float32) string {
	elements := make([]string, len(v))
	for i, x := range v {
		elements[i] = strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return "[" + strings.Join(elements, ",") + "]"
}

// wrapPgError keeps the SQLSTATE of server-side failures in the message.
func wrapPgError(sentinel, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w: sqlstate %s: %w", sentinel, pqErr.Code, err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
