package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/answer"
	"github.com/Yates-Labs/concierge/internal/rag"
)

// ErrInvalidThreshold is returned when the confidence threshold is outside [0,1].
var ErrInvalidThreshold = errors.New("similarity threshold must be within [0,1]")

// Escalator answers questions the knowledge base could not answer confidently.
type Escalator interface {
	Escalate(ctx context.Context, q answer.Question) (answer.Outcome, error)
}

// Recorder records unanswered questions without blocking.
type Recorder interface {
	Record(question string)
}

// Response is the result of one resolution. Failed responses carry the fallback
// phrase as Reply and the cause in Err.
type Response struct {
	Reply   string
	Outcome answer.Outcome
	Err     error
	// Score of the top retrieval candidate, 0 when there was none
	Score float64
}

// Failed reports whether the pipeline failed and the reply is the fallback.
func (r Response) Failed() bool {
	return r.Err != nil
}

// Resolver runs the answer-resolution pipeline for one question at a time.
// It is safe for concurrent use if its collaborators are.
type Resolver struct {
	embedder  rag.Embedder
	backend   rag.Backend
	escalator Escalator
	recorder  Recorder
	threshold float64
	fallback  string
	logger    *zap.Logger
}

// NewResolver wires the collaborators of the pipeline.
func NewResolver(
	embedder rag.Embedder,
	backend rag.Backend,
	escalator Escalator,
	recorder Recorder,
	threshold float64,
	fallback string,
	logger *zap.Logger,
) (*Resolver, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if backend == nil {
		return nil, fmt.Errorf("retrieval backend cannot be nil")
	}
	if escalator == nil {
		return nil, fmt.Errorf("escalator cannot be nil")
	}
	if recorder == nil {
		return nil, fmt.Errorf("recorder cannot be nil")
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	if fallback == "" {
		return nil, fmt.Errorf("fallback phrase cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		embedder:  embedder,
		backend:   backend,
		escalator: escalator,
		recorder:  recorder,
		threshold: threshold,
		fallback:  fallback,
		logger:    logger.Named("resolver"),
	}, nil
}

// Fallback returns the fixed reply used when no answer could be produced.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// Resolve answers q. It never returns an error and never panics; failures come back
// as a Response carrying the fallback phrase.
//
// The question is handed to the recorder iff the pipeline failed or the completion
// model fell back. A knowledge base hit is never recorded.
func (r *Resolver) Resolve(ctx context.Context, q answer.Question) Response {
	start := time.Now()

	resp := r.safeResolve(ctx, q)
	if resp.Failed() || resp.Outcome.Unanswered() {
		r.record(q.String())
	}

	fields := []zap.Field{
		zap.String("outcome", resp.Outcome.Kind.String()),
		zap.Float64("score", resp.Score),
		zap.Float64("threshold", r.threshold),
		zap.Duration("duration", time.Since(start)),
	}
	if resp.Failed() {
		r.logger.Error("question resolution failed", append(fields, zap.Error(resp.Err))...)
	} else {
		r.logger.Info("question resolved", fields...)
	}

	return resp
}

// Abandon produces the failed response for a request whose question could not be
// read. There is nothing to record.
func (r *Resolver) Abandon(err error) Response {
	r.logger.Warn("request abandoned before a question was captured", zap.Error(err))
	return r.failed(err, 0)
}

func (r *Resolver) safeResolve(ctx context.Context, q answer.Question) (resp Response) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic during question resolution", zap.Any("panic", p), zap.Stack("stack"))
			resp = r.failed(fmt.Errorf("%w: %v", answer.ErrUnknown, p), resp.Score)
		}
	}()
	return r.resolve(ctx, q)
}

func (r *Resolver) resolve(ctx context.Context, q answer.Question) Response {
	if q.String() == "" {
		return r.failed(fmt.Errorf("%w: question was not validated", answer.ErrInvalidQuestion), 0)
	}

	// Embedding
	records, err := r.embedder.Embed(ctx, []string{q.String()})
	if err != nil {
		return r.failed(fmt.Errorf("%w: %w", answer.ErrEmbedding, err), 0)
	}
	if len(records) != 1 {
		return r.failed(fmt.Errorf("%w: expected 1 embedding, got %d", answer.ErrEmbedding, len(records)), 0)
	}

	// Retrieving
	candidates, err := r.backend.Search(ctx, q.String(), records[0].Embedding, 1)
	if err != nil {
		return r.failed(fmt.Errorf("%w: %w", answer.ErrRetrieval, err), 0)
	}

	// Deciding
	decision := answer.Decide(answer.Top(candidates), r.threshold)
	if decision.Hit {
		return Response{
			Reply:   decision.Answer,
			Outcome: answer.Hit(decision.Answer),
			Score:   decision.Score,
		}
	}

	// Escalating
	outcome, err := r.escalator.Escalate(ctx, q)
	if err != nil {
		return r.failed(fmt.Errorf("%w: %w", answer.ErrEscalation, err), decision.Score)
	}

	return Response{
		Reply:   outcome.Text,
		Outcome: outcome,
		Score:   decision.Score,
	}
}

func (r *Resolver) failed(err error, score float64) Response {
	return Response{Reply: r.fallback, Err: err, Score: score}
}

func (r *Resolver) record(question string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("recorder panicked", zap.Any("panic", p))
		}
	}()
	r.recorder.Record(question)
}

// DecodeQuestion reads the "message" field of a chat request body.
// Unparseable JSON is ErrMalformedRequest; a missing, non-string or empty message is
// ErrInvalidQuestion.
func DecodeQuestion(body []byte) (answer.Question, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return answer.Question{}, fmt.Errorf("%w: %w", answer.ErrMalformedRequest, err)
	}

	fields, _ := payload.(map[string]any)
	message, ok := fields["message"].(string)
	if !ok {
		return answer.Question{}, fmt.Errorf("%w: message is missing or not a string", answer.ErrInvalidQuestion)
	}

	return answer.NewQuestion(message)
}
