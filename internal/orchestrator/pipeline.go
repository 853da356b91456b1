package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/config"
	"github.com/Yates-Labs/concierge/internal/escalation"
	"github.com/Yates-Labs/concierge/internal/lead"
	"github.com/Yates-Labs/concierge/internal/rag"
	"github.com/Yates-Labs/concierge/internal/unanswered"
	"github.com/Yates-Labs/concierge/internal/webhook"
)

// Pipeline holds the process-wide collaborators, built once at startup.
type Pipeline struct {
	Resolver *Resolver
	Recorder *unanswered.Recorder
	Leads    *lead.Service
	Store    rag.Store

	logger *zap.Logger
}

// NewPipeline builds every collaborator from configuration and wires the resolver.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	llm, err := escalation.NewOpenAILLM(escalation.LLMConfig{
		APIKey:      cfg.Completion.APIKey,
		BaseURL:     cfg.Completion.BaseURL,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}

	escalator, err := escalation.NewEscalator(llm, escalation.PromptConfig{
		Subject:        cfg.Answer.DomainSubject,
		FallbackPhrase: cfg.Answer.FallbackPhrase,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create escalator: %w", err)
	}

	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval backend: %w", err)
	}

	hooks := webhook.NewClient(cfg.Webhooks.Timeout)
	recorder := unanswered.NewRecorder(hooks, cfg.Webhooks.UnansweredURL, cfg.Webhooks.Timeout, logger)
	if !recorder.Enabled() {
		logger.Warn("unanswered question logging is disabled: no webhook URL configured")
	}

	resolver, err := NewResolver(
		embedder,
		store,
		escalator,
		recorder,
		cfg.Answer.SimilarityThreshold,
		cfg.Answer.FallbackPhrase,
		logger,
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	return &Pipeline{
		Resolver: resolver,
		Recorder: recorder,
		Leads:    lead.NewService(hooks, cfg.Webhooks.LeadURL, logger),
		Store:    store,
		logger:   logger,
	}, nil
}

// Close waits for pending unanswered-question deliveries and releases the backend.
func (p *Pipeline) Close() error {
	p.Recorder.Wait()
	if p.Store != nil {
		return p.Store.Close()
	}
	return nil
}

// NewEmbedder creates the question embedder from configuration.
func NewEmbedder(cfg *config.Config) (*rag.OpenAIEmbedder, error) {
	return rag.NewOpenAIEmbedder(rag.EmbedderConfig{
		APIKey:    cfg.Embedding.APIKey,
		BaseURL:   cfg.Embedding.BaseURL,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
	})
}

// NewStore connects to the configured retrieval backend.
func NewStore(ctx context.Context, cfg *config.Config) (rag.Store, error) {
	switch cfg.Retrieval.Backend {
	case config.BackendPostgres:
		pgConfig := rag.DefaultPostgresConfig()
		pgConfig.DSN = cfg.Retrieval.Postgres.DSN
		pgConfig.Dimension = cfg.Embedding.Dimension
		if cfg.Retrieval.Postgres.SearchFunction != "" {
			pgConfig.SearchFunction = cfg.Retrieval.Postgres.SearchFunction
		}
		if cfg.Retrieval.Postgres.Table != "" {
			pgConfig.Table = cfg.Retrieval.Postgres.Table
		}
		store, err := rag.NewPostgresStore(ctx, pgConfig)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendMilvus:
		milvusConfig := rag.DefaultMilvusConfig()
		milvusConfig.Address = cfg.Retrieval.Milvus.Address
		milvusConfig.Dimension = cfg.Embedding.Dimension
		if cfg.Retrieval.Milvus.Collection != "" {
			milvusConfig.CollectionName = cfg.Retrieval.Milvus.Collection
		}
		store, err := rag.NewMilvusStore(ctx, milvusConfig)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unknown retrieval backend %q", config.ErrInvalidConfig, cfg.Retrieval.Backend)
	}
}
