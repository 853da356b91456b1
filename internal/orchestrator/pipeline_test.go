package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/object"
	"go.uber.org/zap"

	"github.com/Yates-Labs/concierge/internal/config"
	"github.com/Yates-Labs/concierge/internal/rag"
)

func testConfig() *config.Config {
	return &config.Config{
		Answer: config.AnswerConfig{
			SimilarityThreshold: 0.85,
			FallbackPhrase:      testFallback,
			DomainSubject:       "the hotel",
		},
		Embedding: config.EmbeddingConfig{
			APIKey:    "sk-test",
			Model:     "text-embedding-3-small",
			Dimension: 384,
		},
		Completion: config.CompletionConfig{
			APIKey:      "sk-test",
			Model:       "google/gemini-2.0-flash-001",
			Temperature: 0.1,
		},
		Retrieval: config.RetrievalConfig{Backend: config.BackendPostgres},
		Webhooks:  config.WebhooksConfig{Timeout: time.Second},
	}
}

func TestNewPipeline_Errors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{"invalid config", func(c *config.Config) { c.Answer.SimilarityThreshold = 2 }, config.ErrInvalidConfig},
		{"missing embedding key", func(c *config.Config) { c.Embedding.APIKey = "" }, rag.ErrMissingAPIKey},
		{"missing postgres dsn", func(c *config.Config) {}, rag.ErrConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(cfg)

			_, err := NewPipeline(context.Background(), cfg, zap.NewNop())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewPipeline_MissingCompletionKey(t *testing.T) {
	cfg := testConfig()
	cfg.Completion.APIKey = ""

	if _, err := NewPipeline(context.Background(), cfg, nil); err == nil {
		t.Error("Expected error for missing completion API key")
	}
}

func TestNewStore_UnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Retrieval.Backend = "sqlite"

	if _, err := NewStore(context.Background(), cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewEmbedder(t *testing.T) {
	embedder, err := NewEmbedder(testConfig())
	if err != nil {
		t.Fatalf("NewEmbedder() error = %v", err)
	}
	if embedder.GetDimension() != 384 || embedder.GetModel() != "text-embedding-3-small" {
		t.Errorf("Unexpected embedder %s/%d", embedder.GetModel(), embedder.GetDimension())
	}
}

const faqJSON = `[
	{"question": "Do you have a pool?", "answer": "Yes, an outdoor pool."},
	{"id": "parking", "question": "Is there parking?", "answer": "Free parking for guests."}
]`

func TestLoadFAQs_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faqs.json")
	if err := os.WriteFile(path, []byte(faqJSON), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	faqs, err := LoadFAQs(FAQSource{Location: path})
	if err != nil {
		t.Fatalf("LoadFAQs() error = %v", err)
	}
	if len(faqs) != 2 {
		t.Fatalf("Expected 2 FAQs, got %d", len(faqs))
	}
	if faqs[1].ID != "parking" {
		t.Errorf("Expected explicit ID to be kept, got %s", faqs[1].ID)
	}
}

func TestLoadFAQs_Repository(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init repository: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "kb"), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "kb", "faqs.json"), []byte(faqJSON), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	if _, err := worktree.Add("kb/faqs.json"); err != nil {
		t.Fatalf("Failed to stage: %v", err)
	}
	_, err = worktree.Commit("add faqs", &git.CommitOptions{
		Author: &object.Signature{Name: "Front Desk", Email: "desk@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	faqs, err := LoadFAQs(FAQSource{Location: dir, Path: "kb/faqs.json"})
	if err != nil {
		t.Fatalf("LoadFAQs() error = %v", err)
	}
	if len(faqs) != 2 || faqs[0].Question != "Do you have a pool?" {
		t.Errorf("Unexpected FAQs %+v", faqs)
	}
}

func TestLoadFAQs_Errors(t *testing.T) {
	if _, err := LoadFAQs(FAQSource{}); err == nil {
		t.Error("Expected error for empty location")
	}
	if _, err := LoadFAQs(FAQSource{Location: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`[{"question": "no answer"}]`), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := LoadFAQs(FAQSource{Location: path}); !errors.Is(err, rag.ErrInvalidFAQ) {
		t.Errorf("Expected ErrInvalidFAQ, got %v", err)
	}
}

func TestFAQSource_Name(t *testing.T) {
	tests := []struct {
		source FAQSource
		want   string
	}{
		{FAQSource{Location: "data/faqs.json"}, "data/faqs.json"},
		{FAQSource{Location: "https://github.com/hotel/kb.git", Path: "faqs.json"}, "kb:faqs.json"},
		{FAQSource{Location: "git@github.com:hotel/kb.git", Path: "faqs.json", Ref: "v2"}, "kb:faqs.json@v2"},
		{FAQSource{Location: "/srv/kb/", Path: "faqs.json"}, "kb:faqs.json"},
	}

	for _, tt := range tests {
		if got := tt.source.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}
