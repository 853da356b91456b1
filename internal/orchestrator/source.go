package orchestrator

import (
	"fmt"
	"os"
	"strings"

	"github.com/Yates-Labs/concierge/internal/ingest/git"
	"github.com/Yates-Labs/concierge/internal/rag"
)

// FAQSource describes where the knowledge base FAQs are read from
type FAQSource struct {
	// Location is a JSON file, or a git repository when Path is set
	Location string
	// Path of the JSON file inside the repository
	Path string
	// Ref selects the revision to read; empty means HEAD
	Ref string
}

// Name returns a short label for logs, e.g. "hotel-faqs:data/faqs.json"
func (s FAQSource) Name() string {
	if s.Path == "" {
		return s.Location
	}
	name := extractRepoName(s.Location) + ":" + s.Path
	if s.Ref != "" {
		name += "@" + s.Ref
	}
	return name
}

// LoadFAQs reads and parses FAQs from a plain file or a file inside a git repository
func LoadFAQs(source FAQSource) ([]rag.FAQ, error) {
	if source.Location == "" {
		return nil, fmt.Errorf("FAQ source location is required")
	}

	var data []byte
	if source.Path == "" {
		content, err := os.ReadFile(source.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to read FAQ file: %w", err)
		}
		data = content
	} else {
		file, err := git.LoadFile(git.Source{
			Location: source.Location,
			Path:     source.Path,
			Ref:      source.Ref,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read FAQ file from %s: %w", source.Name(), err)
		}
		data = file.Data
	}

	faqs, err := rag.ParseFAQs(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FAQs from %s: %w", source.Name(), err)
	}
	return faqs, nil
}

// extractRepoName extracts the repository name from a path or URL
func extractRepoName(repo string) string {
	repo = strings.TrimRight(repo, "/")

	name := repo
	if i := strings.LastIndexAny(repo, "/:"); i >= 0 && i < len(repo)-1 {
		name = repo[i+1:]
	}

	return strings.TrimSuffix(name, ".git")
}
