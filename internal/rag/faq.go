package rag

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidFAQ = errors.New("invalid FAQ entry")

// faqNamespace scopes deterministic FAQ IDs.
var faqNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Yates-Labs/concierge/faq"))

// FAQID derives a stable ID from a question so re-indexing the same source replaces
// rows instead of duplicating them.
func FAQID(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	return uuid.NewSHA1(faqNamespace, []byte(normalized)).String()
}

// ParseFAQs decodes a JSON array of {id?, question, answer} objects.
// Missing IDs are derived from the question; duplicate IDs are rejected.
func ParseFAQs(data []byte) ([]FAQ, error) {
	var faqs []FAQ
	if err := json.Unmarshal(data, &faqs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFAQ, err)
	}

	seen := make(map[string]int, len(faqs))
	for i := range faqs {
		faq := &faqs[i]
		faq.Question = strings.TrimSpace(faq.Question)
		faq.Answer = strings.TrimSpace(faq.Answer)
		faq.ID = strings.TrimSpace(faq.ID)

		if faq.Question == "" {
			return nil, fmt.Errorf("%w: entry %d has no question", ErrInvalidFAQ, i)
		}
		if faq.Answer == "" {
			return nil, fmt.Errorf("%w: entry %d (%q) has no answer", ErrInvalidFAQ, i, faq.Question)
		}
		if faq.ID == "" {
			faq.ID = FAQID(faq.Question)
		}
		if len(faq.ID) > 64 {
			return nil, fmt.Errorf("%w: entry %d id longer than 64 characters", ErrInvalidFAQ, i)
		}
		if prev, ok := seen[faq.ID]; ok {
			return nil, fmt.Errorf("%w: entries %d and %d share id %s", ErrInvalidFAQ, prev, i, faq.ID)
		}
		seen[faq.ID] = i
	}

	return faqs, nil
}
