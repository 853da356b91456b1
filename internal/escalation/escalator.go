package escalation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Yates-Labs/concierge/internal/answer"
)

var (
	ErrEscalationFailed = errors.New("escalation failed")
)

// Escalator asks the completion model for an answer when retrieval was not confident.
type Escalator struct {
	llm         LLM
	instruction string
	fallback    string
}

// NewEscalator builds the system instruction once and binds it to llm.
func NewEscalator(llm LLM, prompt PromptConfig) (*Escalator, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: LLM is required", ErrEscalationFailed)
	}
	instruction, err := BuildSystemInstruction(prompt)
	if err != nil {
		return nil, err
	}
	return &Escalator{
		llm:         llm,
		instruction: instruction,
		fallback:    prompt.FallbackPhrase,
	}, nil
}

// Instruction returns the system instruction sent with every escalation.
func (e *Escalator) Instruction() string {
	return e.instruction
}

// Escalate invokes the model once and tags its reply. Missing text becomes the
// fallback phrase. Provider failures are returned unretried.
func (e *Escalator) Escalate(ctx context.Context, q answer.Question) (answer.Outcome, error) {
	reply, err := e.llm.Complete(ctx, e.instruction, q.String())
	if err != nil {
		return answer.Outcome{}, fmt.Errorf("%w: %w", ErrEscalationFailed, err)
	}

	text := reply.OrElse(e.fallback)
	if MatchesFallback(text, e.fallback) {
		return answer.Fallback(e.fallback), nil
	}
	return answer.Generated(text), nil
}

// MatchesFallback reports whether text is the fallback phrase, ignoring case,
// whitespace runs and punctuation or quotes around it.
func MatchesFallback(text, phrase string) bool {
	if text == phrase {
		return true
	}
	norm := normalizePhrase(phrase)
	return norm != "" && normalizePhrase(text) == norm
}

func normalizePhrase(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
	})
}
