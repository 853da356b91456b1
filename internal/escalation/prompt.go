package escalation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingSubject  = errors.New("domain subject required for system instruction")
	ErrMissingFallback = errors.New("fallback phrase required for system instruction")
)

// PromptConfig describes the domain the assistant is locked to.
type PromptConfig struct {
	// Subject is what the assistant may talk about, e.g. "the hotel and its services"
	Subject string

	// FallbackPhrase must be emitted verbatim when no on-domain answer is known
	FallbackPhrase string
}

// BuildSystemInstruction assembles the domain-locked system instruction.
func BuildSystemInstruction(cfg PromptConfig) (string, error) {
	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		return "", ErrMissingSubject
	}
	if strings.TrimSpace(cfg.FallbackPhrase) == "" {
		return "", ErrMissingFallback
	}

	var b strings.Builder

	b.WriteString("You are a helpful assistant that answers questions clearly and concisely. ")
	b.WriteString(fmt.Sprintf("You only answer questions about %s.\n\n", subject))

	b.WriteString("# Rules\n\n")
	b.WriteString(fmt.Sprintf("1. Only answer questions about %s. Politely decline anything else.\n", subject))
	b.WriteString("2. Never invent information: no prices, schedules, policies, names or facts you were not given.\n")
	b.WriteString("3. Answer in the same language the user wrote in.\n")
	b.WriteString("4. If the question is outside your domain, or you do not know the answer with certainty, ")
	b.WriteString("reply with exactly the following text and nothing else:\n\n")
	b.WriteString(cfg.FallbackPhrase)
	b.WriteString("\n")

	return b.String(), nil
}
