package escalation

import (
	"context"
	"errors"
	"testing"

	"github.com/Yates-Labs/concierge/internal/answer"
)

const testFallback = "Lo siento, no he podido encontrar una respuesta. Por favor, reformula tu pregunta."

func newTestEscalator(t *testing.T, llm LLM) *Escalator {
	t.Helper()
	esc, err := NewEscalator(llm, PromptConfig{Subject: "the hotel", FallbackPhrase: testFallback})
	if err != nil {
		t.Fatalf("failed to create escalator: %v", err)
	}
	return esc
}

func mustQuestion(t *testing.T, raw string) answer.Question {
	t.Helper()
	q, err := answer.NewQuestion(raw)
	if err != nil {
		t.Fatalf("invalid question %q: %v", raw, err)
	}
	return q
}

func TestEscalator_Generated(t *testing.T) {
	mock := NewMockLLM("  Check-in starts at 3 pm.\n")
	esc := newTestEscalator(t, mock)

	outcome, err := esc.Escalate(context.Background(), mustQuestion(t, "When is check-in?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != answer.ModelGenerated {
		t.Fatalf("expected ModelGenerated, got %s", outcome.Kind)
	}
	if outcome.Text != "Check-in starts at 3 pm." {
		t.Errorf("expected trimmed text, got %q", outcome.Text)
	}

	system, user := mock.LastRequest()
	if system != esc.Instruction() {
		t.Error("mock did not receive the system instruction")
	}
	if user != "When is check-in?" {
		t.Errorf("expected user text to be passed verbatim, got %q", user)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", mock.Calls())
	}
}

func TestEscalator_FallbackTagging(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "exact phrase", response: testFallback},
		{name: "no usable text", response: ""},
		{name: "blank text", response: "   \n "},
		{name: "different case", response: "lo siento, no he podido encontrar una respuesta. por favor, reformula tu pregunta."},
		{name: "quoted", response: `"` + testFallback + `"`},
		{name: "missing final period", response: "Lo siento, no he podido encontrar una respuesta. Por favor, reformula tu pregunta"},
		{name: "extra whitespace", response: "Lo siento,  no he podido encontrar una respuesta.\nPor favor, reformula tu pregunta."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			esc := newTestEscalator(t, NewMockLLM(tt.response))

			outcome, err := esc.Escalate(context.Background(), mustQuestion(t, "What is the meaning of life?"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome.Kind != answer.ModelFallback {
				t.Fatalf("expected ModelFallback, got %s (%q)", outcome.Kind, outcome.Text)
			}
			if outcome.Text != testFallback {
				t.Errorf("fallback outcome must carry the canonical phrase, got %q", outcome.Text)
			}
		})
	}
}

func TestEscalator_LongerReplyIsNotFallback(t *testing.T) {
	esc := newTestEscalator(t, NewMockLLM(testFallback+" But you can call the front desk."))

	outcome, err := esc.Escalate(context.Background(), mustQuestion(t, "Is there parking?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != answer.ModelGenerated {
		t.Errorf("expected ModelGenerated, got %s", outcome.Kind)
	}
}

func TestEscalator_ProviderError(t *testing.T) {
	providerErr := errors.New("connection reset")
	mock := NewMockLLMWithError(providerErr)
	esc := newTestEscalator(t, mock)

	_, err := esc.Escalate(context.Background(), mustQuestion(t, "Do you allow pets?"))
	if !errors.Is(err, ErrEscalationFailed) {
		t.Fatalf("expected ErrEscalationFailed, got %v", err)
	}
	if !errors.Is(err, providerErr) {
		t.Error("expected provider error to be wrapped")
	}
	if mock.Calls() != 1 {
		t.Errorf("expected exactly one attempt, got %d", mock.Calls())
	}
}

func TestNewEscalator_Validation(t *testing.T) {
	if _, err := NewEscalator(nil, PromptConfig{Subject: "hotel", FallbackPhrase: "x"}); !errors.Is(err, ErrEscalationFailed) {
		t.Errorf("expected ErrEscalationFailed for nil LLM, got %v", err)
	}
	if _, err := NewEscalator(NewMockLLM("x"), PromptConfig{Subject: "hotel"}); !errors.Is(err, ErrMissingFallback) {
		t.Errorf("expected ErrMissingFallback, got %v", err)
	}
}

func TestMatchesFallback(t *testing.T) {
	tests := []struct {
		text   string
		phrase string
		want   bool
	}{
		{text: "Sorry.", phrase: "Sorry.", want: true},
		{text: "SORRY", phrase: "Sorry.", want: true},
		{text: "¡Sorry!", phrase: "Sorry.", want: true},
		{text: "Sorry, I can help with that.", phrase: "Sorry.", want: false},
		{text: "", phrase: "...", want: false},
		{text: "anything", phrase: "", want: false},
	}

	for _, tt := range tests {
		if got := MatchesFallback(tt.text, tt.phrase); got != tt.want {
			t.Errorf("MatchesFallback(%q, %q) = %v, want %v", tt.text, tt.phrase, got, tt.want)
		}
	}
}
