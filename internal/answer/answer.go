// Package answer holds the request-scoped domain model of the answer-resolution
// pipeline: the validated question, retrieval candidates, the confidence gate and the
// tagged outcome of resolving one question.
package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Question is a validated end-user question. The zero value is not a valid question;
// use NewQuestion.
type Question struct {
	text string
}

// NewQuestion validates raw user input. Empty, whitespace-only and non-UTF-8 input is
// rejected with ErrInvalidQuestion.
func NewQuestion(raw string) (Question, error) {
	if strings.TrimSpace(raw) == "" {
		return Question{}, fmt.Errorf("%w: message is empty", ErrInvalidQuestion)
	}
	if !utf8.ValidString(raw) {
		return Question{}, fmt.Errorf("%w: message is not valid text", ErrInvalidQuestion)
	}
	return Question{text: raw}, nil
}

// String returns the question exactly as the user sent it.
func (q Question) String() string {
	return q.text
}

// Candidate is one ranked answer returned by a retrieval backend.
type Candidate struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"similarity_score"` // in [0,1]
}

// Top returns the best-ranked candidate, or nil when the backend found nothing.
// Backends return candidates ordered best-first.
func Top(candidates []Candidate) *Candidate {
	if len(candidates) == 0 {
		return nil
	}
	top := candidates[0]
	return &top
}

// ClampScore forces a backend score into [0,1].
func ClampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
