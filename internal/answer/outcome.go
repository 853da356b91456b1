package answer

// Kind tags how a question was resolved.
type Kind int

const (
	// KnowledgeBaseHit means the top retrieval candidate cleared the confidence gate.
	KnowledgeBaseHit Kind = iota + 1
	// ModelGenerated means the completion model produced an on-domain answer.
	ModelGenerated
	// ModelFallback means the completion model could not answer and the fallback
	// phrase is returned instead.
	ModelFallback
)

func (k Kind) String() string {
	switch k {
	case KnowledgeBaseHit:
		return "knowledge_base_hit"
	case ModelGenerated:
		return "model_generated"
	case ModelFallback:
		return "model_fallback"
	default:
		return "none"
	}
}

// Outcome is the result of resolving one question.
type Outcome struct {
	Kind Kind
	Text string
}

func Hit(answer string) Outcome {
	return Outcome{Kind: KnowledgeBaseHit, Text: answer}
}

func Generated(text string) Outcome {
	return Outcome{Kind: ModelGenerated, Text: text}
}

// Fallback returns the ModelFallback outcome carrying the fixed fallback phrase.
func Fallback(phrase string) Outcome {
	return Outcome{Kind: ModelFallback, Text: phrase}
}

// Unanswered reports whether the question should be recorded as not answered.
func (o Outcome) Unanswered() bool {
	return o.Kind == ModelFallback
}
