package answer

import "errors"

// Failure taxonomy of the resolution pipeline. Only ErrInvalidQuestion is reported to
// callers as such; everything else becomes the fallback reply.
var (
	ErrInvalidQuestion  = errors.New("message is required and must be a string")
	ErrMalformedRequest = errors.New("malformed request body")
	ErrEmbedding        = errors.New("question embedding failed")
	ErrRetrieval        = errors.New("knowledge base search failed")
	ErrEscalation       = errors.New("escalation to completion model failed")
	ErrUnknown          = errors.New("unexpected pipeline failure")
)
