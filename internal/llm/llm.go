package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvalidJSON reports that the model returned output that is not usable
// as JSON. Callers that can degrade (classification) must treat this as a
// soft failure; it never blocks a conversation turn.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// Client is the opaque language-model capability. Given an instruction
// prompt and an input value, it returns a JSON object. Implementations must
// be safe for concurrent use across sessions.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}
