package conversation

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"appforge/internal/spec"
)

// Role marks who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Artifact is a structured object attached to a conversational response,
// as opposed to its free text.
type Artifact struct {
	Type    string `json:"type"` // spec | model
	Content any    `json:"content"`
}

const (
	ArtifactSpec  = "spec"
	ArtifactModel = "model"
)

// Message is one history entry of a session.
type Message struct {
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Context is the per-session conversation state. It is owned exclusively
// by the Manager for the lifetime of the session; callers only ever see
// copies.
type Context struct {
	SessionID      string                 `json:"session_id"`
	UserID         string                 `json:"user_id"`
	Messages       []Message              `json:"messages"`
	CurrentSpec    *spec.AppSpecification `json:"current_spec,omitempty"`
	CurrentUseCase *spec.MLUseCase        `json:"current_use_case,omitempty"`
}

func (c Context) snapshot() Context {
	out := c
	out.Messages = append([]Message(nil), c.Messages...)
	out.CurrentSpec = c.CurrentSpec.Clone()
	if c.CurrentUseCase != nil {
		uc := *c.CurrentUseCase
		out.CurrentUseCase = &uc
	}
	return out
}

func newSessionID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return "session-" + hex.EncodeToString(b[:])
}
