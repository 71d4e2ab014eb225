package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"appforge/internal/intent"
	"appforge/internal/llm"
	"appforge/internal/spec"
	"appforge/internal/synth"
)

// ErrNotFound reports an unknown (or already closed) session id.
var ErrNotFound = errors.New("conversation: session not found")

const welcomeText = "Hi! Describe the application you want to build — for example " +
	"\"Create a CRM with Client and Deal models\" — and I'll turn it into a " +
	"specification you can refine and generate."

// Reply is the outcome of one processed message.
type Reply struct {
	Response  string     `json:"response"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Event mirrors a Reply onto session subscribers (websocket stream).
type Event struct {
	SessionID string     `json:"session_id"`
	Response  string     `json:"response"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// session pairs the conversation context with its exclusion scope. The
// per-entry mutex is the at-most-one-in-flight-message guarantee: a second
// message for the same session queues on the lock and is processed strictly
// after the first, never interleaved.
type session struct {
	mu  sync.Mutex
	ctx Context

	subMu sync.Mutex
	subs  map[chan Event]struct{}
}

// Manager owns every session and routes each incoming message through
// classify -> synthesize -> validate -> accept. Every failure inside the
// pipeline is converted to guidance text at this boundary; a bad turn never
// terminates a session.
type Manager struct {
	classifier *intent.Classifier
	synthes    *synth.Synthesizer
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewManager(client llm.Client) *Manager {
	return &Manager{
		classifier: intent.NewClassifier(client),
		synthes:    synth.New(client),
		now:        time.Now,
		sessions:   make(map[string]*session),
	}
}

// SetClock overrides the manager's clock (tests).
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
	m.synthes.Now = now
}

// StartSession creates an Active session seeded with the welcome message
// and returns its id.
func (m *Manager) StartSession(userID string) string {
	id := newSessionID()
	s := &session{
		ctx: Context{
			SessionID: id,
			UserID:    userID,
			Messages: []Message{{
				Role:      RoleAssistant,
				Text:      welcomeText,
				Timestamp: m.now(),
			}},
		},
		subs: make(map[chan Event]struct{}),
	}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	log.Printf("conversation: session %s started for user %s", id, userID)
	return id
}

// CloseSession disposes the session. Subscribers are detached and further
// lookups report ErrNotFound.
func (m *Manager) CloseSession(sessionID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.subMu.Lock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.subMu.Unlock()
	return true
}

// Context returns a copy of the session's conversation context.
func (m *Manager) Context(sessionID string) (Context, error) {
	s, ok := m.lookup(sessionID)
	if !ok {
		return Context{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.snapshot(), nil
}

// CurrentSpec returns a copy of the session's accepted specification, or
// nil if none has been accepted yet.
func (m *Manager) CurrentSpec(sessionID string) (*spec.AppSpecification, error) {
	s, ok := m.lookup(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx.CurrentSpec.Clone(), nil
}

// SendMessage processes one message for the session. Messages for the same
// session are strictly serialized; distinct sessions proceed independently.
func (m *Manager) SendMessage(ctx context.Context, sessionID, text string) (Reply, error) {
	s, ok := m.lookup(sessionID)
	if !ok {
		return Reply{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := m.now()
	s.ctx.Messages = append(s.ctx.Messages, Message{Role: RoleUser, Text: text, Timestamp: now})

	it := m.classifier.Classify(ctx, text, recentTurns(s.ctx.Messages))
	reply := m.applyIntent(ctx, s, it, text)

	s.ctx.Messages = append(s.ctx.Messages, Message{
		Role:      RoleAssistant,
		Text:      reply.Response,
		Timestamp: m.now(),
		Artifacts: reply.Artifacts,
	})
	s.publish(Event{SessionID: sessionID, Response: reply.Response, Artifacts: reply.Artifacts})
	return reply, nil
}

// applyIntent runs synthesize -> validate -> accept under the session lock
// and returns the user-facing reply. The session state is only touched on
// a validated, accepted delta.
func (m *Manager) applyIntent(ctx context.Context, s *session, it intent.Intent, text string) Reply {
	delta, err := m.synthes.Synthesize(ctx, it, text, s.ctx.CurrentSpec)
	switch {
	case errors.Is(err, synth.ErrNoActiveSpecification):
		return Reply{Response: "There's no active application in this session yet. " +
			"Start by describing the app you want, e.g. \"Create a CRM with Client and Deal models\"."}
	case errors.Is(err, synth.ErrExtractionFailed):
		log.Printf("conversation: extraction failed for session %s: %v", s.ctx.SessionID, err)
		return Reply{Response: "I couldn't turn that into a specification change. " +
			"Could you rephrase, naming the models, fields, or screens you want?"}
	case err != nil:
		log.Printf("conversation: synthesize error for session %s: %v", s.ctx.SessionID, err)
		return Reply{Response: "Something went wrong while processing that. The current specification is unchanged."}
	}

	var artifacts []Artifact

	if delta.Spec != nil {
		candidate := delta.Spec
		if it.Type != intent.CreateApp && s.ctx.CurrentSpec != nil {
			candidate = spec.Merge(s.ctx.CurrentSpec, delta.Spec, m.now())
		}
		if vr := spec.Validate(candidate); !vr.Valid() {
			return Reply{Response: "That change didn't validate, so I kept the previous specification:\n" + vr.Render()}
		}
		s.ctx.CurrentSpec = candidate
		artifacts = append(artifacts, Artifact{Type: ArtifactSpec, Content: candidate})
	}

	if delta.UseCase != nil {
		s.ctx.CurrentUseCase = delta.UseCase
		artifacts = append(artifacts, Artifact{Type: ArtifactModel, Content: delta.UseCase})
	}

	response := delta.Summary
	if response == "" {
		response = responseFor(it, s.ctx.CurrentSpec)
	}
	return Reply{Response: response, Artifacts: artifacts}
}

// Subscribe attaches a listener for the session's reply events. The channel
// is closed when ctx is done or the session is closed.
func (m *Manager) Subscribe(ctx context.Context, sessionID string) (<-chan Event, error) {
	s, ok := m.lookup(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	ch := make(chan Event, 16)
	s.subMu.Lock()
	if s.subs == nil {
		s.subMu.Unlock()
		return nil, ErrNotFound
	}
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		if s.subs != nil {
			if _, still := s.subs[ch]; still {
				delete(s.subs, ch)
				close(ch)
			}
		}
		s.subMu.Unlock()
	}()
	return ch, nil
}

func (s *session) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// slow subscriber; drop rather than stall the turn
		}
	}
}

func (m *Manager) lookup(sessionID string) (*session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

func recentTurns(msgs []Message) []intent.Turn {
	const max = 6
	// The slice below stops before the just-appended user message, so this
	// start keeps exactly max prior messages.
	start := len(msgs) - 1 - max
	if start < 0 {
		start = 0
	}
	out := make([]intent.Turn, 0, max)
	for _, msg := range msgs[start : len(msgs)-1] {
		out = append(out, intent.Turn{Role: string(msg.Role), Text: msg.Text})
	}
	return out
}

func responseFor(it intent.Intent, current *spec.AppSpecification) string {
	switch it.Type {
	case intent.Question:
		return "I build application specifications from plain descriptions: data models, screens, " +
			"workflows and ML use cases. Ask for a change or for generation when you're ready."
	case intent.ViewInsights:
		if current == nil {
			return "No application yet — create one first, then I can summarize it."
		}
		return fmt.Sprintf("%q is at version %s with %d data model(s), %d screen(s) and %d workflow(s).",
			current.Name, current.Version, len(current.DataModels), len(current.Screens), len(current.Workflows))
	case intent.DeployModel:
		return "Model deployment runs through the ML lifecycle API once a model has been trained."
	default:
		return "Tell me about the app you want to build, or describe a change to the current one."
	}
}
