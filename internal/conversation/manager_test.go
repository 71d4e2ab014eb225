package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"appforge/internal/llm"
)

// scenarioLLM scripts classification and extraction responses keyed by
// stage, in arrival order per stage.
type scenarioLLM struct {
	byStage map[string][]json.RawMessage
}

func (s *scenarioLLM) Name() string { return "scenario" }
func (s *scenarioLLM) Close() error { return nil }
func (s *scenarioLLM) GenerateJSON(ctx context.Context, _ string, _ any) (json.RawMessage, error) {
	stage := llm.StageFrom(ctx)
	queue := s.byStage[stage]
	if len(queue) == 0 {
		return nil, errors.New("scenario: no scripted response for stage " + stage)
	}
	head := queue[0]
	s.byStage[stage] = queue[1:]
	return head, nil
}

func newTestManager(script *scenarioLLM) *Manager {
	m := NewManager(script)
	m.SetClock(func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) })
	return m
}

func TestSendMessage_CreateThenModify(t *testing.T) {
	script := &scenarioLLM{byStage: map[string][]json.RawMessage{
		llm.StageIntent: {
			json.RawMessage(`{"type":"create_app","confidence":0.9}`),
			json.RawMessage(`{"type":"add_feature","confidence":0.9}`),
		},
		llm.StageAppExtract: {
			json.RawMessage(`{
				"name": "CRM",
				"data_models": [
					{"name": "Client", "fields": [{"name": "name", "type": "string", "required": true}]},
					{"name": "Deal", "fields": [{"name": "amount", "type": "number"}]}
				]
			}`),
		},
	}}
	m := newTestManager(script)
	sid := m.StartSession("user-1")

	reply, err := m.SendMessage(context.Background(), sid, "Create a CRM with Client and Deal models")
	if err != nil {
		t.Fatalf("send error: %v", err)
	}
	if len(reply.Artifacts) != 1 || reply.Artifacts[0].Type != ArtifactSpec {
		t.Fatalf("expected one spec artifact, got %+v", reply.Artifacts)
	}

	cur, err := m.CurrentSpec(sid)
	if err != nil || cur == nil {
		t.Fatalf("current spec missing: %v", err)
	}
	if len(cur.DataModels) != 2 {
		t.Fatalf("expected 2 models, got %d", len(cur.DataModels))
	}
	clientID := cur.DataModels[0].ID
	dealBefore := cur.DataModels[1]

	// Script the delta echoing Client wholesale plus the new Status field.
	script.byStage[llm.StageAppDelta] = []json.RawMessage{
		json.RawMessage(`{
			"data_models": [{"name": "Client", "fields": [
				{"name": "name", "type": "string", "required": true},
				{"name": "Status", "type": "string"}
			]}]
		}`),
	}

	if _, err := m.SendMessage(context.Background(), sid, "Add a Status field to Client"); err != nil {
		t.Fatalf("send error: %v", err)
	}
	cur, _ = m.CurrentSpec(sid)
	if len(cur.DataModels) != 2 {
		t.Fatalf("model count changed: %d", len(cur.DataModels))
	}
	client := cur.DataModels[0]
	if client.ID != clientID {
		t.Fatalf("Client id changed: %q -> %q", clientID, client.ID)
	}
	if len(client.Fields) != 2 || client.Fields[1].Name != "Status" {
		t.Fatalf("Client fields = %+v", client.Fields)
	}
	deal := cur.DataModels[1]
	if deal.ID != dealBefore.ID || len(deal.Fields) != len(dealBefore.Fields) {
		t.Fatalf("Deal model changed by unrelated merge: %+v", deal)
	}
}

func TestSendMessage_ModifyWithoutApp(t *testing.T) {
	script := &scenarioLLM{byStage: map[string][]json.RawMessage{
		llm.StageIntent: {json.RawMessage(`{"type":"modify_app","confidence":0.9}`)},
	}}
	m := newTestManager(script)
	sid := m.StartSession("user-1")

	reply, err := m.SendMessage(context.Background(), sid, "Add a Status field to Client")
	if err != nil {
		t.Fatalf("send error: %v", err)
	}
	if !strings.Contains(reply.Response, "no active application") {
		t.Fatalf("expected guidance, got %q", reply.Response)
	}
	if cur, _ := m.CurrentSpec(sid); cur != nil {
		t.Fatalf("current spec must stay unset, got %+v", cur)
	}
}

func TestSendMessage_InvalidDeltaKeepsPriorSpec(t *testing.T) {
	script := &scenarioLLM{byStage: map[string][]json.RawMessage{
		llm.StageIntent: {
			json.RawMessage(`{"type":"create_app","confidence":0.9}`),
			json.RawMessage(`{"type":"add_feature","confidence":0.9}`),
		},
		llm.StageAppExtract: {
			json.RawMessage(`{"name":"Shop","data_models":[{"name":"Product","fields":[{"name":"sku","type":"string"}]}]}`),
		},
		llm.StageAppDelta: {
			// Relation target that resolves nowhere: must be rejected.
			json.RawMessage(`{"data_models":[{"name":"Order","fields":[{"name":"total","type":"number"}],"relations":[{"name":"buyer","target":"Customer"}]}]}`),
		},
	}}
	m := newTestManager(script)
	sid := m.StartSession("user-1")

	if _, err := m.SendMessage(context.Background(), sid, "Create a shop"); err != nil {
		t.Fatalf("send error: %v", err)
	}
	before, _ := m.CurrentSpec(sid)

	reply, err := m.SendMessage(context.Background(), sid, "Add orders linked to customers")
	if err != nil {
		t.Fatalf("send error: %v", err)
	}
	if !strings.Contains(reply.Response, "didn't validate") {
		t.Fatalf("expected validation guidance, got %q", reply.Response)
	}
	after, _ := m.CurrentSpec(sid)
	if len(after.DataModels) != len(before.DataModels) || after.Version != before.Version {
		t.Fatalf("spec changed despite rejected delta: %+v", after)
	}
}

func TestSendMessage_DegradedClassificationStillReplies(t *testing.T) {
	script := &scenarioLLM{byStage: map[string][]json.RawMessage{
		llm.StageIntent: {json.RawMessage(`this is not json`)},
	}}
	m := newTestManager(script)
	sid := m.StartSession("user-1")

	reply, err := m.SendMessage(context.Background(), sid, "???")
	if err != nil {
		t.Fatalf("send error: %v", err)
	}
	if reply.Response == "" {
		t.Fatalf("expected a textual reply on degraded classification")
	}
}

func TestSessions_NoCrossSessionLeakage(t *testing.T) {
	script := &scenarioLLM{byStage: map[string][]json.RawMessage{
		llm.StageIntent: {
			json.RawMessage(`{"type":"create_app","confidence":0.9}`),
		},
		llm.StageAppExtract: {
			json.RawMessage(`{"name":"A","data_models":[{"name":"Thing","fields":[{"name":"x","type":"string"}]}]}`),
		},
	}}
	m := newTestManager(script)
	a := m.StartSession("user-a")
	b := m.StartSession("user-b")

	if _, err := m.SendMessage(context.Background(), a, "Create app A"); err != nil {
		t.Fatalf("send error: %v", err)
	}

	bCtx, err := m.Context(b)
	if err != nil {
		t.Fatalf("context error: %v", err)
	}
	if bCtx.CurrentSpec != nil {
		t.Fatalf("session B acquired session A's spec")
	}
	if len(bCtx.Messages) != 1 {
		t.Fatalf("session B history mutated: %d messages", len(bCtx.Messages))
	}
	for _, msg := range bCtx.Messages {
		if strings.Contains(msg.Text, "Create app A") {
			t.Fatalf("session A message leaked into session B")
		}
	}
}

func TestManager_UnknownSession(t *testing.T) {
	m := newTestManager(&scenarioLLM{byStage: map[string][]json.RawMessage{}})
	if _, err := m.SendMessage(context.Background(), "session-nope", "hi"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := m.Context("session-nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if m.CloseSession("session-nope") {
		t.Fatalf("closing unknown session reported success")
	}
}

func TestSubscribe_ReceivesReplyEvents(t *testing.T) {
	script := &scenarioLLM{byStage: map[string][]json.RawMessage{
		llm.StageIntent: {json.RawMessage(`{"type":"question","confidence":0.9}`)},
	}}
	m := newTestManager(script)
	sid := m.StartSession("user-1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := m.Subscribe(ctx, sid)
	if err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	reply, err := m.SendMessage(context.Background(), sid, "What can you do?")
	if err != nil {
		t.Fatalf("send error: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Response != reply.Response || ev.SessionID != sid {
			t.Fatalf("event mismatch: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event received")
	}

	m.CloseSession(sid)
	select {
	case _, open := <-ch:
		if open {
			t.Fatalf("expected channel close after session disposal")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after session disposal")
	}
}

func TestRecentTurns_BoundedAndExcludesLatest(t *testing.T) {
	msgs := make([]Message, 0, 10)
	for i := 0; i < 9; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		msgs = append(msgs, Message{Role: role, Text: "turn " + strings.Repeat("x", i)})
	}
	msgs = append(msgs, Message{Role: RoleUser, Text: "latest"})

	turns := recentTurns(msgs)
	if len(turns) != 6 {
		t.Fatalf("len(turns) = %d, want 6", len(turns))
	}
	for _, turn := range turns {
		if turn.Text == "latest" {
			t.Fatalf("history includes the just-appended message")
		}
	}
	if turns[len(turns)-1].Text != msgs[len(msgs)-2].Text {
		t.Fatalf("history does not end at the message before the latest")
	}

	if got := recentTurns(msgs[:3]); len(got) != 2 {
		t.Fatalf("short history len = %d, want 2", len(got))
	}
}

func TestStartSession_SeedsWelcome(t *testing.T) {
	m := newTestManager(&scenarioLLM{byStage: map[string][]json.RawMessage{}})
	sid := m.StartSession("user-1")
	c, err := m.Context(sid)
	if err != nil {
		t.Fatalf("context error: %v", err)
	}
	if len(c.Messages) != 1 || c.Messages[0].Role != RoleAssistant {
		t.Fatalf("welcome message missing: %+v", c.Messages)
	}
}
