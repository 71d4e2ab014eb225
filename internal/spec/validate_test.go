package spec

import (
	"strings"
	"testing"
	"time"
)

func validSpec(t *testing.T) *AppSpecification {
	t.Helper()
	s := &AppSpecification{
		Name: "Support Desk",
		DataModels: []DataModel{
			{Name: "Ticket", Fields: []Field{
				{Name: "subject", Type: FieldString, Required: true},
				{Name: "assignee", Type: FieldReference, Target: "Agent"},
			}},
			{Name: "Agent", Fields: []Field{
				{Name: "name", Type: FieldString},
			}, Relations: []Relation{
				{Name: "tickets", Target: "Ticket", Kind: "one_to_many"},
			}},
		},
		Screens: []Screen{
			{Name: "Tickets", Kind: ScreenList, DataSource: "Ticket"},
			{Name: "Agents", Kind: ScreenList, DataSource: "Agent"},
		},
	}
	Normalize(s, nil, time.Now())
	return s
}

func TestValidate_AcceptsWellFormedSpec(t *testing.T) {
	res := Validate(validSpec(t))
	if !res.Valid() {
		t.Fatalf("expected valid spec, got violations:\n%s", res.Render())
	}
}

func TestValidate_UnresolvedRelationTarget(t *testing.T) {
	s := validSpec(t)
	s.DataModels[1].Relations[0].Target = "Ghost"
	res := Validate(s)
	if res.Valid() {
		t.Fatalf("expected violation for unresolved relation target")
	}
	if v := res.Violations[0]; v.EntityID != s.DataModels[1].ID {
		t.Fatalf("violation names wrong entity: %+v", v)
	}
}

func TestValidate_ReferenceFieldNeedsTarget(t *testing.T) {
	s := validSpec(t)
	s.DataModels[0].Fields[1].Target = ""
	res := Validate(s)
	if res.Valid() {
		t.Fatalf("expected violation for reference field without target")
	}
	if !strings.Contains(res.Render(), "requires a target model") {
		t.Fatalf("unexpected violation text: %s", res.Render())
	}
}

func TestValidate_DuplicateScreenPaths(t *testing.T) {
	s := validSpec(t)
	s.Screens[1].Path = s.Screens[0].Path
	res := Validate(s)
	if res.Valid() {
		t.Fatalf("expected violation for duplicate screen path")
	}
}

func TestValidate_DuplicateFieldNames(t *testing.T) {
	s := validSpec(t)
	s.DataModels[0].Fields = append(s.DataModels[0].Fields, Field{Name: "Subject", Type: FieldString})
	res := Validate(s)
	if res.Valid() {
		t.Fatalf("expected violation for duplicated field name (case-insensitive)")
	}
}

func TestValidate_ExternalDataSourceSkipsModelCheck(t *testing.T) {
	s := validSpec(t)
	s.Screens = append(s.Screens, Screen{
		ID: "screen-ext", Name: "Status Page", Path: "/status",
		Kind: ScreenCustom, DataSource: "statuspage.io", External: true,
	})
	res := Validate(s)
	if !res.Valid() {
		t.Fatalf("external data source must not require a model: %s", res.Render())
	}
}

func TestValidate_WorkflowStepSuccessors(t *testing.T) {
	s := validSpec(t)
	s.Workflows = []Workflow{{
		ID: "workflow-1", Name: "Escalate", Target: "Ticket", Enabled: true,
		Trigger: Trigger{Kind: TriggerEvent, Event: "ticket.created"},
		Steps: []WorkflowStep{
			{ID: "step-1", Name: "check", Action: "condition", NextIfTrue: "step-2", NextIfFalse: "step-missing"},
			{ID: "step-2", Name: "notify", Action: "send_email"},
		},
	}}
	res := Validate(s)
	if res.Valid() {
		t.Fatalf("expected violation for unresolved step successor")
	}
	if v := res.Violations[0]; v.EntityID != "step-1" {
		t.Fatalf("violation names wrong entity: %+v", v)
	}
}
