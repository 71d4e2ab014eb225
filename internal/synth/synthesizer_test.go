package synth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"appforge/internal/intent"
	"appforge/internal/llm"
	"appforge/internal/spec"
)

// stageLLM returns a scripted payload per extraction stage.
type stageLLM struct {
	byStage map[string]json.RawMessage
	err     error
}

func (s *stageLLM) Name() string { return "staged" }
func (s *stageLLM) Close() error { return nil }
func (s *stageLLM) GenerateJSON(ctx context.Context, _ string, _ any) (json.RawMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	raw, ok := s.byStage[llm.StageFrom(ctx)]
	if !ok {
		return json.RawMessage(`{}`), nil
	}
	return raw, nil
}

func fixedNow() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestSynthesize_CreateApp(t *testing.T) {
	s := New(&stageLLM{byStage: map[string]json.RawMessage{
		llm.StageAppExtract: json.RawMessage(`{
			"name": "CRM",
			"data_models": [
				{"name": "Client", "fields": [{"name": "name", "type": "string", "required": true}]},
				{"name": "Deal", "fields": [{"name": "amount", "type": "number"}]}
			],
			"screens": [{"name": "Clients", "kind": "list", "data_source": "Client"}]
		}`),
	}})
	s.Now = fixedNow

	d, err := s.Synthesize(context.Background(), intent.Intent{Type: intent.CreateApp}, "Create a CRM with Client and Deal models", nil)
	if err != nil {
		t.Fatalf("synthesize error: %v", err)
	}
	if d.Spec == nil {
		t.Fatalf("expected spec delta")
	}
	if len(d.Spec.DataModels) != 2 || d.Spec.DataModels[0].Name != "Client" || d.Spec.DataModels[1].Name != "Deal" {
		t.Fatalf("unexpected models: %+v", d.Spec.DataModels)
	}
	if d.Spec.ID == "" || d.Spec.Version != spec.InitialVersion {
		t.Fatalf("spec not normalized: id=%q version=%q", d.Spec.ID, d.Spec.Version)
	}
	for _, m := range d.Spec.DataModels {
		if m.ID == "" {
			t.Fatalf("model %q missing id", m.Name)
		}
	}
}

func TestSynthesize_ModifyWithoutSpec(t *testing.T) {
	s := New(&stageLLM{})
	for _, typ := range []intent.Type{intent.ModifyApp, intent.AddFeature, intent.CreateMLUseCase} {
		_, err := s.Synthesize(context.Background(), intent.Intent{Type: typ}, "add a field", nil)
		if !errors.Is(err, ErrNoActiveSpecification) {
			t.Fatalf("intent %s: err = %v, want ErrNoActiveSpecification", typ, err)
		}
	}
}

func TestSynthesize_ModifyAdoptsExistingIDs(t *testing.T) {
	current := &spec.AppSpecification{
		Name:       "CRM",
		DataModels: []spec.DataModel{{Name: "Client", Fields: []spec.Field{{Name: "name", Type: spec.FieldString}}}},
	}
	spec.Normalize(current, nil, fixedNow())

	s := New(&stageLLM{byStage: map[string]json.RawMessage{
		llm.StageAppDelta: json.RawMessage(`{
			"data_models": [{"name": "Client", "fields": [
				{"name": "name", "type": "string"},
				{"name": "Status", "type": "string"}
			]}]
		}`),
	}})
	s.Now = fixedNow

	d, err := s.Synthesize(context.Background(), intent.Intent{Type: intent.AddFeature}, "Add a Status field to Client", current)
	if err != nil {
		t.Fatalf("synthesize error: %v", err)
	}
	if d.Spec.DataModels[0].ID != current.DataModels[0].ID {
		t.Fatalf("delta model did not adopt existing id: %q vs %q", d.Spec.DataModels[0].ID, current.DataModels[0].ID)
	}
}

func TestSynthesize_ExtractionFailure(t *testing.T) {
	s := New(&stageLLM{err: errors.New("model down")})
	_, err := s.Synthesize(context.Background(), intent.Intent{Type: intent.CreateApp}, "Create an app", nil)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestSynthesize_ResponseOnlyIntents(t *testing.T) {
	s := New(&stageLLM{})
	for _, typ := range []intent.Type{intent.Question, intent.Other, intent.ViewInsights, intent.DeployModel} {
		d, err := s.Synthesize(context.Background(), intent.Intent{Type: typ}, "hm", nil)
		if err != nil {
			t.Fatalf("intent %s: unexpected error %v", typ, err)
		}
		if d.Spec != nil || d.UseCase != nil {
			t.Fatalf("intent %s: expected response-only delta, got %+v", typ, d)
		}
	}
}

func TestBuildUseCase_ChurnTemplateDefaults(t *testing.T) {
	uc := BuildUseCase(UseCaseRequest{Category: "churn_prediction"}, "app-1", fixedNow())

	want := Template(spec.CategoryChurn)
	if uc.Category != spec.CategoryChurn {
		t.Fatalf("category = %s", uc.Category)
	}
	if uc.Config.TargetVariable != want.TargetVariable {
		t.Fatalf("target = %q, want %q", uc.Config.TargetVariable, want.TargetVariable)
	}
	if len(uc.Config.Features) != len(want.Features) {
		t.Fatalf("features = %v, want %v", uc.Config.Features, want.Features)
	}
	if uc.Config.ModelFamily != want.ModelFamily {
		t.Fatalf("family = %q, want %q", uc.Config.ModelFamily, want.ModelFamily)
	}
	if uc.Config.Training.TrainTestSplit != 0.8 {
		t.Fatalf("split = %v, want 0.8", uc.Config.Training.TrainTestSplit)
	}
	if uc.AppID != "app-1" || uc.Status != spec.StatusConfiguring || uc.ID == "" {
		t.Fatalf("use case not normalized: %+v", uc)
	}
}

func TestBuildUseCase_ExplicitOverrides(t *testing.T) {
	uc := BuildUseCase(UseCaseRequest{
		Category:       "churn",
		TargetVariable: "cancelled",
		Features:       []string{"plan", "seats"},
		ModelFamily:    "random_forest",
	}, "app-1", fixedNow())
	if uc.Config.TargetVariable != "cancelled" || uc.Config.ModelFamily != "random_forest" {
		t.Fatalf("overrides not applied: %+v", uc.Config)
	}
	if len(uc.Config.Features) != 2 {
		t.Fatalf("features = %v", uc.Config.Features)
	}
}
