package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"appforge/internal/intent"
	"appforge/internal/llm"
	"appforge/internal/prompt"
	"appforge/internal/spec"
)

// ErrNoActiveSpecification reports a modify/feature/ML request arriving
// before any app has been created in the session. Callers surface it as
// guidance text; the conversation continues.
var ErrNoActiveSpecification = errors.New("synth: no active specification")

// ErrExtractionFailed reports that the language model could not produce a
// usable fragment for an intent that requires one.
var ErrExtractionFailed = errors.New("synth: extraction failed")

// Delta is the candidate artifact produced by one conversation turn. At
// most one of Spec/UseCase is set; both nil means the turn is
// response-only.
type Delta struct {
	Spec    *spec.AppSpecification
	UseCase *spec.MLUseCase
	Summary string
}

// Synthesizer turns (intent, utterance, current spec) into a Delta. The
// extraction sub-step delegates to the language model; id generation,
// defaulting, and merge preparation are deterministic and run here.
type Synthesizer struct {
	LLM llm.Client
	Now func() time.Time
}

func New(client llm.Client) *Synthesizer {
	return &Synthesizer{LLM: client, Now: time.Now}
}

func (s *Synthesizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Synthesize produces the delta for one classified utterance.
func (s *Synthesizer) Synthesize(ctx context.Context, it intent.Intent, utterance string, current *spec.AppSpecification) (*Delta, error) {
	if s == nil || s.LLM == nil {
		return nil, fmt.Errorf("synth: missing LLM client")
	}
	switch it.Type {
	case intent.CreateApp:
		return s.createApp(ctx, utterance)
	case intent.ModifyApp, intent.AddFeature, intent.ConfigureIntegration:
		if current == nil {
			return nil, ErrNoActiveSpecification
		}
		return s.modifyApp(ctx, utterance, current)
	case intent.CreateMLUseCase:
		if current == nil || current.ID == "" {
			return nil, ErrNoActiveSpecification
		}
		return s.createUseCase(ctx, utterance, current)
	default:
		// question / other / deploy_model / view_insights: response-only.
		return &Delta{}, nil
	}
}

var createAppPrompt = prompt.Spec{
	Purpose:    "Extract a complete application specification from the user's description.",
	Background: "The specification drives code generation: data models become storage schemas and CRUD routes, screens become frontend pages.",
	OutputFields: []prompt.Field{
		{Name: "name", Type: "string", Required: true, Description: "short application name"},
		{Name: "description", Type: "string", Required: false},
		{Name: "data_models", Type: "array", Required: true, Description: "objects with name, fields[{name,type,required,unique,target}], relations[{name,target,kind}]"},
		{Name: "screens", Type: "array", Required: false, Description: "objects with name, kind(list|detail|form|dashboard|custom), data_source"},
		{Name: "workflows", Type: "array", Required: false, Description: "objects with name, trigger{kind,event}, target, steps[{name,action,params}]"},
	},
	Constraints: []string{
		"Field types are limited to: string, number, boolean, date, datetime, email, url, json, array, reference.",
		"Every screen's data_source must name one of the extracted data models.",
		"Do not invent ids; they are assigned downstream.",
	},
	Rules: []string{
		"When the user names entities explicitly, extract exactly those; do not add speculative ones.",
		"Give every data model at least one field.",
	},
	OutputFormat: "JSON object only, no prose.",
}

func (s *Synthesizer) createApp(ctx context.Context, utterance string) (*Delta, error) {
	p, err := createAppPrompt.Render()
	if err != nil {
		return nil, err
	}
	raw, err := s.LLM.GenerateJSON(llm.WithStage(ctx, llm.StageAppExtract), p, map[string]string{"description": utterance})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	var out spec.AppSpecification
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(out.Name) == "" {
		out.Name = "Untitled App"
	}
	spec.Normalize(&out, nil, s.now())
	return &Delta{
		Spec:    &out,
		Summary: fmt.Sprintf("Created specification for %q with %d data model(s) and %d screen(s).", out.Name, len(out.DataModels), len(out.Screens)),
	}, nil
}

var modifyAppPrompt = prompt.Spec{
	Purpose:    "Produce a specification delta implementing the requested change against the current application specification.",
	Background: "Merging replaces top-level entities wholesale by id and appends unknown ones. Entities not mentioned in the delta are preserved.",
	OutputFields: []prompt.Field{
		{Name: "data_models", Type: "array", Required: false, Description: "full replacement entities; echo unchanged fields of any model you touch"},
		{Name: "screens", Type: "array", Required: false},
		{Name: "workflows", Type: "array", Required: false},
		{Name: "permissions", Type: "array", Required: false},
		{Name: "integrations", Type: "array", Required: false},
	},
	Constraints: []string{
		"Echo the id of every entity taken from the current specification.",
		"When changing part of an entity, echo all of its unchanged children too: the merge replaces the entity wholesale.",
		"Include only the collections the change touches.",
	},
	Rules: []string{
		"Never rename an existing entity unless the user asked for it.",
	},
	OutputFormat: "JSON object only, no prose.",
}

type modifyInput struct {
	Request     string                 `json:"request"`
	CurrentSpec *spec.AppSpecification `json:"current_spec"`
}

func (s *Synthesizer) modifyApp(ctx context.Context, utterance string, current *spec.AppSpecification) (*Delta, error) {
	p, err := modifyAppPrompt.Render()
	if err != nil {
		return nil, err
	}
	raw, err := s.LLM.GenerateJSON(llm.WithStage(ctx, llm.StageAppDelta), p, modifyInput{
		Request:     utterance,
		CurrentSpec: current,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	var out spec.AppSpecification
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	spec.Normalize(&out, current, s.now())
	return &Delta{
		Spec:    &out,
		Summary: fmt.Sprintf("Updated %q: %s", current.Name, deltaSummary(&out)),
	}, nil
}

var useCasePrompt = prompt.Spec{
	Purpose:    "Extract an ML use case request from the user's message.",
	Background: "Missing configuration fields are defaulted from a per-category template downstream.",
	OutputFields: []prompt.Field{
		{Name: "category", Type: "string", Required: true, Description: "e.g. churn, lead-scoring, conversion, anomaly, recommendation, ltv, risk, custom"},
		{Name: "name", Type: "string", Required: false},
		{Name: "target_variable", Type: "string", Required: false, Description: "only when the user names it"},
		{Name: "features", Type: "[]string", Required: false, Description: "only features the user names"},
		{Name: "model_family", Type: "string", Required: false},
	},
	Constraints: []string{
		"Extract only what the user said; leave the rest empty.",
	},
	OutputFormat: "JSON object only, no prose.",
}

// UseCaseRequest is the partial use-case description pulled from an
// utterance (or supplied directly by the transport layer).
type UseCaseRequest struct {
	Category       string   `json:"category"`
	Name           string   `json:"name"`
	TargetVariable string   `json:"target_variable"`
	Features       []string `json:"features"`
	ModelFamily    string   `json:"model_family"`
}

func (s *Synthesizer) createUseCase(ctx context.Context, utterance string, current *spec.AppSpecification) (*Delta, error) {
	p, err := useCasePrompt.Render()
	if err != nil {
		return nil, err
	}
	raw, err := s.LLM.GenerateJSON(llm.WithStage(ctx, llm.StageMLExtract), p, map[string]string{"request": utterance})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	var ex UseCaseRequest
	if err := json.Unmarshal(raw, &ex); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	uc := BuildUseCase(ex, current.ID, s.now())
	return &Delta{
		UseCase: &uc,
		Summary: fmt.Sprintf("Configured %s use case targeting %q with %d feature(s).", uc.Category, uc.Config.TargetVariable, len(uc.Config.Features)),
	}, nil
}

// BuildUseCase applies category template defaults under explicit overrides
// and normalizes the result. Deterministic: no model call happens here.
func BuildUseCase(ex UseCaseRequest, appID string, now time.Time) spec.MLUseCase {
	cat := ResolveCategory(ex.Category)
	cfg := Template(cat)
	if strings.TrimSpace(ex.TargetVariable) != "" {
		cfg.TargetVariable = strings.TrimSpace(ex.TargetVariable)
	}
	if len(ex.Features) > 0 {
		cfg.Features = append([]string(nil), ex.Features...)
	}
	if strings.TrimSpace(ex.ModelFamily) != "" {
		cfg.ModelFamily = strings.TrimSpace(ex.ModelFamily)
	}
	uc := spec.MLUseCase{
		Name:     strings.TrimSpace(ex.Name),
		Category: cat,
		Config:   cfg,
	}
	spec.NormalizeUseCase(&uc, appID, now)
	return uc
}

func deltaSummary(d *spec.AppSpecification) string {
	parts := []string{}
	if n := len(d.DataModels); n > 0 {
		parts = append(parts, fmt.Sprintf("%d data model(s)", n))
	}
	if n := len(d.Screens); n > 0 {
		parts = append(parts, fmt.Sprintf("%d screen(s)", n))
	}
	if n := len(d.Workflows); n > 0 {
		parts = append(parts, fmt.Sprintf("%d workflow(s)", n))
	}
	if n := len(d.Permissions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d permission rule(s)", n))
	}
	if n := len(d.Integrations); n > 0 {
		parts = append(parts, fmt.Sprintf("%d integration(s)", n))
	}
	if len(parts) == 0 {
		return "no entities touched"
	}
	return strings.Join(parts, ", ") + " touched"
}
