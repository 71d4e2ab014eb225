package spec

import "time"

// FieldType enumerates the storable field types a DataModel may declare.
type FieldType string

const (
	FieldString    FieldType = "string"
	FieldNumber    FieldType = "number"
	FieldBoolean   FieldType = "boolean"
	FieldDate      FieldType = "date"
	FieldDatetime  FieldType = "datetime"
	FieldEmail     FieldType = "email"
	FieldURL       FieldType = "url"
	FieldJSON      FieldType = "json"
	FieldArray     FieldType = "array"
	FieldReference FieldType = "reference"
)

// KnownFieldType reports whether t is one of the enumerated field types.
func KnownFieldType(t FieldType) bool {
	switch t {
	case FieldString, FieldNumber, FieldBoolean, FieldDate, FieldDatetime,
		FieldEmail, FieldURL, FieldJSON, FieldArray, FieldReference:
		return true
	}
	return false
}

// Field is one column/attribute of a DataModel.
// Target is required when Type is "reference" and names the referenced model.
type Field struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	Required   bool      `json:"required,omitempty"`
	Unique     bool      `json:"unique,omitempty"`
	Default    any       `json:"default,omitempty"`
	Validation []string  `json:"validation,omitempty"`
	Target     string    `json:"target,omitempty"`
}

// Relation links a DataModel to another model by name. The target must
// resolve within the same specification; unresolved targets are flagged by
// the validator, never dropped.
type Relation struct {
	Name   string `json:"name"`
	Target string `json:"target"`
	Kind   string `json:"kind,omitempty"` // one_to_one | one_to_many | many_to_many
}

// Index declares a storage index over one or more fields.
type Index struct {
	Name   string   `json:"name,omitempty"`
	Fields []string `json:"fields"`
	Unique bool     `json:"unique,omitempty"`
}

// DataHook attaches a named action to a model lifecycle event.
type DataHook struct {
	Event  string `json:"event"` // before_create | after_create | before_update | ...
	Action string `json:"action"`
}

// DataModel is one persisted entity of the generated application.
// Name is unique within an AppSpecification and drives storage/route naming.
type DataModel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Fields      []Field    `json:"fields"`
	Relations   []Relation `json:"relations,omitempty"`
	Indexes     []Index    `json:"indexes,omitempty"`
	Hooks       []DataHook `json:"hooks,omitempty"`
}

// ScreenKind enumerates the page scaffolds the generator knows how to render.
type ScreenKind string

const (
	ScreenList      ScreenKind = "list"
	ScreenDetail    ScreenKind = "detail"
	ScreenForm      ScreenKind = "form"
	ScreenDashboard ScreenKind = "dashboard"
	ScreenCustom    ScreenKind = "custom"
)

// MLIntegration binds a component to an MLUseCase by id.
type MLIntegration struct {
	UseCaseID   string `json:"use_case_id"`
	DisplayMode string `json:"display_mode,omitempty"` // score | badge | chart
}

// Component is one widget on a Screen.
type Component struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"` // table | form | card | chart | text
	Label      string         `json:"label,omitempty"`
	DataSource string         `json:"data_source,omitempty"`
	ML         *MLIntegration `json:"ml,omitempty"`
}

// Screen is one page of the generated frontend. Path is unique within the
// app. DataSource names a DataModel unless External is set.
type Screen struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	Kind       ScreenKind  `json:"kind"`
	Layout     string      `json:"layout,omitempty"`
	DataSource string      `json:"data_source,omitempty"`
	External   bool        `json:"external,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// TriggerKind enumerates workflow trigger sources.
type TriggerKind string

const (
	TriggerEvent       TriggerKind = "event"
	TriggerSchedule    TriggerKind = "schedule"
	TriggerWebhook     TriggerKind = "webhook"
	TriggerMLThreshold TriggerKind = "ml_threshold"
)

// Trigger describes what starts a workflow.
type Trigger struct {
	Kind      TriggerKind `json:"kind"`
	Event     string      `json:"event,omitempty"`
	Schedule  string      `json:"schedule,omitempty"` // cron form
	UseCaseID string      `json:"use_case_id,omitempty"`
	Threshold float64     `json:"threshold,omitempty"`
}

// WorkflowStep is one node in a workflow. Either Next names a single
// successor, or NextIfTrue/NextIfFalse form a conditional pair. Successor
// ids must resolve within the same workflow's step set.
type WorkflowStep struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Action      string         `json:"action"` // send_email | update_record | call_webhook | ...
	Params      map[string]any `json:"params,omitempty"`
	Next        string         `json:"next,omitempty"`
	NextIfTrue  string         `json:"next_if_true,omitempty"`
	NextIfFalse string         `json:"next_if_false,omitempty"`
}

// Workflow is an automated sequence of steps bound to a trigger.
// Target names the DataModel the workflow acts on unless External is set.
type Workflow struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Trigger  Trigger        `json:"trigger"`
	Steps    []WorkflowStep `json:"steps"`
	Target   string         `json:"target,omitempty"`
	External bool           `json:"external,omitempty"`
	Enabled  bool           `json:"enabled"`
}

// PermissionRule grants a role a set of actions over a resource.
type PermissionRule struct {
	ID       string   `json:"id"`
	Role     string   `json:"role"`
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
}

// Integration declares an external service the generated app talks to.
type Integration struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Kind   string            `json:"kind"` // email | payment | webhook | analytics | ...
	Config map[string]string `json:"config,omitempty"`
}

// AppSpecification is the structured, versioned description of an
// application synthesized from conversation. Ids are opaque and stable:
// once assigned they survive any number of merges.
type AppSpecification struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Version      string           `json:"version"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DataModels   []DataModel      `json:"data_models"`
	Screens      []Screen         `json:"screens"`
	Workflows    []Workflow       `json:"workflows,omitempty"`
	Permissions  []PermissionRule `json:"permissions,omitempty"`
	Integrations []Integration    `json:"integrations,omitempty"`
}

// Model returns the data model with the given name (case-insensitive), if any.
func (s *AppSpecification) Model(name string) (DataModel, bool) {
	if s == nil {
		return DataModel{}, false
	}
	for _, m := range s.DataModels {
		if equalFold(m.Name, name) {
			return m, true
		}
	}
	return DataModel{}, false
}

// Clone returns a deep copy of the specification.
func (s *AppSpecification) Clone() *AppSpecification {
	if s == nil {
		return nil
	}
	out := *s
	out.DataModels = cloneSlice(s.DataModels, cloneModel)
	out.Screens = cloneSlice(s.Screens, cloneScreen)
	out.Workflows = cloneSlice(s.Workflows, cloneWorkflow)
	out.Permissions = cloneSlice(s.Permissions, clonePermission)
	out.Integrations = cloneSlice(s.Integrations, cloneIntegration)
	return &out
}

func cloneSlice[T any](in []T, clone func(T) T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = clone(v)
	}
	return out
}

func cloneModel(m DataModel) DataModel {
	m.Fields = append([]Field(nil), m.Fields...)
	m.Relations = append([]Relation(nil), m.Relations...)
	m.Indexes = append([]Index(nil), m.Indexes...)
	m.Hooks = append([]DataHook(nil), m.Hooks...)
	return m
}

func cloneScreen(s Screen) Screen {
	s.Components = append([]Component(nil), s.Components...)
	for i := range s.Components {
		if ml := s.Components[i].ML; ml != nil {
			cp := *ml
			s.Components[i].ML = &cp
		}
	}
	return s
}

func cloneWorkflow(w Workflow) Workflow {
	w.Steps = append([]WorkflowStep(nil), w.Steps...)
	return w
}

func clonePermission(p PermissionRule) PermissionRule {
	p.Actions = append([]string(nil), p.Actions...)
	return p
}

func cloneIntegration(i Integration) Integration {
	if i.Config != nil {
		cfg := make(map[string]string, len(i.Config))
		for k, v := range i.Config {
			cfg[k] = v
		}
		i.Config = cfg
	}
	return i
}
