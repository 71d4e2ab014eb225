package spec

import (
	"fmt"
	"strings"
)

// Violation names one broken invariant on one entity.
type Violation struct {
	EntityID string `json:"entity_id"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	if v.EntityID == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.EntityID, v.Message)
}

// ValidationResult is either valid or a non-empty list of violations.
type ValidationResult struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Valid reports whether the specification passed every structural check.
func (r ValidationResult) Valid() bool { return len(r.Violations) == 0 }

// Render flattens the violations into guidance text, one per line.
func (r ValidationResult) Render() string {
	if r.Valid() {
		return ""
	}
	lines := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		lines = append(lines, "- "+v.String())
	}
	return strings.Join(lines, "\n")
}

// Validate runs structural and referential-integrity checks over a
// specification. It does not judge semantic correctness — a workflow whose
// business logic makes no sense still validates if its references resolve.
func Validate(s *AppSpecification) ValidationResult {
	var out ValidationResult
	add := func(entityID, format string, args ...any) {
		out.Violations = append(out.Violations, Violation{
			EntityID: entityID,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if s == nil {
		add("", "specification is empty")
		return out
	}
	if strings.TrimSpace(s.Name) == "" {
		add(s.ID, "application name is required")
	}

	modelNames := make(map[string]string, len(s.DataModels)) // lower name -> id
	for _, m := range s.DataModels {
		name := strings.ToLower(strings.TrimSpace(m.Name))
		if name == "" {
			add(m.ID, "data model name is required")
			continue
		}
		if prev, dup := modelNames[name]; dup {
			add(m.ID, "data model name %q duplicates %s", m.Name, prev)
			continue
		}
		modelNames[name] = m.ID
	}

	for _, m := range s.DataModels {
		fieldNames := make(map[string]bool, len(m.Fields))
		for _, f := range m.Fields {
			fname := strings.ToLower(strings.TrimSpace(f.Name))
			if fname == "" {
				add(m.ID, "field name is required")
				continue
			}
			if fieldNames[fname] {
				add(m.ID, "field name %q is not unique within model %q", f.Name, m.Name)
				continue
			}
			fieldNames[fname] = true
			if !KnownFieldType(f.Type) {
				add(m.ID, "field %q has unknown type %q", f.Name, f.Type)
			}
			if f.Type == FieldReference {
				if strings.TrimSpace(f.Target) == "" {
					add(m.ID, "reference field %q requires a target model", f.Name)
				} else if _, ok := modelNames[strings.ToLower(strings.TrimSpace(f.Target))]; !ok {
					add(m.ID, "reference field %q targets unknown model %q", f.Name, f.Target)
				}
			}
		}
		for _, r := range m.Relations {
			target := strings.ToLower(strings.TrimSpace(r.Target))
			if target == "" {
				add(m.ID, "relation %q has no target model", r.Name)
				continue
			}
			if _, ok := modelNames[target]; !ok {
				add(m.ID, "relation %q targets unknown model %q", r.Name, r.Target)
			}
		}
		for _, idx := range m.Indexes {
			for _, fn := range idx.Fields {
				if !fieldNamePresent(m, fn) {
					add(m.ID, "index %q covers unknown field %q", idx.Name, fn)
				}
			}
		}
	}

	screenPaths := make(map[string]string, len(s.Screens)) // path -> id
	useCaseRefs := collectUseCaseIDs(s)
	for _, sc := range s.Screens {
		if strings.TrimSpace(sc.Name) == "" {
			add(sc.ID, "screen name is required")
		}
		path := strings.TrimSpace(sc.Path)
		if path == "" {
			add(sc.ID, "screen route path is required")
		} else if prev, dup := screenPaths[path]; dup {
			add(sc.ID, "screen path %q duplicates %s", sc.Path, prev)
		} else {
			screenPaths[path] = sc.ID
		}
		if sc.DataSource != "" && !sc.External {
			if _, ok := modelNames[strings.ToLower(strings.TrimSpace(sc.DataSource))]; !ok {
				add(sc.ID, "screen data source %q does not name a data model (mark it external if intended)", sc.DataSource)
			}
		}
		for _, c := range sc.Components {
			if c.ML != nil && c.ML.UseCaseID != "" && len(useCaseRefs) > 0 {
				if !useCaseRefs[c.ML.UseCaseID] {
					add(sc.ID, "component %s binds unknown ML use case %q", c.ID, c.ML.UseCaseID)
				}
			}
		}
	}

	for _, w := range s.Workflows {
		if w.Target != "" && !w.External {
			if _, ok := modelNames[strings.ToLower(strings.TrimSpace(w.Target))]; !ok {
				add(w.ID, "workflow target %q does not name a data model (mark it external if intended)", w.Target)
			}
		}
		stepIDs := make(map[string]bool, len(w.Steps))
		for _, st := range w.Steps {
			stepIDs[st.ID] = true
		}
		for _, st := range w.Steps {
			if st.Next != "" && (st.NextIfTrue != "" || st.NextIfFalse != "") {
				add(st.ID, "step declares both a single successor and a conditional pair")
			}
			for _, next := range []string{st.Next, st.NextIfTrue, st.NextIfFalse} {
				if next != "" && !stepIDs[next] {
					add(st.ID, "step successor %q does not resolve within workflow %q", next, w.Name)
				}
			}
		}
	}

	return out
}

func fieldNamePresent(m DataModel, name string) bool {
	for _, f := range m.Fields {
		if equalFold(f.Name, name) {
			return true
		}
	}
	return false
}

// collectUseCaseIDs gathers ML use-case ids referenced by ml_threshold
// triggers so component bindings can be cross-checked. The specification
// itself does not embed use cases, so an empty set disables the check.
func collectUseCaseIDs(s *AppSpecification) map[string]bool {
	out := make(map[string]bool)
	for _, w := range s.Workflows {
		if w.Trigger.Kind == TriggerMLThreshold && w.Trigger.UseCaseID != "" {
			out[w.Trigger.UseCaseID] = true
		}
	}
	return out
}
