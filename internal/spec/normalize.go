package spec

import (
	"strings"
	"time"
)

// InitialVersion is the semantic version stamped on a freshly created
// specification.
const InitialVersion = "0.1.0"

// Normalize makes a synthesized specification (or delta) well-formed in
// place: every nested entity gets a stable id, the version and timestamps
// are defaulted, and screen paths/kinds fall back to values derived from
// the entity name.
//
// Extraction is non-deterministic; normalization is not. When prior is
// given, entities whose name matches an entity of the same collection in
// prior adopt the prior id, so re-extraction of an existing entity
// replaces rather than duplicates it on merge.
func Normalize(s *AppSpecification, prior *AppSpecification, now time.Time) {
	if s == nil {
		return
	}
	gen := NewIDGenerator(collectIDs(prior)...)

	if prior != nil {
		s.ID = prior.ID
		s.CreatedAt = prior.CreatedAt
		if s.Version == "" {
			s.Version = prior.Version
		}
	}
	if s.ID == "" {
		s.ID = gen.Generate("app", s.Name)
	}
	if s.Version == "" {
		s.Version = InitialVersion
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	for i := range s.DataModels {
		m := &s.DataModels[i]
		m.Name = strings.TrimSpace(m.Name)
		if m.ID == "" {
			m.ID = adoptModelID(prior, m.Name)
		}
		if m.ID == "" {
			m.ID = gen.GenerateForKey("model:"+strings.ToLower(m.Name), "model", m.Name)
		}
		for j := range m.Fields {
			m.Fields[j].Name = strings.TrimSpace(m.Fields[j].Name)
			if m.Fields[j].Type == "" {
				m.Fields[j].Type = FieldString
			}
		}
	}

	for i := range s.Screens {
		sc := &s.Screens[i]
		sc.Name = strings.TrimSpace(sc.Name)
		if sc.ID == "" {
			sc.ID = adoptScreenID(prior, sc.Name)
		}
		if sc.ID == "" {
			sc.ID = gen.GenerateForKey("screen:"+strings.ToLower(sc.Name), "screen", sc.Name)
		}
		if sc.Path == "" {
			sc.Path = "/" + Slug(sc.Name)
		}
		if sc.Kind == "" {
			sc.Kind = ScreenList
		}
		for j := range sc.Components {
			c := &sc.Components[j]
			if c.ID == "" {
				c.ID = gen.Generate("component", sc.Name+"-"+c.Kind)
			}
		}
	}

	for i := range s.Workflows {
		w := &s.Workflows[i]
		w.Name = strings.TrimSpace(w.Name)
		if w.ID == "" {
			w.ID = adoptWorkflowID(prior, w.Name)
		}
		if w.ID == "" {
			w.ID = gen.GenerateForKey("workflow:"+strings.ToLower(w.Name), "workflow", w.Name)
		}
		if w.Trigger.Kind == "" {
			w.Trigger.Kind = TriggerEvent
		}
		for j := range w.Steps {
			st := &w.Steps[j]
			if st.ID == "" {
				st.ID = gen.Generate("step", w.Name+"-"+st.Name)
			}
		}
	}

	for i := range s.Permissions {
		p := &s.Permissions[i]
		if p.ID == "" {
			p.ID = gen.Generate("perm", p.Role+"-"+p.Resource)
		}
	}

	for i := range s.Integrations {
		in := &s.Integrations[i]
		in.Name = strings.TrimSpace(in.Name)
		if in.ID == "" {
			in.ID = gen.GenerateForKey("integration:"+strings.ToLower(in.Name), "integration", in.Name)
		}
	}
}

// NormalizeUseCase defaults ids, status, and timestamps on a use case.
func NormalizeUseCase(uc *MLUseCase, appID string, now time.Time) {
	if uc == nil {
		return
	}
	if uc.ID == "" {
		name := uc.Name
		if name == "" {
			name = string(uc.Category)
		}
		uc.ID = NewIDGenerator().Generate("usecase", name)
	}
	if uc.AppID == "" {
		uc.AppID = appID
	}
	if uc.Status == "" {
		uc.Status = StatusConfiguring
	}
	if uc.CreatedAt.IsZero() {
		uc.CreatedAt = now
	}
	uc.UpdatedAt = now
}

func collectIDs(s *AppSpecification) []string {
	if s == nil {
		return nil
	}
	var ids []string
	ids = append(ids, s.ID)
	for _, m := range s.DataModels {
		ids = append(ids, m.ID)
	}
	for _, sc := range s.Screens {
		ids = append(ids, sc.ID)
		for _, c := range sc.Components {
			ids = append(ids, c.ID)
		}
	}
	for _, w := range s.Workflows {
		ids = append(ids, w.ID)
		for _, st := range w.Steps {
			ids = append(ids, st.ID)
		}
	}
	for _, p := range s.Permissions {
		ids = append(ids, p.ID)
	}
	for _, in := range s.Integrations {
		ids = append(ids, in.ID)
	}
	return ids
}

func adoptModelID(prior *AppSpecification, name string) string {
	if prior == nil || name == "" {
		return ""
	}
	for _, m := range prior.DataModels {
		if equalFold(m.Name, name) {
			return m.ID
		}
	}
	return ""
}

func adoptScreenID(prior *AppSpecification, name string) string {
	if prior == nil || name == "" {
		return ""
	}
	for _, sc := range prior.Screens {
		if equalFold(sc.Name, name) {
			return sc.ID
		}
	}
	return ""
}

func adoptWorkflowID(prior *AppSpecification, name string) string {
	if prior == nil || name == "" {
		return ""
	}
	for _, w := range prior.Workflows {
		if equalFold(w.Name, name) {
			return w.ID
		}
	}
	return ""
}
