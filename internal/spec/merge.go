package spec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Merge folds an accepted delta into the current specification and returns
// the resulting value. Neither input is mutated.
//
// The policy is last-writer-wins per top-level collection: a delta entity
// whose id matches an existing entity replaces it wholesale (children
// included — the delta producer echoes unchanged children); a delta entity
// with an unknown id is appended; entities the delta does not mention are
// preserved unchanged. There is no deep merge of list fields, which would
// risk duplicating or losing sub-entities.
//
// Merging the same delta twice yields the same entity set as merging it
// once: every second application is a wholesale replace by the same id.
func Merge(current, delta *AppSpecification, now time.Time) *AppSpecification {
	if current == nil {
		out := delta.Clone()
		if out != nil {
			out.UpdatedAt = now
		}
		return out
	}
	out := current.Clone()
	if delta == nil {
		return out
	}

	if strings.TrimSpace(delta.Name) != "" {
		out.Name = delta.Name
	}
	if strings.TrimSpace(delta.Description) != "" {
		out.Description = delta.Description
	}

	out.DataModels = mergeByID(out.DataModels, delta.DataModels, func(m DataModel) string { return m.ID })
	out.Screens = mergeByID(out.Screens, delta.Screens, func(s Screen) string { return s.ID })
	out.Workflows = mergeByID(out.Workflows, delta.Workflows, func(w Workflow) string { return w.ID })
	out.Permissions = mergeByID(out.Permissions, delta.Permissions, func(p PermissionRule) string { return p.ID })
	out.Integrations = mergeByID(out.Integrations, delta.Integrations, func(i Integration) string { return i.ID })

	out.Version = BumpPatch(current.Version)
	out.UpdatedAt = now
	return out
}

// mergeByID replaces entities whose id is present in the delta and appends
// the rest, keeping the base ordering stable.
func mergeByID[T any](base, delta []T, id func(T) string) []T {
	if len(delta) == 0 {
		return base
	}
	byID := make(map[string]T, len(delta))
	seen := make(map[string]bool, len(delta))
	for _, d := range delta {
		byID[id(d)] = d
	}
	out := make([]T, 0, len(base)+len(delta))
	for _, b := range base {
		if d, ok := byID[id(b)]; ok {
			out = append(out, d)
			seen[id(b)] = true
			continue
		}
		out = append(out, b)
	}
	for _, d := range delta {
		if !seen[id(d)] {
			out = append(out, d)
			seen[id(d)] = true
		}
	}
	return out
}

// BumpPatch increments the patch component of a semantic version string.
// Unparsable versions reset to the initial version.
func BumpPatch(version string) string {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) != 3 {
		return InitialVersion
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return InitialVersion
	}
	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1)
}
