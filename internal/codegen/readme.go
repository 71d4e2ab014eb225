package codegen

import (
	"fmt"
	"strings"
	"time"

	"appforge/internal/spec"
)

// renderReadme is the only renderer allowed to embed a timestamp; every
// other artifact must come out byte-identical for the same specification.
func renderReadme(s *spec.AppSpecification, now time.Time) string {
	backendPort, frontendPort := deployPorts(s)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	if s.Description != "" {
		b.WriteString(s.Description + "\n\n")
	}
	fmt.Fprintf(&b, "Version %s, generated %s.\n\n", s.Version, now.UTC().Format(time.RFC3339))

	b.WriteString("## Running\n\n")
	b.WriteString("```\ndocker compose up --build\n```\n\n")
	fmt.Fprintf(&b, "The API listens on http://localhost:%d and the frontend on http://localhost:%d.\n\n", backendPort, frontendPort)

	if len(s.DataModels) > 0 {
		b.WriteString("## API\n\n")
		for _, m := range s.DataModels {
			fmt.Fprintf(&b, "- `/api/%s/` — CRUD for %s\n", Pluralize(m.Name), m.Name)
		}
		b.WriteString("\n")
	}
	if len(s.Screens) > 0 {
		b.WriteString("## Screens\n\n")
		for _, sc := range s.Screens {
			fmt.Fprintf(&b, "- %s (`%s`)\n", sc.Name, sc.Path)
		}
		b.WriteString("\n")
	}
	return b.String()
}
