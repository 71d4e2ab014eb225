package prompt

import (
	"bytes"
	"fmt"
	"strings"
)

// Field describes one output field in the instruction prompt.
type Field struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// Spec defines the sections of a structured instruction prompt.
// Rendering is fixed-order so the same spec always yields the same prompt.
type Spec struct {
	Purpose      string
	Background   string
	OutputFields []Field
	Constraints  []string
	Rules        []string
	OutputFormat string
}

// Render produces the sectioned prompt text.
func (s Spec) Render() (string, error) {
	if strings.TrimSpace(s.Purpose) == "" {
		return "", fmt.Errorf("prompt: purpose is empty")
	}
	if len(s.OutputFields) == 0 {
		return "", fmt.Errorf("prompt: output fields are empty")
	}
	var buf bytes.Buffer
	writeSection(&buf, "PURPOSE", s.Purpose)
	writeSection(&buf, "BACKGROUND", s.Background)
	writeSection(&buf, "OUTPUT", formatFields(s.OutputFields))
	writeSection(&buf, "CONSTRAINTS", formatList(s.Constraints))
	writeSection(&buf, "RULES", formatList(s.Rules))
	writeSection(&buf, "OUTPUT_FORMAT", s.OutputFormat)
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func writeSection(buf *bytes.Buffer, name, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	fmt.Fprintf(buf, "[%s]\n%s\n\n", name, body)
}

func formatFields(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(&b, "- %s (%s, %s)", f.Name, f.Type, req)
		if f.Description != "" {
			b.WriteString(": " + f.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func formatList(items []string) string {
	var b strings.Builder
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		b.WriteString("- " + it + "\n")
	}
	return b.String()
}
