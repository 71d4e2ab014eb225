package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"appforge/internal/spec"
)

const (
	defaultBackendPort  = 8000
	defaultFrontendPort = 3000
)

// deployPorts reads port overrides from a "deployment" integration when the
// specification carries one. Anything unparsable keeps the default.
func deployPorts(s *spec.AppSpecification) (backend, frontend int) {
	backend, frontend = defaultBackendPort, defaultFrontendPort
	for _, in := range s.Integrations {
		if in.Kind != "deployment" {
			continue
		}
		if v, err := strconv.Atoi(in.Config["backend_port"]); err == nil && v > 0 {
			backend = v
		}
		if v, err := strconv.Atoi(in.Config["frontend_port"]); err == nil && v > 0 {
			frontend = v
		}
	}
	return backend, frontend
}

func renderCompose(s *spec.AppSpecification) (string, error) {
	backendPort, frontendPort := deployPorts(s)

	var b strings.Builder
	b.WriteString("services:\n")
	b.WriteString("  mongo:\n")
	b.WriteString("    image: mongo:7\n")
	b.WriteString("    volumes:\n")
	b.WriteString("      - mongo-data:/data/db\n")
	b.WriteString("  redis:\n")
	b.WriteString("    image: redis:7-alpine\n")
	b.WriteString("  backend:\n")
	b.WriteString("    build: ./backend\n")
	b.WriteString("    environment:\n")
	b.WriteString("      MONGO_URL: mongodb://mongo:27017\n")
	fmt.Fprintf(&b, "      DB_NAME: %s\n", snake(s.Name))
	b.WriteString("    ports:\n")
	fmt.Fprintf(&b, "      - \"%d:8000\"\n", backendPort)
	b.WriteString("    depends_on:\n")
	b.WriteString("      - mongo\n")
	b.WriteString("      - redis\n")
	b.WriteString("  frontend:\n")
	b.WriteString("    build: ./frontend\n")
	b.WriteString("    ports:\n")
	fmt.Fprintf(&b, "      - \"%d:3000\"\n", frontendPort)
	b.WriteString("    depends_on:\n")
	b.WriteString("      - backend\n")
	b.WriteString("volumes:\n")
	b.WriteString("  mongo-data:\n")
	return b.String(), nil
}
