package codegen

import (
	"fmt"
	"sort"
	"time"

	"appforge/internal/spec"
)

// FileTree maps relative paths to generated file contents.
type FileTree map[string]string

// Paths returns the tree's paths in sorted order.
func (t FileTree) Paths() []string {
	out := make([]string, 0, len(t))
	for p := range t {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// GenerationError reports that one artifact could not be rendered. The
// whole generation aborts: no partial tree is ever returned alongside it.
type GenerationError struct {
	Artifact string // entity id or file path of the failing artifact
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("codegen: artifact %s: %v", e.Artifact, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Engine compiles one specification into a file tree. Output is fully
// determined by the input specification; the generation timestamp appears
// only in the README.
type Engine struct {
	Clock func() time.Time
}

func New() *Engine { return &Engine{Clock: time.Now} }

// Generate renders the backend, frontend, and deployment artifacts for a
// specification. All-or-nothing: the first render failure aborts with a
// GenerationError naming the artifact, and no tree is returned.
func (e *Engine) Generate(s *spec.AppSpecification) (FileTree, error) {
	if s == nil {
		return nil, &GenerationError{Artifact: "specification", Err: fmt.Errorf("specification is nil")}
	}
	tree := make(FileTree)

	add := func(artifact, path string, content string, err error) error {
		if err != nil {
			return &GenerationError{Artifact: artifact, Err: err}
		}
		tree[path] = content
		return nil
	}

	if err := add("backend/database.py", "backend/database.py", renderDatabase(s), nil); err != nil {
		return nil, err
	}
	if err := add("backend/tracking.py", "backend/tracking.py", renderTracking(), nil); err != nil {
		return nil, err
	}
	tree["backend/models/__init__.py"] = ""
	tree["backend/routes/__init__.py"] = ""

	for _, m := range s.DataModels {
		schema, err := renderModelSchema(m)
		if err := add(m.ID, "backend/models/"+snake(m.Name)+".py", schema, err); err != nil {
			return nil, err
		}
		routes, err := renderRoutes(m)
		if err := add(m.ID, "backend/routes/"+Pluralize(m.Name)+".py", routes, err); err != nil {
			return nil, err
		}
	}

	main, err := renderBackendMain(s)
	if err := add("backend/main.py", "backend/main.py", main, err); err != nil {
		return nil, err
	}
	tree["backend/requirements.txt"] = renderRequirements(s)

	for _, sc := range s.Screens {
		page, err := renderPage(s, sc)
		if err := add(sc.ID, "frontend/src/pages/"+pascal(sc.Name)+".jsx", page, err); err != nil {
			return nil, err
		}
	}
	app, err := renderFrontendApp(s)
	if err := add("frontend/src/App.jsx", "frontend/src/App.jsx", app, err); err != nil {
		return nil, err
	}
	tree["frontend/package.json"] = renderPackageJSON(s)

	compose, err := renderCompose(s)
	if err := add("docker-compose.yml", "docker-compose.yml", compose, err); err != nil {
		return nil, err
	}

	now := time.Now()
	if e != nil && e.Clock != nil {
		now = e.Clock()
	}
	tree["README.md"] = renderReadme(s, now)

	return tree, nil
}
