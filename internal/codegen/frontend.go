package codegen

import (
	"fmt"
	"strings"

	"appforge/internal/spec"
)

func renderPage(s *spec.AppSpecification, sc spec.Screen) (string, error) {
	if strings.TrimSpace(sc.Name) == "" {
		return "", fmt.Errorf("screen has no name")
	}
	if sc.External {
		// External data sources have no generated API to bind against.
		return renderCustomPage(sc), nil
	}
	switch sc.Kind {
	case spec.ScreenList:
		return renderListPage(s, sc)
	case spec.ScreenDetail:
		return renderDetailPage(s, sc)
	case spec.ScreenForm:
		return renderFormPage(s, sc)
	case spec.ScreenDashboard:
		return renderDashboardPage(sc), nil
	case spec.ScreenCustom, "":
		return renderCustomPage(sc), nil
	default:
		return "", fmt.Errorf("screen %q has unsupported kind %q", sc.Name, sc.Kind)
	}
}

func screenModel(s *spec.AppSpecification, sc spec.Screen) (spec.DataModel, error) {
	if sc.DataSource == "" {
		return spec.DataModel{}, fmt.Errorf("screen %q has no data source", sc.Name)
	}
	m, ok := s.Model(sc.DataSource)
	if !ok {
		return spec.DataModel{}, fmt.Errorf("screen %q references unknown data source %q", sc.Name, sc.DataSource)
	}
	return m, nil
}

func renderListPage(s *spec.AppSpecification, sc spec.Screen) (string, error) {
	m, err := screenModel(s, sc)
	if err != nil {
		return "", err
	}
	coll := Pluralize(m.Name)
	cols := m.Fields
	if len(cols) > 5 {
		cols = cols[:5]
	}

	var b strings.Builder
	b.WriteString("import { useEffect, useState } from 'react';\n\n")
	fmt.Fprintf(&b, "export default function %s() {\n", pascal(sc.Name))
	b.WriteString("  const [items, setItems] = useState([]);\n")
	b.WriteString("  const [loading, setLoading] = useState(true);\n\n")
	b.WriteString("  useEffect(() => {\n")
	fmt.Fprintf(&b, "    fetch('/api/%s/')\n", coll)
	b.WriteString("      .then((res) => res.json())\n")
	b.WriteString("      .then(setItems)\n")
	b.WriteString("      .finally(() => setLoading(false));\n")
	b.WriteString("  }, []);\n\n")
	b.WriteString("  if (loading) return <p>Loading…</p>;\n\n")
	b.WriteString("  return (\n")
	b.WriteString("    <div>\n")
	fmt.Fprintf(&b, "      <h1>%s</h1>\n", sc.Name)
	b.WriteString("      <table>\n")
	b.WriteString("        <thead>\n          <tr>\n")
	for _, f := range cols {
		fmt.Fprintf(&b, "            <th>%s</th>\n", pascal(f.Name))
	}
	b.WriteString("          </tr>\n        </thead>\n")
	b.WriteString("        <tbody>\n")
	b.WriteString("          {items.map((item) => (\n")
	b.WriteString("            <tr key={item.id}>\n")
	for _, f := range cols {
		fmt.Fprintf(&b, "              <td>{String(item.%s ?? '')}</td>\n", snake(f.Name))
	}
	b.WriteString("            </tr>\n")
	b.WriteString("          ))}\n")
	b.WriteString("        </tbody>\n")
	b.WriteString("      </table>\n")
	b.WriteString("    </div>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String(), nil
}

func renderDetailPage(s *spec.AppSpecification, sc spec.Screen) (string, error) {
	m, err := screenModel(s, sc)
	if err != nil {
		return "", err
	}
	coll := Pluralize(m.Name)

	var b strings.Builder
	b.WriteString("import { useEffect, useState } from 'react';\n\n")
	fmt.Fprintf(&b, "export default function %s({ itemId }) {\n", pascal(sc.Name))
	b.WriteString("  const [item, setItem] = useState(null);\n\n")
	b.WriteString("  useEffect(() => {\n")
	b.WriteString("    if (!itemId) return;\n")
	fmt.Fprintf(&b, "    fetch(`/api/%s/${itemId}`)\n", coll)
	b.WriteString("      .then((res) => res.json())\n")
	b.WriteString("      .then(setItem);\n")
	b.WriteString("  }, [itemId]);\n\n")
	b.WriteString("  if (!item) return <p>Loading…</p>;\n\n")
	b.WriteString("  return (\n")
	b.WriteString("    <div>\n")
	fmt.Fprintf(&b, "      <h1>%s</h1>\n", sc.Name)
	b.WriteString("      <dl>\n")
	for _, f := range m.Fields {
		fmt.Fprintf(&b, "        <dt>%s</dt>\n", pascal(f.Name))
		fmt.Fprintf(&b, "        <dd>{String(item.%s ?? '')}</dd>\n", snake(f.Name))
	}
	b.WriteString("      </dl>\n")
	b.WriteString("    </div>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String(), nil
}

func renderFormPage(s *spec.AppSpecification, sc spec.Screen) (string, error) {
	m, err := screenModel(s, sc)
	if err != nil {
		return "", err
	}
	coll := Pluralize(m.Name)

	var b strings.Builder
	b.WriteString("import { useState } from 'react';\n\n")
	fmt.Fprintf(&b, "export default function %s() {\n", pascal(sc.Name))
	b.WriteString("  const [form, setForm] = useState({});\n")
	b.WriteString("  const [saved, setSaved] = useState(false);\n\n")
	b.WriteString("  const update = (name) => (e) => setForm({ ...form, [name]: e.target.value });\n\n")
	b.WriteString("  const submit = async (e) => {\n")
	b.WriteString("    e.preventDefault();\n")
	fmt.Fprintf(&b, "    const res = await fetch('/api/%s/', {\n", coll)
	b.WriteString("      method: 'POST',\n")
	b.WriteString("      headers: { 'Content-Type': 'application/json' },\n")
	b.WriteString("      body: JSON.stringify(form),\n")
	b.WriteString("    });\n")
	b.WriteString("    setSaved(res.ok);\n")
	b.WriteString("  };\n\n")
	b.WriteString("  return (\n")
	b.WriteString("    <form onSubmit={submit}>\n")
	fmt.Fprintf(&b, "      <h1>%s</h1>\n", sc.Name)
	for _, f := range m.Fields {
		name := snake(f.Name)
		fmt.Fprintf(&b, "      <label>\n        %s\n", pascal(f.Name))
		fmt.Fprintf(&b, "        <input name=%q type=%q onChange={update('%s')}%s />\n",
			name, htmlInputType(f.Type), name, requiredAttr(f))
		b.WriteString("      </label>\n")
	}
	b.WriteString("      <button type=\"submit\">Save</button>\n")
	b.WriteString("      {saved && <p>Saved.</p>}\n")
	b.WriteString("    </form>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String(), nil
}

func requiredAttr(f spec.Field) string {
	if f.Required {
		return " required"
	}
	return ""
}

func htmlInputType(t spec.FieldType) string {
	switch t {
	case spec.FieldNumber:
		return "number"
	case spec.FieldEmail:
		return "email"
	case spec.FieldURL:
		return "url"
	case spec.FieldDate:
		return "date"
	case spec.FieldDatetime:
		return "datetime-local"
	case spec.FieldBoolean:
		return "checkbox"
	default:
		return "text"
	}
}

func renderDashboardPage(sc spec.Screen) string {
	var b strings.Builder
	fmt.Fprintf(&b, "export default function %s() {\n", pascal(sc.Name))
	b.WriteString("  return (\n")
	b.WriteString("    <div>\n")
	fmt.Fprintf(&b, "      <h1>%s</h1>\n", sc.Name)
	for _, c := range sc.Components {
		label := c.Label
		if label == "" {
			label = c.Kind
		}
		if c.ML != nil {
			fmt.Fprintf(&b, "      <section data-usecase=%q>\n", c.ML.UseCaseID)
			fmt.Fprintf(&b, "        <h2>%s</h2>\n", label)
			b.WriteString("        <p>Model insights appear here once a model is deployed.</p>\n")
			b.WriteString("      </section>\n")
			continue
		}
		fmt.Fprintf(&b, "      <section>\n        <h2>%s</h2>\n      </section>\n", label)
	}
	b.WriteString("    </div>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String()
}

func renderCustomPage(sc spec.Screen) string {
	var b strings.Builder
	fmt.Fprintf(&b, "export default function %s() {\n", pascal(sc.Name))
	b.WriteString("  return (\n")
	b.WriteString("    <div>\n")
	fmt.Fprintf(&b, "      <h1>%s</h1>\n", sc.Name)
	b.WriteString("    </div>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String()
}

func renderFrontendApp(s *spec.AppSpecification) (string, error) {
	var b strings.Builder
	b.WriteString("import { useState } from 'react';\n\n")
	for _, sc := range s.Screens {
		fmt.Fprintf(&b, "import %s from './pages/%s';\n", pascal(sc.Name), pascal(sc.Name))
	}
	b.WriteString("\nconst screens = [\n")
	for _, sc := range s.Screens {
		fmt.Fprintf(&b, "  { path: %q, name: %q, component: %s },\n", sc.Path, sc.Name, pascal(sc.Name))
	}
	b.WriteString("];\n\n")
	b.WriteString("export default function App() {\n")
	b.WriteString("  const [active, setActive] = useState(screens[0]?.path);\n")
	b.WriteString("  const current = screens.find((s) => s.path === active);\n")
	b.WriteString("  const Page = current?.component;\n\n")
	b.WriteString("  return (\n")
	b.WriteString("    <div>\n")
	b.WriteString("      <nav>\n")
	b.WriteString("        {screens.map((s) => (\n")
	b.WriteString("          <button key={s.path} onClick={() => setActive(s.path)}>\n")
	b.WriteString("            {s.name}\n")
	b.WriteString("          </button>\n")
	b.WriteString("        ))}\n")
	b.WriteString("      </nav>\n")
	b.WriteString("      {Page && <Page />}\n")
	b.WriteString("    </div>\n")
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String(), nil
}

func renderPackageJSON(s *spec.AppSpecification) string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  \"name\": %q,\n", snakeDash(s.Name))
	fmt.Fprintf(&b, "  \"version\": %q,\n", s.Version)
	b.WriteString("  \"private\": true,\n")
	b.WriteString("  \"dependencies\": {\n")
	b.WriteString("    \"react\": \"^18.2.0\",\n")
	b.WriteString("    \"react-dom\": \"^18.2.0\"\n")
	b.WriteString("  },\n")
	b.WriteString("  \"scripts\": {\n")
	b.WriteString("    \"dev\": \"vite\",\n")
	b.WriteString("    \"build\": \"vite build\"\n")
	b.WriteString("  },\n")
	b.WriteString("  \"devDependencies\": {\n")
	b.WriteString("    \"vite\": \"^5.0.0\",\n")
	b.WriteString("    \"@vitejs/plugin-react\": \"^4.2.0\"\n")
	b.WriteString("  }\n")
	b.WriteString("}\n")
	return b.String()
}

func snakeDash(name string) string {
	return strings.ReplaceAll(snake(name), "_", "-")
}
