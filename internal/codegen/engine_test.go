package codegen

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"appforge/internal/spec"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

func storefrontSpec(t *testing.T) *spec.AppSpecification {
	t.Helper()
	s := &spec.AppSpecification{
		Name:        "Storefront",
		Description: "Orders and customers for a small shop.",
		DataModels: []spec.DataModel{
			{
				Name: "Customer",
				Fields: []spec.Field{
					{Name: "Name", Type: spec.FieldString, Required: true},
					{Name: "Email", Type: spec.FieldEmail, Required: true, Unique: true},
					{Name: "Signed Up", Type: spec.FieldDatetime},
				},
			},
			{
				Name: "Order",
				Fields: []spec.Field{
					{Name: "Total", Type: spec.FieldNumber, Required: true},
					{Name: "Customer", Type: spec.FieldReference, Target: "Customer"},
				},
			},
		},
		Screens: []spec.Screen{
			{Name: "Customer List", Kind: spec.ScreenList, DataSource: "Customer"},
			{Name: "New Customer", Kind: spec.ScreenForm, DataSource: "Customer"},
			{Name: "Order Detail", Kind: spec.ScreenDetail, DataSource: "Order"},
			{Name: "Overview", Kind: spec.ScreenDashboard},
		},
	}
	spec.Normalize(s, nil, fixedClock())
	return s
}

func TestGenerate_Deterministic(t *testing.T) {
	e := &Engine{Clock: fixedClock}
	s := storefrontSpec(t)

	first, err := e.Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := e.Generate(s)
	if err != nil {
		t.Fatalf("Generate (second): %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same spec and clock produced different trees")
	}

	want := []string{
		"README.md",
		"backend/database.py",
		"backend/main.py",
		"backend/models/customer.py",
		"backend/models/order.py",
		"backend/requirements.txt",
		"backend/routes/customers.py",
		"backend/routes/orders.py",
		"backend/tracking.py",
		"docker-compose.yml",
		"frontend/package.json",
		"frontend/src/App.jsx",
		"frontend/src/pages/CustomerList.jsx",
		"frontend/src/pages/NewCustomer.jsx",
		"frontend/src/pages/OrderDetail.jsx",
		"frontend/src/pages/Overview.jsx",
	}
	for _, p := range want {
		if _, ok := first[p]; !ok {
			t.Errorf("missing generated file %s (have %v)", p, first.Paths())
		}
	}
	for _, extra := range []string{"backend/models/__init__.py", "backend/routes/__init__.py"} {
		if _, ok := first[extra]; !ok {
			t.Errorf("missing package marker %s", extra)
		}
	}
}

func TestGenerate_TimestampOnlyInReadme(t *testing.T) {
	s := storefrontSpec(t)

	early := &Engine{Clock: fixedClock}
	late := &Engine{Clock: func() time.Time { return fixedClock().Add(48 * time.Hour) }}

	a, err := early.Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := late.Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for path, content := range a {
		if path == "README.md" {
			if content == b[path] {
				t.Errorf("README did not pick up the new timestamp")
			}
			continue
		}
		if content != b[path] {
			t.Errorf("%s changed between runs with different clocks", path)
		}
	}
}

func TestGenerate_FailureNamesFailingScreen(t *testing.T) {
	s := storefrontSpec(t)
	s.Screens = append(s.Screens, spec.Screen{
		ID:         "screen-broken-deadbeef",
		Name:       "Broken",
		Path:       "/broken",
		Kind:       spec.ScreenList,
		DataSource: "Nonexistent",
	})

	tree, err := (&Engine{Clock: fixedClock}).Generate(s)
	if tree != nil {
		t.Fatalf("partial tree returned alongside error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("want GenerationError, got %v", err)
	}
	if genErr.Artifact != "screen-broken-deadbeef" {
		t.Fatalf("error names artifact %q, want the failing screen id", genErr.Artifact)
	}
}

func TestGenerate_FailureNamesFailingModel(t *testing.T) {
	s := storefrontSpec(t)
	s.DataModels = append(s.DataModels, spec.DataModel{
		ID:     "model-bad-cafebabe",
		Name:   "Bad",
		Fields: []spec.Field{{Name: "Blob", Type: spec.FieldType("tensor")}},
	})

	tree, err := (&Engine{Clock: fixedClock}).Generate(s)
	if tree != nil {
		t.Fatalf("partial tree returned alongside error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("want GenerationError, got %v", err)
	}
	if genErr.Artifact != "model-bad-cafebabe" {
		t.Fatalf("error names artifact %q, want the failing model id", genErr.Artifact)
	}
	if !strings.Contains(genErr.Error(), "tensor") {
		t.Errorf("error %q does not mention the offending type", genErr.Error())
	}
}

func TestGenerate_NilSpec(t *testing.T) {
	if _, err := New().Generate(nil); err == nil {
		t.Fatal("nil spec must not generate")
	}
}

func TestRoutes_Content(t *testing.T) {
	s := storefrontSpec(t)
	tree, err := (&Engine{Clock: fixedClock}).Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	routes := tree["backend/routes/customers.py"]
	for _, want := range []string{
		`APIRouter(prefix="/api/customers"`,
		"async def list_customers(skip: int = 0, limit: int = 50):",
		`HTTPException(status_code=404, detail="Customer not found")`,
		"@router.post(\"/\", status_code=201)",
		`await track({"event": "customer.create"`,
	} {
		if !strings.Contains(routes, want) {
			t.Errorf("customers routes missing %q", want)
		}
	}

	model := tree["backend/models/customer.py"]
	for _, want := range []string{
		"class Customer(BaseModel):",
		"class CustomerCreate(BaseModel):",
		"class CustomerUpdate(BaseModel):",
		"email: EmailStr",
		"signed_up: Optional[datetime] = None",
	} {
		if !strings.Contains(model, want) {
			t.Errorf("customer schema missing %q", want)
		}
	}
	if !strings.Contains(tree["backend/requirements.txt"], "email-validator") {
		t.Error("email field did not pull in email-validator")
	}
}

func TestFrontend_Content(t *testing.T) {
	s := storefrontSpec(t)
	tree, err := (&Engine{Clock: fixedClock}).Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	app := tree["frontend/src/App.jsx"]
	// Navigation follows specification order.
	order := []string{"CustomerList", "NewCustomer", "OrderDetail", "Overview"}
	last := -1
	for _, name := range order {
		idx := strings.Index(app, "import "+name+" from")
		if idx < 0 {
			t.Fatalf("App.jsx does not import %s", name)
		}
		if idx < last {
			t.Fatalf("App.jsx imports out of specification order")
		}
		last = idx
	}

	form := tree["frontend/src/pages/NewCustomer.jsx"]
	if !strings.Contains(form, `fetch('/api/customers/'`) {
		t.Error("form page does not post to the customers collection")
	}
	if !strings.Contains(form, `type="email"`) {
		t.Error("email field did not map to an email input")
	}
}

func TestDashboard_RendersComponents(t *testing.T) {
	s := storefrontSpec(t)
	s.Screens = append(s.Screens, spec.Screen{
		Name: "Insights",
		Kind: spec.ScreenDashboard,
		Components: []spec.Component{
			{ID: "cmp-revenue", Kind: "chart", Label: "Revenue"},
			{ID: "cmp-orders", Kind: "table", DataSource: "Order"},
			{ID: "cmp-churn", Kind: "card", Label: "Churn Risk", ML: &spec.MLIntegration{UseCaseID: "uc-churn-1234"}},
		},
	})
	spec.Normalize(s, nil, fixedClock())

	tree, err := (&Engine{Clock: fixedClock}).Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	page := tree["frontend/src/pages/Insights.jsx"]
	if !strings.Contains(page, "<h2>Revenue</h2>") {
		t.Errorf("labeled component missing its heading:\n%s", page)
	}
	// Unlabeled components fall back to their kind.
	if !strings.Contains(page, "<h2>table</h2>") {
		t.Errorf("unlabeled component did not fall back to kind:\n%s", page)
	}
	if !strings.Contains(page, `data-usecase="uc-churn-1234"`) {
		t.Errorf("ML component missing data-usecase binding:\n%s", page)
	}
	if !strings.Contains(page, "<h2>Churn Risk</h2>") {
		t.Errorf("ML component missing its label:\n%s", page)
	}
}

func TestCompose_PortOverrides(t *testing.T) {
	s := storefrontSpec(t)
	tree, err := (&Engine{Clock: fixedClock}).Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	compose := tree["docker-compose.yml"]
	if !strings.Contains(compose, `"8000:8000"`) || !strings.Contains(compose, `"3000:3000"`) {
		t.Fatalf("default ports missing:\n%s", compose)
	}

	s.Integrations = append(s.Integrations, spec.Integration{
		Name: "Hosting",
		Kind: "deployment",
		Config: map[string]string{
			"backend_port":  "9001",
			"frontend_port": "8080",
		},
	})
	tree, err = (&Engine{Clock: fixedClock}).Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	compose = tree["docker-compose.yml"]
	if !strings.Contains(compose, `"9001:8000"`) || !strings.Contains(compose, `"8080:3000"`) {
		t.Fatalf("port overrides not applied:\n%s", compose)
	}
}

func TestReadme_CarriesTimestamp(t *testing.T) {
	s := storefrontSpec(t)
	tree, err := (&Engine{Clock: fixedClock}).Generate(s)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	readme := tree["README.md"]
	if !strings.Contains(readme, "2025-03-14T09:30:00Z") {
		t.Errorf("README missing generation timestamp:\n%s", readme)
	}
	if !strings.Contains(readme, "# Storefront") {
		t.Errorf("README missing title")
	}
}
