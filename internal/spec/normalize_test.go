package spec

import (
	"strings"
	"testing"
	"time"
)

func TestNormalize_AssignsIDsAndDefaults(t *testing.T) {
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	s := &AppSpecification{
		Name: "Inventory",
		DataModels: []DataModel{
			{Name: " Product ", Fields: []Field{{Name: "sku"}}},
		},
		Screens: []Screen{{Name: "Products"}},
	}
	Normalize(s, nil, now)

	if s.ID == "" || !strings.HasPrefix(s.ID, "app-") {
		t.Fatalf("app id not assigned: %q", s.ID)
	}
	if s.Version != InitialVersion {
		t.Fatalf("version = %q, want %q", s.Version, InitialVersion)
	}
	if !s.CreatedAt.Equal(now) || !s.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not stamped: %v %v", s.CreatedAt, s.UpdatedAt)
	}
	m := s.DataModels[0]
	if m.Name != "Product" {
		t.Fatalf("model name not trimmed: %q", m.Name)
	}
	if m.ID == "" {
		t.Fatalf("model id not assigned")
	}
	if m.Fields[0].Type != FieldString {
		t.Fatalf("field type not defaulted: %q", m.Fields[0].Type)
	}
	sc := s.Screens[0]
	if sc.Path != "/products" {
		t.Fatalf("screen path not derived: %q", sc.Path)
	}
	if sc.Kind != ScreenList {
		t.Fatalf("screen kind not defaulted: %q", sc.Kind)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	build := func() *AppSpecification {
		s := &AppSpecification{
			Name:       "Inventory",
			DataModels: []DataModel{{Name: "Product"}, {Name: "Order"}},
		}
		Normalize(s, nil, time.Unix(0, 0))
		return s
	}
	a, b := build(), build()
	if a.ID != b.ID || a.DataModels[0].ID != b.DataModels[0].ID || a.DataModels[1].ID != b.DataModels[1].ID {
		t.Fatalf("normalization is not deterministic: %+v vs %+v", a, b)
	}
}

func TestNormalize_AdoptsPriorIDsByName(t *testing.T) {
	now := time.Now()
	prior := &AppSpecification{
		Name:       "Inventory",
		DataModels: []DataModel{{Name: "Product"}},
		Screens:    []Screen{{Name: "Products"}},
	}
	Normalize(prior, nil, now)

	delta := &AppSpecification{
		DataModels: []DataModel{{Name: "product"}, {Name: "Supplier"}},
		Screens:    []Screen{{Name: "PRODUCTS"}},
	}
	Normalize(delta, prior, now)

	if delta.DataModels[0].ID != prior.DataModels[0].ID {
		t.Fatalf("re-extracted model did not adopt prior id")
	}
	if delta.DataModels[1].ID == "" || delta.DataModels[1].ID == prior.DataModels[0].ID {
		t.Fatalf("new model got bad id: %q", delta.DataModels[1].ID)
	}
	if delta.Screens[0].ID != prior.Screens[0].ID {
		t.Fatalf("re-extracted screen did not adopt prior id")
	}
	if delta.ID != prior.ID {
		t.Fatalf("delta did not inherit app id")
	}
}

func TestIDGenerator_CollisionSuffix(t *testing.T) {
	g := NewIDGenerator()
	a := g.Generate("model", "Client")
	b := g.Generate("model", "Client")
	if a == b {
		t.Fatalf("collision not resolved: %q", a)
	}
	if !strings.HasPrefix(b, a) {
		t.Fatalf("collision suffix shape unexpected: %q then %q", a, b)
	}
}

func TestNormalizeUseCase_Defaults(t *testing.T) {
	now := time.Now()
	uc := &MLUseCase{Category: CategoryChurn}
	NormalizeUseCase(uc, "app-1", now)
	if uc.ID == "" || uc.AppID != "app-1" || uc.Status != StatusConfiguring {
		t.Fatalf("use case not defaulted: %+v", uc)
	}
}

func TestCanTransition(t *testing.T) {
	legal := [][2]UseCaseStatus{
		{StatusConfiguring, StatusTraining},
		{StatusTraining, StatusDeployed},
		{StatusTraining, StatusFailed},
		{StatusDeployed, StatusArchived},
		{StatusFailed, StatusConfiguring},
	}
	for _, p := range legal {
		if !CanTransition(p[0], p[1]) {
			t.Fatalf("expected %s -> %s to be legal", p[0], p[1])
		}
	}
	illegal := [][2]UseCaseStatus{
		{StatusConfiguring, StatusDeployed},
		{StatusDeployed, StatusTraining},
		{StatusArchived, StatusDeployed},
		{StatusDeployed, StatusDeployed},
	}
	for _, p := range illegal {
		if CanTransition(p[0], p[1]) {
			t.Fatalf("expected %s -> %s to be illegal", p[0], p[1])
		}
	}
}
