package synth

import (
	"testing"

	"appforge/internal/spec"
)

func TestTemplate_TotalOverEnumeratedCategories(t *testing.T) {
	for _, cat := range spec.Categories() {
		cfg := Template(cat)
		if cfg.TargetVariable == "" {
			t.Fatalf("category %s: empty target variable", cat)
		}
		if cfg.ModelFamily == "" {
			t.Fatalf("category %s: empty model family", cat)
		}
		if cfg.Training.TrainTestSplit != DefaultSplit {
			t.Fatalf("category %s: split = %v, want %v", cat, cfg.Training.TrainTestSplit, DefaultSplit)
		}
		if cfg.Features == nil {
			t.Fatalf("category %s: nil feature list", cat)
		}
	}
}

func TestTemplate_UnknownCategoryFallsBack(t *testing.T) {
	cfg := Template(spec.MLCategory("time-travel"))
	if cfg.ModelFamily != "automl" {
		t.Fatalf("fallback model family = %q, want automl", cfg.ModelFamily)
	}
	if len(cfg.Features) != 0 {
		t.Fatalf("fallback features should be empty, got %v", cfg.Features)
	}
}

func TestTemplate_ReturnsCopies(t *testing.T) {
	a := Template(spec.CategoryChurn)
	a.Features[0] = "mutated"
	a.Deployment.Monitoring["min_accuracy"] = 0
	b := Template(spec.CategoryChurn)
	if b.Features[0] == "mutated" {
		t.Fatalf("template features are shared between calls")
	}
	if b.Deployment.Monitoring["min_accuracy"] != 0.75 {
		t.Fatalf("template monitoring is shared between calls")
	}
}

func TestResolveCategory(t *testing.T) {
	cases := []struct {
		in   string
		want spec.MLCategory
	}{
		{"churn", spec.CategoryChurn},
		{"churn_prediction", spec.CategoryChurn},
		{"customer retention", spec.CategoryChurn},
		{"customer churn", spec.CategoryChurn},
		{"custom", spec.CategoryCustom},
		{"lead scoring", spec.CategoryLeadScoring},
		{"Lead-Scoring", spec.CategoryLeadScoring},
		{"conversion prediction", spec.CategoryConversion},
		{"fraud detection", spec.CategoryAnomaly},
		{"recommendations", spec.CategoryRecommendation},
		{"lifetime value", spec.CategoryLTV},
		{"credit risk", spec.CategoryRisk},
		{"", spec.CategoryCustom},
		{"something else entirely", spec.CategoryCustom},
	}
	for _, tc := range cases {
		if got := ResolveCategory(tc.in); got != tc.want {
			t.Fatalf("ResolveCategory(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
