package synth

import (
	"strings"

	"appforge/internal/spec"
)

// DefaultSplit is the train/test split applied when a use case does not
// specify one.
const DefaultSplit = 0.8

// catalog maps every enumerated ML category to its default MLConfig. The
// mapping is pure data: the synthesizer consults it when the utterance does
// not spell out the configuration explicitly.
var catalog = map[spec.MLCategory]spec.MLConfig{
	spec.CategoryChurn: {
		TargetVariable: "churned",
		Features:       []string{"days_since_last_activity", "total_purchases", "support_tickets", "subscription_age_days", "avg_session_minutes"},
		ModelFamily:    "gradient_boosting",
		Training:       TrainingDefaults("stratified_kfold", "accuracy", "precision", "recall", "f1", "auc_roc"),
		Deployment:     deployDefaults(map[string]float64{"min_accuracy": 0.75, "max_drift": 0.2}),
	},
	spec.CategoryLeadScoring: {
		TargetVariable: "converted",
		Features:       []string{"source", "company_size", "industry", "engagement_score", "email_opens", "page_visits"},
		ModelFamily:    "gradient_boosting",
		Training:       TrainingDefaults("stratified_kfold", "auc_roc", "precision", "recall"),
		Deployment:     deployDefaults(map[string]float64{"min_auc": 0.7, "max_drift": 0.2}),
	},
	spec.CategoryConversion: {
		TargetVariable: "purchased",
		Features:       []string{"cart_value", "num_sessions", "referrer", "device", "time_on_site_minutes"},
		ModelFamily:    "logistic_regression",
		Training:       TrainingDefaults("holdout", "accuracy", "auc_roc"),
		Deployment:     deployDefaults(map[string]float64{"min_accuracy": 0.7, "max_drift": 0.25}),
	},
	spec.CategoryAnomaly: {
		TargetVariable: "is_anomaly",
		Features:       []string{"value", "rolling_mean", "rolling_std", "hour_of_day", "day_of_week"},
		ModelFamily:    "isolation_forest",
		Training:       TrainingDefaults("time_series_split", "precision", "recall", "f1"),
		Deployment:     deployDefaults(map[string]float64{"max_false_positive_rate": 0.05}),
	},
	spec.CategoryRecommendation: {
		TargetVariable: "interaction",
		Features:       []string{"user_id", "item_id", "rating", "category", "recency_days"},
		ModelFamily:    "collaborative_filtering",
		Training:       TrainingDefaults("holdout", "ndcg", "precision_at_k", "recall_at_k"),
		Deployment:     deployDefaults(map[string]float64{"min_ndcg": 0.3}),
	},
	spec.CategoryLTV: {
		TargetVariable: "lifetime_value",
		Features:       []string{"first_purchase_value", "purchase_frequency", "avg_order_value", "tenure_days", "channel"},
		ModelFamily:    "gradient_boosting",
		Training:       TrainingDefaults("kfold", "rmse", "mae", "r2"),
		Deployment:     deployDefaults(map[string]float64{"max_rmse_increase": 0.15}),
	},
	spec.CategoryRisk: {
		TargetVariable: "defaulted",
		Features:       []string{"credit_utilization", "payment_history", "account_age_days", "open_accounts", "income_band"},
		ModelFamily:    "gradient_boosting",
		Training:       TrainingDefaults("stratified_kfold", "auc_roc", "precision", "recall", "brier"),
		Deployment:     deployDefaults(map[string]float64{"min_auc": 0.75, "max_drift": 0.1}),
	},
	spec.CategoryCustom: {
		TargetVariable: "target",
		Features:       []string{},
		ModelFamily:    "automl",
		Training:       TrainingDefaults("holdout", "accuracy"),
		Deployment:     deployDefaults(nil),
	},
}

// Template returns the default MLConfig for a category. Unknown categories
// fall back to a generic empty-feature automl default; the lookup never
// fails.
func Template(cat spec.MLCategory) spec.MLConfig {
	if cfg, ok := catalog[cat]; ok {
		return cloneConfig(cfg)
	}
	return cloneConfig(spec.MLConfig{
		TargetVariable: "target",
		Features:       []string{},
		ModelFamily:    "automl",
		Training:       TrainingDefaults("holdout", "accuracy"),
		Deployment:     deployDefaults(nil),
	})
}

// TrainingDefaults builds a TrainingConfig with the default split.
func TrainingDefaults(validation string, metrics ...string) spec.TrainingConfig {
	return spec.TrainingConfig{
		TrainTestSplit:     DefaultSplit,
		ValidationStrategy: validation,
		Metrics:            metrics,
	}
}

func deployDefaults(monitoring map[string]float64) spec.DeploymentConfig {
	return spec.DeploymentConfig{Monitoring: monitoring}
}

func cloneConfig(cfg spec.MLConfig) spec.MLConfig {
	cfg.Features = cloneStrings(cfg.Features)
	cfg.Training.Metrics = cloneStrings(cfg.Training.Metrics)
	if cfg.Deployment.Monitoring != nil {
		m := make(map[string]float64, len(cfg.Deployment.Monitoring))
		for k, v := range cfg.Deployment.Monitoring {
			m[k] = v
		}
		cfg.Deployment.Monitoring = m
	}
	return cfg
}

// cloneStrings copies a slice, keeping empty-but-non-nil distinct from nil so
// template JSON keeps "[]" where the catalogue declares an empty list.
func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// ResolveCategory maps loose category text ("churn_prediction", "lead
// scoring") onto an enumerated category. Unmatched text resolves to custom.
func ResolveCategory(raw string) spec.MLCategory {
	norm := spec.Slug(raw)
	if norm == "" {
		return spec.CategoryCustom
	}
	for _, cat := range spec.Categories() {
		if norm == string(cat) {
			return cat
		}
		// "custom" is the fallback, never a substring match: "customer
		// retention" belongs to churn, not custom.
		if cat != spec.CategoryCustom && strings.Contains(norm, spec.Slug(string(cat))) {
			return cat
		}
	}
	switch {
	case strings.Contains(norm, "churn") || strings.Contains(norm, "retention"):
		return spec.CategoryChurn
	case strings.Contains(norm, "lead"):
		return spec.CategoryLeadScoring
	case strings.Contains(norm, "conver"):
		return spec.CategoryConversion
	case strings.Contains(norm, "anomal") || strings.Contains(norm, "fraud") || strings.Contains(norm, "outlier"):
		return spec.CategoryAnomaly
	case strings.Contains(norm, "recommend"):
		return spec.CategoryRecommendation
	case strings.Contains(norm, "ltv") || strings.Contains(norm, "lifetime"):
		return spec.CategoryLTV
	case strings.Contains(norm, "risk") || strings.Contains(norm, "credit") || strings.Contains(norm, "default"):
		return spec.CategoryRisk
	}
	return spec.CategoryCustom
}
