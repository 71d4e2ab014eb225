package spec

import "time"

// MLCategory enumerates the supported ML use-case categories.
type MLCategory string

const (
	CategoryChurn          MLCategory = "churn"
	CategoryLeadScoring    MLCategory = "lead-scoring"
	CategoryConversion     MLCategory = "conversion"
	CategoryAnomaly        MLCategory = "anomaly"
	CategoryRecommendation MLCategory = "recommendation"
	CategoryLTV            MLCategory = "ltv"
	CategoryRisk           MLCategory = "risk"
	CategoryCustom         MLCategory = "custom"
)

// Categories lists every enumerated category in a fixed order.
func Categories() []MLCategory {
	return []MLCategory{
		CategoryChurn, CategoryLeadScoring, CategoryConversion, CategoryAnomaly,
		CategoryRecommendation, CategoryLTV, CategoryRisk, CategoryCustom,
	}
}

// UseCaseStatus is the lifecycle status of an MLUseCase.
type UseCaseStatus string

const (
	StatusConfiguring UseCaseStatus = "configuring"
	StatusTraining    UseCaseStatus = "training"
	StatusDeployed    UseCaseStatus = "deployed"
	StatusFailed      UseCaseStatus = "failed"
	StatusArchived    UseCaseStatus = "archived"
)

// CanTransition reports whether moving from to next is a legal lifecycle step.
// Legal paths: configuring -> training -> deployed|failed, deployed -> archived,
// failed -> configuring (retry), and anything -> archived except archived itself.
func CanTransition(from, to UseCaseStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusConfiguring:
		return to == StatusTraining || to == StatusArchived
	case StatusTraining:
		return to == StatusDeployed || to == StatusFailed || to == StatusArchived
	case StatusDeployed:
		return to == StatusArchived
	case StatusFailed:
		return to == StatusConfiguring || to == StatusArchived
	}
	return false
}

// TrainingConfig holds train-time settings for a use case.
type TrainingConfig struct {
	TrainTestSplit     float64  `json:"train_test_split"`
	ValidationStrategy string   `json:"validation_strategy"`
	Metrics            []string `json:"metrics"`
}

// DeploymentConfig holds serve-time settings for a use case.
type DeploymentConfig struct {
	Endpoint   string             `json:"endpoint,omitempty"`
	Monitoring map[string]float64 `json:"monitoring,omitempty"`
}

// MLConfig configures one ML use case: what to predict, from which
// features, and with which model family.
type MLConfig struct {
	TargetVariable string           `json:"target_variable"`
	Features       []string         `json:"features"`
	ModelFamily    string           `json:"model_family"`
	Training       TrainingConfig   `json:"training"`
	Deployment     DeploymentConfig `json:"deployment"`
}

// MLUseCase is a named ML capability bound to an application.
type MLUseCase struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Category  MLCategory    `json:"category"`
	AppID     string        `json:"app_id"`
	Config    MLConfig      `json:"config"`
	Status    UseCaseStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ModelMetrics are evaluation numbers attached to a trained model.
// Simulated is always true in this system: no ground-truth training occurs,
// the numbers are placeholders within a plausible band.
type ModelMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Simulated bool    `json:"simulated"`
}

// MLModel is one training run's output scaffold for a use case.
type MLModel struct {
	ID        string       `json:"id"`
	UseCaseID string       `json:"use_case_id"`
	Family    string       `json:"family"`
	Metrics   ModelMetrics `json:"metrics"`
	Status    string       `json:"status"` // trained | deployed
	TrainedAt time.Time    `json:"trained_at"`
}
