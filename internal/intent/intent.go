package intent

// Type is the discrete intent of one conversational utterance.
type Type string

const (
	CreateApp            Type = "create_app"
	ModifyApp            Type = "modify_app"
	AddFeature           Type = "add_feature"
	CreateMLUseCase      Type = "create_ml_usecase"
	DeployModel          Type = "deploy_model"
	ViewInsights         Type = "view_insights"
	ConfigureIntegration Type = "configure_integration"
	Question             Type = "question"
	Other                Type = "other"
)

// Known reports whether t is one of the enumerated intent types.
func Known(t Type) bool {
	switch t {
	case CreateApp, ModifyApp, AddFeature, CreateMLUseCase, DeployModel,
		ViewInsights, ConfigureIntegration, Question, Other:
		return true
	}
	return false
}

// Intent is the classification result for one utterance.
type Intent struct {
	Type       Type              `json:"type"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// Degraded is the classification used when the model output is unusable.
// Classification never blocks the conversation.
func Degraded() Intent {
	return Intent{Type: Other, Confidence: 0, Entities: map[string]string{}}
}

// Turn is one prior exchange handed to the classifier for context.
type Turn struct {
	Role string `json:"role"` // user | assistant
	Text string `json:"text"`
}
