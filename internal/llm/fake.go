package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// FakeClient returns deterministic, minimal JSON payloads per stage for
// offline runs and tests. Intent picking is a crude keyword scan over the
// input; extraction stages return small fixed shapes.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.Marshal(input)
	text := strings.ToLower(string(in))

	var obj any
	switch StageFrom(ctx) {
	case StageIntent:
		obj = map[string]any{
			"type":       fakeIntent(text),
			"confidence": 0.8,
			"entities":   map[string]string{},
		}
	case StageAppExtract:
		obj = map[string]any{
			"name":        "Demo App",
			"description": "fake extraction output",
			"data_models": []any{
				map[string]any{
					"name": "Item",
					"fields": []any{
						map[string]any{"name": "name", "type": "string", "required": true},
					},
				},
			},
			"screens": []any{
				map[string]any{"name": "Items", "kind": "list", "data_source": "Item"},
			},
		}
	case StageAppDelta:
		obj = map[string]any{
			"data_models": []any{},
			"screens":     []any{},
		}
	case StageMLExtract:
		obj = map[string]any{
			"category": "custom",
			"name":     "fake use case",
		}
	default:
		obj = map[string]any{}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func fakeIntent(text string) string {
	switch {
	case strings.Contains(text, "create") && strings.Contains(text, "app"):
		return "create_app"
	case strings.Contains(text, "add"):
		return "add_feature"
	case strings.Contains(text, "change") || strings.Contains(text, "modify") || strings.Contains(text, "rename"):
		return "modify_app"
	case strings.Contains(text, "churn") || strings.Contains(text, "predict") || strings.Contains(text, "ml"):
		return "create_ml_usecase"
	case strings.Contains(text, "deploy"):
		return "deploy_model"
	case strings.Contains(text, "?"):
		return "question"
	default:
		return "other"
	}
}
