package llm

import "context"

// Stage names for the extraction steps that call the model. The fake client
// keys its canned outputs on the stage; real clients only log it.
const (
	StageIntent     = "intent"
	StageAppExtract = "app_extract"
	StageAppDelta   = "app_delta"
	StageMLExtract  = "ml_extract"
)

type ctxKeyStage struct{}

// WithStage tags the context with the extraction stage for the next call.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxKeyStage{}, stage)
}

// StageFrom returns the stage stored in the context, if any.
func StageFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyStage{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
