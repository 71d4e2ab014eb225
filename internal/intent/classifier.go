package intent

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"appforge/internal/llm"
	"appforge/internal/prompt"
)

// maxHistoryTurns bounds how much prior conversation is sent to the model.
const maxHistoryTurns = 6

// Classifier maps one utterance plus recent history to an Intent by
// delegating to the language-model capability. It is a pure function of
// (utterance, history) as far as callers are concerned; any failure
// degrades to the `other` intent with zero confidence.
type Classifier struct {
	LLM llm.Client
}

func NewClassifier(client llm.Client) *Classifier {
	return &Classifier{LLM: client}
}

type classifyInput struct {
	Utterance string `json:"utterance"`
	History   []Turn `json:"history,omitempty"`
}

var classifyPrompt = prompt.Spec{
	Purpose:    "Classify the user's latest message in an app-building conversation into exactly one intent.",
	Background: "The assistant builds application specifications (data models, screens, workflows) and ML use cases from natural language.",
	OutputFields: []prompt.Field{
		{Name: "type", Type: "string", Required: true, Description: "one of: create_app, modify_app, add_feature, create_ml_usecase, deploy_model, view_insights, configure_integration, question, other"},
		{Name: "confidence", Type: "number", Required: true, Description: "0..1"},
		{Name: "entities", Type: "object", Required: false, Description: "extracted names, e.g. app_name, model_name, field_name, category"},
	},
	Constraints: []string{
		"Pick exactly one type from the enumerated list.",
		"Use add_feature when the user extends an existing app, modify_app when they change existing parts.",
		"Use question for requests for information that change nothing.",
	},
	Rules: []string{
		"When uncertain, prefer `other` with low confidence over guessing.",
	},
	OutputFormat: "JSON object only, no prose.",
}

// Classify returns the intent for utterance. Malformed or unparsable model
// output is logged and mapped to Degraded(); it is never an error.
func (c *Classifier) Classify(ctx context.Context, utterance string, history []Turn) Intent {
	if c == nil || c.LLM == nil {
		return Degraded()
	}
	prompt, err := classifyPrompt.Render()
	if err != nil {
		log.Printf("intent: prompt render failed: %v", err)
		return Degraded()
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	raw, err := c.LLM.GenerateJSON(llm.WithStage(ctx, llm.StageIntent), prompt, classifyInput{
		Utterance: utterance,
		History:   history,
	})
	if err != nil {
		log.Printf("intent: classification degraded: %v", err)
		return Degraded()
	}
	return parseIntent(raw)
}

func parseIntent(raw json.RawMessage) Intent {
	var out Intent
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("intent: unparsable model output: %v", err)
		return Degraded()
	}
	out.Type = Type(strings.TrimSpace(strings.ToLower(string(out.Type))))
	if !Known(out.Type) {
		return Degraded()
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 1 {
		out.Confidence = 1
	}
	if out.Entities == nil {
		out.Entities = map[string]string{}
	}
	return out
}
