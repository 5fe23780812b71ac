// Package llm provides the language-model collaborator backed by the
// OpenAI chat completions API with JSON-schema structured outputs.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/newsloop/newsloop/agent"
)

// Default models: the lighter one plans and evaluates, the stronger one
// writes the final digest.
const (
	DefaultPlannerModel = "gpt-5-mini-2025-08-07"
	DefaultAnalystModel = "gpt-5-2025-08-07"
)

// OpenAI implements agent.LLM. Model output that does not conform to
// the requested schema is an error, never coerced.
type OpenAI struct {
	client       *openai.Client
	plannerModel string
	analystModel string
}

// Option configures an OpenAI collaborator.
type Option func(*options)

type options struct {
	baseURL      string
	plannerModel string
	analystModel string
}

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithPlannerModel sets the model used for planning and evaluation.
func WithPlannerModel(model string) Option {
	return func(o *options) { o.plannerModel = model }
}

// WithAnalystModel sets the model used for digest composition.
func WithAnalystModel(model string) Option {
	return func(o *options) { o.analystModel = model }
}

// NewOpenAI creates the collaborator.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	o := options{
		plannerModel: DefaultPlannerModel,
		analystModel: DefaultAnalystModel,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}

	return &OpenAI{
		client:       openai.NewClientWithConfig(cfg),
		plannerModel: o.plannerModel,
		analystModel: o.analystModel,
	}
}

// Plan requests a search plan for the given prompt.
func (o *OpenAI) Plan(ctx context.Context, prompt string) (agent.SearchPlan, error) {
	return structured[agent.SearchPlan](ctx, o.client, o.plannerModel, "search_plan", prompt)
}

// Evaluate requests a coverage verdict for the given prompt.
func (o *OpenAI) Evaluate(ctx context.Context, prompt string) (agent.Evaluation, error) {
	return structured[agent.Evaluation](ctx, o.client, o.plannerModel, "evaluation", prompt)
}

// Compose requests the final digest for the given prompt.
func (o *OpenAI) Compose(ctx context.Context, prompt string) (agent.Digest, error) {
	return structured[agent.Digest](ctx, o.client, o.analystModel, "news_digest", prompt)
}

// structured performs one chat completion constrained to the JSON
// schema generated from T and decodes the response into it.
func structured[T any](ctx context.Context, client *openai.Client, model, name, prompt string) (T, error) {
	var out T

	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return out, fmt.Errorf("llm: generating schema for %s: %w", name, err)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return out, fmt.Errorf("llm: %s completion: %w", name, err)
	}
	if len(resp.Choices) == 0 {
		return out, errors.New("llm: completion returned no choices")
	}

	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return out, fmt.Errorf("llm: schema-invalid %s output: %w", name, err)
	}
	return out, nil
}
