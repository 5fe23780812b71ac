package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, content string, inspect func(body map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if inspect != nil {
			inspect(body)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestPlanParsesStructuredOutput(t *testing.T) {
	var gotModel string
	var gotFormat map[string]any
	server := completionServer(t, `{"topics":["AI regulation updates 2026","Fed rate decision"],"reasoning":"both dominate the headlines"}`, func(body map[string]any) {
		gotModel, _ = body["model"].(string)
		gotFormat, _ = body["response_format"].(map[string]any)
	})
	defer server.Close()

	client := NewOpenAI("test-key", WithBaseURL(server.URL+"/v1"))
	plan, err := client.Plan(context.Background(), "plan something")
	require.NoError(t, err)

	assert.Equal(t, DefaultPlannerModel, gotModel)
	assert.Equal(t, "json_schema", gotFormat["type"])
	assert.Equal(t, []string{"AI regulation updates 2026", "Fed rate decision"}, plan.Topics)
	assert.Equal(t, "both dominate the headlines", plan.Reasoning)
}

func TestEvaluateParsesVerdict(t *testing.T) {
	server := completionServer(t, `{"is_sufficient":false,"missing_topics":["office vacancy rates"],"reasoning":"one sub-theme uncovered"}`, nil)
	defer server.Close()

	client := NewOpenAI("test-key", WithBaseURL(server.URL+"/v1"))
	evaluation, err := client.Evaluate(context.Background(), "evaluate this")
	require.NoError(t, err)

	assert.False(t, evaluation.IsSufficient)
	assert.Equal(t, []string{"office vacancy rates"}, evaluation.MissingTopics)
}

func TestComposeUsesAnalystModel(t *testing.T) {
	var gotModel string
	server := completionServer(t, `{"sections":[{"title":"Rates hold","article":"The central bank held rates.","sources":["https://example.com/a"]}]}`, func(body map[string]any) {
		gotModel, _ = body["model"].(string)
	})
	defer server.Close()

	client := NewOpenAI("test-key",
		WithBaseURL(server.URL+"/v1"),
		WithAnalystModel("gpt-5-2025-08-07"))
	digest, err := client.Compose(context.Background(), "compose the digest")
	require.NoError(t, err)

	assert.Equal(t, "gpt-5-2025-08-07", gotModel)
	require.Len(t, digest.Sections, 1)
	assert.Equal(t, "Rates hold", digest.Sections[0].Title)
}

func TestSchemaInvalidOutputIsAnError(t *testing.T) {
	server := completionServer(t, `not json at all`, nil)
	defer server.Close()

	client := NewOpenAI("test-key", WithBaseURL(server.URL+"/v1"))
	_, err := client.Plan(context.Background(), "plan something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema-invalid")
}
