package agent

import (
	"context"
	"fmt"
	"strings"
)

const plannerPromptTemplate = `You are a professional news research analyst.

REPORT OBJECTIVE: %s
%s
HEADLINES AND NEWS FOUND:
%s

TASK:
Based on the REAL headlines above, generate 3-5 specific search queries to investigate further.

CRITICAL RULES FOR TOPICS:
- Each topic must be A SHORT SEARCH QUERY (max 50-60 characters)
- Do NOT include explanations or reasoning in the topics
- Reasoning goes ONLY in the "reasoning" field, NOT in the topics
- Topics are ONLY the search phrases

CORRECT topic examples:
- "AI regulation updates 2026"
- "Tesla factory expansion Germany"
- "Federal Reserve interest rate decision"
- "Climate summit agreements COP31"

INCORRECT topic examples (DO NOT do this):
- "1) AI regulation as a driver... Reasoning: the headline indicates..." (TOO LONG)
- "Search about investments in renewable energy considering that..." (TOO LONG)

Prioritize news with concrete data (figures, companies, specific locations).
`

// plan turns exploration headlines into 3-5 targeted search topics.
func (a *Agent) plan(ctx context.Context, state map[string]any) (map[string]any, error) {
	objective := stateString(state, keyObjective)
	researchContext := stateString(state, keyContext)
	exploration := explorationResultsOf(state)

	var headlines strings.Builder
	for _, item := range exploration {
		fmt.Fprintf(&headlines, "- %s: %s...\n", item.Title, truncate(item.Snippet, 200))
	}

	contextBlock := ""
	if researchContext != "" {
		contextBlock = fmt.Sprintf("\nContext/focus: %s\n", researchContext)
	}

	prompt := fmt.Sprintf(plannerPromptTemplate, objective, contextBlock, headlines.String())

	searchPlan, err := a.llm.Plan(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}

	a.logger.Info("topics selected: %d", len(searchPlan.Topics))
	for i, topic := range searchPlan.Topics {
		a.logger.Debug("  %d. %s", i+1, topic)
	}

	return map[string]any{
		keyTopics:            searchPlan.Topics,
		keyPlanningReasoning: searchPlan.Reasoning,
	}, nil
}
