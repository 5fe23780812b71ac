package agent

import (
	"context"
	"fmt"

	"github.com/newsloop/newsloop/tavily"
)

const (
	exploreMaxResults     = 10
	explorationSnippetCap = 500
)

// explore performs one broad, shallow search over the full period so the
// planner has real headlines to work from.
func (a *Agent) explore(ctx context.Context, state map[string]any) (map[string]any, error) {
	objective := stateString(state, keyObjective)
	startDate := stateString(state, keyStartDate)
	endDate := stateString(state, keyEndDate)

	query := fmt.Sprintf("%s news %s to %s", objective, startDate, endDate)
	a.logger.Info("exploring: %s", query)

	results, err := a.search.Search(ctx, tavily.SearchRequest{
		Query:          query,
		SearchDepth:    tavily.DepthAdvanced,
		Topic:          tavily.TopicNews,
		StartDate:      startDate,
		EndDate:        endDate,
		MaxResults:     exploreMaxResults,
		IncludeDomains: a.includeDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("exploration search: %w", err)
	}

	exploration := make([]ExplorationResult, 0, len(results))
	for _, r := range results {
		exploration = append(exploration, ExplorationResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: truncate(r.Content, explorationSnippetCap),
		})
	}

	a.logger.Info("found %d articles to analyze", len(exploration))
	return map[string]any{keyExplorationResults: exploration}, nil
}
