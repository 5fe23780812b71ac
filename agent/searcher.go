package agent

import (
	"context"
	"fmt"

	"github.com/newsloop/newsloop/tavily"
)

const searchMaxResultsPerTopic = 5

// searchNews runs one deep, targeted search per topic. The new topic
// entries are appended to the accumulated raw content and the iteration
// counter advances by one; prior passes are never cleared.
func (a *Agent) searchNews(ctx context.Context, state map[string]any) (map[string]any, error) {
	startDate := stateString(state, keyStartDate)
	endDate := stateString(state, keyEndDate)
	iterations := searchIterationsOf(state)

	var collected []TopicContent
	for _, topic := range topicsOf(state) {
		query := fmt.Sprintf("%s news %s %s", topic, startDate, endDate)
		a.logger.Info("searching: %s", query)

		results, err := a.search.Search(ctx, tavily.SearchRequest{
			Query:          query,
			SearchDepth:    tavily.DepthAdvanced,
			Topic:          tavily.TopicNews,
			StartDate:      startDate,
			EndDate:        endDate,
			MaxResults:     searchMaxResultsPerTopic,
			IncludeDomains: a.includeDomains,
		})
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", topic, err)
		}

		sources := make([]SourceRecord, 0, len(results))
		for _, r := range results {
			sources = append(sources, SourceRecord{
				URL:           r.URL,
				Title:         r.Title,
				Content:       r.Content,
				PublishedDate: r.PublishedDate,
			})
		}
		collected = append(collected, TopicContent{Topic: topic, Sources: sources})
	}

	return map[string]any{
		keyRawContent:       collected,
		keySearchIterations: iterations + 1,
	}, nil
}
