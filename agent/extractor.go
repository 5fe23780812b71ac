package agent

import (
	"context"
	"slices"

	"github.com/newsloop/newsloop/graph"
)

const extractContentCap = 3000

// extractContent replaces each source's search snippet with the full
// extracted article text. URLs the extraction service fails on are
// dropped from their topic rather than retried; a failed batch call
// degrades to keeping the search snippets for that topic.
func (a *Agent) extractContent(ctx context.Context, state map[string]any) (map[string]any, error) {
	enriched := make([]TopicContent, 0, len(rawContentOf(state)))

	for _, topicData := range rawContentOf(state) {
		urls := make([]string, 0, len(topicData.Sources))
		for _, source := range topicData.Sources {
			urls = append(urls, source.URL)
		}
		if len(urls) == 0 {
			enriched = append(enriched, topicData)
			continue
		}

		resp, err := a.search.Extract(ctx, urls)
		if err != nil {
			a.logger.Warn("extraction failed for topic %q: %v", topicData.Topic, err)
			enriched = append(enriched, topicData)
			continue
		}

		extracted := make(map[string]string, len(resp.Results))
		for _, r := range resp.Results {
			extracted[r.URL] = r.RawContent
		}

		kept := make([]SourceRecord, 0, len(topicData.Sources))
		for _, source := range topicData.Sources {
			if slices.Contains(resp.FailedURLs, source.URL) {
				a.logger.Debug("dropping failed extraction: %s", source.URL)
				continue
			}
			if content, ok := extracted[source.URL]; ok && content != "" {
				source.Content = truncate(content, extractContentCap)
			}
			kept = append(kept, source)
		}
		topicData.Sources = kept
		enriched = append(enriched, topicData)
	}

	return map[string]any{keyRawContent: graph.Replace(enriched)}, nil
}
