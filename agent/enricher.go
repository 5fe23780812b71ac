package agent

import (
	"context"

	"github.com/newsloop/newsloop/graph"
)

// Label schema sent to the entity extraction service.
var nerLabels = []string{
	"PERSON",
	"ORGANIZATION",
	"LOCATION",
	"PRODUCT",
	"MONEY",
	"EVENT",
	"DATE",
}

const minEnrichableContent = 20

// enrichContent attaches named entities to every collected source. A
// source the extractor rejects or returns nothing for keeps an empty
// entity map; enrichment failures never abort the run.
func (a *Agent) enrichContent(ctx context.Context, state map[string]any) (map[string]any, error) {
	enriched := make([]TopicContent, 0, len(rawContentOf(state)))
	totalEntities := 0

	for _, topicData := range rawContentOf(state) {
		sources := make([]SourceRecord, 0, len(topicData.Sources))
		for _, source := range topicData.Sources {
			if len(source.Content) < minEnrichableContent {
				source.Entities = map[string][]string{}
				sources = append(sources, source)
				continue
			}

			clean := truncate(sanitizeForNER(source.Content), sanitizeCap)
			entities, err := a.entities.Extract(ctx, clean, nerLabels)
			if err != nil {
				a.logger.Warn("no entities for %q: %v", truncate(source.Title, 80), err)
				source.Entities = map[string][]string{}
				sources = append(sources, source)
				continue
			}

			grouped := map[string][]string{}
			for _, entity := range entities {
				if entity.Text == "" {
					continue
				}
				label := entity.Label
				if label == "" {
					label = "OTHER"
				}
				grouped[label] = append(grouped[label], entity.Text)
				totalEntities++
			}
			source.Entities = grouped
			sources = append(sources, source)
		}
		topicData.Sources = sources
		enriched = append(enriched, topicData)
	}

	a.logger.Info("extracted %d entities across all articles", totalEntities)
	return map[string]any{keyRawContent: graph.Replace(enriched)}, nil
}
