package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const entitySummaryValueCap = 15

const analystPromptTemplate = `You are a professional news analyst.
Today's date is %s.

Report objective: %s
%s
Your task is to generate a structured news summary.
For each relevant topic, write:
1. A descriptive title
2. An article of 100 to 150 words summarizing the key points with concrete data (figures, companies, locations)
3. List the URLs of the external sources used (field "sources"); include video URLs where relevant
%s
Use the entity data above (if present) to ensure your report references
specific people, organisations, monetary amounts, and locations by name.

If video analysis is provided below, integrate its insights into the relevant sections and include the video URLs in the "sources" field.

Collected news data:
%s%s
`

// finalize turns the accumulated evidence into the final digest. It is
// the sink of the graph; the digest is set exactly once, here.
func (a *Agent) finalize(ctx context.Context, state map[string]any) (map[string]any, error) {
	objective := stateString(state, keyObjective)
	researchContext := stateString(state, keyContext)
	rawContent := rawContentOf(state)
	visualAnalysis := visualAnalysisOf(state)

	contextBlock := ""
	if researchContext != "" {
		contextBlock = fmt.Sprintf("\nResearch context: %s\n", researchContext)
	}

	entitySection := ""
	if block := buildEntitySummary(rawContent); block != "" {
		entitySection = "\n\n" + block + "\n"
	}

	videoContext := ""
	if len(visualAnalysis) > 0 {
		var b strings.Builder
		b.WriteString("\n\nANALYZED VIDEO CONTENT:\n")
		for _, va := range visualAnalysis {
			fmt.Fprintf(&b, "\nVideo: %s\nURL: %s\nAnalysis: %s\n", va.VideoTitle, va.VideoURL, va.Analysis)
		}
		videoContext = b.String()
	}

	collected, err := json.MarshalIndent(rawContent, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing collected content: %w", err)
	}

	prompt := fmt.Sprintf(analystPromptTemplate,
		time.Now().Format("2006-01-02"),
		objective, contextBlock, entitySection, collected, videoContext)

	digest, err := a.llm.Compose(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("composing digest: %w", err)
	}

	a.logger.Info("report generated with %d sections", len(digest.Sections))
	return map[string]any{keyDigest: digest}, nil
}

// buildEntitySummary aggregates extracted entities by label across all
// sources, deduplicated and sorted, a bounded number of values per label.
func buildEntitySummary(rawContent []TopicContent) string {
	byLabel := map[string]map[string]bool{}
	for _, topicData := range rawContent {
		for _, source := range topicData.Sources {
			for label, values := range source.Entities {
				if byLabel[label] == nil {
					byLabel[label] = map[string]bool{}
				}
				for _, v := range values {
					byLabel[label][v] = true
				}
			}
		}
	}
	if len(byLabel) == 0 {
		return ""
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	lines := []string{"KEY ENTITIES EXTRACTED:"}
	for _, label := range labels {
		values := make([]string, 0, len(byLabel[label]))
		for v := range byLabel[label] {
			values = append(values, v)
		}
		sort.Strings(values)
		if len(values) > entitySummaryValueCap {
			values = values[:entitySummaryValueCap]
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", label, strings.Join(values, ", ")))
	}
	return strings.Join(lines, "\n")
}
