package agent

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const evaluatorPromptTemplate = `You are a senior news editor assessing the coverage collected for a research report.

REPORT OBJECTIVE: %s
%s
REQUIRED PERIOD: %s to %s
SEARCH ITERATIONS: %d of %d maximum

COLLECTED CONTENT:
%s

TOTAL: %d topics, %d sources
SOURCES OUTSIDE THE DATE RANGE: %d of %d

EVALUATE RIGOROUSLY:
1. TOPIC COVERAGE: do the topics cover the sub-themes of the objective?
2. DATA QUALITY: are there concrete figures (amounts, percentages, named companies)? A topic without hard data is weak.
3. SOURCE DIVERSITY: are there at least 2 distinct sources per topic? A topic with a single source is weak.
4. RECENCY: sources outside the date range reduce quality. Penalize proportionally.

SUFFICIENCY CRITERIA:
- SUFFICIENT: at least 3 solid topics (concrete data plus 2 or more sources each) covering the objective's sub-themes
- INSUFFICIENT: fewer than 3 solid topics, or an uncovered sub-theme, or most sources outside the date range

If coverage is insufficient AND iterations remain, suggest 1-2 additional focused searches for what is missing.
If the iteration maximum has been reached, set is_sufficient to true.
`

// evaluate judges whether the accumulated evidence covers the objective
// and, when it does not, proposes replacement topics for the next pass.
func (a *Agent) evaluate(ctx context.Context, state map[string]any) (map[string]any, error) {
	objective := stateString(state, keyObjective)
	researchContext := stateString(state, keyContext)
	startDate := stateString(state, keyStartDate)
	endDate := stateString(state, keyEndDate)
	rawContent := rawContentOf(state)
	iterations := searchIterationsOf(state)

	totalSources := 0
	outOfRange := 0
	for _, item := range rawContent {
		for _, source := range item.Sources {
			totalSources++
			if source.PublishedDate != "" && !withinRange(source.PublishedDate, startDate, endDate) {
				outOfRange++
			}
		}
	}
	if outOfRange > 0 {
		a.logger.Warn("sources outside date range: %d/%d", outOfRange, totalSources)
	}

	var summary strings.Builder
	for _, item := range rawContent {
		fmt.Fprintf(&summary, "Topic: %s\nSources:\n", item.Topic)
		for i, source := range item.Sources {
			if i >= 3 {
				break
			}
			date := source.PublishedDate
			if date == "" {
				date = "no date"
			}
			fmt.Fprintf(&summary, "  - [%s] %s\n", date, truncate(source.Title, 100))
		}
		summary.WriteString("\n")
	}

	contextBlock := ""
	if researchContext != "" {
		contextBlock = fmt.Sprintf("\nResearch context: %s\n", researchContext)
	}

	prompt := fmt.Sprintf(evaluatorPromptTemplate,
		objective, contextBlock, startDate, endDate,
		iterations, a.maxSearchIterations,
		summary.String(),
		len(rawContent), totalSources, outOfRange, totalSources)

	evaluation, err := a.llm.Evaluate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("evaluating coverage: %w", err)
	}

	if evaluation.IsSufficient {
		a.logger.Info("coverage sufficient")
	} else {
		a.logger.Info("coverage insufficient, missing topics: %v", evaluation.MissingTopics)
	}

	return map[string]any{keyEvaluation: evaluation}, nil
}

var publishedDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02",
}

// withinRange reports whether a published date falls inside [start, end].
// Missing or unparseable dates get the benefit of the doubt.
func withinRange(published, start, end string) bool {
	if published == "" {
		return true
	}
	var pub time.Time
	parsed := false
	for _, layout := range publishedDateLayouts {
		if t, err := time.Parse(layout, published); err == nil {
			pub = t
			parsed = true
			break
		}
	}
	if !parsed {
		return true
	}

	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return true
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return true
	}

	// Compare UTC calendar days so a publisher's offset cannot shift a
	// date across the range boundary.
	y, m, d := pub.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !day.Before(from) && !day.After(to)
}

// route decides what follows an evaluation pass. It is the only branch
// point in the topology.
func route(evaluation *Evaluation, searchIterations, maxIterations int) string {
	if evaluation == nil {
		return nodeFinalize
	}
	if evaluation.IsSufficient {
		return nodeFinalize
	}
	if searchIterations >= maxIterations {
		return nodeFinalize
	}
	return nodeRetryUpdate
}

// retryUpdate replaces the topic list with the evaluator's missing
// topics before the loop re-enters the search stage.
func (a *Agent) retryUpdate(ctx context.Context, state map[string]any) (map[string]any, error) {
	evaluation := evaluationOf(state)
	if evaluation == nil || len(evaluation.MissingTopics) == 0 {
		return map[string]any{}, nil
	}
	a.logger.Info("retrying with %d additional topics", len(evaluation.MissingTopics))
	return map[string]any{keyTopics: evaluation.MissingTopics}, nil
}
