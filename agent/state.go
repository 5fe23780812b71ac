package agent

import (
	"github.com/newsloop/newsloop/graph"
)

// MaxSearchIterations bounds the search retry loop. The router forces
// finalization once the counter reaches this value regardless of the
// evaluator's verdict.
const MaxSearchIterations = 2

// State keys. Every key carries a registered merge rule in Schema();
// updates touching any other key fail the run.
const (
	keyObjective          = "objective"
	keyContext            = "context"
	keyStartDate          = "start_date"
	keyEndDate            = "end_date"
	keyExplorationResults = "exploration_results"
	keyTopics             = "topics"
	keyPlanningReasoning  = "planning_reasoning"
	keyRawContent         = "raw_content"
	keyEvaluation         = "evaluation"
	keySearchIterations   = "search_iterations"
	keyVideoSources       = "video_sources"
	keyVisualAnalysis     = "visual_analysis"
	keyDigest             = "digest"
)

// ExplorationResult is one headline from the broad exploration pass.
type ExplorationResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SourceRecord is a single article collected for a topic. Entities is
// populated by the enrich stage and stays empty until then.
type SourceRecord struct {
	URL           string              `json:"url"`
	Title         string              `json:"title"`
	Content       string              `json:"content"`
	PublishedDate string              `json:"published_date"`
	Entities      map[string][]string `json:"entities,omitempty"`
}

// TopicContent groups the sources found for one search topic. A topic
// may appear more than once across search iterations.
type TopicContent struct {
	Topic   string         `json:"topic"`
	Sources []SourceRecord `json:"sources"`
}

// SearchPlan is the planner's structured output.
type SearchPlan struct {
	Topics    []string `json:"topics"`
	Reasoning string   `json:"reasoning"`
}

// Evaluation is the evaluator's structured verdict on coverage.
type Evaluation struct {
	IsSufficient  bool     `json:"is_sufficient"`
	MissingTopics []string `json:"missing_topics"`
	Reasoning     string   `json:"reasoning"`
}

// VideoSource is a candidate video found by the video search stage.
type VideoSource struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// VisualInsight is the analysis produced for one video.
type VisualInsight struct {
	VideoURL    string `json:"video_url"`
	VideoTitle  string `json:"video_title"`
	Analysis    string `json:"analysis"`
	SourceTopic string `json:"source_topic"`
}

// TopicSection is one section of the final digest.
type TopicSection struct {
	Title          string          `json:"title"`
	Article        string          `json:"article"`
	Sources        []string        `json:"sources"`
	VisualInsights []VisualInsight `json:"visual_insights,omitempty"`
}

// Digest is the final structured report, set exactly once by the
// finalize stage.
type Digest struct {
	Sections []TopicSection `json:"sections"`
}

// Schema returns the merge contract for a research run: append rules
// for the accumulated collections, overwrite for everything else.
func Schema() *graph.MapSchema {
	s := graph.NewMapSchema()
	for _, key := range []string{
		keyObjective,
		keyContext,
		keyStartDate,
		keyEndDate,
		keyExplorationResults,
		keyTopics,
		keyPlanningReasoning,
		keyEvaluation,
		keySearchIterations,
		keyDigest,
	} {
		s.RegisterReducer(key, graph.OverwriteReducer)
	}
	for _, key := range []string{keyRawContent, keyVideoSources, keyVisualAnalysis} {
		s.RegisterReducer(key, graph.AppendReducer)
	}
	return s
}

// InitialState builds the per-run state map. All collection fields
// start empty and the digest is absent until the finalize stage runs.
func InitialState(objective, researchContext, startDate, endDate string) map[string]any {
	return map[string]any{
		keyObjective:          objective,
		keyContext:            researchContext,
		keyStartDate:          startDate,
		keyEndDate:            endDate,
		keyExplorationResults: []ExplorationResult{},
		keyTopics:             []string{},
		keyPlanningReasoning:  "",
		keyRawContent:         []TopicContent{},
		keySearchIterations:   0,
		keyVideoSources:       []VideoSource{},
		keyVisualAnalysis:     []VisualInsight{},
	}
}

func stateString(state map[string]any, key string) string {
	v, _ := state[key].(string)
	return v
}

func explorationResultsOf(state map[string]any) []ExplorationResult {
	v, _ := state[keyExplorationResults].([]ExplorationResult)
	return v
}

func topicsOf(state map[string]any) []string {
	v, _ := state[keyTopics].([]string)
	return v
}

func rawContentOf(state map[string]any) []TopicContent {
	v, _ := state[keyRawContent].([]TopicContent)
	return v
}

// evaluationOf returns nil before the first evaluation pass.
func evaluationOf(state map[string]any) *Evaluation {
	v, ok := state[keyEvaluation].(Evaluation)
	if !ok {
		return nil
	}
	return &v
}

func searchIterationsOf(state map[string]any) int {
	v, _ := state[keySearchIterations].(int)
	return v
}

func videoSourcesOf(state map[string]any) []VideoSource {
	v, _ := state[keyVideoSources].([]VideoSource)
	return v
}

func visualAnalysisOf(state map[string]any) []VisualInsight {
	v, _ := state[keyVisualAnalysis].([]VisualInsight)
	return v
}

// DigestOf extracts the final digest from a finished run's state, or
// nil when the run never reached the finalize stage.
func DigestOf(state map[string]any) *Digest {
	v, ok := state[keyDigest].(Digest)
	if !ok {
		return nil
	}
	return &v
}
