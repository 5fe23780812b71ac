// Package agent implements an autonomous news research pipeline: it
// explores current news, plans targeted searches, collects and enriches
// article content, analyzes related videos, evaluates coverage with a
// bounded retry loop, and composes a structured digest.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/newsloop/newsloop/graph"
	"github.com/newsloop/newsloop/log"
)

// Node names in the research graph.
const (
	nodeExplore      = "explore"
	nodePlan         = "plan"
	nodeSearch       = "search"
	nodeExtract      = "extract"
	nodeEnrich       = "enrich"
	nodeVideoSearch  = "video_search"
	nodeVideoAnalyze = "video_analyze"
	nodeEvaluate     = "evaluate"
	nodeRetryUpdate  = "retry_update"
	nodeFinalize     = "finalize"
)

// ErrNoObjective is returned when a run is started without an objective.
var ErrNoObjective = errors.New("agent: objective is required")

// Agent drives one research run at a time over a fixed topology. All
// external services are injected as interfaces; the agent holds no
// global state, so independent runs may share an Agent value.
type Agent struct {
	llm      LLM
	search   SearchClient
	entities EntityExtractor
	videos   VideoAnalyzer
	logger   log.Logger

	maxSearchIterations int
	maxVideos           int
	maxVideosPerTopic   int
	includeDomains      []string
	videoFallbackQuery  func(objective string) string

	checkpoints graph.CheckpointStore
	stepHandler func(node string, state map[string]any)

	runnable *graph.Runnable
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger overrides the default logger.
func WithLogger(l log.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithCheckpointStore enables per-step state snapshots.
func WithCheckpointStore(store graph.CheckpointStore) Option {
	return func(a *Agent) { a.checkpoints = store }
}

// WithStepHandler registers a callback invoked after every completed
// step with the node name and the merged state. Used for progress
// streaming.
func WithStepHandler(fn func(node string, state map[string]any)) Option {
	return func(a *Agent) { a.stepHandler = fn }
}

// WithMaxSearchIterations overrides the search loop bound.
func WithMaxSearchIterations(n int) Option {
	return func(a *Agent) { a.maxSearchIterations = n }
}

// WithMaxVideos caps the total number of videos analyzed per run.
func WithMaxVideos(n int) Option {
	return func(a *Agent) { a.maxVideos = n }
}

// WithMaxVideosPerTopic caps videos taken from a single topic's search.
func WithMaxVideosPerTopic(n int) Option {
	return func(a *Agent) { a.maxVideosPerTopic = n }
}

// WithIncludeDomains restricts news searches to the given domains.
func WithIncludeDomains(domains []string) Option {
	return func(a *Agent) { a.includeDomains = domains }
}

// WithVideoFallbackQuery sets the broad query used when no topic-scoped
// video search finds anything. A nil policy disables the fallback.
func WithVideoFallbackQuery(fn func(objective string) string) Option {
	return func(a *Agent) { a.videoFallbackQuery = fn }
}

// New builds an Agent and compiles its graph.
func New(llm LLM, search SearchClient, entities EntityExtractor, videos VideoAnalyzer, opts ...Option) (*Agent, error) {
	a := &Agent{
		llm:                 llm,
		search:              search,
		entities:            entities,
		videos:              videos,
		logger:              log.GetDefaultLogger(),
		maxSearchIterations: MaxSearchIterations,
		maxVideos:           DefaultMaxVideos,
		maxVideosPerTopic:   DefaultMaxVideosPerTopic,
		videoFallbackQuery: func(objective string) string {
			return fmt.Sprintf("%s news video YouTube", objective)
		},
	}
	for _, opt := range opts {
		opt(a)
	}

	runnable, err := a.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	if a.checkpoints != nil {
		runnable.SetCheckpointStore(a.checkpoints)
	}
	if a.stepHandler != nil {
		runnable.SetStepHandler(a.stepHandler)
	}
	a.runnable = runnable
	return a, nil
}

// buildGraph wires the fixed topology: a sequential chain into a
// fan-out after extract (enrichment branch alongside the video branch),
// a fan-in before evaluate, and the bounded retry loop back to search.
func (a *Agent) buildGraph() (*graph.Runnable, error) {
	g := graph.NewStateGraph()
	g.SetSchema(Schema())

	g.AddNode(nodeExplore, "broad news exploration", a.explore)
	g.AddNode(nodePlan, "derive search topics from headlines", a.plan)
	g.AddNode(nodeSearch, "deep per-topic news search", a.searchNews)
	g.AddNode(nodeExtract, "extract full article content", a.extractContent)
	g.AddNode(nodeEnrich, "named-entity enrichment", a.enrichContent)
	g.AddNode(nodeVideoSearch, "find related videos", a.searchVideos)
	g.AddNode(nodeVideoAnalyze, "video understanding", a.analyzeVideos)
	g.AddNode(nodeEvaluate, "assess coverage", a.evaluate)
	g.AddNode(nodeRetryUpdate, "swap in missing topics", a.retryUpdate)
	g.AddNode(nodeFinalize, "compose the digest", a.finalize)

	g.SetEntryPoint(nodeExplore)
	g.AddEdge(nodeExplore, nodePlan)
	g.AddEdge(nodePlan, nodeSearch)
	g.AddEdge(nodeSearch, nodeExtract)

	// The enrichment branch is declared first so its updates merge
	// ahead of the video branch's, keeping output reproducible no
	// matter which branch finishes first.
	g.AddFanOut(nodeExtract, [][]string{
		{nodeEnrich},
		{nodeVideoSearch, nodeVideoAnalyze},
	}, nodeEvaluate)

	g.AddConditionalEdge(nodeEvaluate, func(ctx context.Context, state map[string]any) string {
		return route(evaluationOf(state), searchIterationsOf(state), a.maxSearchIterations)
	})
	g.AddEdge(nodeRetryUpdate, nodeSearch)
	g.AddEdge(nodeFinalize, graph.END)

	return g.Compile()
}

// Request describes one research run.
type Request struct {
	Objective string
	Context   string
	StartDate string
	EndDate   string
}

// Result is the outcome of a completed run.
type Result struct {
	Digest           Digest
	RawContent       []TopicContent
	VisualAnalysis   []VisualInsight
	SearchIterations int
}

// Run executes a full research run. Any stage failure aborts the run
// with the failing node's name in the error; there is no partial digest.
func (a *Agent) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Objective == "" {
		return nil, ErrNoObjective
	}

	a.logger.Info("starting research: %s (%s to %s)", req.Objective, req.StartDate, req.EndDate)

	final, err := a.runnable.Invoke(ctx, InitialState(req.Objective, req.Context, req.StartDate, req.EndDate))
	if err != nil {
		return nil, err
	}

	digest := DigestOf(final)
	if digest == nil {
		return nil, errors.New("agent: run finished without a digest")
	}
	return &Result{
		Digest:           *digest,
		RawContent:       rawContentOf(final),
		VisualAnalysis:   visualAnalysisOf(final),
		SearchIterations: searchIterationsOf(final),
	}, nil
}
