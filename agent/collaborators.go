package agent

import (
	"context"

	"github.com/newsloop/newsloop/pioneer"
	"github.com/newsloop/newsloop/tavily"
)

// LLM produces the structured outputs that steer the run. Implementations
// must return schema-conformant values or an error; malformed model output
// is never coerced.
type LLM interface {
	Plan(ctx context.Context, prompt string) (SearchPlan, error)
	Evaluate(ctx context.Context, prompt string) (Evaluation, error)
	Compose(ctx context.Context, prompt string) (Digest, error)
}

// SearchClient is the news search and content extraction collaborator.
type SearchClient interface {
	Search(ctx context.Context, req tavily.SearchRequest) ([]tavily.Result, error)
	Extract(ctx context.Context, urls []string) (*tavily.ExtractResponse, error)
}

// EntityExtractor runs named-entity recognition over sanitized article text.
type EntityExtractor interface {
	Extract(ctx context.Context, text string, labels []string) ([]pioneer.Entity, error)
}

// VideoAnalyzer is the video understanding collaborator. Uploaded videos
// must be deleted after analysis whether or not it succeeded.
type VideoAnalyzer interface {
	Upload(ctx context.Context, videoURL, name string) (string, error)
	WaitForIndexing(ctx context.Context, videoID string) error
	Ask(ctx context.Context, videoID, question string) (string, error)
	Delete(ctx context.Context, videoID string) error
}
