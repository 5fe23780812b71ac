package agent

import (
	"context"
	"fmt"
	"regexp"

	"github.com/newsloop/newsloop/tavily"
)

// Defaults for the video branch caps, overridable per agent.
const (
	DefaultMaxVideos         = 5
	DefaultMaxVideosPerTopic = 2
)

const videoSnippetCap = 300

var youtubeRE = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]+)`)

// searchVideos finds YouTube videos related to the planned topics. A
// failed per-topic search is skipped, never fatal; when no topic yields
// a video the configured fallback query runs once.
func (a *Agent) searchVideos(ctx context.Context, state map[string]any) (map[string]any, error) {
	topics := topicsOf(state)
	objective := stateString(state, keyObjective)

	var candidates []VideoSource
	seen := map[string]bool{}

	for _, topic := range topics {
		if len(candidates) >= a.maxVideos {
			break
		}
		query := fmt.Sprintf("%s video YouTube", topic)
		a.logger.Debug("searching videos: %s", query)

		results, err := a.search.Search(ctx, tavily.SearchRequest{
			Query:       query,
			SearchDepth: tavily.DepthBasic,
			Topic:       tavily.TopicNews,
			MaxResults:  5,
		})
		if err != nil {
			a.logger.Warn("video search for %q failed: %v", topic, err)
			continue
		}

		found := extractYouTubeURLs(results, seen)
		if len(found) > a.maxVideosPerTopic {
			found = found[:a.maxVideosPerTopic]
		}
		candidates = append(candidates, found...)
	}

	if len(candidates) == 0 && a.videoFallbackQuery != nil {
		query := a.videoFallbackQuery(objective)
		a.logger.Debug("video fallback search: %s", query)
		results, err := a.search.Search(ctx, tavily.SearchRequest{
			Query:       query,
			SearchDepth: tavily.DepthBasic,
			Topic:       tavily.TopicNews,
			MaxResults:  5,
		})
		if err != nil {
			a.logger.Warn("video fallback search failed: %v", err)
		} else {
			candidates = extractYouTubeURLs(results, seen)
		}
	}

	if len(candidates) > a.maxVideos {
		candidates = candidates[:a.maxVideos]
	}

	a.logger.Info("videos selected: %d", len(candidates))
	return map[string]any{keyVideoSources: candidates}, nil
}

// extractYouTubeURLs pulls YouTube links out of result URLs and out of
// links embedded in snippets, normalized and deduplicated via seen.
func extractYouTubeURLs(results []tavily.Result, seen map[string]bool) []VideoSource {
	var videos []VideoSource
	for _, r := range results {
		if m := youtubeRE.FindStringSubmatch(r.URL); m != nil {
			clean := "https://www.youtube.com/watch?v=" + m[1]
			if !seen[clean] {
				seen[clean] = true
				videos = append(videos, VideoSource{
					URL:     clean,
					Title:   r.Title,
					Snippet: truncate(r.Content, videoSnippetCap),
					Source:  "youtube",
				})
			}
			continue
		}
		for _, m := range youtubeRE.FindAllStringSubmatch(r.Content, -1) {
			clean := "https://www.youtube.com/watch?v=" + m[1]
			if seen[clean] {
				continue
			}
			seen[clean] = true
			videos = append(videos, VideoSource{
				URL:     clean,
				Title:   "(embedded) " + r.Title,
				Snippet: truncate(r.Content, videoSnippetCap),
				Source:  "embedded",
			})
		}
	}
	return videos
}
