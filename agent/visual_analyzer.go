package agent

import (
	"context"
	"fmt"
	"hash/fnv"
)

const videoQuestionTemplate = `Context: this video relates to news about: %s.
Research objective: %s.

Analyze the video and provide:
1. A summary of the main content
2. Key data: figures, companies, locations, dates
3. People who appear and what they say
4. Relevant conclusions or trends

Be concise and structured.`

// analyzeVideos runs the upload, index, question, delete cycle for every
// candidate video. A video that fails to upload or index is skipped; the
// indexed copy is always deleted, analysis or not.
func (a *Agent) analyzeVideos(ctx context.Context, state map[string]any) (map[string]any, error) {
	videoSources := videoSourcesOf(state)
	objective := stateString(state, keyObjective)

	if len(videoSources) == 0 {
		a.logger.Info("no videos to analyze")
		return map[string]any{keyVisualAnalysis: []VisualInsight{}}, nil
	}

	insights := make([]VisualInsight, 0, len(videoSources))
	for i, video := range videoSources {
		topic := truncate(video.Snippet, 200)
		if topic == "" {
			topic = objective
		}
		a.logger.Info("analyzing video %d/%d: %s", i+1, len(videoSources), truncate(video.Title, 60))

		videoID, err := a.videos.Upload(ctx, video.URL, videoUploadName(i+1, video.URL))
		if err != nil {
			a.logger.Warn("upload failed for %s: %v", video.URL, err)
			continue
		}

		if err := a.videos.WaitForIndexing(ctx, videoID); err != nil {
			a.logger.Warn("indexing failed for %s: %v", video.URL, err)
			a.deleteVideo(ctx, videoID)
			continue
		}

		question := fmt.Sprintf(videoQuestionTemplate, topic, objective)
		analysis, err := a.videos.Ask(ctx, videoID, question)
		if err != nil {
			a.logger.Warn("video QA failed for %s: %v", video.URL, err)
		} else if analysis != "" {
			insights = append(insights, VisualInsight{
				VideoURL:    video.URL,
				VideoTitle:  video.Title,
				Analysis:    analysis,
				SourceTopic: truncate(topic, 100),
			})
		}

		a.deleteVideo(ctx, videoID)
	}

	a.logger.Info("videos analyzed: %d/%d", len(insights), len(videoSources))
	return map[string]any{keyVisualAnalysis: insights}, nil
}

func (a *Agent) deleteVideo(ctx context.Context, videoID string) {
	if err := a.videos.Delete(ctx, videoID); err != nil {
		a.logger.Warn("failed to delete video %s: %v", videoID, err)
	}
}

func videoUploadName(n int, url string) string {
	h := fnv.New32a()
	h.Write([]byte(url))
	return fmt.Sprintf("news_%d_%d", n, h.Sum32()%100000)
}
