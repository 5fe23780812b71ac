package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsloop/newsloop/tavily"
)

func TestExtractYouTubeURLs(t *testing.T) {
	results := []tavily.Result{
		{URL: "https://www.youtube.com/watch?v=abc_123", Title: "direct hit", Content: "a video about rates"},
		{URL: "https://youtu.be/short-id", Title: "short link"},
		{URL: "https://blog.example.com/post", Title: "blog post", Content: "watch it at https://youtube.com/watch?v=embed99 for details"},
		{URL: "https://news.example.com/article", Title: "plain article", Content: "no videos here"},
	}

	videos := extractYouTubeURLs(results, map[string]bool{})
	require.Len(t, videos, 3)

	assert.Equal(t, "https://www.youtube.com/watch?v=abc_123", videos[0].URL)
	assert.Equal(t, "youtube", videos[0].Source)

	assert.Equal(t, "https://www.youtube.com/watch?v=short-id", videos[1].URL)

	assert.Equal(t, "https://www.youtube.com/watch?v=embed99", videos[2].URL)
	assert.Equal(t, "embedded", videos[2].Source)
	assert.Equal(t, "(embedded) blog post", videos[2].Title)
}

func TestExtractYouTubeURLsDeduplicates(t *testing.T) {
	results := []tavily.Result{
		{URL: "https://www.youtube.com/watch?v=dup", Title: "first"},
		{URL: "https://youtu.be/dup", Title: "same video, short form"},
	}

	videos := extractYouTubeURLs(results, map[string]bool{})
	require.Len(t, videos, 1)
	assert.Equal(t, "first", videos[0].Title)
}

func TestSanitizeForNERStripsMarkup(t *testing.T) {
	in := `<div><h1>Big Deal</h1><p>Acme &amp; Co raised $5M.</p></div>
![chart](https://img.example.com/c.png)
## Funding round
Read [the filing](https://example.com/filing) at https://example.com/more
控制` + "\x07" + ` characters`

	out := sanitizeForNER(in)

	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, "https://")
	assert.NotContains(t, out, "![")
	assert.NotContains(t, out, "##")
	assert.NotContains(t, out, "\x07")
	assert.Contains(t, out, "Acme & Co raised $5M.")
	assert.Contains(t, out, "the filing")
}

func TestSanitizeForNERStripsControlRange(t *testing.T) {
	out := sanitizeForNER("high\x7fand\u009fcontrol bytes, a well-known range")

	assert.NotContains(t, out, "\x7f")
	assert.NotContains(t, out, "\u009f")
	// The hyphen is a range separator in the class, not a member.
	assert.Contains(t, out, "well-known")
}

func TestSanitizeForNERCollapsesWhitespace(t *testing.T) {
	out := sanitizeForNER("too    many\t\tspaces\n\n\n\n\nand newlines")
	assert.Contains(t, out, "too many")
	assert.NotContains(t, out, "\n\n\n")
}
