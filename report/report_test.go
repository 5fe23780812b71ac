package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsloop/newsloop/agent"
)

func sampleReport() *Report {
	return &Report{
		GeneratedAt: "2026-02-27T18:00:00Z",
		Objective:   "industrial real estate news",
		PeriodStart: "2026-02-01",
		PeriodEnd:   "2026-02-27",
		Digest: agent.Digest{Sections: []agent.TopicSection{
			{
				Title:   "Industrial park expansion",
				Article: "Acme announced a 120,000 sqm industrial park.",
				Sources: []string{"https://news.example.com/1", "https://www.youtube.com/watch?v=abc"},
			},
			{
				Title:   "Office vacancy falls",
				Article: "Vacancy dropped to 12.4% in Q1.",
				Sources: []string{"https://news.example.com/2"},
			},
		}},
	}
}

func TestToMarkdown(t *testing.T) {
	md := sampleReport().ToMarkdown()

	assert.Contains(t, md, "# News Research Report")
	assert.Contains(t, md, "**Objective:** industrial real estate news")
	assert.Contains(t, md, "**Period:** 2026-02-01 to 2026-02-27")
	assert.Contains(t, md, "## Industrial park expansion")
	assert.Contains(t, md, "- https://news.example.com/1")

	// Deterministic for a fixed report.
	assert.Equal(t, md, sampleReport().ToMarkdown())
}

func TestToPlainText(t *testing.T) {
	txt := sampleReport().ToPlainText()

	assert.Contains(t, txt, "NEWS RESEARCH REPORT")
	assert.Contains(t, txt, "1. Industrial park expansion")
	assert.Contains(t, txt, "2. Office vacancy falls")
	assert.Contains(t, txt, "     - https://news.example.com/2")
	assert.NotContains(t, txt, "#")
}

func TestToHTML(t *testing.T) {
	html := sampleReport().ToHTML()

	assert.Contains(t, html, "<html>")
	assert.Contains(t, html, "News Research Report")
	assert.Contains(t, html, "<h2")
	assert.Contains(t, html, "Industrial park expansion")
}

func TestRenderUnsupportedFormat(t *testing.T) {
	_, err := sampleReport().Render("docx")
	require.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport()

	written, err := r.Save(dir, AllFormats...)
	require.NoError(t, err)
	require.Len(t, written, 4, "three rendered formats plus the JSON source")

	for _, ext := range []string{"md", "txt", "html", "json"} {
		path := filepath.Join(dir, "reporte_2026-02-01_2026-02-27."+ext)
		_, err := os.Stat(path)
		assert.NoError(t, err, "expected %s", path)
	}

	loaded, err := Load(filepath.Join(dir, "reporte_2026-02-01_2026-02-27.json"))
	require.NoError(t, err)
	assert.Equal(t, r, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
