// Package report wraps a finished digest with run metadata and renders
// it to JSON, Markdown, plain text, or HTML.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/newsloop/newsloop/agent"
)

// Formats the converter understands.
const (
	FormatMarkdown = "md"
	FormatText     = "txt"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// AllFormats lists every renderable format, JSON excluded since the
// JSON file is the source the others are derived from.
var AllFormats = []string{FormatMarkdown, FormatText, FormatHTML}

// Report is the primary output of a run: the digest plus enough
// metadata to make the file self-describing.
type Report struct {
	GeneratedAt string       `json:"generated_at"`
	Objective   string       `json:"objective"`
	PeriodStart string       `json:"period_start"`
	PeriodEnd   string       `json:"period_end"`
	Digest      agent.Digest `json:"digest"`
}

// New builds a Report stamped with the current time.
func New(digest agent.Digest, objective, periodStart, periodEnd string) *Report {
	return &Report{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Objective:   objective,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Digest:      digest,
	}
}

// Load reads a JSON report from disk.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: parsing %s: %w", path, err)
	}
	return &r, nil
}

// Basename derives the period-based file name stem, without extension.
func (r *Report) Basename() string {
	return fmt.Sprintf("reporte_%s_%s", r.PeriodStart, r.PeriodEnd)
}

// ToMarkdown renders the report as Markdown.
func (r *Report) ToMarkdown() string {
	var b strings.Builder
	b.WriteString("# News Research Report\n\n")
	fmt.Fprintf(&b, "*Generated: %s*\n\n", r.GeneratedAt)
	fmt.Fprintf(&b, "**Objective:** %s\n\n", r.Objective)
	fmt.Fprintf(&b, "**Period:** %s to %s\n\n", r.PeriodStart, r.PeriodEnd)
	b.WriteString("---\n\n")

	for _, section := range r.Digest.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section.Title)
		fmt.Fprintf(&b, "%s\n\n", section.Article)
		b.WriteString("**Sources:**\n\n")
		for _, source := range section.Sources {
			fmt.Fprintf(&b, "- %s\n", source)
		}
		b.WriteString("\n---\n\n")
	}
	return b.String()
}

// ToPlainText renders the report as plain text.
func (r *Report) ToPlainText() string {
	sep := strings.Repeat("=", 60)

	var b strings.Builder
	b.WriteString(sep + "\n")
	b.WriteString("NEWS RESEARCH REPORT\n")
	b.WriteString(sep + "\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt)
	fmt.Fprintf(&b, "Objective: %s\n", r.Objective)
	fmt.Fprintf(&b, "Period:    %s to %s\n", r.PeriodStart, r.PeriodEnd)
	b.WriteString(sep + "\n\n")

	for i, section := range r.Digest.Sections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, section.Title)
		fmt.Fprintf(&b, "   %s\n", section.Article)
		b.WriteString("   Sources:\n")
		for _, source := range section.Sources {
			fmt.Fprintf(&b, "     - %s\n", source)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ToHTML renders the Markdown form to a standalone HTML document.
func (r *Report) ToHTML() string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage,
		Title: "News Research Report",
	})
	return string(markdown.ToHTML([]byte(r.ToMarkdown()), p, renderer))
}

// Render returns the report in the requested format.
func (r *Report) Render(format string) (string, error) {
	switch format {
	case FormatMarkdown:
		return r.ToMarkdown(), nil
	case FormatText:
		return r.ToPlainText(), nil
	case FormatHTML:
		return r.ToHTML(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("report: unsupported format %q", format)
	}
}

// Save writes the report in the given formats into dir, named by the
// report period, and copies the JSON source alongside. It returns the
// written paths.
func (r *Report) Save(dir string, formats ...string) ([]string, error) {
	if len(formats) == 0 {
		formats = []string{FormatMarkdown}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	formats = append(formats, FormatJSON)
	written := make([]string, 0, len(formats))
	for _, format := range formats {
		content, err := r.Render(format)
		if err != nil {
			return written, err
		}
		dest := filepath.Join(dir, r.Basename()+"."+format)
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			return written, fmt.Errorf("report: %w", err)
		}
		written = append(written, dest)
	}
	return written, nil
}
