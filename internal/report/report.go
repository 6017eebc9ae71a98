// Package report defines the scan output document and its JSON and
// markdown renderings.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
	"github.com/steph-dove/conventions/internal/ratings"
)

// Version identifies the report document format.
const Version = 1

// Entry pairs a detector result with its rating.
type Entry struct {
	Result *detect.Result `json:"result"`
	Rating ratings.Rating `json:"rating"`
}

// Meta describes the scan that produced a report.
type Meta struct {
	Root         string           `json:"root"`
	Languages    []facts.Language `json:"languages"`
	FilesScanned int              `json:"files_scanned"`
	Duration     time.Duration    `json:"duration_ns"`
	GeneratedAt  time.Time        `json:"generated_at"`
	AverageScore float64          `json:"average_score"`
	CacheHits    int              `json:"cache_hits"`
	CacheMisses  int              `json:"cache_misses"`
}

// Report is the full scan outcome: rated convention entries plus the
// non-fatal warnings accumulated along the way.
type Report struct {
	Version  int              `json:"version"`
	Meta     Meta             `json:"meta"`
	Entries  []Entry          `json:"entries"`
	Warnings []detect.Warning `json:"warnings"`
}

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteMarkdown renders the report as a human-readable markdown document.
func WriteMarkdown(w io.Writer, r *Report) error {
	var b strings.Builder

	b.WriteString("# Code Conventions Report\n\n")
	b.WriteString(fmt.Sprintf("- **Repository:** %s\n", r.Meta.Root))
	if len(r.Meta.Languages) > 0 {
		langs := make([]string, len(r.Meta.Languages))
		for i, l := range r.Meta.Languages {
			langs[i] = string(l)
		}
		b.WriteString(fmt.Sprintf("- **Languages:** %s\n", strings.Join(langs, ", ")))
	}
	b.WriteString(fmt.Sprintf("- **Files scanned:** %d\n", r.Meta.FilesScanned))
	b.WriteString(fmt.Sprintf("- **Average score:** %.1f/5\n", r.Meta.AverageScore))
	b.WriteString(fmt.Sprintf("- **Generated:** %s\n\n", r.Meta.GeneratedAt.Format(time.RFC3339)))

	if len(r.Entries) > 0 {
		b.WriteString("## Conventions\n\n")
		b.WriteString("| Rule | Score | Title | Confidence |\n")
		b.WriteString("|------|-------|-------|------------|\n")
		for _, e := range r.Entries {
			b.WriteString(fmt.Sprintf("| %s | %d (%s) | %s | %d%% |\n",
				e.Result.RuleID, e.Rating.Score, e.Rating.Label, e.Result.Title, e.Result.Confidence))
		}
		b.WriteString("\n")

		for _, e := range r.Entries {
			b.WriteString(fmt.Sprintf("### %s\n\n", e.Result.Title))
			b.WriteString(fmt.Sprintf("`%s`", e.Result.RuleID))
			if e.Result.Language != "" {
				b.WriteString(fmt.Sprintf(" · %s", e.Result.Language))
			}
			b.WriteString(fmt.Sprintf(" · score %d/5 (%s)\n\n", e.Rating.Score, e.Rating.Label))
			b.WriteString(e.Result.Summary + "\n\n")
			b.WriteString(fmt.Sprintf("**Why this score:** %s\n\n", e.Rating.Reason))
			if e.Rating.Suggestion != "" {
				b.WriteString(fmt.Sprintf("**Suggestion:** %s\n\n", e.Rating.Suggestion))
			}
			for _, ev := range e.Result.Evidence {
				b.WriteString(fmt.Sprintf("`%s:%d-%d`\n\n```\n%s\n```\n\n", ev.File, ev.StartLine, ev.EndLine, ev.Excerpt))
			}
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, wrn := range r.Warnings {
			b.WriteString(fmt.Sprintf("- **%s**: %s\n", wrn.Source, wrn.Message))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
