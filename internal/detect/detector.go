// Package detect defines the detector abstraction: stateless analysis units
// that read a repository index and report one confidence-scored convention
// each, identified by a stable rule id.
package detect

import (
	"github.com/rs/zerolog"

	"github.com/steph-dove/conventions/internal/config"
	"github.com/steph-dove/conventions/internal/facts"
)

// MaxEvidence bounds the number of evidence snippets per result.
const MaxEvidence = 5

// EvidenceRadius is the default number of context lines around an evidence
// line.
const EvidenceRadius = 5

// Context is the read-only view handed to every detector: the repository
// index, the resolved configuration, and a scan-scoped logger. A fresh
// Context is created per orchestrator run and never shared across scans.
type Context struct {
	Repo   *facts.RepoIndex
	Config *config.Config
	Log    zerolog.Logger
}

// Result is the outcome of one detector invocation. Immutable once returned.
type Result struct {
	RuleID     string                  `json:"rule_id"`
	Category   string                  `json:"category"`
	Title      string                  `json:"title"`
	Summary    string                  `json:"summary"`
	Confidence int                     `json:"confidence"` // 0-100
	Language   facts.Language          `json:"language,omitempty"`
	Stats      *Stats                  `json:"stats"`
	Evidence   []facts.EvidenceSnippet `json:"evidence"`
}

// Warning records a non-fatal problem during a scan, tagged with the
// detector or component that produced it.
type Warning struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Detector is a named, stateless analysis unit. Implementations read only
// from the Context and must never mutate it.
type Detector interface {
	// RuleID returns the stable, globally unique rule identifier.
	RuleID() string
	// Languages returns the language tags this detector applies to.
	// Empty means language-agnostic.
	Languages() []facts.Language
	// ShouldRun is a cheap applicability check, evaluated before Detect.
	ShouldRun(ctx *Context) bool
	// Detect runs the analysis. A nil Result with nil error means the
	// detector found nothing to report.
	Detect(ctx *Context) (*Result, error)
}

// LanguagePresent reports whether any of the detector's languages appear in
// the indexed file set; an empty language list always passes. Most
// detectors implement ShouldRun with this.
func LanguagePresent(ctx *Context, langs []facts.Language) bool {
	if len(langs) == 0 {
		return ctx.Repo.Len() > 0
	}
	for _, l := range langs {
		if ctx.Repo.HasLanguage(l) {
			return true
		}
	}
	return false
}

// ClampConfidence bounds a confidence value to 0-100.
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// CapEvidence truncates an evidence list to MaxEvidence snippets.
func CapEvidence(ev []facts.EvidenceSnippet) []facts.EvidenceSnippet {
	if len(ev) > MaxEvidence {
		return ev[:MaxEvidence]
	}
	return ev
}
