// Package pydetect holds Python convention detectors.
package pydetect

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

var pyOnly = []facts.Language{facts.LangPython}

// Typing measures type annotation coverage across non-test Python
// functions.
type Typing struct{}

func NewTyping() *Typing {
	return &Typing{}
}

func (d *Typing) RuleID() string {
	return "python.conventions.typing_coverage"
}

func (d *Typing) Languages() []facts.Language {
	return pyOnly
}

func (d *Typing) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, pyOnly)
}

func (d *Typing) Detect(ctx *detect.Context) (*detect.Result, error) {
	var total, annotated, fully int
	var typedRefs, untypedRefs []facts.Ref

	for _, idx := range ctx.Repo.FilesOf(facts.LangPython) {
		if idx.Role == facts.RoleTest {
			continue
		}
		for _, f := range idx.OfKind(facts.KindFunction) {
			// Single-underscore privates are out of scope; dunders count.
			if strings.HasPrefix(f.Name, "_") && !strings.HasPrefix(f.Name, "__") {
				continue
			}
			total++
			hasAny := f.TypedParams > 0 || f.HasReturnType
			if hasAny {
				annotated++
				if f.TypedParams == f.ParamCount && f.HasReturnType {
					fully++
				}
				if len(typedRefs) < 2 {
					typedRefs = append(typedRefs, facts.Ref{File: idx.File, Fact: f})
				}
			} else if len(untypedRefs) < 2 {
				untypedRefs = append(untypedRefs, facts.Ref{File: idx.File, Fact: f})
			}
		}
	}

	if total == 0 {
		return nil, nil
	}

	anyCov := float64(annotated) / float64(total)
	fullCov := float64(fully) / float64(total)

	var title, summary string
	switch {
	case anyCov >= 0.80:
		title = "High type annotation coverage"
		summary = fmt.Sprintf("Type annotations are commonly used. %d/%d functions (%.0f%%) have at least one annotation.", annotated, total, anyCov*100)
	case anyCov >= 0.40:
		title = "Mixed type annotation coverage"
		summary = fmt.Sprintf("Type annotations are partially adopted. %d/%d functions (%.0f%%) have at least one annotation.", annotated, total, anyCov*100)
	default:
		title = "Low type annotation coverage"
		summary = fmt.Sprintf("Type annotations are not widely used. Only %d/%d functions (%.0f%%) have annotations.", annotated, total, anyCov*100)
	}

	var evidence []facts.EvidenceSnippet
	for _, ref := range append(typedRefs, untypedRefs...) {
		if ev := ctx.Repo.Evidence(ref.File, ref.Fact.StartLine, detect.EvidenceRadius); ev != nil {
			evidence = append(evidence, *ev)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "typing",
		Title:      title,
		Summary:    summary,
		Confidence: SampleConfidence(total),
		Language:   facts.LangPython,
		Stats: detect.NewStats().
			AddInt("total_functions", total).
			AddInt("annotated_functions", annotated).
			AddInt("fully_annotated_functions", fully).
			AddRatio("any_annotation_coverage", anyCov).
			AddRatio("full_annotation_coverage", fullCov),
		Evidence: detect.CapEvidence(evidence),
	}, nil
}

// SampleConfidence scales detector confidence with sample size: 50 at zero,
// saturating at 95 around 200 observations, floored at 30.
func SampleConfidence(n int) int {
	c := 50 + int(float64(n)/200*45)
	if c > 95 {
		c = 95
	}
	if c < 30 {
		c = 30
	}
	return c
}
