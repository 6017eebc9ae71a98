package pydetect

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

// Docstrings measures docstring coverage over public Python functions and
// classes. Test and docs files are excluded.
type Docstrings struct{}

func NewDocstrings() *Docstrings {
	return &Docstrings{}
}

func (d *Docstrings) RuleID() string {
	return "python.conventions.docstrings"
}

func (d *Docstrings) Languages() []facts.Language {
	return pyOnly
}

func (d *Docstrings) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, pyOnly)
}

func (d *Docstrings) Detect(ctx *detect.Context) (*detect.Result, error) {
	var totalFuncs, documented int
	var totalClasses, documentedClasses int
	var docRefs, bareRefs []facts.Ref

	for _, idx := range ctx.Repo.FilesOf(facts.LangPython) {
		if idx.Role == facts.RoleTest || idx.Role == facts.RoleDocs {
			continue
		}
		for _, f := range idx.OfKind(facts.KindFunction) {
			if strings.HasPrefix(f.Name, "_") && !strings.HasPrefix(f.Name, "__") {
				continue
			}
			totalFuncs++
			if f.HasDoc {
				documented++
				if len(docRefs) < 2 {
					docRefs = append(docRefs, facts.Ref{File: idx.File, Fact: f})
				}
			} else if len(bareRefs) < 2 {
				bareRefs = append(bareRefs, facts.Ref{File: idx.File, Fact: f})
			}
		}
		for _, c := range idx.OfKind(facts.KindClass) {
			if strings.HasPrefix(c.Name, "_") {
				continue
			}
			totalClasses++
			if c.HasDoc {
				documentedClasses++
			}
		}
	}

	// Too few observations to call a convention.
	if totalFuncs < 5 {
		return nil, nil
	}

	ratio := float64(documented) / float64(totalFuncs)

	var title, summary string
	var confidence int
	switch {
	case ratio >= 0.7:
		title = "High docstring coverage"
		summary = fmt.Sprintf("Most public functions have docstrings. Functions: %d/%d (%.0f%%). Classes: %d/%d.",
			documented, totalFuncs, ratio*100, documentedClasses, totalClasses)
		confidence = minInt(90, 60+int(ratio*30))
	case ratio >= 0.3:
		title = "Partial docstring coverage"
		summary = fmt.Sprintf("Some functions have docstrings. Functions: %d/%d (%.0f%%).", documented, totalFuncs, ratio*100)
		confidence = 70
	default:
		title = "Low docstring coverage"
		summary = fmt.Sprintf("Few functions have docstrings. Only %d/%d (%.0f%%).", documented, totalFuncs, ratio*100)
		confidence = 60
	}

	var evidence []facts.EvidenceSnippet
	for _, ref := range append(docRefs, bareRefs...) {
		if ev := ctx.Repo.Evidence(ref.File, ref.Fact.StartLine, detect.EvidenceRadius); ev != nil {
			evidence = append(evidence, *ev)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "documentation",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangPython,
		Stats: detect.NewStats().
			AddInt("total_public_functions", totalFuncs).
			AddInt("documented_functions", documented).
			AddRatio("function_doc_ratio", ratio).
			AddInt("total_classes", totalClasses).
			AddInt("documented_classes", documentedClasses),
		Evidence: detect.CapEvidence(evidence),
	}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
