package pydetect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

var (
	bareExceptRe = regexp.MustCompile(`^\s*except\s*:`)
	raiseFromRe  = regexp.MustCompile(`\braise\b.+\bfrom\b`)
)

// ErrorHandling looks at exception hygiene: custom exception taxonomies,
// exception chaining with raise-from, and bare except clauses.
type ErrorHandling struct{}

func NewErrorHandling() *ErrorHandling {
	return &ErrorHandling{}
}

func (d *ErrorHandling) RuleID() string {
	return "python.conventions.error_handling"
}

func (d *ErrorHandling) Languages() []facts.Language {
	return pyOnly
}

func (d *ErrorHandling) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, pyOnly)
}

func (d *ErrorHandling) Detect(ctx *detect.Context) (*detect.Result, error) {
	var customExceptions, bareExcepts, raiseFroms int
	var customRefs, bareRefs []facts.Ref

	for _, idx := range ctx.Repo.FilesOf(facts.LangPython) {
		if idx.Role == facts.RoleTest {
			continue
		}
		for _, c := range idx.OfKind(facts.KindClass) {
			if isExceptionClass(c) {
				customExceptions++
				if len(customRefs) < 2 {
					customRefs = append(customRefs, facts.Ref{File: idx.File, Fact: c})
				}
			}
		}
		for i, line := range idx.Lines {
			if bareExceptRe.MatchString(line) {
				bareExcepts++
				if len(bareRefs) < 2 {
					bareRefs = append(bareRefs, facts.Ref{
						File: idx.File,
						Fact: facts.Fact{Kind: facts.KindCall, StartLine: i + 1},
					})
				}
			}
			if raiseFromRe.MatchString(line) {
				raiseFroms++
			}
		}
	}

	if customExceptions+bareExcepts+raiseFroms == 0 {
		return nil, nil
	}

	var title, summary string
	var confidence int
	switch {
	case customExceptions >= 3 && bareExcepts == 0:
		title = "Custom exception taxonomy"
		summary = fmt.Sprintf("Defines %d custom exception classes with no bare except clauses. Exception chaining used %d times.", customExceptions, raiseFroms)
		confidence = minInt(90, 60+customExceptions*3)
	case customExceptions >= 1:
		title = "Partial error handling conventions"
		summary = fmt.Sprintf("Defines %d custom exception classes, but %d bare except clauses remain.", customExceptions, bareExcepts)
		confidence = 70
	default:
		title = "Ad hoc error handling"
		summary = fmt.Sprintf("No custom exception classes found; %d bare except clauses present.", bareExcepts)
		confidence = 60
	}

	var evidence []facts.EvidenceSnippet
	for _, ref := range append(customRefs, bareRefs...) {
		if ev := ctx.Repo.Evidence(ref.File, ref.Fact.StartLine, detect.EvidenceRadius); ev != nil {
			evidence = append(evidence, *ev)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "error_handling",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangPython,
		Stats: detect.NewStats().
			AddInt("custom_exception_classes", customExceptions).
			AddInt("bare_except_count", bareExcepts).
			AddInt("raise_from_count", raiseFroms),
		Evidence: detect.CapEvidence(evidence),
	}, nil
}

func isExceptionClass(c facts.Fact) bool {
	for _, b := range c.Bases {
		if strings.HasSuffix(b, "Error") || strings.HasSuffix(b, "Exception") {
			return true
		}
	}
	return strings.HasSuffix(c.Name, "Error") || strings.HasSuffix(c.Name, "Exception")
}
