package pydetect

import (
	"fmt"
	"path"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

// Testing identifies the primary Python test framework and fixture usage.
type Testing struct{}

func NewTesting() *Testing {
	return &Testing{}
}

func (d *Testing) RuleID() string {
	return "python.conventions.testing"
}

func (d *Testing) Languages() []facts.Language {
	return pyOnly
}

func (d *Testing) ShouldRun(ctx *detect.Context) bool {
	return len(ctx.Repo.FilesByRole(facts.LangPython, facts.RoleTest)) > 0
}

func (d *Testing) Detect(ctx *detect.Context) (*detect.Result, error) {
	testFiles := ctx.Repo.FilesByRole(facts.LangPython, facts.RoleTest)
	if len(testFiles) == 0 {
		return nil, nil
	}

	var pytest, unittest, hypothesis int
	var fixtures, conftests int
	var pytestRefs, unittestRefs []facts.Ref

	for _, idx := range testFiles {
		if path.Base(idx.File) == "conftest.py" {
			conftests++
		}
		for _, f := range idx.Facts {
			switch f.Kind {
			case facts.KindImport:
				switch {
				case strings.Contains(f.Module, "pytest"):
					pytest++
					if len(pytestRefs) < detect.MaxEvidence {
						pytestRefs = append(pytestRefs, facts.Ref{File: idx.File, Fact: f})
					}
				case f.Module == "unittest" || strings.HasPrefix(f.Module, "unittest."):
					unittest++
					if len(unittestRefs) < detect.MaxEvidence {
						unittestRefs = append(unittestRefs, facts.Ref{File: idx.File, Fact: f})
					}
				case strings.Contains(f.Module, "hypothesis"):
					hypothesis++
				}
			case facts.KindClass:
				for _, b := range f.Bases {
					if strings.Contains(b, "TestCase") {
						unittest++
					}
				}
			case facts.KindAnnotation:
				if strings.Contains(f.Name, "pytest") {
					pytest++
				}
			case facts.KindFixture:
				fixtures++
			}
		}
	}

	var title, summary, primary string
	var confidence int
	var refs []facts.Ref
	switch {
	case pytest > unittest:
		primary = "pytest"
		title = "pytest-based testing"
		summary = fmt.Sprintf("Uses pytest as the primary testing framework. Found %d pytest usages across %d test files.", pytest, len(testFiles))
		confidence = minInt(95, 70+pytest*2)
		refs = pytestRefs
	case unittest > 0:
		primary = "unittest"
		title = "unittest-based testing"
		summary = fmt.Sprintf("Uses unittest as the primary testing framework. Found %d unittest usages.", unittest)
		confidence = minInt(90, 60+unittest*2)
		refs = unittestRefs
	default:
		primary = "plain"
		title = "Test files without a framework import"
		summary = fmt.Sprintf("Found %d test files with no recognized framework import.", len(testFiles))
		confidence = 50
	}

	var evidence []facts.EvidenceSnippet
	for _, ref := range refs {
		if ev := ctx.Repo.Evidence(ref.File, ref.Fact.StartLine, 3); ev != nil {
			evidence = append(evidence, *ev)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "testing",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangPython,
		Stats: detect.NewStats().
			AddString("primary_framework", primary).
			AddInt("pytest_usages", pytest).
			AddInt("unittest_usages", unittest).
			AddInt("hypothesis_usages", hypothesis).
			AddInt("test_file_count", len(testFiles)).
			AddInt("fixture_count", fixtures).
			AddInt("conftest_count", conftests),
		Evidence: detect.CapEvidence(evidence),
	}, nil
}
