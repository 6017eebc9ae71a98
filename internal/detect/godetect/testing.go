package godetect

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

var goTestLibs = []frameworkPattern{
	{"testify", "testify", "github.com/stretchr/testify"},
	{"gomock", "gomock", "github.com/golang/mock"},
	{"ginkgo", "Ginkgo", "github.com/onsi/ginkgo"},
	{"goconvey", "GoConvey", "github.com/smartystreets/goconvey"},
}

// Testing identifies the Go test style: assertion libraries and the
// table-driven idiom.
type Testing struct{}

func NewTesting() *Testing {
	return &Testing{}
}

func (d *Testing) RuleID() string {
	return "go.conventions.testing"
}

func (d *Testing) Languages() []facts.Language {
	return goOnly
}

func (d *Testing) ShouldRun(ctx *detect.Context) bool {
	return len(ctx.Repo.FilesByRole(facts.LangGo, facts.RoleTest)) > 0
}

func (d *Testing) Detect(ctx *detect.Context) (*detect.Result, error) {
	testFiles := ctx.Repo.FilesByRole(facts.LangGo, facts.RoleTest)
	if len(testFiles) == 0 {
		return nil, nil
	}

	libCounts := map[string]int{}
	examples := map[string][]facts.Ref{}
	for _, lib := range goTestLibs {
		refs := findExactImports(ctx, facts.LangGo, lib.module)
		if len(refs) > 0 {
			libCounts[lib.key] = len(refs)
			examples[lib.key] = refs
		}
	}

	var tableDriven int
	var tableRefs []facts.Ref
	for _, idx := range testFiles {
		for i, line := range idx.Lines {
			if strings.Contains(line, "tests := []struct") || strings.Contains(line, "cases := []struct") ||
				strings.Contains(line, "for _, tt := range") || strings.Contains(line, "for _, tc := range") {
				tableDriven++
				if len(tableRefs) < 2 {
					tableRefs = append(tableRefs, facts.Ref{
						File: idx.File,
						Fact: facts.Fact{StartLine: i + 1},
					})
				}
				break
			}
		}
	}

	var primary frameworkPattern
	best := 0
	for _, lib := range goTestLibs {
		if libCounts[lib.key] > best {
			best = libCounts[lib.key]
			primary = lib
		}
	}

	var title, summary, primaryKey string
	var confidence int
	var refs []facts.Ref
	if best > 0 {
		primaryKey = primary.key
		title = fmt.Sprintf("Testing with %s", primary.display)
		summary = fmt.Sprintf("Uses %s across %d test files. %d files use the table-driven idiom.", primary.display, len(testFiles), tableDriven)
		confidence = minInt(90, 60+best*3)
		refs = examples[primary.key]
	} else {
		primaryKey = "stdlib"
		title = "Standard library testing"
		summary = fmt.Sprintf("Uses Go's testing package without assertion libraries. %d test files, %d table-driven.", len(testFiles), tableDriven)
		confidence = minInt(85, 50+len(testFiles)*2)
		refs = tableRefs
	}

	var evidence []facts.EvidenceSnippet
	for _, ref := range refs {
		if len(evidence) == detect.MaxEvidence {
			break
		}
		if ev := ctx.Repo.Evidence(ref.File, ref.Fact.StartLine, 3); ev != nil {
			evidence = append(evidence, *ev)
		}
	}

	stats := detect.NewStats().
		AddString("primary_library", primaryKey).
		AddInt("test_file_count", len(testFiles)).
		AddInt("table_driven_files", tableDriven)
	for _, lib := range goTestLibs {
		if n, ok := libCounts[lib.key]; ok {
			stats.AddInt(lib.key+"_imports", n)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "testing",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangGo,
		Stats:      stats,
		Evidence:   evidence,
	}, nil
}
