package nodedetect

import (
	"fmt"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

var nodeTestLibs = []modulePattern{
	{"jest", "Jest", []string{"jest", "@jest/globals"}},
	{"vitest", "Vitest", []string{"vitest"}},
	{"mocha", "Mocha", []string{"mocha"}},
	{"ava", "AVA", []string{"ava"}},
	{"testing-library", "Testing Library", []string{"@testing-library"}},
}

// Testing identifies the JS/TS test framework from imports, test file
// naming, and lifecycle hooks.
type Testing struct{}

func NewTesting() *Testing {
	return &Testing{}
}

func (d *Testing) RuleID() string {
	return "node.conventions.testing"
}

func (d *Testing) Languages() []facts.Language {
	return nodeOnly
}

func (d *Testing) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, nodeOnly)
}

func (d *Testing) Detect(ctx *detect.Context) (*detect.Result, error) {
	testFiles := ctx.Repo.FilesByRole(facts.LangNode, facts.RoleTest)

	counts := map[string]int{}
	examples := map[string][]facts.Ref{}
	for _, lib := range nodeTestLibs {
		refs := findModuleImports(ctx, lib.modules)
		if len(refs) > 0 {
			counts[lib.key] = len(refs)
			examples[lib.key] = refs
		}
	}

	hooks := 0
	for _, idx := range testFiles {
		hooks += len(idx.OfKind(facts.KindFixture))
	}

	if len(counts) == 0 && len(testFiles) < 3 {
		return nil, nil
	}

	var primary modulePattern
	best := 0
	for _, lib := range nodeTestLibs {
		if counts[lib.key] > best {
			best = counts[lib.key]
			primary = lib
		}
	}

	var title, summary, primaryKey string
	var confidence int
	var refs []facts.Ref
	if best > 0 {
		primaryKey = primary.key
		title = fmt.Sprintf("Testing with %s", primary.display)
		summary = fmt.Sprintf("Uses %s for testing. %d importing files, %d test files, %d lifecycle hooks.", primary.display, best, len(testFiles), hooks)
		confidence = minInt(90, 60+best*5)
		refs = examples[primary.key]
	} else {
		// Jest and Vitest expose describe/it as globals, so test files
		// without framework imports still point at one of them.
		primaryKey = "globals"
		title = "Test files using framework globals"
		summary = fmt.Sprintf("Found %d test files using describe/it globals, %d lifecycle hooks.", len(testFiles), hooks)
		confidence = minInt(75, 50+len(testFiles)*2)
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
		AddInt("lifecycle_hooks", hooks)
	for _, lib := range nodeTestLibs {
		if n, ok := counts[lib.key]; ok {
			stats.AddInt(lib.key+"_imports", n)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "testing",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangNode,
		Stats:      stats,
		Evidence:   evidence,
	}, nil
}
