// Package generic holds language-agnostic detectors.
package generic

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

type layoutPattern struct {
	id    string
	dirs  []string
	files []string
	desc  string
}

// Patterns are checked in this order so stats and evidence stay stable.
var layoutPatterns = []layoutPattern{
	{id: "src_layout", dirs: []string{"src"}, desc: "source code in src/ directory"},
	{id: "tests_separate", dirs: []string{"tests", "test"}, desc: "tests in a separate directory"},
	{id: "docs_present", dirs: []string{"docs", "doc", "documentation"}, desc: "documentation directory present"},
	{id: "ci_config", files: []string{".github/workflows", ".gitlab-ci.yml", ".circleci", "Jenkinsfile", ".travis.yml"}, desc: "CI configuration present"},
	{id: "containerized", files: []string{"Dockerfile", "docker-compose.yml", "docker-compose.yaml"}, desc: "Docker containerization configured"},
	{id: "config_dir", dirs: []string{"config", "conf", "configs", "settings"}, desc: "configuration directory present"},
	{id: "scripts_dir", dirs: []string{"scripts", "bin", "tools"}, desc: "scripts or tools directory present"},
}

var monorepoDirs = []string{"packages", "apps", "services", "modules", "libs", "projects"}

var workspaceFiles = []string{"pnpm-workspace.yaml", "lerna.json", "rush.json", "nx.json", "go.work"}

// Layout detects repository structure conventions from marker directories
// and files at the repository root.
type Layout struct{}

func NewLayout() *Layout {
	return &Layout{}
}

func (d *Layout) RuleID() string {
	return "repo.conventions.layout"
}

func (d *Layout) Languages() []facts.Language {
	return nil
}

func (d *Layout) ShouldRun(ctx *detect.Context) bool {
	return ctx.Repo.Len() > 0
}

func (d *Layout) Detect(ctx *detect.Context) (*detect.Result, error) {
	root := ctx.Repo.Root()

	stats := detect.NewStats()
	var found []layoutPattern
	for _, p := range layoutPatterns {
		ok := false
		for _, dir := range p.dirs {
			if isDir(filepath.Join(root, dir)) {
				ok = true
				break
			}
		}
		for _, f := range p.files {
			if !ok && exists(filepath.Join(root, f)) {
				ok = true
				break
			}
		}
		stats.AddString(p.id, boolStat(ok))
		if ok {
			found = append(found, p)
		}
	}

	if len(found) == 0 {
		return nil, nil
	}

	monorepo := detectMonorepo(root)
	stats.AddString("is_monorepo", boolStat(monorepo))

	var descs []string
	for _, p := range found {
		descs = append(descs, p.desc)
	}

	var title, summary string
	switch {
	case monorepo:
		title = "Monorepo structure"
		summary = fmt.Sprintf("Repository appears to be a monorepo. Detected patterns: %s.", strings.Join(descs, ", "))
	case hasPattern(found, "src_layout"):
		title = "Source layout (src/) structure"
		summary = fmt.Sprintf("Repository uses the src/ layout. Additional patterns: %s.", strings.Join(descs, ", "))
	default:
		title = "Flat project structure"
		summary = fmt.Sprintf("Repository uses a flat layout. Detected patterns: %s.", strings.Join(descs, ", "))
	}

	confidence := 50 + len(found)*10
	if confidence > 90 {
		confidence = 90
	}

	var evidence []facts.EvidenceSnippet
	for _, p := range found {
		if len(evidence) >= detect.MaxEvidence {
			break
		}
		if ev := patternEvidence(root, p); ev != nil {
			evidence = append(evidence, *ev)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "structure",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Stats:      stats,
		Evidence:   evidence,
	}, nil
}

func patternEvidence(root string, p layoutPattern) *facts.EvidenceSnippet {
	for _, dir := range p.dirs {
		abs := filepath.Join(root, dir)
		if !isDir(abs) {
			continue
		}
		entries, err := os.ReadDir(abs)
		if err != nil || len(entries) == 0 {
			continue
		}
		names := make([]string, 0, 5)
		for _, e := range entries {
			names = append(names, e.Name())
			if len(names) == 5 {
				break
			}
		}
		sort.Strings(names)
		return &facts.EvidenceSnippet{
			File:      dir,
			StartLine: 1,
			EndLine:   1,
			Excerpt:   "Directory contains: " + strings.Join(names, ", "),
		}
	}
	for _, f := range p.files {
		if exists(filepath.Join(root, f)) {
			return &facts.EvidenceSnippet{
				File:      f,
				StartLine: 1,
				EndLine:   1,
				Excerpt:   f + " present",
			}
		}
	}
	return nil
}

func detectMonorepo(root string) bool {
	for _, f := range workspaceFiles {
		if exists(filepath.Join(root, f)) {
			return true
		}
	}
	hits := 0
	for _, dir := range monorepoDirs {
		abs := filepath.Join(root, dir)
		if !isDir(abs) {
			continue
		}
		entries, err := os.ReadDir(abs)
		if err != nil {
			continue
		}
		subdirs := 0
		for _, e := range entries {
			if e.IsDir() {
				subdirs++
			}
		}
		if subdirs >= 2 {
			hits++
		}
	}
	return hits >= 1
}

func hasPattern(pp []layoutPattern, id string) bool {
	for _, p := range pp {
		if p.id == id {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func boolStat(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
