// Package nodedetect holds JavaScript/TypeScript convention detectors.
package nodedetect

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

var nodeOnly = []facts.Language{facts.LangNode}

// TypeScript reports how far the codebase has adopted TypeScript.
type TypeScript struct{}

func NewTypeScript() *TypeScript {
	return &TypeScript{}
}

func (d *TypeScript) RuleID() string {
	return "node.conventions.typescript"
}

func (d *TypeScript) Languages() []facts.Language {
	return nodeOnly
}

func (d *TypeScript) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, nodeOnly)
}

func (d *TypeScript) Detect(ctx *detect.Context) (*detect.Result, error) {
	var tsFiles, jsFiles int
	for _, idx := range ctx.Repo.FilesOf(facts.LangNode) {
		if strings.HasSuffix(idx.File, ".ts") || strings.HasSuffix(idx.File, ".tsx") {
			tsFiles++
		} else {
			jsFiles++
		}
	}

	total := tsFiles + jsFiles
	if total < 3 {
		return nil, nil
	}

	ratio := float64(tsFiles) / float64(total)

	var title, summary string
	var confidence int
	switch {
	case ratio >= 0.9:
		title = "TypeScript codebase"
		summary = fmt.Sprintf("Codebase is written in TypeScript. %d/%d files are TypeScript.", tsFiles, total)
		confidence = 95
	case ratio >= 0.5:
		title = "Mixed TypeScript/JavaScript"
		summary = fmt.Sprintf("Codebase uses both TypeScript and JavaScript. TypeScript: %d, JavaScript: %d.", tsFiles, jsFiles)
		confidence = 80
	case ratio > 0:
		title = "JavaScript with some TypeScript"
		summary = fmt.Sprintf("Primarily JavaScript with some TypeScript. TypeScript: %d, JavaScript: %d.", tsFiles, jsFiles)
		confidence = 75
	default:
		title = "JavaScript codebase"
		summary = fmt.Sprintf("Codebase is written in JavaScript. %d files.", jsFiles)
		confidence = 90
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "typing",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangNode,
		Stats: detect.NewStats().
			AddInt("typescript_files", tsFiles).
			AddInt("javascript_files", jsFiles).
			AddRatio("typescript_ratio", ratio),
	}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
