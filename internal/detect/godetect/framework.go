// Package godetect holds Go convention detectors.
package godetect

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

var goOnly = []facts.Language{facts.LangGo}

type frameworkPattern struct {
	key     string
	display string
	module  string
}

var goFrameworks = []frameworkPattern{
	{"gin", "Gin", "github.com/gin-gonic/gin"},
	{"echo", "Echo", "github.com/labstack/echo"},
	{"fiber", "Fiber", "github.com/gofiber/fiber"},
	{"chi", "Chi", "github.com/go-chi/chi"},
	{"gorilla", "Gorilla Mux", "github.com/gorilla/mux"},
	{"fasthttp", "FastHTTP", "github.com/valyala/fasthttp"},
	{"net_http", "net/http (stdlib)", "net/http"},
}

// Framework identifies the primary HTTP framework from import counts.
// Stdlib net/http is dropped when any dedicated framework is present.
type Framework struct{}

func NewFramework() *Framework {
	return &Framework{}
}

func (d *Framework) RuleID() string {
	return "go.conventions.framework"
}

func (d *Framework) Languages() []facts.Language {
	return goOnly
}

func (d *Framework) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, goOnly)
}

func (d *Framework) Detect(ctx *detect.Context) (*detect.Result, error) {
	counts := map[string]int{}
	examples := map[string][]facts.Ref{}
	active := 0

	for _, p := range goFrameworks {
		refs := findExactImports(ctx, facts.LangGo, p.module)
		if len(refs) == 0 {
			continue
		}
		counts[p.key] = len(refs)
		examples[p.key] = refs
		active++
	}

	if active == 0 {
		return nil, nil
	}
	if active > 1 && counts["net_http"] > 0 {
		delete(counts, "net_http")
		active--
	}

	var primary frameworkPattern
	best := -1
	var others []string
	for _, p := range goFrameworks {
		n, ok := counts[p.key]
		if !ok {
			continue
		}
		if n > best {
			best = n
			primary = p
		}
	}
	for _, p := range goFrameworks {
		if _, ok := counts[p.key]; ok && p.key != primary.key {
			others = append(others, p.display)
		}
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	var title, summary string
	var confidence int
	if active == 1 {
		title = fmt.Sprintf("Uses %s", primary.display)
		summary = fmt.Sprintf("HTTP layer built with %s. Found %d importing files.", primary.display, best)
		confidence = minInt(95, 70+best*3)
	} else {
		title = fmt.Sprintf("Primary framework: %s", primary.display)
		summary = fmt.Sprintf("Uses %s (%d/%d importing files). Also: %s.", primary.display, best, total, strings.Join(others, ", "))
		confidence = minInt(85, 50+int(float64(best)/float64(total)*35))
	}

	var evidence []facts.EvidenceSnippet
	for _, ref := range examples[primary.key] {
		if len(evidence) == detect.MaxEvidence {
			break
		}
		if ev := ctx.Repo.Evidence(ref.File, ref.Fact.StartLine, 3); ev != nil {
			evidence = append(evidence, *ev)
		}
	}

	stats := detect.NewStats().AddString("primary_framework", primary.key)
	for _, p := range goFrameworks {
		if n, ok := counts[p.key]; ok {
			stats.AddInt(p.key+"_imports", n)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "api",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangGo,
		Stats:      stats,
		Evidence:   evidence,
	}, nil
}

// findExactImports returns at most one import ref per file whose module
// matches pattern exactly or as a prefix path (covers versioned module
// suffixes like echo/v4).
func findExactImports(ctx *detect.Context, lang facts.Language, pattern string) []facts.Ref {
	var out []facts.Ref
	for _, idx := range ctx.Repo.FilesOf(lang) {
		for _, f := range idx.OfKind(facts.KindImport) {
			if f.Module == pattern || strings.HasPrefix(f.Module, pattern+"/") {
				out = append(out, facts.Ref{File: idx.File, Fact: f})
				break
			}
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
