package nodedetect

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

type modulePattern struct {
	key     string
	display string
	modules []string
}

var nodeFrameworks = []modulePattern{
	{"express", "Express.js", []string{"express"}},
	{"fastify", "Fastify", []string{"fastify"}},
	{"koa", "Koa", []string{"koa"}},
	{"nestjs", "NestJS", []string{"@nestjs/core", "@nestjs/common"}},
	{"next", "Next.js", []string{"next"}},
	{"react", "React", []string{"react"}},
	{"vue", "Vue", []string{"vue"}},
	{"remix", "Remix", []string{"@remix-run"}},
}

// Framework identifies the primary web framework from import counts.
type Framework struct{}

func NewFramework() *Framework {
	return &Framework{}
}

func (d *Framework) RuleID() string {
	return "node.conventions.framework"
}

func (d *Framework) Languages() []facts.Language {
	return nodeOnly
}

func (d *Framework) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, nodeOnly)
}

func (d *Framework) Detect(ctx *detect.Context) (*detect.Result, error) {
	counts := map[string]int{}
	examples := map[string][]facts.Ref{}

	for _, p := range nodeFrameworks {
		refs := findModuleImports(ctx, p.modules)
		if len(refs) > 0 {
			counts[p.key] = len(refs)
			examples[p.key] = refs
		}
	}

	if len(counts) == 0 {
		return nil, nil
	}

	var primary modulePattern
	best := -1
	total := 0
	var others []string
	for _, p := range nodeFrameworks {
		n, ok := counts[p.key]
		if !ok {
			continue
		}
		total += n
		if n > best {
			best = n
			primary = p
		}
	}
	for _, p := range nodeFrameworks {
		if _, ok := counts[p.key]; ok && p.key != primary.key {
			others = append(others, p.display)
		}
	}

	var title, summary string
	var confidence int
	if len(counts) == 1 {
		title = fmt.Sprintf("Uses %s", primary.display)
		summary = fmt.Sprintf("Application built with %s. Found %d importing files.", primary.display, best)
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
	for _, p := range nodeFrameworks {
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
		Language:   facts.LangNode,
		Stats:      stats,
		Evidence:   evidence,
	}, nil
}

// findModuleImports returns at most one ref per file importing any of the
// given module names, matched exactly or as a path prefix.
func findModuleImports(ctx *detect.Context, modules []string) []facts.Ref {
	var out []facts.Ref
	for _, idx := range ctx.Repo.FilesOf(facts.LangNode) {
	fileScan:
		for _, f := range idx.OfKind(facts.KindImport) {
			for _, m := range modules {
				if f.Module == m || strings.HasPrefix(f.Module, m+"/") {
					out = append(out, facts.Ref{File: idx.File, Fact: f})
					break fileScan
				}
			}
		}
	}
	return out
}
