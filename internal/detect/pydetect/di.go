package pydetect

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

var containerLibs = []string{"dependency_injector", "injector", "punq", "lagom"}

var dependencyFuncNames = map[string]bool{
	"get_db":           true,
	"get_session":      true,
	"get_current_user": true,
	"get_settings":     true,
}

// DIStyle identifies the dominant dependency injection pattern: FastAPI
// Depends, a DI container library, or module-level singletons.
type DIStyle struct{}

func NewDIStyle() *DIStyle {
	return &DIStyle{}
}

func (d *DIStyle) RuleID() string {
	return "python.conventions.di_style"
}

func (d *DIStyle) Languages() []facts.Language {
	return pyOnly
}

func (d *DIStyle) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, pyOnly)
}

func (d *DIStyle) Detect(ctx *detect.Context) (*detect.Result, error) {
	var dependsCount, containerCount, singletonCount int
	examples := map[string][]facts.Ref{}

	record := func(pattern string, ref facts.Ref) {
		if len(examples[pattern]) < detect.MaxEvidence {
			examples[pattern] = append(examples[pattern], ref)
		}
	}

	for _, idx := range ctx.Repo.FilesOf(facts.LangPython) {
		if idx.Role == facts.RoleTest {
			continue
		}
		for _, f := range idx.Facts {
			switch f.Kind {
			case facts.KindCall:
				if f.Name == "Depends" || strings.HasSuffix(f.Name, ".Depends") {
					dependsCount++
					record("fastapi_depends", facts.Ref{File: idx.File, Fact: f})
				}
				// Module-level client construction reads as a singleton.
				if f.StartLine < 50 && isClientConstructor(f.Name) {
					singletonCount++
					record("module_singletons", facts.Ref{File: idx.File, Fact: f})
				}
			case facts.KindFunction:
				if dependencyFuncNames[f.Name] {
					dependsCount++
					record("fastapi_depends", facts.Ref{File: idx.File, Fact: f})
				}
			case facts.KindImport:
				for _, lib := range containerLibs {
					if strings.Contains(f.Module, lib) {
						containerCount++
						record("container_di", facts.Ref{File: idx.File, Fact: f})
						break
					}
				}
			case facts.KindClass:
				if strings.Contains(f.Name, "Container") {
					containerCount++
					record("container_di", facts.Ref{File: idx.File, Fact: f})
				}
			}
		}
	}

	// Sporadic module-level construction is noise, not a pattern.
	if singletonCount < 3 {
		singletonCount = 0
	}

	total := dependsCount + containerCount + singletonCount
	if total == 0 {
		return nil, nil
	}

	type candidate struct {
		pattern string
		name    string
		count   int
	}
	candidates := []candidate{
		{"fastapi_depends", "FastAPI Depends", dependsCount},
		{"container_di", "container-based DI", containerCount},
		{"module_singletons", "module-level singletons", singletonCount},
	}
	dominant := candidates[0]
	active := 0
	for _, c := range candidates {
		if c.count > 0 {
			active++
		}
		if c.count > dominant.count {
			dominant = c
		}
	}

	var title, summary string
	var confidence int
	if active == 1 {
		title = fmt.Sprintf("Dependency injection via %s", dominant.name)
		summary = fmt.Sprintf("Uses %s for dependency injection. Found %d usages.", dominant.name, dominant.count)
		confidence = minInt(90, 60+dominant.count*2)
	} else {
		title = fmt.Sprintf("Mixed DI patterns, %s dominant", dominant.name)
		summary = fmt.Sprintf("Uses multiple DI patterns. Primary: %s (%d/%d usages).", dominant.name, dominant.count, total)
		confidence = minInt(75, 50+int(float64(dominant.count)/float64(total)*25))
	}

	var evidence []facts.EvidenceSnippet
	for _, ref := range examples[dominant.pattern] {
		if ev := ctx.Repo.Evidence(ref.File, ref.Fact.StartLine, detect.EvidenceRadius); ev != nil {
			evidence = append(evidence, *ev)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "patterns",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangPython,
		Stats: detect.NewStats().
			AddString("dominant_pattern", dominant.pattern).
			AddInt("depends_count", dependsCount).
			AddInt("container_count", containerCount).
			AddInt("singleton_count", singletonCount),
		Evidence: detect.CapEvidence(evidence),
	}, nil
}

func isClientConstructor(name string) bool {
	for _, suffix := range []string{"Client", "Connection", "Session", "Pool"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
