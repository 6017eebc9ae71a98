package godetect

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

// Interfaces looks at interface usage and whether names follow the
// idiomatic -er/-or suffix.
type Interfaces struct{}

func NewInterfaces() *Interfaces {
	return &Interfaces{}
}

func (d *Interfaces) RuleID() string {
	return "go.conventions.interfaces"
}

func (d *Interfaces) Languages() []facts.Language {
	return goOnly
}

func (d *Interfaces) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, goOnly)
}

func (d *Interfaces) Detect(ctx *detect.Context) (*detect.Result, error) {
	var interfaces, structs, erSuffix int
	var refs []facts.Ref

	for _, idx := range ctx.Repo.FilesOf(facts.LangGo) {
		if idx.Role == facts.RoleTest {
			continue
		}
		for _, c := range idx.OfKind(facts.KindClass) {
			switch c.Raw {
			case "interface":
				interfaces++
				if strings.HasSuffix(c.Name, "er") || strings.HasSuffix(c.Name, "or") {
					erSuffix++
				}
				if len(refs) < detect.MaxEvidence {
					refs = append(refs, facts.Ref{File: idx.File, Fact: c})
				}
			case "struct":
				structs++
			}
		}
	}

	if interfaces < 3 {
		return nil, nil
	}

	namingRatio := float64(erSuffix) / float64(interfaces)

	var title, summary string
	if namingRatio >= 0.5 {
		title = "Idiomatic interface naming (-er suffix)"
		summary = fmt.Sprintf("Interfaces follow Go naming conventions. Found %d interfaces (%d structs), %d with an -er/-or suffix.", interfaces, structs, erSuffix)
	} else {
		title = "Interface-based design"
		summary = fmt.Sprintf("Uses interfaces for abstraction. Found %d interfaces and %d structs.", interfaces, structs)
	}
	confidence := minInt(85, 50+interfaces*3)

	var evidence []facts.EvidenceSnippet
	for _, ref := range refs {
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
		Language:   facts.LangGo,
		Stats: detect.NewStats().
			AddInt("interface_count", interfaces).
			AddInt("struct_count", structs).
			AddInt("er_suffix_count", erSuffix).
			AddRatio("er_suffix_ratio", namingRatio),
		Evidence: detect.CapEvidence(evidence),
	}, nil
}
