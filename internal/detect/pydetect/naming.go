package pydetect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

var (
	camelCaseRe = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
	constantRe  = regexp.MustCompile(`^([A-Z][A-Z0-9_]+)\s*=`)
)

// Naming checks function names against PEP 8 snake_case and counts
// module-level constants.
type Naming struct{}

func NewNaming() *Naming {
	return &Naming{}
}

func (d *Naming) RuleID() string {
	return "python.conventions.naming"
}

func (d *Naming) Languages() []facts.Language {
	return pyOnly
}

func (d *Naming) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, pyOnly)
}

func (d *Naming) Detect(ctx *detect.Context) (*detect.Result, error) {
	var snake, camel, constants int

	for _, idx := range ctx.Repo.FilesOf(facts.LangPython) {
		if idx.Role == facts.RoleTest || idx.Role == facts.RoleDocs {
			continue
		}
		for _, line := range idx.Lines {
			if constantRe.MatchString(line) {
				constants++
			}
		}
		for _, f := range idx.OfKind(facts.KindFunction) {
			name := f.Name
			if strings.HasPrefix(name, "_") {
				continue
			}
			switch {
			case strings.Contains(name, "_"):
				snake++
			case camelCaseRe.MatchString(name) && name != strings.ToLower(name):
				camel++
			default:
				// Single lowercase word counts as snake_case.
				snake++
			}
		}
	}

	total := snake + camel
	if total < 5 {
		return nil, nil
	}

	ratio := float64(snake) / float64(total)

	var title, summary string
	var confidence int
	switch {
	case ratio >= 0.95:
		title = "PEP 8 snake_case naming"
		summary = fmt.Sprintf("Function names follow PEP 8 snake_case. %d/%d functions use snake_case.", snake, total)
		confidence = minInt(95, 70+int(ratio*25))
	case ratio >= 0.7:
		title = "Mostly snake_case naming"
		summary = fmt.Sprintf("Most function names use snake_case. snake_case: %d, camelCase: %d.", snake, camel)
		confidence = 80
	default:
		title = "Mixed naming conventions"
		summary = fmt.Sprintf("Function names use mixed conventions. snake_case: %d, camelCase: %d.", snake, camel)
		confidence = 60
	}
	if constants > 0 {
		summary += fmt.Sprintf(" Found %d module-level constants.", constants)
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "naming",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangPython,
		Stats: detect.NewStats().
			AddInt("snake_case_functions", snake).
			AddInt("camel_case_functions", camel).
			AddRatio("snake_case_ratio", ratio).
			AddInt("module_constants", constants),
	}, nil
}
