package godetect

import (
	"fmt"
	"strings"

	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

// ErrorHandling identifies the dominant error wrapping style: pkg/errors,
// fmt.Errorf with %w, or plain stdlib errors.
type ErrorHandling struct{}

func NewErrorHandling() *ErrorHandling {
	return &ErrorHandling{}
}

func (d *ErrorHandling) RuleID() string {
	return "go.conventions.error_handling"
}

func (d *ErrorHandling) Languages() []facts.Language {
	return goOnly
}

func (d *ErrorHandling) ShouldRun(ctx *detect.Context) bool {
	return detect.LanguagePresent(ctx, goOnly)
}

func (d *ErrorHandling) Detect(ctx *detect.Context) (*detect.Result, error) {
	pkgErrors := findExactImports(ctx, facts.LangGo, "github.com/pkg/errors")
	stdlibErrors := findExactImports(ctx, facts.LangGo, "errors")

	var errorfWrap, errorfPlain, isAsCalls int
	var wrapRefs []facts.Ref

	for _, idx := range ctx.Repo.FilesOf(facts.LangGo) {
		for _, f := range idx.OfKind(facts.KindCall) {
			switch f.Name {
			case "fmt.Errorf":
				if f.StartLine >= 1 && f.StartLine <= len(idx.Lines) && strings.Contains(idx.Lines[f.StartLine-1], "%w") {
					errorfWrap++
					if len(wrapRefs) < detect.MaxEvidence {
						wrapRefs = append(wrapRefs, facts.Ref{File: idx.File, Fact: f})
					}
				} else {
					errorfPlain++
				}
			case "errors.Is", "errors.As":
				isAsCalls++
			}
		}
	}

	if len(pkgErrors)+len(stdlibErrors)+errorfWrap+errorfPlain == 0 {
		return nil, nil
	}

	var title, summary, primary string
	var confidence int
	var refs []facts.Ref
	switch {
	case len(pkgErrors) > 0:
		primary = "pkg_errors"
		title = "Error wrapping with pkg/errors"
		summary = fmt.Sprintf("Uses github.com/pkg/errors for wrapping. Found %d importing files.", len(pkgErrors))
		confidence = minInt(85, 50+len(pkgErrors)*3)
		refs = pkgErrors
	case errorfWrap > 0:
		primary = "fmt_errorf_wrap"
		title = "Error wrapping with fmt.Errorf and %w"
		summary = fmt.Sprintf("Wraps errors with fmt.Errorf(%%w). Found %d wrap sites; errors.Is/As used %d times.", errorfWrap, isAsCalls)
		confidence = minInt(90, 55+errorfWrap*3)
		refs = wrapRefs
	default:
		primary = "stdlib_errors"
		title = "Standard library error handling"
		summary = fmt.Sprintf("Uses the stdlib errors package without wrapping. %d files import errors, %d plain fmt.Errorf calls.", len(stdlibErrors), errorfPlain)
		confidence = minInt(80, 50+len(stdlibErrors)*3)
		refs = stdlibErrors
	}

	var evidence []facts.EvidenceSnippet
	for _, ref := range refs {
		if len(evidence) == detect.MaxEvidence {
			break
		}
		if ev := ctx.Repo.Evidence(ref.File, ref.Fact.StartLine, detect.EvidenceRadius); ev != nil {
			evidence = append(evidence, *ev)
		}
	}

	return &detect.Result{
		RuleID:     d.RuleID(),
		Category:   "error_handling",
		Title:      title,
		Summary:    summary,
		Confidence: confidence,
		Language:   facts.LangGo,
		Stats: detect.NewStats().
			AddString("primary_style", primary).
			AddInt("pkg_errors_files", len(pkgErrors)).
			AddInt("errorf_wrap_count", errorfWrap).
			AddInt("errorf_plain_count", errorfPlain).
			AddInt("errors_is_as_count", isAsCalls),
		Evidence: evidence,
	}, nil
}
