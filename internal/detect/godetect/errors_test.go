package godetect

import (
	"testing"

	"github.com/steph-dove/conventions/internal/facts"
)

func TestErrorHandlingWrapStyle(t *testing.T) {
	src := `package store

import "fmt"

func open() error {
	if err := dial(); err != nil {
		return fmt.Errorf("dialing: %w", err)
	}
	return nil
}
`
	idx := facts.NewIndex("internal/store/db.go", facts.LangGo, []byte(src))
	idx.Add(
		imp("fmt", 3),
		facts.Fact{Kind: facts.KindCall, Name: "fmt.Errorf", StartLine: 7},
		facts.Fact{Kind: facts.KindCall, Name: "errors.Is", StartLine: 9},
	)

	res := mustDetect(t, NewErrorHandling(), newCtx(idx))
	if got := res.Stats.Str("primary_style"); got != "fmt_errorf_wrap" {
		t.Errorf("primary = %q, want fmt_errorf_wrap", got)
	}
	if got := res.Stats.Int("errorf_wrap_count"); got != 1 {
		t.Errorf("wrap count = %d, want 1", got)
	}
	if got := res.Stats.Int("errors_is_as_count"); got != 1 {
		t.Errorf("is/as count = %d, want 1", got)
	}
}

func TestErrorHandlingPlainErrorf(t *testing.T) {
	src := "package a\n\nvar _ = fmt.Errorf(\"no wrap here\")\n"
	idx := facts.NewIndex("internal/a/a.go", facts.LangGo, []byte(src))
	idx.Add(
		imp("errors", 3),
		facts.Fact{Kind: facts.KindCall, Name: "fmt.Errorf", StartLine: 3},
	)

	res := mustDetect(t, NewErrorHandling(), newCtx(idx))
	if got := res.Stats.Str("primary_style"); got != "stdlib_errors" {
		t.Errorf("primary = %q, want stdlib_errors", got)
	}
	if got := res.Stats.Int("errorf_plain_count"); got != 1 {
		t.Errorf("plain count = %d, want 1", got)
	}
}

func TestErrorHandlingPkgErrorsPrecedence(t *testing.T) {
	src := "package a\n\nvar _ = fmt.Errorf(\"x: %w\", err)\n"
	idx := facts.NewIndex("internal/a/a.go", facts.LangGo, []byte(src))
	idx.Add(
		imp("github.com/pkg/errors", 3),
		facts.Fact{Kind: facts.KindCall, Name: "fmt.Errorf", StartLine: 3},
	)

	res := mustDetect(t, NewErrorHandling(), newCtx(idx))
	if got := res.Stats.Str("primary_style"); got != "pkg_errors" {
		t.Errorf("primary = %q, want pkg_errors", got)
	}
}

func TestErrorHandlingNoSignalsMeansNoResult(t *testing.T) {
	ctx := newCtx(goFile("internal/a/a.go", imp("strings", 3)))
	mustSkip(t, NewErrorHandling(), ctx)
}
