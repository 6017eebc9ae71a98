package pydetect

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/steph-dove/conventions/internal/config"
	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
)

func newCtx(indices ...*facts.Index) *detect.Context {
	repo := facts.NewRepoIndex("/repo")
	for _, idx := range indices {
		repo.Add(idx)
	}
	return &detect.Context{
		Repo:   repo,
		Config: config.Default(),
		Log:    zerolog.Nop(),
	}
}

func pyFile(path string, ff ...facts.Fact) *facts.Index {
	idx := facts.NewIndex(path, facts.LangPython, []byte(""))
	idx.Add(ff...)
	return idx
}

func fn(name string, params, typed int, ret bool) facts.Fact {
	return facts.Fact{
		Kind:          facts.KindFunction,
		Name:          name,
		StartLine:     1,
		ParamCount:    params,
		TypedParams:   typed,
		HasReturnType: ret,
	}
}

func mustDetect(t *testing.T, d detect.Detector, ctx *detect.Context) *detect.Result {
	t.Helper()
	res, err := d.Detect(ctx)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if res == nil {
		t.Fatal("Detect() returned nil result")
	}
	return res
}

func mustSkip(t *testing.T, d detect.Detector, ctx *detect.Context) {
	t.Helper()
	res, err := d.Detect(ctx)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if res != nil {
		t.Fatalf("expected no result, got %q", res.Title)
	}
}
