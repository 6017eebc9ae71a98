package godetect

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

func goFile(path string, ff ...facts.Fact) *facts.Index {
	idx := facts.NewIndex(path, facts.LangGo, []byte(""))
	idx.Add(ff...)
	return idx
}

func imp(module string, line int) facts.Fact {
	return facts.Fact{Kind: facts.KindImport, Module: module, StartLine: line}
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
