package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/steph-dove/conventions/internal/config"
	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/detect/pydetect"
	"github.com/steph-dove/conventions/internal/facts"
	"github.com/steph-dove/conventions/internal/indexers"
	"github.com/steph-dove/conventions/internal/indexers/pyindexer"
	"github.com/steph-dove/conventions/internal/report"
)

const typedSource = `def f0(a: int) -> int:
    return a

def f1(a: int) -> int:
    return a

def f2(a: int) -> int:
    return a

def f3(a: int) -> int:
    return a

def f4(a: int) -> int:
    return a

def f5(a: int) -> int:
    return a

def f6(a: int) -> int:
    return a

def f7(a: int) -> int:
    return a

def f8(a: int) -> int:
    return a

def f9(a: int) -> int:
    return a
`

var untypedSource = strings.NewReplacer("(a: int)", "(a)", " -> int", "").Replace(typedSource)

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newEngine(t *testing.T, cfg *config.Config, detectors ...detect.Detector) *Engine {
	t.Helper()
	e, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	e.RegisterIndexer(pyindexer.New())
	for _, d := range detectors {
		if err := e.RegisterDetector(d); err != nil {
			t.Fatal(err)
		}
	}
	return e
}

type stubDetector struct {
	id     string
	result *detect.Result
	err    error
	panics bool
}

func (s *stubDetector) RuleID() string                 { return s.id }
func (s *stubDetector) Languages() []facts.Language    { return nil }
func (s *stubDetector) ShouldRun(*detect.Context) bool { return true }
func (s *stubDetector) Detect(*detect.Context) (*detect.Result, error) {
	if s.panics {
		panic("stub exploded")
	}
	return s.result, s.err
}

func okResult(id string) *detect.Result {
	return &detect.Result{
		RuleID:     id,
		Category:   "testing",
		Title:      "stub",
		Summary:    "stub",
		Confidence: 85,
		Stats:      detect.NewStats(),
	}
}

func TestTypingCoverageScoresHighAndLow(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		wantScore int
	}{
		{"fully annotated", typedSource, 5},
		{"unannotated", untypedSource, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeRepo(t, map[string]string{"app/service.py": tt.source})
			e, err := New(config.Default(), zerolog.Nop())
			if err != nil {
				t.Fatal(err)
			}
			e.RegisterIndexer(pyindexer.New())
			if err := e.RegisterDetector(pydetect.NewTyping()); err != nil {
				t.Fatal(err)
			}

			rep, err := e.Scan(context.Background(), root)
			if err != nil {
				t.Fatal(err)
			}
			entry := findEntry(t, rep, "python.conventions.typing_coverage")
			if entry.Rating.Score != tt.wantScore {
				t.Errorf("score = %d, want %d (stats: %v)", entry.Rating.Score, tt.wantScore, entry.Result.Stats.Keys())
			}
		})
	}
}

func TestDetectorFailureIsIsolated(t *testing.T) {
	root := writeRepo(t, map[string]string{"a.py": "x = 1\n"})
	e := newEngine(t, config.Default(),
		&stubDetector{id: "stub.conventions.bad", err: errors.New("boom")},
		&stubDetector{id: "stub.conventions.good", result: okResult("stub.conventions.good")},
	)

	rep, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	findEntry(t, rep, "stub.conventions.good")
	if !hasWarning(rep, "stub.conventions.bad", "boom") {
		t.Errorf("missing failure warning, got %+v", rep.Warnings)
	}
	for _, entry := range rep.Entries {
		if entry.Result.RuleID == "stub.conventions.bad" {
			t.Error("failed detector produced an entry")
		}
	}
}

func TestDetectorPanicIsIsolated(t *testing.T) {
	root := writeRepo(t, map[string]string{"a.py": "x = 1\n"})
	e := newEngine(t, config.Default(),
		&stubDetector{id: "stub.conventions.panic", panics: true},
		&stubDetector{id: "stub.conventions.good", result: okResult("stub.conventions.good")},
	)

	rep, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	findEntry(t, rep, "stub.conventions.good")
	if !hasWarning(rep, "stub.conventions.panic", "panicked") {
		t.Errorf("missing panic warning, got %+v", rep.Warnings)
	}
}

func TestDuplicateRuleIDFirstWins(t *testing.T) {
	root := writeRepo(t, map[string]string{"a.py": "x = 1\n"})
	first := okResult("stub.conventions.dup")
	first.Title = "first"
	second := okResult("stub.conventions.dup")
	second.Title = "second"

	e := newEngine(t, config.Default(),
		&stubDetector{id: "stub.conventions.one", result: first},
		&stubDetector{id: "stub.conventions.two", result: second},
	)

	rep, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}

	entry := findEntry(t, rep, "stub.conventions.dup")
	if entry.Result.Title != "first" {
		t.Errorf("title = %q, want first occurrence", entry.Result.Title)
	}
	if !hasWarning(rep, "stub.conventions.two", "duplicate") {
		t.Errorf("missing duplicate warning, got %+v", rep.Warnings)
	}
}

func TestDisabledDetectorIsSilent(t *testing.T) {
	root := writeRepo(t, map[string]string{"a.py": "x = 1\n"})
	cfg := config.Default()
	cfg.DisabledDetectors = []string{"stub.conventions.off"}

	e := newEngine(t, cfg,
		&stubDetector{id: "stub.conventions.off", result: okResult("stub.conventions.off")},
		&stubDetector{id: "stub.conventions.on", result: okResult("stub.conventions.on")},
	)

	rep, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	findEntry(t, rep, "stub.conventions.on")
	for _, entry := range rep.Entries {
		if entry.Result.RuleID == "stub.conventions.off" {
			t.Error("disabled detector produced an entry")
		}
	}
	for _, w := range rep.Warnings {
		if w.Source == "stub.conventions.off" {
			t.Error("disabled detector produced a warning")
		}
	}
}

func TestMaxFilesTruncationIsDeterministic(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"d.py", "b.py", "a.py", "c.py"} {
		files[name] = "x = 1\n"
	}
	root := writeRepo(t, files)

	cfg := config.Default()
	cfg.MaxFiles = 2
	e := newEngine(t, cfg)

	rep, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Meta.FilesScanned != 2 {
		t.Errorf("files scanned = %d, want 2", rep.Meta.FilesScanned)
	}
	if !hasWarning(rep, "engine", "file limit") {
		t.Errorf("missing truncation warning, got %+v", rep.Warnings)
	}
}

func TestMaxFilesIgnoresNonSourceFiles(t *testing.T) {
	files := map[string]string{"z.py": "x = 1\n"}
	for _, name := range []string{"a1.txt", "a2.txt", "a3.txt", "a4.txt", "a5.txt"} {
		files[name] = "notes\n"
	}
	root := writeRepo(t, files)

	cfg := config.Default()
	cfg.MaxFiles = 3
	e := newEngine(t, cfg)

	rep, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Meta.FilesScanned != 1 {
		t.Errorf("files scanned = %d, want 1", rep.Meta.FilesScanned)
	}
	if hasWarning(rep, "engine", "file limit") {
		t.Errorf("unexpected truncation warning, got %+v", rep.Warnings)
	}
}

type countingIndexer struct {
	inner indexers.Indexer
	calls int
}

func (c *countingIndexer) Language() facts.Language { return c.inner.Language() }
func (c *countingIndexer) Extensions() []string     { return c.inner.Extensions() }
func (c *countingIndexer) Index(path string, content []byte) *facts.Index {
	c.calls++
	return c.inner.Index(path, content)
}

func TestCacheSkipsReindexing(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"app/a.py": typedSource,
		"app/b.py": untypedSource,
	})
	cfg := config.Default()

	counter := &countingIndexer{inner: pyindexer.New()}
	e, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	e.RegisterIndexer(counter)
	if err := e.RegisterDetector(pydetect.NewTyping()); err != nil {
		t.Fatal(err)
	}

	cold, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if counter.calls != 2 {
		t.Fatalf("first scan indexed %d files, want 2", counter.calls)
	}

	rep, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if counter.calls != 2 {
		t.Errorf("second scan re-indexed: %d total calls", counter.calls)
	}
	if rep.Meta.CacheHits != 2 {
		t.Errorf("cache hits = %d, want 2", rep.Meta.CacheHits)
	}

	// A warm scan must produce the same findings as the cold one.
	coldJSON, err := json.Marshal(cold.Entries)
	if err != nil {
		t.Fatal(err)
	}
	warmJSON, err := json.Marshal(rep.Entries)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(coldJSON, warmJSON) {
		t.Errorf("warm scan entries differ from cold scan:\ncold: %s\nwarm: %s", coldJSON, warmJSON)
	}
	if len(cold.Warnings) != len(rep.Warnings) {
		t.Errorf("warnings = %d, want %d", len(rep.Warnings), len(cold.Warnings))
	}

	// Touch one file; only it is re-indexed.
	if err := os.WriteFile(filepath.Join(root, "app", "b.py"), []byte("y = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Scan(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	if counter.calls != 3 {
		t.Errorf("changed-file scan indexed %d total, want 3", counter.calls)
	}
}

func TestCorruptCacheIsRecovered(t *testing.T) {
	root := writeRepo(t, map[string]string{"a.py": typedSource})
	cachePath := filepath.Join(root, ".conventions", "index-cache.json")
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cachePath, []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newEngine(t, config.Default(), pydetect.NewTyping())
	rep, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("scan failed on corrupt cache: %v", err)
	}
	findEntry(t, rep, "python.conventions.typing_coverage")
	if !hasWarning(rep, "cache", "corrupt") {
		t.Errorf("missing corrupt-cache warning, got %+v", rep.Warnings)
	}

	// The cache was rewritten and works again.
	e2 := newEngine(t, config.Default(), pydetect.NewTyping())
	rep2, err := e2.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if rep2.Meta.CacheHits != 1 {
		t.Errorf("rebuilt cache hits = %d, want 1", rep2.Meta.CacheHits)
	}
}

func TestUnknownLanguageIsHardError(t *testing.T) {
	cfg := config.Default()
	cfg.Languages = []string{"cobol"}
	if _, err := New(cfg, zerolog.Nop()); err == nil {
		t.Fatal("unknown language accepted")
	}
}

func TestHardExcludesSkipped(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"app/a.py":              "x = 1\n",
		"node_modules/dep.py":   "x = 1\n",
		".git/hooks/x.py":       "x = 1\n",
		"docs/example.py":       "x = 1\n",
		"__pycache__/a.cpython": "junk",
	})
	e := newEngine(t, config.Default())

	rep, err := e.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Meta.FilesScanned != 1 {
		t.Errorf("files scanned = %d, want 1", rep.Meta.FilesScanned)
	}
}

func findEntry(t *testing.T, rep *report.Report, ruleID string) report.Entry {
	t.Helper()
	for _, e := range rep.Entries {
		if e.Result.RuleID == ruleID {
			return e
		}
	}
	t.Fatalf("no entry for %s in %d entries", ruleID, len(rep.Entries))
	return report.Entry{}
}

func hasWarning(rep *report.Report, source, substr string) bool {
	for _, w := range rep.Warnings {
		if w.Source == source && strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}
