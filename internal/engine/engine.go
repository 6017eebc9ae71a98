// Package engine orchestrates a scan: walk the repository, index files
// (consulting the cache), run detectors with failure isolation, rate the
// results, and assemble the report.
package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/steph-dove/conventions/internal/cache"
	"github.com/steph-dove/conventions/internal/config"
	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/facts"
	"github.com/steph-dove/conventions/internal/indexers"
	"github.com/steph-dove/conventions/internal/ratings"
	"github.com/steph-dove/conventions/internal/report"
)

// indexWorkers bounds parallel file indexing.
const indexWorkers = 8

// maxFileSize skips pathological single files.
const maxFileSize = 1 << 20

// hardExcludes are directory names never scanned regardless of config.
// Example and docs trees are excluded because tutorial code is not
// representative of project conventions.
var hardExcludes = map[string]bool{
	".git": true, ".svn": true, ".hg": true,
	"__pycache__": true, ".pytest_cache": true, ".mypy_cache": true, ".ruff_cache": true,
	"node_modules": true, "vendor": true,
	".venv": true, "venv": true, "env": true, ".tox": true, ".nox": true,
	"build": true, "dist": true, ".eggs": true, "site-packages": true,
	".conventions": true,
	"docs":         true, "docs_src": true, "doc": true,
	"examples": true, "example": true, "samples": true, "sample": true,
	"tutorials": true, "tutorial": true, "demo": true, "demos": true,
}

// Engine runs scans. Indexers, detectors, and rating rules must be
// registered after creation.
type Engine struct {
	cfg       *config.Config
	log       zerolog.Logger
	indexers  *indexers.Registry
	detectors *detect.Registry
	table     *ratings.Table
}

// New creates an Engine with the given config and logger. The config must
// already validate.
func New(cfg *config.Config, log zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg:       cfg,
		log:       log,
		indexers:  indexers.NewRegistry(),
		detectors: detect.NewRegistry(cfg.DisabledRules),
		table:     ratings.DefaultTable(),
	}, nil
}

// RegisterIndexer adds a language indexer.
func (e *Engine) RegisterIndexer(ix indexers.Indexer) {
	e.indexers.Register(ix)
}

// RegisterDetector adds a detector. Structurally invalid detectors are
// rejected with an error; other registrations are unaffected.
func (e *Engine) RegisterDetector(d detect.Detector) error {
	return e.detectors.Register(d)
}

// RegisterRatingRule adds or overrides the rating rule for a rule id.
func (e *Engine) RegisterRatingRule(ruleID string, rule ratings.Rule) error {
	return e.table.Register(ruleID, rule)
}

// Scan runs the full pipeline against the repository at repoPath.
func (e *Engine) Scan(ctx context.Context, repoPath string) (*report.Report, error) {
	start := time.Now()

	absRepo, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}
	if fi, err := os.Stat(absRepo); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("repo path %s is not a directory", absRepo)
	}

	var warnings []detect.Warning
	warn := func(source, format string, args ...any) {
		w := detect.Warning{Source: source, Message: fmt.Sprintf(format, args...)}
		warnings = append(warnings, w)
		e.log.Warn().Str("source", w.Source).Msg(w.Message)
	}

	// 1. Walk and classify candidate files. Only files with a registered
	// indexer and an enabled language count toward the file limit, so a
	// repo full of assets or docs cannot crowd out the source files.
	walked, err := e.walkRepo(absRepo)
	if err != nil {
		return nil, fmt.Errorf("walking repo: %w", err)
	}
	var files []string
	for _, f := range walked {
		if ix := e.indexers.ForFile(f); ix != nil && e.cfg.LanguageEnabled(ix.Language()) {
			files = append(files, f)
		}
	}
	e.log.Info().Int("files", len(files)).Int("walked", len(walked)).Str("repo", absRepo).Msg("collected source files")

	sort.Strings(files)
	if len(files) > e.cfg.MaxFiles {
		warn("engine", "file limit reached: scanning %d of %d source files", e.cfg.MaxFiles, len(files))
		files = files[:e.cfg.MaxFiles]
	}

	// 2. Open the cache. A discarded cache is informational, never fatal.
	var store *cache.Store
	cachePath := filepath.Join(absRepo, e.cfg.Cache.Dir, "index-cache.json")
	fingerprint := e.cfg.Fingerprint(e.detectors.RuleIDs())
	if e.cfg.Cache.Enabled {
		var notice string
		store, notice = cache.Open(cachePath, fingerprint)
		if notice != "" {
			warn("cache", "%s", notice)
		}
	}

	// 3. Index files in parallel. Results land in per-file slots so
	// ordering stays deterministic.
	indices := make([]*facts.Index, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexWorkers)
	for i, relPath := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			indices[i] = e.indexFile(absRepo, relPath, store)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	repo := facts.NewRepoIndex(absRepo)
	for _, idx := range indices {
		if idx == nil {
			continue
		}
		repo.Add(idx)
		if store != nil {
			store.Put(idx)
		}
	}
	e.log.Info().Int("indexed", repo.Len()).Msg("indexing complete")

	if store != nil {
		if err := store.Save(); err != nil {
			warn("cache", "failed to persist cache: %v", err)
		}
	}

	// 4. Run detectors with per-detector failure isolation.
	entries := e.runDetectors(ctx, repo, &warnings)

	// 5. Rate and assemble.
	rr := make([]ratings.Rating, len(entries))
	for i := range entries {
		entries[i].Rating = e.table.Rate(entries[i].Result)
		rr[i] = entries[i].Rating
	}

	hits, misses := 0, 0
	if store != nil {
		hits, misses = store.Counters()
	}

	rep := &report.Report{
		Version: report.Version,
		Meta: report.Meta{
			Root:         absRepo,
			Languages:    repo.Languages(),
			FilesScanned: repo.Len(),
			Duration:     time.Since(start),
			GeneratedAt:  time.Now().UTC(),
			AverageScore: ratings.Average(rr),
			CacheHits:    hits,
			CacheMisses:  misses,
		},
		Entries:  entries,
		Warnings: warnings,
	}
	if rep.Warnings == nil {
		rep.Warnings = []detect.Warning{}
	}
	if rep.Entries == nil {
		rep.Entries = []report.Entry{}
	}
	return rep, nil
}

// indexFile reads and indexes one file, consulting the cache first. Any
// failure degrades to a nil index.
func (e *Engine) indexFile(absRepo, relPath string, store *cache.Store) *facts.Index {
	ix := e.indexers.ForFile(relPath)
	if ix == nil || !e.cfg.LanguageEnabled(ix.Language()) {
		return nil
	}

	abs := filepath.Join(absRepo, relPath)
	content, err := os.ReadFile(abs)
	if err != nil {
		e.log.Debug().Str("file", relPath).Err(err).Msg("skipping unreadable file")
		return nil
	}
	if len(content) > maxFileSize {
		return nil
	}

	if store != nil {
		hash := facts.ContentHash(content)
		if cached, ok := store.Get(relPath, hash); ok {
			return cached
		}
	}
	return ix.Index(relPath, content)
}

// runDetectors executes the registered detectors concurrently, isolating
// failures and panics to warnings. Each result lands in the slot of its
// detector's registration position, so output order is deterministic.
// Duplicate result rule ids keep the first occurrence.
func (e *Engine) runDetectors(ctx context.Context, repo *facts.RepoIndex, warnings *[]detect.Warning) []report.Entry {
	dctx := &detect.Context{
		Repo:   repo,
		Config: e.cfg,
		Log:    e.log.With().Str("component", "detect").Logger(),
	}

	detectors := e.detectors.All()
	results := make([]*detect.Result, len(detectors))
	errs := make([]error, len(detectors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexWorkers)
	for i, d := range detectors {
		if e.cfg.IsDetectorDisabled(d.RuleID()) {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if !d.ShouldRun(dctx) {
				return nil
			}
			results[i], errs[i] = e.runOne(d, dctx)
			return nil
		})
	}
	_ = g.Wait()

	var entries []report.Entry
	seen := map[string]bool{}
	for i, d := range detectors {
		if errs[i] != nil {
			*warnings = append(*warnings, detect.Warning{Source: d.RuleID(), Message: errs[i].Error()})
			e.log.Warn().Str("detector", d.RuleID()).Err(errs[i]).Msg("detector failed")
			continue
		}
		result := results[i]
		if result == nil {
			continue
		}
		if result.RuleID == "" {
			result.RuleID = d.RuleID()
		}
		if seen[result.RuleID] {
			*warnings = append(*warnings, detect.Warning{
				Source:  d.RuleID(),
				Message: fmt.Sprintf("duplicate result for rule %s dropped", result.RuleID),
			})
			continue
		}
		seen[result.RuleID] = true
		result.Confidence = detect.ClampConfidence(result.Confidence)
		result.Evidence = detect.CapEvidence(result.Evidence)
		if result.Stats == nil {
			result.Stats = detect.NewStats()
		}
		entries = append(entries, report.Entry{Result: result})
	}
	return entries
}

// runOne invokes a single detector, converting panics into errors.
func (e *Engine) runOne(d detect.Detector, dctx *detect.Context) (result *detect.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("detector panicked: %v", r)
		}
	}()
	return d.Detect(dctx)
}

// walkRepo collects candidate relative paths, honoring hard excludes and
// configured glob patterns.
func (e *Engine) walkRepo(absRepo string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(absRepo, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees degrade the scan, they do not abort it.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(absRepo, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if hardExcludes[d.Name()] || e.isExcluded(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(d.Name(), ".egg-info") {
			return nil
		}
		if e.isExcluded(relPath) {
			return nil
		}
		files = append(files, relPath)
		return nil
	})
	return files, err
}

// isExcluded checks a relative path against the configured exclude
// patterns. dir/** patterns match the directory and everything under it.
func (e *Engine) isExcluded(relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range e.cfg.Exclude {
		if strings.HasSuffix(pattern, "/**") {
			dirPrefix := strings.TrimSuffix(pattern, "/**")
			if relPath == dirPrefix || strings.HasPrefix(relPath, dirPrefix+"/") {
				return true
			}
		}

		if matched, err := filepath.Match(pattern, relPath); err == nil && matched {
			return true
		}

		if strings.HasPrefix(pattern, "**/") {
			sub := strings.TrimPrefix(pattern, "**/")
			if matched, err := filepath.Match(sub, filepath.Base(relPath)); err == nil && matched {
				return true
			}
		}
	}
	return false
}
