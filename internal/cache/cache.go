// Package cache persists per-file indexing results keyed by content hash,
// so unchanged files skip re-indexing on subsequent scans. The cache is a
// single JSON file; any corruption or mismatch discards it and rebuilds.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/steph-dove/conventions/internal/facts"
)

// SchemaVersion gates cache compatibility. Bump on any change to the fact
// model or entry layout.
const SchemaVersion = 1

// Entry is one cached file index.
type Entry struct {
	File  string       `json:"file"`
	Hash  string       `json:"hash"`
	Index *facts.Index `json:"index"`
}

type snapshot struct {
	Version    int     `json:"version"`
	ConfigHash string  `json:"config_hash"`
	Entries    []Entry `json:"entries"`
}

// Store is an in-memory cache view bound to one file path. Safe for
// concurrent Get/Put during a scan.
type Store struct {
	mu         sync.Mutex
	path       string
	configHash string
	entries    map[string]Entry
	hits       int
	misses     int
}

// Open loads the cache at path. A missing file yields an empty store; a
// corrupt, version-mismatched, or config-mismatched file yields an empty
// store plus a notice string describing why the cache was discarded.
func Open(path, configHash string) (*Store, string) {
	s := &Store{
		path:       path,
		configHash: configHash,
		entries:    make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, ""
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return s, fmt.Sprintf("cache at %s is corrupt, rebuilding: %v", path, err)
	}
	if snap.Version != SchemaVersion {
		return s, fmt.Sprintf("cache at %s has schema version %d (want %d), rebuilding", path, snap.Version, SchemaVersion)
	}
	if snap.ConfigHash != configHash {
		return s, fmt.Sprintf("cache at %s was built with a different configuration, rebuilding", path)
	}

	for _, e := range snap.Entries {
		if e.File == "" || e.Hash == "" || e.Index == nil {
			continue
		}
		s.entries[e.File] = e
	}
	return s, ""
}

// Get returns the cached index for file when the content hash matches
// exactly.
func (s *Store) Get(file, hash string) (*facts.Index, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[file]
	if !ok || e.Hash != hash {
		s.misses++
		return nil, false
	}
	s.hits++
	return e.Index, true
}

// Put stores the index for a file, replacing any previous entry.
func (s *Store) Put(idx *facts.Index) {
	if idx == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[idx.File] = Entry{File: idx.File, Hash: idx.Hash, Index: idx}
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Counters returns cache hits and misses since Open.
func (s *Store) Counters() (hits, misses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

// Save writes the cache back to disk, creating parent directories as
// needed. Entries are sorted by file so the output is stable.
func (s *Store) Save() error {
	s.mu.Lock()
	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	configHash := s.configHash
	path := s.path
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].File < entries[j].File })

	snap := snapshot{
		Version:    SchemaVersion,
		ConfigHash: configHash,
		Entries:    entries,
	}
	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}
