package facts

import (
	"sort"
	"strings"
	"sync"
)

// Ref pairs a fact with the file it came from, for aggregate query results.
type Ref struct {
	File string
	Fact Fact
}

// RepoIndex aggregates the per-file indices of one scan and provides
// read-only queries over them. Files are always returned in sorted relative
// path order so query results are deterministic regardless of how the
// indices were produced.
type RepoIndex struct {
	mu    sync.RWMutex
	root  string
	files map[string]*Index
	order []string
}

// NewRepoIndex creates an empty repository index rooted at root.
func NewRepoIndex(root string) *RepoIndex {
	return &RepoIndex{
		root:  root,
		files: make(map[string]*Index),
	}
}

// Root returns the absolute path the scan was rooted at.
func (r *RepoIndex) Root() string {
	return r.root
}

// Add inserts a per-file index. A second Add for the same path replaces the
// previous index wholesale.
func (r *RepoIndex) Add(idx *Index) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[idx.File]; !ok {
		r.order = append(r.order, idx.File)
		sort.Strings(r.order)
	}
	r.files[idx.File] = idx
}

// Len returns the number of indexed files.
func (r *RepoIndex) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

// File returns the index for one relative path, or nil.
func (r *RepoIndex) File(relPath string) *Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.files[relPath]
}

// Files returns all per-file indices in sorted path order.
func (r *RepoIndex) Files() []*Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Index, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.files[p])
	}
	return out
}

// Languages returns the distinct languages present, sorted.
func (r *RepoIndex) Languages() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[Language]bool)
	for _, idx := range r.files {
		seen[idx.Language] = true
	}
	out := make([]Language, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasLanguage reports whether at least one file of lang was indexed.
func (r *RepoIndex) HasLanguage(lang Language) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, idx := range r.files {
		if idx.Language == lang {
			return true
		}
	}
	return false
}

// FilesOf returns the indices for one language, in sorted path order.
func (r *RepoIndex) FilesOf(lang Language) []*Index {
	var out []*Index
	for _, idx := range r.Files() {
		if idx.Language == lang {
			out = append(out, idx)
		}
	}
	return out
}

// FilesByRole returns the indices for one language whose role matches.
func (r *RepoIndex) FilesByRole(lang Language, role string) []*Index {
	var out []*Index
	for _, idx := range r.FilesOf(lang) {
		if idx.Role == role {
			out = append(out, idx)
		}
	}
	return out
}

// OfKind returns all facts of a kind across every file, in file order.
func (r *RepoIndex) OfKind(kind Kind) []Ref {
	var out []Ref
	for _, idx := range r.Files() {
		for _, f := range idx.Facts {
			if f.Kind == kind {
				out = append(out, Ref{File: idx.File, Fact: f})
			}
		}
	}
	return out
}

// OfKindIn returns all facts of a kind across files of one language.
func (r *RepoIndex) OfKindIn(lang Language, kind Kind) []Ref {
	var out []Ref
	for _, idx := range r.FilesOf(lang) {
		for _, f := range idx.Facts {
			if f.Kind == kind {
				out = append(out, Ref{File: idx.File, Fact: f})
			}
		}
	}
	return out
}

// CountImportsMatching counts files of lang importing a module that contains
// pattern as a substring. Each file counts at most once.
func (r *RepoIndex) CountImportsMatching(lang Language, pattern string) int {
	count := 0
	for _, idx := range r.FilesOf(lang) {
		for _, f := range idx.Facts {
			if f.Kind == KindImport && containsModule(f, pattern) {
				count++
				break
			}
		}
	}
	return count
}

// FindImportsMatching returns up to limit import facts whose module or
// imported names contain pattern.
func (r *RepoIndex) FindImportsMatching(lang Language, pattern string, limit int) []Ref {
	var out []Ref
	for _, idx := range r.FilesOf(lang) {
		for _, f := range idx.Facts {
			if f.Kind != KindImport || !containsModule(f, pattern) {
				continue
			}
			out = append(out, Ref{File: idx.File, Fact: f})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// FindCallsMatching returns up to limit call facts whose name contains
// pattern.
func (r *RepoIndex) FindCallsMatching(lang Language, pattern string, limit int) []Ref {
	var out []Ref
	for _, idx := range r.FilesOf(lang) {
		for _, f := range idx.Facts {
			if f.Kind != KindCall || !contains(f.Name, pattern) {
				continue
			}
			out = append(out, Ref{File: idx.File, Fact: f})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// Evidence builds a bounded snippet for a file/line, or nil if unavailable.
func (r *RepoIndex) Evidence(relPath string, line, radius int) *EvidenceSnippet {
	idx := r.File(relPath)
	if idx == nil {
		return nil
	}
	return idx.Evidence(line, radius)
}

func containsModule(f Fact, pattern string) bool {
	if contains(f.Module, pattern) {
		return true
	}
	for _, n := range f.Names {
		if contains(n, pattern) {
			return true
		}
	}
	return false
}

func contains(s, sub string) bool {
	return sub != "" && strings.Contains(s, sub)
}
