// Package indexers defines the per-language source indexers that turn raw
// file text into structured facts.
package indexers

import (
	"strings"

	"github.com/steph-dove/conventions/internal/facts"
)

// Indexer extracts facts from one file's content. Indexing is total: it
// must terminate and return an Index for any byte sequence, including
// binary garbage; malformed input degrades to a smaller (possibly empty)
// fact set, never an error. Indexing the same bytes twice must yield
// identical facts in identical order.
type Indexer interface {
	// Language returns the language tag this indexer handles.
	Language() facts.Language
	// Extensions returns the file extensions (with dot) it claims.
	Extensions() []string
	// Index extracts facts from content. path is the file's relative
	// POSIX-style path, used for evidence locations and role inference.
	Index(path string, content []byte) *facts.Index
}

// Registry holds registered indexers and resolves files to them by
// extension.
type Registry struct {
	indexers []Indexer
	byExt    map[string]Indexer
}

// NewRegistry creates an empty indexer registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Indexer)}
}

// Register adds an indexer, claiming its extensions. A later registration
// takes over extensions already claimed.
func (r *Registry) Register(ix Indexer) {
	r.indexers = append(r.indexers, ix)
	for _, ext := range ix.Extensions() {
		r.byExt[ext] = ix
	}
}

// ForFile returns the indexer claiming the file's extension, or nil.
func (r *Registry) ForFile(relPath string) Indexer {
	i := strings.LastIndexByte(relPath, '.')
	if i < 0 {
		return nil
	}
	return r.byExt[relPath[i:]]
}

// ForLanguage returns the indexer for a language tag, or nil.
func (r *Registry) ForLanguage(lang facts.Language) Indexer {
	for _, ix := range r.indexers {
		if ix.Language() == lang {
			return ix
		}
	}
	return nil
}

// All returns the registered indexers in registration order.
func (r *Registry) All() []Indexer {
	return r.indexers
}
