package facts

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Language identifies a supported source language.
type Language string

// Supported language tags.
const (
	LangGo     Language = "go"
	LangPython Language = "python"
	LangNode   Language = "node"
)

// KnownLanguages returns all supported language tags in stable order.
func KnownLanguages() []Language {
	return []Language{LangGo, LangNode, LangPython}
}

// IsKnownLanguage reports whether name is a supported language tag.
func IsKnownLanguage(name string) bool {
	for _, l := range KnownLanguages() {
		if string(l) == name {
			return true
		}
	}
	return false
}

// Kind discriminates Fact variants.
type Kind string

// Fact kind constants.
const (
	KindFunction   Kind = "function"
	KindClass      Kind = "class"
	KindImport     Kind = "import"
	KindAnnotation Kind = "annotation"
	KindCall       Kind = "call"
	KindDocComment Kind = "doc_comment"
	KindFixture    Kind = "fixture"
)

// Fact is a single structural observation extracted from one source file.
// The Kind field selects which of the variant-specific fields are meaningful;
// unused fields stay at their zero value and are omitted from serialization.
// Facts are never mutated after the owning Index is built.
type Fact struct {
	Kind      Kind   `json:"kind"`
	Name      string `json:"name"`
	File      string `json:"file"` // relative, POSIX-style
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`

	// Function fields.
	ParamCount    int    `json:"param_count,omitempty"`
	TypedParams   int    `json:"typed_params,omitempty"`
	HasReturnType bool   `json:"has_return_type,omitempty"`
	IsAsync       bool   `json:"is_async,omitempty"`
	IsMethod      bool   `json:"is_method,omitempty"`
	Exported      bool   `json:"exported,omitempty"`
	HasDoc        bool   `json:"has_doc,omitempty"`
	Receiver      string `json:"receiver,omitempty"`

	// Class fields (struct/interface/class declarations).
	Bases []string `json:"bases,omitempty"`

	// Import fields.
	Module     string   `json:"module,omitempty"`
	Names      []string `json:"names,omitempty"`
	IsRelative bool     `json:"is_relative,omitempty"`

	// Annotation (decorator) fields.
	Target string `json:"target,omitempty"`
	Raw    string `json:"raw,omitempty"`

	// Doc comment fields.
	Text string `json:"text,omitempty"`

	// Fixture fields.
	Scope string `json:"scope,omitempty"`
}

// File roles inferred from the relative path.
const (
	RoleAPI     = "api"
	RoleService = "service"
	RoleDB      = "db"
	RoleSchema  = "schema"
	RoleTest    = "test"
	RoleDocs    = "docs"
	RoleOther   = "other"
)

// Index holds the ordered facts for one file, plus everything needed to
// serve evidence requests without touching the filesystem again. Immutable
// once built; a content change discards and rebuilds the whole Index.
type Index struct {
	File     string   `json:"file"` // relative, POSIX-style
	Language Language `json:"language"`
	Hash     string   `json:"hash"` // sha256 of the file content
	Role     string   `json:"role"`
	Facts    []Fact   `json:"facts"`
	Lines    []string `json:"lines"`
}

// NewIndex creates an empty Index for the given file content, computing the
// content hash, line table, and inferred role. Indexers append Facts to it.
// Lines are split on \n only and keep any trailing carriage return, so
// excerpts built from them reproduce the original file bytes.
func NewIndex(file string, lang Language, content []byte) *Index {
	lines := strings.Split(string(content), "\n")
	return &Index{
		File:     file,
		Language: lang,
		Hash:     ContentHash(content),
		Role:     InferRole(file),
		Lines:    lines,
	}
}

// ContentHash returns the hex sha256 of file content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Add appends facts, stamping the owning file path on each.
func (idx *Index) Add(ff ...Fact) {
	for _, f := range ff {
		f.File = idx.File
		idx.Facts = append(idx.Facts, f)
	}
}

// OfKind returns the facts of the given kind, in extraction order.
func (idx *Index) OfKind(kind Kind) []Fact {
	var out []Fact
	for _, f := range idx.Facts {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// LineCount returns the number of lines in the indexed file.
func (idx *Index) LineCount() int {
	return len(idx.Lines)
}

// InferRole guesses a file's architectural role from its relative path.
func InferRole(relPath string) string {
	lower := strings.ToLower(relPath)
	base := lower
	if i := strings.LastIndexByte(lower, '/'); i >= 0 {
		base = lower[i+1:]
	}

	if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") ||
		strings.HasSuffix(base, "_test.go") || base == "conftest.py" ||
		strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return RoleTest
	}

	parts := strings.Split(lower, "/")
	has := func(names ...string) bool {
		for _, p := range parts[:len(parts)-1] {
			for _, n := range names {
				if p == n {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("tests", "test", "testdata"):
		return RoleTest
	case has("docs", "doc", "documentation", "examples", "example", "samples", "sample", "tutorials", "tutorial", "demo", "demos"):
		return RoleDocs
	case has("api", "routes", "routers", "endpoints", "views", "handlers", "controllers"):
		return RoleAPI
	case has("db", "database", "models", "repositories", "repository", "repo", "dal", "orm", "store", "storage"):
		return RoleDB
	case has("services", "service", "business", "logic", "domain", "usecases", "usecase"):
		return RoleService
	case has("schemas", "schema", "dtos", "dto"):
		return RoleSchema
	}
	return RoleOther
}

// EvidenceSnippet is a literal source excerpt supporting a detector finding.
// Line numbers are 1-based and inclusive; the excerpt is the byte-accurate
// text of those lines.
type EvidenceSnippet struct {
	File      string `json:"file_path"`
	StartLine int    `json:"line_start"`
	EndLine   int    `json:"line_end"`
	Excerpt   string `json:"excerpt"`
}

// Evidence builds a snippet around line (1-based) with radius lines of
// context on each side. Returns nil when the line is out of range.
func (idx *Index) Evidence(line, radius int) *EvidenceSnippet {
	if line < 1 || line > len(idx.Lines) {
		return nil
	}
	start := line - radius
	if start < 1 {
		start = 1
	}
	end := line + radius
	if end > len(idx.Lines) {
		end = len(idx.Lines)
	}
	return &EvidenceSnippet{
		File:      idx.File,
		StartLine: start,
		EndLine:   end,
		Excerpt:   strings.Join(idx.Lines[start-1:end], "\n"),
	}
}
