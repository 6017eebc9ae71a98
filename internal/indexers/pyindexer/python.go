// Package pyindexer extracts facts from Python source with line scanning.
// It does not run a Python parser; signatures are matched with regular
// expressions, which keeps indexing total over arbitrary input.
package pyindexer

import (
	"regexp"
	"strings"

	"github.com/steph-dove/conventions/internal/facts"
)

var (
	defRe       = regexp.MustCompile(`^(\s*)(async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	classRe     = regexp.MustCompile(`^(\s*)class\s+([A-Za-z_]\w*)\s*(\(([^)]*)\))?\s*:`)
	importRe    = regexp.MustCompile(`^\s*import\s+([\w.]+)(\s+as\s+\w+)?\s*$`)
	fromRe      = regexp.MustCompile(`^\s*from\s+(\.*[\w.]*)\s+import\s+(.+)$`)
	decoratorRe = regexp.MustCompile(`^\s*@([\w.]+)`)
	callRe      = regexp.MustCompile(`([A-Za-z_][\w.]*)\s*\(`)
	scopeRe     = regexp.MustCompile(`scope\s*=\s*["'](\w+)["']`)
)

// Python keywords that look like calls when followed by a paren.
var callKeywords = map[string]bool{
	"if": true, "elif": true, "while": true, "for": true, "return": true,
	"def": true, "class": true, "with": true, "assert": true, "del": true,
	"not": true, "and": true, "or": true, "lambda": true, "yield": true,
	"print": false, "raise": true, "except": true, "in": true, "is": true,
}

// Indexer indexes Python files.
type Indexer struct{}

func New() *Indexer {
	return &Indexer{}
}

func (ix *Indexer) Language() facts.Language {
	return facts.LangPython
}

func (ix *Indexer) Extensions() []string {
	return []string{".py"}
}

// Index scans one Python file line by line. Multi-line signatures are
// stitched together up to a small window; anything unreadable is skipped.
func (ix *Indexer) Index(path string, content []byte) (idx *facts.Index) {
	idx = facts.NewIndex(path, facts.LangPython, content)
	defer func() {
		_ = recover()
	}()

	lines := idx.Lines

	// Decorators seen since the last def/class, attached to the next one.
	var pending []facts.Fact

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lineNo := i + 1

		if m := decoratorRe.FindStringSubmatch(line); m != nil {
			dec := facts.Fact{
				Kind:      facts.KindAnnotation,
				Name:      m[1],
				StartLine: lineNo,
				EndLine:   lineNo,
				Raw:       strings.TrimSpace(line),
			}
			idx.Add(dec)
			pending = append(pending, dec)
			if isFixtureDecorator(m[1]) {
				idx.Add(facts.Fact{
					Kind:      facts.KindFixture,
					Name:      m[1],
					StartLine: lineNo,
					EndLine:   lineNo,
					Scope:     fixtureScope(line),
				})
			}
			continue
		}

		if m := importRe.FindStringSubmatch(line); m != nil {
			idx.Add(facts.Fact{
				Kind:      facts.KindImport,
				Name:      m[1],
				Module:    m[1],
				StartLine: lineNo,
				EndLine:   lineNo,
			})
			pending = nil
			continue
		}
		if m := fromRe.FindStringSubmatch(line); m != nil {
			mod := m[1]
			names := splitImportNames(m[2])
			idx.Add(facts.Fact{
				Kind:       facts.KindImport,
				Name:       mod,
				Module:     strings.TrimLeft(mod, "."),
				Names:      names,
				IsRelative: strings.HasPrefix(mod, "."),
				StartLine:  lineNo,
				EndLine:    lineNo,
			})
			pending = nil
			continue
		}

		if m := classRe.FindStringSubmatch(line); m != nil {
			var bases []string
			for _, b := range strings.Split(m[4], ",") {
				b = strings.TrimSpace(b)
				if b != "" {
					bases = append(bases, b)
				}
			}
			idx.Add(facts.Fact{
				Kind:      facts.KindClass,
				Name:      m[2],
				StartLine: lineNo,
				EndLine:   lineNo,
				Bases:     bases,
				HasDoc:    followsDocstring(lines, i),
			})
			pending = nil
			continue
		}

		if m := defRe.FindStringSubmatch(line); m != nil {
			indent := m[1]
			name := m[3]
			sig, sigEnd := gatherSignature(lines, i)

			params, typed := countParams(sig, len(indent) > 0)
			fact := facts.Fact{
				Kind:          facts.KindFunction,
				Name:          name,
				StartLine:     lineNo,
				EndLine:       sigEnd + 1,
				ParamCount:    params,
				TypedParams:   typed,
				HasReturnType: strings.Contains(sig, "->"),
				IsAsync:       m[2] != "",
				IsMethod:      len(indent) > 0,
				Exported:      !strings.HasPrefix(name, "_"),
				HasDoc:        followsDocstring(lines, sigEnd),
			}
			idx.Add(fact)

			for _, dec := range pending {
				if isFixtureDecorator(dec.Name) {
					// Rename the fixture fact to the function it decorates.
					ff := idx.OfKind(facts.KindFixture)
					if len(ff) > 0 {
						idx.Facts[lastFixtureIdx(idx)].Name = name
					}
				}
			}
			pending = nil
			i = sigEnd
			continue
		}

		for _, m := range callRe.FindAllStringSubmatch(line, -1) {
			name := m[1]
			bare := name
			if dot := strings.LastIndex(name, "."); dot >= 0 {
				bare = name[dot+1:]
			}
			if kw, known := callKeywords[bare]; known && kw {
				continue
			}
			if kw, known := callKeywords[name]; known && kw {
				continue
			}
			idx.Add(facts.Fact{
				Kind:      facts.KindCall,
				Name:      name,
				StartLine: lineNo,
				EndLine:   lineNo,
			})
		}
	}

	return idx
}

// gatherSignature joins a def line with continuation lines until the
// parens balance, capped at a 10 line window.
func gatherSignature(lines []string, start int) (sig string, end int) {
	var b strings.Builder
	depth := 0
	end = start
	for i := start; i < len(lines) && i < start+10; i++ {
		b.WriteString(lines[i])
		b.WriteString(" ")
		depth += strings.Count(lines[i], "(") - strings.Count(lines[i], ")")
		end = i
		if depth <= 0 && i > start {
			break
		}
		if depth == 0 && strings.Contains(lines[i], ":") {
			break
		}
	}
	return b.String(), end
}

// countParams counts parameters in a stitched signature and how many carry
// an annotation. self/cls on methods are not counted.
func countParams(sig string, isMethod bool) (total, typed int) {
	open := strings.Index(sig, "(")
	if open < 0 {
		return 0, 0
	}
	close := matchParen(sig, open)
	if close < 0 {
		close = len(sig)
	}
	inner := sig[open+1 : close]
	if strings.TrimSpace(inner) == "" {
		return 0, 0
	}

	for _, p := range splitTopLevel(inner) {
		p = strings.TrimSpace(p)
		if p == "" || p == "*" || p == "/" {
			continue
		}
		bare := strings.TrimLeft(p, "*")
		nameEnd := strings.IndexAny(bare, ":=")
		name := bare
		if nameEnd >= 0 {
			name = strings.TrimSpace(bare[:nameEnd])
		}
		if isMethod && (name == "self" || name == "cls") {
			continue
		}
		total++
		if strings.Contains(p, ":") {
			typed++
		}
	}
	return total, typed
}

func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on commas that are not nested inside brackets, so
// annotations like Dict[str, int] stay intact.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

func followsDocstring(lines []string, sigEnd int) bool {
	for i := sigEnd + 1; i < len(lines) && i <= sigEnd+2; i++ {
		t := strings.TrimSpace(lines[i])
		if t == "" {
			continue
		}
		return strings.HasPrefix(t, `"""`) || strings.HasPrefix(t, "'''") ||
			strings.HasPrefix(t, `r"""`) || strings.HasPrefix(t, `f"""`)
	}
	return false
}

func isFixtureDecorator(name string) bool {
	return name == "pytest.fixture" || name == "fixture" ||
		strings.HasSuffix(name, ".fixture")
}

func fixtureScope(line string) string {
	if m := scopeRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return "function"
}

func splitImportNames(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "()")
	var names []string
	for _, n := range strings.Split(s, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if as := strings.Index(n, " as "); as >= 0 {
			n = strings.TrimSpace(n[:as])
		}
		names = append(names, n)
	}
	return names
}

func lastFixtureIdx(idx *facts.Index) int {
	for i := len(idx.Facts) - 1; i >= 0; i-- {
		if idx.Facts[i].Kind == facts.KindFixture {
			return i
		}
	}
	return -1
}
