// Package goindexer extracts facts from Go source using go/ast.
package goindexer

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/steph-dove/conventions/internal/facts"
)

// Indexer indexes Go files. Parse errors leave a partial AST behind, and
// whatever that partial tree contains is still extracted.
type Indexer struct{}

// New creates a Go indexer.
func New() *Indexer {
	return &Indexer{}
}

func (ix *Indexer) Language() facts.Language {
	return facts.LangGo
}

func (ix *Indexer) Extensions() []string {
	return []string{".go"}
}

// Index extracts facts from one Go file. Malformed input yields the facts
// recoverable from the partial parse, never an error.
func (ix *Indexer) Index(path string, content []byte) (idx *facts.Index) {
	idx = facts.NewIndex(path, facts.LangGo, content)
	defer func() {
		// A panic mid-extraction leaves the facts collected so far.
		_ = recover()
	}()

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if f == nil {
		_ = err
		return idx
	}

	if f.Doc != nil {
		idx.Add(facts.Fact{
			Kind:      facts.KindDocComment,
			Name:      f.Name.Name,
			StartLine: fset.Position(f.Doc.Pos()).Line,
			EndLine:   fset.Position(f.Doc.End()).Line,
			Text:      strings.TrimSpace(f.Doc.Text()),
		})
	}

	for _, imp := range f.Imports {
		idx.Add(facts.Fact{
			Kind:      facts.KindImport,
			Name:      strings.Trim(imp.Path.Value, `"`),
			Module:    strings.Trim(imp.Path.Value, `"`),
			StartLine: fset.Position(imp.Pos()).Line,
			EndLine:   fset.Position(imp.End()).Line,
		})
	}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			extractFunc(idx, fset, d)
		case *ast.GenDecl:
			if d.Tok == token.TYPE {
				extractTypes(idx, fset, d)
			}
		}
	}

	return idx
}

func extractFunc(idx *facts.Index, fset *token.FileSet, fn *ast.FuncDecl) {
	name := fn.Name.Name
	var receiver string
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		receiver = typeName(fn.Recv.List[0].Type)
		name = receiver + "." + name
	}

	params := countFields(fn.Type.Params)
	hasReturn := fn.Type.Results != nil && len(fn.Type.Results.List) > 0

	idx.Add(facts.Fact{
		Kind:          facts.KindFunction,
		Name:          name,
		StartLine:     fset.Position(fn.Pos()).Line,
		EndLine:       fset.Position(fn.End()).Line,
		ParamCount:    params,
		TypedParams:   params, // Go signatures are always typed
		HasReturnType: hasReturn,
		IsMethod:      receiver != "",
		Receiver:      receiver,
		Exported:      fn.Name.IsExported(),
		HasDoc:        fn.Doc != nil,
	})

	if fn.Doc != nil {
		idx.Add(facts.Fact{
			Kind:      facts.KindDocComment,
			Name:      name,
			Target:    name,
			StartLine: fset.Position(fn.Doc.Pos()).Line,
			EndLine:   fset.Position(fn.Doc.End()).Line,
			Text:      strings.TrimSpace(fn.Doc.Text()),
		})
	}

	if fn.Body == nil {
		return
	}

	isHelper := fn.Name.Name == "TestMain"
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		callName := exprName(call.Fun)
		if callName == "" {
			return true
		}
		idx.Add(facts.Fact{
			Kind:      facts.KindCall,
			Name:      callName,
			StartLine: fset.Position(call.Pos()).Line,
			EndLine:   fset.Position(call.Pos()).Line,
		})
		if callName == "t.Helper" || callName == "b.Helper" {
			isHelper = true
		}
		return true
	})

	if isHelper {
		idx.Add(facts.Fact{
			Kind:      facts.KindFixture,
			Name:      name,
			StartLine: fset.Position(fn.Pos()).Line,
			EndLine:   fset.Position(fn.End()).Line,
			Scope:     "test",
		})
	}
}

func extractTypes(idx *facts.Index, fset *token.FileSet, d *ast.GenDecl) {
	for _, spec := range d.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}

		raw := "alias"
		var bases []string
		switch t := ts.Type.(type) {
		case *ast.StructType:
			raw = "struct"
		case *ast.InterfaceType:
			raw = "interface"
			if t.Methods != nil {
				for _, m := range t.Methods.List {
					// Embedded interfaces act as bases.
					if len(m.Names) == 0 {
						if n := typeName(m.Type); n != "" {
							bases = append(bases, n)
						}
					}
				}
			}
		}

		hasDoc := ts.Doc != nil || d.Doc != nil
		idx.Add(facts.Fact{
			Kind:      facts.KindClass,
			Name:      ts.Name.Name,
			StartLine: fset.Position(ts.Pos()).Line,
			EndLine:   fset.Position(ts.End()).Line,
			Raw:       raw,
			Bases:     bases,
			Exported:  ts.Name.IsExported(),
			HasDoc:    hasDoc,
		})
	}
}

func countFields(fl *ast.FieldList) int {
	if fl == nil {
		return 0
	}
	n := 0
	for _, f := range fl.List {
		if len(f.Names) == 0 {
			n++
			continue
		}
		n += len(f.Names)
	}
	return n
}

// exprName renders a call target as a dotted name, e.g. "fmt.Errorf" or
// "t.Helper". Returns "" for targets with no stable name.
func exprName(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.SelectorExpr:
		base := exprName(x.X)
		if base == "" {
			return x.Sel.Name
		}
		return base + "." + x.Sel.Name
	case *ast.IndexExpr:
		return exprName(x.X)
	case *ast.IndexListExpr:
		return exprName(x.X)
	}
	return ""
}

func typeName(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.StarExpr:
		return typeName(x.X)
	case *ast.SelectorExpr:
		return exprName(x)
	case *ast.IndexExpr:
		return typeName(x.X)
	case *ast.IndexListExpr:
		return typeName(x.X)
	}
	return ""
}
