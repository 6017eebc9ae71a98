// Package nodeindexer extracts facts from JavaScript and TypeScript source
// using tree-sitter. Plain .js files go through the TypeScript grammar,
// which parses JS as a subset.
package nodeindexer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/steph-dove/conventions/internal/facts"
)

// Test hook callees recorded as fixture facts.
var testHooks = map[string]bool{
	"beforeEach": true,
	"afterEach":  true,
	"beforeAll":  true,
	"afterAll":   true,
	"before":     true,
	"after":      true,
}

// Indexer indexes JavaScript/TypeScript files.
type Indexer struct{}

func New() *Indexer {
	return &Indexer{}
}

func (ix *Indexer) Language() facts.Language {
	return facts.LangNode
}

func (ix *Indexer) Extensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}

// Index parses one file. Tree-sitter always yields a tree, possibly with
// error nodes; whatever parses cleanly is extracted.
func (ix *Indexer) Index(path string, content []byte) (idx *facts.Index) {
	idx = facts.NewIndex(path, facts.LangNode, content)
	defer func() {
		_ = recover()
	}()

	lang := typescript.LanguageTypescript()
	if strings.HasSuffix(path, ".tsx") || strings.HasSuffix(path, ".jsx") {
		lang = typescript.LanguageTSX()
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(sitter.NewLanguage(lang))

	tree := parser.Parse(content, nil)
	defer tree.Close()

	root := tree.RootNode()
	for i := range root.ChildCount() {
		extractNode(idx, root.Child(i), content, false)
	}
	extractCalls(idx, root, content)

	return idx
}

func extractNode(idx *facts.Index, node *sitter.Node, src []byte, exported bool) {
	switch node.Kind() {
	case "export_statement":
		for _, kind := range []string{
			"function_declaration", "class_declaration",
			"interface_declaration", "type_alias_declaration",
			"lexical_declaration", "enum_declaration",
		} {
			if decl := findChildByKind(node, kind); decl != nil {
				extractNode(idx, decl, src, true)
				return
			}
		}

	case "import_statement":
		source := findChildByKind(node, "string")
		if source == nil {
			return
		}
		module := strings.Trim(nodeText(source, src), `"'`)
		idx.Add(facts.Fact{
			Kind:      facts.KindImport,
			Name:      module,
			Module:    module,
			Names:     importedNames(node, src),
			StartLine: line(node),
			EndLine:   line(node),
		})

	case "function_declaration":
		name := findChildByKind(node, "identifier")
		if name == nil {
			return
		}
		params, typed := countParams(node, src)
		idx.Add(facts.Fact{
			Kind:          facts.KindFunction,
			Name:          nodeText(name, src),
			StartLine:     line(node),
			EndLine:       int(node.EndPosition().Row) + 1,
			ParamCount:    params,
			TypedParams:   typed,
			HasReturnType: findChildByKind(node, "type_annotation") != nil,
			IsAsync:       hasChildKind(node, "async"),
			Exported:      exported,
		})

	case "lexical_declaration":
		for i := range node.ChildCount() {
			decl := node.Child(i)
			if decl.Kind() != "variable_declarator" {
				continue
			}
			name := findChildByKind(decl, "identifier")
			arrow := findChildByKind(decl, "arrow_function")
			if name == nil || arrow == nil {
				continue
			}
			params, typed := countParams(arrow, src)
			idx.Add(facts.Fact{
				Kind:          facts.KindFunction,
				Name:          nodeText(name, src),
				StartLine:     line(node),
				EndLine:       int(node.EndPosition().Row) + 1,
				ParamCount:    params,
				TypedParams:   typed,
				HasReturnType: findChildByKind(arrow, "type_annotation") != nil,
				IsAsync:       hasChildKind(arrow, "async"),
				Exported:      exported,
			})
		}

	case "class_declaration":
		extractClass(idx, node, src, exported)

	case "interface_declaration":
		name := findChildByKind(node, "type_identifier")
		if name == nil {
			return
		}
		idx.Add(facts.Fact{
			Kind:      facts.KindClass,
			Name:      nodeText(name, src),
			StartLine: line(node),
			EndLine:   int(node.EndPosition().Row) + 1,
			Raw:       "interface",
			Exported:  exported,
		})

	case "type_alias_declaration":
		name := findChildByKind(node, "type_identifier")
		if name == nil {
			return
		}
		idx.Add(facts.Fact{
			Kind:      facts.KindClass,
			Name:      nodeText(name, src),
			StartLine: line(node),
			EndLine:   line(node),
			Raw:       "type",
			Exported:  exported,
		})
	}
}

func extractClass(idx *facts.Index, node *sitter.Node, src []byte, exported bool) {
	name := findChildByKind(node, "type_identifier")
	if name == nil {
		name = findChildByKind(node, "identifier")
	}
	if name == nil {
		return
	}
	className := nodeText(name, src)

	var bases []string
	if heritage := findChildByKind(node, "class_heritage"); heritage != nil {
		for i := range heritage.ChildCount() {
			clause := heritage.Child(i)
			switch clause.Kind() {
			case "extends_clause", "implements_clause":
				for j := range clause.ChildCount() {
					t := clause.Child(j)
					if t.Kind() == "type_identifier" || t.Kind() == "identifier" {
						bases = append(bases, nodeText(t, src))
					}
				}
			}
		}
	}

	// Decorators sit as preceding siblings inside the class node.
	for i := range node.ChildCount() {
		c := node.Child(i)
		if c.Kind() == "decorator" {
			idx.Add(facts.Fact{
				Kind:      facts.KindAnnotation,
				Name:      strings.TrimPrefix(strings.SplitN(nodeText(c, src), "(", 2)[0], "@"),
				Target:    className,
				StartLine: line(c),
				EndLine:   line(c),
				Raw:       nodeText(c, src),
			})
		}
	}

	idx.Add(facts.Fact{
		Kind:      facts.KindClass,
		Name:      className,
		StartLine: line(node),
		EndLine:   int(node.EndPosition().Row) + 1,
		Bases:     bases,
		Raw:       "class",
		Exported:  exported,
	})

	body := findChildByKind(node, "class_body")
	if body == nil {
		return
	}
	for i := range body.ChildCount() {
		member := body.Child(i)
		if member.Kind() != "method_definition" {
			continue
		}
		mName := findChildByKind(member, "property_identifier")
		if mName == nil {
			continue
		}
		methodName := nodeText(mName, src)
		params, typed := countParams(member, src)
		private := strings.HasPrefix(methodName, "#")
		for j := range member.ChildCount() {
			c := member.Child(j)
			if c.Kind() == "accessibility_modifier" && nodeText(c, src) == "private" {
				private = true
			}
		}
		idx.Add(facts.Fact{
			Kind:          facts.KindFunction,
			Name:          className + "." + methodName,
			StartLine:     line(member),
			EndLine:       int(member.EndPosition().Row) + 1,
			ParamCount:    params,
			TypedParams:   typed,
			HasReturnType: findChildByKind(member, "type_annotation") != nil,
			IsAsync:       hasChildKind(member, "async"),
			IsMethod:      true,
			Receiver:      className,
			Exported:      exported && !private,
		})
	}
}

// extractCalls walks the whole tree collecting call expressions. Test
// lifecycle hooks additionally produce fixture facts.
func extractCalls(idx *facts.Index, node *sitter.Node, src []byte) {
	if node.Kind() == "call_expression" {
		if fn := node.Child(0); fn != nil {
			name := callName(fn, src)
			if name != "" {
				idx.Add(facts.Fact{
					Kind:      facts.KindCall,
					Name:      name,
					StartLine: line(node),
					EndLine:   line(node),
				})
				if testHooks[name] {
					idx.Add(facts.Fact{
						Kind:      facts.KindFixture,
						Name:      name,
						StartLine: line(node),
						EndLine:   line(node),
						Scope:     "test",
					})
				}
				// CommonJS require doubles as an import.
				if name == "require" {
					if mod := requireArg(node, src); mod != "" {
						idx.Add(facts.Fact{
							Kind:      facts.KindImport,
							Name:      mod,
							Module:    mod,
							StartLine: line(node),
							EndLine:   line(node),
						})
					}
				}
			}
		}
	}
	for i := range node.ChildCount() {
		extractCalls(idx, node.Child(i), src)
	}
}

func callName(fn *sitter.Node, src []byte) string {
	switch fn.Kind() {
	case "identifier":
		return nodeText(fn, src)
	case "member_expression":
		text := nodeText(fn, src)
		if len(text) > 80 || strings.ContainsAny(text, "({\n") {
			return ""
		}
		return text
	}
	return ""
}

func requireArg(call *sitter.Node, src []byte) string {
	args := findChildByKind(call, "arguments")
	if args == nil {
		return ""
	}
	str := findChildByKind(args, "string")
	if str == nil {
		return ""
	}
	return strings.Trim(nodeText(str, src), `"'`)
}

func countParams(node *sitter.Node, src []byte) (total, typed int) {
	params := findChildByKind(node, "formal_parameters")
	if params == nil {
		return 0, 0
	}
	for i := range params.ChildCount() {
		p := params.Child(i)
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			total++
			if findChildByKind(p, "type_annotation") != nil {
				typed++
			}
		case "identifier", "object_pattern", "array_pattern", "rest_pattern":
			// Untyped JS-style parameter.
			total++
		}
	}
	return total, typed
}

func importedNames(node *sitter.Node, src []byte) []string {
	clause := findChildByKind(node, "import_clause")
	if clause == nil {
		return nil
	}
	var names []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Kind() == "identifier" {
			names = append(names, nodeText(n, src))
			return
		}
		for i := range n.ChildCount() {
			walk(n.Child(i))
		}
	}
	walk(clause)
	return names
}

func hasChildKind(node *sitter.Node, kind string) bool {
	return findChildByKind(node, kind) != nil
}

func findChildByKind(node *sitter.Node, kind string) *sitter.Node {
	for i := range node.ChildCount() {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

func nodeText(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

func line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}
