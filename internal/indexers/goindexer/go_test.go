package goindexer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/steph-dove/conventions/internal/facts"
)

const sample = `// Package widget does widget things.
package widget

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Widget is a thing.
type Widget struct {
	Name string
}

// Reader reads.
type Reader interface {
	fmt.Stringer
	Read() error
}

// Process handles a widget.
func Process(w Widget, n int) error {
	fmt.Println(w.Name)
	return nil
}

func (w *Widget) rename(name string) {
	w.Name = name
}

func helper(t testingT) {
	t.Helper()
}
`

type testingT interface{ Helper() }

func TestIndexGoFile(t *testing.T) {
	ix := New()
	idx := ix.Index("internal/widget/widget.go", []byte(sample))

	if idx.Language != facts.LangGo {
		t.Fatalf("language = %q", idx.Language)
	}

	imports := idx.OfKind(facts.KindImport)
	if len(imports) != 2 {
		t.Fatalf("imports = %d, want 2", len(imports))
	}
	if imports[1].Module != "github.com/gin-gonic/gin" {
		t.Errorf("import module = %q", imports[1].Module)
	}

	var fns []facts.Fact
	for _, f := range idx.OfKind(facts.KindFunction) {
		fns = append(fns, f)
	}
	if len(fns) != 3 {
		t.Fatalf("functions = %d, want 3", len(fns))
	}

	proc := fns[0]
	if proc.Name != "Process" || proc.ParamCount != 2 || proc.TypedParams != 2 {
		t.Errorf("Process fact = %+v", proc)
	}
	if !proc.HasReturnType || !proc.Exported || !proc.HasDoc || proc.IsMethod {
		t.Errorf("Process flags = %+v", proc)
	}

	rename := fns[1]
	if rename.Name != "Widget.rename" || !rename.IsMethod || rename.Receiver != "Widget" {
		t.Errorf("rename fact = %+v", rename)
	}
	if rename.Exported || rename.HasDoc {
		t.Errorf("rename flags = %+v", rename)
	}

	classes := idx.OfKind(facts.KindClass)
	if len(classes) != 2 {
		t.Fatalf("classes = %d, want 2", len(classes))
	}
	if classes[0].Name != "Widget" || classes[0].Raw != "struct" {
		t.Errorf("Widget class = %+v", classes[0])
	}
	if classes[1].Raw != "interface" || !reflect.DeepEqual(classes[1].Bases, []string{"fmt.Stringer"}) {
		t.Errorf("Reader class = %+v", classes[1])
	}

	foundPrintln := false
	for _, c := range idx.OfKind(facts.KindCall) {
		if c.Name == "fmt.Println" {
			foundPrintln = true
		}
	}
	if !foundPrintln {
		t.Error("fmt.Println call not extracted")
	}

	fixtures := idx.OfKind(facts.KindFixture)
	if len(fixtures) != 1 || fixtures[0].Name != "helper" {
		t.Errorf("fixtures = %+v", fixtures)
	}
}

func TestIndexPackageDoc(t *testing.T) {
	ix := New()
	idx := ix.Index("widget.go", []byte(sample))

	docs := idx.OfKind(facts.KindDocComment)
	if len(docs) == 0 {
		t.Fatal("no doc comments")
	}
	if docs[0].Text != "Package widget does widget things." {
		t.Errorf("package doc = %q", docs[0].Text)
	}
}

func TestIndexToleratesGarbage(t *testing.T) {
	ix := New()
	inputs := [][]byte{
		nil,
		[]byte(""),
		[]byte("\x00\x01\x02\xff"),
		[]byte("package broken\nfunc ("),
		[]byte("not go at all"),
	}
	for _, in := range inputs {
		idx := ix.Index("x.go", in)
		if idx == nil {
			t.Fatalf("nil index for input %q", in)
		}
	}
}

func TestIndexPartialParse(t *testing.T) {
	// The first function survives even when a later decl is broken.
	src := []byte("package p\n\nfunc Good() {}\n\nfunc Bad(( {}\n")
	ix := New()
	idx := ix.Index("p.go", src)

	found := false
	for _, f := range idx.OfKind(facts.KindFunction) {
		if f.Name == "Good" {
			found = true
		}
	}
	if !found {
		t.Error("Good not extracted from partial parse")
	}
}

func TestIndexCRLFSource(t *testing.T) {
	ix := New()
	crlf := strings.ReplaceAll(sample, "\n", "\r\n")
	a := ix.Index("widget.go", []byte(crlf))
	b := ix.Index("widget.go", []byte(sample))
	if !reflect.DeepEqual(a.Facts, b.Facts) {
		t.Error("CRLF source yields different facts than LF source")
	}
	if got := a.Lines[1]; got != "package widget\r" {
		t.Errorf("Lines[1] = %q, want carriage return kept", got)
	}
}

func TestIndexDeterministic(t *testing.T) {
	ix := New()
	a := ix.Index("widget.go", []byte(sample))
	b := ix.Index("widget.go", []byte(sample))
	if !reflect.DeepEqual(a.Facts, b.Facts) {
		t.Error("indexing is not deterministic")
	}
	if a.Hash != b.Hash {
		t.Error("hash differs between runs")
	}
}
