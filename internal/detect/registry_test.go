package detect

import (
	"errors"
	"reflect"
	"testing"

	"github.com/steph-dove/conventions/internal/facts"
)

type fakeDetector struct {
	id string
}

func (f *fakeDetector) RuleID() string                   { return f.id }
func (f *fakeDetector) Languages() []facts.Language      { return nil }
func (f *fakeDetector) ShouldRun(*Context) bool          { return true }
func (f *fakeDetector) Detect(*Context) (*Result, error) { return nil, nil }

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry(nil)
	for _, id := range []string{"c.conventions.z", "a.conventions.m", "b.conventions.a"} {
		if err := r.Register(&fakeDetector{id: id}); err != nil {
			t.Fatal(err)
		}
	}
	want := []string{"c.conventions.z", "a.conventions.m", "b.conventions.a"}
	if got := r.RuleIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("RuleIDs = %v, want %v", got, want)
	}
	if r.Len() != 3 {
		t.Errorf("Len = %d", r.Len())
	}
}

func TestRegistryLastWinsKeepsPosition(t *testing.T) {
	r := NewRegistry(nil)
	first := &fakeDetector{id: "x.conventions.dup"}
	mid := &fakeDetector{id: "x.conventions.mid"}
	second := &fakeDetector{id: "x.conventions.dup"}

	_ = r.Register(first)
	_ = r.Register(mid)
	_ = r.Register(second)

	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
	if r.Get("x.conventions.dup") != Detector(second) {
		t.Error("later registration did not replace earlier")
	}
	want := []string{"x.conventions.dup", "x.conventions.mid"}
	if got := r.RuleIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRegistryRejectsMalformed(t *testing.T) {
	r := NewRegistry(nil)

	var regErr *RegistrationError
	if err := r.Register(nil); !errors.As(err, &regErr) {
		t.Errorf("nil detector error = %v", err)
	}
	if err := r.Register(&fakeDetector{}); !errors.As(err, &regErr) {
		t.Errorf("empty rule id error = %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("malformed detectors registered: %d", r.Len())
	}
}

func TestRegistryDisabledRules(t *testing.T) {
	r := NewRegistry([]string{"x.conventions.off"})
	if err := r.Register(&fakeDetector{id: "x.conventions.off"}); err != nil {
		t.Fatalf("disabled registration errored: %v", err)
	}
	_ = r.Register(&fakeDetector{id: "x.conventions.on"})

	if r.Get("x.conventions.off") != nil {
		t.Error("disabled detector retrievable")
	}
	if got := r.RuleIDs(); !reflect.DeepEqual(got, []string{"x.conventions.on"}) {
		t.Errorf("RuleIDs = %v", got)
	}
}

func TestRegisterAllCollectsErrors(t *testing.T) {
	r := NewRegistry(nil)
	errs := r.RegisterAll(
		&fakeDetector{id: "x.conventions.ok"},
		&fakeDetector{},
		nil,
		&fakeDetector{id: "x.conventions.also"},
	)
	if len(errs) != 2 {
		t.Fatalf("errs = %v", errs)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}
