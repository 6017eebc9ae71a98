package builtin

import (
	"strings"
	"testing"
)

func TestAllRuleIDsUniqueAndWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range All() {
		id := d.RuleID()
		if id == "" {
			t.Error("detector with empty rule id")
			continue
		}
		if seen[id] {
			t.Errorf("duplicate rule id %s", id)
		}
		seen[id] = true
		if !strings.Contains(id, ".conventions.") {
			t.Errorf("rule id %s missing .conventions. segment", id)
		}
	}
	if len(seen) != 14 {
		t.Errorf("detector count = %d, want 14", len(seen))
	}
}

func TestAllOrderIsStable(t *testing.T) {
	a := All()
	b := All()
	for i := range a {
		if a[i].RuleID() != b[i].RuleID() {
			t.Fatalf("order differs at %d: %s vs %s", i, a[i].RuleID(), b[i].RuleID())
		}
	}
	if a[0].RuleID() != "repo.conventions.layout" {
		t.Errorf("first detector = %s, want repo.conventions.layout", a[0].RuleID())
	}
}
