package pydetect

import (
	"testing"

	"github.com/steph-dove/conventions/internal/facts"
)

func TestDIStyleFastAPIDepends(t *testing.T) {
	ctx := newCtx(pyFile("app/api/users.py",
		facts.Fact{Kind: facts.KindCall, Name: "Depends", StartLine: 10},
		facts.Fact{Kind: facts.KindCall, Name: "fastapi.Depends", StartLine: 14},
		facts.Fact{Kind: facts.KindFunction, Name: "get_db", StartLine: 5},
	))
	res := mustDetect(t, NewDIStyle(), ctx)

	if got := res.Stats.Str("dominant_pattern"); got != "fastapi_depends" {
		t.Errorf("dominant = %q", got)
	}
	if got := res.Stats.Int("depends_count"); got != 3 {
		t.Errorf("depends = %d, want 3", got)
	}
}

func TestDIStyleContainerLibrary(t *testing.T) {
	ctx := newCtx(pyFile("app/container.py",
		facts.Fact{Kind: facts.KindImport, Module: "dependency_injector.containers", StartLine: 1},
		facts.Fact{Kind: facts.KindClass, Name: "AppContainer", StartLine: 4},
	))
	res := mustDetect(t, NewDIStyle(), ctx)
	if got := res.Stats.Str("dominant_pattern"); got != "container_di" {
		t.Errorf("dominant = %q", got)
	}
}

func TestDIStyleSingletonThreshold(t *testing.T) {
	// Two module-level constructions are noise and produce no result.
	ctx := newCtx(pyFile("app/clients.py",
		facts.Fact{Kind: facts.KindCall, Name: "HTTPClient", StartLine: 5},
		facts.Fact{Kind: facts.KindCall, Name: "RedisConnection", StartLine: 8},
	))
	mustSkip(t, NewDIStyle(), ctx)

	// Three or more count as a pattern.
	ctx = newCtx(pyFile("app/clients.py",
		facts.Fact{Kind: facts.KindCall, Name: "HTTPClient", StartLine: 5},
		facts.Fact{Kind: facts.KindCall, Name: "RedisConnection", StartLine: 8},
		facts.Fact{Kind: facts.KindCall, Name: "SessionPool", StartLine: 11},
	))
	res := mustDetect(t, NewDIStyle(), ctx)
	if got := res.Stats.Str("dominant_pattern"); got != "module_singletons" {
		t.Errorf("dominant = %q", got)
	}
}

func TestDIStyleIgnoresLateConstruction(t *testing.T) {
	// Construction deep inside a module is not a module-level singleton.
	ctx := newCtx(pyFile("app/deep.py",
		facts.Fact{Kind: facts.KindCall, Name: "HTTPClient", StartLine: 120},
		facts.Fact{Kind: facts.KindCall, Name: "PGConnection", StartLine: 130},
		facts.Fact{Kind: facts.KindCall, Name: "SessionPool", StartLine: 140},
	))
	mustSkip(t, NewDIStyle(), ctx)
}

func TestDIStyleMixedPatterns(t *testing.T) {
	ctx := newCtx(
		pyFile("app/api/users.py",
			facts.Fact{Kind: facts.KindCall, Name: "Depends", StartLine: 10},
			facts.Fact{Kind: facts.KindCall, Name: "Depends", StartLine: 12},
		),
		pyFile("app/container.py",
			facts.Fact{Kind: facts.KindImport, Module: "injector", StartLine: 1},
		),
	)
	res := mustDetect(t, NewDIStyle(), ctx)
	if got := res.Stats.Str("dominant_pattern"); got != "fastapi_depends" {
		t.Errorf("dominant = %q", got)
	}
	if res.Confidence > 75 {
		t.Errorf("mixed pattern confidence = %d, want capped at 75", res.Confidence)
	}
}
