package oracle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gitrdm/isoalign/internal/automaton"
	"github.com/gitrdm/isoalign/pkg/alignment"
)

func writeDot(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestFuncAdapter(t *testing.T) {
	calls := 0
	f := Func(func(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
		calls++
		return true, nil
	})

	var o Oracle = f
	ok, err := o.IsIsotactic(context.Background(), &automaton.Automaton{}, &automaton.Automaton{}, nil)
	if err != nil {
		t.Fatalf("IsIsotactic: %v", err)
	}
	if !ok {
		t.Fatal("expected true")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestCachedLoadParsesOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeDot(t, dir, "m1.dot", `digraph M1 {
  s0 -> s1 [label="a"];
}`)

	parses := 0
	inner := Func(func(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
		return true, nil
	})
	c := NewCached(inner)

	for i := 0; i < 3; i++ {
		a, err := c.Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if a.Path != path {
			t.Fatalf("expected Path %q, got %q", path, a.Path)
		}
		parses++
	}
	if parses != 3 {
		t.Fatalf("expected to have called Load 3 times, got %d", parses)
	}

	// Loading the same path twice must return the identical cached pointer,
	// not a fresh parse.
	a1, _ := c.Load(path)
	a2, _ := c.Load(path)
	if a1 != a2 {
		t.Fatal("expected Load to return the cached automaton pointer")
	}
}

func TestCachedLoadPropagatesParseErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeDot(t, dir, "empty.dot", `digraph M1 {}`)

	c := NewCached(Func(func(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
		return false, nil
	}))

	if _, err := c.Load(path); err == nil {
		t.Fatal("expected error for automaton with no labeled edges")
	}
}

func TestCachedIsIsotacticDelegatesToInner(t *testing.T) {
	c := NewCached(Func(func(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
		return false, nil
	}))

	ok, err := c.IsIsotactic(context.Background(), &automaton.Automaton{}, &automaton.Automaton{}, nil)
	if err != nil {
		t.Fatalf("IsIsotactic: %v", err)
	}
	if ok {
		t.Fatal("expected the wrapped oracle's false result to pass through")
	}
}
