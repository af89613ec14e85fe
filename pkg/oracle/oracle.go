// Package oracle defines the boundary to the external isotactic-decision
// procedure. The procedure itself -- given two automata and an alignment,
// decide yes/no -- is treated as a black box; this package only specifies
// and adapts the contract between the search core and that decision.
package oracle

import (
	"context"
	"sync"

	"github.com/gitrdm/isoalign/internal/automaton"
	"github.com/gitrdm/isoalign/pkg/alignment"
)

// Oracle decides whether M1 and M2 are isotactic under the given
// alignment. Implementations may be expensive; the search core calls this
// only after the totality pre-filter, since a non-total relation must
// never reach the oracle.
type Oracle interface {
	IsIsotactic(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error)
}

// Func adapts a plain function to the Oracle interface, for tests and
// small scripted oracles that don't warrant a named type.
type Func func(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error)

// IsIsotactic implements Oracle.
func (f Func) IsIsotactic(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
	return f(ctx, m1, m2, alm)
}

// Cached wraps an Oracle with a mutex-guarded cache of the parsed
// automata, so a source path is only ever parsed once no
// matter how many nodes in the search reference it. automaton.Automaton
// is treated as read-only and shared once parsed, so callers never need
// a private copy.
type Cached struct {
	inner Oracle

	mu    sync.Mutex
	cache map[string]*automaton.Automaton
}

// NewCached wraps inner with an automaton parse cache keyed by file path.
func NewCached(inner Oracle) *Cached {
	return &Cached{inner: inner, cache: make(map[string]*automaton.Automaton)}
}

// Load returns the automaton at path, parsing and caching it on first use.
func (c *Cached) Load(path string) (*automaton.Automaton, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.cache[path]; ok {
		return a, nil
	}

	a, err := automaton.ParseFile(path)
	if err != nil {
		return nil, err
	}
	c.cache[path] = a
	return a, nil
}

// IsIsotactic implements Oracle by delegating to the wrapped Oracle.
func (c *Cached) IsIsotactic(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
	return c.inner.IsIsotactic(ctx, m1, m2, alm)
}
