package searchpool

import (
	"math/big"
	"sync"
	"sync/atomic"
)

// BoundState is the process-wide best-known result: the smallest max_pc
// found so far, and the relation/complexity that achieved it. Reads are a
// single atomic load (a stale, larger value only causes extra work, never
// unsound pruning); writes are serialized under a mutex with a
// double-checked comparison, following the incumbent-update pattern used
// for shared objective bounds in parallel branch-and-bound search.
type BoundState struct {
	best atomic.Int64

	mu           sync.Mutex
	bestRelation *big.Int
	bestK        int
}

// NewBoundState creates a BoundState with the loose initial upper bound
// n1*n2, the largest possible value of max(permissiveness, complexity)
// before any relation has been evaluated.
func NewBoundState(n1, n2 int) *BoundState {
	b := &BoundState{bestRelation: big.NewInt(0), bestK: -1}
	b.best.Store(int64(n1 * n2))
	return b
}

// Get returns the current best_max_pc. Safe to call from any goroutine
// without additional synchronization.
func (b *BoundState) Get() int64 {
	return b.best.Load()
}

// TryImprove atomically overwrites the best-known result if candidateMaxPC
// is strictly less than the current best, returning true if it did. The
// fast-path atomic load avoids taking the mutex on the overwhelmingly
// common case where the candidate cannot possibly improve on the current
// bound.
func (b *BoundState) TryImprove(candidateMaxPC int, code *big.Int, k int) bool {
	if int64(candidateMaxPC) >= b.best.Load() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if int64(candidateMaxPC) >= b.best.Load() {
		return false
	}

	b.best.Store(int64(candidateMaxPC))
	b.bestRelation = new(big.Int).Set(code)
	b.bestK = k
	return true
}

// Snapshot returns the current best_max_pc, best relation code, and best k
// as a consistent triple.
func (b *BoundState) Snapshot() (maxPC int64, relation *big.Int, k int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.best.Load(), new(big.Int).Set(b.bestRelation), b.bestK
}
