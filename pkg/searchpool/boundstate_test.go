package searchpool

import (
	"math/big"
	"sync"
	"testing"
)

func TestNewBoundStateStartsAtLooseUpperBound(t *testing.T) {
	b := NewBoundState(3, 2)
	if got := b.Get(); got != 6 {
		t.Fatalf("expected initial bound 6, got %d", got)
	}
}

func TestTryImproveOnlyAcceptsStrictImprovement(t *testing.T) {
	b := NewBoundState(3, 2)

	if !b.TryImprove(4, big.NewInt(5), 2) {
		t.Fatal("expected 4 < 6 to improve")
	}
	if b.TryImprove(4, big.NewInt(9), 2) {
		t.Fatal("expected a tying candidate to not improve")
	}
	if b.TryImprove(5, big.NewInt(9), 2) {
		t.Fatal("expected a worse candidate to not improve")
	}
	if !b.TryImprove(1, big.NewInt(7), 1) {
		t.Fatal("expected 1 < 4 to improve")
	}

	maxPC, relation, k := b.Snapshot()
	if maxPC != 1 || relation.Cmp(big.NewInt(7)) != 0 || k != 1 {
		t.Fatalf("unexpected snapshot: maxPC=%d relation=%s k=%d", maxPC, relation, k)
	}
}

func TestTryImproveIsMonotoneUnderConcurrency(t *testing.T) {
	b := NewBoundState(20, 20) // initial bound 400

	var wg sync.WaitGroup
	for i := 400; i > 0; i-- {
		wg.Add(1)
		go func(candidate int) {
			defer wg.Done()
			b.TryImprove(candidate, big.NewInt(int64(candidate)), 1)
		}(i)
	}
	wg.Wait()

	if got := b.Get(); got != 1 {
		t.Fatalf("expected the bound to converge to 1, got %d", got)
	}
}
