package searchpool

import (
	"context"
	"math/big"
	"testing"

	"github.com/gitrdm/isoalign/internal/automaton"
	"github.com/gitrdm/isoalign/pkg/alignment"
	"github.com/gitrdm/isoalign/pkg/oracle"
	"github.com/gitrdm/isoalign/pkg/symbols"
)

func mustPairTable(t *testing.T, left, right []string) *symbols.PairTable {
	t.Helper()
	s1, err := symbols.NewSet(left)
	if err != nil {
		t.Fatalf("NewSet(left): %v", err)
	}
	s2, err := symbols.NewSet(right)
	if err != nil {
		t.Fatalf("NewSet(right): %v", err)
	}
	return symbols.NewPairTable(s1, s2)
}

func alwaysTrueOracle() oracle.Oracle {
	return oracle.Func(func(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
		return true, nil
	})
}

func alwaysFalseOracle() oracle.Oracle {
	return oracle.Func(func(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
		return false, nil
	})
}

func newTestContext(table *symbols.PairTable, o oracle.Oracle) *Context {
	return &Context{
		Table:  table,
		M1:     &automaton.Automaton{},
		M2:     &automaton.Automaton{},
		Oracle: o,
		Bound:  NewBoundState(table.S1.Len(), table.S2.Len()),
	}
}

func TestEnumerationGuardSkipsEvaluationAtZero(t *testing.T) {
	table := mustPairTable(t, []string{"a", "b"}, []string{"s", "t"})
	ctx := newTestContext(table, alwaysFalseOracle())

	node := NewSearchNode(ctx, RootJob())
	result, err := node.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.IsoTests != 0 {
		t.Fatalf("expected no iso tests for the empty relation, got %d", result.IsoTests)
	}
	if len(result.Children) != table.N() {
		t.Fatalf("expected %d children from the root, got %d", table.N(), len(result.Children))
	}
}

func TestPermissivenessGateCutsSubtree(t *testing.T) {
	table := mustPairTable(t, []string{"a", "b"}, []string{"s", "t"})
	ctx := newTestContext(table, alwaysTrueOracle())
	ctx.Bound.TryImprove(0, big.NewInt(0), 0) // force the bound below anything reachable

	job := Job{Code: big.NewInt(1), Permissiveness: 1, ParentIso: IsoUnknown, ParentBestK: -1}
	node := NewSearchNode(ctx, job)

	result, err := node.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(result.Children) != 0 {
		t.Fatalf("expected the subtree to be cut, got %d children", len(result.Children))
	}
	if result.SubtreesSkipped != 1 {
		t.Fatalf("expected SubtreesSkipped=1, got %d", result.SubtreesSkipped)
	}
}

func TestNonTotalRelationSkipsEvaluationButEnumeratesChildren(t *testing.T) {
	table := mustPairTable(t, []string{"a", "b"}, []string{"s", "t"})
	ctx := newTestContext(table, alwaysTrueOracle())

	// code=1 covers only (a,s); b, t are never touched, so R is not total
	// and must not reach the oracle.
	job := Job{Code: big.NewInt(1), Permissiveness: 1, ParentIso: IsoUnknown, ParentBestK: -1}
	node := NewSearchNode(ctx, job)

	result, err := node.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.IsoTests != 0 {
		t.Fatalf("expected the oracle to not be called for a non-total relation, got %d calls", result.IsoTests)
	}
	if len(result.Children) == 0 {
		t.Fatal("expected a non-total relation to still enumerate children")
	}
}

func TestTotalRelationCallsOracleAndImprovesBound(t *testing.T) {
	table := mustPairTable(t, []string{"a", "b"}, []string{"s", "t"})
	ctx := newTestContext(table, alwaysTrueOracle())

	// Pair index order is i2*n1+i1, so bit0=(a,s), bit1=(b,s), bit2=(a,t),
	// bit3=(b,t). code=9 (bits 0 and 3) is the perfect matching
	// {(a,s),(b,t)}: total, p=1, well below the initial bound of 4.
	job := Job{Code: big.NewInt(9), Permissiveness: 1, ParentIso: IsoUnknown, ParentBestK: -1}
	node := NewSearchNode(ctx, job)

	result, err := node.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.IsoTests == 0 {
		t.Fatal("expected at least one oracle call for a total relation")
	}
	if got := ctx.Bound.Get(); got != 1 {
		t.Fatalf("expected the bound to reach max(p=1,k=1)=1, got %d", got)
	}
}

func TestKnownIsoInheritanceSkipsOracleAtMaxK(t *testing.T) {
	table := mustPairTable(t, []string{"a", "b"}, []string{"s", "t"})

	calls := 0
	countingOracle := oracle.Func(func(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
		calls++
		return true, nil
	})

	ctx := newTestContext(table, countingOracle)

	// Parent already proved this grouping isotactic at k=1: the child
	// (still total, more pairs) should reuse that instead of calling the
	// oracle again at its own largest_k, per known-iso inheritance.
	// code=11 is {(a,s),(b,s),(b,t)}: total, p=2 (below the initial bound
	// of 4, so the permissiveness cut does not fire), largest_k=2.
	job := Job{Code: big.NewInt(11), Permissiveness: 2, ParentIso: IsoYes, ParentBestK: 1}
	node := NewSearchNode(ctx, job)

	result, err := node.Process(context.Background())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.IsoTests != 0 {
		t.Fatalf("expected 0 oracle calls under known-iso inheritance at k=1, got %d", result.IsoTests)
	}
	if calls != 0 {
		t.Fatalf("expected the oracle function itself to not be invoked, got %d calls", calls)
	}
}

func TestChildEnumerationFollowsSpanningTree(t *testing.T) {
	table := mustPairTable(t, []string{"a", "b"}, []string{"s"})
	ctx := newTestContext(table, alwaysFalseOracle())

	node := NewSearchNode(ctx, RootJob())
	result, _ := node.Process(context.Background())

	codes := make(map[int64]bool)
	for _, c := range result.Children {
		codes[c.Code.Int64()] = true
	}
	if !codes[1] || !codes[2] {
		t.Fatalf("expected children {1,2} from root, got %v", result.Children)
	}
}
