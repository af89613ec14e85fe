// Package refdecision provides a bundled, in-process reference isotactic-
// decision procedure. A production-grade decision procedure -- full
// automaton determinization and witness-graph comparison -- is treated as
// a black-box oracle and is out of scope here.
//
// This package instead implements a smaller, self-contained approximation
// sufficient to make the CLI and its default oracle runnable end-to-end:
// it quotients each automaton's edges by the alignment groups that cover
// their labels, drops edges whose label is not covered by any group
// (epsilon-elimination), and checks the two resulting labeled multigraphs
// for isomorphism. It is a reference implementation, not a certified
// determinization-based decision procedure.
package refdecision

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gitrdm/isoalign/internal/automaton"
	"github.com/gitrdm/isoalign/pkg/alignment"
)

// MaxStates bounds the automaton size this reference decision procedure
// will attempt; beyond it, exhaustive isomorphism search is impractical.
// A real oracle has no such limit -- this is a documented restriction of
// the bundled reference only.
const MaxStates = 14

// ErrTooLarge is returned when an automaton exceeds MaxStates.
var ErrTooLarge = fmt.Errorf("refdecision: automaton exceeds the reference implementation's state limit (%d)", MaxStates)

// Oracle implements oracle.Oracle using the quotient-and-compare procedure
// described in the package doc.
type Oracle struct{}

// IsIsotactic decides whether m1 and m2 are isotactic under alm by
// quotienting their edge labels by alm's groups and checking the
// resulting labeled transition graphs for isomorphism.
func (Oracle) IsIsotactic(ctx context.Context, m1, m2 *automaton.Automaton, alm alignment.Alignment) (bool, error) {
	if len(m1.States) > MaxStates || len(m2.States) > MaxStates {
		return false, ErrTooLarge
	}

	leftGroups := groupKeysFor(alm, true)
	rightGroups := groupKeysFor(alm, false)

	q1 := quotient(m1, leftGroups)
	q2 := quotient(m2, rightGroups)

	return isomorphic(q1, q2), nil
}

// groupKeysFor computes, for every label appearing in alm's left (or
// right, if left is false) groups, the sorted set of group indices that
// contain it, encoded as a stable string key. A label not covered by any
// group is absent from the returned map and its edges are dropped during
// quotienting (epsilon-elimination), matching the original's treatment of
// labels outside the alignment.
func groupKeysFor(alm alignment.Alignment, left bool) map[string]string {
	membership := make(map[string][]int)

	for i, pair := range alm {
		group := pair.Right
		if left {
			group = pair.Left
		}
		for _, label := range group {
			membership[label] = append(membership[label], i)
		}
	}

	keys := make(map[string]string, len(membership))
	for label, groupIdxs := range membership {
		sort.Ints(groupIdxs)
		parts := make([]string, len(groupIdxs))
		for i, g := range groupIdxs {
			parts[i] = fmt.Sprintf("%d", g)
		}
		keys[label] = strings.Join(parts, ",")
	}

	return keys
}

// quotientGraph is a labeled directed multigraph over integer vertex ids
// 0..n-1, with edges labeled by group key.
type quotientGraph struct {
	n     int
	edges []quotientEdge
}

type quotientEdge struct {
	from, to int
	label    string
}

func quotient(a *automaton.Automaton, groupKeys map[string]string) quotientGraph {
	ids := make(map[string]int, len(a.States))
	for _, s := range a.States {
		if _, ok := ids[s]; !ok {
			ids[s] = len(ids)
		}
	}

	q := quotientGraph{n: len(ids)}
	for _, e := range a.Edges {
		key, covered := groupKeys[e.Label]
		if !covered {
			continue
		}
		q.edges = append(q.edges, quotientEdge{from: ids[e.From], to: ids[e.To], label: key})
	}

	return q
}

// isomorphic checks whether a and b are isomorphic labeled multigraphs via
// backtracking search over vertex bijections. Feasible for the small
// automata this module targets (see MaxStates).
func isomorphic(a, b quotientGraph) bool {
	if a.n != b.n || len(a.edges) != len(b.edges) {
		return false
	}

	assignment := make([]int, a.n)
	for i := range assignment {
		assignment[i] = -1
	}
	used := make([]bool, b.n)

	return search(a, b, assignment, used, 0)
}

func search(a, b quotientGraph, assignment []int, used []bool, next int) bool {
	if next == len(assignment) {
		return edgesMatch(a, b, assignment)
	}

	for candidate := 0; candidate < b.n; candidate++ {
		if used[candidate] {
			continue
		}
		assignment[next] = candidate
		used[candidate] = true

		if partialConsistent(a, b, assignment, next) && search(a, b, assignment, used, next+1) {
			return true
		}

		used[candidate] = false
		assignment[next] = -1
	}

	return false
}

// partialConsistent prunes assignments early by checking that every edge
// among already-assigned vertices in a has a matching edge in b, and vice
// versa (a necessary condition for a full isomorphism).
func partialConsistent(a, b quotientGraph, assignment []int, upTo int) bool {
	aCounts := edgeMultiset(a, func(e quotientEdge) bool {
		return e.from <= upTo && e.to <= upTo && assignment[e.from] >= 0 && assignment[e.to] >= 0
	}, func(e quotientEdge) (int, int, string) {
		return assignment[e.from], assignment[e.to], e.label
	})

	bCounts := edgeMultiset(b, func(e quotientEdge) bool {
		return isAssignedTo(assignment, e.from) && isAssignedTo(assignment, e.to)
	}, func(e quotientEdge) (int, int, string) {
		return e.from, e.to, e.label
	})

	return multisetsEqual(aCounts, bCounts)
}

func isAssignedTo(assignment []int, target int) bool {
	for _, v := range assignment {
		if v == target {
			return true
		}
	}
	return false
}

func edgesMatch(a, b quotientGraph, assignment []int) bool {
	aCounts := edgeMultiset(a, func(quotientEdge) bool { return true }, func(e quotientEdge) (int, int, string) {
		return assignment[e.from], assignment[e.to], e.label
	})
	bCounts := edgeMultiset(b, func(quotientEdge) bool { return true }, func(e quotientEdge) (int, int, string) {
		return e.from, e.to, e.label
	})
	return multisetsEqual(aCounts, bCounts)
}

func edgeMultiset(g quotientGraph, include func(quotientEdge) bool, key func(quotientEdge) (int, int, string)) map[string]int {
	counts := make(map[string]int)
	for _, e := range g.edges {
		if !include(e) {
			continue
		}
		from, to, label := key(e)
		counts[fmt.Sprintf("%d>%d:%s", from, to, label)]++
	}
	return counts
}

func multisetsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
