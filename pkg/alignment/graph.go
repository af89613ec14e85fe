// Package alignment builds the AlignmentGraph: the DAG of AlignmentPairs
// reachable by merging the symbols of a candidate relation R, grouped by
// complexity k.
//
// An AlignmentGraph is a throwaway, per-job structure: it is built fresh
// for one BitRelation, consumed by the SearchNode that owns it, and
// discarded when the job returns.
package alignment

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/gitrdm/isoalign/pkg/relation"
	"github.com/gitrdm/isoalign/pkg/symbols"
)

// Pair is a single alignment grouping n = (L, Rg), represented as two
// bitmasks over S1 and S2 respectively. Complexity k = popcount(left) *
// popcount(right).
type Pair struct {
	Left, Right uint64
	KLeft, KRight int
}

// ID uniquely identifies a Pair by its (left, right) bitmasks combined into
// one key, since left and right occupy disjoint bit ranges of the same
// namespace in the original C++ encoding; here they are kept as two
// distinct masks and combined only for map keys and deduplication.
func (p Pair) ID() uint64Pair { return uint64Pair{p.Left, p.Right} }

// K returns the complexity of this pair.
func (p Pair) K() int { return p.KLeft * p.KRight }

// uint64Pair is the map key type used to deduplicate AlignmentPairs by
// (left, right). Left and right are kept as two separate masks rather
// than packed into one word, so neither |S1| nor |S2| is bounded by
// half the word width.
type uint64Pair struct{ Left, Right uint64 }

func newPair(left, right uint64) Pair {
	return Pair{Left: left, Right: right, KLeft: bits.OnesCount64(left), KRight: bits.OnesCount64(right)}
}

// Graph is the lattice of AlignmentPairs derived from one candidate
// relation R, grouped by complexity.
type Graph struct {
	table *symbols.PairTable

	nodes map[uint64Pair]Pair
	byK   map[int][]Pair
}

// Build constructs the complete AlignmentGraph for a BitRelation, using
// the seed-then-merge algorithm: seed one node per pair in R, then merge
// nodes that share a side by exactly one symbol until no new node appears.
func Build(r *relation.BitRelation) *Graph {
	g := &Graph{
		table: r.Table,
		nodes: make(map[uint64Pair]Pair),
		byK:   make(map[int][]Pair),
	}

	queue := g.seed(r)
	g.mergeUntilFixedPoint(queue)

	return g
}

// seed creates the complexity-1 nodes, one per pair in R.
func (g *Graph) seed(r *relation.BitRelation) []Pair {
	var queue []Pair

	for _, p := range r.Pairs() {
		left := uint64(1) << uint(p.LeftIndex)
		right := uint64(1) << uint(p.RightIndex)

		node := newPair(left, right)
		if g.insert(node) {
			queue = append(queue, node)
		}
	}

	return queue
}

// insert adds node to the graph if it is not already present, returning
// true iff it was newly added.
func (g *Graph) insert(node Pair) bool {
	id := node.ID()
	if _, exists := g.nodes[id]; exists {
		return false
	}
	g.nodes[id] = node
	g.byK[node.K()] = append(g.byK[node.K()], node)
	return true
}

// mergeUntilFixedPoint repeatedly merges nodes sharing a side, following
// the single-symbol-advance rule, until an iteration produces no new
// nodes.
func (g *Graph) mergeUntilFixedPoint(queue []Pair) {
	for len(queue) > 0 {
		leftMap := make(map[uint64][]Pair)
		rightMap := make(map[uint64][]Pair)

		for _, n := range queue {
			leftMap[n.Left] = append(leftMap[n.Left], n)
			rightMap[n.Right] = append(rightMap[n.Right], n)
		}

		var next []Pair

		// Nodes sharing `left`: grow the right side by exactly one symbol.
		for _, group := range leftMap {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					a, b := group[i], group[j]
					mergedRight := a.Right | b.Right
					if bits.OnesCount64(mergedRight) != a.KRight+1 {
						continue
					}
					if created, ok := g.createIfNew(a.Left, mergedRight, a, b); ok {
						next = append(next, created)
					}
				}
			}
		}

		// Nodes sharing `right`: grow the left side by exactly one symbol.
		for _, group := range rightMap {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					a, b := group[i], group[j]
					mergedLeft := a.Left | b.Left
					if bits.OnesCount64(mergedLeft) != a.KLeft+1 {
						continue
					}
					if created, ok := g.createIfNew(mergedLeft, a.Right, a, b); ok {
						next = append(next, created)
					}
				}
			}
		}

		queue = next
	}
}

// createIfNew builds the candidate (left, right) pair and adds it to the
// graph unless it coincides with one of its two parents or already
// exists.
func (g *Graph) createIfNew(left, right uint64, parentA, parentB Pair) (Pair, bool) {
	candidate := newPair(left, right)
	if candidate.ID() == parentA.ID() || candidate.ID() == parentB.ID() {
		return Pair{}, false
	}
	if !g.insert(candidate) {
		return Pair{}, false
	}
	return candidate, true
}

// LargestK returns the highest complexity with at least one node.
func (g *Graph) LargestK() int {
	max := 0
	for k := range g.byK {
		if k > max {
			max = k
		}
	}
	return max
}

// NodesAt returns all AlignmentPairs at complexity k, in a stable order.
func (g *Graph) NodesAt(k int) []Pair {
	nodes := append([]Pair(nil), g.byK[k]...)
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Left != nodes[j].Left {
			return nodes[i].Left < nodes[j].Left
		}
		return nodes[i].Right < nodes[j].Right
	})
	return nodes
}

// Ks returns every complexity with at least one node, ascending.
func (g *Graph) Ks() []int {
	ks := make([]int, 0, len(g.byK))
	for k := range g.byK {
		ks = append(ks, k)
	}
	sort.Ints(ks)
	return ks
}

// AlignmentPair is one (L, Rg) grouping expressed in terms of the original
// symbol strings, the shape the oracle interface consumes.
type AlignmentPair struct {
	Left, Right []string
}

// Alignment is the set of AlignmentPairs handed to the oracle: every node
// with complexity <= maxK.
type Alignment []AlignmentPair

// ToOracleAlignment emits every AlignmentPair with complexity <= maxK,
// ordered from the highest k downward. The external isotactic-decision
// procedure is order-sensitive and historically fails on certain
// orderings; emitting highest-k-first is a documented contract, not an
// implementation detail.
func (g *Graph) ToOracleAlignment(maxK int) Alignment {
	var out Alignment

	ks := g.Ks()
	for i := len(ks) - 1; i >= 0; i-- {
		k := ks[i]
		if k > maxK {
			continue
		}
		for _, node := range g.NodesAt(k) {
			out = append(out, AlignmentPair{
				Left:  bitsToSymbols(node.Left, g.table.S1),
				Right: bitsToSymbols(node.Right, g.table.S2),
			})
		}
	}

	return out
}

func bitsToSymbols(mask uint64, set *symbols.Set) []string {
	var out []string
	for i := 0; i < set.Len(); i++ {
		if mask&(uint64(1)<<uint(i)) != 0 {
			out = append(out, set.At(i))
		}
	}
	return out
}

// String renders a pair as "{ab~x}" in the original toString convention.
func (g *Graph) String(p Pair) string {
	left := bitsToSymbols(p.Left, g.table.S1)
	right := bitsToSymbols(p.Right, g.table.S2)
	return fmt.Sprintf("{%s~%s}", joinLabels(left), joinLabels(right))
}

func joinLabels(labels []string) string {
	out := ""
	for _, l := range labels {
		out += l
	}
	return out
}
