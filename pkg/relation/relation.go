// Package relation implements BitRelation, the arbitrary-precision encoding
// of a candidate binary relation R subset-of S1 x S2 as a bitmask over the
// pair table, plus the pure functions of that code needed by the search:
// permissiveness, totality, and diagnostic string form.
//
// Operations here are pure functions of (code, pair table); a BitRelation
// is immutable after construction and therefore safe to share by value
// across goroutines.
package relation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/gitrdm/isoalign/pkg/symbols"
)

// BitRelation is a candidate relation R, represented as a non-negative
// integer whose i-th bit indicates inclusion of PairTable.Pairs[i]. Because
// |S1|*|S2| may exceed the machine word size, the code is stored as a
// *big.Int rather than a native integer.
type BitRelation struct {
	Code          *big.Int
	Table         *symbols.PairTable
	Permissiveness int
}

// New constructs a BitRelation and computes its permissiveness.
func New(code *big.Int, table *symbols.PairTable) *BitRelation {
	r := &BitRelation{Code: code, Table: table}
	r.Permissiveness = r.PermissivenessOf(code)
	return r
}

// NewWithPermissiveness constructs a BitRelation whose permissiveness has
// already been computed by a caller (typically the parent SearchNode,
// which computes a child's permissiveness before deciding whether to
// enqueue it at all).
func NewWithPermissiveness(code *big.Int, permissiveness int, table *symbols.PairTable) *BitRelation {
	return &BitRelation{Code: code, Table: table, Permissiveness: permissiveness}
}

// bitSet reports whether bit i of code is set.
func bitSet(code *big.Int, i int) bool {
	return code.Bit(i) == 1
}

// Pairs returns the set pairs of R in table order.
func (r *BitRelation) Pairs() []symbols.Pair {
	var out []symbols.Pair
	for i, p := range r.Table.Pairs {
		if bitSet(r.Code, i) {
			out = append(out, p)
		}
	}
	return out
}

// PermissivenessOf computes the permissiveness of an arbitrary code against
// this relation's pair table, without mutating the receiver. Used when
// previewing children in the spanning-tree grow iteration.
func (r *BitRelation) PermissivenessOf(code *big.Int) int {
	n1 := r.Table.S1.Len()
	n2 := r.Table.S2.Len()
	touch := make([]int, n1+n2)

	for i, p := range r.Table.Pairs {
		if !bitSet(code, i) {
			continue
		}
		touch[p.LeftIndex]++
		touch[n1+p.RightIndex]++
	}

	max := 0
	for _, c := range touch {
		if c > max {
			max = c
		}
	}
	return max
}

// ContainsAllSymbols reports whether every symbol of S1 appears as some
// pair's left symbol and every symbol of S2 appears as some pair's right
// symbol -- totality.
func (r *BitRelation) ContainsAllSymbols() bool {
	n1 := r.Table.S1.Len()
	n2 := r.Table.S2.Len()
	leftSeen := make([]bool, n1)
	rightSeen := make([]bool, n2)

	for i, p := range r.Table.Pairs {
		if !bitSet(r.Code, i) {
			continue
		}
		leftSeen[p.LeftIndex] = true
		rightSeen[p.RightIndex] = true
	}

	for _, seen := range leftSeen {
		if !seen {
			return false
		}
	}
	for _, seen := range rightSeen {
		if !seen {
			return false
		}
	}
	return true
}

// String renders R as a diagnostic "(a,x),(b,y)" list.
func (r *BitRelation) String() string {
	if r.Code.Sign() == 0 {
		return ""
	}

	var b strings.Builder
	first := true
	for i, p := range r.Table.Pairs {
		if !bitSet(r.Code, i) {
			continue
		}
		if !first {
			b.WriteString(",")
		}
		first = false
		fmt.Fprintf(&b, "(%s,%s)", p.Left, p.Right)
	}
	return b.String()
}

// MaxCode returns 2^N, the exclusive upper bound on relation codes for a
// pair table of size N.
func MaxCode(n int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(n))
}

// HighestSetBit returns the position of the most significant set bit of
// code, or -1 if code is zero.
func HighestSetBit(code *big.Int) int {
	return code.BitLen() - 1
}

// ChildCodes enumerates the spanning-tree children of code over an N-bit
// universe: c' = c | (1<<j) for every j strictly greater than code's
// highest set bit. This is the mechanism that visits every subset of a
// 2^N boolean lattice exactly once without revisiting a node through
// more than one parent ordering.
func ChildCodes(code *big.Int, n int) []*big.Int {
	highest := HighestSetBit(code)
	children := make([]*big.Int, 0, n-highest-1)

	for j := highest + 1; j < n; j++ {
		bit := new(big.Int).Lsh(big.NewInt(1), uint(j))
		child := new(big.Int).Or(code, bit)
		children = append(children, child)
	}

	return children
}
