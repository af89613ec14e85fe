package alignment

import (
	"fmt"
	"io"
)

// WriteDOT renders the alignment lattice to Graphviz dot format. An edge
// joins a node at one complexity level to each node at the next higher
// level that contains it with exactly one side grown (see
// sharesMergeAncestry); levels that are not adjacent are not joined, so
// not every merge that created a node appears as an edge. This diagnostic
// export is gated behind
// an explicit CLI flag; the search itself never produces dot output.
func (g *Graph) WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph AlignmentGraph {"); err != nil {
		return err
	}

	ks := g.Ks()
	for _, k := range ks {
		for _, node := range g.NodesAt(k) {
			label := g.String(node)
			if _, err := fmt.Fprintf(w, "  %q [label=%q];\n", label, fmt.Sprintf("%s %d", label, k)); err != nil {
				return err
			}
		}
	}

	for i := 0; i < len(ks)-1; i++ {
		for _, parent := range g.NodesAt(ks[i]) {
			for _, child := range g.NodesAt(ks[i+1]) {
				if sharesMergeAncestry(parent, child) {
					if _, err := fmt.Fprintf(w, "  %q -> %q;\n", g.String(parent), g.String(child)); err != nil {
						return err
					}
				}
			}
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}

// sharesMergeAncestry reports whether child could have been produced by
// merging parent with some sibling: parent's bits must be a subset of
// child's bits on both sides, with exactly one side growing.
func sharesMergeAncestry(parent, child Pair) bool {
	if parent.Left&child.Left != parent.Left || parent.Right&child.Right != parent.Right {
		return false
	}
	sameLeft := parent.Left == child.Left
	sameRight := parent.Right == child.Right
	return sameLeft != sameRight
}
