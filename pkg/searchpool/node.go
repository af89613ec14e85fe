package searchpool

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gitrdm/isoalign/internal/automaton"
	"github.com/gitrdm/isoalign/internal/telemetry"
	"github.com/gitrdm/isoalign/pkg/alignment"
	"github.com/gitrdm/isoalign/pkg/oracle"
	"github.com/gitrdm/isoalign/pkg/relation"
	"github.com/gitrdm/isoalign/pkg/symbols"
)

// Context bundles the read-only, worker-shared state a SearchNode needs:
// the pair table, the two automata, the oracle, the shared bound, and the
// ambient logging/metrics. It is built once by SearchDriver and handed to
// every worker.
type Context struct {
	Table   *symbols.PairTable
	M1, M2  *automaton.Automaton
	Oracle  oracle.Oracle
	Bound   *BoundState
	Metrics *telemetry.Metrics
	Log     *slog.Logger
}

// NodeResult is the outcome of one SearchNode: its children, plus the
// IsoTests and SubtreesSkipped counts that SearchDriver adds into the
// run-level Stats value (SearchDriver counts NodesVisited itself).
type NodeResult struct {
	Children        []Job
	IsoTests        int
	SubtreesSkipped int
}

// SearchNode evaluates exactly one Job.
type SearchNode struct {
	ctx *Context
	job Job
}

// NewSearchNode builds a SearchNode for job against ctx.
func NewSearchNode(ctx *Context, job Job) *SearchNode {
	return &SearchNode{ctx: ctx, job: job}
}

// Process runs steps (a) through (g) of the node algorithm and returns
// this node's children, ready for re-enqueuing.
func (n *SearchNode) Process(ctx context.Context) (NodeResult, error) {
	code := n.job.Code
	p := n.job.Permissiveness
	childIso := n.job.ParentIso
	childBestK := n.job.ParentBestK

	r := relation.New(code, n.ctx.Table)

	var result NodeResult

	// (a) Enumeration guard: the empty relation has no alignment and
	// cannot be isotactic. Evaluation is skipped entirely; only child
	// enumeration runs.
	if code.Sign() != 0 {
		// (b) Permissiveness gate, treated as a full subtree cut: p(R) is
		// monotone non-decreasing as R grows, so once p >= bound no
		// descendant can improve on the current best either.
		if int64(p) >= n.ctx.Bound.Get() {
			result.SubtreesSkipped = 1
			return result, nil
		}

		// (c) Totality gate: a non-total R is skipped, but children may
		// yet become total, so enumeration still proceeds below with the
		// inherited iso state unchanged.
		if r.ContainsAllSymbols() {
			nextIso, nextBestK, isoTests, err := n.evaluateAlignment(ctx, r, p, childIso, childBestK)
			if err != nil {
				return result, err
			}
			childIso, childBestK = nextIso, nextBestK
			result.IsoTests = isoTests
		}
	}

	// (g) Child enumeration.
	result.Children = n.enumerateChildren(r, p, childIso, childBestK)
	return result, nil
}

// evaluateAlignment runs steps (d)-(f): build the alignment graph, test
// isotacticity at the largest complexity (or reuse an inherited result),
// then descend to smaller complexities looking for a smaller max_pc.
func (n *SearchNode) evaluateAlignment(ctx context.Context, r *relation.BitRelation, p int, parentIso IsoStatus, parentBestK int) (IsoStatus, int, int, error) {
	graph := alignment.Build(r)
	isoTests := 0

	knownIsoK := -1
	switch {
	case parentIso == IsoYes:
		// Known-iso inheritance: the parent already proved this grouping
		// isotactic at parentBestK, and adding pairs to R cannot remove
		// it. Skip the oracle round at max complexity.
		knownIsoK = parentBestK
	default:
		maxK := graph.LargestK()
		if maxK < 0 {
			// No AlignmentPairs at all (R total but degenerate); nothing
			// to test.
			return IsoUnknown, -1, isoTests, nil
		}
		ok, err := n.callOracle(ctx, graph, maxK)
		isoTests++
		if err != nil {
			return IsoUnknown, -1, isoTests, err
		}
		if !ok {
			// (e): not isotactic at max complexity. Mark notIso; the
			// descending search does not run for this node, but future
			// descendants start fresh (IsoUnknown), since a superset
			// relation may induce a different, isotactic grouping.
			return IsoUnknown, -1, isoTests, nil
		}
		knownIsoK = maxK
	}

	// (f) Descend in k, ascending, looking for a smaller max(p, k). The
	// iteration at k == knownIsoK never re-invokes the oracle: it is
	// already known isotactic, from either this node's own max-k test or
	// inheritance.
	smallestK := knownIsoK
	for _, k := range graph.Ks() {
		if k > knownIsoK {
			break
		}

		maxPC := p
		if k > maxPC {
			maxPC = k
		}
		if int64(maxPC) >= n.ctx.Bound.Get() {
			break
		}

		iso := k == knownIsoK
		if !iso {
			var err error
			iso, err = n.callOracle(ctx, graph, k)
			isoTests++
			if err != nil {
				return IsoUnknown, -1, isoTests, err
			}
		}

		if iso {
			smallestK = k
			n.ctx.Bound.TryImprove(maxPC, r.Code, k)
			break
		}
	}

	return IsoYes, smallestK, isoTests, nil
}

// callOracle invokes the oracle at complexity k, recording a metrics
// observation when telemetry is wired in.
func (n *SearchNode) callOracle(ctx context.Context, graph *alignment.Graph, k int) (bool, error) {
	start := time.Now()
	ok, err := n.ctx.Oracle.IsIsotactic(ctx, n.ctx.M1, n.ctx.M2, graph.ToOracleAlignment(k))
	if n.ctx.Metrics != nil {
		n.ctx.Metrics.ObserveOracleCall(time.Since(start))
	}
	if err != nil {
		return false, fmt.Errorf("searchpool.SearchNode: oracle call at k=%d: %w", k, err)
	}
	return ok, nil
}

// enumerateChildren runs the spanning-tree grow iteration: children of
// code c are c | (1<<j) for every bit position j strictly above c's
// highest set bit.
func (n *SearchNode) enumerateChildren(r *relation.BitRelation, p int, childIso IsoStatus, childBestK int) []Job {
	childCodes := relation.ChildCodes(r.Code, n.ctx.Table.N())

	children := make([]Job, 0, len(childCodes))
	for _, childCode := range childCodes {
		childP := r.PermissivenessOf(childCode)
		if int64(childP) >= n.ctx.Bound.Get() {
			continue
		}
		children = append(children, Job{
			Code:           childCode,
			Permissiveness: childP,
			ParentIso:      childIso,
			ParentBestK:    childBestK,
		})
	}
	return children
}
