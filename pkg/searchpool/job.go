package searchpool

import "math/big"

// IsoStatus records what a SearchNode's ancestors already know about
// whether the induced alignment is isotactic, so a node can skip an
// oracle round when its parent already answered the question for a
// grouping the child necessarily still has (known-iso inheritance).
type IsoStatus int

const (
	// IsoUnknown means no ancestor has established an iso result the
	// child can reuse.
	IsoUnknown IsoStatus = iota
	// IsoYes means an ancestor found the alignment isotactic at BestK,
	// and this node's superset relation retains that same grouping.
	IsoYes
)

// Job describes one candidate relation queued for a worker. It is
// consumed exactly once: a worker turns it into a SearchNode, which
// evaluates it and produces zero or more child Jobs.
type Job struct {
	// Code is the candidate relation's bitmask, per pkg/relation.
	Code *big.Int
	// Permissiveness is p(Code), computed by the parent when it proposed
	// this child so a worker never has to recompute it before the
	// permissiveness gate.
	Permissiveness int
	// ParentIso and ParentBestK carry known-iso inheritance down from the
	// job that produced this one. ParentBestK is -1 when ParentIso is
	// IsoUnknown.
	ParentIso   IsoStatus
	ParentBestK int
}

// RootJob is the search's starting point: the empty relation, with no
// inherited iso knowledge.
func RootJob() Job {
	return Job{Code: big.NewInt(0), Permissiveness: 0, ParentIso: IsoUnknown, ParentBestK: -1}
}
