// Package searchpool is the search core: the shared bound, the
// spanning-tree job queue, the fixed worker pool, and the driver that
// seeds, runs, and reports on a full branch-and-bound search over the
// relation lattice between two automata's label alphabets.
package searchpool

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/gitrdm/isoalign/internal/automaton"
	"github.com/gitrdm/isoalign/internal/parallel"
	"github.com/gitrdm/isoalign/internal/telemetry"
	"github.com/gitrdm/isoalign/pkg/oracle"
	"github.com/gitrdm/isoalign/pkg/symbols"
)

// PopBatchSize is how many jobs a worker pops per queue round-trip,
// amortizing lock contention against the many fast, cheap leaf jobs
// near the bottom of the search.
const PopBatchSize = 10

// Config configures a search run.
type Config struct {
	Workers int // 0 means runtime-determined parallelism, per NewPool
	Oracle  oracle.Oracle
	Metrics *telemetry.Metrics // optional
	Log     *slog.Logger       // optional, defaults to a no-op logger
}

// Stats summarizes a finished run's completion report: total time,
// iso-test count, and the best result found. Per-call oracle timing is
// exported continuously via
// internal/telemetry's histogram rather than accumulated here.
type Stats struct {
	Elapsed         time.Duration
	IsoTests        int64
	NodesVisited    int64
	SubtreesSkipped int64
	BestMaxPC       int64
	BestRelation    *big.Int
	BestK           int
}

// SearchDriver seeds the root job, runs the worker pool to completion, and
// reports statistics.
type SearchDriver struct {
	table *symbols.PairTable
	m1    *automaton.Automaton
	m2    *automaton.Automaton
	cfg   Config
	bound *BoundState

	isoTests        atomic.Int64
	nodesVisited    atomic.Int64
	subtreesSkipped atomic.Int64
}

// NewSearchDriver builds a driver over the given automata's derived
// symbol tables and the supplied configuration.
func NewSearchDriver(table *symbols.PairTable, m1, m2 *automaton.Automaton, cfg Config) *SearchDriver {
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	return &SearchDriver{
		table: table,
		m1:    m1,
		m2:    m2,
		cfg:   cfg,
		bound: NewBoundState(table.S1.Len(), table.S2.Len()),
	}
}

// Run executes the search to completion and returns its statistics.
// It blocks until the job queue has drained and every worker has exited.
func (d *SearchDriver) Run(ctx context.Context) (Stats, error) {
	start := time.Now()

	queue := parallel.NewQueue[Job](0)
	queue.Push(RootJob())

	nodeCtx := &Context{
		Table:   d.table,
		M1:      d.m1,
		M2:      d.m2,
		Oracle:  d.cfg.Oracle,
		Bound:   d.bound,
		Metrics: d.cfg.Metrics,
		Log:     d.cfg.Log,
	}

	stopProgress := d.startProgressReporting(ctx)
	defer stopProgress()

	pool := parallel.NewPool(queue, d.cfg.Workers, PopBatchSize, func(ctx context.Context, batch []Job) error {
		for _, job := range batch {
			node := NewSearchNode(nodeCtx, job)
			result, err := node.Process(ctx)
			if err != nil {
				// A node error is local to that node: it is logged, the
				// node and its subtree are skipped, and the search goes on.
				d.cfg.Log.Warn("node skipped after oracle failure", "code", job.Code.String(), "err", err)
				continue
			}

			d.nodesVisited.Add(1)
			d.isoTests.Add(int64(result.IsoTests))
			d.subtreesSkipped.Add(int64(result.SubtreesSkipped))

			if d.cfg.Metrics != nil {
				d.cfg.Metrics.NodesVisited.Inc()
				d.cfg.Metrics.SubtreesSkipped.Add(float64(result.SubtreesSkipped))
			}

			for _, child := range result.Children {
				queue.Push(child)
			}
		}
		if d.cfg.Metrics != nil {
			d.cfg.Metrics.QueueDepth.Set(float64(queue.Size()))
			d.cfg.Metrics.BestMaxPC.Set(float64(d.bound.Get()))
		}
		return nil
	})

	// The driver's own goroutine is responsible for calling stop() only
	// after the transitive closure of work is exhausted: a naive
	// queue-empty check would race against a worker still producing
	// children from the batch it is currently processing.
	go func() {
		queue.WaitUntilFinished()
		queue.Stop()
	}()

	if err := pool.Run(ctx); err != nil {
		return Stats{}, fmt.Errorf("searchpool.SearchDriver: %w", err)
	}

	bestMaxPC, bestRelation, bestK := d.bound.Snapshot()

	stats := Stats{
		Elapsed:         time.Since(start),
		IsoTests:        d.isoTests.Load(),
		NodesVisited:    d.nodesVisited.Load(),
		SubtreesSkipped: d.subtreesSkipped.Load(),
		BestMaxPC:       bestMaxPC,
		BestRelation:    bestRelation,
		BestK:           bestK,
	}

	d.cfg.Log.Info("search complete",
		"elapsed", stats.Elapsed,
		"nodes_visited", stats.NodesVisited,
		"iso_tests", stats.IsoTests,
		"subtrees_skipped", stats.SubtreesSkipped,
		"best_max_pc", stats.BestMaxPC,
		"best_k", stats.BestK,
	)

	return stats, nil
}

// startProgressReporting logs a once-per-second progress line (nodes
// visited, iso-test count, current bound) until the returned stop
// function is called, so a long-running search can be watched live.
func (d *SearchDriver) startProgressReporting(ctx context.Context) func() {
	tickerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		var lastNodes int64
		for {
			select {
			case <-tickerCtx.Done():
				return
			case <-ticker.C:
				nodes := d.nodesVisited.Load()
				d.cfg.Log.Info("progress",
					"nodes_visited", nodes,
					"nodes_per_sec", nodes-lastNodes,
					"iso_tests", d.isoTests.Load(),
					"best_max_pc", d.bound.Get(),
				)
				lastNodes = nodes
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
