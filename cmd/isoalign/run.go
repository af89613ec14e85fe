package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrdm/isoalign/internal/automaton"
	"github.com/gitrdm/isoalign/internal/obslog"
	"github.com/gitrdm/isoalign/internal/refdecision"
	"github.com/gitrdm/isoalign/internal/telemetry"
	"github.com/gitrdm/isoalign/pkg/alignment"
	"github.com/gitrdm/isoalign/pkg/oracle"
	"github.com/gitrdm/isoalign/pkg/relation"
	"github.com/gitrdm/isoalign/pkg/searchpool"
	"github.com/gitrdm/isoalign/pkg/symbols"
)

var runCmd = &cobra.Command{
	Use:   "run m1.dot m2.dot",
	Short: "Search for the optimal isotactic alignment between two automata",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("workers", 0, "worker goroutines (0 = runtime.NumCPU())")
	runCmd.Flags().String("metrics-addr", "", "if set, serve Prometheus metrics at this address (e.g. :2112)")
	runCmd.Flags().String("log-format", "text", "log output format: text or json")
	runCmd.Flags().String("dot-out", "", "if set, write the best alignment's diagnostic graph as Graphviz dot to this path")
	runCmd.Flags().String("alignment-out", "", "if set, write the best alignment as JSON to this path")
	runCmd.Flags().String("oracle-cmd", "", "if set, use this external binary as the historical subprocess oracle instead of the built-in reference oracle")
}

func runSearch(cmd *cobra.Command, args []string) error {
	logFormat, _ := cmd.Flags().GetString("log-format")
	workers, _ := cmd.Flags().GetInt("workers")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	dotOut, _ := cmd.Flags().GetString("dot-out")
	alignmentOut, _ := cmd.Flags().GetString("alignment-out")
	oracleCmd, _ := cmd.Flags().GetString("oracle-cmd")

	logger := obslog.New(obslog.Format(logFormat), slog.LevelInfo)

	m1, err := automaton.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("isoalign: reading %s: %w", args[0], err)
	}
	m2, err := automaton.ParseFile(args[1])
	if err != nil {
		return fmt.Errorf("isoalign: reading %s: %w", args[1], err)
	}

	s1, err := symbols.NewSet(dedupInOrder(m1.Labels()))
	if err != nil {
		return fmt.Errorf("isoalign: deriving S1 from %s: %w", args[0], err)
	}
	s2, err := symbols.NewSet(dedupInOrder(m2.Labels()))
	if err != nil {
		return fmt.Errorf("isoalign: deriving S2 from %s: %w", args[1], err)
	}
	table := symbols.NewPairTable(s1, s2)

	var decisionOracle oracle.Oracle = refdecision.Oracle{}
	if oracleCmd != "" {
		decisionOracle = &oracle.SubprocessOracle{Path: oracleCmd}
	}

	metrics := telemetry.New()
	ctx := context.Background()

	if metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, metricsAddr); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	driver := searchpool.NewSearchDriver(table, m1, m2, searchpool.Config{
		Workers: workers,
		Oracle:  decisionOracle,
		Metrics: metrics,
		Log:     logger,
	})

	stats, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("isoalign: search failed: %w", err)
	}

	reportStats(cmd, stats)

	if dotOut != "" || alignmentOut != "" {
		if err := writeDiagnostics(table, stats, dotOut, alignmentOut); err != nil {
			return fmt.Errorf("isoalign: writing diagnostics: %w", err)
		}
	}

	return nil
}

// dedupInOrder returns labels with duplicates removed, keeping the
// position of each label's first occurrence, since an alphabet is the
// sequence of distinct labels encountered on edges.
func dedupInOrder(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func reportStats(cmd *cobra.Command, stats searchpool.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "nodes visited:     %d\n", stats.NodesVisited)
	fmt.Fprintf(out, "subtrees skipped:  %d\n", stats.SubtreesSkipped)
	fmt.Fprintf(out, "iso tests:         %d\n", stats.IsoTests)
	fmt.Fprintf(out, "elapsed:           %s\n", stats.Elapsed)
	fmt.Fprintf(out, "best max_pc:       %d\n", stats.BestMaxPC)
	fmt.Fprintf(out, "best k:            %d\n", stats.BestK)
	fmt.Fprintf(out, "best relation:     %s\n", stats.BestRelation.Text(16))
}

// writeDiagnostics rebuilds the alignment graph for the best relation
// found -- the graph itself is a throwaway per-job structure during the
// search proper -- so it can be exported for inspection.
func writeDiagnostics(table *symbols.PairTable, stats searchpool.Stats, dotOut, alignmentOut string) error {
	if stats.BestRelation.Sign() == 0 {
		return nil
	}

	r := relation.New(stats.BestRelation, table)
	graph := alignment.Build(r)

	if dotOut != "" {
		f, err := os.Create(dotOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := graph.WriteDOT(f); err != nil {
			return err
		}
	}

	if alignmentOut != "" {
		maxK := stats.BestK
		if maxK < 0 {
			maxK = graph.LargestK()
		}
		payload, err := graph.ToJSON(maxK)
		if err != nil {
			return err
		}
		if err := os.WriteFile(alignmentOut, payload, 0o644); err != nil {
			return err
		}
	}

	return nil
}
