package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "isoalign",
	Short: "Search for an optimal isotactic alignment between two automata",
	Long: `isoalign searches, given two labeled transition models, for a binary
relation between their edge-label alphabets and a grouping of that relation
into an alignment under which the two models are isotactic, minimizing the
maximum of the relation's permissiveness and the alignment's complexity.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
