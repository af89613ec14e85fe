package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is the isoalign CLI's release version.
const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the isoalign version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("isoalign version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
