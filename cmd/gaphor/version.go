package main

import (
	"fmt"
	"strings"

	"github.com/esantoro/gaphor"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gaphor",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gaphor version %s\n", strings.TrimSpace(gaphor.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
