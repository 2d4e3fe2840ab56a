package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/charsheet"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of charsheet",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "charsheet version %s\n", strings.TrimSpace(charsheet.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
