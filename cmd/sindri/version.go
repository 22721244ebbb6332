package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sindri "github.com/sindri-labs/sindri-go"
)

// commit and build info
// DO NOT EDIT - information is updated by the Makefile
var (
	commit    = "none"
	buildDate = "unknown"
)

// newVersionCmd returns a version information cmd
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("  version: %s\n", sindri.Version)
			fmt.Printf("  commit:  %s\n", commit)
			fmt.Printf("  built:   %s\n", buildDate)
		},
	}
}
