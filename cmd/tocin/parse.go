package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tocin/internal/diagfmt"
	"tocin/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.to",
	Short: "Parse a tocin source file and dump its syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Bool("no-tree", false, "report diagnostics only, skip the tree dump")
}

func runParse(cmd *cobra.Command, args []string) error {
	noTree, err := cmd.Flags().GetBool("no-tree")
	if err != nil {
		return err
	}

	result, err := driver.Parse(args[0], maxDiagnostics(cmd))
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	printDiags(cmd, result.Bag, result.FileSet)

	if !noTree {
		diagfmt.ASTPretty(os.Stdout, result.AST, result.Strings)
	}
	if result.Bag.HasErrors() {
		return fmt.Errorf("%s: parse errors", args[0])
	}
	return nil
}
