package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tocin/internal/diagfmt"
	"tocin/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] file.to",
	Short: "Type-check a tocin source file without generating code",
	Long:  `Check runs lexing, parsing, type checking, and ownership analysis`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	result, err := driver.Check(args[0], maxDiagnostics(cmd))
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	result.Bag.Sort()
	switch format {
	case "pretty":
		printDiags(cmd, result.Bag, result.FileSet)
		if !quiet(cmd) {
			diagfmt.Summary(os.Stdout, result.Bag, useColor(cmd, os.Stdout))
		}
	case "json":
		if err := diagfmt.JSON(os.Stdout, result.Bag, result.FileSet); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if result.Bag.HasErrors() {
		return fmt.Errorf("%s: check failed", args[0])
	}
	return nil
}
