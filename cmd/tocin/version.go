package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tocin/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the tocin build fingerprint",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("full", false, "include commit hash and build date")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, args []string) error {
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	switch format {
	case "pretty":
		fmt.Fprintf(os.Stdout, "tocin %s\n", version.Version)
		if full {
			fmt.Fprintf(os.Stdout, "commit: %s\n", orUnknown(version.GitCommit))
			fmt.Fprintf(os.Stdout, "built:  %s\n", orUnknown(version.BuildDate))
		}
		return nil
	case "json":
		payload := struct {
			Tool      string `json:"tool"`
			Version   string `json:"version"`
			GitCommit string `json:"git_commit,omitempty"`
			BuildDate string `json:"build_date,omitempty"`
		}{
			Tool:    "tocin",
			Version: version.Plain(),
		}
		if full {
			payload.GitCommit = orUnknown(version.GitCommit)
			payload.BuildDate = orUnknown(version.BuildDate)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "unknown"
	}
	return value
}
