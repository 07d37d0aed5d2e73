package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkforge/redraft/internal/debug"
	"github.com/inkforge/redraft/internal/types"
)

var exportOutput string

// exportRecord is one JSONL line: either a unit or the project state.
type exportRecord struct {
	Type    string              `json:"type"`
	ID      int                 `json:"id,omitempty"`
	Title   string              `json:"title,omitempty"`
	Content string              `json:"content,omitempty"`
	State   *types.ProjectState `json:"state,omitempty"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the manuscript and run state as JSONL",
	Long: `Export every unit plus the project state, one JSON object per line.
Unit lines come first in id order; the final line carries the full
cross-cycle state (resolved defects, attempt counts, streaks). The
output is self-contained and diff-friendly, suitable for checking into
version control alongside the manuscript.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		units, err := store.ListUnits(ctx)
		if err != nil {
			return err
		}
		state, err := store.GetProjectState(ctx)
		if err != nil {
			return err
		}

		var out io.Writer = os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		for _, u := range units {
			if err := enc.Encode(exportRecord{Type: "unit", ID: u.ID, Title: u.Title, Content: u.Content}); err != nil {
				return err
			}
		}
		if err := enc.Encode(exportRecord{Type: "state", State: state}); err != nil {
			return err
		}

		if exportOutput != "" {
			debug.PrintNormal("Exported %d units to %s\n", len(units), exportOutput)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
