package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/inkforge/redraft/internal/types"
	"github.com/inkforge/redraft/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show convergence progress and per-chapter attempt counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		state, err := store.GetProjectState(ctx)
		if err != nil {
			return err
		}
		units, err := store.ListUnits(ctx)
		if err != nil {
			return err
		}
		cfg, err := loadRunConfig(ctx, store)
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{
				"cycle":                   state.Cycle.CycleNumber,
				"max_cycles":              cfg.MaxCycles,
				"previous_score":          state.Cycle.PreviousScore,
				"consecutive_high_scores": state.Cycle.ConsecutiveHighScores,
				"resolved_defects":        len(state.ResolvedFingerprints),
				"units":                   len(units),
				"correction_counts":       state.CorrectionCounts,
				"failed_units":            state.FailedUnits,
				"pending_snapshots":       len(state.PendingSnapshots),
			})
			return nil
		}

		fmt.Println(ui.HeaderStyle.Render("Manuscript"))
		fmt.Printf("  %d units, cycle %d/%d, last score %s, streak %d/%d\n",
			len(units), state.Cycle.CycleNumber, cfg.MaxCycles,
			ui.AccentStyle.Render(fmt.Sprintf("%.1f", state.Cycle.PreviousScore)),
			state.Cycle.ConsecutiveHighScores,
			cfg.RequiredConsecutiveHighScores)
		fmt.Printf("  %d resolved defects, %d snapshots pending validation\n",
			len(state.ResolvedFingerprints), len(state.PendingSnapshots))

		if len(state.CorrectionCounts) > 0 {
			fmt.Println(ui.HeaderStyle.Render("Correction attempts"))
			ids := make([]int, 0, len(state.CorrectionCounts))
			for id := range state.CorrectionCounts {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			for _, id := range ids {
				count := state.CorrectionCounts[id]
				line := fmt.Sprintf("  %-18s %d/%d", unitLabel(id), count, cfg.MaxCorrectionAttemptsPerUnit)
				if count >= cfg.MaxCorrectionAttemptsPerUnit {
					line += " " + ui.FailStyle.Render("capped")
				}
				fmt.Println(line)
			}
		}

		if len(state.FailedUnits) > 0 {
			fmt.Println(ui.WarnStyle.Render(ui.IconWarn + " units with failed corrections:"))
			for _, id := range state.FailedUnits {
				fmt.Printf("  %s\n", unitLabel(id))
			}
		}
		return nil
	},
}

func unitLabel(id int) string {
	if name := types.UnitName(id); name != "" {
		return name
	}
	return fmt.Sprintf("chapter %d", id)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
