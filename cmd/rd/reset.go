package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkforge/redraft/internal/debug"
	"github.com/inkforge/redraft/internal/types"
)

var resetAll bool

var resetAttemptsCmd = &cobra.Command{
	Use:   "reset-attempts [unit]",
	Short: "Reset correction attempt counts for a unit",
	Long: `Reset the per-unit correction attempt count so a capped unit becomes
eligible for automated correction again. This is the manual override
for the correction limiter: use it after editing a chapter by hand or
when a later cycle changes what the reviewer flags.

The unit is a chapter number or one of: prologue, epilogue, note.

Examples:
  rd reset-attempts 7
  rd reset-attempts prologue
  rd reset-attempts --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if resetAll == (len(args) == 1) {
			return fmt.Errorf("specify a unit or --all, not both")
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		state, err := store.GetProjectState(ctx)
		if err != nil {
			return err
		}

		if resetAll {
			n := len(state.CorrectionCounts)
			state.CorrectionCounts = make(map[int]int)
			state.FailedUnits = nil
			if err := store.PutProjectState(ctx, state); err != nil {
				return err
			}
			debug.PrintNormal("Reset attempt counts for %d units.\n", n)
			return nil
		}

		id, err := parseUnitArg(args[0])
		if err != nil {
			return err
		}
		if _, ok := state.CorrectionCounts[id]; !ok {
			return fmt.Errorf("no correction attempts recorded for %s", unitLabel(id))
		}
		delete(state.CorrectionCounts, id)
		state.FailedUnits = removeUnit(state.FailedUnits, id)
		if err := store.PutProjectState(ctx, state); err != nil {
			return err
		}
		debug.PrintNormal("Reset attempt count for %s.\n", unitLabel(id))
		return nil
	},
}

// parseUnitArg resolves a unit argument in any of the accepted
// spellings to a canonical unit id.
func parseUnitArg(arg string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "prologue":
		return types.UnitPrologue, nil
	case "epilogue":
		return types.UnitEpilogue, nil
	case "note", "authors-note", "author's note":
		return types.UnitAuthorNote, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid unit %q: want a chapter number, prologue, epilogue, or note", arg)
	}
	return types.CanonicalUnit(n), nil
}

func removeUnit(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func init() {
	resetAttemptsCmd.Flags().BoolVar(&resetAll, "all", false, "reset every unit's attempt count")
	rootCmd.AddCommand(resetAttemptsCmd)
}
