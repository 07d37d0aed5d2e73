package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/inkforge/redraft/internal/storage"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage run-parameter overrides",
	Long: `Manage per-project configuration overrides, stored in the project
database. Keys mirror the .redraft/config.yaml fields:

  run.max_cycles
  run.min_accept_score
  run.required_consecutive_high_scores
  run.max_correction_attempts_per_unit
  run.structural_auto_resolve_after_attempts
  run.persistent_issue_escalation_threshold
  run.regression_rollback_threshold
  review.model

Resolution order, later wins: built-in defaults, config.yaml, values
set here, command-line flags.

Examples:
  rd config set run.max_cycles 20
  rd config get review.model
  rd config list`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		// Validate by applying against a scratch copy before storing.
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		scratch, err := loadRunConfig(cmd.Context(), store)
		if err != nil {
			return err
		}
		if err := scratch.Apply(map[string]string{key: value}); err != nil {
			return err
		}

		if err := store.SetConfig(cmd.Context(), key, value); err != nil {
			return err
		}
		fmt.Printf("set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		value, err := store.GetConfig(cmd.Context(), args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s is not set", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		kv, err := store.GetAllConfig(cmd.Context())
		if err != nil {
			return err
		}
		// Environment variables win over stored values, the same
		// resolution loadRunConfig uses for the run commands.
		env := envOverrides()

		if jsonOutput {
			outputJSON(kv)
			return nil
		}
		keys := make([]string, 0, len(kv))
		for k := range kv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			value := kv[k]
			if v, ok := env[k]; ok {
				value = v + " (from env)"
			}
			fmt.Printf("%s = %s\n", k, value)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}
