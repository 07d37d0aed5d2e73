package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/inkforge/redraft/internal/config"
	"github.com/inkforge/redraft/internal/debug"
	"github.com/inkforge/redraft/internal/storage/sqlite"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .redraft project directory and database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := config.DBPath(projectRoot)
		if sqlite.Exists(path) {
			return fmt.Errorf("project already initialized at %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		store, err := sqlite.Open(cmd.Context(), path)
		if err != nil {
			return err
		}
		defer store.Close()

		debug.PrintNormal("Initialized empty redraft project at %s\n", path)
		debug.PrintNormal("Import chapters with `rd import <dir>` and start a run with `rd run`.\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
