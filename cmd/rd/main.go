// Command rd drives iterative quality review and auto-correction of a
// multi-chapter manuscript.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inkforge/redraft/internal/config"
	"github.com/inkforge/redraft/internal/debug"
	"github.com/inkforge/redraft/internal/storage/sqlite"
	"github.com/inkforge/redraft/internal/telemetry"
	"github.com/inkforge/redraft/internal/ui"
)

const version = "0.1.0"

var (
	projectRoot string
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool

	// Signal-aware context for graceful cancellation.
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "rd",
	Short: "Iterative revision convergence engine for generated manuscripts",
	Long: `rd reviews a multi-chapter manuscript with an AI reviewer, routes the
reported defects to an AI rewriter chapter by chapter, and repeats until
the score holds above the acceptance threshold, the cycle budget runs
out, or you cancel. All cross-cycle state (resolved defects, attempt
counts, streaks) is persisted in .redraft/redraft.db, so an interrupted
run resumes exactly where it stopped.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)
		if jsonOutput {
			ui.Plain()
		}
		return telemetry.Init(cmd.Context(), "rd", version)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project", ".", "project root directory")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose diagnostic output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress non-essential output")
}

// openStore opens the project database, failing with a hint when the
// project has not been initialized.
func openStore(ctx context.Context) (*sqlite.Store, error) {
	path := config.DBPath(projectRoot)
	if !sqlite.Exists(path) {
		return nil, fmt.Errorf("no project at %s (run `rd init` first)", path)
	}
	return sqlite.Open(ctx, path)
}

// loadRunConfig resolves run parameters: defaults, then the project
// yaml, then database overrides set with `rd config set`, then
// REDRAFT_* environment variables.
func loadRunConfig(ctx context.Context, store *sqlite.Store) (config.Run, error) {
	run, err := config.Load(projectRoot)
	if err != nil {
		return run, err
	}
	kv, err := store.GetAllConfig(ctx)
	if err != nil {
		return run, err
	}
	if err := run.Apply(kv); err != nil {
		return run, err
	}
	if err := run.Apply(envOverrides()); err != nil {
		return run, err
	}
	return run, nil
}

// envOverrides resolves REDRAFT_* environment values for the recognized
// config keys via viper (run.max_cycles → REDRAFT_RUN_MAX_CYCLES).
func envOverrides() map[string]string {
	v := viper.New()
	v.SetEnvPrefix("REDRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	out := make(map[string]string)
	for _, key := range config.Keys() {
		if value := v.GetString(key); value != "" {
			out[key] = value
		}
	}
	return out
}

func outputJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
