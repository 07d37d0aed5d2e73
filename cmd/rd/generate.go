package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkforge/redraft/internal/debug"
	"github.com/inkforge/redraft/internal/review/anthropic"
	"github.com/inkforge/redraft/internal/storage"
	"github.com/inkforge/redraft/internal/types"
)

var (
	generateUnit  string
	generateTitle string
	generateForce bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <outline-file>",
	Short: "Generate a chapter draft from an outline",
	Long: `Generate an initial chapter draft from an outline description and
store it as a unit. Generation produces raw material for the
convergence loop; run ` + "`rd run`" + ` afterwards to review and refine it.

Refuses to overwrite an existing unit unless --force is given.

Examples:
  rd generate outline/ch07.md --unit 7
  rd generate outline/prologue.md --unit prologue --title "Before the Storm"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseUnitArg(generateUnit)
		if err != nil {
			return err
		}
		outline, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(outline)) == "" {
			return fmt.Errorf("outline file %s is empty", args[0])
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		switch _, err := store.GetUnit(ctx, id); {
		case err == nil && !generateForce:
			return fmt.Errorf("unit %s already exists (use --force to replace)", unitLabel(id))
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return err
		}

		cfg, err := loadRunConfig(ctx, store)
		if err != nil {
			return err
		}
		client, err := anthropic.New("", cfg.Model)
		if err != nil {
			return err
		}

		debug.PrintNormal("Generating %s from %s...\n", unitLabel(id), args[0])
		content, err := client.Generate(ctx, string(outline))
		if err != nil {
			return err
		}

		title := generateTitle
		if title == "" {
			if name := types.UnitName(id); name != "" {
				title = name
			} else {
				title = fmt.Sprintf("Chapter %d", id)
			}
		}
		if err := store.PutUnitTitled(ctx, id, title, content); err != nil {
			return err
		}
		debug.PrintNormal("Stored %s (%d bytes).\n", unitLabel(id), len(content))
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateUnit, "unit", "", "target unit: chapter number, prologue, epilogue, or note")
	generateCmd.Flags().StringVar(&generateTitle, "title", "", "chapter title (defaults to the unit name)")
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "replace an existing unit")
	_ = generateCmd.MarkFlagRequired("unit")
	rootCmd.AddCommand(generateCmd)
}
