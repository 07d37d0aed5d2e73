package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkforge/redraft/internal/debug"
	"github.com/inkforge/redraft/internal/types"
)

var chapterFilePattern = regexp.MustCompile(`^(?:chapter[-_ ]?)?0*(\d+)`)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import manuscript chapters from a directory of text files",
	Long: `Import chapters from .md or .txt files in a directory. File names
determine the unit:

  chapter_01.md, 01-the-road.md, 2.txt   ordinary chapters
  prologue.md, epilogue.md               special pieces
  authors_note.md                        author's note

The title comes from the first markdown heading, or the file name when
there is none. Re-importing a file replaces the stored content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := os.ReadDir(args[0])
		if err != nil {
			return err
		}

		imported := 0
		var skipped []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			ext := strings.ToLower(filepath.Ext(name))
			if ext != ".md" && ext != ".txt" {
				continue
			}
			id, ok := unitIDFromFilename(name)
			if !ok {
				skipped = append(skipped, name)
				continue
			}
			raw, err := os.ReadFile(filepath.Join(args[0], name))
			if err != nil {
				return err
			}
			title, content := splitTitle(string(raw), name)
			if err := store.PutUnitTitled(ctx, id, title, content); err != nil {
				return err
			}
			debug.Logf("imported %s as unit %d (%q)", name, id, title)
			imported++
		}

		sort.Strings(skipped)
		for _, name := range skipped {
			debug.PrintNormal("skipped %s: cannot determine chapter number\n", name)
		}
		if imported == 0 {
			return fmt.Errorf("no chapter files found in %s", args[0])
		}
		debug.PrintNormal("Imported %d units.\n", imported)
		return nil
	},
}

// unitIDFromFilename maps a file name to a canonical unit id.
func unitIDFromFilename(name string) (int, bool) {
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	switch {
	case strings.HasPrefix(base, "prologue"):
		return types.UnitPrologue, true
	case strings.HasPrefix(base, "epilogue"):
		return types.UnitEpilogue, true
	case strings.HasPrefix(base, "author"):
		return types.UnitAuthorNote, true
	}
	m := chapterFilePattern.FindStringSubmatch(base)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// splitTitle pulls the leading markdown heading out of content, falling
// back to a title derived from the file name.
func splitTitle(content, filename string) (title, body string) {
	body = content
	trimmed := strings.TrimLeft(content, "\n")
	if strings.HasPrefix(trimmed, "# ") {
		line, rest, _ := strings.Cut(trimmed, "\n")
		return strings.TrimSpace(strings.TrimPrefix(line, "# ")), strings.TrimLeft(rest, "\n")
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = chapterFilePattern.ReplaceAllString(strings.ToLower(base), "")
	base = strings.Trim(strings.NewReplacer("-", " ", "_", " ").Replace(base), " ")
	if base == "" {
		base = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return base, body
}

func init() {
	rootCmd.AddCommand(importCmd)
}
