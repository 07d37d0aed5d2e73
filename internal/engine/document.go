package engine

import (
	"fmt"
	"strings"

	"github.com/inkforge/redraft/internal/types"
)

// assembleDocument renders the whole manuscript for the reviewer.
// Units arrive in store order (sentinel-mapped pieces first, then
// chapters); each is labeled with the reviewer-facing numbering so the
// reviewer's unit references line up with what it read.
func assembleDocument(units []*types.Unit) string {
	var sb strings.Builder
	for i, u := range units {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(unitHeading(u))
		sb.WriteString("\n\n")
		sb.WriteString(u.Content)
	}
	return sb.String()
}

func unitHeading(u *types.Unit) string {
	if name := types.UnitName(u.ID); name != "" {
		heading := fmt.Sprintf("=== %s [unit %d] ===", strings.ToUpper(name), types.SentinelUnit(u.ID))
		return heading
	}
	if u.Title != "" {
		return fmt.Sprintf("=== CHAPTER %d: %s ===", u.ID, u.Title)
	}
	return fmt.Sprintf("=== CHAPTER %d ===", u.ID)
}
