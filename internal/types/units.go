package types

// Reviewers address special manuscript pieces with out-of-band sentinel
// numbers (9000-range) so they never collide with real chapter numbers.
// The store keys the same pieces with small negatives so ordinary
// chapters can stay 1..N. The alias table below is the single source of
// truth for the mapping; both directions are one-to-one and idempotent.

const (
	// Reviewer-facing sentinels.
	SentinelPrologue   = 9000
	SentinelEpilogue   = 9001
	SentinelAuthorNote = 9002

	// Store-canonical ids.
	UnitPrologue   = -1
	UnitEpilogue   = -2
	UnitAuthorNote = -3
)

type unitAlias struct {
	sentinel  int
	canonical int
	name      string
}

var unitAliases = []unitAlias{
	{SentinelPrologue, UnitPrologue, "prologue"},
	{SentinelEpilogue, UnitEpilogue, "epilogue"},
	{SentinelAuthorNote, UnitAuthorNote, "author's note"},
}

// CanonicalUnit maps a reviewer-facing unit id to the store's canonical
// id. Ids already canonical (including ordinary chapter numbers) pass
// through unchanged, so the function is idempotent.
func CanonicalUnit(id int) int {
	for _, a := range unitAliases {
		if id == a.sentinel {
			return a.canonical
		}
	}
	return id
}

// SentinelUnit is the inverse of CanonicalUnit: it maps a canonical id
// back to the reviewer-facing sentinel. Also idempotent.
func SentinelUnit(id int) int {
	for _, a := range unitAliases {
		if id == a.canonical {
			return a.sentinel
		}
	}
	return id
}

// UnitName returns a human-readable label for a unit id in either
// numbering, e.g. for status output and logs.
func UnitName(id int) string {
	for _, a := range unitAliases {
		if id == a.canonical || id == a.sentinel {
			return a.name
		}
	}
	return ""
}

// CanonicalUnits maps every id through CanonicalUnit, preserving order.
func CanonicalUnits(ids []int) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = CanonicalUnit(id)
	}
	return out
}
