package classify

import (
	"regexp"
)

// The classifiers are pure functions over the immutable rule tables
// below. Rules are versioned as a set so tests can pin behavior and
// rule changes never touch the controller.

// RulesVersion identifies the active rule table. Bump when a pattern is
// added or removed so logged classifications stay attributable.
const RulesVersion = 3

// structuralPatterns match remedies that require reorganizing units
// (moving, reordering, renaming, relocating) rather than rewriting
// prose in place. The rewriter cannot perform these.
var structuralPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmove\b.{0,40}\b(chapter|scene|section|unit|prologue|epilogue)\b`),
	regexp.MustCompile(`(?i)\b(chapter|scene|section|unit)s?\b.{0,30}\bshould (come|appear|be placed) (before|after|earlier|later)\b`),
	regexp.MustCompile(`(?i)\breorder(ing)?\b`),
	regexp.MustCompile(`(?i)\brelocate\b`),
	regexp.MustCompile(`(?i)\bswap\b.{0,30}\b(chapter|scene|section)s?\b`),
	regexp.MustCompile(`(?i)\brename\b.{0,30}\b(chapter|title)\b`),
	regexp.MustCompile(`(?i)\brestructure\b.{0,40}\b(order|sequence|arc)\b`),
	regexp.MustCompile(`(?i)\bsplit\b.{0,30}\binto (two|separate|multiple)\b`),
}

// structuralCategories are reviewer categories that usually imply
// reorganization, but only when the instruction also uses a
// reordering verb (the category alone is too coarse).
var structuralCategories = map[string]bool{
	"structure":    true,
	"organization": true,
	"arc":          true,
}

var reorderVerbs = regexp.MustCompile(`(?i)\b(move|reorder|relocate|swap|rearrange|resequence|shift)\b`)

// mergePatterns match requests to combine two units into one, an
// operation the engine cannot perform.
var mergePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bmerge\b.{0,50}\b(chapter|scene|section|unit)s?\b`),
	regexp.MustCompile(`(?i)\bcombine\b.{0,50}\b(chapter|scene|section|unit)s?\b`),
	regexp.MustCompile(`(?i)\b(chapter|scene|section|unit)s?\b.{0,80}\b(merged?|combined?) into\b`),
	regexp.MustCompile(`(?i)\bshould be (merged|combined)\b`),
	regexp.MustCompile(`(?i)\bfold\b.{0,30}\binto\b.{0,30}\b(chapter|scene|section)\b`),
	regexp.MustCompile(`(?i)\bconsolidate\b.{0,40}\b(chapter|scene|section)s?\b`),
}

// resurrectionPatterns match the recurring defect where an entity
// eliminated earlier in the manuscript keeps acting as if alive.
// Used by the escalator's special case.
var resurrectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(dead|deceased|killed|eliminated|destroyed)\b.{0,60}\b(appears?|acting|speaks?|returns?|alive|present)\b`),
	regexp.MustCompile(`(?i)\b(appears?|acts?|speaks?|fights?)\b.{0,60}\b(after|despite)\b.{0,30}\b(death|dying|being killed|destruction)\b`),
	regexp.MustCompile(`(?i)\bresurrect`),
	regexp.MustCompile(`(?i)\bstill alive\b.{0,40}\b(after|despite)\b`),
}
