// Package config holds run parameters for the revision engine.
//
// Resolution order, later wins: built-in defaults, the project's
// .redraft/config.yaml, values set with `rd config set` (stored in the
// project database), command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Dir is the project metadata directory, relative to the project root.
const Dir = ".redraft"

// DBFile is the project database filename inside Dir.
const DBFile = "redraft.db"

// YamlFile is the project config filename inside Dir.
const YamlFile = "config.yaml"

// Run holds every recognized run parameter.
type Run struct {
	// MaxCycles bounds the whole run; reaching it without approval ends
	// in the exhausted state.
	MaxCycles int `yaml:"max_cycles"`

	// MinAcceptScore is the acceptance threshold on the reviewer's
	// 0-10 scale.
	MinAcceptScore float64 `yaml:"min_accept_score"`

	// RequiredConsecutiveHighScores is how many qualifying cycles in a
	// row approve the manuscript.
	RequiredConsecutiveHighScores int `yaml:"required_consecutive_high_scores"`

	// MaxCorrectionAttemptsPerUnit caps rewrite passes per chapter.
	MaxCorrectionAttemptsPerUnit int `yaml:"max_correction_attempts_per_unit"`

	// StructuralAutoResolveAfterAttempts is the per-unit attempt floor
	// before a structural issue may be force-resolved.
	StructuralAutoResolveAfterAttempts int `yaml:"structural_auto_resolve_after_attempts"`

	// PersistentIssueEscalationThreshold is the consecutive-cycle count
	// at which a recurring issue is escalated.
	PersistentIssueEscalationThreshold int `yaml:"persistent_issue_escalation_threshold"`

	// RegressionRollbackThreshold is the score drop (in points) that
	// rolls corrections back; any smaller drop only warns.
	RegressionRollbackThreshold float64 `yaml:"regression_rollback_threshold"`

	// Model is the Anthropic model used for review and rewrite calls.
	Model string `yaml:"model"`
}

// Defaults returns the built-in run parameters.
func Defaults() Run {
	return Run{
		MaxCycles:                          15,
		MinAcceptScore:                     9,
		RequiredConsecutiveHighScores:      2,
		MaxCorrectionAttemptsPerUnit:       4,
		StructuralAutoResolveAfterAttempts: 2,
		PersistentIssueEscalationThreshold: 3,
		RegressionRollbackThreshold:        2,
		Model:                              "claude-sonnet-4-5",
	}
}

// Load reads Defaults overlaid with the project yaml file, if present.
func Load(projectRoot string) (Run, error) {
	run := Defaults()
	path := filepath.Join(projectRoot, Dir, YamlFile)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return run, nil
	}
	if err != nil {
		return run, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &run); err != nil {
		return run, fmt.Errorf("parse %s: %w", path, err)
	}
	return run, nil
}

// Apply overlays database config entries (from `rd config set`) onto the
// run parameters. Unknown keys are ignored; malformed values are
// reported rather than silently skipped.
func (r *Run) Apply(kv map[string]string) error {
	for key, value := range kv {
		if err := r.applyOne(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (r *Run) applyOne(key, value string) error {
	setInt := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	setFloat := func(dst *float64) error {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		*dst = f
		return nil
	}

	switch key {
	case "run.max_cycles":
		return setInt(&r.MaxCycles)
	case "run.min_accept_score":
		return setFloat(&r.MinAcceptScore)
	case "run.required_consecutive_high_scores":
		return setInt(&r.RequiredConsecutiveHighScores)
	case "run.max_correction_attempts_per_unit":
		return setInt(&r.MaxCorrectionAttemptsPerUnit)
	case "run.structural_auto_resolve_after_attempts":
		return setInt(&r.StructuralAutoResolveAfterAttempts)
	case "run.persistent_issue_escalation_threshold":
		return setInt(&r.PersistentIssueEscalationThreshold)
	case "run.regression_rollback_threshold":
		return setFloat(&r.RegressionRollbackThreshold)
	case "review.model":
		r.Model = value
		return nil
	}
	return nil
}

// Keys lists every key recognized by Apply.
func Keys() []string {
	return []string{
		"run.max_cycles",
		"run.min_accept_score",
		"run.required_consecutive_high_scores",
		"run.max_correction_attempts_per_unit",
		"run.structural_auto_resolve_after_attempts",
		"run.persistent_issue_escalation_threshold",
		"run.regression_rollback_threshold",
		"review.model",
	}
}

// DBPath returns the project database path under root.
func DBPath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, DBFile)
}
