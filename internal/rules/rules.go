// Package rules holds argument-level checks applied to a stage before a
// pipeline runs. Hardcoded rules are always present; config rules are
// compiled from the "rules" section of the config file.
package rules

import (
	"slices"
	"strings"
)

// CheckFunc validates the arguments of a named capability. args excludes
// the name itself. A non-nil error blocks the whole pipeline.
type CheckFunc func(capName string, args []string) error

// RuleSet is an ordered list of checks. The hardcoded checks given to
// NewRuleSet always run before any added from config.
type RuleSet struct {
	checks []CheckFunc
}

// NewRuleSet creates a RuleSet seeded with the given hardcoded rules.
func NewRuleSet(hardcoded ...CheckFunc) *RuleSet {
	return &RuleSet{checks: slices.Clone(hardcoded)}
}

// AddConfig appends a config-driven rule.
func (rs *RuleSet) AddConfig(fn CheckFunc) {
	rs.checks = append(rs.checks, fn)
}

// Check returns the first rule failure for a stage, or nil.
func (rs *RuleSet) Check(capName string, args []string) error {
	for _, fn := range rs.checks {
		if err := fn(capName, args); err != nil {
			return err
		}
	}
	return nil
}

// setsFlag reports whether args, parsed the way greet's pflag set parses
// them, turn on any of flags. "-lq" sets -l and -q, "--loud=false" still
// names --loud, and nothing after a bare "--" is a flag.
func setsFlag(args []string, flags ...string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		for _, name := range flagNames(arg) {
			if slices.Contains(flags, name) {
				return true
			}
		}
	}
	return false
}

// flagNames expands one argument into the flags it names.
func flagNames(arg string) []string {
	switch {
	case strings.HasPrefix(arg, "--"):
		name, _, _ := strings.Cut(arg, "=")
		return []string{name}
	case len(arg) > 1 && arg[0] == '-':
		names := make([]string, 0, len(arg)-1)
		for _, c := range arg[1:] {
			names = append(names, "-"+string(c))
		}
		return names
	default:
		return nil
	}
}
