package rules

import "fmt"

// CapRuleConfig represents one capability's rules from YAML config.
//
//	rules:
//	  eval:
//	    deny: true
//	  greet:
//	    reject_flags: ["--loud", "-l"]
//	  set:
//	    subcommands:
//	      leader: {deny: true}
type CapRuleConfig struct {
	Deny        bool                     `yaml:"deny"`
	RejectFlags []string                 `yaml:"reject_flags"`
	Subcommands map[string]SubRuleConfig `yaml:"subcommands"`
}

// SubRuleConfig represents rules for a capability whose first argument
// equals the subcommand name, e.g. the variable name of "set leader".
type SubRuleConfig struct {
	Deny        bool     `yaml:"deny"`
	RejectFlags []string `yaml:"reject_flags"`
}

// CompileCapRule turns a single capability's config into CheckFuncs.
func CompileCapRule(capName string, cfg CapRuleConfig) []CheckFunc {
	var fns []CheckFunc
	name := capName

	if cfg.Deny {
		fns = append(fns, func(cn string, args []string) error {
			if cn != name {
				return nil
			}
			return fmt.Errorf("%s is denied by config", name)
		})
	}

	if len(cfg.RejectFlags) > 0 {
		flags := cfg.RejectFlags
		fns = append(fns, func(cn string, args []string) error {
			if cn != name {
				return nil
			}
			if setsFlag(args, flags...) {
				return fmt.Errorf("%s: rejected flag (config rule)", name)
			}
			return nil
		})
	}

	for sub, subRule := range cfg.Subcommands {
		if !subRule.Deny && len(subRule.RejectFlags) == 0 {
			continue
		}
		fns = append(fns, func(cn string, args []string) error {
			if cn != name || len(args) == 0 || args[0] != sub {
				return nil
			}
			if subRule.Deny {
				return fmt.Errorf("%s %s is denied by config", name, sub)
			}
			if setsFlag(args[1:], subRule.RejectFlags...) {
				return fmt.Errorf("%s %s: rejected flag (config rule)", name, sub)
			}
			return nil
		})
	}

	return fns
}
