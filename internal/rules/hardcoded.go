package rules

import (
	"fmt"
	"strings"
)

// Hardcoded returns the built-in rules that are always enforced regardless
// of configuration.
func Hardcoded() []CheckFunc {
	return []CheckFunc{
		checkBlankLeader,
	}
}

// checkBlankLeader blocks "set leader" with an explicitly blank value. A
// blank leader would make every chat message a command line. A value read
// from input cannot be checked here; the session layer ignores a blank
// leader variable instead.
func checkBlankLeader(capName string, args []string) error {
	if capName != "set" || len(args) < 2 || args[0] != "leader" {
		return nil
	}
	if strings.TrimSpace(strings.Join(args[1:], " ")) == "" {
		return fmt.Errorf("refusing to set a blank leader. This operation is permanently blocked")
	}
	return nil
}
