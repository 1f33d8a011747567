package builtin

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/stream"
)

// Help describes the registered capabilities.
type Help struct{}

var _ cap.Capability = (*Help)(nil)

func (h *Help) Name() string        { return "help" }
func (h *Help) Description() string { return "list commands, or describe one: help [command]" }
func (h *Help) Tier() cap.Tier      { return cap.TierRead }

func (h *Help) Run(ctx context.Context, args []string, _ *stream.Receiver, out, _ *stream.Sender) error {
	reg, ok := cap.RegistryFromContext(ctx)
	if !ok {
		return errors.New("no registry in context")
	}
	if len(args) > 1 {
		for _, name := range args[1:] {
			c, ok := reg.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown command: %q", name)
			}
			out.Sendf("%s: %s", c.Name(), c.Description())
		}
		return nil
	}
	for _, c := range reg.All() {
		out.Sendf("%s [%s]: %s", c.Name(), c.Tier(), c.Description())
	}
	return nil
}
