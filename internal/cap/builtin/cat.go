package builtin

import (
	"context"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/stream"
)

type Cat struct{}

var _ cap.Capability = (*Cat)(nil)

func (c *Cat) Name() string        { return "cat" }
func (c *Cat) Description() string { return "copy input items to output unchanged" }
func (c *Cat) Tier() cap.Tier      { return cap.TierRead }

func (c *Cat) Run(_ context.Context, _ []string, in *stream.Receiver, out, _ *stream.Sender) error {
	for item := range in.All() {
		if err := out.Send(item); err != nil {
			return err
		}
	}
	return nil
}
