package builtin

import (
	"context"
	"strconv"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/stream"
)

type Count struct{}

var _ cap.Capability = (*Count)(nil)

func (c *Count) Name() string        { return "count" }
func (c *Count) Description() string { return "count arguments, or input items when given none" }
func (c *Count) Tier() cap.Tier      { return cap.TierRead }

// Run counts its own arguments when it has any and ignores its input.
func (c *Count) Run(_ context.Context, args []string, in *stream.Receiver, out, _ *stream.Sender) error {
	n := len(args) - 1
	if n == 0 {
		for range in.All() {
			n++
		}
	}
	return out.Send(strconv.Itoa(n))
}
