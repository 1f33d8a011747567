package builtin

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/stream"
)

// Greet says hello, loudly when given -l/--loud.
type Greet struct{}

var _ cap.Capability = (*Greet)(nil)

func (g *Greet) Name() string        { return "greet" }
func (g *Greet) Description() string { return "say hello (-l, --loud to shout)" }
func (g *Greet) Tier() cap.Tier      { return cap.TierRead }

func (g *Greet) Run(_ context.Context, args []string, _ *stream.Receiver, out, errs *stream.Sender) error {
	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	loud := fs.BoolP("loud", "l", false, "shout the greeting")
	if err := fs.Parse(args[1:]); err != nil {
		return errs.Sendf("%s: %v", args[0], err)
	}
	if *loud {
		return out.Send("HELLO!")
	}
	return out.Send("hello")
}
