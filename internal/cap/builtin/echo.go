package builtin

import (
	"context"
	"strings"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/stream"
)

type Echo struct{}

var _ cap.Capability = (*Echo)(nil)

func (e *Echo) Name() string        { return "echo" }
func (e *Echo) Description() string { return "join arguments with spaces into a single item" }
func (e *Echo) Tier() cap.Tier      { return cap.TierRead }

func (e *Echo) Run(_ context.Context, args []string, _ *stream.Receiver, out, _ *stream.Sender) error {
	return out.Send(strings.Join(args[1:], " "))
}
