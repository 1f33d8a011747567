package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/kv"
	"github.com/marcelocantos/pipesh/internal/stream"
)

// varNamespace is the key prefix for user-visible variables.
const varNamespace = "var"

// VarKey maps a variable name such as "a:b" to its store key.
func VarKey(name string) kv.Key {
	return append(kv.Key{varNamespace}, strings.Split(name, ":")...)
}

func varName(k kv.Key) string {
	return strings.Join(k[1:], ":")
}

// Get prints the value of each named variable. With no arguments the
// names are read from input.
type Get struct {
	Store kv.Store
}

var _ cap.Capability = (*Get)(nil)

func (g *Get) Name() string        { return "get" }
func (g *Get) Description() string { return "print the value of variables" }
func (g *Get) Tier() cap.Tier      { return cap.TierRead }

func (g *Get) Run(ctx context.Context, args []string, in *stream.Receiver, out, errs *stream.Sender) error {
	names := args[1:]
	if len(names) == 0 {
		names = in.Drain()
	}
	for _, name := range names {
		val, err := g.Store.Get(ctx, VarKey(name))
		switch {
		case errors.Is(err, kv.ErrNotFound):
			errs.Sendf("%s: %s: not set", args[0], name)
		case err != nil:
			errs.Sendf("%s: %s: %v", args[0], name, err)
		default:
			out.Send(string(val))
		}
	}
	return nil
}

// Set assigns a variable. The value is the remaining arguments joined with
// spaces, or the input items joined with newlines when there are none.
type Set struct {
	Store kv.Store
}

var _ cap.Capability = (*Set)(nil)

func (s *Set) Name() string        { return "set" }
func (s *Set) Description() string { return "assign a variable: set <name> [value...]" }
func (s *Set) Tier() cap.Tier      { return cap.TierWrite }

func (s *Set) Run(ctx context.Context, args []string, in *stream.Receiver, _, _ *stream.Sender) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s <name> [value...]", args[0])
	}
	var value string
	if len(args) > 2 {
		value = strings.Join(args[2:], " ")
	} else {
		value = strings.Join(in.Drain(), "\n")
	}
	return s.Store.Set(ctx, VarKey(args[1]), []byte(value))
}

// Del removes variables.
type Del struct {
	Store kv.Store
}

var _ cap.Capability = (*Del)(nil)

func (d *Del) Name() string        { return "del" }
func (d *Del) Description() string { return "remove variables" }
func (d *Del) Tier() cap.Tier      { return cap.TierWrite }

func (d *Del) Run(ctx context.Context, args []string, _ *stream.Receiver, _, _ *stream.Sender) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s <name>...", args[0])
	}
	for _, name := range args[1:] {
		if err := d.Store.Delete(ctx, VarKey(name)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Keys lists variable names, optionally only those starting with a
// string prefix.
type Keys struct {
	Store kv.Store
}

var _ cap.Capability = (*Keys)(nil)

func (k *Keys) Name() string        { return "keys" }
func (k *Keys) Description() string { return "list variable names: keys [prefix]" }
func (k *Keys) Tier() cap.Tier      { return cap.TierRead }

func (k *Keys) Run(ctx context.Context, args []string, _ *stream.Receiver, out, _ *stream.Sender) error {
	var prefix string
	if len(args) > 1 {
		prefix = args[1]
	}
	for e, err := range k.Store.List(ctx, kv.Key{varNamespace}) {
		if err != nil {
			return err
		}
		if name := varName(e.Key); strings.HasPrefix(name, prefix) {
			out.Send(name)
		}
	}
	return nil
}
