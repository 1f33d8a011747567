package builtin

import (
	"context"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/stream"
)

// maxEvalSteps bounds a single expression so a chat user cannot spin a
// stage forever.
const maxEvalSteps = 1_000_000

// Eval evaluates a Starlark expression. With no arguments each input item
// is evaluated as a separate expression.
type Eval struct{}

var _ cap.Capability = (*Eval)(nil)

func (e *Eval) Name() string        { return "eval" }
func (e *Eval) Description() string { return "evaluate a Starlark expression, e.g. eval 6 * 7" }
func (e *Eval) Tier() cap.Tier      { return cap.TierRead }

func (e *Eval) Run(_ context.Context, args []string, in *stream.Receiver, out, errs *stream.Sender) error {
	if len(args) > 1 {
		return evalExpr(strings.Join(args[1:], " "), out)
	}
	for expr := range in.All() {
		if err := evalExpr(expr, out); err != nil {
			errs.Sendf("%s: %v", args[0], err)
		}
	}
	return nil
}

func evalExpr(expr string, out *stream.Sender) error {
	printed := false
	thread := &starlark.Thread{
		Name: "eval",
		Print: func(_ *starlark.Thread, msg string) {
			printed = true
			out.Send(msg)
		},
	}
	thread.SetMaxExecutionSteps(maxEvalSteps)

	v, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "<expr>", expr, nil)
	if err != nil {
		return err
	}
	// print(...) evaluates to None; its output already went out.
	if v == starlark.None && printed {
		return nil
	}
	if s, ok := v.(starlark.String); ok {
		return out.Send(string(s))
	}
	return out.Send(v.String())
}
