package pipeline

import (
	"context"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/stream"
)

// Run parses a command line and executes it.
func Run(ctx context.Context, line string, reg *cap.Registry) ([]string, error) {
	p, err := Parse(line)
	if err != nil {
		return nil, err
	}
	return Execute(ctx, p, reg)
}

// Execute runs a pipeline, streaming items between stages.
//
// Every stage is validated first; if any is invalid nothing runs. Each
// stage then runs in its own goroutine. Stage i reads from a channel fed by
// stage i-1 (the first stage reads from a closed channel) and all stages
// share one error channel. Execute returns once the last stage's output
// and the error channel have both closed, which happens only after every
// stage has returned. If any error line was reported the output is
// discarded and a *CommandErrors is returned.
//
// There is no cancellation: a stage that never returns blocks Execute
// forever. ctx is passed through to capabilities but Execute never cancels
// it.
func Execute(ctx context.Context, p *Pipeline, reg *cap.Registry) ([]string, error) {
	caps, err := resolve(p, reg)
	if err != nil {
		return nil, err
	}
	ctx = cap.NewContext(ctx, reg)

	errTx, errRx := stream.New()
	resultTx, resultRx := stream.New()

	in := stream.Closed()
	last := len(caps) - 1
	for i, c := range caps {
		var (
			out  *stream.Sender
			next *stream.Receiver
		)
		if i == last {
			out = resultTx
		} else {
			out, next = stream.New()
		}
		go runStage(ctx, c, p.Stages[i].Args, in, out, errTx.Clone())
		in = next
	}

	// Only the stages hold error handles now.
	errTx.Close()

	output := resultRx.Drain()
	if msgs := errRx.Drain(); len(msgs) > 0 {
		return nil, &CommandErrors{Messages: msgs}
	}
	return output, nil
}

// runStage owns out and errs and closes both when the capability returns,
// so the next stage and the collector observe end of stream.
func runStage(ctx context.Context, c cap.Capability, args []string, in *stream.Receiver, out, errs *stream.Sender) {
	defer out.Close()
	defer errs.Close()
	defer func() {
		if r := recover(); r != nil {
			errs.Sendf("%s: panic: %v", args[0], r)
		}
	}()

	if err := c.Run(ctx, args, in, out, errs); err != nil {
		errs.Sendf("%s: %v", args[0], err)
	}
}
