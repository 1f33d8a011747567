package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/stream"
)

// Jq runs a jq query over each input item, which must be JSON. String
// results are sent raw; everything else is sent as compact JSON.
type Jq struct{}

var _ cap.Capability = (*Jq)(nil)

func (j *Jq) Name() string        { return "jq" }
func (j *Jq) Description() string { return "query JSON input items: jq <filter>" }
func (j *Jq) Tier() cap.Tier      { return cap.TierRead }

func (j *Jq) Run(ctx context.Context, args []string, in *stream.Receiver, out, errs *stream.Sender) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s <filter>", args[0])
	}
	query, err := gojq.Parse(strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("parse filter: %w", err)
	}
	for item := range in.All() {
		var v any
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			errs.Sendf("%s: invalid JSON input: %v", args[0], err)
			continue
		}
		if err := runQuery(ctx, query, v, out); err != nil {
			errs.Sendf("%s: %v", args[0], err)
		}
	}
	return nil
}

func runQuery(ctx context.Context, query *gojq.Query, input any, out *stream.Sender) error {
	iter := query.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}
			return err
		}
		if s, ok := v.(string); ok {
			out.Send(s)
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		out.Send(string(data))
	}
}
