package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/chat"
	"github.com/marcelocantos/pipesh/internal/session"
)

func newServeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer command lines from chat",
		Long: `Connect to the configured chat transport, join the startup targets and
answer every message that starts with the leader ("#" by default, or the
value of the "leader" variable).

With transport.kind "stdio", inbound lines on stdin have the form

  <nick> <target> <text...>

and replies are written to stdout as "<target> <nick>: <line>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			joins, err := e.cfg.JoinTargets()
			if err != nil {
				return err
			}

			t, err := e.transport(ctx, cmd)
			if err != nil {
				return err
			}
			defer t.Close()

			m := session.New(t, e.shell, session.Options{
				Nick:   e.cfg.Transport.Nick,
				Leader: session.StoreLeader(e.store, e.cfg.Leader),
				Logger: e.logger,
			})
			e.logger.Info("serving", "transport", e.cfg.Transport.Kind, "nick", e.cfg.Transport.Nick)
			return m.Serve(ctx, joins)
		},
	}
}

func (e *env) transport(ctx context.Context, cmd *cobra.Command) (chat.Transport, error) {
	switch kind := e.cfg.Transport.Kind; kind {
	case "stdio":
		return chat.NewLine(cmd.InOrStdin(), cmd.OutOrStdout()), nil
	case "websocket":
		ws, err := chat.DialWebSocket(ctx, e.cfg.Transport.URL, e.cfg.Transport.Nick, e.logger)
		if err != nil {
			return nil, err
		}
		return ws, nil
	default:
		return nil, fmt.Errorf("unknown transport kind %q", kind)
	}
}
