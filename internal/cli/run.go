package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/pipeline"
	"github.com/marcelocantos/pipesh/internal/shell"
)

func newRunCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "run <line>...",
		Short: "Execute one command line",
		Long: `Execute one command line and print each output item on its own line.
Multiple arguments are joined with spaces, so

  pipesh run 'echo "a  b" | count'

and

  pipesh run echo a b '|' count

are both accepted. On failure every error line is printed to stderr and the
exit status is 1.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args, " ")
			out, err := e.shell.Run(cmd.Context(), shell.Invocation{Line: line})
			if err != nil {
				for _, msg := range pipeline.Messages(err) {
					fmt.Fprintf(cmd.ErrOrStderr(), "pipesh: %s\n", msg)
				}
				return &exitError{code: 1}
			}
			w := cmd.OutOrStdout()
			for _, item := range out {
				fmt.Fprintln(w, item)
			}
			return nil
		},
	}
}
