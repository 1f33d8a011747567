package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/cap"
)

func newListCommand(e *env) *cobra.Command {
	var tierFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *cap.Tier
			if tierFilter != "" {
				t, err := cap.ParseTier(tierFilter)
				if err != nil {
					return err
				}
				filter = &t
			}

			w := cmd.OutOrStdout()
			for _, c := range e.reg.All() {
				if filter != nil && c.Tier() != *filter {
					continue
				}
				tier := c.Tier().String()
				if e.reg.CheckTier(c.Tier()) != nil {
					tier += "*"
				}
				fmt.Fprintf(w, "%-8s %-6s %s\n", c.Name(), tier, c.Description())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tierFilter, "tier", "", "only list commands in this tier (read, write)")
	return cmd
}
