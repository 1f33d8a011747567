package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/audit"
)

func newAuditCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check the audit log's hash chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := e.auditPath()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := audit.Verify(path); err != nil {
				fmt.Fprintf(w, "audit verification FAILED: %v\n", err)
				return &exitError{code: 1}
			}
			fmt.Fprintln(w, "audit log integrity verified")
			return nil
		},
	})

	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := e.auditPath()
			if err != nil {
				return err
			}
			entries, err := audit.Tail(path, n)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(w, "no audit entries")
				return nil
			}
			for _, entry := range entries {
				data, _ := json.MarshalIndent(entry, "", "  ")
				fmt.Fprintf(w, "%s\n", data)
			}
			return nil
		},
	}
	tail.Flags().IntVarP(&n, "lines", "n", 20, "number of entries")
	cmd.AddCommand(tail)

	return cmd
}

func (e *env) auditPath() (string, error) {
	if e.cfg.Audit.Path == "" {
		return "", errors.New("audit.path is not configured")
	}
	return e.cfg.Audit.Path, nil
}
