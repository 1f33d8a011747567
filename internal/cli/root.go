// Package cli implements the pipesh command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcelocantos/pipesh/internal/audit"
	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/cap/builtin"
	"github.com/marcelocantos/pipesh/internal/config"
	"github.com/marcelocantos/pipesh/internal/kv"
	"github.com/marcelocantos/pipesh/internal/shell"
)

// Version is set at build time via ldflags.
var Version = "dev"

// exitError carries an exit code for a failure already reported to the
// user.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// env is everything a command needs, built once before it runs.
type env struct {
	configPath string
	verbose    bool
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	store  kv.Store
	reg    *cap.Registry
	audit  *audit.Logger
	shell  *shell.Shell
}

// newRoot builds the command tree. Commands read and write through the
// root's In/Out/Err streams so tests can capture them. The caller must
// call env.teardown once the command has run.
func newRoot() (*cobra.Command, *env) {
	e := &env{}
	root := &cobra.Command{
		Use:   "pipesh",
		Short: "A tiny pipeline shell for chat",
		Long: `pipesh interprets command lines such as

  echo hello world | count

Stages are separated by '|' and run concurrently, each reading the
previous stage's output. Words may be double-quoted to keep spaces.

Run 'pipesh serve' to answer lines from chat, 'pipesh run' to execute one
line locally, or 'pipesh mcp' to expose the interpreter as an MCP tool.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.configPath, "config", config.ConfigPath(), "config file")
	flags.BoolVarP(&e.verbose, "verbose", "v", false, "log at debug level")
	flags.StringVar(&e.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCommand(e),
		newServeCommand(e),
		newMCPCommand(e),
		newListCommand(e),
		newAuditCommand(e),
		newVersionCommand(),
	)
	return root, e
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, e := newRoot()
	return execute(ctx, root, e)
}

func execute(ctx context.Context, root *cobra.Command, e *env) int {
	err := root.ExecuteContext(ctx)
	if cerr := e.teardown(); cerr != nil && err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(root.ErrOrStderr(), "pipesh: %v\n", err)
	return 1
}

func (e *env) setup(stderr io.Writer) error {
	level := slog.LevelWarn
	if err := level.UnmarshalText([]byte(e.logLevel)); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	if e.verbose {
		level = slog.LevelDebug
	}
	e.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.LoadFrom(e.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	e.cfg = cfg

	if cfg.Store.Dir == "" {
		e.store = kv.NewMemory(nil)
	} else {
		if err := os.MkdirAll(cfg.Store.Dir, 0700); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		db, err := kv.NewBadger(kv.BadgerOptions{Dir: cfg.Store.Dir, Logger: e.logger})
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
		e.store = db
	}

	e.reg = cap.NewRegistry()
	builtin.RegisterAll(e.reg, e.store)
	cfg.ApplyTiers(e.reg)
	cfg.ApplyRules(e.reg)

	if cfg.Audit.Enabled && cfg.Audit.Path != "" {
		e.audit, err = audit.NewLogger(cfg.Audit.Path)
		if err != nil {
			// Continue without audit logging.
			e.logger.Warn("audit log disabled", "path", cfg.Audit.Path, "error", err)
			e.audit = nil
		}
	}

	e.shell = shell.New(e.reg, e.audit, e.logger)
	return nil
}

func (e *env) teardown() error {
	var errs []error
	if e.audit != nil {
		if err := e.audit.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audit log: %w", err))
		}
		e.audit = nil
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		e.store = nil
	}
	return errors.Join(errs...)
}
