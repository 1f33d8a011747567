// Package shell runs one command line end to end: parse, execute, audit.
// It is the single entry point used by the CLI, chat sessions and the MCP
// server.
package shell

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/marcelocantos/pipesh/internal/audit"
	"github.com/marcelocantos/pipesh/internal/cap"
	"github.com/marcelocantos/pipesh/internal/pipeline"
)

// Shell executes command lines against a fixed registry.
type Shell struct {
	reg    *cap.Registry
	audit  *audit.Logger
	logger *slog.Logger
}

// New creates a Shell. auditLog may be nil; logger defaults to
// slog.Default().
func New(reg *cap.Registry, auditLog *audit.Logger, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{reg: reg, audit: auditLog, logger: logger}
}

// Registry returns the registry the shell executes against.
func (s *Shell) Registry() *cap.Registry { return s.reg }

// Invocation describes who asked for a line to be run and where the reply
// goes. Identity and Target are empty for local runs.
type Invocation struct {
	Identity string
	Target   string
	Line     string
}

// Run interprets inv.Line and returns the pipeline's output lines, or the
// error that failed it (see pipeline.Messages).
func (s *Shell) Run(ctx context.Context, inv Invocation) ([]string, error) {
	id := uuid.NewString()
	start := time.Now()

	var stages []string
	p, err := pipeline.Parse(inv.Line)
	var out []string
	if err == nil {
		stages = p.Names()
		out, err = pipeline.Execute(ctx, p, s.reg)
	}
	duration := time.Since(start)

	s.logger.Info("pipeline",
		"id", id,
		"identity", inv.Identity,
		"target", inv.Target,
		"stages", stages,
		"ok", err == nil,
		"duration", duration,
	)
	if err != nil {
		s.logger.Debug("pipeline failed", "id", id, "error", err)
	}

	if s.audit != nil {
		rec := audit.Record{
			ID:       id,
			Identity: inv.Identity,
			Target:   inv.Target,
			Line:     inv.Line,
			Stages:   stages,
			Output:   len(out),
			Errors:   pipeline.Messages(err),
			Duration: duration,
		}
		// Best-effort: a broken audit log must not fail the command.
		if aerr := s.audit.Log(rec); aerr != nil {
			s.logger.Error("audit log", "id", id, "error", aerr)
		}
	}

	return out, err
}
