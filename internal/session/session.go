// Package session routes chat messages to per-identity workers. Each nick
// that sends a command gets its own goroutine and inbox, created on the
// first message and reused afterwards, so one user's lines run in order
// while different users run concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/marcelocantos/pipesh/internal/cap/builtin"
	"github.com/marcelocantos/pipesh/internal/chat"
	"github.com/marcelocantos/pipesh/internal/config"
	"github.com/marcelocantos/pipesh/internal/kv"
	"github.com/marcelocantos/pipesh/internal/pipeline"
	"github.com/marcelocantos/pipesh/internal/shell"
)

// DefaultInboxSize is the number of pending lines a worker may queue.
const DefaultInboxSize = 32

// Runner executes one command line. *shell.Shell implements it.
type Runner interface {
	Run(ctx context.Context, inv shell.Invocation) ([]string, error)
}

// LeaderFunc returns the prefix that marks a message as a command.
type LeaderFunc func(ctx context.Context) string

// StaticLeader always returns leader.
func StaticLeader(leader string) LeaderFunc {
	return func(context.Context) string { return leader }
}

// StoreLeader returns the "leader" variable from store when it is set and
// not blank, and fallback otherwise.
func StoreLeader(store kv.Store, fallback string) LeaderFunc {
	key := builtin.VarKey("leader")
	return func(ctx context.Context) string {
		v, err := store.Get(ctx, key)
		if err != nil || strings.TrimSpace(string(v)) == "" {
			return fallback
		}
		return string(v)
	}
}

// Options configures a Manager.
type Options struct {
	// Nick is the bot's own identity. Its messages are ignored and
	// messages addressed to it are answered privately.
	Nick string

	// Leader defaults to config.DefaultLeader.
	Leader LeaderFunc

	// InboxSize defaults to DefaultInboxSize.
	InboxSize int

	Logger *slog.Logger
}

// Manager owns the per-identity workers.
type Manager struct {
	transport chat.Transport
	runner    Runner
	nick      string
	leader    LeaderFunc
	inboxSize int
	log       *slog.Logger

	mu      sync.Mutex
	workers map[string]chan chat.Message
	closed  bool
	wg      sync.WaitGroup
}

// New creates a Manager that replies through t.
func New(t chat.Transport, r Runner, opts Options) *Manager {
	if opts.Leader == nil {
		opts.Leader = StaticLeader(config.DefaultLeader)
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		transport: t,
		runner:    r,
		nick:      opts.Nick,
		leader:    opts.Leader,
		inboxSize: opts.InboxSize,
		log:       opts.Logger,
		workers:   make(map[string]chan chat.Message),
	}
}

// Serve joins every target in joins, then dispatches inbound messages until
// the transport closes or ctx is cancelled. Workers are drained before
// Serve returns.
func (m *Manager) Serve(ctx context.Context, joins []string) error {
	if err := m.join(ctx, joins); err != nil {
		return err
	}
	defer m.Close()

	for {
		msg, err := m.transport.Receive(ctx)
		switch {
		case err == nil:
			m.Dispatch(ctx, msg)
		case errors.Is(err, chat.ErrClosed), errors.Is(err, context.Canceled):
			return nil
		default:
			return fmt.Errorf("receive: %w", err)
		}
	}
}

const joinConcurrency = 4

func (m *Manager) join(ctx context.Context, targets []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(joinConcurrency)
	for _, target := range targets {
		g.Go(func() error {
			if err := m.transport.Join(gctx, target); err != nil {
				return fmt.Errorf("join %s: %w", target, err)
			}
			m.log.Info("joined", "target", target)
			return nil
		})
	}
	return g.Wait()
}

// Dispatch hands msg to its sender's worker, spawning one if needed.
// Messages from the bot itself and messages without the leader are
// ignored.
func (m *Manager) Dispatch(ctx context.Context, msg chat.Message) {
	if msg.From == "" || msg.From == m.nick {
		return
	}
	leader := m.leader(ctx)
	if !strings.HasPrefix(msg.Text, leader) {
		return
	}
	msg.Text = strings.TrimPrefix(msg.Text, leader)

	if !m.enqueue(msg) {
		m.log.Warn("inbox full, dropping line", "identity", msg.From)
		m.reply(context.WithoutCancel(ctx), msg, []string{"busy, try again later"})
	}
}

// enqueue queues msg on its sender's inbox without blocking. It reports
// false only when the inbox is full.
func (m *Manager) enqueue(msg chat.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return true
	}
	inbox, ok := m.workers[msg.From]
	if !ok {
		inbox = make(chan chat.Message, m.inboxSize)
		m.workers[msg.From] = inbox
		m.wg.Add(1)
		go m.work(msg.From, inbox)
	}
	select {
	case inbox <- msg:
		return true
	default:
		return false
	}
}

// work runs one identity's lines in arrival order. Lines already queued
// when the manager closes still run.
func (m *Manager) work(identity string, inbox <-chan chat.Message) {
	defer m.wg.Done()
	m.log.Debug("session start", "identity", identity)
	defer m.log.Debug("session end", "identity", identity)

	ctx := context.Background()
	for msg := range inbox {
		out, err := m.runner.Run(ctx, shell.Invocation{
			Identity: identity,
			Target:   m.replyTarget(msg),
			Line:     msg.Text,
		})
		if err != nil {
			m.reply(ctx, msg, []string{"error: " + strings.Join(pipeline.Messages(err), "; ")})
			continue
		}
		m.reply(ctx, msg, out)
	}
}

// replyTarget is the conversation a reply goes to: the original target,
// or the sender when the message was addressed to the bot directly.
func (m *Manager) replyTarget(msg chat.Message) string {
	if msg.Target == m.nick {
		return msg.From
	}
	return msg.Target
}

func (m *Manager) reply(ctx context.Context, msg chat.Message, lines []string) {
	target := m.replyTarget(msg)
	for _, line := range lines {
		if err := m.transport.Send(ctx, target, msg.From+": "+line); err != nil {
			m.log.Error("send reply", "target", target, "identity", msg.From, "error", err)
			return
		}
	}
}

// Sessions returns the number of identities with a worker.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// Close stops accepting messages, lets every worker finish its queued
// lines and waits for them.
func (m *Manager) Close() {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		for _, inbox := range m.workers {
			close(inbox)
		}
	}
	m.mu.Unlock()
	m.wg.Wait()
}
