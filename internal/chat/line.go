package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Line is a plain-text transport, one message per line. Inbound lines have
// the form
//
//	<from> <target> <text...>
//
// Outbound lines are "<target> <text>", and joins are written as
// "JOIN <target>". It is used for stdio and for tests.
type Line struct {
	w  io.Writer
	mu sync.Mutex

	events    chan messageOrError
	done      chan struct{}
	closeOnce sync.Once
}

// NewLine starts reading messages from r. Replies are written to w.
func NewLine(r io.Reader, w io.Writer) *Line {
	t := &Line{
		w:      w,
		events: make(chan messageOrError, 64),
		done:   make(chan struct{}),
	}
	go t.readLoop(r)
	return t
}

func (t *Line) readLoop(r io.Reader) {
	defer close(t.events)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		msg, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		select {
		case t.events <- messageOrError{msg: msg}:
		case <-t.done:
			return
		}
	}
	if err := sc.Err(); err != nil {
		select {
		case t.events <- messageOrError{err: fmt.Errorf("chat: read: %w", err)}:
		case <-t.done:
		}
	}
}

// parseLine splits "<from> <target> <text>". Lines with fewer than three
// fields are dropped.
func parseLine(line string) (Message, bool) {
	from, rest, ok := strings.Cut(strings.TrimLeft(line, " \t"), " ")
	if !ok || from == "" {
		return Message{}, false
	}
	target, text, ok := strings.Cut(strings.TrimLeft(rest, " \t"), " ")
	if !ok || target == "" {
		return Message{}, false
	}
	return Message{From: from, Target: target, Text: text}, true
}

func (t *Line) Join(ctx context.Context, target string) error {
	return t.write("JOIN " + target)
}

func (t *Line) Receive(ctx context.Context) (Message, error) {
	return receive(ctx, t.events, t.done)
}

func (t *Line) Send(ctx context.Context, target, text string) error {
	return t.write(target + " " + text)
}

func (t *Line) write(line string) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, line+"\n"); err != nil {
		return fmt.Errorf("chat: write: %w", err)
	}
	return nil
}

// Close stops delivery. The underlying reader and writer are not closed.
func (t *Line) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}
