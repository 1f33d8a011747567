// Package chat connects pipesh to a conversation medium. A Transport
// delivers inbound messages and carries replies back to a target.
package chat

import (
	"context"
	"errors"
)

// ErrClosed is returned by a Transport after Close, or once its peer has
// gone away and every buffered message has been received.
var ErrClosed = errors.New("chat: transport closed")

// Message is one inbound chat line.
type Message struct {
	From   string `json:"from"`   // sender nick
	Target string `json:"target"` // conversation it was sent to
	Text   string `json:"text"`
}

// Transport is a bidirectional chat connection. Send and Join must be safe
// for concurrent use; Receive is called from a single goroutine.
type Transport interface {
	// Join enters a conversation so messages sent to it are delivered.
	Join(ctx context.Context, target string) error
	// Receive blocks until the next inbound message, ctx is done, or the
	// transport closes (ErrClosed).
	Receive(ctx context.Context) (Message, error)
	// Send posts text to target.
	Send(ctx context.Context, target, text string) error
	Close() error
}

type messageOrError struct {
	msg Message
	err error
}

// receive is the shared Receive body for transports that run a read loop
// feeding ch and closing done on Close.
func receive(ctx context.Context, ch <-chan messageOrError, done <-chan struct{}) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-done:
		return Message{}, ErrClosed
	case item, ok := <-ch:
		if !ok {
			return Message{}, ErrClosed
		}
		return item.msg, item.err
	}
}
