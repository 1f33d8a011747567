// Package stream provides the unbounded text channels that connect pipeline
// stages.
//
// A channel has any number of Sender handles and exactly one Receiver. Send
// never blocks. The channel closes once every Sender handle has been
// closed; a Receiver then drains the remaining items and observes end of
// stream. There is no in-band end marker.
package stream

import (
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when sending through a Sender handle that has
// already been closed.
var ErrClosed = errors.New("stream: send on closed sender")

type queue struct {
	notify chan struct{}

	mu      sync.Mutex
	items   []string
	senders int
}

func (q *queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Sender is one handle onto the producing side of a channel.
type Sender struct {
	q      *queue
	closed atomic.Bool
}

// Receiver is the consuming side of a channel.
type Receiver struct {
	q *queue
}

// New creates a channel with a single Sender handle.
func New() (*Sender, *Receiver) {
	q := &queue{
		notify:  make(chan struct{}, 1),
		senders: 1,
	}
	return &Sender{q: q}, &Receiver{q: q}
}

// Closed returns a Receiver that is already at end of stream.
func Closed() *Receiver {
	s, r := New()
	s.Close()
	return r
}

// Clone returns a new handle onto the same channel. The channel stays open
// until the clone is closed too.
func (s *Sender) Clone() *Sender {
	if s.closed.Load() {
		panic("stream: clone of closed sender")
	}
	s.q.mu.Lock()
	s.q.senders++
	s.q.mu.Unlock()
	return &Sender{q: s.q}
}

// Send appends item to the channel.
func (s *Sender) Send(item string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.q.mu.Lock()
	s.q.items = append(s.q.items, item)
	s.q.mu.Unlock()
	s.q.wake()
	return nil
}

// Sendf formats according to a format specifier and sends the result.
func (s *Sender) Sendf(format string, args ...any) error {
	return s.Send(fmt.Sprintf(format, args...))
}

// Close releases this handle. Closing a handle more than once is a no-op.
func (s *Sender) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.q.mu.Lock()
	s.q.senders--
	s.q.mu.Unlock()
	s.q.wake()
}

// Recv blocks until an item is available or the channel is closed and
// empty, in which case ok is false.
func (r *Receiver) Recv() (item string, ok bool) {
	for {
		r.q.mu.Lock()
		if len(r.q.items) > 0 {
			item = r.q.items[0]
			r.q.items[0] = ""
			r.q.items = r.q.items[1:]
			r.q.mu.Unlock()
			return item, true
		}
		if r.q.senders == 0 {
			r.q.mu.Unlock()
			return "", false
		}
		r.q.mu.Unlock()
		<-r.q.notify
	}
}

// All returns a sequence over the remaining items, ending when the channel
// closes.
func (r *Receiver) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			item, ok := r.Recv()
			if !ok || !yield(item) {
				return
			}
		}
	}
}

// Drain receives until the channel closes and returns the items in arrival
// order.
func (r *Receiver) Drain() []string {
	var items []string
	for item := range r.All() {
		items = append(items, item)
	}
	return items
}
