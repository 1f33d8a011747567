package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Frame types exchanged with a websocket chat hub.
const (
	FrameHello   = "hello"   // C→S: announces the bot's nick
	FrameJoin    = "join"    // C→S: enter a conversation
	FrameMessage = "message" // both ways: one chat line
)

// Frame is the JSON envelope of every websocket message.
type Frame struct {
	Type   string `json:"type"`
	From   string `json:"from,omitempty"`
	Target string `json:"target,omitempty"`
	Text   string `json:"text,omitempty"`
}

// WebSocket is a Transport speaking JSON frames to a chat hub.
type WebSocket struct {
	conn *websocket.Conn
	nick string
	log  *slog.Logger

	mu        sync.Mutex // serialises writes; gorilla allows one writer
	events    chan messageOrError
	done      chan struct{}
	closeOnce sync.Once
}

// DialWebSocket connects to url and announces nick.
func DialWebSocket(ctx context.Context, url, nick string, logger *slog.Logger) (*WebSocket, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("chat: dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("chat: dial %s: %w", url, err)
	}

	t := &WebSocket{
		conn:   conn,
		nick:   nick,
		log:    logger,
		events: make(chan messageOrError, 64),
		done:   make(chan struct{}),
	}
	if err := t.writeFrame(Frame{Type: FrameHello, From: nick}); err != nil {
		conn.Close()
		return nil, err
	}
	go t.readLoop()
	return t, nil
}

func (t *WebSocket) readLoop() {
	defer close(t.events)

	for {
		var f Frame
		if err := t.conn.ReadJSON(&f); err != nil {
			select {
			case <-t.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			select {
			case t.events <- messageOrError{err: fmt.Errorf("chat: read: %w", err)}:
			case <-t.done:
			}
			return
		}
		if f.Type != FrameMessage {
			t.log.Debug("chat: ignoring frame", "type", f.Type)
			continue
		}
		select {
		case t.events <- messageOrError{msg: Message{From: f.From, Target: f.Target, Text: f.Text}}:
		case <-t.done:
			return
		}
	}
}

func (t *WebSocket) Join(ctx context.Context, target string) error {
	return t.writeFrame(Frame{Type: FrameJoin, From: t.nick, Target: target})
}

func (t *WebSocket) Receive(ctx context.Context) (Message, error) {
	return receive(ctx, t.events, t.done)
}

func (t *WebSocket) Send(ctx context.Context, target, text string) error {
	return t.writeFrame(Frame{Type: FrameMessage, From: t.nick, Target: target, Text: text})
}

func (t *WebSocket) writeFrame(f Frame) error {
	select {
	case <-t.done:
		return ErrClosed
	default:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.conn.WriteJSON(f); err != nil {
		return fmt.Errorf("chat: write %s: %w", f.Type, err)
	}
	return nil
}

// Close sends a close frame and tears down the connection.
func (t *WebSocket) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		t.mu.Lock()
		_ = t.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.mu.Unlock()
		err = t.conn.Close()
	})
	return err
}
