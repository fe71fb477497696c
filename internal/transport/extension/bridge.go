package extension

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrBridgeClosed is returned by Send after Close.
var ErrBridgeClosed = errors.New("extension: bridge closed")

// Bridge is the duplex channel to the extension.
type Bridge interface {
	Send(ctx context.Context, msg Outgoing) error
	// Incoming yields raw messages and is closed when the bridge ends.
	Incoming() <-chan []byte
	Close() error
}

// ChannelBridge is an in-process Bridge. The extension side reads Sent and
// answers with Deliver.
type ChannelBridge struct {
	out  chan Outgoing
	in   chan []byte
	done chan struct{}
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewChannelBridge returns a bridge buffering up to buffer messages each way.
func NewChannelBridge(buffer int) *ChannelBridge {
	return &ChannelBridge{
		out:  make(chan Outgoing, buffer),
		in:   make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Send implements Bridge.
func (b *ChannelBridge) Send(ctx context.Context, msg Outgoing) error {
	select {
	case <-b.done:
		return ErrBridgeClosed
	default:
	}
	select {
	case b.out <- msg:
		return nil
	case <-b.done:
		return ErrBridgeClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Incoming implements Bridge.
func (b *ChannelBridge) Incoming() <-chan []byte { return b.in }

// Sent is the extension side of Send.
func (b *ChannelBridge) Sent() <-chan Outgoing { return b.out }

// Deliver pushes a message from the extension side. v is marshalled unless
// it is already []byte.
func (b *ChannelBridge) Deliver(v any) error {
	raw, ok := v.([]byte)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return err
		}
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBridgeClosed
	}
	select {
	case <-b.done:
		return ErrBridgeClosed
	case b.in <- raw:
		return nil
	}
}

// Close implements Bridge.
func (b *ChannelBridge) Close() error {
	b.once.Do(func() {
		close(b.done)
		b.mu.Lock()
		b.closed = true
		close(b.in)
		b.mu.Unlock()
	})
	return nil
}

// WebSocketBridge is a Bridge over a WebSocket connection to a local
// connector.
type WebSocketBridge struct {
	conn *websocket.Conn
	in   chan []byte
	done chan struct{}
	log  zerolog.Logger

	wmu  sync.Mutex
	once sync.Once
}

// DialWebSocket connects to url and starts the read loop.
func DialWebSocket(ctx context.Context, url string, logger zerolog.Logger) (*WebSocketBridge, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	b := &WebSocketBridge{
		conn: conn,
		in:   make(chan []byte, 16),
		done: make(chan struct{}),
		log:  logger.With().Str("component", "extension-ws").Logger(),
	}
	go b.readLoop()
	return b, nil
}

func (b *WebSocketBridge) readLoop() {
	defer close(b.in)
	for {
		typ, data, err := b.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.log.Debug().Err(err).Msg("read loop ended")
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		select {
		case b.in <- data:
		case <-b.done:
			return
		}
	}
}

// Send implements Bridge.
func (b *WebSocketBridge) Send(ctx context.Context, msg Outgoing) error {
	b.wmu.Lock()
	defer b.wmu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.conn.SetWriteDeadline(deadline)
		defer b.conn.SetWriteDeadline(time.Time{})
	}
	return b.conn.WriteJSON(msg)
}

// Incoming implements Bridge.
func (b *WebSocketBridge) Incoming() <-chan []byte { return b.in }

// Close implements Bridge.
func (b *WebSocketBridge) Close() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		b.wmu.Lock()
		_ = b.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		b.wmu.Unlock()
		err = b.conn.Close()
	})
	return err
}
