//go:build !tinygo

package stream

import (
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket is an Endpoint carrying bytes in binary WebSocket messages.
// Address is a ws:// or wss:// URL. A reader goroutine queues inbound
// messages so Read never blocks.
type WebSocket struct {
	HandshakeTimeout time.Duration // default 5 s
	QueueLen         int           // inbound messages buffered, default 16

	mu      sync.Mutex
	conn    *websocket.Conn
	msgs    chan []byte
	done    chan struct{}
	readErr error

	rmu     sync.Mutex
	pending []byte

	wmu sync.Mutex
}

var _ Endpoint = (*WebSocket)(nil)

func (w *WebSocket) Open(address string) error {
	u, err := url.Parse(address)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return connErr("stream.ws.open", "malformed address "+address, err)
	}
	ht := w.HandshakeTimeout
	if ht <= 0 {
		ht = 5 * time.Second
	}
	d := websocket.Dialer{HandshakeTimeout: ht}
	c, _, err := d.Dial(u.String(), nil)
	if err != nil {
		return connErr("stream.ws.open", "unreachable "+address, err)
	}
	q := w.QueueLen
	if q <= 0 {
		q = 16
	}
	msgs := make(chan []byte, q)
	done := make(chan struct{})

	w.mu.Lock()
	w.conn = c
	w.msgs = msgs
	w.done = done
	w.readErr = nil
	w.mu.Unlock()

	go w.pump(c, msgs, done)
	return nil
}

func (w *WebSocket) pump(c *websocket.Conn, msgs chan<- []byte, done <-chan struct{}) {
	defer close(msgs)
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.readErr = err
			w.mu.Unlock()
			return
		}
		if len(data) == 0 {
			continue
		}
		select {
		case msgs <- data:
		case <-done:
			return
		}
	}
}

func (w *WebSocket) Write(p []byte) (int, error) {
	w.mu.Lock()
	c := w.conn
	w.mu.Unlock()
	if c == nil {
		return 0, ErrClosed
	}
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if err := c.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocket) Read(p []byte) (int, error) {
	w.mu.Lock()
	c, msgs := w.conn, w.msgs
	w.mu.Unlock()
	if c == nil {
		return 0, ErrClosed
	}
	w.rmu.Lock()
	defer w.rmu.Unlock()
	if len(w.pending) == 0 {
		select {
		case data, ok := <-msgs:
			if !ok {
				return 0, w.endErr()
			}
			w.pending = data
		default:
			return 0, nil
		}
	}
	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

// endErr maps the pump's terminal error: a normal close is io.EOF.
func (w *WebSocket) endErr() error {
	w.mu.Lock()
	err := w.readErr
	w.mu.Unlock()
	if err == nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return io.EOF
	}
	return err
}

func (w *WebSocket) Close() error {
	w.mu.Lock()
	c, done := w.conn, w.done
	w.conn = nil
	w.mu.Unlock()
	if c == nil {
		return nil
	}
	close(done)
	w.wmu.Lock()
	_ = c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(100*time.Millisecond))
	w.wmu.Unlock()
	return c.Close()
}
