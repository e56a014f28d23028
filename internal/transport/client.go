package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/confocus/confocus/internal/bridge"
)

const (
	// writeTimeout is the deadline for a single write to the session.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// session as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often ping frames are sent.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the outgoing message buffer depth.
	sendBufSize = 64

	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
)

// Client maintains the WebSocket session to the brewery: it joins the
// presence room, feeds presence events to the handler, and carries
// request/reply health probes with correlation ids.
//
// Run must be called in a goroutine; it reconnects with exponential backoff
// until its context is cancelled.
type Client struct {
	url          string
	room         string
	replyTimeout time.Duration
	handler      PresenceHandler
	dialer       *websocket.Dialer

	nextID atomic.Uint64

	mu        sync.Mutex
	connected bool
	out       chan envelope
	pending   map[string]chan envelope
}

// NewClient creates a Client for the brewery at url, joining room.
// replyTimeout bounds one request/reply exchange.
func NewClient(url, room string, replyTimeout time.Duration, handler PresenceHandler) *Client {
	return &Client{
		url:          url,
		room:         room,
		replyTimeout: replyTimeout,
		handler:      handler,
		dialer:       websocket.DefaultDialer,
		pending:      make(map[string]chan envelope),
	}
}

// Connected reports whether the brewery session is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Run dials the brewery and serves the session, reconnecting with
// exponential backoff on loss. It blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	bo := newBackoff()

	for {
		if ctx.Err() != nil {
			return
		}

		err := c.session(ctx, bo.reset)
		if ctx.Err() != nil {
			return
		}

		wait := bo.next()
		slog.Warn("transport: brewery session lost, will reconnect",
			"url", c.url, "err", err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// RequestHealth sends a health request addressed to addr and waits for the
// reply. It returns nil on a success reply, ErrReplyTimeout when no reply
// arrives within the reply timeout, a *ConditionError for structured error
// replies, and ErrNotConnected when the session is down.
func (c *Client) RequestHealth(ctx context.Context, addr bridge.Address) error {
	id := fmt.Sprintf("focus-%d", c.nextID.Add(1))
	reply := make(chan envelope, 1)

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.pending[id] = reply
	out := c.out
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	env := envelope{Type: "health", To: string(addr), ID: id}
	select {
	case out <- env:
	default:
		return fmt.Errorf("transport: send buffer full")
	}

	timer := time.NewTimer(c.replyTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrReplyTimeout
	case resp, ok := <-reply:
		if !ok {
			return ErrNotConnected
		}
		if resp.Type == "error" {
			return &ConditionError{Condition: resp.Condition}
		}
		return nil
	}
}

// session runs one connection: dial, join the room, pump messages until the
// connection fails or ctx is cancelled. onConnect runs after a successful
// dial so the caller can reset its backoff.
func (c *Client) session(ctx context.Context, onConnect func()) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	onConnect()

	out := make(chan envelope, sendBufSize)
	c.mu.Lock()
	c.connected = true
	c.out = out
	c.mu.Unlock()

	slog.Info("transport: brewery session established", "url", c.url, "room", c.room)

	out <- envelope{Type: "join", Room: c.room}

	writeDone := make(chan struct{})
	go c.writePump(ctx, conn, out, writeDone)

	err = c.readPump(conn)

	// Close the connection before waiting for the write pump: its writes can
	// keep landing in TCP buffers on a half-dead connection, and only a
	// failed write makes it exit.
	conn.Close()
	<-writeDone
	c.teardown(conn)
	return err
}

// teardown marks the session down and fails every pending request.
func (c *Client) teardown(conn *websocket.Conn) {
	conn.Close()

	c.mu.Lock()
	c.connected = false
	c.out = nil
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

// readPump reads envelopes until the connection fails and dispatches them:
// presence events to the handler, replies to their pending requests.
func (c *Client) readPump(conn *websocket.Conn) error {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env envelope) {
	switch env.Type {
	case "status":
		if env.From == "" {
			slog.Warn("transport: status without sender, dropping")
			return
		}
		c.handler.InstanceStatusChanged(bridge.Address(env.From), bridge.Stats(env.Stats))

	case "offline":
		if env.From == "" {
			slog.Warn("transport: offline without sender, dropping")
			return
		}
		c.handler.InstanceOffline(bridge.Address(env.From))

	case "result", "error":
		c.mu.Lock()
		ch, ok := c.pending[env.ID]
		c.mu.Unlock()
		if !ok {
			slog.Debug("transport: reply for unknown request", "id", env.ID)
			return
		}
		select {
		case ch <- env:
		default:
		}

	default:
		slog.Debug("transport: unknown message type", "type", env.Type)
	}
}

// writePump drains out and forwards envelopes to the connection, sending
// periodic ping frames. It exits when ctx is cancelled or a write fails.
func (c *Client) writePump(ctx context.Context, conn *websocket.Conn, out chan envelope, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
			return

		case env := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// backoff implements capped exponential backoff for reconnects.
type backoff struct {
	cur time.Duration
}

func newBackoff() *backoff {
	return &backoff{cur: backoffInitial}
}

func (b *backoff) next() time.Duration {
	d := b.cur
	b.cur = time.Duration(float64(b.cur) * backoffMultiplier)
	if b.cur > backoffMax {
		b.cur = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.cur = backoffInitial
}
