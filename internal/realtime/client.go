package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/ripple-app/backend/internal/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write an event to the peer
	writeWait = 10 * time.Second

	// Time allowed between reads before the connection is presumed dead
	pongWait = 60 * time.Second

	// Ping period; must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size
	maxEventSize = 64 * 1024

	// Outbound buffer size per connection
	sendBufferSize = 256
)

// Client pumps events between one WebSocket connection and the hub. It is
// the Sink for its session: delivery lands in a bounded buffer that the
// write pump drains, so a stalled peer never blocks the dispatch loop.
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	session *Session
	send    chan []byte

	limiter *tokenBucket

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// tokenBucket is a simple token bucket rate limiter.
type tokenBucket struct {
	tokens    float64
	maxTokens float64
	refill    float64
	lastTime  time.Time
	mu        sync.Mutex
}

func newTokenBucket(perSecond, burst int) *tokenBucket {
	return &tokenBucket{
		tokens:    float64(burst),
		maxTokens: float64(burst),
		refill:    float64(perSecond),
		lastTime:  time.Now(),
	}
}

func (b *tokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastTime).Seconds() * b.refill
	b.lastTime = now
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// NewClient wraps an accepted connection and registers a session for it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := hub.GetRateLimitConfig()

	c := &Client{
		conn:    conn,
		hub:     hub,
		send:    make(chan []byte, sendBufferSize),
		limiter: newTokenBucket(cfg.MaxEventsPerSecond, cfg.BurstSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	c.session = hub.Connect(c)
	return c
}

// Session returns the hub session backing this connection.
func (c *Client) Session() *Session {
	return c.session
}

// TrySend implements Sink. It never blocks; a full buffer reports false
// and the hub will tear the session down.
func (c *Client) TrySend(data []byte) bool {
	select {
	case c.send <- data:
		return true
	case <-c.ctx.Done():
		return false
	default:
		return false
	}
}

// ReadPump reads inbound events until the connection drops, then tears the
// session down. Runs on the caller's goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Disconnect(c.session.ID)
		c.Close()
	}()

	c.conn.SetReadLimit(maxEventSize)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		readCtx, readCancel := context.WithTimeout(c.ctx, pongWait)
		_, data, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Log.Debug("client closed connection", zap.String("session", c.session.ID))
			} else if c.ctx.Err() == nil {
				logger.Log.Debug("client read error",
					zap.String("session", c.session.ID),
					zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			logger.Log.Warn("client rate limited, dropping event",
				zap.String("session", c.session.ID))
			continue
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			// Protocol fault: no response channel exists, drop it.
			logger.Log.Warn("unparseable inbound event",
				zap.String("session", c.session.ID),
				zap.Error(err))
			continue
		}

		c.hub.HandleInbound(c.session, &ev)
	}
}

// WritePump drains the send buffer to the connection and keeps the peer
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			return

		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}
			writeCtx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Log.Debug("client write error",
					zap.String("session", c.session.ID),
					zap.Error(err))
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// Close shuts the connection down. Safe to call twice.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.conn.Close(websocket.StatusNormalClosure, "closing")
}
