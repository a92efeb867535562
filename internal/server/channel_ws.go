package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wildwar/wildwar-server-go/internal/game"
)

const wsReadBuffer = 256

// wsChannel adapts a WebSocket connection to the dealer's channel contract.
// A read pump goroutine owns the connection's read side; Send serializes
// writes with a mutex because the dealer and the lobby may both emit.
type wsChannel struct {
	playerID string
	conn     *websocket.Conn
	logger   *zap.Logger

	in     chan []byte
	closed chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newWSChannel(playerID string, conn *websocket.Conn, logger *zap.Logger) *wsChannel {
	c := &wsChannel{
		playerID: playerID,
		conn:     conn,
		logger:   logger,
		in:       make(chan []byte, wsReadBuffer),
		closed:   make(chan struct{}),
	}
	go c.readPump()
	return c
}

func (c *wsChannel) readPump() {
	defer c.markClosed()
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("websocket read failed", zap.String("player_id", c.playerID), zap.Error(err))
			}
			return
		}
		select {
		case c.in <- payload:
		default:
			c.logger.Warn("inbound queue full, dropping message", zap.String("player_id", c.playerID))
		}
	}
}

func (c *wsChannel) markClosed() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// PlayerID implements game.Channel.
func (c *wsChannel) PlayerID() string {
	return c.playerID
}

// Receive implements game.Channel. Messages buffered before the close are
// still delivered.
func (c *wsChannel) Receive(timeout time.Duration) ([]byte, error) {
	select {
	case payload := <-c.in:
		return payload, nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case payload := <-c.in:
		return payload, nil
	case <-c.closed:
		return nil, game.ErrChannelClosed
	case <-timer.C:
		return nil, game.ErrReceiveTimeout
	}
}

// ReceiveNowait implements game.Channel.
func (c *wsChannel) ReceiveNowait() ([]byte, bool) {
	select {
	case payload := <-c.in:
		return payload, true
	default:
		return nil, false
	}
}

// Send implements game.Channel. Write failures mean the peer is gone; the
// read pump notices and flags the close.
func (c *wsChannel) Send(payload []byte) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.logger.Debug("websocket write failed", zap.String("player_id", c.playerID), zap.Error(err))
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *wsChannel) Close() {
	c.markClosed()
	if err := c.conn.Close(); err != nil {
		c.logger.Debug("websocket close failed", zap.String("player_id", c.playerID), zap.Error(err))
	}
}
