package game

import (
	"errors"
	"time"
)

// Receive errors. A timeout is ordinary turn-loop control flow; a closed
// channel means the participant is gone for good.
var (
	ErrReceiveTimeout = errors.New("game: receive timed out")
	ErrChannelClosed  = errors.New("game: channel closed")
)

// Channel is the dealer's view of one participant's transport: an addressed,
// bidirectional message pipe with blocking-with-timeout receive and
// fire-and-forget send. Implementations must support concurrent Send calls;
// Receive is only ever called from the dealer's loop.
type Channel interface {
	// PlayerID identifies the party reachable through this channel end.
	PlayerID() string
	// Receive blocks up to timeout for the next message.
	Receive(timeout time.Duration) ([]byte, error)
	// ReceiveNowait returns the next message if one is already queued.
	ReceiveNowait() ([]byte, bool)
	// Send enqueues a message without blocking the caller.
	Send(payload []byte)
}

// queueBuffer bounds each direction of an in-process pair. Sends beyond it
// are dropped rather than blocking the dealer.
const queueBuffer = 256

// QueueChannel is an in-process Channel backed by a pair of buffered Go
// channels, for hot-seat and demo play where both ends share memory.
type QueueChannel struct {
	playerID string
	in       <-chan []byte
	out      chan<- []byte
}

// NewQueuePair creates the two ends of an in-process channel: the dealer
// end and the client end, cross-wired over shared queues.
func NewQueuePair(playerID string) (dealerEnd, clientEnd *QueueChannel) {
	toClient := make(chan []byte, queueBuffer)
	toDealer := make(chan []byte, queueBuffer)
	dealerEnd = &QueueChannel{playerID: playerID, in: toDealer, out: toClient}
	clientEnd = &QueueChannel{playerID: playerID, in: toClient, out: toDealer}
	return dealerEnd, clientEnd
}

// PlayerID implements Channel.
func (c *QueueChannel) PlayerID() string {
	return c.playerID
}

// Receive implements Channel.
func (c *QueueChannel) Receive(timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case payload := <-c.in:
		return payload, nil
	case <-timer.C:
		return nil, ErrReceiveTimeout
	}
}

// ReceiveNowait implements Channel.
func (c *QueueChannel) ReceiveNowait() ([]byte, bool) {
	select {
	case payload := <-c.in:
		return payload, true
	default:
		return nil, false
	}
}

// Send implements Channel. A full queue drops the message; the peer is
// assumed stuck and the dealer must not block.
func (c *QueueChannel) Send(payload []byte) {
	select {
	case c.out <- payload:
	default:
	}
}
