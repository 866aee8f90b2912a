package transport

import (
	"errors"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
)

var (
	// ErrNotConnected is returned by Send while the link is down.
	ErrNotConnected = errors.New("transport not connected")

	// ErrOutboxFull is returned by Send when frames are produced faster
	// than the link drains them.
	ErrOutboxFull = errors.New("transport outbox full")
)

const outboxSize = 32

// inbox is the bounded queue between a transport reader and the control loop.
type inbox chan []byte

func newInbox(size int) inbox {
	if size <= 0 {
		size = 1
	}
	return make(inbox, size)
}

// push enqueues payload, dropping it when the queue is full.
func (q inbox) push(payload []byte) bool {
	select {
	case q <- payload:
		return true
	default:
		metrics.InboundDropsTotal.Inc()
		return false
	}
}

// outbox is the queue of frames waiting for the single writer goroutine.
type outbox chan []byte

func newOutbox() outbox {
	return make(outbox, outboxSize)
}

func (q outbox) offer(payload []byte) error {
	select {
	case q <- payload:
		return nil
	default:
		return ErrOutboxFull
	}
}
