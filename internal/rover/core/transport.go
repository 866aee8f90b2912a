package core

import (
	"context"
)

// Transport is the persistent link to the control server. Implementations
// own connection management, heartbeat and reconnection; the agent only
// drains Inbound and calls Send.
type Transport interface {
	Sender

	// Start begins connecting in the background and returns immediately.
	Start(ctx context.Context) error

	// Inbound delivers received text payloads in arrival order.
	Inbound() <-chan []byte

	// Connected reports whether the link is currently up.
	Connected() bool

	// Stop closes the link and releases resources.
	Stop()
}
