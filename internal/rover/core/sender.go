package core

import (
	"context"
)

// Sender writes one outbound text frame to the control server.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}
