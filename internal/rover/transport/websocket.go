package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/internal/rover/core"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/options"
)

const writeTimeout = 10 * time.Second

var _ core.Transport = (*WebSocket)(nil)

// WebSocket is a client link that keeps one connection to the control
// server open, reconnecting at a fixed interval. Reads and writes each run
// on their own goroutine; Send only enqueues.
type WebSocket struct {
	opts    options.WebSocketOptions
	url     string
	dialer  *websocket.Dialer
	header  http.Header
	clock   clock.WithTicker
	inbound inbox
	out     outbox
	logger  log.Logger

	connected atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewWebSocket creates a link to opts.URL(robotID). inboundSize bounds the
// number of received, undispatched payloads. opts is copied; later changes
// to it do not reach the link.
func NewWebSocket(opts *options.WebSocketOptions, robotID string, inboundSize int) *WebSocket {
	u := opts.URL(robotID)
	return &WebSocket{
		opts: *opts,
		url:  u.String(),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
			TLSClientConfig:  &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify},
		},
		header:  http.Header{"User-Agent": []string{"rover-agent"}},
		clock:   clock.RealClock{},
		inbound: newInbox(inboundSize),
		out:     newOutbox(),
		logger:  log.WithName("ws").WithValues("url", u.String()),
		done:    make(chan struct{}),
	}
}

// Start connects in the background and returns immediately.
func (w *WebSocket) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	go func() {
		defer close(w.done)
		wait.UntilWithContext(ctx, w.session, w.opts.ReconnectInterval)
	}()
	return nil
}

func (w *WebSocket) Inbound() <-chan []byte { return w.inbound }

func (w *WebSocket) Connected() bool { return w.connected.Load() }

// Send enqueues payload as one text frame. Frames accepted just before a
// disconnect are written after the next reconnect.
func (w *WebSocket) Send(_ context.Context, payload []byte) error {
	if !w.Connected() {
		return ErrNotConnected
	}
	return w.out.offer(payload)
}

// Stop closes the connection and waits for the link goroutines to exit.
func (w *WebSocket) Stop() {
	w.once.Do(func() {
		if w.cancel == nil {
			return
		}
		w.cancel()
		<-w.done
		w.logger.Info("WebSocket link stopped")
	})
}

// session runs one connection until it fails or ctx is done.
func (w *WebSocket) session(ctx context.Context) {
	conn, _, err := w.dialer.DialContext(ctx, w.url, w.header)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("WebSocket connect failed, retrying", "err", err.Error(), "in", w.opts.ReconnectInterval)
		}
		return
	}
	w.logger.Info("WebSocket connected")

	var lastPong atomic.Int64
	conn.SetPongHandler(func(string) error {
		lastPong.Store(w.clock.Now().UnixNano())
		w.logger.Debug("PONG")
		return nil
	})
	conn.SetPingHandler(func(data string) error {
		w.logger.Debug("PING")
		err := conn.WriteControl(websocket.PongMessage, []byte(data), w.clock.Now().Add(writeTimeout))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	sessCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		w.readLoop(conn)
	}()

	w.setConnected(true)
	w.writeLoop(sessCtx, conn, &lastPong)
	w.setConnected(false)

	cancel()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), w.clock.Now().Add(time.Second))
	_ = conn.Close()
	wg.Wait()
	w.logger.Info("WebSocket disconnected")
}

func (w *WebSocket) readLoop(conn *websocket.Conn) {
	for {
		mt, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Debug("WebSocket read ended", "err", err.Error())
			}
			return
		}
		if mt != websocket.TextMessage {
			w.logger.Debug("Ignoring non-text frame", "type", mt)
			continue
		}
		w.logger.Debug("Frame received", "payload", string(payload))
		if !w.inbound.push(payload) {
			w.logger.Warn("Inbound queue full, dropping frame", "size", cap(w.inbound))
		}
	}
}

// writeLoop is the only writer of data frames and heartbeat pings.
func (w *WebSocket) writeLoop(ctx context.Context, conn *websocket.Conn, lastPong *atomic.Int64) {
	var (
		pingC    <-chan time.Time
		pongWait <-chan time.Time
		pingedAt int64
		missed   int
	)
	if w.opts.PingInterval > 0 {
		ticker := w.clock.NewTicker(w.opts.PingInterval)
		defer ticker.Stop()
		pingC = ticker.C()
	}

	for {
		select {
		case <-ctx.Done():
			return

		case payload := <-w.out:
			_ = conn.SetWriteDeadline(w.clock.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				metrics.ResultSendErrorsTotal.Inc()
				w.logger.Error(err, "WebSocket write failed")
				return
			}
			w.logger.Debug("Frame sent", "payload", string(payload))

		case <-pingC:
			pingedAt = w.clock.Now().UnixNano()
			if err := conn.WriteControl(websocket.PingMessage, nil, w.clock.Now().Add(writeTimeout)); err != nil {
				w.logger.Error(err, "WebSocket ping failed")
				return
			}
			pongWait = w.clock.After(w.opts.PongTimeout)

		case <-pongWait:
			pongWait = nil
			if lastPong.Load() >= pingedAt {
				missed = 0
				continue
			}
			missed++
			w.logger.Warn("Heartbeat pong missed", "missed", missed, "max", w.opts.MaxMissedPongs)
			if missed >= w.opts.MaxMissedPongs {
				w.logger.Warn("Heartbeat timeout, dropping connection")
				return
			}
		}
	}
}

func (w *WebSocket) setConnected(up bool) {
	w.connected.Store(up)
	metrics.SetConnected(up)
}
