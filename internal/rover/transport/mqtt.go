package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/rover/internal/rover/core"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/mqtt"
	"github.com/autopeer-io/rover/pkg/mqtt/topic"
	"github.com/autopeer-io/rover/pkg/options"
)

const (
	qosAtLeastOnce = 1
	publishTimeout = 5 * time.Second
)

// newClient is replaced in tests.
var newClient = mqtt.NewClient

var _ core.Transport = (*MQTT)(nil)

// Presence is the retained payload of the online topic.
type Presence struct {
	RobotID string `json:"robot_id"`
	Online  bool   `json:"online"`
	BootID  string `json:"boot_id,omitempty"`
}

// MQTT is a link through a broker. Intents arrive on {root}/intent/{id},
// results leave on {root}/result/{id} and {root}/online/{id} carries a
// retained presence message backed by the session Will.
type MQTT struct {
	client  mqtt.Client
	robotID string
	bootID  string

	topics      *topic.Builder
	intentTopic string
	resultTopic string
	onlineTopic string

	inbound inbox
	out     outbox
	logger  log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewMQTT creates an MQTT link for robotID. The client ID defaults to
// "rover-{robotID}" unless opts sets one.
func NewMQTT(opts *options.MqttOptions, robotID string, inboundSize int) (*MQTT, error) {
	topics := topic.NewBuilder(opts.TopicRoot)
	m := &MQTT{
		robotID:     robotID,
		bootID:      uuid.NewString(),
		topics:      topics,
		intentTopic: topics.Build(paths.Intent, robotID),
		resultTopic: topics.Build(paths.Result, robotID),
		onlineTopic: topics.Build(paths.Online, robotID),
		inbound:     newInbox(inboundSize),
		out:         newOutbox(),
		logger:      log.WithName("mqtt").WithValues("robotID", robotID),
	}

	will, err := json.Marshal(Presence{RobotID: robotID, Online: false})
	if err != nil {
		return nil, err
	}

	cfg := opts.ToClientConfig()
	if cfg.ClientID == "" {
		cfg.ClientID = "rover-" + robotID
	}
	cfg.WillTopic = m.onlineTopic
	cfg.WillPayload = will
	cfg.WillQoS = qosAtLeastOnce
	cfg.WillRetain = true
	cfg.OnConnectionUp = m.announce

	m.client, err = newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mqtt client: %w", err)
	}
	return m, nil
}

// Start connects to the broker and subscribes to the intent topic. The
// subscription is retried by the client on every reconnect.
func (m *MQTT) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}
	if err := m.client.Subscribe(ctx, m.intentTopic, qosAtLeastOnce, m.onIntent); err != nil {
		m.logger.Warn("Subscribe deferred until connected", "topic", m.intentTopic, "err", err.Error())
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.publishLoop(ctx)
	}()
	return nil
}

func (m *MQTT) Inbound() <-chan []byte { return m.inbound }

func (m *MQTT) Connected() bool { return m.client.IsConnected() }

// Send enqueues payload for publication on the result topic.
func (m *MQTT) Send(_ context.Context, payload []byte) error {
	if !m.Connected() {
		return ErrNotConnected
	}
	return m.out.offer(payload)
}

// Stop marks the robot offline and disconnects.
func (m *MQTT) Stop() {
	m.once.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		m.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if m.client.IsConnected() {
			m.publishPresence(ctx, false)
		}
		m.client.Disconnect(ctx)
		metrics.SetConnected(false)
	})
}

func (m *MQTT) onIntent(_ context.Context, t string, payload []byte) {
	if id, ok := m.topics.ID(paths.Intent, t); !ok || id != m.robotID {
		m.logger.Debug("Ignoring message on foreign topic", "topic", t)
		return
	}
	m.logger.Debug("Intent received", "topic", t, "payload", string(payload))
	if !m.inbound.push(payload) {
		m.logger.Warn("Inbound queue full, dropping intent", "size", cap(m.inbound))
	}
}

// announce runs on every connection up.
func (m *MQTT) announce() {
	metrics.SetConnected(true)
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	m.publishPresence(ctx, true)
}

func (m *MQTT) publishPresence(ctx context.Context, online bool) {
	p := Presence{RobotID: m.robotID, Online: online}
	if online {
		p.BootID = m.bootID
	}
	payload, err := json.Marshal(p)
	if err != nil {
		m.logger.Error(err, "Failed to encode presence")
		return
	}
	if err := m.client.Publish(ctx, m.onlineTopic, qosAtLeastOnce, true, payload); err != nil {
		m.logger.Error(err, "Failed to publish presence", "online", online)
		return
	}
	m.logger.Info("Presence published", "online", online, "bootID", p.BootID)
}

// publishLoop is the only publisher of results.
func (m *MQTT) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-m.out:
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			err := m.client.Publish(pubCtx, m.resultTopic, qosAtLeastOnce, false, payload)
			cancel()
			if err != nil {
				metrics.ResultSendErrorsTotal.Inc()
				m.logger.Error(err, "Failed to publish result", "topic", m.resultTopic)
				continue
			}
			m.logger.Debug("Result published", "topic", m.resultTopic, "payload", string(payload))
		}
	}
}
