package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/autopeer-io/rover/pkg/mqtt"
	"github.com/autopeer-io/rover/pkg/options"
)

type published struct {
	Topic   string
	QoS     int
	Retain  bool
	Payload string
}

type fakeClient struct {
	cfg       *mqtt.ClientConfig
	connected atomic.Bool

	mu           sync.Mutex
	published    []published
	handlers     map[string]mqtt.MessageHandler
	subscribeErr error
	disconnected bool
}

func (f *fakeClient) Start(context.Context) error { return nil }

func (f *fakeClient) Disconnect(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
	f.connected.Store(false)
}

func (f *fakeClient) Publish(_ context.Context, topic string, qos int, retain bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic, qos, retain, string(payload)})
	return nil
}

func (f *fakeClient) Subscribe(_ context.Context, topic string, _ int, h mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = h
	return f.subscribeErr
}

func (f *fakeClient) Unsubscribe(context.Context, string) error { return nil }
func (f *fakeClient) AwaitConnection(context.Context) error     { return nil }
func (f *fakeClient) IsConnected() bool                         { return f.connected.Load() }

func (f *fakeClient) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.published...)
}

func (f *fakeClient) deliver(topic, payload string) {
	f.mu.Lock()
	h := f.handlers[topic]
	f.mu.Unlock()
	h(context.Background(), topic, []byte(payload))
}

func newFakeMQTT(t *testing.T, inboundSize int) (*MQTT, *fakeClient) {
	t.Helper()
	fake := &fakeClient{handlers: map[string]mqtt.MessageHandler{}}
	orig := newClient
	newClient = func(cfg *mqtt.ClientConfig) (mqtt.Client, error) {
		fake.cfg = cfg
		return fake, nil
	}
	t.Cleanup(func() { newClient = orig })

	m, err := NewMQTT(options.NewMqttOptions(), "r1", inboundSize)
	if err != nil {
		t.Fatal(err)
	}
	return m, fake
}

func TestNewMQTTConfiguresWill(t *testing.T) {
	m, fake := newFakeMQTT(t, 1)

	if fake.cfg.ClientID != "rover-r1" {
		t.Errorf("ClientID = %q", fake.cfg.ClientID)
	}
	if fake.cfg.WillTopic != "rover/v1/online/r1" || !fake.cfg.WillRetain || fake.cfg.WillQoS != 1 {
		t.Errorf("unexpected will: topic=%q retain=%v qos=%d", fake.cfg.WillTopic, fake.cfg.WillRetain, fake.cfg.WillQoS)
	}
	var will Presence
	if err := json.Unmarshal(fake.cfg.WillPayload, &will); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Presence{RobotID: "r1"}, will); diff != "" {
		t.Errorf("will payload mismatch (-want +got):\n%s", diff)
	}
	if fake.cfg.OnConnectionUp == nil {
		t.Fatal("OnConnectionUp not set")
	}
	if m.bootID == "" {
		t.Error("boot id not generated")
	}
}

func TestMQTTAnnouncesOnConnect(t *testing.T) {
	m, fake := newFakeMQTT(t, 1)
	fake.connected.Store(true)
	fake.cfg.OnConnectionUp()

	msgs := fake.messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	var p Presence
	if err := json.Unmarshal([]byte(msgs[0].Payload), &p); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Presence{RobotID: "r1", Online: true, BootID: m.bootID}, p); diff != "" {
		t.Errorf("presence mismatch (-want +got):\n%s", diff)
	}
	if msgs[0].Topic != "rover/v1/online/r1" || !msgs[0].Retain {
		t.Errorf("presence published to %q retain=%v", msgs[0].Topic, msgs[0].Retain)
	}
}

func TestMQTTRoutesIntentsAndResults(t *testing.T) {
	m, fake := newFakeMQTT(t, 1)
	fake.connected.Store(true)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Stop)

	fake.deliver("rover/v1/intent/r1", `{"intent":"stop"}`)
	fake.deliver("rover/v1/intent/r1", `{"intent":"dropped"}`)
	if got := recv(t, m.Inbound()); got != `{"intent":"stop"}` {
		t.Errorf("inbound = %q", got)
	}
	select {
	case p := <-m.Inbound():
		t.Errorf("overflowing payload delivered: %q", p)
	default:
	}

	if err := m.Send(context.Background(), []byte(`{"action_id":"a1"}`)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "result publish", func() bool { return len(fake.messages()) == 1 })
	want := published{Topic: "rover/v1/result/r1", QoS: 1, Payload: `{"action_id":"a1"}`}
	if diff := cmp.Diff(want, fake.messages()[0]); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestMQTTIgnoresForeignTopics(t *testing.T) {
	m, _ := newFakeMQTT(t, 4)

	for _, tp := range []string{"rover/v1/intent/r2", "rover/v1/result/r1", "rover/v1/intent/r1/x", "other/intent/r1"} {
		m.onIntent(context.Background(), tp, []byte(`{"intent":"stop"}`))
	}
	select {
	case p := <-m.Inbound():
		t.Errorf("payload from foreign topic delivered: %q", p)
	default:
	}

	m.onIntent(context.Background(), "rover/v1/intent/r1", []byte(`{"intent":"stop"}`))
	if got := recv(t, m.Inbound()); got != `{"intent":"stop"}` {
		t.Errorf("inbound = %q", got)
	}
}

func TestMQTTStartToleratesOfflineSubscribe(t *testing.T) {
	m, fake := newFakeMQTT(t, 1)
	fake.subscribeErr = errors.New("not connected")
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(m.Stop)
	if _, ok := fake.handlers["rover/v1/intent/r1"]; !ok {
		t.Error("intent handler not registered")
	}
}

func TestMQTTSendWhileDisconnected(t *testing.T) {
	m, _ := newFakeMQTT(t, 1)
	if err := m.Send(context.Background(), []byte("x")); err != ErrNotConnected {
		t.Errorf("Send() error = %v, want %v", err, ErrNotConnected)
	}
}

func TestMQTTStopPublishesOffline(t *testing.T) {
	m, fake := newFakeMQTT(t, 1)
	fake.connected.Store(true)
	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	msgs := fake.messages()
	if len(msgs) != 1 || msgs[0].Payload != `{"robot_id":"r1","online":false}` || !msgs[0].Retain {
		t.Errorf("unexpected messages on stop: %+v", msgs)
	}
	if !fake.disconnected {
		t.Error("client not disconnected")
	}
}
