package mqtt

import (
	"testing"
	"time"
)

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"rover/v1/intent/r1", "rover/v1/intent/r1", true},
		{"rover/v1/intent/r1", "rover/v1/intent/r2", false},
		{"rover/v1/intent/+", "rover/v1/intent/r2", true},
		{"rover/v1/+/r1", "rover/v1/result/r1", true},
		{"rover/v1/intent/+", "rover/v1/intent/r1/extra", false},
		{"rover/v1/#", "rover/v1/intent/r1", true},
		{"rover/#", "rover", false},
		{"rover/v1/intent/+/x", "rover/v1/intent/r1", false},
	}

	for _, tt := range tests {
		if got := topicsMatch(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicsMatch(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestTopicFilter(t *testing.T) {
	if got := topicFilter("$share/agents/rover/v1/intent/+"); got != "rover/v1/intent/+" {
		t.Errorf("topicFilter() = %q", got)
	}
	if got := topicFilter("rover/v1/intent/+"); got != "rover/v1/intent/+" {
		t.Errorf("topicFilter() = %q", got)
	}
}

func TestNewClientDefaults(t *testing.T) {
	cfg := &ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "rover-1"}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("new client must not report connected")
	}
	if cfg.KeepAlive != 60 || cfg.ConnectTimeout != 5*time.Second || cfg.ReconnectInterval != 2*time.Second {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	for _, cfg := range []*ClientConfig{
		nil,
		{},
		{BrokerURL: "localhost"},
		{BrokerURL: "tcp://localhost:1883", WillTopic: "x", WillQoS: 3},
	} {
		if _, err := NewClient(cfg); err == nil {
			t.Errorf("NewClient(%+v) expected error", cfg)
		}
	}
}

func TestWillMessage(t *testing.T) {
	c := &pahoClient{cfg: &ClientConfig{}}
	if c.willMessage() != nil {
		t.Fatal("expected no will without a topic")
	}

	c.cfg = &ClientConfig{WillTopic: "rover/v1/online/r1", WillPayload: []byte(`{"online":false}`), WillQoS: 1, WillRetain: true}
	w := c.willMessage()
	if w == nil || w.Topic != "rover/v1/online/r1" || w.QoS != 1 || !w.Retain {
		t.Fatalf("unexpected will: %+v", w)
	}
}
