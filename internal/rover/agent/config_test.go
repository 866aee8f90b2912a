package agent

import (
	"strings"
	"testing"

	"github.com/autopeer-io/rover/internal/rover/transport"
	"github.com/autopeer-io/rover/pkg/options"
)

func newConfig() *Config {
	return &Config{
		RobotID:          "r1",
		Transport:        TransportWebSocket,
		MqttOptions:      options.NewMqttOptions(),
		WebSocketOptions: options.NewWebSocketOptions(),
		MotionOptions:    options.NewMotionOptions(),
		ActuatorOptions:  options.NewActuatorOptions(),
	}
}

func TestConfigNewAgent(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "websocket"},
		{name: "mqtt", mutate: func(c *Config) { c.Transport = TransportMQTT }},
		{name: "missing robot id", mutate: func(c *Config) { c.RobotID = "" }, wantErr: "robot id"},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "carrier-pigeon" }, wantErr: "unknown transport"},
		{name: "unknown backend", mutate: func(c *Config) { c.ActuatorOptions.Backend = "spi" }, wantErr: "hal backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			a, err := cfg.NewAgent()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("NewAgent() error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewAgent() error = %v", err)
			}
			if a.robotID != "r1" || a.interval != cfg.MotionOptions.LoopInterval {
				t.Errorf("agent = %+v", a)
			}
		})
	}
}

func TestConfigSelectsTransport(t *testing.T) {
	cfg := newConfig()
	a, err := cfg.NewAgent()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.transport.(*transport.WebSocket); !ok {
		t.Errorf("transport = %T, want *transport.WebSocket", a.transport)
	}

	cfg.Transport = TransportMQTT
	if a, err = cfg.NewAgent(); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.transport.(*transport.MQTT); !ok {
		t.Errorf("transport = %T, want *transport.MQTT", a.transport)
	}
}
