package agent

import (
	"errors"
	"fmt"

	"github.com/autopeer-io/rover/internal/rover/actuator"
	"github.com/autopeer-io/rover/internal/rover/core"
	"github.com/autopeer-io/rover/internal/rover/hal"
	"github.com/autopeer-io/rover/internal/rover/transport"
	"github.com/autopeer-io/rover/pkg/options"
)

// Supported link kinds.
const (
	TransportWebSocket = "websocket"
	TransportMQTT      = "mqtt"
)

type Config struct {
	RobotID   string
	Transport string

	MqttOptions      *options.MqttOptions
	WebSocketOptions *options.WebSocketOptions
	MotionOptions    *options.MotionOptions
	ActuatorOptions  *options.ActuatorOptions
}

func (cfg *Config) NewAgent() (*Agent, error) {
	if cfg.RobotID == "" {
		return nil, errors.New("robot id is required")
	}

	board, err := hal.NewBoard(cfg.ActuatorOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open hal board: %w", err)
	}

	link, err := cfg.newTransport()
	if err != nil {
		_ = board.Close()
		return nil, err
	}

	return NewAgent(
		cfg.RobotID,
		actuator.NewController(board, actuator.WiringFromOptions(cfg.ActuatorOptions)),
		link,
		cfg.MotionOptions,
		uint8(cfg.ActuatorOptions.BootDuty),
	), nil
}

func (cfg *Config) newTransport() (core.Transport, error) {
	switch cfg.Transport {
	case TransportWebSocket:
		return transport.NewWebSocket(cfg.WebSocketOptions, cfg.RobotID, cfg.MotionOptions.InboundQueue), nil
	case TransportMQTT:
		link, err := transport.NewMQTT(cfg.MqttOptions, cfg.RobotID, cfg.MotionOptions.InboundQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt transport: %w", err)
		}
		return link, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
