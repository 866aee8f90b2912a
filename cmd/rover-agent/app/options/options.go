package options

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/rover/internal/rover/agent"
	"github.com/autopeer-io/rover/pkg/app"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/options"
)

type AgentOptions struct {
	// RobotID identifies the robot on the control server. Defaults to the hostname.
	RobotID string `json:"robot-id" mapstructure:"robot-id"`

	// Transport is "websocket" or "mqtt".
	Transport string `json:"transport" mapstructure:"transport"`

	WebSocketOptions *options.WebSocketOptions `json:"ws" mapstructure:"ws"`
	MqttOptions      *options.MqttOptions      `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions      *options.HttpOptions      `json:"http" mapstructure:"http"`
	MotionOptions    *options.MotionOptions    `json:"motion" mapstructure:"motion"`
	ActuatorOptions  *options.ActuatorOptions  `json:"actuator" mapstructure:"actuator"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*AgentOptions)(nil)

func NewAgentOptions() *AgentOptions {
	o := &AgentOptions{
		Transport:        agent.TransportWebSocket,
		WebSocketOptions: options.NewWebSocketOptions(),
		MqttOptions:      options.NewMqttOptions(),
		HttpOptions:      options.NewHttpOptions(),
		MotionOptions:    options.NewMotionOptions(),
		ActuatorOptions:  options.NewActuatorOptions(),
		Log:              log.NewOptions(),
	}

	return o
}

func (o *AgentOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.addGenericFlags(fss.FlagSet("generic"))
	o.WebSocketOptions.AddFlags(fss.FlagSet("websocket"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.MotionOptions.AddFlags(fss.FlagSet("motion"))
	o.ActuatorOptions.AddFlags(fss.FlagSet("actuator"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *AgentOptions) addGenericFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.RobotID, "robot-id", o.RobotID, "Robot identifier used in the link path and topics (defaults to the hostname).")
	fs.StringVar(&o.Transport, "transport", o.Transport, "Link to the control server: 'websocket' or 'mqtt'.")
}

func (o *AgentOptions) Complete() error {
	if o.RobotID != "" {
		return nil
	}
	host, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("robot-id not set and hostname unavailable: %w", err)
	}
	o.RobotID = host
	return nil
}

func (o *AgentOptions) Validate() error {
	errs := []error{}
	if o.RobotID == "" {
		errs = append(errs, fmt.Errorf("robot-id is required"))
	}
	switch o.Transport {
	case agent.TransportWebSocket:
		errs = append(errs, o.WebSocketOptions.Validate()...)
	case agent.TransportMQTT:
		errs = append(errs, o.MqttOptions.Validate()...)
	default:
		errs = append(errs, fmt.Errorf("transport must be %q or %q, got %q", agent.TransportWebSocket, agent.TransportMQTT, o.Transport))
	}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MotionOptions.Validate()...)
	errs = append(errs, o.ActuatorOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *AgentOptions) Config() (*agent.Config, error) {
	return &agent.Config{
		RobotID:          o.RobotID,
		Transport:        o.Transport,
		MqttOptions:      o.MqttOptions,
		WebSocketOptions: o.WebSocketOptions,
		MotionOptions:    o.MotionOptions,
		ActuatorOptions:  o.ActuatorOptions,
	}, nil
}
