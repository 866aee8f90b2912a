package options

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/rover/internal/rover/agent"
)

func TestDefaultsValidate(t *testing.T) {
	o := NewAgentOptions()
	o.RobotID = "r1"
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestCompleteDefaultsRobotID(t *testing.T) {
	o := NewAgentOptions()
	if err := o.Complete(); err != nil {
		t.Fatal(err)
	}
	if o.RobotID == "" {
		t.Error("RobotID still empty after Complete")
	}

	o.RobotID = "explicit"
	if err := o.Complete(); err != nil || o.RobotID != "explicit" {
		t.Errorf("Complete() overwrote RobotID: %q, %v", o.RobotID, err)
	}
}

func TestValidateAggregates(t *testing.T) {
	o := NewAgentOptions()
	o.Transport = "serial"
	o.MotionOptions.MsPerMeter = 0
	o.ActuatorOptions.ChannelB = o.ActuatorOptions.ChannelA

	err := o.Validate()
	if err == nil {
		t.Fatal("Validate() = nil")
	}
	for _, want := range []string{"robot-id", "transport", "motion.ms-per-meter", "channel-a"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q lacks %q", err, want)
		}
	}
}

func TestValidateOnlySelectedTransport(t *testing.T) {
	o := NewAgentOptions()
	o.RobotID = "r1"
	o.MqttOptions.Broker = ""
	if err := o.Validate(); err != nil {
		t.Errorf("mqtt options validated for websocket transport: %v", err)
	}

	o.Transport = agent.TransportMQTT
	if err := o.Validate(); err == nil || !strings.Contains(err.Error(), "mqtt.broker") {
		t.Errorf("Validate() = %v, want mqtt.broker error", err)
	}
}

func TestFlags(t *testing.T) {
	o := NewAgentOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for _, f := range o.Flags().FlagSets {
		fs.AddFlagSet(f)
	}

	err := fs.Parse([]string{
		"--robot-id=r9",
		"--transport=mqtt",
		"--ws.host=control.local",
		"--motion.ms-per-degree=9.5",
		"--actuator.backend=sysfs",
	})
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := o.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RobotID != "r9" || cfg.Transport != agent.TransportMQTT {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.WebSocketOptions.Host != "control.local" || cfg.MotionOptions.MsPerDegree != 9.5 || cfg.ActuatorOptions.Backend != "sysfs" {
		t.Errorf("flags not applied: ws=%+v motion=%+v actuator=%s", cfg.WebSocketOptions, cfg.MotionOptions, cfg.ActuatorOptions.Backend)
	}
}
