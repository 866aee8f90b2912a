package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetActuatorMode(t *testing.T) {
	all := []string{"idle", "forward", "stopped"}

	SetActuatorMode("forward", all)
	if got := testutil.ToFloat64(ActuatorMode.WithLabelValues("forward")); got != 1 {
		t.Errorf("forward = %v, want 1", got)
	}
	if got := testutil.ToFloat64(ActuatorMode.WithLabelValues("idle")); got != 0 {
		t.Errorf("idle = %v, want 0", got)
	}

	SetActuatorMode("stopped", all)
	if got := testutil.ToFloat64(ActuatorMode.WithLabelValues("forward")); got != 0 {
		t.Errorf("forward = %v, want 0 after switching", got)
	}
}

func TestSetConnected(t *testing.T) {
	SetConnected(true)
	if got := testutil.ToFloat64(TransportConnected); got != 1 {
		t.Errorf("connected = %v, want 1", got)
	}
	SetConnected(false)
	if got := testutil.ToFloat64(TransportConnected); got != 0 {
		t.Errorf("connected = %v, want 0", got)
	}
}

func TestRegistryGathers(t *testing.T) {
	IntentsTotal.WithLabelValues("tien", "deferred").Inc()
	if _, err := Registry.Gather(); err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
}
