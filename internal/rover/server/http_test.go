package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/internal/rover/agent"
	"github.com/autopeer-io/rover/internal/rover/dispatch"
)

type fakeStatus struct {
	ready bool
	snap  agent.Snapshot
}

func (f *fakeStatus) Snapshot() agent.Snapshot { return f.snap }
func (f *fakeStatus) Ready() bool              { return f.ready }

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, string(body)
}

func TestProbes(t *testing.T) {
	status := &fakeStatus{}
	r := NewRouter(status)

	if code, body := get(t, r, "/healthz"); code != http.StatusOK || body != "ok" {
		t.Errorf("/healthz = %d %q", code, body)
	}
	if code, _ := get(t, r, "/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("/readyz while disconnected = %d, want 503", code)
	}

	status.ready = true
	if code, _ := get(t, r, "/readyz"); code != http.StatusOK {
		t.Errorf("/readyz while connected = %d, want 200", code)
	}
}

func TestStatus(t *testing.T) {
	want := agent.Snapshot{
		RobotID:     "r1",
		Connected:   true,
		Mode:        "forward",
		Duty:        120,
		Lift:        "down",
		Profile:     dispatch.MotionProfile{NormalSpeed: 120, TurnSpeed: 180},
		Calibration: dispatch.Calibration{MsPerMeter: 1000, MsPerDegree: 8},
		Scheduler:   "armed",
	}
	r := NewRouter(&fakeStatus{snap: want})

	code, body := get(t, r, "/status")
	if code != http.StatusOK {
		t.Fatalf("/status = %d", code)
	}
	var got agent.Snapshot
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics(t *testing.T) {
	metrics.SetConnected(true)
	code, body := get(t, NewRouter(&fakeStatus{}), "/metrics")
	if code != http.StatusOK {
		t.Fatalf("/metrics = %d", code)
	}
	if !strings.Contains(body, "rover_transport_connected 1") {
		t.Errorf("metrics output lacks the connection gauge:\n%s", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(&fakeStatus{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /status = %d, want 405", rec.Code)
	}
}
