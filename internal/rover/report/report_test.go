package report

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
)

type recordingSender struct {
	frames [][]byte
	err    error
}

func (s *recordingSender) Send(_ context.Context, payload []byte) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, payload)
	return nil
}

func TestReportSerialises(t *testing.T) {
	s := &recordingSender{}
	r := New(s)

	r.Report(context.Background(), "a1", true, MessageOK)
	r.Report(context.Background(), "a3", false, MessageUnknownIntent)

	want := []string{
		`{"action_id":"a1","success":true,"message":"OK"}`,
		`{"action_id":"a3","success":false,"message":"unknown_intent"}`,
	}
	if len(s.frames) != len(want) {
		t.Fatalf("sent %d frames, want %d", len(s.frames), len(want))
	}
	for i, w := range want {
		if string(s.frames[i]) != w {
			t.Errorf("frame %d = %s, want %s", i, s.frames[i], w)
		}
	}
}

func TestReportSkipsEmptyActionID(t *testing.T) {
	s := &recordingSender{}
	r := New(s)

	r.Report(context.Background(), "", true, MessageOK)
	r.Report(context.Background(), "", false, MessageUnknownIntent)
	r.Send(context.Background(), nil)

	if len(s.frames) != 0 {
		t.Fatalf("sent %d frames, want none", len(s.frames))
	}
}

func TestReportSendFailureIsCounted(t *testing.T) {
	s := &recordingSender{err: errors.New("link down")}
	r := New(s)

	before := testutil.ToFloat64(metrics.ResultSendErrorsTotal)
	r.Send(context.Background(), OK("a9"))
	if after := testutil.ToFloat64(metrics.ResultSendErrorsTotal); after-before != 1 {
		t.Errorf("send errors = %v, want +1", after-before)
	}
}

func TestResultConstructors(t *testing.T) {
	if r := OK("x"); !r.Success || r.Message != MessageOK || r.ActionID != "x" {
		t.Errorf("OK() = %+v", r)
	}
	if r := Failed("y", MessageUnknownIntent); r.Success || r.Message != MessageUnknownIntent {
		t.Errorf("Failed() = %+v", r)
	}
}
