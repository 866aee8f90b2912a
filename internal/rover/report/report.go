package report

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/internal/rover/core"
	"github.com/autopeer-io/rover/pkg/log"
)

const (
	MessageOK            = "OK"
	MessageUnknownIntent = "unknown_intent"
)

// Result is the outbound completion message.
type Result struct {
	ActionID string `json:"action_id"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// OK returns a success result for id.
func OK(id string) *Result {
	return &Result{ActionID: id, Success: true, Message: MessageOK}
}

// Failed returns a failure result for id.
func Failed(id, message string) *Result {
	return &Result{ActionID: id, Success: false, Message: message}
}

// Reporter serialises results onto the control link.
type Reporter struct {
	sender core.Sender
	logger log.Logger
}

func New(sender core.Sender) *Reporter {
	return &Reporter{
		sender: sender,
		logger: log.WithName("report"),
	}
}

// Report sends {action_id, success, message}. An empty actionID makes it a
// no-op. Send failures are logged and counted; the result is not retried.
func (r *Reporter) Report(ctx context.Context, actionID string, success bool, message string) {
	r.Send(ctx, &Result{ActionID: actionID, Success: success, Message: message})
}

// Send is Report for an already built result. A nil result is ignored.
func (r *Reporter) Send(ctx context.Context, res *Result) {
	if res == nil {
		return
	}
	if res.ActionID == "" {
		r.logger.Debug("No action_id, skipping result", "success", res.Success, "message", res.Message)
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		r.logger.Error(err, "Failed to encode result", "actionID", res.ActionID)
		return
	}

	metrics.ResultsTotal.WithLabelValues(strconv.FormatBool(res.Success)).Inc()
	if err := r.sender.Send(ctx, payload); err != nil {
		metrics.ResultSendErrorsTotal.Inc()
		r.logger.Error(err, "Failed to send result", "actionID", res.ActionID)
		return
	}
	r.logger.Info("Result sent", "payload", string(payload))
}
