package scheduler

import (
	"context"
	"time"

	"github.com/looplab/fsm"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/rover/internal/pkg/util/fsm"
	"github.com/autopeer-io/rover/internal/rover/report"
	"github.com/autopeer-io/rover/pkg/log"
)

// Stopper halts the motors when an action completes.
type Stopper interface {
	Stop()
}

// Reporter emits the completion result of an action.
type Reporter interface {
	Report(ctx context.Context, actionID string, success bool, message string)
}

// PendingAction is the single in-flight timed action.
type PendingAction struct {
	Deadline time.Time `json:"deadline"`
	Intent   string    `json:"intent"`
	ActionID string    `json:"action_id"`
}

// Scheduler holds at most one pending action and completes it once its
// deadline has passed. It is driven by the control loop and is not safe
// for concurrent use.
type Scheduler struct {
	clock    clock.PassiveClock
	actuator Stopper
	reporter Reporter
	logger   log.Logger

	fsm     *fsm.FSM
	pending *PendingAction
}

func New(clk clock.PassiveClock, actuator Stopper, reporter Reporter) *Scheduler {
	s := &Scheduler{
		clock:    clk,
		actuator: actuator,
		reporter: reporter,
		logger:   log.WithName("scheduler"),
	}
	s.fsm = s.newFSM()
	return s
}

// Arm schedules a stop d from now for actionID, replacing any pending action
// without reporting it. A non-positive d drops the pending action, stops the
// actuator and reports success for actionID at once.
func (s *Scheduler) Arm(ctx context.Context, d time.Duration, intent, actionID string) {
	if d <= 0 {
		s.event(ctx, EventCancel)
		s.logger.Info("No auto stop, completing at once", "intent", intent, "actionID", actionID, "duration", d)
		s.actuator.Stop()
		s.reporter.Report(ctx, actionID, true, report.MessageOK)
		return
	}

	p := &PendingAction{
		Deadline: s.clock.Now().Add(d),
		Intent:   intent,
		ActionID: actionID,
	}
	s.event(ctx, EventArm, p)
	s.logger.Info("Stop scheduled", "intent", intent, "actionID", actionID, "duration", d)
}

// Tick completes the pending action if now is at or past its deadline.
// It returns whether an action completed.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) bool {
	p := s.pending
	if p == nil || now.Before(p.Deadline) {
		return false
	}

	s.event(ctx, EventExpire)
	metrics.SchedulerEventsTotal.WithLabelValues("complete").Inc()
	s.logger.Info("Action time reached", "intent", p.Intent, "actionID", p.ActionID,
		"late", now.Sub(p.Deadline))

	s.actuator.Stop()
	s.reporter.Report(ctx, p.ActionID, true, report.MessageOK)
	return true
}

// Cancel drops the pending action without reporting it.
func (s *Scheduler) Cancel(ctx context.Context) {
	s.event(ctx, EventCancel)
}

// Pending returns a copy of the pending action, if any.
func (s *Scheduler) Pending() (PendingAction, bool) {
	if s.pending == nil {
		return PendingAction{}, false
	}
	return *s.pending, true
}

// State is StateIdle or StateArmed.
func (s *Scheduler) State() string {
	return s.fsm.Current()
}

func (s *Scheduler) event(ctx context.Context, event string, args ...any) {
	if err := fsmutil.IgnoreNoTransition(s.fsm.Event(ctx, event, args...)); err != nil {
		s.logger.Error(err, "Scheduler transition failed", "event", event, "state", s.fsm.Current())
	}
}
