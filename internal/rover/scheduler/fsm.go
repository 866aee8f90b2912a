package scheduler

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/rover/internal/pkg/util/fsm"
)

const (
	StateIdle  = "idle"
	StateArmed = "armed"
)

const (
	// EventArm records a new pending action, replacing any previous one.
	EventArm = "arm"
	// EventExpire fires when the pending deadline has passed.
	EventExpire = "expire"
	// EventCancel drops the pending action without a result.
	EventCancel = "cancel"
)

func (s *Scheduler) newFSM() *fsm.FSM {
	events := fsm.Events{
		{Name: EventArm, Src: []string{StateIdle, StateArmed}, Dst: StateArmed},
		{Name: EventExpire, Src: []string{StateArmed}, Dst: StateIdle},
		{Name: EventCancel, Src: []string{StateIdle, StateArmed}, Dst: StateIdle},
	}

	callbacks := fsm.Callbacks{
		"before_" + EventArm:    fsmutil.WrapEvent(s.beforeArm),
		"before_" + EventExpire: fsmutil.WrapEvent(s.clearPending),
		"before_" + EventCancel: fsmutil.WrapEvent(s.beforeCancel),

		"enter_state": func(_ context.Context, e *fsm.Event) {
			s.logger.Debug("Scheduler transition", "event", e.Event, "from", e.Src, "to", e.Dst)
		},
	}

	return fsm.NewFSM(StateIdle, events, callbacks)
}

// beforeArm stores the action passed as the first event argument.
func (s *Scheduler) beforeArm(_ context.Context, e *fsm.Event) error {
	next := e.Args[0].(*PendingAction)
	if prev := s.pending; prev != nil {
		metrics.SchedulerEventsTotal.WithLabelValues("preempt").Inc()
		s.logger.Info("Pending action superseded", "intent", prev.Intent, "actionID", prev.ActionID,
			"byIntent", next.Intent, "byActionID", next.ActionID)
	}
	s.pending = next
	metrics.SchedulerEventsTotal.WithLabelValues(EventArm).Inc()
	return nil
}

func (s *Scheduler) beforeCancel(ctx context.Context, e *fsm.Event) error {
	if s.pending != nil {
		metrics.SchedulerEventsTotal.WithLabelValues(EventCancel).Inc()
		s.logger.Info("Pending action cancelled", "intent", s.pending.Intent, "actionID", s.pending.ActionID)
	}
	return s.clearPending(ctx, e)
}

func (s *Scheduler) clearPending(_ context.Context, _ *fsm.Event) error {
	s.pending = nil
	return nil
}
