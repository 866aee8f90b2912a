package dispatch

import (
	"context"
	"time"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/internal/rover/actuator"
	"github.com/autopeer-io/rover/internal/rover/intent"
	"github.com/autopeer-io/rover/internal/rover/report"
	"github.com/autopeer-io/rover/pkg/log"
)

// Actuator is the part of the actuator driver the dispatcher commands.
type Actuator interface {
	SetMotion(mode actuator.Mode, duty uint8)
	Stop()
	SetLift(pos actuator.LiftPosition)
	Mode() actuator.Mode
	InMotion() bool
	Reapply(duty uint8)
}

// Scheduler owns the completion of timed actions.
type Scheduler interface {
	Arm(ctx context.Context, d time.Duration, intent, actionID string)
	Cancel(ctx context.Context)
}

// Reporter emits immediate results.
type Reporter interface {
	Send(ctx context.Context, res *report.Result)
}

// Outcome describes what one dispatch did.
type Outcome struct {
	Kind intent.Kind

	// Deferred is set when the scheduler was armed and owns the result.
	Deferred bool
	Duration time.Duration

	// Result is the immediate result, nil when deferred.
	Result *report.Result
}

// Dispatcher maps decoded commands onto the actuator and the scheduler.
// It never blocks and is not safe for concurrent use.
type Dispatcher struct {
	actuator  Actuator
	scheduler Scheduler
	reporter  Reporter
	logger    log.Logger

	profile     MotionProfile
	calibration Calibration
}

func New(act Actuator, sched Scheduler, rep Reporter, profile MotionProfile, cal Calibration) *Dispatcher {
	return &Dispatcher{
		actuator:    act,
		scheduler:   sched,
		reporter:    rep,
		logger:      log.WithName("dispatch"),
		profile:     profile,
		calibration: cal,
	}
}

// Dispatch executes cmd and emits its immediate result, if any.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd intent.Command) Outcome {
	var out Outcome
	switch cmd.Intent {
	case intent.KindForward:
		out = d.drive(ctx, cmd, actuator.Forward)
	case intent.KindBackward:
		out = d.drive(ctx, cmd, actuator.Backward)
	case intent.KindTurnLeft:
		out = d.turn(ctx, cmd, actuator.Left)
	case intent.KindTurnRight:
		out = d.turn(ctx, cmd, actuator.Right)
	case intent.KindStop:
		out = d.stop(ctx, cmd)
	case intent.KindSetSpeed:
		out = d.setSpeed(cmd)
	case intent.KindLiftUp:
		out = d.lift(cmd, actuator.LiftUp)
	case intent.KindLiftDown:
		out = d.lift(cmd, actuator.LiftDown)
	default:
		d.logger.Info("Unknown intent", "intent", cmd.Name, "actionID", cmd.ActionID)
		out = Outcome{Result: report.Failed(cmd.ActionID, report.MessageUnknownIntent)}
	}
	out.Kind = cmd.Intent

	metrics.IntentsTotal.WithLabelValues(cmd.Intent.String(), outcomeLabel(out)).Inc()
	d.reporter.Send(ctx, out.Result)
	return out
}

func (d *Dispatcher) drive(ctx context.Context, cmd intent.Command, mode actuator.Mode) Outcome {
	distance := cmd.Params.Float("distance", 0)
	unit := cmd.Params.String("unit", UnitMeter)
	d.logger.Info("Intent", "intent", cmd.Name, "actionID", cmd.ActionID, "distance", distance, "unit", unit)

	if distance <= 0 {
		d.actuator.Stop()
		return Outcome{Result: report.OK(cmd.ActionID)}
	}

	d.actuator.SetMotion(mode, d.profile.NormalSpeed)
	return d.arm(ctx, cmd, duration(distance, unit, UnitMeter, d.calibration.MsPerMeter))
}

func (d *Dispatcher) turn(ctx context.Context, cmd intent.Command, mode actuator.Mode) Outcome {
	angle := cmd.Params.Float("angle", 0)
	unit := cmd.Params.String("unit", UnitDegree)
	d.logger.Info("Intent", "intent", cmd.Name, "actionID", cmd.ActionID, "angle", angle, "unit", unit)

	if angle <= 0 {
		d.actuator.Stop()
		return Outcome{Result: report.OK(cmd.ActionID)}
	}

	d.actuator.SetMotion(mode, d.profile.TurnSpeed)
	return d.arm(ctx, cmd, duration(angle, unit, UnitDegree, d.calibration.MsPerDegree))
}

// arm hands the action to the scheduler. A duration that truncated to zero
// is completed by the scheduler at once, so the result is never ours.
func (d *Dispatcher) arm(ctx context.Context, cmd intent.Command, dur time.Duration) Outcome {
	d.scheduler.Arm(ctx, dur, cmd.Name, cmd.ActionID)
	return Outcome{Deferred: true, Duration: dur}
}

func (d *Dispatcher) stop(ctx context.Context, cmd intent.Command) Outcome {
	d.logger.Info("Intent", "intent", cmd.Name, "actionID", cmd.ActionID)
	d.actuator.Stop()
	d.scheduler.Cancel(ctx)
	return Outcome{Result: report.OK(cmd.ActionID)}
}

func (d *Dispatcher) setSpeed(cmd intent.Command) Outcome {
	d.profile = ProfileForPWM(cmd.Params.Int("pwm", int(d.profile.NormalSpeed)))

	if d.actuator.InMotion() {
		duty := d.profile.NormalSpeed
		if d.actuator.Mode().IsTurn() {
			duty = d.profile.TurnSpeed
		}
		d.actuator.Reapply(duty)
	}

	d.logger.Info("Intent", "intent", cmd.Name, "actionID", cmd.ActionID,
		"normal", d.profile.NormalSpeed, "turn", d.profile.TurnSpeed)
	return Outcome{Result: report.OK(cmd.ActionID)}
}

func (d *Dispatcher) lift(cmd intent.Command, pos actuator.LiftPosition) Outcome {
	d.logger.Info("Intent", "intent", cmd.Name, "actionID", cmd.ActionID, "position", pos.String())
	d.actuator.SetLift(pos)
	return Outcome{Result: report.OK(cmd.ActionID)}
}

// Profile returns the current motion profile.
func (d *Dispatcher) Profile() MotionProfile { return d.profile }

// Calibration returns the calibration in use.
func (d *Dispatcher) Calibration() Calibration { return d.calibration }

// SetCalibration replaces the calibration for subsequent intents. Armed
// actions keep their deadline.
func (d *Dispatcher) SetCalibration(c Calibration) {
	if c == d.calibration {
		return
	}
	d.logger.Info("Calibration updated", "msPerMeter", c.MsPerMeter, "msPerDegree", c.MsPerDegree)
	d.calibration = c
}

func outcomeLabel(o Outcome) string {
	switch {
	case o.Deferred:
		return "deferred"
	case o.Result != nil && !o.Result.Success:
		return "failed"
	default:
		return "immediate"
	}
}
