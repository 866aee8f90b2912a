package agent

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/rover/internal/pkg/metrics"
	"github.com/autopeer-io/rover/internal/rover/actuator"
	"github.com/autopeer-io/rover/internal/rover/core"
	"github.com/autopeer-io/rover/internal/rover/dispatch"
	"github.com/autopeer-io/rover/internal/rover/intent"
	"github.com/autopeer-io/rover/internal/rover/report"
	"github.com/autopeer-io/rover/internal/rover/scheduler"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/options"
)

// Snapshot is a read-only view of the agent published after every cycle.
type Snapshot struct {
	RobotID     string                   `json:"robot_id"`
	Connected   bool                     `json:"connected"`
	Mode        string                   `json:"mode"`
	Duty        uint8                    `json:"duty"`
	Lift        string                   `json:"lift"`
	Profile     dispatch.MotionProfile   `json:"profile"`
	Calibration dispatch.Calibration     `json:"calibration"`
	Scheduler   string                   `json:"scheduler"`
	Pending     *scheduler.PendingAction `json:"pending,omitempty"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// Agent owns the control loop. Dispatcher, scheduler and actuator are only
// touched from the goroutine running Run.
type Agent struct {
	robotID  string
	clock    clock.WithTicker
	interval time.Duration
	bootDuty uint8

	transport  core.Transport
	actuator   *actuator.Controller
	scheduler  *scheduler.Scheduler
	dispatcher *dispatch.Dispatcher

	calibration chan dispatch.Calibration
	snapshot    atomic.Pointer[Snapshot]
	logger      log.Logger
}

func NewAgent(robotID string, act *actuator.Controller, link core.Transport, motion *options.MotionOptions, bootDuty uint8) *Agent {
	return newAgent(clock.RealClock{}, robotID, act, link, motion, bootDuty)
}

func newAgent(clk clock.WithTicker, robotID string, act *actuator.Controller, link core.Transport, motion *options.MotionOptions, bootDuty uint8) *Agent {
	rep := report.New(link)
	sched := scheduler.New(clk, act, rep)
	a := &Agent{
		robotID:     robotID,
		clock:       clk,
		interval:    motion.LoopInterval,
		bootDuty:    bootDuty,
		transport:   link,
		actuator:    act,
		scheduler:   sched,
		dispatcher:  dispatch.New(act, sched, rep, dispatch.ProfileFromOptions(motion), dispatch.CalibrationFromOptions(motion)),
		calibration: make(chan dispatch.Calibration, 1),
		logger:      log.WithName("agent").WithValues("robotID", robotID),
	}
	a.snapshot.Store(&Snapshot{RobotID: robotID, Mode: actuator.Idle.String(), Scheduler: scheduler.StateIdle})
	return a
}

// Run boots the actuator, starts the link and runs the control loop until
// ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("Starting rover-agent", "interval", a.interval)

	if err := a.actuator.Setup(a.bootDuty); err != nil {
		_ = a.actuator.Close()
		return fmt.Errorf("failed to set up actuator: %w", err)
	}
	if err := a.transport.Start(ctx); err != nil {
		_ = a.actuator.Close()
		return fmt.Errorf("failed to start transport: %w", err)
	}
	defer a.shutdown()

	a.publish()

	ticker := a.clock.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Agent shutting down...")
			return nil
		case <-ticker.C():
			a.cycle(ctx)
		}
	}
}

// UpdateCalibration hands a new calibration to the loop. Only the latest
// update is kept if the loop has not picked up the previous one.
func (a *Agent) UpdateCalibration(cal dispatch.Calibration) {
	for {
		select {
		case a.calibration <- cal:
			return
		default:
		}
		select {
		case <-a.calibration:
		default:
		}
	}
}

// Snapshot returns the state published by the last cycle.
func (a *Agent) Snapshot() Snapshot {
	return *a.snapshot.Load()
}

// Ready reports whether the link to the control server is up.
func (a *Agent) Ready() bool {
	return a.transport.Connected()
}

func (a *Agent) cycle(ctx context.Context) {
	start := a.clock.Now()

	a.pump(ctx)
	a.applyCalibration()
	a.scheduler.Tick(ctx, a.clock.Now())
	a.publish()

	metrics.LoopCycleSeconds.Observe(a.clock.Since(start).Seconds())
}

// pump dispatches the payloads queued at the start of the cycle, in order.
func (a *Agent) pump(ctx context.Context) {
	inbound := a.transport.Inbound()
	for n := len(inbound); n > 0; n-- {
		a.handle(ctx, <-inbound)
	}
}

func (a *Agent) handle(ctx context.Context, payload []byte) {
	cmd, err := intent.Decode(payload)
	if err != nil {
		reason := intent.Reason(err)
		metrics.DecodeDropsTotal.WithLabelValues(reason).Inc()
		a.logger.Debug("Dropping undecodable message", "reason", reason, "err", err.Error())
		return
	}

	out := a.dispatcher.Dispatch(ctx, cmd)
	a.logger.Debug("Dispatched", "intent", cmd.Name, "actionID", cmd.ActionID,
		"deferred", out.Deferred, "duration", out.Duration)
}

func (a *Agent) applyCalibration() {
	select {
	case cal := <-a.calibration:
		a.dispatcher.SetCalibration(cal)
	default:
	}
}

func (a *Agent) publish() {
	snap := &Snapshot{
		RobotID:     a.robotID,
		Connected:   a.transport.Connected(),
		Mode:        a.actuator.Mode().String(),
		Duty:        a.actuator.Duty(),
		Lift:        a.actuator.Lift().String(),
		Profile:     a.dispatcher.Profile(),
		Calibration: a.dispatcher.Calibration(),
		Scheduler:   a.scheduler.State(),
		UpdatedAt:   a.clock.Now(),
	}
	if p, ok := a.scheduler.Pending(); ok {
		snap.Pending = &p
	}
	a.snapshot.Store(snap)
}

// shutdown leaves the motors idle and closes the link and the board.
func (a *Agent) shutdown() {
	ctx := context.Background()
	a.scheduler.Cancel(ctx)
	a.actuator.Stop()
	a.actuator.SetMotion(actuator.Idle, 0)
	a.transport.Stop()
	if err := a.actuator.Close(); err != nil {
		a.logger.Error(err, "Failed to close board")
	}
	a.publish()
	a.logger.Info("Agent stopped")
}
