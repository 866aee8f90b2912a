package app

import (
	"fmt"
	"sync/atomic"

	genericapiserver "k8s.io/apiserver/pkg/server"
	"k8s.io/klog/v2"

	"github.com/autopeer-io/rover/cmd/rover-agent/app/options"
	"github.com/autopeer-io/rover/internal/rover/agent"
	"github.com/autopeer-io/rover/internal/rover/dispatch"
	"github.com/autopeer-io/rover/internal/rover/server"
	"github.com/autopeer-io/rover/pkg/app"
	"github.com/autopeer-io/rover/pkg/log"
)

const (
	commandName = "rover-agent"
	commandDesc = `The rover agent runs on the vehicle. It keeps a link to the control
server, turns incoming intents into timed motor actions and reports the
result of every action back on the same link.`
)

func NewApp() *app.App {
	opts := options.NewAgentOptions()
	var running atomic.Pointer[agent.Agent]

	application := app.NewApp(
		commandName,
		"Launch the rover agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithEnvPrefix("ROVER"),
		app.WithConfigReload(newReloadOptions, reload(&running)),
		app.WithCommands(newIntentsCommand()),
		app.WithRunFunc(run(opts, &running)),
	)
	return application
}

func run(opts *options.AgentOptions, running *atomic.Pointer[agent.Agent]) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()
		klog.SetLogger(log.Logr())

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		a, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}
		running.Store(a)

		return server.NewManager(opts.HttpOptions, a).Start(ctx)
	}
}

func newReloadOptions() app.NamedFlagSetOptions {
	return options.NewAgentOptions()
}

// reload pushes a changed motion calibration to the running agent. Other
// options only take effect after a restart.
func reload(running *atomic.Pointer[agent.Agent]) app.ReloadFunc {
	return func(o app.NamedFlagSetOptions) {
		opts, ok := o.(*options.AgentOptions)
		if !ok {
			return
		}
		a := running.Load()
		if a == nil {
			return
		}
		a.UpdateCalibration(dispatch.CalibrationFromOptions(opts.MotionOptions))
	}
}
