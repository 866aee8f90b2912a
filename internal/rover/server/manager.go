package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/rover/internal/rover/agent"
	"github.com/autopeer-io/rover/pkg/log"
	"github.com/autopeer-io/rover/pkg/options"
)

// Server is one long-running component of the process.
type Server interface {
	Start(ctx context.Context) error
}

// ServerFunc adapts a function to Server.
type ServerFunc func(ctx context.Context) error

func (f ServerFunc) Start(ctx context.Context) error { return f(ctx) }

// Manager runs the agent and its side servers; the first failure stops all.
type Manager struct {
	servers []Server
}

// NewManager wires the control loop and, when enabled, the status server.
func NewManager(httpOpts *options.HttpOptions, a *agent.Agent) *Manager {
	servers := []Server{ServerFunc(a.Run)}
	if httpOpts != nil && httpOpts.Enabled {
		servers = append(servers, NewHTTPServer(httpOpts, a))
	}
	return NewManagerFor(servers...)
}

func NewManagerFor(servers ...Server) *Manager {
	return &Manager{servers: servers}
}

// Start launches all servers in parallel and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
