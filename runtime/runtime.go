// Package runtime generalizes the teacher's IModule/IServer lifecycle
// interfaces into the collaborators the actor runtime hosts alongside its
// actors: registries, transports, reply caches and audit sinks all start
// and stop the same way a game server's modules did.
package runtime

import (
	"context"
	"fmt"
	"log"

	"github.com/hashicorp/go-multierror"
)

// Module is one named, startable/stoppable collaborator. Compared to the
// teacher's IModule, OnStart/OnStop take a context so long-lived external
// connections (Consul, Redis, Mongo, NSQ, a TCP listener) can be torn down
// with a deadline instead of unconditionally.
type Module interface {
	GetName() string
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
}

// Server is a Module that additionally owns a network-facing listen loop,
// mirroring the teacher's IServer split between generic modules and the
// servers that accept connections.
type Server interface {
	Module
	Serve(ctx context.Context) error
}

// Host starts and stops a fixed set of Modules together, logging each
// transition the way the teacher's server mains logged module start/stop
// one at a time.
type Host struct {
	modules []Module
}

// NewHost builds a Host over modules, started/stopped in the given order
// (and stopped in reverse).
func NewHost(modules ...Module) *Host {
	return &Host{modules: modules}
}

// Start calls OnStart on every module in order, stopping whichever ones
// already started if a later one fails.
func (h *Host) Start(ctx context.Context) error {
	started := make([]Module, 0, len(h.modules))
	for _, m := range h.modules {
		log.Printf("runtime: starting %s", m.GetName())
		if err := m.OnStart(ctx); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				_ = started[i].OnStop(ctx)
			}
			return fmt.Errorf("runtime: start %s: %w", m.GetName(), err)
		}
		started = append(started, m)
	}
	return nil
}

// Stop calls OnStop on every module in reverse start order, collecting
// every error encountered (via go-multierror) rather than stopping at the
// first, so one module's shutdown failure never hides another's.
func (h *Host) Stop(ctx context.Context) error {
	var result *multierror.Error
	for i := len(h.modules) - 1; i >= 0; i-- {
		m := h.modules[i]
		log.Printf("runtime: stopping %s", m.GetName())
		if err := m.OnStop(ctx); err != nil {
			log.Printf("runtime: stop %s: %v", m.GetName(), err)
			result = multierror.Append(result, fmt.Errorf("runtime: stop %s: %w", m.GetName(), err))
		}
	}
	return result.ErrorOrNil()
}
