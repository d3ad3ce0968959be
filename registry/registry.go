// Package registry is the cross-node actor directory: it lets a node
// advertise which ActorIDs it hosts and look up which node (address:port)
// currently owns a given ActorID, so a Tell/Ask to a remote actor knows
// where to dial. Adapted from the teacher's infra/consul/consulx package,
// generalized from game-service discovery (service name → healthy
// instances) to actor-id → hosting-node lookups.
package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/phuhao00/actormesh/config"
)

// Location is where a remotely addressable actor currently lives.
type Location struct {
	NodeName string
	Address  string
	Port     int
}

// Directory registers and looks up actor locations in Consul.
type Directory struct {
	client *api.Client
	self   Location
}

// New connects a Directory to the Consul agent described by cfg, and
// records self as the location this node will register actors under.
func New(cfg config.ConsulConfig, self Location) (*Directory, error) {
	apiCfg := api.DefaultConfig()
	if cfg.Addr != "" {
		apiCfg.Address = cfg.Addr
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("registry: connect consul: %w", err)
	}
	return &Directory{client: client, self: self}, nil
}

// GetName implements runtime.Module.
func (d *Directory) GetName() string { return "registry" }

// OnStart implements runtime.Module; Consul's API client needs no explicit
// connect step, so this only verifies reachability.
func (d *Directory) OnStart(ctx context.Context) error {
	_, err := d.client.Agent().Self()
	if err != nil {
		return fmt.Errorf("registry: consul agent unreachable: %w", err)
	}
	return nil
}

// OnStop implements runtime.Module; nothing to tear down beyond whatever
// actors this node still has registered, which callers should Deregister
// explicitly as they exit.
func (d *Directory) OnStop(ctx context.Context) error { return nil }

// Register advertises actorID as hosted at this Directory's self location.
// Consul's service catalog is reused as the directory: actorID becomes the
// service ID, tagged with the node name so a lookup can recover both.
func (d *Directory) Register(actorID string) error {
	reg := &api.AgentServiceRegistration{
		ID:      actorID,
		Name:    "actor",
		Address: d.self.Address,
		Port:    d.self.Port,
		Tags:    []string{"node:" + d.self.NodeName},
	}
	if err := d.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("registry: register %s: %w", actorID, err)
	}
	return nil
}

// Deregister removes actorID's advertisement, e.g. once the actor exits.
func (d *Directory) Deregister(actorID string) error {
	if err := d.client.Agent().ServiceDeregister(actorID); err != nil {
		return fmt.Errorf("registry: deregister %s: %w", actorID, err)
	}
	return nil
}

// Lookup resolves actorID to the node currently hosting it.
func (d *Directory) Lookup(actorID string) (Location, bool, error) {
	services, err := d.client.Agent().Services()
	if err != nil {
		return Location{}, false, fmt.Errorf("registry: lookup %s: %w", actorID, err)
	}
	svc, ok := services[actorID]
	if !ok {
		return Location{}, false, nil
	}
	nodeName := ""
	for _, tag := range svc.Tags {
		if len(tag) > 5 && tag[:5] == "node:" {
			nodeName = tag[5:]
		}
	}
	return Location{NodeName: nodeName, Address: svc.Address, Port: svc.Port}, true, nil
}
