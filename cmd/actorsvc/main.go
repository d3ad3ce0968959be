// Command actorsvc is a small demonstration node for the actor runtime: it
// spawns a handful of actors exercising selective receive, synchronous
// Ask, and link/trap-exit supervision, then starts the external
// collaborators (scheduler, registry, replycache, transport, nsqbus,
// audit) needed to also serve remote traffic from other nodes.
package main

import (
	"context"
	"encoding/gob"
	"flag"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/phuhao00/actormesh/actor"
	"github.com/phuhao00/actormesh/actor/pond"
	"github.com/phuhao00/actormesh/audit"
	"github.com/phuhao00/actormesh/config"
	"github.com/phuhao00/actormesh/idgen"
	"github.com/phuhao00/actormesh/registry"
	"github.com/phuhao00/actormesh/remote"
	"github.com/phuhao00/actormesh/replycache"
	"github.com/phuhao00/actormesh/runtime"
	"github.com/phuhao00/actormesh/transport/nsqbus"
	"github.com/phuhao00/actormesh/transport/tcprpc"
)

func main() {
	demoOnly := flag.Bool("demo-only", false, "run the in-process actor demo and exit, skipping external collaborators")
	flag.Parse()

	runDemo()

	if *demoOnly {
		return
	}

	cfg := config.Get()
	idgen.SetDefaultNode(cfg.Node.ID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := pond.New(cfg.Scheduler.Workers)
	defer sched.StopAndWait()

	host, addr, err := splitHostPort(cfg.Node.RPCAddr)
	if err != nil {
		log.Fatalf("actorsvc: node.rpc_addr: %v", err)
	}

	dir, err := registry.New(cfg.Consul, registry.Location{
		NodeName: cfg.Node.Name,
		Address:  host,
		Port:     addr,
	})
	if err != nil {
		log.Fatalf("actorsvc: registry: %v", err)
	}

	cache, err := replycache.New(cfg.Redis)
	if err != nil {
		log.Fatalf("actorsvc: replycache: %v", err)
	}

	bus, err := nsqbus.New(cfg.NSQ)
	if err != nil {
		log.Fatalf("actorsvc: nsqbus: %v", err)
	}

	tr := tcprpc.New(0)
	if cfg.Node.RPCAddr != "" {
		if err := tr.Listen(cfg.Node.RPCAddr); err != nil {
			log.Fatalf("actorsvc: transport listen: %v", err)
		}
	}

	sink, err := audit.New(cfg.Mongo)
	if err != nil {
		log.Fatalf("actorsvc: audit: %v", err)
	}

	runtimeHost := runtime.NewHost(dir, cache, bus, sink)
	if err := runtimeHost.Start(ctx); err != nil {
		log.Fatalf("actorsvc: start: %v", err)
	}
	defer runtimeHost.Stop(context.Background())

	if err := remote.RouteExits(bus, cfg.NSQ.NSQDAddr, cfg.NSQ.NSQLookupdHTTPAddresses); err != nil {
		log.Fatalf("actorsvc: subscribe exits: %v", err)
	}

	link := remote.New(dir, tr, cache, cfg.Node.RPCAddr)
	audited := auditAdapter{sink: sink, node: cfg.Node.Name}

	echo := actor.Spawn(func(ctx *actor.Context) { echoLoop(ctx.Self()) },
		actor.WithExitBus(bus),
		actor.WithAuditSink(audited),
	)
	if err := dir.Register(echo.ID().String()); err != nil {
		log.Printf("actorsvc: register echo actor: %v", err)
	}
	defer dir.Deregister(echo.ID().String())

	log.Printf("actorsvc: node %q ready, serving on %s", cfg.Node.Name, cfg.Node.RPCAddr)
	if err := tr.Serve(ctx, link.Serve(ctx)); err != nil {
		log.Printf("actorsvc: transport serve ended: %v", err)
	}
}

// splitHostPort parses a "host:port" rpc_addr into its parts, returning the
// port as an int the way registry.Location (and Consul's service catalog)
// wants it rather than as part of the address string.
func splitHostPort(rpcAddr string) (host string, port int, err error) {
	if rpcAddr == "" {
		return "", 0, nil
	}
	h, p, err := net.SplitHostPort(rpcAddr)
	if err != nil {
		return "", 0, fmt.Errorf("split %q: %w", rpcAddr, err)
	}
	portNum, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("port %q: %w", p, err)
	}
	return h, portNum, nil
}

// auditAdapter binds audit.Sink's node-qualified RecordExit to the
// narrower actor.AuditSink interface Actor.exit calls.
type auditAdapter struct {
	sink *audit.Sink
	node string
}

func (a auditAdapter) RecordExit(ctx context.Context, actorID, reason string) error {
	return a.sink.RecordExit(ctx, a.node, actorID, reason)
}

type pingMsg struct{ n int }
type pongMsg struct{ n int }

// echoMsg is exchanged over remote.Link, so unlike pingMsg/pongMsg (which
// never leave the process) it must be gob-registered for the generic
// interface{} encode/decode remote.Link uses.
type echoMsg struct{ Text string }

func init() {
	gob.Register(echoMsg{})
}

// runDemo spawns a tiny ping/pong pair plus a linked supervisor, showing
// the dual execution model and trap-exit cascading without needing any
// external service running.
func runDemo() {
	ponger := actor.Spawn(func(ctx *actor.Context) {
		pongLoop(ctx.Self())
	})

	pinger := actor.Spawn(func(ctx *actor.Context) {
		self := ctx.Self()
		for i := 0; i < 3; i++ {
			reply, err := ponger.Ask(self, pingMsg{n: i})
			if err != nil {
				self.Exit(fmt.Sprintf("ask failed: %v", err))
				return
			}
			log.Printf("actorsvc demo: pinger got %#v", reply)
		}
		self.Exit("normal")
	})

	supervisor := actor.Spawn(func(ctx *actor.Context) {
		ctx.Self().TrapExit(true)
		supervisorLoop(ctx.Self())
	})
	actor.Link(supervisor, pinger)

	<-pinger.Done()
	time.Sleep(50 * time.Millisecond)
}

// pongLoop re-reacts after every ping, which is how a React-driven actor
// stays alive across more than one message: React never returns to its
// caller, so "looping" means the handler itself calls back in rather than
// relying on an enclosing for loop.
func pongLoop(self *actor.Actor) {
	self.React(
		actor.OnType[pingMsg](func(ctx *actor.Context, p pingMsg) error {
			ctx.Reply(pongMsg{n: p.n})
			pongLoop(self)
			return nil
		}),
	)
}

func supervisorLoop(self *actor.Actor) {
	self.React(
		actor.OnExit(func(ctx *actor.Context, e actor.Exit) error {
			log.Printf("actorsvc demo: supervisor saw %s exit (%s)", e.From, e.Reason)
			supervisorLoop(self)
			return nil
		}),
	)
}

// echoLoop answers any remote Tell/Ask addressed to it with the same
// body it was sent, giving a peer node's remote.Link something concrete
// to exercise cross-node Tell/Ask against (spec.md §8 scenario S7).
func echoLoop(self *actor.Actor) {
	self.React(
		actor.OnType[echoMsg](func(ctx *actor.Context, m echoMsg) error {
			ctx.Reply(m)
			echoLoop(self)
			return nil
		}),
	)
}
