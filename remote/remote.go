// Package remote wires registry, replycache and transport together into
// the actor.RemoteLink a proxy actor (actor.NewRemoteProxy) and a
// locally-hosted actor's remote reply target need to actually cross a
// node boundary: registry resolves which node hosts an ActorID,
// transport carries the Envelope, and replycache remembers which node
// an inbound Ask came from so a later Context.Reply can find its way
// back without a second directory lookup.
package remote

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log"
	"time"

	"github.com/phuhao00/actormesh/actor"
	"github.com/phuhao00/actormesh/registry"
	"github.com/phuhao00/actormesh/replycache"
	"github.com/phuhao00/actormesh/transport"
	"github.com/phuhao00/actormesh/transport/nsqbus"
)

func init() {
	// Every concrete type ever carried through a gob-encoded interface
	// value — replycache's Put/Take and this package's envelope
	// Body/ReplyAddr round-trip — must be registered once per process.
	// ReplyAddr is always a plain string; message bodies are registered
	// by whatever package defines them (see cmd/actorsvc).
	gob.Register("")
}

// replyTTL bounds how long replycache remembers an inbound Ask's origin
// node while this process's actor is still working on its answer.
const replyTTL = 30 * time.Second

// Link implements actor.RemoteLink over a registry.Directory, a
// transport.Transport and a replycache.Store.
type Link struct {
	dir      *registry.Directory
	tr       transport.Transport
	cache    *replycache.Store
	selfAddr string
}

// New builds a Link over already-started collaborators. selfAddr is this
// node's own listen address, included on outbound Asks so the answering
// node's replycache entry knows where to send the eventual reply.
func New(dir *registry.Directory, tr transport.Transport, cache *replycache.Store, selfAddr string) *Link {
	return &Link{dir: dir, tr: tr, cache: cache, selfAddr: selfAddr}
}

// Send implements actor.RemoteLink. A reply (isReply true) is routed by
// consulting replycache for the address the original Ask arrived with,
// bypassing registry entirely — the session the reply answers may have
// come from an ephemeral actor.Bind proxy that registry never heard of.
// A fresh Tell/Ask (isReply false) resolves the destination node through
// registry, the way any other addressed message does.
func (l *Link) Send(ctx context.Context, to, from actor.ID, session actor.SessionID, isReply bool, body any) error {
	payload, err := encode(body)
	if err != nil {
		return fmt.Errorf("remote: encode body for %s: %w", to, err)
	}

	env := transport.Envelope{
		To:      to.String(),
		From:    from.String(),
		Session: session.String(),
		Reply:   isReply,
		Body:    payload,
	}

	if isReply {
		addr, ok, err := l.cache.Take(ctx, session.String())
		if err != nil {
			return fmt.Errorf("remote: resolve reply destination for session %s: %w", session, err)
		}
		if !ok {
			return fmt.Errorf("remote: no pending ask remembered for session %s (expired or already answered)", session)
		}
		destAddr, ok := addr.(string)
		if !ok {
			return fmt.Errorf("remote: reply destination for session %s is not a string: %T", session, addr)
		}
		return l.tr.Send(ctx, destAddr, env)
	}

	loc, ok, err := l.dir.Lookup(to.String())
	if err != nil {
		return fmt.Errorf("remote: lookup %s: %w", to, err)
	}
	if !ok {
		return fmt.Errorf("remote: no known node hosts %s", to)
	}
	destAddr := fmt.Sprintf("%s:%d", loc.Address, loc.Port)

	if session != "" {
		env.ReplyAddr = l.selfAddr
	}
	return l.tr.Send(ctx, destAddr, env)
}

// Serve returns the handler to pass to transport.Transport.Serve: it
// routes an inbound Envelope to the local actor it names, resolving
// whether it is a fresh Tell/Ask (DeliverRemote, remembering the origin
// in replycache when one expects a reply) or the answer to an Ask this
// node issued earlier (DeliverReply).
func (l *Link) Serve(ctx context.Context) func(transport.Envelope) {
	return func(env transport.Envelope) {
		target, ok := actor.Lookup(actor.ID(env.To))
		if !ok {
			log.Printf("remote: envelope for unknown local actor %s dropped", env.To)
			return
		}

		body, err := decode(env.Body)
		if err != nil {
			log.Printf("remote: decode envelope for %s: %v", env.To, err)
			return
		}

		if env.Reply {
			target.DeliverReply(actor.ID(env.From), actor.SessionID(env.Session), body)
			return
		}

		if env.Session != "" && env.ReplyAddr != "" {
			if err := l.cache.Put(ctx, env.Session, env.ReplyAddr, replyTTL); err != nil {
				log.Printf("remote: remember reply destination for session %s: %v", env.Session, err)
			}
		}
		target.DeliverRemote(actor.ID(env.From), body, l, actor.SessionID(env.Session))
	}
}

// RouteExits subscribes bus for remote exit notices and forces any local
// proxy actor representing the exited remote actor through
// actor.NotifyRemoteExit, running the same link/trap-exit cascade a
// local exit would — the one piece of the link protocol (spec.md §4.5)
// a single process's in-memory registry can't deliver on its own.
func RouteExits(bus *nsqbus.Bus, nsqdAddr string, lookupdAddrs []string) error {
	return bus.Subscribe(nsqdAddr, lookupdAddrs, func(notice nsqbus.ExitNotice) {
		proxy, ok := actor.Lookup(actor.ID(notice.ActorID))
		if !ok {
			return
		}
		proxy.NotifyRemoteExit(notice.Reason)
	})
}

func encode(body any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (any, error) {
	var body any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}
