package actor

import (
	"context"
	"log"
	"sync"
)

// RemoteLink is how a proxy Actor created by NewRemoteProxy turns a
// local Send/Tell/Ask — or the eventual Reply to a message delivered
// inbound by DeliverRemote — into network traffic. spec.md keeps the
// transport layer itself out of the core's scope; this is the one
// interface the core depends on to reach it. The remote package
// implements it over registry, transport and replycache.
type RemoteLink interface {
	// Send routes one message to the actor "to" on behalf of "from"
	// (the empty ID if the sender has no local identity). session is
	// non-empty for an Ask this call is either issuing (isReply false)
	// or answering (isReply true).
	Send(ctx context.Context, to, from ID, session SessionID, isReply bool, body any) error
}

// NewRemoteProxy returns a local Actor handle standing in for an actor
// hosted on another node: Send/Tell/Ask on it forward through link
// instead of the in-process mailbox handoff, and it is registered under
// id so Lookup(id) resolves it exactly like any other actor — the
// single local reference Link needs to treat a remote peer uniformly
// with a local one.
func NewRemoteProxy(id ID, link RemoteLink) *Actor {
	a := &Actor{
		id:        id,
		mailbox:   NewMessageQueue(),
		links:     make(map[ID]struct{}),
		scheduler: DefaultScheduler,
		timer:     SystemTimer,
		done:      make(chan struct{}),
		remote:    link,
	}
	a.cond = sync.NewCond(&a.mu)
	register(a)
	return a
}

// DeliverReply hands a the answer to one of its own outstanding Ask
// calls, received off a RemoteLink and correlated by session. Called by
// remote wiring (see the remote package's Link.Serve) for an inbound
// Envelope marked as a reply.
func (a *Actor) DeliverReply(from ID, session SessionID, body any) {
	a.deliverMessage(Message{Body: body, From: from, tag: session})
}

// DeliverRemote enqueues a fresh Tell or Ask that arrived over link on
// behalf of a remote sender. If session is non-empty, the eventual
// Context.Reply is routed back out through link instead of a local
// ReplyChannel; otherwise Reply is a no-op, matching a fire-and-forget
// Send. Context.Sender() resolves to a proxy representing the remote
// sender, created on demand if this node has no existing handle for it.
func (a *Actor) DeliverRemote(from ID, body any, link RemoteLink, session SessionID) {
	var rt replyTarget
	if from != "" {
		rt = &remoteSender{link: link, fromID: from, session: session, awaits: session != ""}
	}
	a.deliverMessage(Message{Body: body, From: from, reply: rt})
}

// NotifyRemoteExit forces the same link/trap-exit cascade a local exit
// would run, for a proxy Actor that has just learned (via nsqbus — see
// remote.RouteExits) that the actor it represents terminated on its
// home node. This is the one piece of the link protocol (spec.md §4.5)
// a single process's in-memory registry cannot deliver on its own: a
// trap-exit actor linked to the proxy observes the remote death exactly
// as it would a local peer's.
func (a *Actor) NotifyRemoteExit(reason string) {
	a.exit(reason)
}

// remoteSender is the replyTarget used for a message DeliverRemote
// handed to a local actor on behalf of a remote caller.
type remoteSender struct {
	link    RemoteLink
	fromID  ID
	session SessionID
	awaits  bool
}

func (r *remoteSender) deliver(from ID, body any) {
	if !r.awaits {
		return
	}
	if err := r.link.Send(context.Background(), r.fromID, from, r.session, true, body); err != nil {
		log.Printf("actor: remote reply to %s failed: %v", r.fromID, err)
	}
}

func (r *remoteSender) ownerActor() *Actor {
	if a, ok := Lookup(r.fromID); ok {
		return a
	}
	return NewRemoteProxy(r.fromID, r.link)
}
