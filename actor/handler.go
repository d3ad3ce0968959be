package actor

// timeoutSignal is the body delivered to a handler set when ReceiveWithin
// or ReactWithin elapses without a match. It is unexported, so outside this
// package its only value is TIMEOUT below, and a handler matches it through
// OnTimeout or a catch-all such as OnAny.
type timeoutSignal struct{}

// TIMEOUT is the sentinel body a Handler can match against to run code on
// elapsed deadlines instead of letting ReceiveWithin/ReactWithin return
// ErrUnhandledTimeout.
var TIMEOUT = timeoutSignal{}

// Context is the facade handed to a Handler's Run function: it exposes the
// message being handled and the selective-receive/link operations the spec
// grants to "self" while reacting to it.
type Context struct {
	actor *Actor
	msg   Message
}

// Self returns the actor this Context belongs to.
func (c *Context) Self() *Actor { return c.actor }

// Sender returns the actor that sent the message under handling, or nil if
// the message carries no reply destination (a plain Send). For a message
// that arrived over a RemoteLink from a named remote sender, it returns a
// proxy for that sender (see DeliverRemote).
func (c *Context) Sender() *Actor {
	if c.msg.reply == nil {
		return nil
	}
	return c.msg.reply.ownerActor()
}

// Reply answers the message under handling on its sender's reply channel.
// It is a no-op, not an error, when the message carries no reply channel —
// matching the spec's treatment of reply() on a fire-and-forget Send as
// harmless rather than fatal, since plenty of handlers reply
// unconditionally regardless of how they were invoked.
func (c *Context) Reply(body any) {
	if c.msg.reply == nil {
		return
	}
	c.msg.reply.deliver(c.actor.id, body)
}

// Forward resends the message under handling to another actor, preserving
// the original sender's reply channel so that actor's eventual Reply still
// reaches the original caller.
func (c *Context) Forward(to *Actor) {
	to.deliverMessage(Message{Body: c.msg.Body, From: c.msg.From, reply: c.msg.reply})
}

// Handler pairs a predicate with the code that runs once that predicate is
// chosen, mirroring one "case" arm of a receive/react block. Match must be
// side-effect free: the mailbox may call it on bodies that ultimately don't
// get handled by it.
type Handler struct {
	Match func(body any) bool
	Run   func(ctx *Context) error
}

// On builds a Handler from an explicit predicate.
func On(match func(body any) bool, run func(ctx *Context) error) Handler {
	return Handler{Match: match, Run: run}
}

// OnAny builds a Handler that accepts every message body, the equivalent of
// a bare "case _ =>" arm. Used as the catch-all tail of a handler set, or
// alone when an actor has no selectivity to express.
func OnAny(run func(ctx *Context) error) Handler {
	return Handler{Match: func(any) bool { return true }, Run: run}
}

// OnTimeout builds the Handler matching the TIMEOUT sentinel.
func OnTimeout(run func(ctx *Context) error) Handler {
	return Handler{
		Match: func(body any) bool { _, ok := body.(timeoutSignal); return ok },
		Run:   run,
	}
}

// OnType builds a Handler that matches bodies of exactly type T, the
// idiomatic Go stand-in for a pattern-matched case class in the languages
// this model originates from.
func OnType[T any](run func(ctx *Context, body T) error) Handler {
	return Handler{
		Match: func(body any) bool { _, ok := body.(T); return ok },
		Run: func(ctx *Context) error {
			return run(ctx, ctx.msg.Body.(T))
		},
	}
}

// Handlers is an ordered handler set, tried top to bottom; the first whose
// Match accepts the body wins, exactly like the first matching case in a
// receive/react block.
type Handlers []Handler

func (hs Handlers) match(body any) (Handler, bool) {
	for _, h := range hs {
		if h.Match(body) {
			return h, true
		}
	}
	return Handler{}, false
}

// defined reports whether body would be accepted by some case in hs,
// without running anything — the pure test the mailbox scan needs before
// committing to a message.
func (hs Handlers) defined(body any) bool {
	_, ok := hs.match(body)
	return ok
}
