// Package actor implements an event-based actor runtime: a mailbox with
// selective receive, a dual execution model (a goroutine that blocks in
// Receive versus a detached continuation resumed by a Scheduler on React),
// reply/session tracking for synchronous requests, and link/trap-exit
// supervision between actors.
package actor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Mode is an actor's current position in its lifecycle/execution state
// machine.
type Mode int

const (
	// ModeRunning is an actor's body executing synchronously on whatever
	// goroutine is currently driving it (the initial Spawn goroutine, or a
	// resumed continuation running on a Scheduler worker).
	ModeRunning Mode = iota
	// ModeBlockedOnReceive is a goroutine parked in a blocking Receive
	// call, holding its stack, waiting on the mailbox condition variable.
	ModeBlockedOnReceive
	// ModeDetached is an actor with no goroutine currently running it: a
	// React/ReactWithin call captured a continuation and unwound its
	// stack, freeing whatever Scheduler worker was running it. The
	// continuation resumes (via Scheduler.Execute) once a matching
	// message arrives.
	ModeDetached
	// ModeExitingNormal and ModeExitingAbnormal mark an actor that has
	// terminated; no further message will be delivered to it.
	ModeExitingNormal
	ModeExitingAbnormal
)

// continuation is the captured state of a detached React/ReactWithin call:
// the handler set to resume with, and the deadline timer armed for it (if
// any).
type continuation struct {
	handlers   Handlers
	cancelTime func()
}

// detachUnwind is the panic value React/ReactWithin throws to abandon the
// calling goroutine's stack once a continuation has been recorded. It is
// recovered exactly once, by runReaction, which is why every path that
// invokes user code — the initial Spawn body and every continuation
// resumption — runs inside runReaction.
type detachUnwind struct{}

// Actor is one addressable unit of the runtime: a mailbox, a position in
// the execution state machine, and the bookkeeping (links, trap-exit flag,
// outgoing reply channel) the spec's operations need.
type Actor struct {
	id ID

	mu       sync.Mutex
	cond     *sync.Cond
	mailbox  *MessageQueue
	mode     Mode
	cont     continuation
	links    map[ID]struct{}
	trapExit bool

	// shouldExit and pendingReason are the cooperative-cancellation latch
	// spec.md §3 lists as an Actor attribute: notifyExit sets them instead
	// of terminating the actor from a foreign (notifying peer's)
	// goroutine, and blockingReceive/reactWithin check shouldExit at
	// entry — their own next suspension boundary — and exit themselves
	// when it's set, per spec.md §4.3/§4.4 step 1 and §9 Open Question
	// (a).
	shouldExit    bool
	pendingReason string

	exitReason string

	replyChan *ReplyChannel

	scheduler Scheduler
	timer     Timer

	// remote is non-nil only for a proxy Actor (see NewRemoteProxy):
	// deliverMessage forwards through it instead of the in-process
	// mailbox handoff below.
	remote RemoteLink

	// exitBus and auditSink are the optional collaborators exit() calls
	// once the local link cascade has finished: exitBus fans this
	// actor's termination out to remote proxies linked to it (see
	// transport/nsqbus), auditSink records it for later inspection.
	exitBus   ExitBus
	auditSink AuditSink

	done chan struct{}
}

// Option configures an Actor at Spawn time.
type Option func(*Actor)

// WithScheduler overrides the Scheduler a detached actor resumes on.
func WithScheduler(s Scheduler) Option {
	return func(a *Actor) { a.scheduler = s }
}

// WithTimer overrides the Timer used for ReceiveWithin/ReactWithin
// deadlines, primarily for tests that need a fake clock.
func WithTimer(t Timer) Option {
	return func(a *Actor) { a.timer = t }
}

// WithTrapExit enables trap-exit at spawn time, so the first Link
// established by the body never races against the default of cascading
// exits.
func WithTrapExit() Option {
	return func(a *Actor) { a.trapExit = true }
}

// ExitBus fans an actor's termination out to other nodes, for any proxy
// actors elsewhere in the cluster that are linked to it (see
// transport/nsqbus.Bus and remote.RouteExits on the receiving end).
// exit() calls Publish unconditionally once an Option has installed
// one; an actor with no remote linkage simply has nobody subscribing to
// notice.
type ExitBus interface {
	Publish(actorID, reason string) error
}

// WithExitBus installs bus so this actor's termination is published for
// remote linked proxies to observe — the outbound half of the
// cross-node link protocol (spec.md §4.5) that NotifyRemoteExit
// implements on the receiving side.
func WithExitBus(bus ExitBus) Option {
	return func(a *Actor) { a.exitBus = bus }
}

// AuditSink records a termination for later inspection. exit() calls
// RecordExit once the link protocol has finished, so a slow or failing
// audit write never delays notifying linked peers.
type AuditSink interface {
	RecordExit(ctx context.Context, actorID, reason string) error
}

// WithAuditSink installs sink so every exit of this actor is recorded.
func WithAuditSink(sink AuditSink) Option {
	return func(a *Actor) { a.auditSink = sink }
}

// Spawn creates an actor and schedules body to run as its initial reaction.
// body typically ends in a blocking Receive loop (a thread-style actor) or
// a React/ReactWithin call (an event-style actor that detaches between
// messages); either is a valid way to drive an Actor; see spec.md's dual
// execution model.
func Spawn(body func(ctx *Context), opts ...Option) *Actor {
	a := &Actor{
		id:        NewID(),
		mailbox:   NewMessageQueue(),
		links:     make(map[ID]struct{}),
		scheduler: DefaultScheduler,
		timer:     SystemTimer,
		done:      make(chan struct{}),
	}
	a.cond = sync.NewCond(&a.mu)
	for _, opt := range opts {
		opt(a)
	}
	register(a)

	a.scheduleReaction(func() { body(&Context{actor: a}) })
	return a
}

// scheduleReaction submits fn to the actor's Scheduler wrapped in
// runReaction, bracketed by PendReaction/DoneReaction so the Scheduler
// can track outstanding reactions the way spec.md §4.6 describes (used
// by actor/pond to decide when to grow its pool, and generally to know
// when a process is idle enough to shut down).
func (a *Actor) scheduleReaction(fn func()) {
	a.scheduler.PendReaction()
	a.scheduler.Execute(func() {
		defer a.scheduler.DoneReaction()
		runReaction(a, fn)
	})
}

// ID returns the actor's identifier.
func (a *Actor) ID() ID { return a.id }

// Done returns a channel closed once the actor has exited, for callers
// (tests, supervisors outside the link protocol) that want to wait on
// termination without linking.
func (a *Actor) Done() <-chan struct{} { return a.done }

// TrapExit toggles whether Exit links deliver as an Exit message (true) or
// cascade the same abnormal termination to this actor (false, the
// default).
func (a *Actor) TrapExit(on bool) {
	a.mu.Lock()
	a.trapExit = on
	a.mu.Unlock()
}

// runReaction is the single entry point through which user code — the
// initial Spawn body, and every resumed continuation — is invoked. It is
// the one place that recovers detachUnwind, and the one place that turns an
// unrecovered panic into an abnormal exit (a handler's returned non-nil
// error is turned into an exit by runHandler), mirroring how the teacher's ActorProcessor.run loop isolates one actor's
// failure from the rest of the process.
func runReaction(a *Actor, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(detachUnwind); ok {
				return
			}
			log.Printf("actor %s: reaction panicked: %v", a.id, r)
			a.exit(fmt.Sprintf("panic: %v", r))
			return
		}
		// fn returned normally without detaching and without calling
		// Exit: the body is done, so the actor exits normally.
		a.exit(NormalExit.Reason)
	}()
	fn()
}

func (a *Actor) runHandler(h Handler, msg Message) {
	ctx := &Context{actor: a, msg: msg}
	if err := h.Run(ctx); err != nil {
		if ee, ok := err.(*ExitError); ok {
			a.exit(ee.Reason)
			return
		}
		a.exit(err.Error())
	}
}

// matchPredicate builds the mailbox-level Predicate for a handler set
// restricted to session tag (empty for ordinary receive, a specific
// SessionID when only a reply on a particular ReplyChannel will do).
func matchPredicate(handlers Handlers, tag SessionID) Predicate {
	return func(msg Message) bool {
		if msg.tag != tag {
			return false
		}
		if handlers == nil {
			return true
		}
		return handlers.defined(msg.Body)
	}
}

// deliverMessage enqueues msg and, depending on the actor's current mode,
// wakes a blocked receiver or resumes a detached continuation. Per
// spec.md §4.2 step 1, the first thing every delivery does is run the
// scheduler's tick hook, crediting the sender for scheduling fairness
// before anything else happens.
func (a *Actor) deliverMessage(msg Message) {
	a.scheduler.Tick(a)

	if a.remote != nil {
		session := msg.tag
		isReply := session != ""
		if !isReply {
			if rc, ok := msg.reply.(*ReplyChannel); ok && rc != nil {
				session = rc.Session()
			}
		}
		if err := a.remote.Send(context.Background(), a.id, msg.From, session, isReply, msg.Body); err != nil {
			log.Printf("actor %s: remote delivery failed: %v", a.id, err)
		}
		return
	}

	a.mu.Lock()
	if a.mode == ModeExitingNormal || a.mode == ModeExitingAbnormal {
		a.mu.Unlock()
		return
	}
	a.mailbox.Append(msg)

	switch a.mode {
	case ModeBlockedOnReceive:
		a.cond.Broadcast()
	case ModeDetached:
		pred := matchPredicate(a.cont.handlers, "")
		if m, ok := a.mailbox.ExtractFirst(pred); ok {
			h, _ := a.cont.handlers.match(m.Body)
			if a.cont.cancelTime != nil {
				a.cont.cancelTime()
			}
			a.cont = continuation{}
			a.mode = ModeRunning
			a.mu.Unlock()
			a.scheduleReaction(func() { a.runHandler(h, m) })
			return
		}
	}
	a.mu.Unlock()
}

// blockingReceive parks the calling goroutine until a message matching
// handlers (filtered to tag) arrives, or deadline elapses. handlers == nil
// matches any message carrying the given tag, which is how ReplyChannel
// waits for its answer regardless of shape. When the deadline elapses and
// handlers has a TIMEOUT case, it returns a TIMEOUT message for the caller
// to dispatch.
func (a *Actor) blockingReceive(handlers Handlers, tag SessionID, deadline time.Duration) (Message, error) {
	a.scheduler.Tick(a)
	pred := matchPredicate(handlers, tag)

	a.mu.Lock()
	unlocked := false
	unlock := func() {
		if !unlocked {
			unlocked = true
			a.mu.Unlock()
		}
	}
	defer unlock()

	if a.shouldExit {
		reason := a.pendingReason
		unlock()
		a.exit(reason)
		return Message{}, ErrActorStopped
	}

	if m, ok := a.mailbox.ExtractFirst(pred); ok {
		return m, nil
	}

	var timedOut bool
	var cancel func()
	if deadline > 0 {
		cancel = a.timer.After(deadline, func() {
			a.mu.Lock()
			timedOut = true
			a.cond.Broadcast()
			a.mu.Unlock()
		})
		defer cancel()
	}

	prevMode := a.mode
	a.mode = ModeBlockedOnReceive
	for {
		m, ok := a.mailbox.ExtractFirst(pred)
		if ok {
			a.mode = prevMode
			return m, nil
		}
		if a.shouldExit {
			// notifyExit latched an abnormal termination while this
			// goroutine waited and woke it; observe it here rather than
			// looping back into cond.Wait, per spec.md §9(a).
			reason := a.pendingReason
			unlock()
			a.exit(reason)
			return Message{}, ErrActorStopped
		}
		if a.mode != ModeBlockedOnReceive {
			// A concurrent exit() force-terminated the actor some other
			// way while this goroutine waited; stop waiting rather than
			// clobber the exiting mode back to prevMode on the way out.
			return Message{}, ErrActorStopped
		}
		if timedOut {
			a.mode = prevMode
			if handlers != nil {
				if _, ok := handlers.match(TIMEOUT); ok {
					return Message{Body: TIMEOUT}, nil
				}
				return Message{}, ErrUnhandledTimeout
			}
			return Message{}, ErrAskTimeout
		}
		a.cond.Wait()
	}
}

// Receive blocks the calling goroutine until a message matching one of
// handlers arrives, runs that handler, and returns its error. Intended for
// actors driven by a dedicated goroutine rather than Scheduler reactions —
// the "blocking" half of the dual execution model.
func (a *Actor) Receive(handlers ...Handler) error {
	return a.ReceiveWithin(0, handlers...)
}

// ReceiveWithin is Receive with a deadline; if it elapses with no match, the
// TIMEOUT case in handlers runs if present, otherwise ErrUnhandledTimeout is
// returned.
func (a *Actor) ReceiveWithin(d time.Duration, handlers ...Handler) error {
	hs := Handlers(handlers)
	if hs == nil {
		// An empty handler set matches nothing; a nil one would make
		// blockingReceive accept any message.
		hs = Handlers{}
	}
	msg, err := a.blockingReceive(hs, "", d)
	if err != nil {
		return err
	}
	h, _ := hs.match(msg.Body)
	ctx := &Context{actor: a, msg: msg}
	return h.Run(ctx)
}

// React never returns: it either schedules an already-queued matching
// message's handler to run on a fresh reaction and abandons the calling
// stack, or — if no message matches yet — records handlers as the actor's
// continuation and abandons the stack so the Scheduler worker is freed
// until a matching message arrives. This is the "detached" half of the dual
// execution model; callers write it as the last statement of a reaction,
// exactly like a tail call, since nothing after it ever executes on this
// invocation.
func (a *Actor) React(handlers ...Handler) {
	a.reactWithin(0, handlers...)
}

// ReactWithin is React with a deadline before TIMEOUT is delivered to
// handlers (or the reaction exits abnormally with ErrUnhandledTimeout if
// handlers has no TIMEOUT case).
func (a *Actor) ReactWithin(d time.Duration, handlers ...Handler) {
	a.reactWithin(d, handlers...)
}

func (a *Actor) reactWithin(d time.Duration, handlers ...Handler) {
	hs := Handlers(handlers)
	pred := matchPredicate(hs, "")

	a.mu.Lock()
	if a.shouldExit {
		// Observed at entry per spec.md §4.4 step 1/§9(a): a latched
		// notifyExit request is this actor's own job to act on, from its
		// own goroutine, not whatever peer set the latch.
		reason := a.pendingReason
		a.mu.Unlock()
		a.exit(reason)
		panic(detachUnwind{})
	}
	if m, ok := a.mailbox.ExtractFirst(pred); ok {
		h, _ := hs.match(m.Body)
		a.mu.Unlock()
		a.scheduleReaction(func() { a.runHandler(h, m) })
		panic(detachUnwind{})
	}

	cont := continuation{handlers: hs}
	if d > 0 {
		cont.cancelTime = a.timer.After(d, func() {
			a.mu.Lock()
			if a.mode != ModeDetached {
				a.mu.Unlock()
				return
			}
			a.cont = continuation{}
			a.mode = ModeRunning
			a.mu.Unlock()

			h, ok := hs.match(TIMEOUT)
			a.scheduleReaction(func() {
				if !ok {
					panic(fmt.Sprintf("%v", ErrUnhandledTimeout))
				}
				a.runHandler(h, Message{Body: TIMEOUT})
			})
		})
	}
	a.cont = cont
	a.mode = ModeDetached
	a.mu.Unlock()
	panic(detachUnwind{})
}

// Send delivers body to a with no expectation of a reply and no recorded
// sender. Safe to call from any goroutine, actor or not.
func (a *Actor) Send(body any) {
	a.deliverMessage(Message{Body: body})
}

// Tell delivers body to a on behalf of from, so handlers can use
// Context.Sender/Context.Reply to answer.
func (a *Actor) Tell(from *Actor, body any) {
	if from == nil {
		a.Send(body)
		return
	}
	// A ReplyChannel with no session id delivers the answer to from's
	// mailbox as an ordinary, untagged message.
	a.deliverMessage(Message{Body: body, From: from.id, reply: &ReplyChannel{owner: from}})
}

// Ask sends body to a on behalf of from and blocks from until a replies
// (via Context.Reply). If a has already exited, Ask returns ErrActorStopped
// without sending. An exit of a while the request is outstanding does not
// end the wait: Ask keeps blocking, and AskWithin returns ErrAskTimeout once
// its deadline passes.
func (a *Actor) Ask(from *Actor, body any) (any, error) {
	return a.AskWithin(from, body, 0)
}

// AskWithin is Ask with a deadline, returning ErrAskTimeout if it elapses.
func (a *Actor) AskWithin(from *Actor, body any, d time.Duration) (any, error) {
	if from == nil {
		return nil, ErrWrongOwner
	}
	a.mu.Lock()
	stopped := a.mode == ModeExitingNormal || a.mode == ModeExitingAbnormal
	a.mu.Unlock()
	if stopped {
		return nil, ErrActorStopped
	}
	rc := from.newOutgoingReplyChannel()
	a.deliverMessage(Message{Body: body, From: from.id, reply: rc})
	return rc.receive(d)
}

func (a *Actor) newOutgoingReplyChannel() *ReplyChannel {
	rc := newReplyChannel(a)
	a.mu.Lock()
	a.replyChan = rc
	a.mu.Unlock()
	return rc
}

// Exit terminates a from within its own reaction with the given reason
// ("normal" for a voluntary, non-cascading stop). It does not return: like
// React, it unwinds the calling stack via panic/recover so control returns
// to runReaction rather than to whatever called Exit.
func (a *Actor) Exit(reason string) {
	a.exit(reason)
	panic(detachUnwind{})
}

// exit performs the actual state transition and link notification; safe to
// call from contexts that don't want the non-local unwind (e.g. runReaction
// itself, on panic recovery).
func (a *Actor) exit(reason string) {
	a.mu.Lock()
	if a.mode == ModeExitingNormal || a.mode == ModeExitingAbnormal {
		a.mu.Unlock()
		return
	}
	if reason == NormalExit.Reason {
		a.mode = ModeExitingNormal
	} else {
		a.mode = ModeExitingAbnormal
	}
	a.exitReason = reason
	a.cond.Broadcast()
	linked := make([]ID, 0, len(a.links))
	for id := range a.links {
		linked = append(linked, id)
	}
	if a.cont.cancelTime != nil {
		a.cont.cancelTime()
	}
	bus := a.exitBus
	sink := a.auditSink
	a.mu.Unlock()

	deregister(a)
	close(a.done)

	for _, id := range linked {
		peer, ok := Lookup(id)
		if !ok {
			continue
		}
		Unlink(a, peer)
		peer.notifyExit(a.id, reason)
	}

	if bus != nil {
		if err := bus.Publish(a.id.String(), reason); err != nil {
			log.Printf("actor %s: publish remote exit: %v", a.id, err)
		}
	}
	if sink != nil {
		if err := sink.RecordExit(context.Background(), a.id.String(), reason); err != nil {
			log.Printf("actor %s: audit record exit: %v", a.id, err)
		}
	}
}

// notifyExit is called on a surviving link peer once the other side of the
// link has terminated. A trap-exit actor receives it as an Exit message.
// Per spec.md, reason == NormalExit.Reason never cascades to an ordinary
// actor. Any other reason is latched as shouldExit/pendingReason instead
// of force-terminating the actor from this, the notifying peer's own
// foreign goroutine: the actor observes the latch and calls exit itself,
// from its own goroutine, at its next suspension boundary. A peer parked
// in blockingReceive is simply woken to notice it. A Detached peer has no
// goroutine of its own to wake, so its continuation is discarded and a
// reaction that performs the exit is submitted in its place. Either way
// exactly one reaction observes a given latch, per spec.md §4.5/§9 Open
// Question (a).
func (a *Actor) notifyExit(from ID, reason string) {
	a.mu.Lock()
	trap := a.trapExit
	dead := a.mode == ModeExitingNormal || a.mode == ModeExitingAbnormal
	if dead {
		a.mu.Unlock()
		return
	}
	if trap {
		a.mu.Unlock()
		a.deliverMessage(Message{Body: Exit{From: from, Reason: reason}})
		return
	}
	if reason == NormalExit.Reason {
		a.mu.Unlock()
		return
	}

	a.shouldExit = true
	a.pendingReason = reason

	switch a.mode {
	case ModeBlockedOnReceive:
		a.cond.Broadcast()
		a.mu.Unlock()
	case ModeDetached:
		if a.cont.cancelTime != nil {
			a.cont.cancelTime()
		}
		a.cont = continuation{}
		a.mode = ModeRunning
		a.mu.Unlock()
		a.scheduleReaction(func() { a.exit(reason) })
	default:
		a.mu.Unlock()
	}
}
