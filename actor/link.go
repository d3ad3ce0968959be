package actor

import "sync"

// registry is the process-wide directory from ActorID to live *Actor. Links
// are stored as plain IDs (see Actor.links) rather than *Actor pointers so
// that an actor which has already exited and deregistered itself cannot be
// kept alive just because a peer still remembers having linked to it; the
// lookup through registry simply comes back empty and Exit delivery is
// skipped.
var registry sync.Map // ID -> *Actor

func register(a *Actor) {
	registry.Store(a.id, a)
}

func deregister(a *Actor) {
	registry.Delete(a.id)
}

// Lookup returns the live actor for id, if one is currently registered.
func Lookup(id ID) (*Actor, bool) {
	v, ok := registry.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Actor), true
}

// Exit is the message delivered to a linked actor's mailbox when its peer
// terminates, for any reason including "normal", and that actor has
// TrapExit enabled. An actor without TrapExit instead has an abnormal
// reason propagated to itself as its own exit (cascading termination) and
// ignores a normal one, per spec.md §4's link/trap-exit behavior.
type Exit struct {
	From   ID
	Reason string
}

// OnExit builds a Handler matching Exit notifications.
func OnExit(run func(ctx *Context, e Exit) error) Handler {
	return OnType[Exit](run)
}

// lockPair locks a and b's mutexes together, in a single order determined
// by ActorID rather than argument order, so that Link and Unlink can
// mutate both sides' link sets atomically. Without a consistent order,
// Link(a, b) racing Link(b, a) — or a's exit() calling Unlink(a, peer)
// while peer's own concurrent exit() calls Unlink(peer, a) — can deadlock
// AB-BA style; spec.md §5 requires locks be "acquired in a consistent
// order (by actor identity)" for exactly this reason.
func lockPair(a, b *Actor) (unlock func()) {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if second.id < first.id {
		first, second = second, first
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

// Link establishes a bidirectional link between a and b: when either
// terminates, the other is notified (as an Exit message if it has TrapExit
// enabled, or, for an abnormal reason, by cascading the same exit to itself
// otherwise). Linking to an already-exited actor synchronously delivers
// that notification right away rather than silently doing nothing, so a
// caller can't race a peer's death and miss it.
func Link(a, b *Actor) {
	if a == b || a == nil || b == nil {
		return
	}
	unlock := lockPair(a, b)
	aAlive := a.mode != ModeExitingNormal && a.mode != ModeExitingAbnormal
	bAlive := b.mode != ModeExitingNormal && b.mode != ModeExitingAbnormal
	if aAlive {
		a.links[b.id] = struct{}{}
	}
	if bAlive {
		b.links[a.id] = struct{}{}
	}
	aReason, bReason := a.exitReason, b.exitReason
	unlock()

	if !bAlive && aAlive {
		a.notifyExit(b.id, bReason)
	}
	if !aAlive && bAlive {
		b.notifyExit(a.id, aReason)
	}
}

// Unlink removes any link between a and b. It is idempotent.
func Unlink(a, b *Actor) {
	if a == nil || b == nil {
		return
	}
	unlock := lockPair(a, b)
	delete(a.links, b.id)
	delete(b.links, a.id)
	unlock()
}
