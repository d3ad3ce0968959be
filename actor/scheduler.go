package actor

import "sync/atomic"

// Scheduler runs the reactions (detached continuations, React handlers,
// and top-level Spawn bodies) an actor hands off instead of running inline.
// It is an interface, not a hard dependency on any one pool implementation,
// because a detached reaction can itself block on a further Receive/React —
// a pool that can't grow under that pressure deadlocks the whole runtime.
// The production Scheduler (actor/pond) tracks exactly this and grows its
// worker count; tests can swap in their own Scheduler through
// WithScheduler.
type Scheduler interface {
	// Execute arranges for fn to run, returning immediately. fn is always
	// run exactly once, on a goroutine distinct from the caller's.
	Execute(fn func())

	// Tick is invoked on every send and receive (spec.md §4.2 step 1),
	// crediting the actor for scheduling fairness. A Scheduler with no use
	// for fairness accounting may leave it a no-op.
	Tick(a *Actor)

	// PendReaction is called once per reaction submitted via Execute,
	// before Execute itself is called; DoneReaction is called exactly
	// once that reaction finishes. Together they let a Scheduler track
	// outstanding work — used by actor/pond to decide when to grow its
	// pool, and in general to decide when a process is idle enough to
	// shut down.
	PendReaction()
	DoneReaction()
}

// goroutineScheduler is the zero-configuration Scheduler: every reaction
// gets its own goroutine. It never blocks the caller and never exhausts a
// fixed pool, at the cost of no bound on concurrent reactions at all — fine
// for tests and small deployments, which is why it's the package default
// rather than something production call sites are expected to reach for.
type goroutineScheduler struct {
	pending int64
}

// DefaultScheduler is used by any Actor spawned without an explicit
// Scheduler. Production services typically install an actor/pond.Scheduler
// instead, sized to the workload.
var DefaultScheduler Scheduler = &goroutineScheduler{}

func (s *goroutineScheduler) Execute(fn func()) {
	go fn()
}

// Tick is a no-op: an unbounded per-reaction goroutine has no capacity
// limit to be fair about.
func (s *goroutineScheduler) Tick(a *Actor) {}

func (s *goroutineScheduler) PendReaction() { atomic.AddInt64(&s.pending, 1) }
func (s *goroutineScheduler) DoneReaction() { atomic.AddInt64(&s.pending, -1) }

// Outstanding reports how many reactions are currently submitted but not
// yet finished.
func (s *goroutineScheduler) Outstanding() int64 { return atomic.LoadInt64(&s.pending) }
