// Package pond adapts github.com/alitto/pond/v2 into an actor.Scheduler: a
// bounded worker pool that grows on demand when reactions themselves block
// (a detached React inside a reaction that resumes synchronously, or a
// blocking Ask made from a reaction), so a burst of actors suspending in
// the middle of a handler cannot deadlock the whole pool waiting on itself.
//
// Modeled on the teacher's amp-labs bgworker package: a single
// lazily-sized pond.Pool, Submit/Go style task handoff, StopAndWait on
// shutdown.
package pond

import (
	"log"
	"sync/atomic"

	"github.com/alitto/pond/v2"

	"github.com/phuhao00/actormesh/actor"
)

// Scheduler runs actor reactions on a pond.Pool. Unlike the teacher's
// bgworker (one fixed-size process-wide pool), a Scheduler here tracks how
// many of its workers are currently blocked inside a nested Receive/Ask and
// grows the underlying pool by that amount, so detached actors always have
// a free worker to resume on. It also tracks outstanding reactions
// (PendReaction/DoneReaction) and grows the pool under that pressure too,
// implementing the fuller actor.Scheduler contract spec.md §4.6 describes.
type Scheduler struct {
	pool          pond.Pool
	base          int
	blocked       int64
	pending       int64
	overloadTicks int64
}

var _ actor.Scheduler = (*Scheduler)(nil)

// New creates a Scheduler backed by a pond.Pool sized to count workers.
// count should be set to the expected steady-state concurrency of
// non-blocking reactions; the pool grows past it automatically under
// blocking pressure and shrinks back down as that pressure clears.
func New(count int) *Scheduler {
	if count <= 0 {
		count = 1
	}
	return &Scheduler{
		pool: pond.NewPool(count),
		base: count,
	}
}

// Execute submits fn to the pool, resizing it first if every worker is
// presently reported blocked.
func (s *Scheduler) Execute(fn func()) {
	if atomic.LoadInt64(&s.blocked) >= int64(s.pool.MaxConcurrency()) {
		s.pool.Resize(s.pool.MaxConcurrency() + 1)
	}
	s.pool.Submit(fn)
}

// EnterBlocking must be called by code running on this Scheduler just
// before it blocks (a nested Receive/Ask inside a reaction); ExitBlocking
// must be called once it resumes. actor.Actor itself never calls these —
// they exist for callers building a blocking-style actor body on top of a
// pond Scheduler who want the pool to grow while that body waits, the same
// way amp-labs' bgworker relies on pond's own goroutine reuse rather than
// tracking blocked count itself, except here we track it explicitly since
// actor reactions block far more often than a typical background job.
func (s *Scheduler) EnterBlocking() {
	n := atomic.AddInt64(&s.blocked, 1)
	if n >= int64(s.pool.MaxConcurrency()) {
		s.pool.Resize(s.pool.MaxConcurrency() + 1)
	}
}

// ExitBlocking reverses EnterBlocking and lets the pool shrink back toward
// its configured base size.
func (s *Scheduler) ExitBlocking() {
	atomic.AddInt64(&s.blocked, -1)
	if s.pool.MaxConcurrency() > s.base {
		s.pool.Resize(s.pool.MaxConcurrency() - 1)
	}
}

// StopAndWait drains queued reactions and waits for in-flight ones to
// finish, mirroring bgworker's shutdown hook.
func (s *Scheduler) StopAndWait() {
	log.Printf("actor/pond: stopping scheduler (base=%d)", s.base)
	s.pool.StopAndWait()
}

// Tick grows the pool by one when PendReaction has reported more
// outstanding reactions than the pool has workers for three consecutive
// calls,
// satisfying spec.md §4.6's "no starvation while idle capacity exists"
// clause without resizing on every single message.
func (s *Scheduler) Tick(a *actor.Actor) {
	pending := atomic.LoadInt64(&s.pending)
	capacity := int64(s.pool.MaxConcurrency())
	if pending <= capacity {
		atomic.StoreInt64(&s.overloadTicks, 0)
		return
	}
	if atomic.AddInt64(&s.overloadTicks, 1) >= 3 {
		s.pool.Resize(int(capacity) + 1)
		atomic.StoreInt64(&s.overloadTicks, 0)
	}
}

// PendReaction and DoneReaction bracket one submitted reaction's
// lifetime; Outstanding reports the current count, for callers deciding
// whether the process is idle enough to shut down (spec.md §4.6).
func (s *Scheduler) PendReaction()      { atomic.AddInt64(&s.pending, 1) }
func (s *Scheduler) DoneReaction()      { atomic.AddInt64(&s.pending, -1) }
func (s *Scheduler) Outstanding() int64 { return atomic.LoadInt64(&s.pending) }

// Idle reports whether this Scheduler currently has no outstanding
// reactions and no blocked workers — the condition spec.md §4.6 uses to
// decide a process may shut down.
func (s *Scheduler) Idle() bool {
	return atomic.LoadInt64(&s.pending) == 0 && atomic.LoadInt64(&s.blocked) == 0
}
