package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGoroutineSchedulerTracksOutstandingReactions is spec.md §4.6's
// pendReaction()/doneReaction() bookkeeping: Outstanding must reflect every
// reaction currently between Pend and Done, and Tick must be a harmless
// no-op for the bare goroutine-per-reaction scheduler.
func TestGoroutineSchedulerTracksOutstandingReactions(t *testing.T) {
	s := &goroutineScheduler{}
	assert.EqualValues(t, 0, s.Outstanding())

	s.PendReaction()
	s.PendReaction()
	assert.EqualValues(t, 2, s.Outstanding())

	s.DoneReaction()
	assert.EqualValues(t, 1, s.Outstanding())

	s.DoneReaction()
	assert.EqualValues(t, 0, s.Outstanding())

	s.Tick(nil)
	assert.EqualValues(t, 0, s.Outstanding())
}

func TestActorScheduleReactionBracketsExecuteWithPendAndDone(t *testing.T) {
	s := &goroutineScheduler{}
	a := Spawn(func(ctx *Context) {
		_ = ctx.Self().ReceiveWithin(0, neverMatches)
	}, WithScheduler(s))
	defer a.exit("normal")

	// Spawn calls PendReaction before handing its initial reaction to
	// Execute, and DoneReaction runs only once the body returns; the body
	// stays parked in ReceiveWithin, so Outstanding reflects the in-flight
	// reaction rather than 0.
	assert.EqualValues(t, 1, s.Outstanding())
}
