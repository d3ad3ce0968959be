package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLinkIsSymmetric(t *testing.T) {
	a := Spawn(func(ctx *Context) { _ = ctx.Self().ReceiveWithin(time.Second, neverMatches) })
	b := Spawn(func(ctx *Context) { _ = ctx.Self().ReceiveWithin(time.Second, neverMatches) })

	Link(a, b)

	_, aHasB := a.links[b.id]
	_, bHasA := b.links[a.id]
	assert.True(t, aHasB)
	assert.True(t, bHasA)

	Unlink(a, b)

	_, aHasB = a.links[b.id]
	_, bHasA = b.links[a.id]
	assert.False(t, aHasB)
	assert.False(t, bHasA)

	a.exit("normal")
	b.exit("normal")
}

func TestLinkToAlreadyExitedPeerDeliversNotificationImmediately(t *testing.T) {
	dead := Spawn(func(ctx *Context) { ctx.Self().Exit("already gone") })
	<-dead.Done()

	survivor := Spawn(func(ctx *Context) { _ = ctx.Self().ReceiveWithin(time.Second, neverMatches) })

	Link(survivor, dead)

	select {
	case <-survivor.Done():
	case <-time.After(time.Second):
		t.Fatal("linking to an already-exited peer should cascade immediately")
	}
}
