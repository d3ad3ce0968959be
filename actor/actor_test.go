package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var neverMatches = On(func(any) bool { return false }, func(ctx *Context) error { return nil })

type greet struct{ name string }
type farewell struct{ name string }

func TestSendAndBlockingReceive(t *testing.T) {
	done := make(chan string, 1)

	a := Spawn(func(ctx *Context) {
		err := ctx.Self().Receive(
			OnType[greet](func(ctx *Context, g greet) error {
				done <- "hello " + g.name
				return nil
			}),
		)
		assert.NoError(t, err)
	})

	a.Send(greet{name: "world"})

	select {
	case got := <-done:
		assert.Equal(t, "hello world", got)
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}

func TestSelectiveReceiveSkipsNonMatchingMessages(t *testing.T) {
	done := make(chan string, 1)

	a := Spawn(func(ctx *Context) {
		err := ctx.Self().Receive(
			OnType[farewell](func(ctx *Context, f farewell) error {
				done <- "bye " + f.name
				return nil
			}),
		)
		assert.NoError(t, err)
	})

	// Sent first but doesn't match the handler set in play; should be
	// skipped over, not consumed or block the later matching message.
	a.Send(greet{name: "ignored"})
	a.Send(farewell{name: "world"})

	select {
	case got := <-done:
		assert.Equal(t, "bye world", got)
	case <-time.After(time.Second):
		t.Fatal("handler never ran")
	}
}

// addMsg is declared at package scope, not locally inside the test or
// reactAdd: two "type add struct{...}" declared in different function
// bodies are distinct defined types even with identical fields, so
// OnType[add] inside reactAdd would never match a value built from the
// test's own local type.
type addMsg struct{ a, b int }

func TestAskReceivesReply(t *testing.T) {
	adder := Spawn(func(ctx *Context) {
		reactAdd(ctx.Self())
	})

	_, caller := Bind(context.Background())

	sum, err := adder.AskWithin(caller, addMsg{a: 2, b: 3}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5, sum)
}

func reactAdd(self *Actor) {
	self.React(
		OnType[addMsg](func(ctx *Context, m addMsg) error {
			ctx.Reply(m.a + m.b)
			return nil
		}),
	)
}

func TestAskTimeoutWhenNoReply(t *testing.T) {
	silent := Spawn(func(ctx *Context) {
		// Never replies; just parks on an impossible match for longer than
		// the asker's deadline so the test can observe the asker's own
		// timeout.
		_ = ctx.Self().ReceiveWithin(5*time.Second, neverMatches)
	})
	defer func() { _ = silent }()

	_, caller := Bind(context.Background())

	_, err := silent.AskWithin(caller, "ping", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrAskTimeout)
}

func TestReactDetachesAndResumesOnLaterMessage(t *testing.T) {
	done := make(chan string, 1)

	a := Spawn(func(ctx *Context) {
		ctx.Self().React(
			OnType[greet](func(ctx *Context, g greet) error {
				done <- g.name
				return nil
			}),
		)
	})

	// No message queued yet: React should detach rather than block a
	// goroutine forever.
	time.Sleep(20 * time.Millisecond)

	a.Send(greet{name: "detached-world"})

	select {
	case got := <-done:
		assert.Equal(t, "detached-world", got)
	case <-time.After(time.Second):
		t.Fatal("detached continuation never resumed")
	}
}

func TestLinkCascadesAbnormalExit(t *testing.T) {
	victim := Spawn(func(ctx *Context) {
		ctx.Self().Exit("boom")
	})

	survivor := Spawn(func(ctx *Context) {
		_ = ctx.Self().ReceiveWithin(2 * time.Second)
	})
	Link(survivor, victim)

	select {
	case <-survivor.Done():
	case <-time.After(time.Second):
		t.Fatal("survivor never cascaded from linked abnormal exit")
	}
}

func TestTrapExitDeliversExitMessageInsteadOfCascading(t *testing.T) {
	seen := make(chan Exit, 1)

	victim := Spawn(func(ctx *Context) {
		ctx.Self().Exit("boom")
	})

	supervisor := Spawn(func(ctx *Context) {
		ctx.Self().TrapExit(true)
		ctx.Self().React(
			OnExit(func(ctx *Context, e Exit) error {
				seen <- e
				// Stay alive past the check below: a handler that returns
				// without reacting again ends the actor normally.
				_ = ctx.Self().ReceiveWithin(time.Second, neverMatches)
				return nil
			}),
		)
	}, WithTrapExit())
	Link(supervisor, victim)

	select {
	case e := <-seen:
		assert.Equal(t, "boom", e.Reason)
	case <-time.After(time.Second):
		t.Fatal("trap-exit supervisor never saw the Exit message")
	}

	select {
	case <-supervisor.Done():
		t.Fatal("trap-exit supervisor should not have exited itself")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNormalExitDoesNotCascade(t *testing.T) {
	victim := Spawn(func(ctx *Context) {
		ctx.Self().Exit("normal")
	})

	survivor := Spawn(func(ctx *Context) {
		_ = ctx.Self().ReceiveWithin(2 * time.Second)
	})
	Link(survivor, victim)

	<-victim.Done()

	select {
	case <-survivor.Done():
		t.Fatal("normal exit should not cascade to a linked peer")
	case <-time.After(300 * time.Millisecond):
	}
}
