package actor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLink is an in-memory actor.RemoteLink standing in for remote.Link in
// tests: Send records the call and, if a peer actor is registered under the
// same process (simulating "the other node" with a second local actor),
// delivers it exactly the way a real transport round-trip eventually would.
type fakeLink struct {
	mu    sync.Mutex
	sent  []sentEnvelope
	peers map[ID]*Actor
}

type sentEnvelope struct {
	to, from ID
	session  SessionID
	isReply  bool
	body     any
}

func newFakeLink() *fakeLink {
	return &fakeLink{peers: make(map[ID]*Actor)}
}

func (f *fakeLink) Send(ctx context.Context, to, from ID, session SessionID, isReply bool, body any) error {
	f.mu.Lock()
	f.sent = append(f.sent, sentEnvelope{to: to, from: from, session: session, isReply: isReply, body: body})
	peer := f.peers[to]
	f.mu.Unlock()

	if peer == nil {
		return nil
	}
	if isReply {
		peer.DeliverReply(from, session, body)
	} else {
		peer.DeliverRemote(from, body, f, session)
	}
	return nil
}

func (f *fakeLink) calls() []sentEnvelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentEnvelope, len(f.sent))
	copy(out, f.sent)
	return out
}

// TestRemoteProxyForwardsSendThroughLink is scenario S7's Tell half: a
// message sent to a proxy never touches the proxy's own mailbox, it goes
// straight out through RemoteLink.Send.
func TestRemoteProxyForwardsSendThroughLink(t *testing.T) {
	link := newFakeLink()
	proxy := NewRemoteProxy(ID("remote-actor-1"), link)
	defer proxy.exit("normal")

	local := Spawn(func(ctx *Context) { _ = ctx.Self().ReceiveWithin(time.Second, neverMatches) })
	defer local.exit("normal")

	proxy.Tell(local, "hello")

	calls := link.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, proxy.ID(), calls[0].to)
	assert.Equal(t, local.ID(), calls[0].from)
	assert.False(t, calls[0].isReply)
	assert.Equal(t, "hello", calls[0].body)
}

// TestRemoteProxyAskRoundTripsThroughReply drives the full S7 Ask path
// purely in-process: the proxy's Send hands the request to a second local
// actor standing in for "the other node", whose ctx.Reply comes back
// through the same fakeLink as a isReply=true Send, and the original Ask
// unblocks with the answer exactly like a local Ask would.
func TestRemoteProxyAskRoundTripsThroughReply(t *testing.T) {
	link := newFakeLink()

	remoteSide := Spawn(func(ctx *Context) {
		echoLoop(ctx.Self())
	})
	defer remoteSide.exit("normal")

	proxy := NewRemoteProxy(remoteSide.ID(), link)
	defer proxy.exit("normal")
	link.peers[remoteSide.ID()] = remoteSide

	_, caller := Bind(context.Background())
	defer caller.exit("normal")
	link.peers[caller.ID()] = caller

	reply, err := proxy.AskWithin(caller, echoMsg{tag: "remote"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "r-remote", reply)
}

// TestNotifyRemoteExitCascadesLocalTrapExit is scenario S8: an ExitNotice
// arriving for a locally-registered proxy must run the same link/trap-exit
// cascade exit() already runs for a genuinely local actor.
func TestNotifyRemoteExitCascadesLocalTrapExit(t *testing.T) {
	link := newFakeLink()
	proxy := NewRemoteProxy(ID("remote-actor-2"), link)

	var gotReason string
	done := make(chan struct{})
	supervisor := Spawn(func(ctx *Context) {
		self := ctx.Self()
		self.TrapExit(true)
		_ = self.ReceiveWithin(time.Second, OnExit(func(ctx *Context, e Exit) error {
			gotReason = e.Reason
			close(done)
			return nil
		}))
	}, WithTrapExit())
	defer supervisor.exit("normal")

	Link(supervisor, proxy)
	proxy.NotifyRemoteExit("remote node crashed")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trap-exit supervisor never observed the remote proxy's exit")
	}
	assert.Equal(t, "remote node crashed", gotReason)
}
