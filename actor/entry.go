package actor

import (
	"context"
	"sync"
)

// selfKey is the context.Context key a plain goroutine's bound proxy actor
// is stored under. Go has no per-goroutine local storage, so unlike a
// thread-based runtime that can stash "self" on the calling thread, this
// model has to thread it explicitly through context.Context — the same way
// any other per-call-chain value travels through a Go program.
type selfKey struct{}

// Bind creates a proxy Actor standing in for the calling goroutine and
// returns a context carrying it, so plain (non-actor) code can still use
// Ask/Tell/Send addressed at it and block in Receive like any other actor.
// Typical use is once, near the top of a goroutine that needs to
// participate in request/reply with real actors (e.g. main, or an RPC
// handler):
//
//	ctx, self := actor.Bind(context.Background())
//	reply, err := worker.AskWithin(self, request, 2*time.Second)
func Bind(ctx context.Context, opts ...Option) (context.Context, *Actor) {
	proxy := &Actor{
		id:      NewID(),
		mailbox: NewMessageQueue(),
		links:   make(map[ID]struct{}),
		done:    make(chan struct{}),
	}
	proxy.cond = sync.NewCond(&proxy.mu)
	proxy.scheduler = DefaultScheduler
	proxy.timer = SystemTimer
	for _, opt := range opts {
		opt(proxy)
	}
	register(proxy)
	return context.WithValue(ctx, selfKey{}, proxy), proxy
}

// Self returns the proxy actor bound to ctx via Bind. If ctx carries none —
// the caller never bound one, or is on a fresh context derived before the
// Bind call — Self lazily creates an ephemeral proxy good for this one call
// only; it is registered like any Bind proxy but not attached to ctx, so a
// second Self(ctx) call on the same unbound context returns a different
// proxy. Callers that need a stable
// identity across multiple calls must keep the context Bind returned.
func Self(ctx context.Context) *Actor {
	if a, ok := ctx.Value(selfKey{}).(*Actor); ok {
		return a
	}
	_, a := Bind(ctx)
	return a
}

// WithSelf returns a context carrying a as the bound actor, for handing a
// real Actor's identity to code (loggers, helper functions) that expects to
// retrieve it with Self rather than receiving it as an explicit parameter.
func WithSelf(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, selfKey{}, a)
}
