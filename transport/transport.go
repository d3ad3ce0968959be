// Package transport defines the wire contract for sending a message to an
// actor hosted on another node. It has no implementation of its own —
// transport/tcprpc implements it for point-to-point Tell/Ask; the other
// kind of cross-node traffic the runtime needs, fanout Exit notification,
// goes through transport/nsqbus's own Publish/Subscribe API instead.
package transport

import "context"

// Envelope is what crosses the wire for a remote Tell/Ask, generalizing
// the teacher's RPCRequest/RPCResponse (method name + protobuf payload)
// into a single self-describing message: the payload is gob-encoded
// instead of protobuf because the generated protobuf packages this module
// would otherwise depend on (infra/pb/*) are not present anywhere in the
// retrieved source pack.
type Envelope struct {
	// To is the destination ActorID on the receiving node.
	To string
	// From is the sending actor's ActorID, or empty for a plain-goroutine
	// sender (see actor.Bind).
	From string
	// Session correlates an Ask's eventual reply; empty for a fire-and-
	// forget Tell.
	Session string
	// Reply is true when this Envelope itself is carrying the answer to
	// an earlier Ask, rather than a fresh message.
	Reply bool
	// ReplyAddr is the address the sender is reachable at for this
	// envelope's eventual reply. Set only on a fresh Ask (empty for a
	// fire-and-forget Tell and for Reply envelopes themselves), so the
	// receiving node can remember where to send the answer without a
	// second directory lookup — see replycache.
	ReplyAddr string
	// Body is the gob-encoded message payload.
	Body []byte
}

// Transport sends Envelopes to other nodes and accepts ones addressed to
// this node.
type Transport interface {
	// Send delivers env to the node at addr (host:port).
	Send(ctx context.Context, addr string, env Envelope) error
	// Serve starts accepting inbound Envelopes, invoking handle for each,
	// until ctx is canceled or Close is called. Blocks the calling
	// goroutine.
	Serve(ctx context.Context, handle func(Envelope)) error
	// Close releases the Transport's listening resources.
	Close() error
}
