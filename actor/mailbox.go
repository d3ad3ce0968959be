package actor

// Message is one entry travelling through an actor's mailbox: a body plus
// enough addressing metadata to support sender(), reply() and the
// synchronous request/reply protocol built on ReplyChannel.
type Message struct {
	Body any

	// From identifies the sending actor, or the empty ID if the sender is
	// a plain goroutine (see entry.go) or unknown (e.g. delivered off a
	// remote Transport on behalf of a proxy).
	From ID

	// reply, when non-nil, is where a handler's Context.Reply actually
	// writes: a local ReplyChannel for an in-process Ask, or a
	// remoteSender when the message arrived over a RemoteLink on behalf
	// of another node. Set by Tell and Ask, and by Forward to preserve the
	// original requester's channel; Send leaves it nil.
	reply replyTarget

	// tag is non-empty only when this Message itself is the answer to an
	// outstanding synchronous request: it names the ReplyChannel the
	// answer is destined for, so the owning actor's selective receive can
	// restrict itself to exactly that round-trip and ignore stale replies
	// from requests it has since abandoned.
	tag SessionID
}

// Predicate reports whether a queued Message is one a pending
// Receive/React call is prepared to handle. It must be a pure function of
// the message: the mailbox calls it freely while scanning for a match and
// must not have to undo any side effect for messages it rejects. Built from
// a user-facing Handlers set plus the session tag (if any) the caller is
// currently restricted to, by matchPredicate in actor.go.
type Predicate func(msg Message) bool

// MessageQueue is an actor's mailbox: messages accumulate in arrival order
// and are removed by first-match rather than strictly FIFO, which is what
// makes selective receive possible. All operations are called with the
// owning actor's lock held, so MessageQueue itself does no locking of its
// own — mirroring how the teacher's ActorProcessor mailbox is only ever
// touched from within its own run loop.
type MessageQueue struct {
	entries []Message
}

// NewMessageQueue returns an empty mailbox.
func NewMessageQueue() *MessageQueue {
	return &MessageQueue{}
}

// Append adds msg to the tail of the queue. O(1) amortized.
func (q *MessageQueue) Append(msg Message) {
	q.entries = append(q.entries, msg)
}

// ExtractFirst removes and returns the first queued message matching pred,
// preserving the relative order of everything left behind. Messages that
// don't match stay in the mailbox exactly where they were, so a later,
// broader Receive can still see them — this is what lets an actor skip
// over messages it isn't ready for without losing them.
func (q *MessageQueue) ExtractFirst(pred Predicate) (Message, bool) {
	for i, m := range q.entries {
		if pred(m) {
			q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
			return m, true
		}
	}
	return Message{}, false
}

// Len reports how many messages are currently queued.
func (q *MessageQueue) Len() int {
	return len(q.entries)
}
