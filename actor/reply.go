package actor

import "time"

// replyTarget is where Context.Reply actually writes: a local
// ReplyChannel when the synchronous caller is in this process, or a
// remoteSender (remote.go) when the message arrived over a RemoteLink
// and the answer has to cross back out to another node instead.
type replyTarget interface {
	deliver(from ID, body any)
	ownerActor() *Actor
}

// ReplyChannel is the destination end of one outstanding synchronous
// request. An actor mints a fresh ReplyChannel each time it issues Ask (the
// spec's "!?"), hands it to the callee as the message's reply target, and
// then blocks reading from it. Because the channel is freshly minted per
// call and tagged with its own SessionID, a reply that finally straggles in
// after the actor has given up waiting (timeout, or a second Ask already in
// flight) cannot be mistaken for the answer to a later call — it simply
// never matches any pending selective receive and sits in the mailbox like
// any other unmatched message.
type ReplyChannel struct {
	id    SessionID
	owner *Actor
}

// newReplyChannel allocates a channel bound to owner.
func newReplyChannel(owner *Actor) *ReplyChannel {
	return &ReplyChannel{id: NewSessionID(), owner: owner}
}

// Session returns the channel's correlation id, used by remote transports
// and replycache to route an asynchronous answer back to this round-trip.
func (rc *ReplyChannel) Session() SessionID {
	return rc.id
}

// deliver places body in the owner's mailbox tagged as the answer to this
// channel's round-trip.
func (rc *ReplyChannel) deliver(from ID, body any) {
	rc.owner.deliverMessage(Message{Body: body, From: from, tag: rc.id})
}

// ownerActor implements replyTarget.
func (rc *ReplyChannel) ownerActor() *Actor { return rc.owner }

// receive blocks the owning actor until a message tagged for this channel
// arrives, or until deadline elapses if positive.
func (rc *ReplyChannel) receive(deadline time.Duration) (any, error) {
	if rc.owner == nil {
		return nil, ErrWrongOwner
	}
	msg, err := rc.owner.blockingReceive(nil, rc.id, deadline)
	if err != nil {
		return nil, err
	}
	return msg.Body, nil
}
