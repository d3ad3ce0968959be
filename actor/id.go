package actor

import "github.com/phuhao00/actormesh/idgen"

// ID identifies an actor for its lifetime. Generated by idgen so IDs stay
// unique across process restarts and, once a node ID is configured, across
// a cluster of nodes sharing a registry.
type ID string

// NewID allocates a fresh ActorID.
func NewID() ID {
	return ID(idgen.NextActorID())
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// SessionID identifies one synchronous request/reply round-trip, used to
// correlate a remote Ask with its eventual reply (see replycache).
type SessionID string

// NewSessionID allocates a fresh SessionID.
func NewSessionID() SessionID {
	return SessionID(idgen.NextSessionID())
}

func (sid SessionID) String() string {
	return string(sid)
}
