// Package idgen allocates the identifiers the actor runtime hands out:
// node IDs, ActorIDs and SessionIDs. It is a snowflake-style generator so
// IDs stay sortable and unique across a restarted process, and across a
// cluster of nodes that are each configured with a distinct node ID.
package idgen

import (
	"fmt"
	"sync"
	"time"
)

const (
	sequenceBits  = 12
	nodeIDBits    = 10
	timestampBits = 41

	maxNodeID   = (1 << nodeIDBits) - 1
	maxSequence = (1 << sequenceBits) - 1

	nodeIDShift    = sequenceBits
	timestampShift = sequenceBits + nodeIDBits

	// customEpoch anchors the timestamp field to 2020-01-01 00:00:00 UTC.
	customEpoch = 1577836800000
)

// Generator produces monotonically increasing 64-bit identifiers scoped to
// a single node ID.
type Generator struct {
	mu       sync.Mutex
	nodeID   int64
	sequence int64
	lastTime int64
}

// New creates a Generator for the given node ID (0-1023).
func New(nodeID int64) *Generator {
	if nodeID < 0 || nodeID > maxNodeID {
		panic(fmt.Sprintf("idgen: node ID must be between 0 and %d", maxNodeID))
	}
	return &Generator{nodeID: nodeID}
}

// Next returns the next unique ID for this generator.
func (g *Generator) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < g.lastTime {
		panic("idgen: clock moved backwards")
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			for now <= g.lastTime {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	timestamp := now - customEpoch
	return uint64((timestamp << timestampShift) | (g.nodeID << nodeIDShift) | g.sequence)
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator, seeded with node ID 1 unless
// SetDefaultNode is called first.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = New(1)
	})
	return defaultGenerator
}

// SetDefaultNode reseeds the process-wide generator with the given node ID.
// It must be called before the first use of Default, typically from the
// node's startup code once its node ID is known (e.g. from registry
// registration).
func SetDefaultNode(nodeID int64) {
	once.Do(func() {})
	defaultGenerator = New(nodeID)
}

// NextActorID generates a unique ActorID-shaped value ("A<n>").
func NextActorID() string {
	return fmt.Sprintf("A%d", Default().Next())
}

// NextSessionID generates a unique SessionID-shaped value ("S<n>").
func NextSessionID() string {
	return fmt.Sprintf("S%d", Default().Next())
}

// NextNodeToken generates an opaque identifier suitable for a node
// registration token ("N<n>").
func NextNodeToken() string {
	return fmt.Sprintf("N%d", Default().Next())
}
