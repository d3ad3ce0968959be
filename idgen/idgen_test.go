package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsOutOfRangeNodeID(t *testing.T) {
	assert.Panics(t, func() { New(-1) })
	assert.Panics(t, func() { New(maxNodeID + 1) })
}

func TestNextIsUniqueAndMonotonic(t *testing.T) {
	g := New(7)
	var last uint64
	for i := 0; i < 1000; i++ {
		id := g.Next()
		assert.Greater(t, id, last)
		last = id
	}
}

func TestNextIsSafeForConcurrentUse(t *testing.T) {
	g := New(3)
	const n = 200
	ids := make(chan uint64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- g.Next()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool, n)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestNextActorAndSessionIDsArePrefixedAndDistinct(t *testing.T) {
	a := NextActorID()
	s := NextSessionID()
	assert.NotEqual(t, a, s)
	assert.Equal(t, byte('A'), a[0])
	assert.Equal(t, byte('S'), s[0])
}
