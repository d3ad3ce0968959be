package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageQueueFIFOWhenEverythingMatches(t *testing.T) {
	q := NewMessageQueue()
	q.Append(Message{Body: 1})
	q.Append(Message{Body: 2})
	q.Append(Message{Body: 3})

	matchAny := Predicate(func(Message) bool { return true })

	m, ok := q.ExtractFirst(matchAny)
	require.True(t, ok)
	assert.Equal(t, 1, m.Body)

	m, ok = q.ExtractFirst(matchAny)
	require.True(t, ok)
	assert.Equal(t, 2, m.Body)
}

func TestMessageQueueSelectiveExtractPreservesOrder(t *testing.T) {
	q := NewMessageQueue()
	q.Append(Message{Body: "a"})
	q.Append(Message{Body: 2})
	q.Append(Message{Body: "c"})

	onlyInts := Predicate(func(msg Message) bool {
		_, ok := msg.Body.(int)
		return ok
	})

	m, ok := q.ExtractFirst(onlyInts)
	require.True(t, ok)
	assert.Equal(t, 2, m.Body)
	assert.Equal(t, 2, q.Len())

	// The skipped-over string messages are still here, in their original
	// relative order.
	m, ok = q.ExtractFirst(Predicate(func(Message) bool { return true }))
	require.True(t, ok)
	assert.Equal(t, "a", m.Body)

	m, ok = q.ExtractFirst(Predicate(func(Message) bool { return true }))
	require.True(t, ok)
	assert.Equal(t, "c", m.Body)
}

func TestMessageQueueExtractFirstNoMatch(t *testing.T) {
	q := NewMessageQueue()
	q.Append(Message{Body: 1})

	_, ok := q.ExtractFirst(Predicate(func(Message) bool { return false }))
	assert.False(t, ok)
	assert.Equal(t, 1, q.Len())
}
