package pond

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerExecutesEveryReaction(t *testing.T) {
	s := New(2)
	defer s.StopAndWait()

	const n = 50
	var wg sync.WaitGroup
	var count int64
	wg.Add(n)
	for i := 0; i < n; i++ {
		s.Execute(func() {
			atomic.AddInt64(&count, 1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not every submitted reaction ran")
	}
	assert.EqualValues(t, n, atomic.LoadInt64(&count))
}

func TestSchedulerGrowsPastBaseUnderBlockingPressure(t *testing.T) {
	s := New(1)
	defer s.StopAndWait()

	base := s.pool.MaxConcurrency()
	s.EnterBlocking()
	assert.Greater(t, s.pool.MaxConcurrency(), base)

	s.ExitBlocking()
	assert.Equal(t, base, s.pool.MaxConcurrency())
}
