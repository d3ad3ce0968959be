package actor

import "time"

// Timer arms and cancels the single outstanding deadline behind
// ReceiveWithin/ReactWithin. It is an interface rather than a direct
// time.AfterFunc call so tests can swap in a fake clock and advance time
// deterministically instead of racing real timers.
type Timer interface {
	// After schedules fn to run after d elapses and returns a cancel
	// function. Calling cancel before fn has fired prevents it from
	// running; calling it afterwards is a no-op. Mirrors the cancellation
	// contract of time.AfterFunc's *Timer.Stop.
	After(d time.Duration, fn func()) (cancel func())
}

// systemTimer is the default Timer, a thin wrapper over time.AfterFunc.
type systemTimer struct{}

// SystemTimer is the Timer every Actor uses unless overridden for testing.
var SystemTimer Timer = systemTimer{}

func (systemTimer) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
