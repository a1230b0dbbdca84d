package hal

import (
	"sync"
	"time"
)

// hostTime is either a wall clock or a simulated clock advanced by the
// headless runner.
type hostTime struct {
	mu    sync.Mutex
	now   func() time.Time
	start time.Time

	sim bool
	ms  float64
}

func newHostTime() *hostTime {
	return newHostTimeWithClock(time.Now)
}

func newHostTimeWithClock(now func() time.Time) *hostTime {
	return &hostTime{now: now, start: now()}
}

func newSimTime() *hostTime {
	return &hostTime{sim: true}
}

func (t *hostTime) NowMillis() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sim {
		return t.ms
	}
	return float64(t.now().Sub(t.start)) / float64(time.Millisecond)
}

func (t *hostTime) advance(ms float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ms += ms
}
