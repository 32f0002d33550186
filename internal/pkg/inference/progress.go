package inference

import (
	"math/rand"
	"sync"
	"time"
)

// ProgressFunc receives a monotonically increasing percentage 0-100.
type ProgressFunc = func(percent int)

// estimator emits a synthetic progress estimate for network-bound calls. The
// hosted endpoints report no progress of their own, so this is an explicit UI
// simulation: small random increments once a second, capped below 100 until
// Finish snaps to 100.
type estimator struct {
	mu      sync.Mutex
	sink    ProgressFunc
	current float64
	done    chan struct{}
	once    sync.Once
}

const estimatorCap = 95

func startEstimator(sink ProgressFunc) *estimator {
	e := &estimator{sink: sink, done: make(chan struct{})}
	if sink == nil {
		e.sink = func(int) {}
	}
	e.sink(0)
	go e.loop()
	return e
}

func (e *estimator) loop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.mu.Lock()
			next := e.current + rand.Float64()*5
			if next > estimatorCap {
				next = estimatorCap
			}
			if int(next) > int(e.current) {
				e.sink(int(next))
			}
			e.current = next
			e.mu.Unlock()
		}
	}
}

// Finish stops the estimator. On success the estimate snaps to 100; on
// failure or cancellation the counter is left where it was and the caller
// resets its UI state.
func (e *estimator) Finish(success bool) {
	e.once.Do(func() {
		close(e.done)
		if success {
			e.mu.Lock()
			e.sink(100)
			e.mu.Unlock()
		}
	})
}
