package clock

import (
	"sync"
	"time"
)

// Clock is the read-only source of the current instant.
type Clock interface {
	Now() time.Time
}

// Scheduler runs fn every interval until the returned cancel func is called.
// Cancel must not block and may be called more than once.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Every starts a ticker goroutine. Ticks that arrive after cancel are dropped,
// but a tick already in flight may still run, so callers guard their state.
func (System) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
