package clock

import (
	"sync"
	"time"
)

// Manual is a Clock and Scheduler driven entirely by the caller. Scheduled
// callbacks only fire from Advance, on the caller's goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	jobs   map[int]*manualJob
}

type manualJob struct {
	interval time.Duration
	due      time.Time
	fn       func()
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start, jobs: make(map[int]*manualJob)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock without firing any scheduled callbacks.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *Manual) Every(interval time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.jobs[id] = &manualJob{interval: interval, due: m.now.Add(interval), fn: fn}

	return func() {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
	}
}

// Pending reports how many schedules are live.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Tick advances the clock by one second.
func (m *Manual) Tick() {
	m.Advance(time.Second)
}

// Advance moves the clock forward by d, firing every due callback in time
// order. A callback cancelled by an earlier one in the same step does not run.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		id, job := m.earliestDue(target)
		if job == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = job.due
		job.due = job.due.Add(job.interval)
		fn := job.fn
		m.mu.Unlock()

		if m.live(id, job) {
			fn()
		}
	}
}

func (m *Manual) earliestDue(target time.Time) (int, *manualJob) {
	var (
		bestID  int
		bestJob *manualJob
	)
	for id, job := range m.jobs {
		if job.due.After(target) {
			continue
		}
		if bestJob == nil || job.due.Before(bestJob.due) || (job.due.Equal(bestJob.due) && id < bestID) {
			bestID, bestJob = id, job
		}
	}
	return bestID, bestJob
}

func (m *Manual) live(id int, job *manualJob) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id] == job
}
