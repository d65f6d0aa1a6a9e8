// Package queuetest provides a deterministic queue.Scheduler for tests.
package queuetest

import (
	"sort"
	"time"

	"github.com/wippyai/native-bridge/queue"
)

// Manual is a scheduler whose clock only moves when Advance is called.
// Timers run synchronously inside Advance in due order.
type Manual struct {
	now    time.Time
	timers []*manualTimer
	seq    int
}

var _ queue.Scheduler = (*Manual)(nil)

type manualTimer struct {
	due     time.Time
	fn      func()
	seq     int
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewManual creates a scheduler starting at an arbitrary fixed instant.
func NewManual() *Manual {
	return &Manual{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) After(d time.Duration, fn func()) queue.Cancelable {
	m.seq++
	t := &manualTimer{due: m.now.Add(d), fn: fn, seq: m.seq}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, running every timer that falls due.
func (m *Manual) Advance(d time.Duration) {
	end := m.now.Add(d)
	for {
		t := m.next(end)
		if t == nil {
			break
		}
		m.now = t.due
		t.stopped = true
		t.fn()
	}
	m.now = end
}

func (m *Manual) next(end time.Time) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.Slice(m.timers, func(i, j int) bool {
		if m.timers[i].due.Equal(m.timers[j].due) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].due.Before(m.timers[j].due)
	})
	if len(m.timers) == 0 || m.timers[0].due.After(end) {
		return nil
	}
	return m.timers[0]
}

// Pending returns the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
