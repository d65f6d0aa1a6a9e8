package throttle

import (
	"time"

	nativebridge "github.com/wippyai/native-bridge"
	"github.com/wippyai/native-bridge/queue"
)

// DefaultInterval is roughly one frame at 60Hz.
const DefaultInterval = 16 * time.Millisecond

// Throttle coalesces calls into a leading and a trailing delivery per interval.
type Throttle struct {
	sched    queue.Scheduler
	deliver  func(payload any)
	timer    queue.Cancelable
	payload  any
	last     time.Time
	interval time.Duration
	gen      uint64
	calls    uint64
	sent     uint64
}

// New creates a throttle delivering through fn.
func New(sched queue.Scheduler, interval time.Duration, fn func(payload any)) *Throttle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttle{sched: sched, interval: interval, deliver: fn}
}

// Call submits a payload.
func (t *Throttle) Call(payload any) {
	t.calls++
	now := t.sched.Now()
	if t.timer == nil && (t.sent == 0 || now.Sub(t.last) >= t.interval) {
		t.fire(now, payload)
		return
	}
	t.payload = payload
	if t.timer != nil {
		return
	}
	gen := t.gen
	t.timer = t.sched.After(t.interval-now.Sub(t.last), func() {
		if gen != t.gen {
			return
		}
		t.timer = nil
		p := t.payload
		t.payload = nil
		t.fire(t.sched.Now(), p)
	})
}

func (t *Throttle) fire(now time.Time, payload any) {
	t.last = now
	t.sent++
	t.deliver(payload)
}

// Pending reports whether a trailing delivery is scheduled.
func (t *Throttle) Pending() bool {
	return t.timer != nil
}

// Cancel drops a scheduled trailing delivery.
func (t *Throttle) Cancel() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.payload = nil
}

// Stats returns the number of submitted calls and actual deliveries.
func (t *Throttle) Stats() (calls, delivered uint64) {
	return t.calls, t.sent
}

// Group holds one throttle per handler key for a configured set of event names.
type Group struct {
	sched     queue.Scheduler
	deliver   func(key nativebridge.HandlerKey, payload any)
	events    map[string]struct{}
	throttles map[nativebridge.HandlerKey]*Throttle
	interval  time.Duration
}

// NewGroup creates a group that throttles the named events and passes every
// other event straight to deliver.
func NewGroup(sched queue.Scheduler, interval time.Duration, events []string, deliver func(nativebridge.HandlerKey, any)) *Group {
	g := &Group{
		sched:     sched,
		deliver:   deliver,
		events:    make(map[string]struct{}, len(events)),
		throttles: make(map[nativebridge.HandlerKey]*Throttle),
		interval:  interval,
	}
	for _, e := range events {
		g.events[e] = struct{}{}
	}
	return g
}

// Throttled reports whether event goes through a throttle.
func (g *Group) Throttled(event string) bool {
	_, ok := g.events[event]
	return ok
}

// Call submits payload for key.
func (g *Group) Call(key nativebridge.HandlerKey, payload any) {
	if !g.Throttled(key.Event) {
		g.deliver(key, payload)
		return
	}
	t, ok := g.throttles[key]
	if !ok {
		t = New(g.sched, g.interval, func(p any) { g.deliver(key, p) })
		g.throttles[key] = t
	}
	t.Call(payload)
}

// Remove cancels and forgets the throttle for key.
func (g *Group) Remove(key nativebridge.HandlerKey) {
	if t, ok := g.throttles[key]; ok {
		t.Cancel()
		delete(g.throttles, key)
	}
}

// RemoveNode cancels every throttle bound to node.
func (g *Group) RemoveNode(node nativebridge.NodeID, events []string) {
	for _, ev := range events {
		g.Remove(nativebridge.HandlerKey{Node: node, Event: ev})
	}
}

// CancelAll cancels and forgets every throttle.
func (g *Group) CancelAll() {
	for key, t := range g.throttles {
		t.Cancel()
		delete(g.throttles, key)
	}
}

// Len returns the number of live throttles.
func (g *Group) Len() int {
	return len(g.throttles)
}
