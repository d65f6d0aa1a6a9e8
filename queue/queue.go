package queue

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/native-bridge/errors"
)

// Cancelable is returned by After.
type Cancelable interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Scheduler schedules delayed work. Queue implements it; tests substitute a
// manual clock.
type Scheduler interface {
	After(d time.Duration, fn func()) Cancelable
	Now() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithBacklog sets the task channel capacity (default 1024).
func WithBacklog(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.backlog = n
		}
	}
}

// WithLogger sets the queue logger.
func WithLogger(l *zap.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.log = l
		}
	}
}

// Queue is a serial executor bound to one OS thread.
type Queue struct {
	log      *zap.Logger
	tasks    chan func()
	done     chan struct{}
	stopped  chan struct{}
	timers   map[*Timer]struct{}
	name     string
	backlog  int
	tid      atomic.Int64
	timersMu sync.Mutex
	closed   atomic.Bool
	once     sync.Once
}

// New starts a queue. The returned queue is ready to accept work.
func New(name string, opts ...Option) *Queue {
	q := &Queue{
		name:    name,
		backlog: 1024,
		log:     Logger(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		timers:  make(map[*Timer]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan func(), q.backlog)

	ready := make(chan struct{})
	go q.run(ready)
	<-ready
	return q
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) run(ready chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(q.stopped)

	q.tid.Store(currentThreadID())
	close(ready)

	for {
		select {
		case fn := <-q.tasks:
			fn()
		case <-q.done:
			// drain what was accepted before Close
			for {
				select {
				case fn := <-q.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Async enqueues fn. It returns false when the queue is closed.
func (q *Queue) Async(fn func()) bool {
	if q.closed.Load() {
		return false
	}
	select {
	case q.tasks <- fn:
		return true
	case <-q.done:
		return false
	}
}

// Sync runs fn on the queue and waits for it to finish, or for ctx to end.
// Called from the queue itself, fn runs inline.
func (q *Queue) Sync(ctx context.Context, fn func()) error {
	if q.OnQueue() {
		fn()
		return nil
	}

	finished := make(chan struct{})
	if !q.Async(func() {
		defer close(finished)
		fn()
	}) {
		return errors.Closed(errors.PhaseThread, q.name+" queue")
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnQueue reports whether the caller runs on this queue's worker.
func (q *Queue) OnQueue() bool {
	return sameThread(q.tid.Load(), currentThreadID())
}

// MustBeOn panics with a thread violation when the caller is not on the
// queue. Violations are programming errors and treated as fatal.
func (q *Queue) MustBeOn(op string) {
	if !q.OnQueue() {
		panic(errors.ThreadViolation(op, q.name))
	}
}

// Now returns the current time.
func (q *Queue) Now() time.Time {
	return time.Now()
}

// After runs fn on the queue once d has elapsed.
func (q *Queue) After(d time.Duration, fn func()) Cancelable {
	t := &Timer{q: q}
	q.timersMu.Lock()
	defer q.timersMu.Unlock()

	t.timer = time.AfterFunc(d, func() {
		q.Async(func() {
			if !t.fired.CompareAndSwap(false, true) {
				return
			}
			q.forget(t)
			fn()
		})
	})
	q.timers[t] = struct{}{}
	return t
}

// CancelTimers stops every pending timer created by After.
func (q *Queue) CancelTimers() {
	q.MustBeOn("CancelTimers")

	q.timersMu.Lock()
	pending := make([]*Timer, 0, len(q.timers))
	for t := range q.timers {
		pending = append(pending, t)
	}
	q.timersMu.Unlock()

	for _, t := range pending {
		t.Stop()
	}
	if len(pending) > 0 {
		q.log.Debug("timers cancelled", zap.String("queue", q.name), zap.Int("count", len(pending)))
	}
}

// PendingTimers returns the number of timers that have neither fired nor been stopped.
func (q *Queue) PendingTimers() int {
	q.timersMu.Lock()
	defer q.timersMu.Unlock()
	return len(q.timers)
}

func (q *Queue) forget(t *Timer) {
	q.timersMu.Lock()
	delete(q.timers, t)
	q.timersMu.Unlock()
}

// Close stops accepting work, runs what was already accepted and waits for
// the worker to exit. Pending timers are stopped.
func (q *Queue) Close() {
	q.once.Do(func() {
		q.closed.Store(true)

		q.timersMu.Lock()
		for t := range q.timers {
			t.timer.Stop()
			t.fired.Store(true)
		}
		q.timers = make(map[*Timer]struct{})
		q.timersMu.Unlock()

		close(q.done)
	})
	if !q.OnQueue() {
		<-q.stopped
	}
}

// Timer is a delayed task owned by a Queue.
type Timer struct {
	q     *Queue
	timer *time.Timer
	fired atomic.Bool
}

// Stop cancels the timer. It reports whether the callback was prevented.
func (t *Timer) Stop() bool {
	if !t.fired.CompareAndSwap(false, true) {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.q.forget(t)
	return true
}
