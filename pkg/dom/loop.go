package dom

import (
	"sync"
	"sync/atomic"
	"time"
)

// maxTasksPerRun bounds a single drain so a task that keeps rescheduling itself
// with a zero delay cannot spin forever.
const maxTasksPerRun = 10000

// Loop is a single-threaded task queue with a virtual clock. Timers and posted
// tasks only run when the owner drains the loop (RunPending, Advance, Flush),
// which keeps every deferred behaviour deterministic.
type Loop struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*Timer
	posted []func()

	inflight sync.WaitGroup
	working  atomic.Int64
}

// Timer is a cancelable scheduled task.
type Timer struct {
	loop      *Loop
	fn        func()
	due       time.Duration
	seq       uint64
	cancelled bool
	fired     bool
}

// NewLoop constructs an idle loop at virtual time zero.
func NewLoop() *Loop {
	return &Loop{}
}

// Now returns the virtual clock.
func (l *Loop) Now() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// SetTimeout schedules fn to run once the virtual clock reaches now+delay.
func (l *Loop) SetTimeout(fn func(), delay time.Duration) *Timer {
	if delay < 0 {
		delay = 0
	}
	if fn == nil {
		fn = func() {}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	timer := &Timer{loop: l, fn: fn, due: l.now + delay, seq: l.seq}
	l.timers = append(l.timers, timer)
	return timer
}

// Cancel stops a pending timer. It reports whether the timer was still pending.
func (t *Timer) Cancel() bool {
	if t == nil || t.loop == nil {
		return false
	}
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	if t.fired || t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

// Active reports whether the timer has neither fired nor been cancelled.
func (t *Timer) Active() bool {
	if t == nil || t.loop == nil {
		return false
	}
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	return !t.fired && !t.cancelled
}

// Post enqueues fn to run on the next drain. Safe for concurrent use.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

// Go runs work on its own goroutine and posts the continuation it returns back
// onto the loop. Flush waits for outstanding work.
func (l *Loop) Go(work func() func()) {
	if work == nil {
		return
	}
	l.inflight.Add(1)
	l.working.Add(1)
	go func() {
		defer l.inflight.Done()
		defer l.working.Add(-1)
		if next := work(); next != nil {
			l.Post(next)
		}
	}()
}

// Pending returns the number of queued tasks and active timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := len(l.posted)
	for _, timer := range l.timers {
		if !timer.cancelled {
			total++
		}
	}
	return total
}

// RunPending runs posted tasks and due timers until none remain. It returns the
// number of tasks executed.
func (l *Loop) RunPending() int {
	ran := 0
	for ran < maxTasksPerRun {
		fn := l.next()
		if fn == nil {
			break
		}
		fn()
		ran++
	}
	return ran
}

// Advance moves the virtual clock forward, firing timers in due order.
func (l *Loop) Advance(d time.Duration) int {
	ran := l.RunPending()
	l.mu.Lock()
	target := l.now + d
	l.mu.Unlock()

	for {
		l.mu.Lock()
		due, ok := l.earliestDue(target)
		if ok && due > l.now {
			l.now = due
		}
		l.mu.Unlock()
		if !ok {
			break
		}
		n := l.RunPending()
		ran += n
		if n == 0 {
			break
		}
	}

	l.mu.Lock()
	l.now = target
	l.mu.Unlock()
	return ran + l.RunPending()
}

// Flush waits for background work started with Go and drains the loop until
// it is idle.
func (l *Loop) Flush() int {
	total := 0
	for i := 0; i < maxTasksPerRun; i++ {
		l.inflight.Wait()
		n := l.RunPending()
		total += n
		if n == 0 && l.working.Load() == 0 {
			break
		}
	}
	return total
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.posted) > 0 {
		fn := l.posted[0]
		l.posted = l.posted[1:]
		return fn
	}

	idx := -1
	for i, timer := range l.timers {
		if timer.cancelled || timer.due > l.now {
			continue
		}
		if idx < 0 || timer.due < l.timers[idx].due || (timer.due == l.timers[idx].due && timer.seq < l.timers[idx].seq) {
			idx = i
		}
	}
	if idx < 0 {
		l.compact()
		return nil
	}
	timer := l.timers[idx]
	l.timers = append(l.timers[:idx], l.timers[idx+1:]...)
	timer.fired = true
	return timer.fn
}

func (l *Loop) earliestDue(limit time.Duration) (time.Duration, bool) {
	var (
		due   time.Duration
		found bool
	)
	for _, timer := range l.timers {
		if timer.cancelled || timer.due > limit {
			continue
		}
		if !found || timer.due < due {
			due = timer.due
			found = true
		}
	}
	return due, found
}

func (l *Loop) compact() {
	kept := l.timers[:0]
	for _, timer := range l.timers {
		if !timer.cancelled {
			kept = append(kept, timer)
		}
	}
	for i := len(kept); i < len(l.timers); i++ {
		l.timers[i] = nil
	}
	l.timers = kept
}
