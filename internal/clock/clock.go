package clock

import (
	"sync"
	"time"
)

// Handle identifies a scheduled timer or ticker. Handle 0 is never issued by
// the system scheduler; it is the sentinel returned while scheduling is
// suppressed.
type Handle int64

// Scheduler is the process-wide timer surface games and tooling go through
// instead of the time package directly, so that the sandbox can neutralize
// it for the duration of a guarded engine call.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Handle
	ScheduleEvery(d time.Duration, fn func()) Handle
	Cancel(h Handle)
	CancelEvery(h Handle)
}

var (
	mu     sync.Mutex
	active Scheduler = newSystemScheduler()
)

// Swap installs s as the active scheduler and returns the previous one.
// Callers must restore the previous scheduler when done; the swap is
// process-wide, so guarded engine calls must never run concurrently.
func Swap(s Scheduler) Scheduler {
	mu.Lock()
	defer mu.Unlock()

	prev := active
	active = s
	return prev
}

func current() Scheduler {
	mu.Lock()
	defer mu.Unlock()
	return active
}

// Schedule runs fn once after d.
func Schedule(d time.Duration, fn func()) Handle {
	return current().Schedule(d, fn)
}

// ScheduleEvery runs fn repeatedly every d until canceled.
func ScheduleEvery(d time.Duration, fn func()) Handle {
	return current().ScheduleEvery(d, fn)
}

// Cancel stops a one-shot timer. Unknown handles are ignored.
func Cancel(h Handle) {
	current().Cancel(h)
}

// CancelEvery stops a repeating ticker. Unknown handles are ignored.
func CancelEvery(h Handle) {
	current().CancelEvery(h)
}

type systemScheduler struct {
	mu      sync.Mutex
	next    Handle
	timers  map[Handle]*time.Timer
	tickers map[Handle]chan struct{}
}

func newSystemScheduler() *systemScheduler {
	return &systemScheduler{
		timers:  make(map[Handle]*time.Timer),
		tickers: make(map[Handle]chan struct{}),
	}
}

func (that *systemScheduler) Schedule(d time.Duration, fn func()) Handle {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.next++
	h := that.next
	that.timers[h] = time.AfterFunc(d, func() {
		that.mu.Lock()
		delete(that.timers, h)
		that.mu.Unlock()

		fn()
	})

	return h
}

func (that *systemScheduler) ScheduleEvery(d time.Duration, fn func()) Handle {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.next++
	h := that.next
	stop := make(chan struct{})
	that.tickers[h] = stop

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()

	return h
}

func (that *systemScheduler) Cancel(h Handle) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if timer, ok := that.timers[h]; ok {
		timer.Stop()
		delete(that.timers, h)
	}
}

func (that *systemScheduler) CancelEvery(h Handle) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if stop, ok := that.tickers[h]; ok {
		close(stop)
		delete(that.tickers, h)
	}
}
