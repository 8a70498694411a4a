// Package sync provides busy-wait synchronization primitives that are safe to
// use before a scheduler exists and from within interrupt handlers.
//
// A Spinlock never blocks on a scheduler; it spins until the lock becomes
// available. As a consequence, code that can run both in the foreground and
// inside an interrupt handler must not contend for the same lock: if the
// foreground code is interrupted while holding it, the handler spins forever
// because the holder cannot run again until the handler returns. Handlers
// must keep their critical sections short and must never re-enter a lock
// that the interrupted context may hold.
package sync

import "sync/atomic"

// spinAttemptsBeforeYield is the number of failed acquisition attempts after
// which Acquire invokes yieldFn (if set).
const spinAttemptsBeforeYield = 64

var (
	// yieldFn is nil until a scheduler exists; tests replace it with
	// runtime.Gosched.
	yieldFn func()
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	archAcquireSpinlock(&l.state, spinAttemptsBeforeYield)
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// archAcquireSpinlock spins on state using the test-and-test-and-set pattern,
// issuing a PAUSE hint between reads and calling yieldFn every
// attemptsBeforeYielding failed reads.
func archAcquireSpinlock(state *uint32, attemptsBeforeYielding uint32) {
	for {
		if atomic.SwapUint32(state, 1) == 0 {
			return
		}

		for attempts := attemptsBeforeYielding; atomic.LoadUint32(state) != 0; {
			cpuRelax()

			if attempts--; attempts == 0 {
				if yieldFn != nil {
					yieldFn()
				}
				attempts = attemptsBeforeYielding
			}
		}
	}
}

// cpuRelax executes a PAUSE instruction.
func cpuRelax()
