package sync

import "sync/atomic"

// Once guards a one-time initialization step. Unlike the standard library
// version it is built on top of Spinlock so it can be used before the Go
// runtime scheduler is available.
type Once struct {
	done uint32
	lock Spinlock
}

// Do invokes fn if and only if Do is being called for the first time for
// this instance. Concurrent callers spin until the first invocation of fn
// returns.
func (o *Once) Do(fn func()) {
	if atomic.LoadUint32(&o.done) == 1 {
		return
	}

	o.lock.Acquire()
	if o.done == 0 {
		fn()
		atomic.StoreUint32(&o.done, 1)
	}
	o.lock.Release()
}

// Done returns true if a call to Do has completed.
func (o *Once) Done() bool {
	return atomic.LoadUint32(&o.done) == 1
}
