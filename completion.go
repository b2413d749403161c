package main

import "sync"

// Completion is a single-shot latch bridging the backend's asynchronous
// commit callback into a blocking wait on the issuing goroutine. One
// producer calls Signal exactly once, one consumer calls Wait. A signal
// that fires before the wait begins is never lost, and spurious wakeups
// are absorbed by re-checking the predicate.
type Completion struct {
	mu   sync.Mutex
	cond *sync.Cond
	done bool
	err  error
}

func NewCompletion() *Completion {
	c := &Completion{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Signal marks the operation committed and wakes the waiter. err carries
// the commit result, nil on success.
func (c *Completion) Signal(err error) {
	c.mu.Lock()
	c.done = true
	c.err = err
	c.mu.Unlock()
	c.cond.Signal()
}

// Wait blocks until Signal has been invoked and returns the commit result.
func (c *Completion) Wait() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.done {
		c.cond.Wait()
	}
	return c.err
}
