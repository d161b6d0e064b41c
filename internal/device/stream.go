package device

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// defaultQueueDepth bounds how far the host may run ahead of the queue.
const defaultQueueDepth = 1024

// queue is an ordered execution queue drained by one worker goroutine.
type queue struct {
	ops     chan func() error
	pending sync.WaitGroup
	done    chan struct{}
	closed  atomic.Bool

	mu  sync.Mutex
	err error
}

func newQueue(depth int) *queue {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	q := &queue{
		ops:  make(chan func() error, depth),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *queue) run() {
	defer close(q.done)
	for op := range q.ops {
		if err := q.exec(op); err != nil {
			q.mu.Lock()
			if q.err == nil {
				q.err = err
			}
			q.mu.Unlock()
		}
		q.pending.Done()
	}
}

func (q *queue) exec(op func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel panic: %v", r)
		}
	}()
	return op()
}

func (q *queue) submit(op func() error) error {
	if q.closed.Load() {
		return ErrClosed
	}
	q.pending.Add(1)
	q.ops <- op
	return nil
}

// synchronize waits for the queue to drain and returns (and clears) the first
// error raised since the previous call.
func (q *queue) synchronize() error {
	q.pending.Wait()
	q.mu.Lock()
	defer q.mu.Unlock()
	err := q.err
	q.err = nil
	return err
}

func (q *queue) close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(q.ops)
	<-q.done
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}
