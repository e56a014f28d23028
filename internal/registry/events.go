package registry

import "sync"

// eventQueue delivers queued functions on a single worker goroutine, in FIFO
// order. The registry emits listener notifications through it so listener
// code never runs under the registry lock and cannot re-enter it mid-mutation.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func newEventQueue() *eventQueue {
	q := &eventQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// enqueue appends fn to the queue. Events enqueued after close are dropped.
func (q *eventQueue) enqueue(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.queue = append(q.queue, fn)
	q.cond.Signal()
}

// sync blocks until every event enqueued before the call has been delivered.
func (q *eventQueue) sync() {
	ch := make(chan struct{})
	q.enqueue(func() { close(ch) })

	select {
	case <-ch:
	case <-q.done:
	}
}

// close stops the worker after draining the queue.
func (q *eventQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

func (q *eventQueue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.queue) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.queue) == 0 && q.closed {
			q.mu.Unlock()
			return
		}
		fn := q.queue[0]
		q.queue = q.queue[1:]
		q.mu.Unlock()

		fn()
	}
}
