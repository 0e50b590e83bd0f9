package widget

import "sync"

// Dispatcher marshals work onto the UI thread. Widgets built by mdview are
// only mutated from functions passed to Post.
type Dispatcher interface {
	Post(fn func())
}

// Immediate runs posted functions on the caller's goroutine. It suits
// headless rendering where there is no UI thread.
type Immediate struct{}

// Post runs fn.
func (Immediate) Post(fn func()) {
	if fn != nil {
		fn()
	}
}

// Queue collects posted functions until the UI loop drains them.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	notify  chan struct{}
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Post enqueues fn. It is safe for concurrent use.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Ready is signalled when work has been posted since the last Drain.
func (q *Queue) Ready() <-chan struct{} { return q.notify }

// Drain runs every queued function on the calling goroutine and returns how
// many ran.
func (q *Queue) Drain() int {
	q.mu.Lock()
	work := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, fn := range work {
		fn()
	}
	return len(work)
}

// Len returns the number of queued functions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
