// Package loop provides a single execution context: tasks posted to a Loop
// run one at a time, in posting order, on one goroutine.
package loop

import (
	"log/slog"
	"sync"
)

// Loop is an unbounded FIFO task queue drained by a single goroutine.
// Post never blocks, so a caller can hand work to the loop from inside a
// transport delivery callback and return before any of it runs.
type Loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
	logger *slog.Logger
}

func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		done:   make(chan struct{}),
		logger: logger,
	}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Post schedules fn on the next turn of the loop. It reports false when the
// loop has been closed and fn will never run.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.tasks = append(l.tasks, fn)
	l.cond.Signal()
	return true
}

// Sync blocks until every task posted before the call has run. It must not
// be called from a task, it would wait on itself.
func (l *Loop) Sync() bool {
	ch := make(chan struct{})
	if !l.Post(func() { close(ch) }) {
		return false
	}
	select {
	case <-ch:
		return true
	case <-l.done:
		return false
	}
}

// Close stops the loop. Tasks still queued are dropped. Close does not wait
// for a running task to finish; use Done for that.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	l.tasks = nil
	l.cond.Broadcast()
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) run() {
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.tasks) == 0 && !l.closed {
			l.cond.Wait()
		}
		if l.closed {
			l.mu.Unlock()
			return
		}
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.exec(task)
	}
}

func (l *Loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r)
		}
	}()
	task()
}
