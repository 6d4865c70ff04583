// SPDX-FileCopyrightText: 2012 - 2026 Tails developers <tails@boum.org>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package idle runs deferred calls one at a time on a dedicated goroutine,
// so they never run on the stack of the code that scheduled them.
package idle

import (
	"sync"
)

// Queue is unbounded: Add never waits for the calls before it to run.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	started bool
	stopped bool
	pending []func()
	done    chan struct{}
}

func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true
	go q.loop()
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.stopped {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		fn()
	}
}

// Add schedules fn. It returns false if the queue is stopped.
func (q *Queue) Add(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return false
	}
	q.pending = append(q.pending, fn)
	q.cond.Signal()
	return true
}

// Stop runs the calls already scheduled and waits for them. It must not be
// called from a scheduled call.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cond.Broadcast()
	started := q.started
	q.mu.Unlock()
	if started {
		<-q.done
	}
}
