// Copyright 2021 The cascade Authors
// This file is part of the cascade library.
//
// The cascade library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The cascade library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the cascade library. If not, see <http://www.gnu.org/licenses/>.

// Package interrupt implements the state-safe interrupt queue of
// spec.md §4.7: a FIFO any goroutine may enqueue onto without blocking,
// but which only the scheduler drains, and only between steps — the
// sole channel through which a JIT swap (package dispatch) or a proxy
// connection (package proxy) may touch engine state owned by the
// scheduler.
package interrupt

import "sync"

// Func is one state-safe interrupt: a closure given exclusive access to
// engine state for its duration. It must not block.
type Func func()

// Queue is a mutex-guarded, drain-between-steps FIFO. The zero value is an
// empty, usable queue; NewQueue returns one.
type Queue struct {
	mu      sync.Mutex
	pending []Func
}

// NewQueue constructs an empty Queue.
func NewQueue() *Queue { return &Queue{} }

// Enqueue appends fn to the queue. Safe to call from any goroutine,
// including from within a Func invoked by Drain — such a re-enqueue lands
// in the slice for the *next* Drain, since this Drain already snapshotted
// and cleared the one it is returning (spec.md §4.7: "interrupts enqueued
// during a drain run on the next drain").
func (q *Queue) Enqueue(fn Func) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, fn)
}

// Drain removes and returns every Func enqueued since the previous Drain,
// in FIFO order. The caller (the scheduler, between steps) is expected to
// invoke each one.
func (q *Queue) Drain() []Func {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	return batch
}

// Len reports the number of interrupts currently queued, for diagnostics.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
