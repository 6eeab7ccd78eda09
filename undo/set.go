// Copyright 2016 The cascade Authors
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

package undo

// Set is a transactional set: Insert adds to both the live set and the
// current checkpoint's delta; Undo erases every delta key from the live
// set, restoring pre-checkpoint iteration order (insertion order is
// preserved via the order slice, matching go-probeum's journal pattern of
// recording one entry per mutation and replaying it in reverse).
type Set[K comparable] struct {
	live  map[K]struct{}
	order []K // insertion order, for iteration-order stability

	delta     []K // keys inserted since the last Checkpoint
	haveDelta bool
}

// NewSet constructs an empty Set.
func NewSet[K comparable]() *Set[K] {
	return &Set[K]{live: make(map[K]struct{})}
}

// Insert adds k to the set. A no-op if k is already present.
func (s *Set[K]) Insert(k K) {
	if _, ok := s.live[k]; ok {
		return
	}
	s.live[k] = struct{}{}
	s.order = append(s.order, k)
	if s.haveDelta {
		s.delta = append(s.delta, k)
	}
}

// Contains reports whether k is present.
func (s *Set[K]) Contains(k K) bool {
	_, ok := s.live[k]
	return ok
}

// Size returns the number of live elements.
func (s *Set[K]) Size() int { return len(s.order) }

// Elements returns the live elements in insertion order. The returned
// slice must not be mutated by the caller.
func (s *Set[K]) Elements() []K { return s.order }

// Checkpoint opens a new delta scope; subsequent Insert calls are
// recorded so Undo can erase exactly the keys inserted since this call.
func (s *Set[K]) Checkpoint() {
	s.delta = nil
	s.haveDelta = true
}

// Commit discards the delta; prior speculative inserts are now permanent.
func (s *Set[K]) Commit() {
	s.delta = nil
	s.haveDelta = false
}

// Undo erases every key inserted since the last Checkpoint, restoring the
// set (and its iteration order) to its pre-checkpoint state.
func (s *Set[K]) Undo() {
	if !s.haveDelta {
		return
	}
	for _, k := range s.delta {
		delete(s.live, k)
	}
	if len(s.delta) > 0 {
		// order[] only ever grows by appending during this checkpoint's
		// delta entries, so the pre-checkpoint prefix is exactly
		// len(order)-len(delta) long.
		s.order = s.order[:len(s.order)-len(s.delta)]
	}
	s.delta = nil
	s.haveDelta = false
}

// ManagedSet is the owning variant of Set: every key erased by Undo, and
// every key remaining at Close, is passed to Release.
type ManagedSet[K comparable] struct {
	Set[K]
	Release func(K)
}

// NewManagedSet constructs a ManagedSet with the given release callback.
func NewManagedSet[K comparable](release func(K)) *ManagedSet[K] {
	return &ManagedSet[K]{Set: Set[K]{live: make(map[K]struct{})}, Release: release}
}

// Undo erases keys inserted since the last Checkpoint, releasing each one.
func (s *ManagedSet[K]) Undo() {
	if !s.haveDelta {
		return
	}
	doomed := s.delta
	s.Set.Undo()
	if s.Release != nil {
		for _, k := range doomed {
			s.Release(k)
		}
	}
}

// Close releases every remaining element, mirroring the destructor
// contract of spec.md §4.2.
func (s *ManagedSet[K]) Close() {
	if s.Release == nil {
		return
	}
	for _, k := range s.order {
		s.Release(k)
	}
}
