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

// Vector is a transactional, append-only-between-checkpoints sequence.
// Checkpoint records the current length; Undo truncates back to it.
type Vector[T any] struct {
	items     []T
	savedLen  int
	haveSaved bool
}

// NewVector constructs an empty Vector.
func NewVector[T any]() *Vector[T] {
	return &Vector[T]{}
}

// Append adds v to the end of the vector.
func (vec *Vector[T]) Append(v T) {
	vec.items = append(vec.items, v)
}

// Len returns the current length.
func (vec *Vector[T]) Len() int { return len(vec.items) }

// At returns the element at index i.
func (vec *Vector[T]) At(i int) T { return vec.items[i] }

// Items returns the live elements. The returned slice must not be mutated.
func (vec *Vector[T]) Items() []T { return vec.items }

// Checkpoint records the current length as the undo target.
func (vec *Vector[T]) Checkpoint() {
	vec.savedLen = len(vec.items)
	vec.haveSaved = true
}

// Commit discards the saved length; prior speculative growth is permanent.
func (vec *Vector[T]) Commit() {
	vec.haveSaved = false
}

// Undo truncates the vector back to the length recorded at the last
// Checkpoint.
func (vec *Vector[T]) Undo() {
	if !vec.haveSaved {
		return
	}
	vec.items = vec.items[:vec.savedLen]
	vec.haveSaved = false
}

// ManagedVector is the owning variant of Vector: every element truncated
// away by Undo, and every element remaining at Close, is passed to Release.
type ManagedVector[T any] struct {
	Vector[T]
	Release func(T)
}

// NewManagedVector constructs a ManagedVector with the given release
// callback.
func NewManagedVector[T any](release func(T)) *ManagedVector[T] {
	return &ManagedVector[T]{Release: release}
}

// Undo truncates back to the checkpointed length, releasing every
// truncated element.
func (vec *ManagedVector[T]) Undo() {
	if !vec.haveSaved {
		return
	}
	doomed := append([]T(nil), vec.items[vec.savedLen:]...)
	vec.Vector.Undo()
	if vec.Release != nil {
		for _, v := range doomed {
			vec.Release(v)
		}
	}
}

// Close releases every remaining element.
func (vec *ManagedVector[T]) Close() {
	if vec.Release == nil {
		return
	}
	for _, v := range vec.items {
		vec.Release(v)
	}
}
