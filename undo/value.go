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

// Package undo implements Cascade's transactional container primitives
// (spec.md §4.2): Value, Set and Vector, each supporting
// Checkpoint/Commit/Undo, in the journal-of-operations shape go-probeum's
// own core/state/journal.go uses to make StateDB mutations revertible.
package undo

// Value is a transactional cell: Checkpoint saves a shadow copy, Undo
// restores it, Commit discards the shadow and makes the current value
// permanent. It is the Go analogue of cascade's original UndoVal<T>.
type Value[T any] struct {
	cur        T
	shadow     T
	haveShadow bool
}

// NewValue constructs a Value holding the given initial contents.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{cur: v}
}

// Get returns the current value.
func (v *Value[T]) Get() T { return v.cur }

// Set replaces the current value. If a checkpoint is open, the pre-
// checkpoint value remains recoverable via Undo.
func (v *Value[T]) Set(nv T) { v.cur = nv }

// Checkpoint records the current value as the undo target.
func (v *Value[T]) Checkpoint() {
	v.shadow = v.cur
	v.haveShadow = true
}

// Commit discards the shadow copy; prior mutation is now permanent.
func (v *Value[T]) Commit() {
	v.haveShadow = false
}

// Undo restores the value saved at the last Checkpoint. It is undefined
// behavior (and, here, a silent no-op) to call Undo without a matching
// Checkpoint, per spec.md §4.2.
func (v *Value[T]) Undo() {
	if !v.haveShadow {
		return
	}
	v.cur = v.shadow
	v.haveShadow = false
}

// ManagedValue is the owning variant of Value: every value that is undone
// (replaced by the shadow) or dropped at destruction time is passed to
// Release, mirroring cascade's "managed" undo containers that own heap
// contents (spec.md §4.2).
type ManagedValue[T any] struct {
	Value[T]
	Release func(T)
}

// NewManagedValue constructs a ManagedValue with the given release callback.
func NewManagedValue[T any](v T, release func(T)) *ManagedValue[T] {
	return &ManagedValue[T]{Value: Value[T]{cur: v}, Release: release}
}

// Set replaces the current value. With no checkpoint open, the displaced
// value is released. While a checkpoint is open nothing is released here,
// since the shadow Undo restores may be the displaced value; a value
// displaced by a later Set in the same checkpoint is not released.
func (v *ManagedValue[T]) Set(nv T) {
	old := v.cur
	v.Value.Set(nv)
	if v.Release != nil && !v.haveShadow {
		v.Release(old)
	}
}

// Undo restores the shadow value, releasing whatever speculative value it
// displaces.
func (v *ManagedValue[T]) Undo() {
	if !v.haveShadow {
		return
	}
	discarded := v.cur
	v.Value.Undo()
	if v.Release != nil {
		v.Release(discarded)
	}
}

// Close releases whatever value remains, mirroring the destructor contract
// of spec.md §4.2 ("destructor releases all remaining elements").
func (v *ManagedValue[T]) Close() {
	if v.Release != nil {
		v.Release(v.cur)
	}
}
