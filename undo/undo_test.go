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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueCheckpointUndo(t *testing.T) {
	v := NewValue(1)
	v.Checkpoint()
	v.Set(2)
	v.Set(3)
	v.Undo()
	require.Equal(t, 1, v.Get())
}

func TestValueCheckpointCommit(t *testing.T) {
	v := NewValue(1)
	v.Checkpoint()
	v.Set(2)
	v.Commit()
	v.Undo() // no matching checkpoint: no-op
	require.Equal(t, 2, v.Get())
}

func TestManagedValueReleasesOnUndo(t *testing.T) {
	var released []int
	v := NewManagedValue(1, func(x int) { released = append(released, x) })
	v.Checkpoint()
	v.Set(2)
	v.Undo()
	require.Equal(t, 1, v.Get())
	require.Equal(t, []int{2}, released)
}

// TestSetInsertSevenKeysUndo matches spec.md §8 scenario 5: insert k=7 keys
// between checkpoint/undo; size returns to its pre-checkpoint value (1, the
// key inserted before the checkpoint), iteration order unchanged.
func TestSetInsertSevenKeysUndo(t *testing.T) {
	s := NewSet[uint32]()
	s.Insert(100)
	s.Checkpoint()
	for i := uint32(0); i < 7; i++ {
		s.Insert(i)
	}
	require.Equal(t, 8, s.Size())
	s.Undo()
	require.Equal(t, 1, s.Size())
	require.Equal(t, []uint32{100}, s.Elements())
}

func TestSetCommitIsNoop(t *testing.T) {
	s := NewSet[uint32]()
	s.Checkpoint()
	s.Insert(1)
	s.Insert(2)
	s.Commit()
	s.Undo()
	require.Equal(t, 2, s.Size())
}

func TestManagedSetReleasesErasedKeys(t *testing.T) {
	var released []uint32
	s := NewManagedSet[uint32](func(k uint32) { released = append(released, k) })
	s.Checkpoint()
	s.Insert(1)
	s.Insert(2)
	s.Undo()
	require.ElementsMatch(t, []uint32{1, 2}, released)
}

func TestVectorCheckpointUndoTruncates(t *testing.T) {
	v := NewVector[int]()
	v.Append(1)
	v.Checkpoint()
	v.Append(2)
	v.Append(3)
	v.Undo()
	require.Equal(t, 1, v.Len())
	require.Equal(t, 1, v.At(0))
}

func TestManagedVectorReleasesTruncated(t *testing.T) {
	var released []int
	v := NewManagedVector[int](func(x int) { released = append(released, x) })
	v.Append(1)
	v.Checkpoint()
	v.Append(2)
	v.Append(3)
	v.Undo()
	require.Equal(t, []int{2, 3}, released)
}
