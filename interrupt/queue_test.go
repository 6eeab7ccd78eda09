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

package interrupt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDrainReturnsFIFOOrder(t *testing.T) {
	q := NewQueue()
	var order []int
	q.Enqueue(func() { order = append(order, 1) })
	q.Enqueue(func() { order = append(order, 2) })
	q.Enqueue(func() { order = append(order, 3) })

	for _, fn := range q.Drain() {
		fn()
	}
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestDrainIsEmptyAfterConsumption(t *testing.T) {
	q := NewQueue()
	q.Enqueue(func() {})
	_ = q.Drain()
	require.Equal(t, 0, q.Len())
	require.Empty(t, q.Drain())
}

func TestReenqueueDuringDrainDefersToNextDrain(t *testing.T) {
	q := NewQueue()
	var ran []string
	q.Enqueue(func() {
		ran = append(ran, "first")
		q.Enqueue(func() { ran = append(ran, "requeued") })
	})

	for _, fn := range q.Drain() {
		fn()
	}
	require.Equal(t, []string{"first"}, ran)

	for _, fn := range q.Drain() {
		fn()
	}
	require.Equal(t, []string{"first", "requeued"}, ran)
}

func TestEnqueueIsSafeFromManyGoroutines(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(func() {})
		}()
	}
	wg.Wait()
	require.Equal(t, 64, q.Len())
}
