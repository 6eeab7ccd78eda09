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

package sim

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cascade-sim/cascade/bits"
	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/engine"
	"github.com/cascade-sim/cascade/engine/sw"
)

const (
	aOut common.VarID = 10
	bIn  common.VarID = 20
	bOut common.VarID = 21
)

// registeredProgram models a clocked register: its Comb computes the next
// value of out combinationally but holds it as a pending (non-blocking)
// assignment, so it only becomes visible to Read after a
// conditional_update — the trigger Step's propagation phase watches for.
func registeredProgram(out common.VarID, width uint32, next func() bits.Bits) sw.Program {
	return sw.Program{
		Vars: map[common.VarID]struct {
			Width  uint32
			Signed bool
		}{out: {Width: width}},
		Comb: func(vals map[common.VarID]bits.Bits) (map[common.VarID]bits.Bits, map[common.VarID]bits.Bits) {
			return nil, map[common.VarID]bits.Bits{out: next()}
		},
	}
}

func passthroughProgram(in, out common.VarID) sw.Program {
	return sw.Program{
		Vars: map[common.VarID]struct {
			Width  uint32
			Signed bool
		}{out: {Width: 8}},
		Comb: func(vals map[common.VarID]bits.Bits) (map[common.VarID]bits.Bits, map[common.VarID]bits.Bits) {
			return map[common.VarID]bits.Bits{out: vals[in]}, nil
		},
	}
}

// TestStepPropagatesAcrossOneEdge matches spec.md §8 scenario 2: once a's
// registered output updates, a single Step carries it into b's bOut via
// bIn in the same step (phase 1 conditional_update, phase 2 propagate,
// phase 3 evaluate).
func TestStepPropagatesAcrossOneEdge(t *testing.T) {
	g := NewGraph()
	g.AddEdge(Edge{SrcEid: 1, SrcVid: aOut, DstEid: 2, DstVid: bIn})

	s := New(g)
	a := sw.New(1, &engine.Recorder{}, registeredProgram(aOut, 8, func() bits.Bits { return bits.New(8, 0x37) }))
	b := sw.New(2, &engine.Recorder{}, passthroughProgram(bIn, bOut))
	s.Register(1, a)
	s.Register(2, b)

	// Stage a's pending update the way a clock edge would, then let Step
	// apply it and propagate.
	a.Evaluate()
	s.Step()

	require.Equal(t, uint64(0x37), b.Read(bOut).Uint64())
}

// TestStepVisitsEachReachedEngineOnce checks that when two edges from
// distinct sources land on the same destination engine, Evaluate on that
// destination runs exactly once per Step.
func TestStepVisitsEachReachedEngineOnce(t *testing.T) {
	g := NewGraph()
	g.AddEdge(Edge{SrcEid: 1, SrcVid: aOut, DstEid: 3, DstVid: bIn})
	g.AddEdge(Edge{SrcEid: 2, SrcVid: aOut, DstEid: 3, DstVid: bOut})

	evalCount := 0
	s := New(g)
	a1 := sw.New(1, &engine.Recorder{}, registeredProgram(aOut, 8, func() bits.Bits { return bits.New(8, 1) }))
	a2 := sw.New(2, &engine.Recorder{}, registeredProgram(aOut, 8, func() bits.Bits { return bits.New(8, 2) }))
	c := &countingEngine{Engine: sw.New(3, &engine.Recorder{}, sw.Program{}), count: &evalCount}

	s.Register(1, a1)
	s.Register(2, a2)
	s.Register(3, c)

	a1.Evaluate()
	a2.Evaluate()

	s.Step()
	require.Equal(t, 1, evalCount)
}

func TestInterruptDrainsBetweenSteps(t *testing.T) {
	g := NewGraph()
	s := New(g)

	ran := false
	s.Interrupts().Enqueue(func() { ran = true })
	s.Step()
	require.True(t, ran)
}

func snapWith(id common.VarID, v bits.Bits) *engine.Snapshot {
	snap := engine.NewSnapshot()
	snap.Set(id, []bits.Bits{v})
	return snap
}

// countingEngine wraps an engine.Engine to count Evaluate calls, used to
// assert the scheduler's dedup-on-propagate behavior.
type countingEngine struct {
	engine.Engine
	count *int
}

func (c *countingEngine) Evaluate() { *c.count++; c.Engine.Evaluate() }

// doneStepEngine wraps an engine.Engine to count DoneStep calls and report
// OverridesDoneStep per the override field, used to assert Step's phase 5
// callback (spec.md §4.4 "call done_step() on every engine").
type doneStepEngine struct {
	engine.Engine
	overrides bool
	calls     *int
}

func (d *doneStepEngine) OverridesDoneStep() bool { return d.overrides }
func (d *doneStepEngine) DoneStep() bool          { *d.calls++; return true }

// TestStepCallsDoneStepOnOverridingEngines matches spec.md §4.4 phase 5:
// after the interrupt drain, done_step() runs on every engine that
// overrides it, and is left alone otherwise.
func TestStepCallsDoneStepOnOverridingEngines(t *testing.T) {
	g := NewGraph()
	s := New(g)

	var overridingCalls, plainCalls int
	overriding := &doneStepEngine{Engine: sw.New(1, &engine.Recorder{}, sw.Program{}), overrides: true, calls: &overridingCalls}
	plain := &doneStepEngine{Engine: sw.New(2, &engine.Recorder{}, sw.Program{}), overrides: false, calls: &plainCalls}
	s.Register(1, overriding)
	s.Register(2, plain)

	s.Step()

	require.Equal(t, 1, overridingCalls)
	require.Equal(t, 0, plainCalls)
}

// doneSimEngine wraps an engine.Engine and reports done_simulation() once
// armed, used to assert the scheduler itself observes termination rather
// than relying solely on a caller's done closure (spec.md §4.4
// "Termination"; scenario 6 of §8).
type doneSimEngine struct {
	engine.Engine
	armed *int32
}

func (d *doneSimEngine) OverridesDoneSimulation() bool { return true }
func (d *doneSimEngine) DoneSimulation() bool          { return atomic.LoadInt32(d.armed) != 0 }

// TestRunExitsOnDoneSimulation matches spec.md §8 scenario 6: the
// scheduler exits cleanly at the next step boundary once some engine
// signals done_simulation(), even when the caller's own done closure is
// hard-wired to false.
func TestRunExitsOnDoneSimulation(t *testing.T) {
	g := NewGraph()
	s := New(g)

	var armed int32
	s.Register(1, &doneSimEngine{Engine: sw.New(1, &engine.Recorder{}, sw.Program{}), armed: &armed})

	go func() {
		time.Sleep(10 * time.Millisecond)
		atomic.StoreInt32(&armed, 1)
	}()

	done := make(chan struct{})
	cancel := make(chan struct{})
	go func() {
		s.Run(func() bool { return false }, cancel)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		close(cancel)
		t.Fatal("Run did not exit once done_simulation was observed")
	}
	require.True(t, s.DoneSimulation())
}
