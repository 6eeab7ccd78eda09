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

// Package sw is the always-available software reference engine: a minimal
// interpreter over an already-elaborated primitive netlist, standing in for
// the real Verilog interpreter that spec.md §1 places out of scope ("the
// Verilog lexer/parser and AST, the elaboration/type-checker... are
// external collaborators"). It exists so the scheduler, dispatcher and
// proxy packages have a concrete engine.Engine to drive in tests, and so
// the end-to-end scenarios of spec.md §8 are executable.
package sw

import (
	"github.com/cascade-sim/cascade/bits"
	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/engine"
)

// Program is the minimal "already elaborated" netlist an Engine executes.
// Comb is invoked on every Evaluate with the current combined state+input
// values and must return the full set of combinational output values along
// with any non-blocking-assignment targets that should be held pending
// until Update.
type Program struct {
	// Vars enumerates every variable id this engine owns along with its
	// declared width/sign, used to size a freshly constructed State.
	Vars map[common.VarID]struct {
		Width  uint32
		Signed bool
	}
	// Comb computes the combinational pass: given the merged current
	// state+input values, it returns updated output values (applied
	// immediately) and any registered non-blocking targets (held until
	// Update is called).
	Comb func(vals map[common.VarID]bits.Bits) (out map[common.VarID]bits.Bits, pending map[common.VarID]bits.Bits)
}

// Engine is the reference software Engine implementation.
type Engine struct {
	id    common.EngineID
	iface engine.Interface
	prog  Program

	state   map[common.VarID]bits.Bits
	input   map[common.VarID]bits.Bits
	pending map[common.VarID]bits.Bits
}

// New constructs a software Engine for prog, reporting to iface.
func New(id common.EngineID, iface engine.Interface, prog Program) *Engine {
	e := &Engine{
		id:    id,
		iface: iface,
		prog:  prog,
		state: make(map[common.VarID]bits.Bits),
		input: make(map[common.VarID]bits.Bits),
	}
	for vid, spec := range prog.Vars {
		e.state[vid] = bits.New(spec.Width, 0)
	}
	return e
}

func (e *Engine) ID() common.EngineID { return e.id }

func (e *Engine) merged() map[common.VarID]bits.Bits {
	out := make(map[common.VarID]bits.Bits, len(e.state)+len(e.input))
	for k, v := range e.state {
		out[k] = v
	}
	for k, v := range e.input {
		out[k] = v
	}
	return out
}

// GetState is state-safe: it must produce a value that, fed into a second
// engine for the same module, yields observationally identical future
// behavior (spec.md §4.3's swap invariant).
func (e *Engine) GetState() *engine.Snapshot {
	snap := engine.NewSnapshot()
	for vid, v := range e.state {
		snap.Set(vid, []bits.Bits{v})
	}
	return snap
}

func (e *Engine) SetState(snap *engine.Snapshot) {
	for _, vid := range snap.Ids() {
		if v, ok := snap.Scalar(vid); ok {
			e.state[vid] = v
		}
	}
}

func (e *Engine) GetInput() *engine.Snapshot {
	snap := engine.NewSnapshot()
	for vid, v := range e.input {
		snap.Set(vid, []bits.Bits{v})
	}
	return snap
}

func (e *Engine) SetInput(snap *engine.Snapshot) {
	for _, vid := range snap.Ids() {
		if v, ok := snap.Scalar(vid); ok {
			e.input[vid] = v
		}
	}
}

// Finalize commits end-of-cycle pending assignments that Evaluate staged
// directly into state (the reference engine applies combinational output
// writes immediately, so Finalize here is a no-op hook kept for interface
// symmetry with remote backends that batch their writes).
func (e *Engine) Finalize() {}

func (e *Engine) Read(vid common.VarID) bits.Bits {
	if v, ok := e.state[vid]; ok {
		return v
	}
	return e.input[vid]
}

// Evaluate propagates combinational logic, invoking Interface.WriteBits for
// every output whose value changed.
func (e *Engine) Evaluate() {
	if e.prog.Comb == nil {
		return
	}
	out, pending := e.prog.Comb(e.merged())
	for vid, v := range out {
		old, existed := e.state[vid]
		e.state[vid] = v
		if e.iface != nil && (!existed || !bits.Equal(old, v)) {
			e.iface.WriteBits(vid, v)
		}
	}
	if len(pending) > 0 {
		if e.pending == nil {
			e.pending = make(map[common.VarID]bits.Bits, len(pending))
		}
		for vid, v := range pending {
			e.pending[vid] = v
		}
	}
}

func (e *Engine) ThereAreUpdates() bool { return len(e.pending) > 0 }

func (e *Engine) Update() {
	for vid, v := range e.pending {
		e.state[vid] = v
	}
	e.pending = nil
}

func (e *Engine) ConditionalUpdate() bool {
	if !e.ThereAreUpdates() {
		return false
	}
	e.Update()
	return true
}

// OpenLoop runs Evaluate/ConditionalUpdate once per tick until vidClock
// reads valExpected, bound ticks elapse, or cancel fires. It does not write
// vidClock itself: the clock changes only as the program's Comb drives it.
func (e *Engine) OpenLoop(vidClock common.VarID, valExpected bool, bound uint64, cancel <-chan struct{}) uint64 {
	var i uint64
	for ; i < bound; i++ {
		select {
		case <-cancel:
			return i
		default:
		}
		e.Evaluate()
		e.ConditionalUpdate()
		if v, ok := e.state[vidClock]; ok && v.Bit(0) == valExpected {
			return i + 1
		}
	}
	return i
}

func (e *Engine) OverridesDoneStep() bool       { return false }
func (e *Engine) DoneStep() bool                { return false }
func (e *Engine) OverridesDoneSimulation() bool { return false }
func (e *Engine) DoneSimulation() bool          { return false }

var _ engine.Engine = (*Engine)(nil)
