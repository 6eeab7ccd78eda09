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

package engine

import (
	"github.com/cascade-sim/cascade/bits"
	"github.com/cascade-sim/cascade/common"
)

// Engine is the polymorphic per-module execution handle of spec.md §4.3.
// Every method is either cycle-time (callable during evaluate/update, must
// leave the engine observably unchanged on failure) or state-safe
// (callable only from within a state-safe interrupt, between steps).
//
// Implementations: the software reference interpreter in engine/sw, and the
// remote stand-in in package proxy. The dispatcher is the sole owner of
// every Engine; callers outside the dispatcher only ever hold a borrowed
// reference.
type Engine interface {
	// ID returns the engine id assigned by the dispatcher; stable across a
	// JIT swap (spec.md §3 "Engine").
	ID() common.EngineID

	// State-safe operations.
	GetState() *Snapshot
	SetState(*Snapshot)
	GetInput() *Snapshot
	SetInput(*Snapshot)
	Finalize()

	// Cycle-time operations.
	Read(vid common.VarID) bits.Bits
	Evaluate()
	ThereAreUpdates() bool
	Update()
	ConditionalUpdate() bool

	// OpenLoop toggles the clock port vidClock at full engine speed until
	// it reads valExpected, bound cycles have run, or Cancel is observed.
	// Returns the number of cycles actually executed.
	OpenLoop(vidClock common.VarID, valExpected bool, bound uint64, cancel <-chan struct{}) (cyclesExecuted uint64)

	// OverridesDoneStep/DoneStep and OverridesDoneSimulation/DoneSimulation
	// let an engine signal end-of-step/simulation itself, rather than
	// relying purely on the scheduler's own bookkeeping.
	OverridesDoneStep() bool
	DoneStep() bool
	OverridesDoneSimulation() bool
	DoneSimulation() bool
}

// Interface is the callback surface an Engine invokes for observable
// effects (spec.md §4.3). It is strictly one-directional: the engine calls
// in; the runtime must never call back out to the engine from inside one
// of these methods (spec.md §9 "Interface callbacks from engine threads").
type Interface interface {
	WriteBits(vid common.VarID, val bits.Bits)
	WriteBool(vid common.VarID, val bool)
	Debug(level int, text string)
	Finish(arg int)
	Restart(path string)
	Retarget(march string)
	Save(path string)

	// Stream facade mirroring spec.md §6's FOPEN/IN_AVAIL/PUBSEEKOFF/...
	// group, used by $fopen-style file I/O inside a module.
	FS
}

// FS is the virtual filesystem facade an engine uses for in-module file
// I/O, mirroring the stream protocol named in spec.md §6.
type FS interface {
	Fopen(path string, mode string) (handle int, err error)
	InAvail(handle int) int
	PubSeekOff(handle int, off int64, whence int) (int64, error)
	PubSeekPos(handle int, pos int64) (int64, error)
	PubSync(handle int) error
	SBumpC(handle int) (byte, bool)
	SGetC(handle int) (byte, bool)
	SGetN(handle int, n int) []byte
	SPutC(handle int, b byte)
	SPutN(handle int, p []byte) int
}

// ModuleDecl is the output of elaboration (out of scope per spec.md §1):
// source text already resolved into a target backend annotation and a
// pre-assigned engine id. Cascade's runtime treats elaboration purely as
// an external collaborator producing this value.
type ModuleDecl struct {
	EngineID common.EngineID
	Target   string // "sw" | "de10" | "remote:<addr>" | ...
	Text     string // elaborated source text handed to a backend's compile()
}
