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

package proxy

import (
	"encoding/binary"

	"github.com/cascade-sim/cascade/bits"
	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/engine"
	"github.com/cascade-sim/cascade/rpc"
)

// Engine makes a remote module look local: every engine.Engine method
// becomes one synchronous request/reply round trip on the session's sync
// socket (spec.md §4.6).
type Engine struct {
	sess *Session
	eid  common.EngineID
}

// NewEngine binds a proxy Engine to eid over an already-connected session.
func NewEngine(sess *Session, eid common.EngineID) *Engine {
	return &Engine{sess: sess, eid: eid}
}

func (e *Engine) ID() common.EngineID { return e.eid }

func (e *Engine) call(t rpc.Type, payload []byte, want rpc.Type) ([]byte, error) {
	_, reply, err := e.sess.sync.Call(rpc.Frame{Type: t, Pid: e.sess.pid, Eid: e.eid}, payload, want)
	return reply, err
}

func (e *Engine) GetState() *engine.Snapshot {
	payload, err := e.call(rpc.GET_STATE, nil, rpc.GET_STATE)
	if err != nil {
		return engine.NewSnapshot()
	}
	snap, err := engine.UnmarshalSnapshot(payload)
	if err != nil {
		return engine.NewSnapshot()
	}
	return snap
}

func (e *Engine) SetState(snap *engine.Snapshot) {
	_, _ = e.call(rpc.SET_STATE, snap.MarshalBinary(), rpc.OKAY)
}

func (e *Engine) GetInput() *engine.Snapshot {
	payload, err := e.call(rpc.GET_INPUT, nil, rpc.GET_INPUT)
	if err != nil {
		return engine.NewSnapshot()
	}
	snap, err := engine.UnmarshalSnapshot(payload)
	if err != nil {
		return engine.NewSnapshot()
	}
	return snap
}

func (e *Engine) SetInput(snap *engine.Snapshot) {
	_, _ = e.call(rpc.SET_INPUT, snap.MarshalBinary(), rpc.OKAY)
}

func (e *Engine) Finalize() {
	_, _ = e.call(rpc.FINALIZE, nil, rpc.OKAY)
}

func (e *Engine) Read(vid common.VarID) bits.Bits {
	var payload [4]byte
	binary.LittleEndian.PutUint32(payload[:], uint32(vid))
	reply, err := e.call(rpc.READ, payload[:], rpc.READ)
	if err != nil {
		return bits.Bits{}
	}
	v, _, err := bits.UnmarshalBits(reply)
	if err != nil {
		return bits.Bits{}
	}
	return v
}

func (e *Engine) Evaluate() {
	_, _ = e.call(rpc.EVALUATE, nil, rpc.OKAY)
}

func (e *Engine) ThereAreUpdates() bool {
	reply, err := e.call(rpc.THERE_ARE_UPDATES, nil, rpc.THERE_ARE_UPDATES)
	return err == nil && len(reply) == 1 && reply[0] != 0
}

func (e *Engine) Update() {
	_, _ = e.call(rpc.UPDATE, nil, rpc.OKAY)
}

func (e *Engine) ConditionalUpdate() bool {
	reply, err := e.call(rpc.CONDITIONAL_UPDATE, nil, rpc.CONDITIONAL_UPDATE)
	return err == nil && len(reply) == 1 && reply[0] != 0
}

// OpenLoop serializes vidClock/valExpected/bound into an OPEN_LOOP request
// and returns the cyclesExecuted the remote reports; cancel is observed
// locally only: if it has already fired, no request is sent and 0 is
// returned, and once the request is sent the remote runs until its own bound
// or target value stops it (spec.md §4.3).
func (e *Engine) OpenLoop(vidClock common.VarID, valExpected bool, bound uint64, cancel <-chan struct{}) uint64 {
	var payload [13]byte
	binary.LittleEndian.PutUint32(payload[0:4], uint32(vidClock))
	if valExpected {
		payload[4] = 1
	}
	binary.LittleEndian.PutUint64(payload[5:13], bound)

	select {
	case <-cancel:
		return 0
	default:
	}
	reply, err := e.call(rpc.OPEN_LOOP, payload[:], rpc.OPEN_LOOP)
	if err != nil || len(reply) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(reply)
}

func (e *Engine) OverridesDoneStep() bool       { return e.boolCall(rpc.OVERRIDES_DONE_STEP) }
func (e *Engine) DoneStep() bool                { return e.boolCall(rpc.DONE_STEP) }
func (e *Engine) OverridesDoneSimulation() bool { return e.boolCall(rpc.OVERRIDES_DONE_SIMULATION) }
func (e *Engine) DoneSimulation() bool          { return e.boolCall(rpc.DONE_SIMULATION) }

func (e *Engine) boolCall(t rpc.Type) bool {
	reply, err := e.call(t, nil, t)
	return err == nil && len(reply) == 1 && reply[0] != 0
}

var _ engine.Engine = (*Engine)(nil)
