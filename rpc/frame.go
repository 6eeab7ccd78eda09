// Copyright 2017-2019 VMware, Inc.
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

// Package rpc implements the wire frame of spec.md §6: a single flat byte
// type enum shared by the core/interface/compiler/proxy groups, a fixed
// header (type, pid, eid, n), and an optional payload whose shape is keyed
// off type. Ported from cascade's original src/cascade/target/compiler/rpc.h,
// which keeps one Type enum rather than four separate wire types — this
// module follows that (newer) revision over the older tree's per-group
// split, per SPEC_FULL.md's resolution of Open Question (1).
package rpc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cascade-sim/cascade/common"
)

// Type is the RPC frame's tag byte.
type Type uint8

const (
	// Generic
	OKAY Type = iota
	FAIL

	// Compiler API
	COMPILE
	STOP_COMPILE

	// Core API (per step)
	GET_STATE
	SET_STATE
	GET_INPUT
	SET_INPUT
	FINALIZE

	OVERRIDES_DONE_STEP
	DONE_STEP
	OVERRIDES_DONE_SIMULATION
	DONE_SIMULATION

	READ
	EVALUATE
	THERE_ARE_UPDATES
	UPDATE
	THERE_WERE_TASKS

	CONDITIONAL_UPDATE
	OPEN_LOOP

	// Interface API
	WRITE_BITS
	WRITE_BOOL

	DEBUG
	FINISH
	RESTART
	RETARGET
	SAVE

	FOPEN
	IN_AVAIL
	PUBSEEKOFF
	PUBSEEKPOS
	PUBSYNC
	SBUMPC
	SGETC
	SGETN
	SPUTC
	SPUTN

	// Proxy compiler codes
	OPEN_CONN_1
	OPEN_CONN_2
	CLOSE_CONN
	STATE_SAFE_BEGIN
	STATE_SAFE_OKAY
	STATE_SAFE_FINISH

	// Proxy core codes
	TEARDOWN_ENGINE
)

var typeNames = map[Type]string{
	OKAY: "OKAY", FAIL: "FAIL",
	COMPILE: "COMPILE", STOP_COMPILE: "STOP_COMPILE",
	GET_STATE: "GET_STATE", SET_STATE: "SET_STATE", GET_INPUT: "GET_INPUT", SET_INPUT: "SET_INPUT", FINALIZE: "FINALIZE",
	OVERRIDES_DONE_STEP: "OVERRIDES_DONE_STEP", DONE_STEP: "DONE_STEP",
	OVERRIDES_DONE_SIMULATION: "OVERRIDES_DONE_SIMULATION", DONE_SIMULATION: "DONE_SIMULATION",
	READ: "READ", EVALUATE: "EVALUATE", THERE_ARE_UPDATES: "THERE_ARE_UPDATES", UPDATE: "UPDATE", THERE_WERE_TASKS: "THERE_WERE_TASKS",
	CONDITIONAL_UPDATE: "CONDITIONAL_UPDATE", OPEN_LOOP: "OPEN_LOOP",
	WRITE_BITS: "WRITE_BITS", WRITE_BOOL: "WRITE_BOOL",
	DEBUG: "DEBUG", FINISH: "FINISH", RESTART: "RESTART", RETARGET: "RETARGET", SAVE: "SAVE",
	FOPEN: "FOPEN", IN_AVAIL: "IN_AVAIL", PUBSEEKOFF: "PUBSEEKOFF", PUBSEEKPOS: "PUBSEEKPOS", PUBSYNC: "PUBSYNC",
	SBUMPC: "SBUMPC", SGETC: "SGETC", SGETN: "SGETN", SPUTC: "SPUTC", SPUTN: "SPUTN",
	OPEN_CONN_1: "OPEN_CONN_1", OPEN_CONN_2: "OPEN_CONN_2", CLOSE_CONN: "CLOSE_CONN",
	STATE_SAFE_BEGIN: "STATE_SAFE_BEGIN", STATE_SAFE_OKAY: "STATE_SAFE_OKAY", STATE_SAFE_FINISH: "STATE_SAFE_FINISH",
	TEARDOWN_ENGINE: "TEARDOWN_ENGINE",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Frame is the fixed RPC header of spec.md §6: type:u8 | pid:u32 | eid:u32 |
// n:u32, little-endian, optionally followed by a type-dependent payload.
type Frame struct {
	Type Type
	Pid  common.Pid
	Eid  common.EngineID
	N    uint32
}

const headerSize = 1 + 4 + 4 + 4

// WriteTo serializes the frame header to w.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	var buf [headerSize]byte
	buf[0] = byte(f.Type)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(f.Pid))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(f.Eid))
	binary.LittleEndian.PutUint32(buf[9:13], f.N)
	n, err := w.Write(buf[:])
	return int64(n), err
}

// ReadFrame deserializes one frame header from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Frame{}, err
	}
	return Frame{
		Type: Type(buf[0]),
		Pid:  common.Pid(binary.LittleEndian.Uint32(buf[1:5])),
		Eid:  common.EngineID(binary.LittleEndian.Uint32(buf[5:9])),
		N:    binary.LittleEndian.Uint32(buf[9:13]),
	}, nil
}

// Okay builds a generic OKAY frame echoing the acting pid/eid, per
// spec.md §6 ("Every OKAY carries the acting pid/eid echoed").
func Okay(pid common.Pid, eid common.EngineID) Frame {
	return Frame{Type: OKAY, Pid: pid, Eid: eid}
}

// Fail builds a FAIL frame; msg, if non-empty, is carried as a
// null-terminated payload by the caller via Conn.WriteFrame.
func Fail(pid common.Pid, eid common.EngineID, msg string) (Frame, []byte) {
	var payload []byte
	if msg != "" {
		payload = append([]byte(msg), 0)
	}
	return Frame{Type: FAIL, Pid: pid, Eid: eid, N: uint32(len(payload))}, payload
}
