// Copyright 2014 The cascade Authors
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

package common

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfBounds is returned by a slice/concat operation whose
	// bounds fall outside a Bits value's declared width.
	ErrIndexOutOfBounds = errors.New("index out of bounds")

	// ErrNoCheckpoint reports undo/commit without a matching checkpoint.
	// The undo containers do not return it: their Undo and Commit are
	// silent no-ops in that case.
	ErrNoCheckpoint = errors.New("undo/commit called without a matching checkpoint")

	// ErrEngineNotFound reports an engine id with no installed engine
	// (removed, or never registered). No function in this module returns
	// it; Scheduler.Engine returns nil for such an id.
	ErrEngineNotFound = errors.New("engine not found")

	// ErrCompileInFlight is returned when a second compile is requested
	// for an eid that already has one outstanding.
	ErrCompileInFlight = errors.New("a compile is already in flight for this engine id")

	// ErrLocationInUse reports a location that already has an open
	// connection. The proxy connection table does not return it: its Put
	// replaces the existing entry for the location.
	ErrLocationInUse = errors.New("location already has an open connection")

	// ErrShuttingDown reports a request made after request_stop() has been
	// observed. No function in this module returns it.
	ErrShuttingDown = errors.New("runtime is shutting down")
)

// MalformedLiteral is returned by the Bits text decoder when a digit is out
// of range for the declared base, or no digits are present.
type MalformedLiteral struct {
	Offset int
	Reason string
}

func (e *MalformedLiteral) Error() string {
	return fmt.Sprintf("malformed literal at offset %d: %s", e.Offset, e.Reason)
}

// ProtocolError is returned when an RPC reply's type does not match the
// request that provoked it; fatal to the connection it occurred on.
type ProtocolError struct {
	Want, Got byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: expected reply type %d, got %d", e.Want, e.Got)
}

// TransportError wraps an underlying socket read/write/select failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }