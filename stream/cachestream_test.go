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

package stream

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

type pipeConn struct {
	net.Conn
}

func pipePair() (io1, io2 *pipeConn) {
	a, b := net.Pipe()
	return &pipeConn{a}, &pipeConn{b}
}

func TestWriteThenReadDoesNotDeadlock(t *testing.T) {
	a, b := pipePair()
	ca := New(a, 16)
	cb := New(b, 16)

	done := make(chan error, 1)
	go func() {
		_, err := ca.WriteN([]byte("request"))
		if err == nil {
			err = ca.Flush()
		}
		done <- err
	}()

	buf := make([]byte, len("request"))
	_, err := cb.ReadN(buf)
	require.NoError(t, err)
	require.Equal(t, "request", string(buf))
	require.NoError(t, <-done)
}

func TestReadForcesWriteFlush(t *testing.T) {
	a, b := pipePair()
	ca := New(a, 1024)
	cb := New(b, 1024)

	// Buffer a write without an explicit Flush...
	n, err := ca.WriteN([]byte("ping"))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	received := make(chan string, 1)
	go func() {
		buf := make([]byte, 4)
		if _, err := cb.ReadN(buf); err == nil {
			received <- string(buf)
		}
	}()

	// Issuing a read on ca must flush its pending write first, so the
	// peer observes "ping" without ca ever calling Flush explicitly.
	go func() { _, _ = ca.ReadByte() }()

	require.Equal(t, "ping", <-received)
}
