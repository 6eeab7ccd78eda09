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

package rpc

import (
	"bytes"
	"net"
	"testing"

	"github.com/cascade-sim/cascade/common"
	"github.com/stretchr/testify/require"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	f := Frame{Type: READ, Pid: 42, Eid: 7, N: 0}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, f, got)
}

func TestConnCallRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	sc := NewConn(server)
	cc := NewConn(client)
	defer sc.Close()
	defer cc.Close()

	go func() {
		f, payload, err := sc.ReadFrame()
		if err != nil {
			return
		}
		require.Equal(t, READ, f.Type)
		require.Equal(t, []byte("ping"), payload)
		_ = sc.WriteFrame(Okay(f.Pid, f.Eid), []byte("pong"))
	}()

	reply, payload, err := cc.Call(Frame{Type: READ, Pid: 1, Eid: 2}, []byte("ping"), OKAY)
	require.NoError(t, err)
	require.Equal(t, OKAY, reply.Type)
	require.Equal(t, "pong", string(payload))
}

func TestConnCallFailSurfacesError(t *testing.T) {
	server, client := net.Pipe()
	sc := NewConn(server)
	cc := NewConn(client)
	defer sc.Close()
	defer cc.Close()

	go func() {
		f, _, err := sc.ReadFrame()
		if err != nil {
			return
		}
		failFrame, payload := Fail(f.Pid, f.Eid, "boom")
		_ = sc.WriteFrame(failFrame, payload)
	}()

	_, _, err := cc.Call(Frame{Type: GET_STATE, Pid: 1, Eid: 2}, nil, OKAY)
	require.Error(t, err)
}

func TestConnCallLargePayloadCompresses(t *testing.T) {
	server, client := net.Pipe()
	sc := NewConn(server)
	cc := NewConn(client)
	defer sc.Close()
	defer cc.Close()

	big := bytes.Repeat([]byte{0xAB}, compressThreshold*4)

	go func() {
		f, payload, err := sc.ReadFrame()
		if err != nil {
			return
		}
		_ = sc.WriteFrame(Okay(f.Pid, f.Eid), payload)
	}()

	_, payload, err := cc.Call(Frame{Type: SET_STATE, Pid: 1, Eid: 2}, big, OKAY)
	require.NoError(t, err)
	require.Equal(t, big, payload)
}

func TestDialRejectsBadAddr(t *testing.T) {
	_, err := Dial("127.0.0.1:1") // nothing listens on port 1
	require.Error(t, err)
	var te *common.TransportError
	require.ErrorAs(t, err, &te)
}
