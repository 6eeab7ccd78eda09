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

//go:build unix

package proxy

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/cascade-sim/cascade/log"
)

// tuneSocket sets SO_REUSEADDR and SO_KEEPALIVE on a just-accepted TCP
// connection's underlying file descriptor. A proxy session is long-lived
// (spec.md §5's one listener thread per open connection, parked in
// select for the life of the connection), so a dead peer's half-open
// socket should be reclaimed by the kernel's keepalive probes rather than
// wedge the listener's accept backlog.
func tuneSocket(c net.Conn) {
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		log.Debug("proxy: could not obtain raw conn for sockopts: %v", err)
		return
	}
	ctrlErr := raw.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			log.Debug("proxy: SO_REUSEADDR failed: %v", err)
		}
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); err != nil {
			log.Debug("proxy: SO_KEEPALIVE failed: %v", err)
		}
	})
	if ctrlErr != nil {
		log.Debug("proxy: sockopt control failed: %v", ctrlErr)
	}
}
