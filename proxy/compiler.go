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
	"context"
	"fmt"

	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/engine"
	"github.com/cascade-sim/cascade/rpc"
)

// Compiler is the proxy compiler of spec.md §4.6: "the same machinery but
// one layer up" — it proxies an entire remote compiler rather than a
// single running engine. It satisfies package dispatch's Backend
// interface, so it plugs into the dispatcher's JIT swap path exactly like
// any specialized backend.
type Compiler struct {
	sess   *Session
	target string
}

// NewCompiler binds a proxy Compiler to an already-connected session.
// target is the annotation this Compiler answers for (e.g. "remote:host:port").
func NewCompiler(sess *Session, target string) *Compiler {
	return &Compiler{sess: sess, target: target}
}

func (c *Compiler) Name() string { return c.target }

// Compile sends the module text over COMPILE and, on success, returns a
// proxy Engine bound to the eid the remote assigned in its reply. The sync
// socket is strictly request/reply (spec.md §5), so Compile blocks for the
// duration of the remote's build rather than racing a second goroutine on
// the same connection. ctx is checked before the call is issued and again
// after the reply arrives; a cancellation seen after the reply sends
// STOP_COMPILE for the eid the remote assigned and returns ctx's error.
func (c *Compiler) Compile(ctx context.Context, eid common.EngineID, text string) (engine.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reply, _, err := c.sess.sync.Call(rpc.Frame{Type: rpc.COMPILE, Pid: c.sess.pid, Eid: eid}, []byte(text), rpc.OKAY)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		c.stopCompile(reply.Eid)
		return nil, ctx.Err()
	}
	return NewEngine(c.sess, reply.Eid), nil
}

// stopCompile issues STOP_COMPILE(eid) to the remote so it abandons the
// matching in-flight candidate (spec.md §4.5 "Cancellation").
func (c *Compiler) stopCompile(eid common.EngineID) {
	_, _, _ = c.sess.sync.Call(rpc.Frame{Type: rpc.STOP_COMPILE, Pid: c.sess.pid, Eid: eid}, nil, rpc.OKAY)
}

// StopCompileAll issues STOP_COMPILE with no eid qualifier, per spec.md
// §4.5's "each backend must implement stop_compile() [to] cancel all".
func (c *Compiler) StopCompileAll() error {
	_, _, err := c.sess.sync.Call(rpc.Frame{Type: rpc.STOP_COMPILE, Pid: c.sess.pid}, nil, rpc.OKAY)
	if err != nil {
		return fmt.Errorf("proxy: stop_compile_all: %w", err)
	}
	return nil
}
