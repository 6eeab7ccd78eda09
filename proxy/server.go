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
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/engine"
	"github.com/cascade-sim/cascade/log"
	"github.com/cascade-sim/cascade/rpc"
	"github.com/cascade-sim/cascade/sim"
)

// stateCacheBytes bounds the fastcache backing repeated GET_STATE polls of
// an unchanged engine; small by design since entries are one snapshot's
// serialized bytes each and turn over on every mutating call.
const stateCacheBytes = 4 * 1024 * 1024

// Server accepts the two listener sockets of spec.md §4.6 ("Client opens
// the async socket... opens the sync socket...") from the opposite side:
// it is the remote process a proxy Engine/Compiler is dialing into,
// fronting a Scheduler so the caller's module graph looks local to us and
// our module graph looks local to them.
type Server struct {
	sched *sim.Scheduler

	nextPid uint32 // atomic

	pendingMu sync.Mutex
	pending   map[common.Pid]*rpc.Conn // async conns awaiting their OPEN_CONN_2

	sessionsMu sync.Mutex
	sessions   map[common.Pid]*serverSession

	stateCache *fastcache.Cache
	genMu      sync.Mutex
	gen        map[common.EngineID]uint64
}

type serverSession struct {
	asyncConn *rpc.Conn
	syncConn  *rpc.Conn
	pid       common.Pid
}

// NewServer constructs a Server fronting sched.
func NewServer(sched *sim.Scheduler) *Server {
	return &Server{
		sched:      sched,
		pending:    make(map[common.Pid]*rpc.Conn),
		sessions:   make(map[common.Pid]*serverSession),
		stateCache: fastcache.New(stateCacheBytes),
		gen:        make(map[common.EngineID]uint64),
	}
}

// bumpGeneration invalidates any cached GET_STATE reply for eid by
// advancing the generation its cache key is keyed on.
func (s *Server) bumpGeneration(eid common.EngineID) {
	s.genMu.Lock()
	s.gen[eid]++
	s.genMu.Unlock()
}

func (s *Server) stateCacheKey(eid common.EngineID) []byte {
	s.genMu.Lock()
	gen := s.gen[eid]
	s.genMu.Unlock()
	return []byte(fmt.Sprintf("%d:%d", eid, gen))
}

// ServeAsync accepts connections on l forever, treating each as an
// OPEN_CONN_1 handshake attempt.
func (s *Server) ServeAsync(l net.Listener) error {
	for {
		c, err := l.Accept()
		if err != nil {
			return err
		}
		tuneSocket(c)
		go s.acceptAsync(rpc.NewConn(c))
	}
}

// ServeSync accepts connections on l forever, treating each as an
// OPEN_CONN_2 handshake attempt that completes a pending async connection.
func (s *Server) ServeSync(l net.Listener) error {
	for {
		c, err := l.Accept()
		if err != nil {
			return err
		}
		tuneSocket(c)
		go s.acceptSync(rpc.NewConn(c))
	}
}

func (s *Server) acceptAsync(conn *rpc.Conn) {
	frame, _, err := conn.ReadFrame()
	if err != nil || frame.Type != rpc.OPEN_CONN_1 {
		_ = conn.Close()
		return
	}
	pid := common.Pid(atomic.AddUint32(&s.nextPid, 1))

	s.pendingMu.Lock()
	s.pending[pid] = conn
	s.pendingMu.Unlock()

	if err := conn.WriteFrame(rpc.Okay(pid, 0), nil); err != nil {
		log.Warn("proxy: server failed to ack OPEN_CONN_1: %v", err)
	}
}

func (s *Server) acceptSync(conn *rpc.Conn) {
	frame, _, err := conn.ReadFrame()
	if err != nil || frame.Type != rpc.OPEN_CONN_2 {
		_ = conn.Close()
		return
	}
	pid := frame.Pid

	s.pendingMu.Lock()
	asyncConn, ok := s.pending[pid]
	delete(s.pending, pid)
	s.pendingMu.Unlock()
	if !ok {
		_ = conn.Close()
		return
	}

	if err := conn.WriteFrame(rpc.Okay(pid, 0), nil); err != nil {
		log.Warn("proxy: server failed to ack OPEN_CONN_2: %v", err)
		return
	}

	sess := &serverSession{asyncConn: asyncConn, syncConn: conn, pid: pid}
	s.sessionsMu.Lock()
	s.sessions[pid] = sess
	s.sessionsMu.Unlock()

	go s.serveSync(sess)
}

// serveSync dispatches Core/Interface/Compiler-group requests arriving on
// one client's sync socket to the engines this Server's Scheduler owns.
func (s *Server) serveSync(sess *serverSession) {
	defer func() {
		s.sessionsMu.Lock()
		delete(s.sessions, sess.pid)
		s.sessionsMu.Unlock()
		_ = sess.syncConn.Close()
	}()

	for {
		frame, payload, err := sess.syncConn.ReadFrame()
		if err != nil {
			return
		}
		if frame.Type == rpc.CLOSE_CONN {
			return
		}
		reply, out, ok := s.dispatch(frame, payload)
		if !ok {
			reply, out = rpc.Fail(frame.Pid, frame.Eid, "unsupported request")
		}
		if err := sess.syncConn.WriteFrame(reply, out); err != nil {
			return
		}
	}
}

// dispatch serves the Core-group methods against s.sched's engine table.
// Compiler-group (COMPILE) requests are intentionally not served here: a
// Server fronts a Scheduler's already-installed engines, while compiling
// new ones from source text is package dispatch's job on this same
// process, not something the remote wire protocol re-implements.
func (s *Server) dispatch(f rpc.Frame, payload []byte) (rpc.Frame, []byte, bool) {
	e := s.sched.Engine(f.Eid)
	if e == nil {
		return rpc.Frame{}, nil, false
	}
	switch f.Type {
	case rpc.GET_STATE:
		key := s.stateCacheKey(f.Eid)
		if cached, ok := s.stateCache.HasGet(nil, key); ok {
			return rpc.Frame{Type: rpc.GET_STATE, Pid: f.Pid, Eid: f.Eid}, cached, true
		}
		out := e.GetState().MarshalBinary()
		s.stateCache.Set(key, out)
		return rpc.Frame{Type: rpc.GET_STATE, Pid: f.Pid, Eid: f.Eid}, out, true
	case rpc.SET_STATE:
		snap, err := engineUnmarshal(payload)
		if err != nil {
			return rpc.Frame{}, nil, false
		}
		e.SetState(snap)
		s.bumpGeneration(f.Eid)
		return rpc.Okay(f.Pid, f.Eid), nil, true
	case rpc.GET_INPUT:
		return rpc.Frame{Type: rpc.GET_INPUT, Pid: f.Pid, Eid: f.Eid}, e.GetInput().MarshalBinary(), true
	case rpc.SET_INPUT:
		snap, err := engineUnmarshal(payload)
		if err != nil {
			return rpc.Frame{}, nil, false
		}
		e.SetInput(snap)
		s.bumpGeneration(f.Eid)
		return rpc.Okay(f.Pid, f.Eid), nil, true
	case rpc.FINALIZE:
		e.Finalize()
		s.bumpGeneration(f.Eid)
		return rpc.Okay(f.Pid, f.Eid), nil, true
	case rpc.READ:
		if len(payload) < 4 {
			return rpc.Frame{}, nil, false
		}
		vid := common.VarID(binary.LittleEndian.Uint32(payload))
		return rpc.Frame{Type: rpc.READ, Pid: f.Pid, Eid: f.Eid}, e.Read(vid).MarshalBinary(), true
	case rpc.EVALUATE:
		e.Evaluate()
		s.bumpGeneration(f.Eid)
		return rpc.Okay(f.Pid, f.Eid), nil, true
	case rpc.THERE_ARE_UPDATES:
		return rpc.Frame{Type: rpc.THERE_ARE_UPDATES, Pid: f.Pid, Eid: f.Eid}, boolByte(e.ThereAreUpdates()), true
	case rpc.UPDATE:
		e.Update()
		s.bumpGeneration(f.Eid)
		return rpc.Okay(f.Pid, f.Eid), nil, true
	case rpc.CONDITIONAL_UPDATE:
		updated := e.ConditionalUpdate()
		if updated {
			s.bumpGeneration(f.Eid)
		}
		return rpc.Frame{Type: rpc.CONDITIONAL_UPDATE, Pid: f.Pid, Eid: f.Eid}, boolByte(updated), true
	case rpc.OPEN_LOOP:
		if len(payload) < 13 {
			return rpc.Frame{}, nil, false
		}
		vidClock := common.VarID(binary.LittleEndian.Uint32(payload[0:4]))
		valExpected := payload[4] != 0
		bound := binary.LittleEndian.Uint64(payload[5:13])
		cycles := e.OpenLoop(vidClock, valExpected, bound, nil)
		s.bumpGeneration(f.Eid)
		out := make([]byte, 8)
		binary.LittleEndian.PutUint64(out, cycles)
		return rpc.Frame{Type: rpc.OPEN_LOOP, Pid: f.Pid, Eid: f.Eid}, out, true
	case rpc.OVERRIDES_DONE_STEP:
		return rpc.Frame{Type: rpc.OVERRIDES_DONE_STEP, Pid: f.Pid, Eid: f.Eid}, boolByte(e.OverridesDoneStep()), true
	case rpc.DONE_STEP:
		return rpc.Frame{Type: rpc.DONE_STEP, Pid: f.Pid, Eid: f.Eid}, boolByte(e.DoneStep()), true
	case rpc.OVERRIDES_DONE_SIMULATION:
		return rpc.Frame{Type: rpc.OVERRIDES_DONE_SIMULATION, Pid: f.Pid, Eid: f.Eid}, boolByte(e.OverridesDoneSimulation()), true
	case rpc.DONE_SIMULATION:
		return rpc.Frame{Type: rpc.DONE_SIMULATION, Pid: f.Pid, Eid: f.Eid}, boolByte(e.DoneSimulation()), true
	default:
		return rpc.Frame{}, nil, false
	}
}

func engineUnmarshal(payload []byte) (*engine.Snapshot, error) {
	return engine.UnmarshalSnapshot(payload)
}

func boolByte(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}
