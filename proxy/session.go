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

// Package proxy implements the proxy engine and proxy compiler of
// spec.md §4.6: a remote module (or a remote compiler) made to look
// local over two sockets — one synchronous for request/reply method
// calls, one asynchronous for the remote to solicit a state-safe
// snapshot of the client.
package proxy

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/interrupt"
	"github.com/cascade-sim/cascade/log"
	"github.com/cascade-sim/cascade/rpc"
)

// asyncSelectInterval is how often the listener goroutine's select loop
// wakes to check the shutdown flag when no message has arrived, mirroring
// spec.md §5's "listeners exit on the next select timeout (≈1s)".
const asyncSelectInterval = time.Second

// Session is one proxy connection: the two-socket handshake of spec.md
// §4.6 plus the async listener thread that answers STATE_SAFE_BEGIN.
type Session struct {
	sync  *rpc.Conn
	async *rpc.Conn
	pid   common.Pid

	queue *interrupt.Queue // the local scheduler's interrupt queue

	limiter *rate.Limiter // paces the listener's polling loop

	mu      sync.Mutex
	closing bool
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	asyncFrames chan asyncResult

	stateSafeMu     sync.Mutex
	stateSafeFinish chan struct{} // non-nil while an enqueued state-safe interrupt awaits STATE_SAFE_FINISH
}

type asyncResult struct {
	f   rpc.Frame
	err error
}

// Connect performs the two-step connect of spec.md §4.6: OPEN_CONN_1 on
// the async socket to obtain a pid, then OPEN_CONN_2(pid) on the sync
// socket to bind it, then spawns the async listener. queue is the local
// scheduler's state-safe interrupt queue, used to answer STATE_SAFE_BEGIN.
func Connect(asyncConn, syncConn *rpc.Conn, queue *interrupt.Queue) (*Session, error) {
	reply, _, err := asyncConn.Call(rpc.Frame{Type: rpc.OPEN_CONN_1}, nil, rpc.OKAY)
	if err != nil {
		return nil, err
	}
	pid := reply.Pid

	if _, _, err := syncConn.Call(rpc.Frame{Type: rpc.OPEN_CONN_2, Pid: pid}, nil, rpc.OKAY); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		sync:        syncConn,
		async:       asyncConn,
		pid:         pid,
		queue:       queue,
		limiter:     rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
		asyncFrames: make(chan asyncResult, 1),
	}
	go s.readAsync()
	go s.listen()
	return s, nil
}

// readAsync is the single long-lived reader of the async socket; it feeds
// every frame it reads to asyncFrames so listen's select loop never blocks
// a fresh goroutine per poll.
func (s *Session) readAsync() {
	for {
		f, _, err := s.async.ReadFrame()
		select {
		case s.asyncFrames <- asyncResult{f, err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Pid returns the client handle the remote assigned during handshake.
func (s *Session) Pid() common.Pid { return s.pid }

// listen is the async listener thread of spec.md §4.6 step 3: it selects
// on the async socket, and on STATE_SAFE_BEGIN enqueues a local state-safe
// interrupt that replies STATE_SAFE_OKAY then blocks until the remote's
// STATE_SAFE_FINISH arrives on this socket, letting the remote take a quiescent snapshot
// across the link without racing a step in progress locally.
func (s *Session) listen() {
	for {
		select {
		case <-s.done:
			return
		default:
		}
		if err := s.limiter.Wait(s.ctx); err != nil {
			return
		}

		frame, err := s.pollAsync()
		if err != nil {
			if s.isClosing() {
				return
			}
			log.Warn("proxy: async listener read failed: %v", err)
			continue
		}
		if frame == nil {
			continue // timed out waiting for a message; loop to re-check s.done
		}

		switch frame.Type {
		case rpc.STATE_SAFE_BEGIN:
			s.handleStateSafeBegin()
		case rpc.STATE_SAFE_FINISH:
			s.signalStateSafeFinish()
		default:
			log.Debug("proxy: async listener ignoring unsolicited frame %s", frame.Type)
		}
	}
}

// handleStateSafeBegin enqueues the state-safe interrupt described in
// spec.md §4.6 step 3: reply STATE_SAFE_OKAY, then keep the scheduler's
// drain parked at this interrupt point — so no step resumes locally — until
// the remote's STATE_SAFE_FINISH is observed. It returns as soon as the
// interrupt is enqueued rather than waiting for it to run, so this same
// listener goroutine stays free to read the STATE_SAFE_FINISH frame that
// the enqueued closure is itself waiting on.
func (s *Session) handleStateSafeBegin() {
	finishCh := make(chan struct{})
	s.stateSafeMu.Lock()
	s.stateSafeFinish = finishCh
	s.stateSafeMu.Unlock()

	s.queue.Enqueue(func() {
		if err := s.async.WriteFrame(rpc.Frame{Type: rpc.STATE_SAFE_OKAY, Pid: s.pid}, nil); err != nil {
			log.Warn("proxy: failed to ack STATE_SAFE_BEGIN: %v", err)
			return
		}
		select {
		case <-finishCh:
		case <-s.done:
		}
	})
}

// signalStateSafeFinish wakes the interrupt body blocked in
// handleStateSafeBegin, if one is currently waiting.
func (s *Session) signalStateSafeFinish() {
	s.stateSafeMu.Lock()
	ch := s.stateSafeFinish
	s.stateSafeFinish = nil
	s.stateSafeMu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// pollAsync waits for the next frame readAsync has buffered, with a bounded
// timeout so the listener can periodically re-check the shutdown flag
// (spec.md §5's "listeners exit on the next select timeout"). Returns a
// nil frame (no error) on timeout.
func (s *Session) pollAsync() (*rpc.Frame, error) {
	select {
	case r := <-s.asyncFrames:
		if r.err != nil {
			return nil, r.err
		}
		return &r.f, nil
	case <-time.After(asyncSelectInterval):
		return nil, nil
	case <-s.done:
		return nil, nil
	}
}

// Close sends CLOSE_CONN on the sync socket without waiting for a reply
// (spec.md §4.6 teardown), then closes both sockets.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	_ = s.sync.WriteFrame(rpc.Frame{Type: rpc.CLOSE_CONN, Pid: s.pid}, nil)
	close(s.done)
	s.cancel()
	syncErr := s.sync.Close()
	asyncErr := s.async.Close()
	if syncErr != nil {
		return syncErr
	}
	return asyncErr
}

func (s *Session) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}
