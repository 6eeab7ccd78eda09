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

package dispatch

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/engine"
	"github.com/cascade-sim/cascade/log"
	"github.com/cascade-sim/cascade/sim"
)

// DefaultWorkers is the default size of the bounded compile worker pool
// (spec.md §5 "a bounded worker pool for compilations (default 4)").
const DefaultWorkers = 4

// Dispatcher owns the mapping from target annotation to Backend and
// drives the install-then-swap protocol of spec.md §4.5. One Dispatcher
// serves one Scheduler.
type Dispatcher struct {
	sched *sim.Scheduler
	build Builder
	sem   *semaphore.Weighted

	mu       sync.Mutex
	backends map[string]Backend
	inflight map[common.EngineID]context.CancelFunc
}

// New constructs a Dispatcher over sched. build is used for the always-on
// software fallback; workers bounds the compile worker pool (DefaultWorkers
// if <= 0).
func New(sched *sim.Scheduler, build Builder, workers int) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Dispatcher{
		sched:    sched,
		build:    build,
		sem:      semaphore.NewWeighted(int64(workers)),
		backends: make(map[string]Backend),
		inflight: make(map[common.EngineID]context.CancelFunc),
	}
}

// RegisterBackend makes backend available under the target name it
// reports from Name().
func (d *Dispatcher) RegisterBackend(b Backend) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backends[b.Name()] = b
}

// Install performs spec.md §4.5 step 1 (synchronous software install) and,
// when decl.Target names a registered non-"sw" backend, kicks off step 2
// (asynchronous compile) in a new goroutine bounded by the worker pool.
func (d *Dispatcher) Install(decl engine.ModuleDecl, iface engine.Interface) error {
	swEngine := d.build(decl, iface)
	d.sched.Register(decl.EngineID, swEngine)

	if decl.Target == "" || decl.Target == "sw" {
		return nil
	}

	d.mu.Lock()
	backend, ok := d.backends[decl.Target]
	if !ok {
		d.mu.Unlock()
		return nil // no specialized backend configured; sw engine stands
	}
	if _, busy := d.inflight[decl.EngineID]; busy {
		d.mu.Unlock()
		return common.ErrCompileInFlight
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.inflight[decl.EngineID] = cancel
	d.mu.Unlock()

	go d.compileAsync(ctx, cancel, backend, decl)
	return nil
}

// compileAsync runs on the worker pool and, on success, enqueues the swap
// protocol as a state-safe interrupt.
func (d *Dispatcher) compileAsync(ctx context.Context, cancel context.CancelFunc, backend Backend, decl engine.ModuleDecl) {
	defer func() {
		d.mu.Lock()
		delete(d.inflight, decl.EngineID)
		d.mu.Unlock()
		cancel()
	}()

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return // cancelled before a worker slot freed up
	}
	defer d.sem.Release(1)

	candidate, err := backend.Compile(ctx, decl.EngineID, decl.Text)
	if ctx.Err() != nil {
		// Cancelled mid-compile or after: discard whatever came back.
		return
	}
	if err != nil {
		log.Warn("dispatch: compile failed for eid=%d target=%s: %v", decl.EngineID, decl.Target, err)
		return
	}

	d.sched.Interrupts().Enqueue(func() {
		d.swap(decl.EngineID, candidate)
	})
	d.sched.Notify()
}

// swap runs the protocol body of spec.md §4.5 step 3: transplant input and
// state from the installed engine into the candidate, finalize it, then
// atomically replace the scheduler's slot. Runs from within a state-safe
// interrupt, so no Interface callback can be in flight concurrently.
func (d *Dispatcher) swap(eid common.EngineID, candidate engine.Engine) {
	old := d.sched.Engine(eid)
	if old == nil {
		return // module was torn down before the candidate arrived
	}
	candidate.SetInput(old.GetInput())
	candidate.SetState(old.GetState())
	candidate.Finalize()
	d.sched.Register(eid, candidate)
}

// StopCompile cancels the in-flight compile for eid, if any. A cancelled
// compile produces no swap (spec.md §4.5 "Cancellation").
func (d *Dispatcher) StopCompile(eid common.EngineID) {
	d.mu.Lock()
	cancel, ok := d.inflight[eid]
	d.mu.Unlock()
	if ok {
		cancel()
	}
}

// StopCompileAll cancels every in-flight compile.
func (d *Dispatcher) StopCompileAll() {
	d.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(d.inflight))
	for _, c := range d.inflight {
		cancels = append(cancels, c)
	}
	d.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}
