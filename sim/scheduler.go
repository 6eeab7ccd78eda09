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

package sim

import (
	"sort"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set"

	"github.com/cascade-sim/cascade/bits"
	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/engine"
	"github.com/cascade-sim/cascade/interrupt"
	"github.com/cascade-sim/cascade/log"
)

// Scheduler drives a Graph of engines through delta-cycle steps per
// spec.md §4.4. It owns exclusive access to every engine's state; every
// engine method it invokes runs on the goroutine calling Step, and it does
// not call OpenLoop — the same single-writer discipline miner/worker.go
// uses around its own current-block state, reworked here around a module
// graph instead of a block template.
type Scheduler struct {
	mu      sync.Mutex
	graph   *Graph
	engines map[common.EngineID]engine.Engine
	queue   *interrupt.Queue

	steps     uint64
	simDone   int32 // atomic: 1 once some engine has signaled done_simulation
	running   int32 // atomic: 1 while Run is executing a step loop
	interrupt chan struct{}
}

// New constructs a Scheduler over graph. Engines must be registered with
// Register before Run is called; the dispatcher is the sole caller that
// adds or replaces an entry (a JIT swap calls Register again with the same
// id and a new Engine value — see package dispatch).
func New(graph *Graph) *Scheduler {
	return &Scheduler{
		graph:     graph,
		engines:   make(map[common.EngineID]engine.Engine),
		queue:     interrupt.NewQueue(),
		interrupt: make(chan struct{}, 1),
	}
}

// Register installs or replaces the engine at id. Must be called between
// steps (the dispatcher calls it from within a state-safe interrupt).
func (s *Scheduler) Register(id common.EngineID, e engine.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engines[id] = e
}

// Engine returns the engine currently installed at id, or nil.
func (s *Scheduler) Engine(id common.EngineID) engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engines[id]
}

// EngineIDs returns the currently installed engine ids in ascending
// order, for operator tooling (cmd/cascade's "debug engines" table) that
// needs to enumerate the table rather than look up one id.
func (s *Scheduler) EngineIDs() []common.EngineID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]common.EngineID, 0, len(s.engines))
	for id := range s.engines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Interrupts returns the scheduler's state-safe interrupt queue, the only
// channel through which package dispatch and package proxy may touch
// engine state outside of a step (spec.md §4.7).
func (s *Scheduler) Interrupts() *interrupt.Queue { return s.queue }

// Steps reports the number of completed delta-cycle steps.
func (s *Scheduler) Steps() uint64 { return atomic.LoadUint64(&s.steps) }

// snapshotEngines copies the current id→engine table and returns it along
// with ids in ascending order (spec.md §4.4's fixed "engine-id order" for
// conditional-update passes). The copy lets Step operate without holding
// s.mu for the whole step — needed because draining an interrupt at the
// end of a step may itself call Register/Engine, which would otherwise
// deadlock re-acquiring a lock Step already held.
func (s *Scheduler) snapshotEngines() (map[common.EngineID]engine.Engine, []common.EngineID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	engines := make(map[common.EngineID]engine.Engine, len(s.engines))
	ids := make([]common.EngineID, 0, len(s.engines))
	for id, e := range s.engines {
		engines[id] = e
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return engines, ids
}

// Step runs exactly one delta-cycle step to quiescence:
//
//  1. conditional_update passes, in engine-id order, repeated until no
//     engine reports pending updates (spec.md §4.4 phase 1);
//  2. finalize every engine that passed through phase 1;
//  3. propagate along the edge list, in insertion order, into the
//     destination's SetInput (phase 2);
//  4. evaluate every engine reached by propagation, in edge-list order,
//     de-duplicated via a set so a multiply-driven engine evaluates once
//     per step;
//  5. drain the state-safe interrupt queue, then call done_step() on
//     every engine that overrides it, and observe done_simulation()
//     (spec.md §4.4 phase 3 and "Termination");
//
// and repeats phases 1-4 until a pass produces no update, then returns
// whether any engine updated across the whole step (false means the
// simulation has reached a fixed point and the caller should consult
// Finish/DoneSimulation).
func (s *Scheduler) Step() bool {
	engines, ids := s.snapshotEngines()

	anyUpdated := false
	for {
		updatedThisPass := false
		for _, id := range ids {
			if engines[id].ConditionalUpdate() {
				updatedThisPass = true
				anyUpdated = true
			}
		}
		if !updatedThisPass {
			break
		}
		for _, id := range ids {
			engines[id].Finalize()
		}
		s.propagateAndEvaluate(engines)
	}

	atomic.AddUint64(&s.steps, 1)
	s.drainInterrupts()
	s.finishStep(engines, ids)
	return anyUpdated
}

// finishStep runs spec.md §4.4 phase 5's per-engine callbacks after the
// interrupt drain: done_step() on every engine that overrides it, and
// done_simulation() on every engine that overrides it, latching s.simDone
// so Run observes it at the next interrupt point regardless of what its
// own done closure decides.
func (s *Scheduler) finishStep(engines map[common.EngineID]engine.Engine, ids []common.EngineID) {
	for _, id := range ids {
		e := engines[id]
		if e.OverridesDoneStep() {
			e.DoneStep()
		}
		if e.OverridesDoneSimulation() && e.DoneSimulation() {
			atomic.StoreInt32(&s.simDone, 1)
		}
	}
}

// DoneSimulation reports whether some engine has signaled
// done_simulation() (spec.md §4.4 "Termination"; e.g. a module's $finish),
// ending the whole run independent of any external done closure passed to
// Run.
func (s *Scheduler) DoneSimulation() bool {
	return atomic.LoadInt32(&s.simDone) != 0
}

// propagateAndEvaluate runs phases 2 and 3 of Step: it reads every edge's
// source port, writes it into the destination's input, then evaluates
// every distinct destination engine exactly once, in the order it was
// first reached by the edge list.
func (s *Scheduler) propagateAndEvaluate(engines map[common.EngineID]engine.Engine) {
	reached := mapset.NewThreadUnsafeSet()
	order := make([]common.EngineID, 0, len(s.graph.Edges()))

	for _, e := range s.graph.Edges() {
		src, ok := engines[e.SrcEid]
		if !ok {
			continue
		}
		dst, ok := engines[e.DstEid]
		if !ok {
			continue
		}
		v := src.Read(e.SrcVid)
		dst.SetInput(singleton(e.DstVid, v))
		if !reached.Contains(e.DstEid) {
			reached.Add(e.DstEid)
			order = append(order, e.DstEid)
		}
	}

	for _, id := range order {
		engines[id].Evaluate()
	}
}

// singleton builds a one-variable Snapshot, the unit of input propagation
// along a single edge.
func singleton(vid common.VarID, v bits.Bits) *engine.Snapshot {
	snap := engine.NewSnapshot()
	snap.Set(vid, []bits.Bits{v})
	return snap
}

// drainInterrupts services every state-safe interrupt enqueued since the
// previous drain, under the scheduler's own exclusive hold on engine
// state. An interrupt enqueued by its own handler while draining is
// deferred to the following step's drain, never executed inline (spec.md
// §4.7 "interrupts enqueued during a drain run on the next drain").
func (s *Scheduler) drainInterrupts() {
	for _, fn := range s.queue.Drain() {
		fn()
	}
	select {
	case <-s.interrupt:
	default:
	}
}

// Notify records, without blocking, that an interrupt has been enqueued from
// outside the step loop (e.g. an async proxy connection); the next
// drainInterrupts clears the signal. Run does not block between steps, so
// nothing waits on this signal.
func (s *Scheduler) Notify() {
	select {
	case s.interrupt <- struct{}{}:
	default:
	}
}

// Run steps the simulation until done returns true, cancel fires, or some
// engine signals done_simulation() (spec.md §4.4 "Termination"; scenario 6
// of §8 — the scheduler exits cleanly at the next step boundary on its
// own, rather than relying solely on the caller's done closure), logging
// one trace line per step the way the teacher's event loop traces
// block-sealing attempts.
func (s *Scheduler) Run(done func() bool, cancel <-chan struct{}) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	for {
		select {
		case <-cancel:
			return
		default:
		}
		s.Step()
		log.Trace("sim: step complete, steps=%d", s.Steps())
		if s.DoneSimulation() {
			log.Info("sim: done_simulation observed, exiting")
			return
		}
		if done != nil && done() {
			return
		}
	}
}
