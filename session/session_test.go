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

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cascade-sim/cascade/bits"
	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/config"
	"github.com/cascade-sim/cascade/engine"
	"github.com/cascade-sim/cascade/engine/sw"
)

func counterBuilder(decl engine.ModuleDecl, iface engine.Interface) engine.Engine {
	const q common.VarID = 0
	prog := sw.Program{
		Vars: map[common.VarID]struct {
			Width  uint32
			Signed bool
		}{q: {Width: 1}},
		Comb: func(vals map[common.VarID]bits.Bits) (map[common.VarID]bits.Bits, map[common.VarID]bits.Bits) {
			cur := vals[q]
			next := bits.New(1, 1-cur.Uint64())
			return nil, map[common.VarID]bits.Bits{q: next}
		},
	}
	return sw.New(decl.EngineID, iface, prog)
}

func TestNewSessionWiresSchedulerAndDispatcher(t *testing.T) {
	s := New(config.Default(), counterBuilder)
	require.NotNil(t, s.Scheduler)
	require.NotNil(t, s.Dispatcher)

	err := s.Install(engine.ModuleDecl{EngineID: 1, Target: "sw"}, nil)
	require.NoError(t, err)
	require.NotNil(t, s.Scheduler.Engine(1))
}

func TestRunStepsUntilDone(t *testing.T) {
	s := New(config.Default(), counterBuilder)
	require.NoError(t, s.Install(engine.ModuleDecl{EngineID: 1, Target: "sw"}, nil))

	cancel := make(chan struct{})
	done := make(chan struct{})
	go func() {
		s.Run(func() bool { return s.Scheduler.Steps() >= 3 }, cancel)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after reaching the step threshold")
	}
	require.GreaterOrEqual(t, s.Scheduler.Steps(), uint64(3))
	s.Stop()
}
