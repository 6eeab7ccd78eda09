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

// Package dispatch implements the compiler dispatcher and JIT swap
// protocol of spec.md §4.5: install a software engine synchronously,
// compile a specialized backend's engine asynchronously, and swap it in
// under a state-safe interrupt on success.
package dispatch

import (
	"context"

	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/engine"
)

// Backend produces engines for module text targeting one architecture
// ("sw", "de10", "remote:<addr>", ...). Compile must honor ctx
// cancellation promptly: StopCompile/StopCompileAll cancel the context
// passed to any in-flight Compile call for the affected eid(s).
type Backend interface {
	Name() string
	Compile(ctx context.Context, eid common.EngineID, text string) (engine.Engine, error)
}

// Builder constructs the always-available software engine synchronously;
// kept distinct from Backend because the software path never runs on the
// worker pool and never fails (spec.md §4.5 step 1).
type Builder func(decl engine.ModuleDecl, iface engine.Interface) engine.Engine
