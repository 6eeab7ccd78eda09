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

package main

import (
	"github.com/cascade-sim/cascade/config"
	"github.com/cascade-sim/cascade/engine"
	"github.com/cascade-sim/cascade/engine/sw"
	"github.com/cascade-sim/cascade/session"
)

// newDefaultSession builds a Session whose software builder installs an
// empty reference Program: spec.md §1 places Verilog elaboration out of
// scope, so decl.Text here has already been elaborated by an external
// collaborator this command does not implement; the placeholder program
// lets every other subsystem (scheduler, dispatcher, proxy) run and be
// exercised against whatever Program a real elaborator would hand back.
func newDefaultSession(cfg config.Config) *session.Session {
	build := func(decl engine.ModuleDecl, iface engine.Interface) engine.Engine {
		return sw.New(decl.EngineID, iface, sw.Program{})
	}
	return session.New(cfg, build)
}
