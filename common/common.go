// Copyright 2016 The cascade Authors
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

// Package common holds identifier types and sentinel values shared across
// every cascade package, mirroring the role of go-probeum's common package.
package common

// VarID names a port or signal within a module's variable namespace.
type VarID uint32

// EngineID is assigned by the dispatcher and is stable across a JIT swap.
type EngineID uint32

// Pid is a proxy client handle minted by a remote compiler/core server.
type Pid uint32

// Base is a text encoding base for Bits literals.
type Base byte

const (
	Base2  Base = 2
	Base10 Base = 10
	Base16 Base = 16
)
