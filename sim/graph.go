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

// Package sim implements Cascade's core simulator: the deterministic
// delta-cycle scheduler that drives a module graph of engines through
// steps (spec.md §4.4). Nodes are engine ids held in an arena, not
// pointers, so a swap is a single slot write and the graph can be cyclic
// without a pointer cycle (spec.md §9 "Cyclic module graphs").
package sim

import "github.com/cascade-sim/cascade/common"

// Edge is one port binding: the value read from (SrcEid, SrcVid) on the
// source engine becomes SetInput on (DstEid, DstVid) on the destination,
// per spec.md §3 "Module graph". Edges never cross a swap — swaps replace
// nodes, never edges.
type Edge struct {
	SrcEid common.EngineID
	SrcVid common.VarID
	DstEid common.EngineID
	DstVid common.VarID
}

// Graph is the module graph: an ordered edge list over an arena of engine
// ids. Edge order is insertion order and is part of the scheduler's
// determinism contract (spec.md §4.4: "within an engine, port propagation
// follows the graph's edge list in insertion order").
type Graph struct {
	edges []Edge
}

// NewGraph constructs an empty graph.
func NewGraph() *Graph { return &Graph{} }

// AddEdge appends an edge.
func (g *Graph) AddEdge(e Edge) { g.edges = append(g.edges, e) }

// Edges returns the edge list in insertion order. The returned slice must
// not be mutated by the caller.
func (g *Graph) Edges() []Edge { return g.edges }

// EdgesFrom returns the edges whose source is eid, in insertion order.
func (g *Graph) EdgesFrom(eid common.EngineID) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.SrcEid == eid {
			out = append(out, e)
		}
	}
	return out
}
