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

// Package engine defines the polymorphic per-module execution handle
// (spec.md §4.3) and the State/Input snapshot types it trades in
// (spec.md §3), ported in shape from cascade's original src/target/state.cc.
package engine

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cascade-sim/cascade/bits"
	"github.com/cascade-sim/cascade/common"
)

// Snapshot is a mapping from variable id to an ordered, flattened sequence
// of Bits (a multi-dimensional signal flattened to arity*width). All Bits
// sharing an id share width and sign, per spec.md §3.
type Snapshot struct {
	vars map[common.VarID][]bits.Bits
	// order preserves insertion order so serialization and text dumps are
	// deterministic across runs for a fixed sequence of Set calls.
	order []common.VarID
}

// NewSnapshot constructs an empty Snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{vars: make(map[common.VarID][]bits.Bits)}
}

// Set installs (or replaces) the value sequence for id.
func (s *Snapshot) Set(id common.VarID, vals []bits.Bits) {
	if _, ok := s.vars[id]; !ok {
		s.order = append(s.order, id)
	}
	s.vars[id] = vals
}

// Get returns the value sequence for id and whether it is present.
func (s *Snapshot) Get(id common.VarID) ([]bits.Bits, bool) {
	v, ok := s.vars[id]
	return v, ok
}

// Scalar is a convenience accessor for single-element (arity==1) signals.
func (s *Snapshot) Scalar(id common.VarID) (bits.Bits, bool) {
	v, ok := s.vars[id]
	if !ok || len(v) == 0 {
		return bits.Bits{}, false
	}
	return v[0], true
}

// Ids returns variable ids in insertion order.
func (s *Snapshot) Ids() []common.VarID { return s.order }

// Clone returns an independent deep copy.
func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	for _, id := range s.order {
		src := s.vars[id]
		cp := make([]bits.Bits, len(src))
		copy(cp, src)
		out.Set(id, cp)
	}
	return out
}

// MarshalBinary encodes the snapshot as: count:u32, then for each variable
// (id:u32, arity:u32, [Bits]), matching spec.md §3's self-describing binary
// form.
func (s *Snapshot) MarshalBinary() []byte {
	var buf []byte
	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(s.order)))
	buf = append(buf, hdr[:]...)
	for _, id := range s.order {
		vals := s.vars[id]
		var idbuf [8]byte
		binary.LittleEndian.PutUint32(idbuf[0:4], uint32(id))
		binary.LittleEndian.PutUint32(idbuf[4:8], uint32(len(vals)))
		buf = append(buf, idbuf[:]...)
		for _, v := range vals {
			buf = append(buf, v.MarshalBinary()...)
		}
	}
	return buf
}

// UnmarshalSnapshot decodes the form produced by MarshalBinary.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("engine: short snapshot buffer")
	}
	count := binary.LittleEndian.Uint32(data[0:4])
	off := 4
	out := NewSnapshot()
	for i := uint32(0); i < count; i++ {
		if off+8 > len(data) {
			return nil, fmt.Errorf("engine: truncated snapshot header")
		}
		id := common.VarID(binary.LittleEndian.Uint32(data[off : off+4]))
		arity := binary.LittleEndian.Uint32(data[off+4 : off+8])
		off += 8
		vals := make([]bits.Bits, arity)
		for j := uint32(0); j < arity; j++ {
			v, n, err := bits.UnmarshalBits(data[off:])
			if err != nil {
				return nil, err
			}
			vals[j] = v
			off += n
		}
		out.Set(id, vals)
	}
	return out, nil
}

// WriteText renders the snapshot in the text form used by the one-bit
// counter scenario of spec.md §8: "N\n" then, per variable,
// "  id arity width signed\n" followed by one "    <Bits>\n" line per value.
func (s *Snapshot) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(s.order))
	for _, id := range s.order {
		vals := s.vars[id]
		width, signed := uint32(0), false
		if len(vals) > 0 {
			width, signed = vals[0].Width(), vals[0].IsSigned()
		}
		signedFlag := 0
		if signed {
			signedFlag = 1
		}
		fmt.Fprintf(bw, "  %d %d %d %d\n", id, len(vals), width, signedFlag)
		for _, v := range vals {
			text, _ := bits.Format(v, common.Base2)
			fmt.Fprintf(bw, "    %s\n", text)
		}
	}
	return bw.Flush()
}

// Text is a convenience wrapper around WriteText returning a string.
func (s *Snapshot) Text() string {
	var sb strings.Builder
	_ = s.WriteText(&sb)
	return sb.String()
}

// SortedIds returns a copy of the variable ids in ascending numeric order,
// independent of Set's call order.
func (s *Snapshot) SortedIds() []common.VarID {
	out := append([]common.VarID(nil), s.order...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
