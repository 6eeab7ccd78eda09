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

package engine

import (
	"sync"

	"github.com/cascade-sim/cascade/bits"
	"github.com/cascade-sim/cascade/common"
)

// Recorder is a minimal Interface implementation that records every
// callback it observes; used by the scheduler/dispatcher/proxy test suites
// in place of a full platform-specific Interface (file I/O, $finish
// banners, etc., which are out of scope per spec.md §1).
type Recorder struct {
	mu       sync.Mutex
	Writes   []Write
	Finishes []int
	Saves    []string
}

// Write records one WriteBits/WriteBool observation.
type Write struct {
	Vid common.VarID
	Val bits.Bits
}

func (r *Recorder) WriteBits(vid common.VarID, val bits.Bits) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Writes = append(r.Writes, Write{Vid: vid, Val: val})
}

func (r *Recorder) WriteBool(vid common.VarID, val bool) {
	r.WriteBits(vid, bits.New(1, boolToUint64(val)))
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (r *Recorder) Debug(level int, text string) {}

func (r *Recorder) Finish(arg int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finishes = append(r.Finishes, arg)
}

func (r *Recorder) Restart(path string)  {}
func (r *Recorder) Retarget(march string) {}

func (r *Recorder) Save(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Saves = append(r.Saves, path)
}

func (r *Recorder) Fopen(path string, mode string) (int, error) { return 0, nil }
func (r *Recorder) InAvail(handle int) int                      { return 0 }
func (r *Recorder) PubSeekOff(handle int, off int64, whence int) (int64, error) {
	return 0, nil
}
func (r *Recorder) PubSeekPos(handle int, pos int64) (int64, error) { return 0, nil }
func (r *Recorder) PubSync(handle int) error                        { return nil }
func (r *Recorder) SBumpC(handle int) (byte, bool)                  { return 0, false }
func (r *Recorder) SGetC(handle int) (byte, bool)                   { return 0, false }
func (r *Recorder) SGetN(handle int, n int) []byte                  { return nil }
func (r *Recorder) SPutC(handle int, b byte)                        {}
func (r *Recorder) SPutN(handle int, p []byte) int                  { return len(p) }

// DidFinish reports whether Finish has been observed.
func (r *Recorder) DidFinish() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Finishes) > 0
}

var _ Interface = (*Recorder)(nil)
