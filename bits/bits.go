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

// Package bits implements Cascade's arbitrary-width signed/unsigned
// bit-vector, the representation every engine's ports and state are built
// from (spec.md §3, §4.1).
package bits

import (
	"strings"

	"github.com/cascade-sim/cascade/common"
)

// limbBits is the width of one storage limb.
const limbBits = 32

// Bits is a fixed-width, arbitrary-precision signed or unsigned integer.
// The zero value is not meaningful; construct with New/Parse.
type Bits struct {
	width  uint32
	signed bool
	limbs  []uint32 // little-limb-endian; high limb always masked to width
}

// New constructs an unsigned Bits of the given width from v, truncating or
// zero-extending as needed.
func New(width uint32, v uint64) Bits {
	b := Bits{width: width, signed: false, limbs: limbsFromUint64(width, v)}
	b.normalize()
	return b
}

// NewSigned constructs a signed Bits of the given width from v (two's
// complement), truncating or sign-extending as needed.
func NewSigned(width uint32, v int64) Bits {
	b := Bits{width: width, signed: true, limbs: limbsFromUint64(width, uint64(v))}
	b.normalize()
	return b
}

func limbsFromUint64(width uint32, v uint64) []uint32 {
	n := nlimbs(width)
	limbs := make([]uint32, n)
	if n > 0 {
		limbs[0] = uint32(v)
	}
	if n > 1 {
		limbs[1] = uint32(v >> 32)
	}
	return limbs
}

func nlimbs(width uint32) int {
	if width == 0 {
		return 0
	}
	return int((width + limbBits - 1) / limbBits)
}

// Width returns the bit-vector's declared width.
func (b Bits) Width() uint32 { return b.width }

// IsSigned reports whether compare/arithmetic-shift treat b as signed.
func (b Bits) IsSigned() bool { return b.signed }

// topMask masks the high limb down to the declared width.
func topMask(width uint32) uint32 {
	rem := width % limbBits
	if rem == 0 {
		if width == 0 {
			return 0
		}
		return 0xffffffff
	}
	return (uint32(1) << rem) - 1
}

// normalize masks the high limb to exactly width bits. Called after every
// mutating operation so that equality is always limb-wise.
func (b *Bits) normalize() {
	n := nlimbs(b.width)
	if len(b.limbs) < n {
		grown := make([]uint32, n)
		copy(grown, b.limbs)
		b.limbs = grown
	} else if len(b.limbs) > n {
		b.limbs = b.limbs[:n]
	}
	if n > 0 {
		b.limbs[n-1] &= topMask(b.width)
	}
}

// signBit reports whether the most-significant bit is set.
func (b Bits) signBit() bool {
	if b.width == 0 {
		return false
	}
	idx := (b.width - 1) / limbBits
	off := (b.width - 1) % limbBits
	return b.limbs[idx]&(1<<off) != 0
}

// Resize returns a copy of b widened or narrowed to newWidth, preserving the
// low min(width,newWidth) bits and zero- or sign-extending per b.signed.
func (b Bits) Resize(newWidth uint32) Bits {
	out := Bits{width: newWidth, signed: b.signed, limbs: make([]uint32, nlimbs(newWidth))}
	n := nlimbs(b.width)
	copy(out.limbs, b.limbs[:min(n, len(out.limbs))])
	if newWidth > b.width && b.signed && b.signBit() {
		// sign-extend the bits strictly above the old width.
		for i := b.width; i < newWidth; i++ {
			setBit(out.limbs, i)
		}
	}
	out.normalize()
	return out
}

func setBit(limbs []uint32, i uint32) {
	limbs[i/limbBits] |= 1 << (i % limbBits)
}

func getBit(limbs []uint32, i uint32) bool {
	return limbs[i/limbBits]&(1<<(i%limbBits)) != 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Equal reports whether a and b have the same width, sign flag, and limbs.
func Equal(a, b Bits) bool {
	if a.width != b.width || a.signed != b.signed || len(a.limbs) != len(b.limbs) {
		return false
	}
	for i := range a.limbs {
		if a.limbs[i] != b.limbs[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of b.
func (b Bits) Clone() Bits {
	limbs := make([]uint32, len(b.limbs))
	copy(limbs, b.limbs)
	return Bits{width: b.width, signed: b.signed, limbs: limbs}
}

// binOp applies f limb-wise and normalizes; operands must share width.
func (b Bits) binOp(o Bits, f func(x, y uint32) uint32) Bits {
	out := b.Clone()
	for i := range out.limbs {
		out.limbs[i] = f(out.limbs[i], o.limbs[i])
	}
	out.normalize()
	return out
}

func (b Bits) And(o Bits) Bits { return b.binOp(o, func(x, y uint32) uint32 { return x & y }) }
func (b Bits) Or(o Bits) Bits  { return b.binOp(o, func(x, y uint32) uint32 { return x | y }) }
func (b Bits) Xor(o Bits) Bits { return b.binOp(o, func(x, y uint32) uint32 { return x ^ y }) }

func (b Bits) Not() Bits {
	out := b.Clone()
	for i := range out.limbs {
		out.limbs[i] = ^out.limbs[i]
	}
	out.normalize()
	return out
}

// Shl shifts left by n, wrapping modulo 2^width.
func (b Bits) Shl(n uint32) Bits {
	out := Bits{width: b.width, signed: b.signed, limbs: make([]uint32, len(b.limbs))}
	for i := uint32(0); i < b.width; i++ {
		if i+n < b.width && getBit(b.limbs, i) {
			setBit(out.limbs, i+n)
		}
	}
	out.normalize()
	return out
}

// Shr shifts right by n: logical (zero-fill) unless b.signed, in which case
// it is arithmetic (sign-fill), per spec.md §4.1.
func (b Bits) Shr(n uint32) Bits {
	out := Bits{width: b.width, signed: b.signed, limbs: make([]uint32, len(b.limbs))}
	fill := b.signed && b.signBit()
	for i := uint32(0); i < b.width; i++ {
		var bit bool
		if i+n < b.width {
			bit = getBit(b.limbs, i+n)
		} else {
			bit = fill
		}
		if bit {
			setBit(out.limbs, i)
		}
	}
	out.normalize()
	return out
}

// Add returns (a+b) mod 2^width, matching the wrap contract of spec.md §8.
func (a Bits) Add(b Bits) Bits {
	out := Bits{width: a.width, signed: a.signed, limbs: make([]uint32, len(a.limbs))}
	var carry uint64
	for i := range out.limbs {
		s := uint64(a.limbs[i]) + uint64(b.limbs[i]) + carry
		out.limbs[i] = uint32(s)
		carry = s >> 32
	}
	out.normalize()
	return out
}

// Sub returns (a-b) mod 2^width.
func (a Bits) Sub(b Bits) Bits {
	return a.Add(b.Not().Add(New(b.width, 1)))
}

// Mul returns (a*b) mod 2^width, using schoolbook multiplication over limbs.
func (a Bits) Mul(b Bits) Bits {
	n := len(a.limbs)
	wide := make([]uint64, n+1)
	for i := 0; i < n; i++ {
		if a.limbs[i] == 0 {
			continue
		}
		var carry uint64
		for j := 0; j < n && i+j < n+1; j++ {
			var bj uint32
			if j < len(b.limbs) {
				bj = b.limbs[j]
			}
			prod := uint64(a.limbs[i])*uint64(bj) + wide[i+j] + carry
			wide[i+j] = prod & 0xffffffff
			carry = prod >> 32
		}
	}
	out := Bits{width: a.width, signed: a.signed, limbs: make([]uint32, n)}
	for i := 0; i < n; i++ {
		out.limbs[i] = uint32(wide[i])
	}
	out.normalize()
	return out
}

// DivMod divides a by b, returning quotient and remainder. Division by zero
// yields all-zero quotient and remainder, per spec.md §4.1/§9 (Open
// Question 3): not an error.
func (a Bits) DivMod(b Bits) (quotient, remainder Bits) {
	if b.IsZero() {
		return New(a.width, 0), New(a.width, 0)
	}
	// Plain unsigned long division over the magnitude; signed division
	// divides on magnitudes and fixes the sign of the results.
	negA, negB := false, false
	ua, ub := a, b
	if a.signed && a.signBit() {
		negA = true
		ua = a.Not().Add(New(a.width, 1))
	}
	if b.signed && b.signBit() {
		negB = true
		ub = b.Not().Add(New(b.width, 1))
	}
	q, r := udivmod(ua, ub)
	if a.signed {
		q.signed = true
		r.signed = true
		if negA != negB {
			q = q.Not().Add(New(q.width, 1))
		}
		if negA {
			r = r.Not().Add(New(r.width, 1))
		}
	}
	return q, r
}

// udivmod performs unsigned bit-at-a-time long division.
func udivmod(a, b Bits) (Bits, Bits) {
	q := New(a.width, 0)
	r := New(a.width, 0)
	for i := int(a.width) - 1; i >= 0; i-- {
		r = r.Shl(1)
		if getBit(a.limbs, uint32(i)) {
			r.limbs[0] |= 1
		}
		if Compare(r, b) >= 0 {
			r = r.Sub(b)
			setBit(q.limbs, uint32(i))
		}
	}
	return q, r
}

// IsZero reports whether every bit of b is clear.
func (b Bits) IsZero() bool {
	for _, l := range b.limbs {
		if l != 0 {
			return false
		}
	}
	return true
}

// Compare performs an unsigned bit-pattern comparison (MSB-first limbs).
// Use SignedCompare for two's-complement comparison when either operand's
// IsSigned is true.
func Compare(a, b Bits) int {
	for i := len(a.limbs) - 1; i >= 0; i-- {
		if a.limbs[i] != b.limbs[i] {
			if a.limbs[i] < b.limbs[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// SignedCompare compares a and b as two's-complement values when either is
// signed, falling back to an unsigned Compare otherwise.
func SignedCompare(a, b Bits) int {
	if !a.signed && !b.signed {
		return Compare(a, b)
	}
	as, bs := a.signBit(), b.signBit()
	if as != bs {
		if as {
			return -1
		}
		return 1
	}
	return Compare(a, b)
}

// Concat returns {hi, lo} concatenated, width = hi.width+lo.width, unsigned.
func Concat(hi, lo Bits) Bits {
	out := Bits{width: hi.width + lo.width, signed: false, limbs: make([]uint32, nlimbs(hi.width+lo.width))}
	for i := uint32(0); i < lo.width; i++ {
		if getBit(lo.limbs, i) {
			setBit(out.limbs, i)
		}
	}
	for i := uint32(0); i < hi.width; i++ {
		if getBit(hi.limbs, i) {
			setBit(out.limbs, lo.width+i)
		}
	}
	out.normalize()
	return out
}

// Slice returns bits [hi:lo] inclusive, 0-indexed from the LSB, as an
// unsigned (hi-lo+1)-wide Bits. Returns ErrIndexOutOfBounds if hi>=width or
// lo>hi.
func (b Bits) Slice(hi, lo uint32) (Bits, error) {
	if lo > hi || hi >= b.width {
		return Bits{}, common.ErrIndexOutOfBounds
	}
	w := hi - lo + 1
	out := Bits{width: w, signed: false, limbs: make([]uint32, nlimbs(w))}
	for i := uint32(0); i < w; i++ {
		if getBit(b.limbs, lo+i) {
			setBit(out.limbs, i)
		}
	}
	out.normalize()
	return out, nil
}

// Bit returns the value of bit i (0 = LSB).
func (b Bits) Bit(i uint32) bool {
	if i >= b.width {
		return false
	}
	return getBit(b.limbs, i)
}

// SetBit returns a copy of b with bit i set to v.
func (b Bits) SetBit(i uint32, v bool) Bits {
	out := b.Clone()
	if i >= out.width {
		return out
	}
	if v {
		setBit(out.limbs, i)
	} else {
		out.limbs[i/limbBits] &^= 1 << (i % limbBits)
	}
	out.normalize()
	return out
}

// Uint64 returns the low 64 bits of b's unsigned magnitude.
func (b Bits) Uint64() uint64 {
	var v uint64
	if len(b.limbs) > 0 {
		v = uint64(b.limbs[0])
	}
	if len(b.limbs) > 1 {
		v |= uint64(b.limbs[1]) << 32
	}
	return v
}

// String formats b in base-10, matching the %v-friendly default used by
// debug logging call sites.
func (b Bits) String() string {
	s, _ := Format(b, common.Base10)
	return s
}

// digits10 is used by the base-10 text codec (repeated division by 10).
func digits10(b Bits) string {
	if b.IsZero() {
		return "0"
	}
	ten := New(b.width, 10)
	var sb strings.Builder
	cur := b
	for !cur.IsZero() {
		q, r := cur.DivMod(ten)
		sb.WriteByte(byte('0') + byte(r.Uint64()))
		cur = q
	}
	rs := []byte(sb.String())
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	return string(rs)
}
