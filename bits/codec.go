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

package bits

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cascade-sim/cascade/common"
	"github.com/imroc/biu"
)

// Format renders b as MSB-first digits in the caller's base, prefixed with
// "0b" for base 2, "0x" for base 16, and nothing for base 10, per
// spec.md §3's text codec.
func Format(b Bits, base common.Base) (string, error) {
	switch base {
	case common.Base2:
		return "0b" + binDigits(b), nil
	case common.Base10:
		return digits10(b), nil
	case common.Base16:
		return "0x" + hexDigits(b), nil
	default:
		return "", fmt.Errorf("unsupported base %d", base)
	}
}

func binDigits(b Bits) string {
	if b.width == 0 {
		return "0"
	}
	var sb strings.Builder
	for i := int(b.width) - 1; i >= 0; i-- {
		if getBit(b.limbs, uint32(i)) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func hexDigits(b Bits) string {
	const hex = "0123456789abcdef"
	if b.width == 0 {
		return "0"
	}
	nd := (b.width + 3) / 4
	out := make([]byte, nd)
	for i := uint32(0); i < nd; i++ {
		lo := i * 4
		var nib uint32
		for j := uint32(0); j < 4 && lo+j < b.width; j++ {
			if getBit(b.limbs, lo+j) {
				nib |= 1 << j
			}
		}
		out[nd-1-i] = hex[nib]
	}
	return string(out)
}

// Parse decodes text produced by Format (or a bare digit string, in which
// case base is used directly) into a Bits of the given width/sign.
// Returns *common.MalformedLiteral if a digit is out of range for base or
// no digits are present.
func Parse(text string, base common.Base, width uint32, signed bool) (Bits, error) {
	s := text
	switch base {
	case common.Base2:
		s = strings.TrimPrefix(s, "0b")
	case common.Base16:
		s = strings.TrimPrefix(s, "0x")
	}
	if len(s) == 0 {
		return Bits{}, &common.MalformedLiteral{Offset: 0, Reason: "no digits present"}
	}
	out := New(width, 0)
	out.signed = signed
	radix := New(width, uint64(base))
	for i, r := range s {
		d, ok := digitValue(byte(r))
		if !ok || uint64(d) >= uint64(base) {
			return Bits{}, &common.MalformedLiteral{Offset: i, Reason: fmt.Sprintf("digit %q out of range for base %d", r, base)}
		}
		out = out.Mul(radix).Add(New(width, uint64(d)))
	}
	out.normalize()
	return out, nil
}

func digitValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

// MarshalBinary encodes b as width:u32 little-endian, flags:u8 (bit 0 =
// signed), then ceil(w/8) little-endian bytes, per spec.md §3.
func (b Bits) MarshalBinary() []byte {
	nbytes := (b.width + 7) / 8
	out := make([]byte, 4+1+nbytes)
	binary.LittleEndian.PutUint32(out[0:4], b.width)
	if b.signed {
		out[4] = 1
	}
	buf := out[5:]
	for i := uint32(0); i < nbytes; i++ {
		var v byte
		for j := uint32(0); j < 8 && i*8+j < b.width; j++ {
			if getBit(b.limbs, i*8+j) {
				v |= 1 << j
			}
		}
		buf[i] = v
	}
	return out
}

// UnmarshalBits decodes the wire form produced by MarshalBinary, returning
// the value and the number of bytes consumed.
func UnmarshalBits(data []byte) (Bits, int, error) {
	if len(data) < 5 {
		return Bits{}, 0, fmt.Errorf("bits: short buffer")
	}
	width := binary.LittleEndian.Uint32(data[0:4])
	signed := data[4]&1 != 0
	nbytes := int((width + 7) / 8)
	if len(data) < 5+nbytes {
		return Bits{}, 0, fmt.Errorf("bits: short buffer")
	}
	out := Bits{width: width, signed: signed, limbs: make([]uint32, nlimbs(width))}
	buf := data[5 : 5+nbytes]
	for i, v := range buf {
		for j := 0; j < 8; j++ {
			if v&(1<<uint(j)) != 0 {
				setBit(out.limbs, uint32(i*8+j))
			}
		}
	}
	out.normalize()
	return out, 5 + nbytes, nil
}

// debugBinary is a tiny wrapper around the imroc/biu binary-string helper,
// for scratch diagnostic rendering of raw bytes distinct from the
// exact-width text codec above (it does not round-trip through Parse and
// must never be used on the wire — it exists for test failure messages and
// ad hoc debug printing only, the same way the teacher's own tests reach
// for biu.ToBinaryString on a byte slice).
func debugBinary(raw []byte) string {
	return biu.ToBinaryString(raw)
}
