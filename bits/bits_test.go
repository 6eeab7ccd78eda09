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
	"testing"

	"github.com/cascade-sim/cascade/common"
	"github.com/google/go-cmp/cmp"
	"github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

func TestTextRoundTrip(t *testing.T) {
	for _, base := range []common.Base{common.Base2, common.Base10, common.Base16} {
		fz := fuzz.New().NilChance(0)
		for i := 0; i < 200; i++ {
			var v uint32
			fz.Fuzz(&v)
			b := New(32, uint64(v))
			text, err := Format(b, base)
			require.NoError(t, err)
			got, err := Parse(text, base, 32, false)
			require.NoError(t, err)
			if !Equal(b, got) {
				t.Fatalf("round trip mismatch base %d: %v -> %q -> %v", base, b, text, got)
			}
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	fz := fuzz.New().NilChance(0)
	for i := 0; i < 200; i++ {
		var v uint64
		fz.Fuzz(&v)
		b := New(47, v)
		enc := b.MarshalBinary()
		got, n, err := UnmarshalBits(enc)
		require.NoError(t, err, "encoded bytes: %s", debugBinary(enc))
		require.Equal(t, len(enc), n)
		if diff := cmp.Diff(b, got, cmp.AllowUnexported(Bits{})); diff != "" {
			t.Fatalf("binary round trip mismatch (-want +got):\n%s\nencoded bytes: %s", diff, debugBinary(enc))
		}
	}
}

func TestArithmeticWraps(t *testing.T) {
	const w = 8
	a := New(w, 250)
	b := New(w, 10)
	sum := a.Add(b)
	require.Equal(t, uint64((250+10)&0xff), sum.Uint64())

	diff := a.Sub(b)
	require.Equal(t, uint64((250-10)&0xff), diff.Uint64())

	prod := a.Mul(b)
	require.Equal(t, uint64((250*10)&0xff), prod.Uint64())
}

func TestDivisionByZeroIsAllZeros(t *testing.T) {
	a := New(8, 42)
	z := New(8, 0)
	q, r := a.DivMod(z)
	require.True(t, q.IsZero())
	require.True(t, r.IsZero())
}

func TestSignedCompare(t *testing.T) {
	neg := NewSigned(8, -1)
	pos := NewSigned(8, 1)
	require.Equal(t, -1, SignedCompare(neg, pos))
	require.Equal(t, 1, Compare(neg, pos)) // unsigned: 0xff > 0x01
}

func TestSliceAndConcat(t *testing.T) {
	v := New(16, 0x1234)
	hi, err := v.Slice(15, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(0x12), hi.Uint64())
	lo, err := v.Slice(7, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0x34), lo.Uint64())
	joined := Concat(hi, lo)
	require.Equal(t, uint64(0x1234), joined.Uint64())
}

func TestSliceOutOfBounds(t *testing.T) {
	v := New(8, 1)
	_, err := v.Slice(10, 0)
	require.ErrorIs(t, err, common.ErrIndexOutOfBounds)
}

func TestOneBitCounterSnapshot(t *testing.T) {
	// Matches the literal snapshot text for the one-bit counter scenario
	// in spec.md §8: bit q, width 1, unsigned, value 0.
	q := New(1, 0)
	text, err := Format(q, common.Base2)
	require.NoError(t, err)
	require.Equal(t, "0b0", text)
}

func TestResizeSignExtends(t *testing.T) {
	v := NewSigned(4, -1) // 0b1111
	wide := v.Resize(8)
	require.Equal(t, int64(-1), int64(int8(wide.Uint64())))
}

func TestMalformedLiteral(t *testing.T) {
	_, err := Parse("", common.Base10, 8, false)
	var ml *common.MalformedLiteral
	require.ErrorAs(t, err, &ml)

	_, err = Parse("abz", common.Base16, 16, false)
	require.ErrorAs(t, err, &ml)
}
