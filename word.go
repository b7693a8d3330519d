// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package bitfield

import (
	"math"
	"math/big"
	"math/bits"

	"github.com/SnellerInc/bitfield/ints"
)

// Word describes the integer arithmetic
// that a Codec needs from its container type T.
// Field widths, field values, bit offsets
// and the encoded container all share T.
type Word[T any] interface {
	// Capacity is the number of bits
	// a T can hold, or 0 if T is unbounded.
	Capacity() uint
	// Zero returns a new zero value.
	Zero() T
	// Fits returns whether v is representable
	// in width bits, i.e. 0 <= v <= 2^width-1.
	Fits(v, width T) bool
	// Max returns 2^width-1.
	Max(width T) T
	// Place returns acc | (v << offset).
	// Place may reuse the storage of acc.
	Place(acc, v, offset T) T
	// Extract returns (bits & ((2^width-1) << offset)) >> offset
	// using a logical right shift.
	Extract(bits, offset, width T) T
	// Advance returns offset+width.
	Advance(offset, width T) T
	// Exceeds returns whether width > limit.
	Exceeds(width T, limit uint) bool
	// Big returns v as a new big.Int.
	Big(v T) *big.Int
}

// Uint64 is the machine-width Word.
//
// Shifts follow Go semantics: bits shifted
// past bit 63 are discarded and offsets of
// 64 or more shift everything out.
// Offsets saturate at math.MaxUint64
// instead of wrapping around.
type Uint64 struct{}

func clamp(width uint64) uint {
	if width > 64 {
		return 64
	}
	return uint(width)
}

func (Uint64) Capacity() uint { return 64 }

func (Uint64) Zero() uint64 { return 0 }

func (Uint64) Fits(v, width uint64) bool { return ints.Fits(v, clamp(width)) }

func (Uint64) Max(width uint64) uint64 { return ints.Ones[uint64](clamp(width)) }

func (Uint64) Place(acc, v, offset uint64) uint64 { return acc | (v << offset) }

func (Uint64) Extract(bits, offset, width uint64) uint64 {
	mask := ints.Ones[uint64](clamp(width)) << offset
	return (bits & mask) >> offset
}

func (Uint64) Advance(offset, width uint64) uint64 {
	sum, carry := bits.Add64(offset, width, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func (Uint64) Exceeds(width uint64, limit uint) bool { return width > uint64(limit) }

func (Uint64) Big(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

// Big is the arbitrary-precision Word.
//
// Every result is freshly allocated
// (except the accumulator passed to Place),
// so values returned from a Codec never
// alias the caller's inputs.
//
// Negative widths behave as zero.
// Negative values never fit in any width;
// a negative container is decoded from
// its two's complement bit pattern, and
// an unbounded field at the top of it
// takes one bit past BitLen.
type Big struct{}

var one = big.NewInt(1)

// shift converts a width or offset to
// a shift count. It returns false if x
// is too large to be used as one.
func shift(x *big.Int) (uint, bool) {
	if x.Sign() <= 0 {
		return 0, true
	}
	if x.BitLen() >= bits.UintSize {
		return 0, false
	}
	return uint(x.Uint64()), true
}

func mask(n uint) *big.Int {
	m := new(big.Int).Lsh(one, n)
	return m.Sub(m, one)
}

func (Big) Capacity() uint { return 0 }

func (Big) Zero() *big.Int { return new(big.Int) }

func (Big) Fits(v, width *big.Int) bool {
	if v.Sign() < 0 {
		return false
	}
	n, ok := shift(width)
	return !ok || uint(v.BitLen()) <= n
}

// Max panics if width cannot be used
// as a shift count. Codec only calls Max
// for widths narrower than a value that
// failed to fit.
func (Big) Max(width *big.Int) *big.Int {
	n, ok := shift(width)
	if !ok {
		panic("bitfield: width too large for Big.Max")
	}
	return mask(n)
}

func (Big) Place(acc, v, offset *big.Int) *big.Int {
	n, ok := shift(offset)
	if !ok {
		return acc
	}
	return acc.Or(acc, new(big.Int).Lsh(v, n))
}

func (Big) Extract(bits, offset, width *big.Int) *big.Int {
	off, ok := shift(offset)
	if !ok {
		return new(big.Int)
	}
	n, ok := shift(width)
	if bits.Sign() < 0 {
		// bits above BitLen are all ones for
		// a negative value; keep the mask finite
		if !ok {
			n = uint(bits.BitLen()) + 1
		}
		m := mask(n)
		m.Lsh(m, off)
		m.And(m, bits)
		return m.Rsh(m, off)
	}
	v := new(big.Int).Rsh(bits, off)
	if !ok || uint(v.BitLen()) <= n {
		return v
	}
	return v.And(v, mask(n))
}

func (Big) Advance(offset, width *big.Int) *big.Int {
	if width.Sign() <= 0 {
		return new(big.Int).Set(offset)
	}
	return new(big.Int).Add(offset, width)
}

func (Big) Exceeds(width *big.Int, limit uint) bool {
	return width.Cmp(new(big.Int).SetUint64(uint64(limit))) > 0
}

func (Big) Big(v *big.Int) *big.Int { return new(big.Int).Set(v) }
