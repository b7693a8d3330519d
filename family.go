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
	"math/big"
)

// DefaultExtendedWidth is the container
// width used by Extended.
const DefaultExtendedWidth = 128

var (
	// Fixed packs fields into a uint64.
	Fixed = New[uint64](Uint64{}, 64)
	// Extended packs fields into a *big.Int
	// of at most DefaultExtendedWidth bits.
	Extended = NewExtended(DefaultExtendedWidth)
)

// NewExtended returns a *big.Int Codec
// that accepts at most maxWidth bits.
func NewExtended(maxWidth uint) *Codec[*big.Int] {
	return New[*big.Int](Big{}, maxWidth)
}

// Deflate calls Fixed.Deflate.
func Deflate(fields, values []uint64) (uint64, error) {
	return Fixed.Deflate(fields, values)
}

// DeflateUnsafe calls Fixed.DeflateUnsafe.
func DeflateUnsafe(fields, values []uint64) uint64 {
	return Fixed.DeflateUnsafe(fields, values)
}

// Inflate calls Fixed.Inflate.
func Inflate(fields []uint64, bits uint64) []uint64 {
	return Fixed.Inflate(fields, bits)
}

// DeflateBig calls Extended.Deflate.
func DeflateBig(fields, values []*big.Int) (*big.Int, error) {
	return Extended.Deflate(fields, values)
}

// DeflateBigUnsafe calls Extended.DeflateUnsafe.
func DeflateBigUnsafe(fields, values []*big.Int) *big.Int {
	return Extended.DeflateUnsafe(fields, values)
}

// InflateBig calls Extended.Inflate.
func InflateBig(fields []*big.Int, bits *big.Int) []*big.Int {
	return Extended.Inflate(fields, bits)
}
