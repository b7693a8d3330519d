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

package ints

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// BitSize returns the number of bits in T.
func BitSize[T constraints.Unsigned]() uint {
	var zero T
	return uint(unsafe.Sizeof(zero) * 8)
}

// Ones returns a value of T with the low width
// bits set. Widths at or above the size of T
// produce a value with every bit set.
func Ones[T constraints.Unsigned](width uint) T {
	if width >= BitSize[T]() {
		return ^T(0)
	}
	return (T(1) << width) - 1
}

// Fits returns true if and only if v can be
// represented in width bits.
func Fits[T constraints.Unsigned](v T, width uint) bool {
	return v <= Ones[T](width)
}

// Min returns the smaller value of x and y
func Min[T constraints.Integer](x, y T) T {
	if x <= y {
		return x
	}
	return y
}
