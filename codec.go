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

// Package bitfield packs a list of small
// unsigned values into a single integer
// ("deflate") and unpacks them again ("inflate")
// according to a list of field widths.
//
// Field 0 occupies the least-significant bits
// of the container, field 1 the bits directly
// above it, and so on, with no padding in between.
// For example, fields [4, 8, 12, 24] and values
// [1, 2, 3, 4] deflate to 1 | 2<<4 | 3<<12 | 4<<24.
//
// The same algorithm is instantiated for two
// container types: uint64 (see Fixed), which
// holds at most 64 bits, and *big.Int (see Extended),
// which holds at most DefaultExtendedWidth (128) bits
// unless built with NewExtended.
package bitfield

import (
	"github.com/SnellerInc/bitfield/ints"
)

// Codec packs and unpacks values
// of type T using the arithmetic
// provided by Word.
//
// A Codec holds no mutable state;
// its methods may be called concurrently.
type Codec[T any] struct {
	Word Word[T]
	// MaxWidth is the largest total
	// width, in bits, that Deflate accepts.
	MaxWidth uint
}

// New returns a Codec over w that accepts
// at most maxWidth bits. If w has a bounded
// Capacity, maxWidth is clamped to it.
func New[T any](w Word[T], maxWidth uint) *Codec[T] {
	if c := w.Capacity(); c != 0 && maxWidth > c {
		maxWidth = c
	}
	return &Codec[T]{Word: w, MaxWidth: maxWidth}
}

// Deflate packs values into a single
// container according to fields.
//
// Deflate returns an *Error if len(fields) != len(values)
// (LengthMismatch), if values[i] > 2^fields[i]-1
// (FieldOverflow), or if the sum of the first i+1
// widths exceeds c.MaxWidth (TotalWidthOverflow).
// The width check happens after each field is placed,
// so the error names the first field that crosses the limit.
// On error the returned container is the zero value of T.
func (c *Codec[T]) Deflate(fields, values []T) (T, error) {
	var zero T
	if len(fields) != len(values) {
		return zero, errlength(len(fields), len(values))
	}
	w := c.Word
	slots, bits := w.Zero(), w.Zero()
	for i := range fields {
		if !w.Fits(values[i], fields[i]) {
			return zero, erroverflow(i, w.Big(w.Max(fields[i])), w.Big(values[i]))
		}
		bits = w.Place(bits, values[i], slots)
		slots = w.Advance(slots, fields[i])
		if w.Exceeds(slots, c.MaxWidth) {
			return zero, errwidth(i, c.MaxWidth, w.Big(slots))
		}
	}
	return bits, nil
}

// DeflateUnsafe is Deflate without any checks.
//
// Values are shifted into place and OR'd
// together exactly as in Deflate, so a value
// wider than its field spills into the fields
// above it, and bits shifted past the top of a
// bounded container are dropped. Only the first
// min(len(fields), len(values)) pairs are used.
func (c *Codec[T]) DeflateUnsafe(fields, values []T) T {
	w := c.Word
	slots, bits := w.Zero(), w.Zero()
	for i := range fields[:ints.Min(len(fields), len(values))] {
		bits = w.Place(bits, values[i], slots)
		slots = w.Advance(slots, fields[i])
	}
	return bits
}

// Inflate unpacks bits according to fields
// and returns one value per field.
//
// Inflate never fails: fields that lie
// (partly) beyond the bits held by the
// container decode to zero (or to whatever
// bits remain).
func (c *Codec[T]) Inflate(fields []T, bits T) []T {
	w := c.Word
	out := make([]T, len(fields))
	slots := w.Zero()
	for i := range fields {
		out[i] = w.Extract(bits, slots, fields[i])
		slots = w.Advance(slots, fields[i])
	}
	return out
}

// Width returns the total width of fields.
func (c *Codec[T]) Width(fields []T) T {
	slots := c.Word.Zero()
	for i := range fields {
		slots = c.Word.Advance(slots, fields[i])
	}
	return slots
}
