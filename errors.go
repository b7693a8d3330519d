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
	"fmt"
	"math/big"
)

// Kind classifies the errors returned
// from the checked deflate operations.
//
// Kind implements error so that callers
// can match a failure with errors.Is:
//
//	if errors.Is(err, bitfield.FieldOverflow) { ... }
type Kind uint8

const (
	// LengthMismatch means the number of
	// fields and the number of values differ.
	LengthMismatch Kind = iota + 1
	// FieldOverflow means a value does not
	// fit in the width of its field.
	FieldOverflow
	// TotalWidthOverflow means the running
	// sum of field widths went past the
	// width of the container.
	TotalWidthOverflow
)

func (k Kind) String() string {
	switch k {
	case LengthMismatch:
		return "length mismatch"
	case FieldOverflow:
		return "field overflow"
	case TotalWidthOverflow:
		return "total width overflow"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Error implements error
func (k Kind) Error() string { return k.String() }

// Error is the error type returned from
// Codec.Deflate.
//
// The meaning of Limit and Value depends on Kind:
//
//	LengthMismatch:     Limit = len(fields), Value = len(values), Field = -1
//	FieldOverflow:      Limit = 2^width-1,   Value = the offending value
//	TotalWidthOverflow: Limit = MaxWidth,    Value = the running width
type Error struct {
	Kind Kind
	// Field is the index of the field
	// being placed when the error occurred.
	Field int
	Limit *big.Int
	Value *big.Int
}

func (e *Error) Error() string {
	switch e.Kind {
	case LengthMismatch:
		return fmt.Sprintf("bitfield: %d fields but %d values", e.Limit, e.Value)
	case FieldOverflow:
		return fmt.Sprintf("bitfield: field %d: value %s exceeds maximum %s", e.Field, e.Value, e.Limit)
	case TotalWidthOverflow:
		return fmt.Sprintf("bitfield: field %d: total width %s exceeds maximum %s", e.Field, e.Value, e.Limit)
	}
	return "bitfield: " + e.Kind.String()
}

// Unwrap returns e.Kind.
func (e *Error) Unwrap() error { return e.Kind }

func errlength(fields, values int) *Error {
	return &Error{
		Kind:  LengthMismatch,
		Field: -1,
		Limit: big.NewInt(int64(fields)),
		Value: big.NewInt(int64(values)),
	}
}

func erroverflow(field int, max, value *big.Int) *Error {
	return &Error{Kind: FieldOverflow, Field: field, Limit: max, Value: value}
}

func errwidth(field int, limit uint, width *big.Int) *Error {
	return &Error{
		Kind:  TotalWidthOverflow,
		Field: field,
		Limit: new(big.Int).SetUint64(uint64(limit)),
		Value: width,
	}
}
