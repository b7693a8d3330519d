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
	"errors"
	"math"
	"math/big"
	"math/rand"
	"reflect"
	"testing"
)

func TestDeflateExample(t *testing.T) {
	fields := []uint64{4, 8, 12, 24}
	values := []uint64{1, 2, 3, 4}
	want := uint64(1 | 2<<4 | 3<<12 | 4<<24)
	got, err := Deflate(fields, values)
	if err != nil {
		t.Fatal(err)
	}
	if got != want || got != 67121185 {
		t.Fatalf("got %d, want %d", got, want)
	}
	if out := Inflate(fields, got); !reflect.DeepEqual(out, values) {
		t.Fatalf("inflate: got %v, want %v", out, values)
	}
	if got := DeflateUnsafe(fields, values); got != want {
		t.Fatalf("unsafe: got %d, want %d", got, want)
	}
}

func TestDeflateErrors(t *testing.T) {
	many := make([]uint64, 40)
	manyv := make([]uint64, 40)
	for i := range many {
		many[i] = 2
	}
	for _, td := range []struct {
		name   string
		fields []uint64
		values []uint64
		kind   Kind
		field  int
		limit  uint64
		value  uint64
	}{
		{"field overflow", []uint64{4}, []uint64{16}, FieldOverflow, 0, 15, 16},
		{"later field overflow", []uint64{4, 1}, []uint64{15, 2}, FieldOverflow, 1, 1, 2},
		{"zero width", []uint64{0}, []uint64{1}, FieldOverflow, 0, 0, 1},
		{"length mismatch", []uint64{4, 8}, []uint64{1}, LengthMismatch, -1, 2, 1},
		{"length mismatch empty", nil, []uint64{1}, LengthMismatch, -1, 0, 1},
		{"total width", []uint64{60, 8, 8}, []uint64{0, 0, 0}, TotalWidthOverflow, 1, 64, 68},
		{"total width first", []uint64{65}, []uint64{0}, TotalWidthOverflow, 0, 64, 65},
		{"wide fields", many, manyv, TotalWidthOverflow, 32, 64, 66},
		{"saturating offset", []uint64{64, math.MaxUint64}, []uint64{0, 1}, TotalWidthOverflow, 1, 64, math.MaxUint64},
	} {
		t.Run(td.name, func(t *testing.T) {
			got, err := Deflate(td.fields, td.values)
			if err == nil {
				t.Fatalf("expected an error; got %d", got)
			}
			if got != 0 {
				t.Errorf("got non-zero result %d on error", got)
			}
			if !errors.Is(err, td.kind) {
				t.Fatalf("error %v is not %v", err, td.kind)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("%T is not *Error", err)
			}
			if e.Field != td.field {
				t.Errorf("field = %d, want %d", e.Field, td.field)
			}
			if !e.Limit.IsUint64() || e.Limit.Uint64() != td.limit {
				t.Errorf("limit = %s, want %d", e.Limit, td.limit)
			}
			if !e.Value.IsUint64() || e.Value.Uint64() != td.value {
				t.Errorf("value = %s, want %d", e.Value, td.value)
			}
		})
	}
}

func TestDeflateBoundary(t *testing.T) {
	// exactly MaxWidth bits is allowed
	fields := []uint64{32, 32}
	values := []uint64{math.MaxUint32, math.MaxUint32}
	got, err := Deflate(fields, values)
	if err != nil {
		t.Fatal(err)
	}
	if got != math.MaxUint64 {
		t.Fatalf("got %#x", got)
	}
	if out := Inflate(fields, got); !reflect.DeepEqual(out, values) {
		t.Fatalf("got %v", out)
	}

	c := New[uint64](Uint64{}, 12)
	if _, err := c.Deflate([]uint64{4, 8}, []uint64{1, 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Deflate([]uint64{4, 8, 1}, []uint64{1, 1, 0}); !errors.Is(err, TotalWidthOverflow) {
		t.Fatalf("expected TotalWidthOverflow, got %v", err)
	}
}

func TestNewClampsToCapacity(t *testing.T) {
	c := New[uint64](Uint64{}, 1000)
	if c.MaxWidth != 64 {
		t.Fatalf("MaxWidth = %d, want 64", c.MaxWidth)
	}
	b := NewExtended(1000)
	if b.MaxWidth != 1000 {
		t.Fatalf("MaxWidth = %d, want 1000", b.MaxWidth)
	}
}

func TestDeflateUnsafe(t *testing.T) {
	for _, td := range []struct {
		name   string
		fields []uint64
		values []uint64
		want   uint64
	}{
		{"oversized value", []uint64{4}, []uint64{999}, 999},
		{"spill into next field", []uint64{4, 4}, []uint64{0x1f, 0}, 0x1f},
		{"fewer values", []uint64{4, 8}, []uint64{1}, 1},
		{"more values", []uint64{4}, []uint64{1, 2}, 1},
		{"past the container", []uint64{60, 8}, []uint64{0, 0xff}, 0xf << 60},
		{"offset out of range", []uint64{64, 8}, []uint64{7, 0xff}, 7},
	} {
		t.Run(td.name, func(t *testing.T) {
			if got := DeflateUnsafe(td.fields, td.values); got != td.want {
				t.Fatalf("got %#x, want %#x", got, td.want)
			}
		})
	}
}

func TestInflateBeyondContainer(t *testing.T) {
	fields := []uint64{60, 8, 8}
	got := Inflate(fields, math.MaxUint64)
	want := []uint64{1<<60 - 1, 0xf, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#x, want %#x", got, want)
	}
	if got := Inflate(nil, 123); len(got) != 0 {
		t.Fatalf("got %v for no fields", got)
	}
	if got := Inflate([]uint64{0, 4}, 0xa); !reflect.DeepEqual(got, []uint64{0, 0xa}) {
		t.Fatalf("zero-width field: got %v", got)
	}
}

func TestOrder(t *testing.T) {
	a, err := Deflate([]uint64{4, 8}, []uint64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Deflate([]uint64{8, 4}, []uint64{2, 1})
	if err != nil {
		t.Fatal(err)
	}
	if a != 0x21 || b != 0x102 {
		t.Fatalf("got %#x and %#x", a, b)
	}
}

func TestWidth(t *testing.T) {
	if w := Fixed.Width([]uint64{4, 8, 12, 24}); w != 48 {
		t.Fatalf("Width = %d", w)
	}
	if w := Extended.Width(bigs(100, 100, -3)); w.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("Width = %s", w)
	}
}

func randomLayout(rnd *rand.Rand, maxWidth int) (fields, values []uint64) {
	left := maxWidth
	for left > 0 {
		w := 1 + rnd.Intn(left)
		if w > 24 && rnd.Intn(2) == 0 {
			w = 1 + rnd.Intn(8)
		}
		left -= w
		fields = append(fields, uint64(w))
		var v uint64
		if w == 64 {
			v = rnd.Uint64()
		} else {
			v = rnd.Uint64() & (1<<w - 1)
		}
		values = append(values, v)
	}
	return fields, values
}

func TestRoundTripRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		fields, values := randomLayout(rnd, 1+rnd.Intn(64))
		bits, err := Deflate(fields, values)
		if err != nil {
			t.Fatalf("fields %v values %v: %s", fields, values, err)
		}
		if unsafe := DeflateUnsafe(fields, values); unsafe != bits {
			t.Fatalf("unsafe %#x != checked %#x", unsafe, bits)
		}
		out := Inflate(fields, bits)
		if !reflect.DeepEqual(out, values) {
			t.Fatalf("fields %v: got %v, want %v", fields, out, values)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	for _, td := range []struct {
		err  error
		text string
	}{
		{errlength(2, 1), "bitfield: 2 fields but 1 values"},
		{erroverflow(0, big.NewInt(15), big.NewInt(16)), "bitfield: field 0: value 16 exceeds maximum 15"},
		{errwidth(3, 64, big.NewInt(80)), "bitfield: field 3: total width 80 exceeds maximum 64"},
		{Kind(9), "Kind(9)"},
		{FieldOverflow, "field overflow"},
	} {
		if got := td.err.Error(); got != td.text {
			t.Errorf("got %q, want %q", got, td.text)
		}
	}
}
