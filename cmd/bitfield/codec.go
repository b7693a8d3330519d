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

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/SnellerInc/bitfield"
	"github.com/SnellerInc/bitfield/schema"
)

func parseUint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return v, err == nil
}

func parseBig(s string) (*big.Int, bool) {
	return new(big.Int).SetString(strings.TrimSpace(s), 10)
}

func (c *cli) runFixed(s *schema.Schema) error {
	fields := s.Widths()
	c.logf("fixed width: %d of %d bits", bitfield.Fixed.Width(fields), bitfield.Fixed.MaxWidth)
	if c.opts.inflate {
		bits, ok := parseUint(c.opts.bin)
		if !ok {
			return fmt.Errorf("the given data is not a valid number (radix of 10): %q", c.opts.bin)
		}
		values := bitfield.Inflate(fields, bits)
		text := make([]string, len(values))
		for i := range values {
			text[i] = strconv.FormatUint(values[i], 10)
		}
		return c.printFields(s.Names(), text)
	}
	parts := strings.Split(c.opts.bin, ",")
	values := make([]uint64, len(parts))
	for i := range parts {
		v, ok := parseUint(parts[i])
		if !ok {
			return fmt.Errorf("the given data is not valid comma-separated numbers (radix of 10): %q", parts[i])
		}
		values[i] = v
	}
	bits, err := bitfield.Deflate(fields, values)
	if err != nil {
		return err
	}
	return c.printBits(strconv.FormatUint(bits, 10))
}

func (c *cli) runExtended(s *schema.Schema) error {
	codec := bitfield.NewExtended(c.opts.width)
	fields := s.BigWidths()
	c.logf("using arbitrary-precision integers (-e)")
	c.logf("extended width: %s of %d bits", codec.Width(fields), codec.MaxWidth)
	if c.opts.inflate {
		bits, ok := parseBig(c.opts.bin)
		if !ok {
			return fmt.Errorf("the given data is not a valid big integer (radix of 10): %q", c.opts.bin)
		}
		values := codec.Inflate(fields, bits)
		text := make([]string, len(values))
		for i := range values {
			text[i] = values[i].String()
		}
		return c.printFields(s.Names(), text)
	}
	parts := strings.Split(c.opts.bin, ",")
	values := make([]*big.Int, len(parts))
	for i := range parts {
		v, ok := parseBig(parts[i])
		if !ok {
			return fmt.Errorf("the given data is not valid comma-separated big integers (radix of 10): %q", parts[i])
		}
		values[i] = v
	}
	bits, err := codec.Deflate(fields, values)
	if err != nil {
		return err
	}
	return c.printBits(bits.String())
}

// printFields prints one decoded value
// per field; values are decimal text.
func (c *cli) printFields(names, values []string) error {
	if c.opts.output == "text" {
		for i := range names {
			if _, err := fmt.Fprintf(c.stdout, "%s: %s\n", names[i], values[i]); err != nil {
				return err
			}
		}
		return nil
	}
	// build the object by hand to
	// preserve the field order
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(names[i])
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(values[i])
	}
	buf.WriteString("}\n")
	_, err := c.stdout.Write(buf.Bytes())
	return err
}

func (c *cli) printBits(bits string) error {
	if c.opts.output == "text" {
		_, err := fmt.Fprintln(c.stdout, bits)
		return err
	}
	buf, err := json.Marshal(struct {
		Bits string `json:"bits"`
	}{bits})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.stdout, "%s\n", buf)
	return err
}
