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

// Package schema describes the layout of
// a bit field: an ordered list of named
// fields and their widths in bits.
//
// A schema can be written as a mapping file
// with one "name: width" pair per line,
// or as JSON or YAML:
//
//	{"fields": [{"name": "kind", "width": 4}, ...]}
package schema

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"
	"sigs.k8s.io/yaml"
)

// Supported schema formats.
const (
	Mapping = "mapping"
	JSON    = "json"
	YAML    = "yaml"
)

// just pick an upper limit; a schema
// describes a single integer
const maxDefSize = 1024 * 1024

// Field is one named field of a Schema.
type Field struct {
	Name  string `json:"name"`
	Width uint64 `json:"width"`
}

// Schema is an ordered list of fields.
// Field 0 occupies the least-significant bits.
type Schema struct {
	Fields []Field `json:"fields"`
}

// SyntaxError is the error returned
// when a mapping line cannot be parsed.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (s *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %q: %s", s.Line, s.Text, s.Msg)
}

func errsyntax(line int, text, msg string) *SyntaxError {
	return &SyntaxError{Line: line, Text: text, Msg: msg}
}

// ErrNoFields is returned when
// a schema contains no fields.
var ErrNoFields = errors.New("schema has no fields")

// ErrEmptyName is returned when
// a field has no name.
var ErrEmptyName = errors.New("missing field name")

// ErrTrailingData is returned when a JSON
// schema is followed by more data.
var ErrTrailingData = errors.New("unexpected data after schema")

// ErrTooLarge is returned when a schema
// definition is larger than the size limit.
var ErrTooLarge = fmt.Errorf("schema definition larger than %d bytes", maxDefSize)

// FormatOf infers the format of
// a schema file from its extension.
func FormatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return JSON
	case ".yaml", ".yml":
		return YAML
	default:
		return Mapping
	}
}

// Decode decodes a schema in the
// given format from src.
func Decode(src io.Reader, format string) (*Schema, error) {
	buf, err := io.ReadAll(io.LimitReader(src, maxDefSize+1))
	if err != nil {
		return nil, err
	}
	if len(buf) > maxDefSize {
		return nil, ErrTooLarge
	}
	s := new(Schema)
	switch format {
	case Mapping, "":
		s, err = decodeMapping(buf)
	case JSON:
		d := json.NewDecoder(bytes.NewReader(buf))
		d.DisallowUnknownFields()
		err = d.Decode(s)
		if err == nil {
			var extra json.RawMessage
			if d.Decode(&extra) != io.EOF {
				err = ErrTrailingData
			}
		}
	case YAML:
		err = yaml.UnmarshalStrict(buf, s)
	default:
		return nil, fmt.Errorf("unknown schema format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(s.Fields) == 0 {
		return nil, ErrNoFields
	}
	for i := range s.Fields {
		if strings.TrimSpace(s.Fields[i].Name) == "" {
			return nil, fmt.Errorf("field %d: %w", i, ErrEmptyName)
		}
	}
	return s, nil
}

// decodeMapping parses "name: width" lines.
// Blank lines and lines starting
// with '#' are ignored.
func decodeMapping(buf []byte) (*Schema, error) {
	s := new(Schema)
	scan := bufio.NewScanner(bytes.NewReader(buf))
	scan.Buffer(make([]byte, 0, 4096), maxDefSize)
	line := 0
	for scan.Scan() {
		line++
		text := strings.TrimSpace(scan.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		name, width, ok := strings.Cut(text, ":")
		if !ok {
			return nil, errsyntax(line, text, "expected <field-name>: <width>")
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errsyntax(line, text, "missing field name")
		}
		w, err := strconv.ParseUint(strings.TrimSpace(width), 10, 64)
		if err != nil {
			return nil, errsyntax(line, text, "invalid width")
		}
		s.Fields = append(s.Fields, Field{Name: name, Width: w})
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func checkDef(f fs.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() > maxDefSize {
		return ErrTooLarge
	}
	return nil
}

// Open opens and decodes the schema
// file name from fsys. If format is
// empty, it is inferred from the file
// extension. Errors from opening the
// file satisfy errors.Is(err, fs.ErrNotExist)
// when the file is missing.
func Open(fsys fs.FS, name, format string) (*Schema, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeFile(f, name, format)
}

// Load is like Open but reads
// path from the local filesystem.
func Load(path, format string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeFile(f, path, format)
}

func decodeFile(f fs.File, name, format string) (*Schema, error) {
	if err := checkDef(f); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if format == "" {
		format = FormatOf(name)
	}
	s, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s, nil
}

// Encode writes s to dst in the given format.
func (s *Schema) Encode(dst io.Writer, format string) error {
	var buf []byte
	var err error
	switch format {
	case Mapping, "":
		var b bytes.Buffer
		for i := range s.Fields {
			fmt.Fprintf(&b, "%s: %d\n", s.Fields[i].Name, s.Fields[i].Width)
		}
		buf = b.Bytes()
	case JSON:
		buf, err = json.MarshalIndent(s, "", "\t")
		buf = append(buf, '\n')
	case YAML:
		buf, err = yaml.Marshal(s)
	default:
		return fmt.Errorf("unknown schema format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = dst.Write(buf)
	return err
}

// Names returns the field names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i := range s.Fields {
		out[i] = s.Fields[i].Name
	}
	return out
}

// Widths returns the field widths in order.
func (s *Schema) Widths() []uint64 {
	out := make([]uint64, len(s.Fields))
	for i := range s.Fields {
		out[i] = s.Fields[i].Width
	}
	return out
}

// BigWidths is like Widths but returns
// the widths as big integers.
func (s *Schema) BigWidths() []*big.Int {
	out := make([]*big.Int, len(s.Fields))
	for i := range s.Fields {
		out[i] = new(big.Int).SetUint64(s.Fields[i].Width)
	}
	return out
}

// Equal returns whether s and other
// describe the same layout with the same names.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	return slices.Equal(s.Fields, other.Fields)
}

// Fingerprint returns a short identifier
// of the layout that does not depend on
// the format the schema was written in.
// Schemas that are Equal have the same fingerprint.
func (s *Schema) Fingerprint() string {
	const (
		k0 = 0x5f3c9d1a22e07b41
		k1 = 0xc4a8f0e6193d2b57
	)
	buf, err := json.Marshal(s.Fields)
	if err != nil {
		panic("schema: failed to hash fields: " + err.Error())
	}
	lo, hi := siphash.Hash128(k0, k1, buf)
	var mem [16]byte
	binary.LittleEndian.PutUint64(mem[:], lo)
	binary.LittleEndian.PutUint64(mem[8:], hi)
	return base64.RawURLEncoding.EncodeToString(mem[:])
}
