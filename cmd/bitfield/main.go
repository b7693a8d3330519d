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

// Command bitfield packs comma-separated
// values into one integer, or unpacks an
// integer into named values, using a schema file.
//
//	$ bitfield -c layout.txt -d -b 1,2,3,4
//	67121185
//	$ bitfield -c layout.txt -i -b 67121185
//	a: 1
//	b: 2
//	c: 3
//	d: 4
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/SnellerInc/bitfield"
	"github.com/SnellerInc/bitfield/schema"
)

type options struct {
	inflate  bool
	deflate  bool
	extended bool
	verbose  bool
	version  bool
	config   string
	bin      string
	format   string
	output   string
	width    uint
}

func (o *options) register(flags *flag.FlagSet) {
	flags.BoolVar(&o.inflate, "i", false, "inflate the integer given by -b")
	flags.BoolVar(&o.inflate, "inflate", false, "same as -i")
	flags.BoolVar(&o.deflate, "d", false, "deflate the comma-separated values given by -b")
	flags.BoolVar(&o.deflate, "deflate", false, "same as -d")
	flags.BoolVar(&o.extended, "e", false, "use arbitrary-precision integers (see -w)")
	flags.BoolVar(&o.extended, "extended", false, "same as -e")
	flags.BoolVar(&o.extended, "bigint", false, "same as -e")
	flags.StringVar(&o.config, "c", "", "schema file (<field-name>: <width> per line, .json or .yaml)")
	flags.StringVar(&o.config, "config", "", "same as -c")
	flags.StringVar(&o.bin, "b", "", "data: an integer for -i, comma-separated integers for -d")
	flags.StringVar(&o.bin, "bin", "", "same as -b")
	flags.StringVar(&o.format, "f", "", "schema format (mapping, json, yaml; default inferred from the file extension)")
	flags.StringVar(&o.format, "format", "", "same as -f")
	flags.StringVar(&o.output, "o", "text", "output format (text, json)")
	flags.StringVar(&o.output, "output", "text", "same as -o")
	flags.UintVar(&o.width, "w", bitfield.DefaultExtendedWidth, "maximum total width in bits with -e (128 unless set; the fixed width is always 64)")
	flags.UintVar(&o.width, "width", bitfield.DefaultExtendedWidth, "same as -w")
	flags.BoolVar(&o.verbose, "v", false, "verbose")
	flags.BoolVar(&o.version, "version", false, "print the version and exit")
}

// check validates the combination
// of flags before any file is read.
func (o *options) check() error {
	switch {
	case o.config == "":
		return errors.New("the config file including the mapping of fields was not given: -c <file>")
	case o.bin == "":
		return errors.New("the numeric data to inflate or deflate was not given: -b <data>")
	case !o.inflate && !o.deflate:
		return errors.New("the flag to inflate or deflate was not given: -d or -i")
	case o.inflate && o.deflate:
		return errors.New("cannot inflate and deflate at the same time: -d or -i")
	case o.output != "text" && o.output != "json":
		return fmt.Errorf("-o=%q not supported (try \"text\" or \"json\")", o.output)
	}
	return nil
}

type cli struct {
	stdout, stderr io.Writer
	opts           options
}

func (c *cli) logf(f string, args ...interface{}) {
	if !c.opts.verbose {
		return
	}
	if f[len(f)-1] != '\n' {
		f += "\n"
	}
	fmt.Fprintf(c.stderr, f, args...)
}

func (c *cli) load() (*schema.Schema, error) {
	o := &c.opts
	if _, err := os.Stat(o.config); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("the given config file does not exist: %s", o.config)
	}
	s, err := schema.Load(o.config, o.format)
	if err != nil {
		return nil, fmt.Errorf("the given config file is not a valid schema (<field-name>: <width>[\\n<field-name>: <width>...]): %w", err)
	}
	return s, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	flags := flag.NewFlagSet("bitfield", flag.ContinueOnError)
	flags.SetOutput(stderr)
	c.opts.register(flags)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if c.opts.version {
		v, ok := bitfield.Version()
		if !ok {
			v = "version not available"
		}
		fmt.Fprintln(stdout, v)
		return 0
	}
	if flags.NArg() != 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %q\n", flags.Args())
		return 1
	}
	if err := c.run(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func (c *cli) run() error {
	if err := c.opts.check(); err != nil {
		return err
	}
	s, err := c.load()
	if err != nil {
		return err
	}
	c.logf("schema %s: %d fields, fingerprint %s", c.opts.config, len(s.Fields), s.Fingerprint())
	if c.opts.extended {
		return c.runExtended(s)
	}
	return c.runFixed(s)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
