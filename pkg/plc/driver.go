/*
Copyright © 2023 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package plc

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"golang.org/x/term"
)

// Driver runs the compiler over a list of operands.
type Driver struct {
	Config *Config
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger

	compiled []string
}

func NewDriver(config *Config, stdout, stderr io.Writer, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Driver{Config: config, Stdout: stdout, Stderr: stderr, Logger: logger}
}

// Run processes the operands left to right, exactly once. Flags take
// effect for the files after them. Run returns true if the run
// failed. With StopOnFirstError nothing after the first failed file
// is processed. An input error stops the run and is returned.
func (d *Driver) Run(operands []string) (bool, error) {
	failed := false
	for _, op := range operands {
		if strings.HasPrefix(op, "-") {
			d.Config.ProcessFlag(op, d.Stderr)
			continue
		}

		d.compiled = append(d.compiled, op)
		res, err := NewPipeline(d.Config.Snapshot(), d.Logger).Compile(op)
		if err != nil {
			return true, err
		}
		d.report(res)
		if res.Failed() {
			failed = true
			if d.Config.StopOnFirstError {
				d.Logger.Debug("stopping at first failed file", "file", op)
				return true, nil
			}
		}
	}
	return failed, nil
}

// Compiled returns the files compilation was attempted on, in order.
func (d *Driver) Compiled() []string {
	return append([]string(nil), d.compiled...)
}

func (d *Driver) report(res *Result) {
	diags := res.Diagnostics
	if res.Aborted != nil {
		diags = hcl.Diagnostics{res.Aborted.Diagnostic()}
	}
	if len(diags) > 0 {
		files := map[string]*hcl.File{res.Path: {Bytes: res.Source}}
		width, color := terminalStyle(d.Stdout)
		wr := hcl.NewDiagnosticTextWriter(d.Stdout, files, width, color)
		if err := wr.WriteDiagnostics(diags); err != nil {
			d.Logger.Warn("writing diagnostics", "err", err)
		}
	}

	if res.Aborted != nil {
		fmt.Fprintf(d.Stdout, "Compile failed: %v\n", res.Aborted)
		return
	}
	if res.Warnings > 0 {
		fmt.Fprintf(d.Stdout, ">> %d warnings found\n", res.Warnings)
	}
	if res.Errors > 0 {
		fmt.Fprintf(d.Stdout, ">> %d errors found\n", res.Errors)
	}
}

// Diagnostics are wrapped to the terminal width and coloured when
// written to a terminal.
func terminalStyle(w io.Writer) (uint, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0, true
	}
	return uint(width), true
}
