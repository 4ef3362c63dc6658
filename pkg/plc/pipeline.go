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
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2"
	"github.com/pkg/errors"

	"github.com/rxell/phantomuserland/pkg/classfile"
	"github.com/rxell/phantomuserland/pkg/grammar"
	"github.com/rxell/phantomuserland/pkg/lex"
)

// Result is the outcome of compiling one source file.
type Result struct {
	Path string

	// Set when parsing stopped at a syntax error. Nothing else is
	// consulted in that case.
	Aborted *grammar.CompileError

	Warnings    int
	Errors      int
	Diagnostics hcl.Diagnostics

	// The source text read, for showing context with diagnostics.
	Source []byte

	// Class files written.
	Outputs []string
}

func (r *Result) Failed() bool {
	return r.Aborted != nil || r.Errors > 0
}

// A Pipeline compiles source files with a fixed configuration.
type Pipeline struct {
	config Snapshot
	logger *log.Logger
}

func NewPipeline(config Snapshot, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{config: config, logger: logger}
}

// Compile one source file: tokenize, parse and check it, and write
// its class files when there are no errors. The returned error is
// only for input problems, such as a file that cannot be opened or
// read; compile problems are reported in the Result.
func (p *Pipeline) Compile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	lx := lex.New(path)
	lx.SetInput(bufio.NewReader(f))
	g := grammar.New(lx, path, p.config.SearchPath)

	p.logger.Debug("parsing", "file", path, "searchPath", strings.Join(p.config.SearchPath, string(os.PathListSeparator)))
	err = g.Parse()
	if rerr := lx.Err(); rerr != nil {
		return nil, errors.Wrapf(rerr, "reading %s", path)
	}

	res := &Result{Path: path, Source: lx.Source()}
	var ce *grammar.CompileError
	if errors.As(err, &ce) {
		p.logger.Debug("parse aborted", "file", path, "err", ce)
		res.Aborted = ce
		return res, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	res.Diagnostics = append(res.Diagnostics, g.Diagnostics()...)
	if g.ErrorCount() == 0 {
		res.Outputs, err = g.Codegen(p.config.OutputDir())
		if err != nil {
			res.Diagnostics = res.Diagnostics.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Cannot write class file",
				Detail:   err.Error(),
			})
		}
		p.listOutputs(res.Outputs)
	}
	res.Warnings = countSeverity(res.Diagnostics, hcl.DiagWarning)
	res.Errors = countSeverity(res.Diagnostics, hcl.DiagError)
	p.logger.Debug("compiled", "file", path, "warnings", res.Warnings, "errors", res.Errors)
	return res, nil
}

// At debug level, read back each class file written and log its listing.
func (p *Pipeline) listOutputs(paths []string) {
	if p.logger.GetLevel() > log.DebugLevel {
		return
	}
	for _, path := range paths {
		text, err := listing(path)
		if err != nil {
			p.logger.Warn("listing class file", "path", path, "err", err)
			continue
		}
		p.logger.Debug("wrote", "path", path, "listing", text)
	}
}

func listing(path string) (string, error) {
	c, err := classfile.ReadFile(path)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := classfile.Dump(&sb, c); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func countSeverity(diags hcl.Diagnostics, sev hcl.DiagnosticSeverity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
