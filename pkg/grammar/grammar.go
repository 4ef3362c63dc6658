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

// Package grammar parses Phantom language source, checks it and
// generates class files.
//
// The language is a small class language:
//
//	import .internal.io.tty;
//
//	class greeter extends .internal.object
//	{
//	    var count : int;
//
//	    string greet(name : string)
//	    {
//	        count = count + 1;
//	        return "hello, " + name;
//	    }
//	}
//
// Syntax errors end parsing with a *CompileError. Everything else is
// reported as a counted error or warning diagnostic; code is only
// generated when there are no errors.
package grammar

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"

	"github.com/rxell/phantomuserland/pkg/classfile"
)

var ErrNotParsed = errors.New("code generation requires a successful parse")

type Grammar struct {
	ts         TokenSource
	name       string
	searchPath []string
	file       *File
	diags      diagList
}

// New returns a parser reading tokens from ts. Imports are looked up
// in the directories of searchPath, in order.
func New(ts TokenSource, name string, searchPath []string) *Grammar {
	return &Grammar{
		ts:         ts,
		name:       name,
		searchPath: append([]string(nil), searchPath...),
	}
}

func (g *Grammar) Name() string {
	return g.name
}

// Parse the whole source and check it. A syntax error is returned as
// a *CompileError; all other problems are counted diagnostics.
func (g *Grammar) Parse() error {
	f, err := parse(g.ts)
	if err != nil {
		return err
	}
	g.file = f
	check(f, g.searchPath, &g.diags)
	return nil
}

// File returns the syntax tree, or nil before a successful Parse.
func (g *Grammar) File() *File {
	return g.file
}

func (g *Grammar) ErrorCount() int {
	return g.diags.count(hcl.DiagError)
}

func (g *Grammar) WarningCount() int {
	return g.diags.count(hcl.DiagWarning)
}

func (g *Grammar) Diagnostics() hcl.Diagnostics {
	return g.diags.diags
}

// Codegen writes one class file per class into outDir and returns
// their paths. It may only be called after Parse succeeded with no
// errors. If any class cannot be written, the files already written
// are removed.
func (g *Grammar) Codegen(outDir string) ([]string, error) {
	if g.file == nil {
		return nil, ErrNotParsed
	}
	if n := g.ErrorCount(); n > 0 {
		return nil, fmt.Errorf("%s: %d errors, no code generated", g.name, n)
	}
	var written []string
	for _, cls := range g.file.Classes {
		path, err := classfile.WriteFile(outDir, lowerClass(cls))
		if err != nil {
			for _, w := range written {
				os.Remove(w)
			}
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}
