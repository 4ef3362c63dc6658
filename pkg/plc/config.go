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

// Package plc drives the Phantom language compiler. It processes the
// command line operands in order, applying flags to a Config and
// compiling each source file through a Pipeline as it is reached.
package plc

// Config is the run configuration built up by flag operands. Files
// are compiled with the configuration in effect when they are reached.
type Config struct {
	searchPath []string
	outputPath string
	outputSet  bool

	// Stop at the first file that fails to compile. When false every
	// file is compiled and the run fails if any of them failed.
	StopOnFirstError bool
}

func NewConfig() *Config {
	return &Config{StopOnFirstError: true}
}

// AddSearchPath appends a directory to the class file search path.
// Duplicates are kept; nothing is checked until an import is resolved.
func (c *Config) AddSearchPath(dir string) {
	c.searchPath = append(c.searchPath, dir)
}

func (c *Config) SetOutputPath(path string) {
	c.outputPath = path
	c.outputSet = true
}

// SearchPath returns a copy of the search path in the order given.
func (c *Config) SearchPath() []string {
	return append([]string(nil), c.searchPath...)
}

func (c *Config) OutputPath() (string, bool) {
	return c.outputPath, c.outputSet
}

// Snapshot returns the configuration as it stands now. Later flags
// do not affect a snapshot already taken.
func (c *Config) Snapshot() Snapshot {
	return Snapshot{
		SearchPath: c.SearchPath(),
		OutputPath: c.outputPath,
		OutputSet:  c.outputSet,
	}
}

// Snapshot is the read only configuration a Pipeline compiles with.
type Snapshot struct {
	SearchPath []string
	OutputPath string
	OutputSet  bool
}

// OutputDir is where class files are written: the output path when
// one was given, else the current directory.
func (s Snapshot) OutputDir() string {
	if s.OutputSet && s.OutputPath != "" {
		return s.OutputPath
	}
	return "."
}
