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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sources = map[string]string{
	"a.ph":       "class a { int f() { return 1; } }\n",
	"b.ph":       "class b\n{\n    int f() { return x + y; }\n}\n",
	"c.ph":       "class c { }\n",
	"w.ph":       "class w { void f() { var u : int; var v : int; } }\n",
	"syntax.ph":  "class s { void f( }\n",
	"base.ph":    "class base { var n : int; int get() { return n; } }\n",
	"derived.ph": "import .lib.base;\nclass derived extends .lib.base { int twice() { return get() * 2; } }\n",
}

type fixture struct {
	src    string
	out    string
	stdout bytes.Buffer
	stderr bytes.Buffer
	driver *Driver
}

func newFixture(t *testing.T) *fixture {
	fx := &fixture{src: t.TempDir(), out: t.TempDir()}
	for name, text := range sources {
		require.NoError(t, os.WriteFile(filepath.Join(fx.src, name), []byte(text), 0o644))
	}
	fx.driver = NewDriver(NewConfig(), &fx.stdout, &fx.stderr, nil)
	return fx
}

func (fx *fixture) path(name string) string {
	return filepath.Join(fx.src, name)
}

func (fx *fixture) run(operands ...string) (bool, error) {
	return fx.driver.Run(append([]string{"-o" + fx.out}, operands...))
}

func TestRunClean(t *testing.T) {
	fx := newFixture(t)
	failed, err := fx.run(fx.path("a.ph"), fx.path("c.ph"))
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Empty(t, fx.stdout.String())
	assert.FileExists(t, filepath.Join(fx.out, "a.pc"))
	assert.FileExists(t, filepath.Join(fx.out, "c.pc"))
}

func TestRunFailFast(t *testing.T) {
	fx := newFixture(t)
	failed, err := fx.run(fx.path("a.ph"), fx.path("b.ph"), "-z", fx.path("c.ph"))
	require.NoError(t, err)
	assert.True(t, failed)
	assert.Equal(t, []string{fx.path("a.ph"), fx.path("b.ph")}, fx.driver.Compiled())

	out := fx.stdout.String()
	assert.Contains(t, out, "Error: undefined: x")
	assert.Contains(t, out, "Error: undefined: y")
	assert.True(t, strings.HasSuffix(out, ">> 2 errors found\n"), out)
	assert.NotContains(t, out, "warnings found")

	// Operands after the failure, flags included, are never seen.
	assert.Empty(t, fx.stderr.String())
	assert.NoFileExists(t, filepath.Join(fx.out, "b.pc"))
	assert.NoFileExists(t, filepath.Join(fx.out, "c.pc"))
}

func TestRunKeepGoing(t *testing.T) {
	fx := newFixture(t)
	fx.driver.Config.StopOnFirstError = false
	failed, err := fx.run(fx.path("a.ph"), fx.path("b.ph"), fx.path("syntax.ph"), fx.path("c.ph"))
	require.NoError(t, err)
	assert.True(t, failed)
	assert.Len(t, fx.driver.Compiled(), 4)
	assert.FileExists(t, filepath.Join(fx.out, "c.pc"))
	assert.Contains(t, fx.stdout.String(), "Compile failed: ")
}

func TestRunWarnings(t *testing.T) {
	fx := newFixture(t)
	failed, err := fx.run(fx.path("w.ph"), fx.path("a.ph"))
	require.NoError(t, err)
	assert.False(t, failed)
	out := fx.stdout.String()
	assert.Equal(t, 1, strings.Count(out, ">> 2 warnings found\n"))
	assert.Contains(t, out, "Warning: u declared and not used")
	assert.NotContains(t, out, "errors found")
	assert.Len(t, fx.driver.Compiled(), 2)
	assert.FileExists(t, filepath.Join(fx.out, "w.pc"))
}

func TestRunVersionOnly(t *testing.T) {
	fx := newFixture(t)
	failed, err := fx.driver.Run([]string{"--version"})
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Equal(t, VersionLine()+"\n", fx.stderr.String())
	assert.Empty(t, fx.stdout.String())
	assert.Empty(t, fx.driver.Compiled())
}

// --version does not end the run.
func TestRunVersionThenFile(t *testing.T) {
	fx := newFixture(t)
	failed, err := fx.run("--version", fx.path("a.ph"))
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Equal(t, []string{fx.path("a.ph")}, fx.driver.Compiled())
}

func TestRunUnknownFlag(t *testing.T) {
	fx := newFixture(t)
	failed, err := fx.run("-z", fx.path("a.ph"), "-")
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Equal(t, "Unknown flag: -z\nWon't compile stdin\n", fx.stderr.String())
}

func TestRunSyntaxError(t *testing.T) {
	fx := newFixture(t)
	failed, err := fx.run(fx.path("syntax.ph"), fx.path("a.ph"))
	require.NoError(t, err)
	assert.True(t, failed)
	out := fx.stdout.String()
	assert.Contains(t, out, "Compile failed: "+fx.path("syntax.ph")+":1:19: expected identifier, found \"}\"\n")
	assert.NotContains(t, out, "errors found")
	assert.Equal(t, []string{fx.path("syntax.ph")}, fx.driver.Compiled())
}

func TestRunMissingFile(t *testing.T) {
	fx := newFixture(t)
	failed, err := fx.run(fx.path("a.ph"), fx.path("nothere.ph"), fx.path("c.ph"))
	require.Error(t, err)
	assert.True(t, failed)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
	assert.Len(t, fx.driver.Compiled(), 2)
}

func TestRunEmptyOperand(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.run("")
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

// Flags apply only to the files after them.
func TestRunInterleaved(t *testing.T) {
	fx := newFixture(t)
	lib := t.TempDir()
	failed, err := fx.driver.Run([]string{
		"-o" + lib, fx.path("base.ph"),
		"-I" + lib, "-o" + fx.out, fx.path("derived.ph"),
	})
	require.NoError(t, err)
	assert.False(t, failed, fx.stdout.String())
	assert.FileExists(t, filepath.Join(lib, "base.pc"))
	assert.FileExists(t, filepath.Join(fx.out, "derived.pc"))
	assert.NoFileExists(t, filepath.Join(lib, "derived.pc"))

	fx = newFixture(t)
	failed, err = fx.driver.Run([]string{
		"-o" + fx.out, fx.path("derived.ph"), "-I" + lib,
	})
	require.NoError(t, err)
	assert.True(t, failed)
	assert.Contains(t, fx.stdout.String(), "class file base.pc for import .lib.base not found")
}

func TestRunOutputNotWritable(t *testing.T) {
	fx := newFixture(t)
	failed, err := fx.driver.Run([]string{"-o" + filepath.Join(fx.out, "absent"), fx.path("a.ph")})
	require.NoError(t, err)
	assert.True(t, failed)
	out := fx.stdout.String()
	assert.Contains(t, out, "Error: Cannot write class file")
	assert.Contains(t, out, ">> 1 errors found")
}

func TestPipelineResult(t *testing.T) {
	fx := newFixture(t)
	p := NewPipeline(Snapshot{OutputPath: fx.out, OutputSet: true}, nil)

	res, err := p.Compile(fx.path("b.ph"))
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Nil(t, res.Aborted)
	assert.Equal(t, 2, res.Errors)
	assert.Equal(t, 0, res.Warnings)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, 3, res.Diagnostics[0].Subject.Start.Line)
	assert.Empty(t, res.Outputs)
	assert.Equal(t, sources["b.ph"], string(res.Source))

	res, err = p.Compile(fx.path("a.ph"))
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Equal(t, []string{filepath.Join(fx.out, "a.pc")}, res.Outputs)

	res, err = p.Compile(fx.path("syntax.ph"))
	require.NoError(t, err)
	assert.True(t, res.Failed())
	require.NotNil(t, res.Aborted)
	assert.Empty(t, res.Diagnostics)
}

func TestPipelineReadError(t *testing.T) {
	dir := t.TempDir()
	_, err := NewPipeline(Snapshot{}, nil).Compile(dir)
	require.Error(t, err)
	assert.False(t, os.IsNotExist(errors.Cause(err)))
	assert.Contains(t, err.Error(), "reading "+dir)
}

func TestPipelineDebugListing(t *testing.T) {
	fx := newFixture(t)
	var trace bytes.Buffer
	logger := log.NewWithOptions(&trace, log.Options{Level: log.DebugLevel})
	res, err := NewPipeline(Snapshot{OutputPath: fx.out, OutputSet: true}, logger).Compile(fx.path("a.ph"))
	require.NoError(t, err)
	assert.False(t, res.Failed())
	assert.Contains(t, trace.String(), "parsing")
	assert.Contains(t, trace.String(), "iconst 1")
}

func openFiles(t *testing.T) int {
	fds, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("no /proc/self/fd")
	}
	return len(fds)
}

// Source files are closed whether the file compiles, has errors or
// stops at a syntax error.
func TestPipelineClosesSource(t *testing.T) {
	fx := newFixture(t)
	p := NewPipeline(Snapshot{OutputPath: fx.out, OutputSet: true}, nil)
	_, err := p.Compile(fx.path("a.ph"))
	require.NoError(t, err)

	before := openFiles(t)
	for i := 0; i < 10; i++ {
		for _, name := range []string{"a.ph", "b.ph", "syntax.ph"} {
			_, err := p.Compile(fx.path(name))
			require.NoError(t, err)
		}
	}
	assert.Equal(t, before, openFiles(t))
	require.NoError(t, os.Remove(fx.path("syntax.ph")))
}

func TestListingBadClassFile(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.pc")
	require.NoError(t, os.WriteFile(bad, []byte("junk"), 0o644))
	_, err := listing(bad)
	assert.ErrorContains(t, err, "not a class file")

	var trace bytes.Buffer
	logger := log.NewWithOptions(&trace, log.Options{Level: log.DebugLevel})
	NewPipeline(Snapshot{}, logger).listOutputs([]string{bad})
	assert.Contains(t, trace.String(), "WARN")
	assert.Contains(t, trace.String(), "listing class file")
}
