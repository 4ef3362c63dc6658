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

package grammar

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cf "github.com/rxell/phantomuserland/pkg/classfile"
)

const counterSource = `
class counter extends .internal.object
{
    var count : int;

    int bump(by : int)
    {
        var old : int = count;
        count = count + by;
        if (count > 100) {
            count = 0;
        }
        return old;
    }

    void reset() { count = 0; }

    void twice() { bump(1); bump(2); }
}
`

func compileOne(t *testing.T, src string) *cf.Class {
	g := newGrammar("c.ph", src)
	require.NoError(t, g.Parse())
	require.Equal(t, 0, g.ErrorCount(), "%v", g.Diagnostics())
	dir := t.TempDir()
	written, err := g.Codegen(dir)
	require.NoError(t, err)
	require.Len(t, written, 1)
	c, err := cf.ReadFile(written[0])
	require.NoError(t, err)
	return c
}

func code(t *testing.T, c *cf.Class, method string) []string {
	m, ok := c.Method(method)
	require.True(t, ok, "no method %s", method)
	var listing []string
	for _, in := range m.Code {
		listing = append(listing, in.String())
	}
	return listing
}

func TestCodegen1(t *testing.T) {
	c := compileOne(t, counterSource)
	assert.Equal(t, "counter", c.Name)
	assert.Equal(t, ".internal.object", c.Parent)
	assert.Equal(t, []cf.Field{{Name: "count", Type: "int"}}, c.Fields)

	bump, _ := c.Method("bump")
	assert.Equal(t, 1, bump.NArgs)
	assert.Equal(t, 2, bump.NLocals)
	assert.Equal(t, "int", bump.Result)

	expected := []string{
		`getfield "count"`,
		"store 1",
		`getfield "count"`,
		"load 0",
		"add",
		`putfield "count"`,
		`getfield "count"`,
		"iconst 100",
		"gt",
		"jz 12",
		"iconst 0",
		`putfield "count"`,
		"load 1",
		"retv",
	}
	if diff := cmp.Diff(expected, code(t, c, "bump")); diff != "" {
		t.Errorf("bump (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"iconst 0", `putfield "count"`, "ret"}, code(t, c, "reset"))
	assert.Equal(t, []string{"iconst 1", "call bump/1", "pop", "iconst 2", "call bump/1", "pop", "ret"}, code(t, c, "twice"))
}

func TestCodegenLoop(t *testing.T) {
	c := compileOne(t, `
class l
{
    int loop(n : int)
    {
        var i : int = 0;
        while (i < n) {
            i = i + 1;
        }
        return i;
    }
}`)
	expected := []string{
		"iconst 0", "store 1",
		"load 1", "load 0", "lt", "jz 11",
		"load 1", "iconst 1", "add", "store 1", "jmp 2",
		"load 1", "retv",
	}
	assert.Equal(t, expected, code(t, c, "loop"))
}

// A return inside a trailing if does not end the method.
func TestCodegenTrailingIf(t *testing.T) {
	c := compileOne(t, "class a { void f(x : int) { if (x) { return; } } }")
	assert.Equal(t, []string{"load 0", "jz 3", "ret", "ret"}, code(t, c, "f"))
}

func TestCodegenElse(t *testing.T) {
	c := compileOne(t, `class a { string f(x : int) { if (x == 0) { return "zero"; } else { return "other"; } } }`)
	expected := []string{
		"load 0", "iconst 0", "eq", "jz 7",
		`sconst "zero"`, "retv", "jmp 9",
		`sconst "other"`, "retv",
	}
	assert.Equal(t, expected, code(t, c, "f"))
}

func TestCodegenStrings(t *testing.T) {
	c := compileOne(t, `class a { string f(n : string) { return "a" + n + ("b" + "c"); } }`)
	assert.Equal(t, []string{`sconst "a"`, "load 0", "concat", `sconst "bc"`, "concat", "retv"}, code(t, c, "f"))
}

func TestCodegenNew(t *testing.T) {
	c := compileOne(t, `class a { .internal.object f() { return new .internal.object(); } }`)
	assert.Equal(t, []string{`new ".internal.object"`, "retv"}, code(t, c, "f"))
}

func TestCodegenManyClasses(t *testing.T) {
	g := newGrammar("m.ph", "class a { }\nclass b extends a { }\n")
	require.NoError(t, g.Parse())
	dir := t.TempDir()
	written, err := g.Codegen(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.pc"), filepath.Join(dir, "b.pc")}, written)
}

// A class that cannot be written takes the ones before it along.
func TestCodegenFailure(t *testing.T) {
	src := "class a { }\nclass b { string f() { return \"" + strings.Repeat("y", 70000) + "\"; } }\n"
	g := newGrammar("big.ph", src)
	require.NoError(t, g.Parse())
	require.Equal(t, 0, g.ErrorCount())
	dir := t.TempDir()
	written, err := g.Codegen(dir)
	assert.Error(t, err)
	assert.Empty(t, written)
	assert.NoFileExists(t, filepath.Join(dir, "a.pc"))
	assert.NoFileExists(t, filepath.Join(dir, "b.pc"))
}
