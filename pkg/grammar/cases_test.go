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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxell/phantomuserland/pkg/lex"
)

/*
Most checks are easier to read as whole source files than as little
strings embedded in test code, so they are data driven. Each file in
testdata holds many cases. A case starts with "$case name", has one
"$expect" line, and the remaining lines are the source. The expected
outcome is either "abort", meaning Parse returns a *CompileError, or
counts of the errors and warnings Parse should leave behind.
*/

const testData = "./testdata"

type testCase struct {
	name   string
	expect string
	source strings.Builder
}

func newGrammar(name, src string, searchPath ...string) *Grammar {
	l := lex.New(name)
	l.SetInput(strings.NewReader(src))
	return New(l, name, searchPath)
}

func TestCases(t *testing.T) {
	entries, err := os.ReadDir(testData)
	require.NoError(t, err)
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			// ignore editor temp files
			continue
		}
		for _, tc := range readCases(t, filepath.Join(testData, entry.Name())) {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				runCase(t, tc)
			})
		}
	}
}

func readCases(t *testing.T, path string) []*testCase {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var cases []*testCase
	var cur *testCase
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "#"):
		case strings.HasPrefix(line, "$case "):
			cur = &testCase{name: strings.TrimSpace(line[len("$case "):])}
			cases = append(cases, cur)
		case strings.HasPrefix(line, "$expect "):
			require.NotNil(t, cur, "%s: $expect before $case", path)
			cur.expect = strings.TrimSpace(line[len("$expect "):])
		case cur != nil:
			cur.source.WriteString(line)
			cur.source.WriteString("\n")
		}
	}
	require.NoError(t, sc.Err())
	return cases
}

func runCase(t *testing.T, tc *testCase) {
	g := newGrammar(tc.name+".ph", tc.source.String())
	err := g.Parse()
	if tc.expect == "abort" {
		var ce *CompileError
		assert.ErrorAs(t, err, &ce)
		return
	}
	require.NoError(t, err)
	got := fmt.Sprintf("errors=%d warnings=%d", g.ErrorCount(), g.WarningCount())
	assert.Equal(t, tc.expect, got, "diagnostics: %v", g.Diagnostics())
}
