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
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// A CompileError ends parsing of a source file. It is raised for
// syntax errors and for tokens the lexer could not make sense of.
type CompileError struct {
	Range   hcl.Range
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, e.Message)
}

// Diagnostic returns the error in the form used for counted
// diagnostics, so callers can render it the same way.
func (e *CompileError) Diagnostic() *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  e.Message,
		Subject:  e.Range.Ptr(),
	}
}

type diagList struct {
	diags hcl.Diagnostics
}

func (d *diagList) errorf(rng hcl.Range, format string, args ...any) {
	d.add(hcl.DiagError, rng, fmt.Sprintf(format, args...), "")
}

func (d *diagList) warnf(rng hcl.Range, format string, args ...any) {
	d.add(hcl.DiagWarning, rng, fmt.Sprintf(format, args...), "")
}

func (d *diagList) add(sev hcl.DiagnosticSeverity, rng hcl.Range, summary, detail string) {
	d.diags = d.diags.Append(&hcl.Diagnostic{
		Severity: sev,
		Summary:  summary,
		Detail:   detail,
		Subject:  rng.Ptr(),
	})
}

func (d *diagList) count(sev hcl.DiagnosticSeverity) int {
	n := 0
	for _, diag := range d.diags {
		if diag.Severity == sev {
			n++
		}
	}
	return n
}
