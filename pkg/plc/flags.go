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
	"strings"
)

// ProcessFlag applies one flag operand to the configuration. Problems
// are reported on w and otherwise ignored; a bad flag never stops the
// run.
//
// The value of a flag follows the flag letter with no separator, as
// in -Ilib or -obuild.
func (c *Config) ProcessFlag(flag string, w io.Writer) {
	if strings.EqualFold(flag, "--version") {
		fmt.Fprintln(w, VersionLine())
		return
	}
	if len(flag) < 2 {
		fmt.Fprintln(w, "Won't compile stdin")
		return
	}
	value := flag[2:]
	switch flag[1] {
	case 'I':
		c.AddSearchPath(value)
	case 'o':
		c.SetOutputPath(value)
	default:
		fmt.Fprintf(w, "Unknown flag: %s\n", flag)
	}
}
