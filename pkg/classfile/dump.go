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

package classfile

import (
	"fmt"
	"io"
)

// Dump writes a human readable listing of c.
func Dump(w io.Writer, c *Class) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}
	if c.Parent != "" {
		printf("class %s extends %s\n", c.Name, c.Parent)
	} else {
		printf("class %s\n", c.Name)
	}
	for _, f := range c.Fields {
		printf("    field %s %s\n", f.Name, f.Type)
	}
	for _, m := range c.Methods {
		printf("    method %s/%d %s locals %d\n", m.Name, m.NArgs, m.Result, m.NLocals)
		for i, in := range m.Code {
			printf("        %04d  %s\n", i, in)
		}
	}
	return err
}
