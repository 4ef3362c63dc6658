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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Write the class to w in class file format. All multibyte
// quantities are little endian; strings are a uint16 byte count
// followed by the bytes.
func Write(w io.Writer, c *Class) error {
	cw := &classWriter{w: bufio.NewWriter(w)}
	cw.bytes([]byte(Magic))
	cw.u16(FormatVersion)
	cw.str(c.Name)
	cw.str(c.Parent)

	cw.count(len(c.Fields))
	for _, f := range c.Fields {
		cw.str(f.Name)
		cw.str(f.Type)
	}

	cw.count(len(c.Methods))
	for _, m := range c.Methods {
		cw.str(m.Name)
		cw.str(m.Result)
		cw.count(m.NArgs)
		cw.count(m.NLocals)
		cw.put(uint32(len(m.Code)))
		for _, in := range m.Code {
			cw.instr(in)
		}
	}
	if cw.err != nil {
		return cw.err
	}
	return cw.w.Flush()
}

// WriteFile writes the class to the file named for it in dir and
// returns the path of the file. On failure no file is left behind.
func WriteFile(dir string, c *Class) (string, error) {
	path := filepath.Join(dir, FileName(c.Name))
	pc, err := os.Create(path)
	if err != nil {
		return "", err
	}
	err = Write(pc, c)
	if cerr := pc.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Keeps the first error; later writes are no-ops.
type classWriter struct {
	w   *bufio.Writer
	err error
}

func (cw *classWriter) put(v any) {
	if cw.err == nil {
		cw.err = binary.Write(cw.w, binary.LittleEndian, v)
	}
}

func (cw *classWriter) bytes(b []byte) {
	if cw.err == nil {
		_, cw.err = cw.w.Write(b)
	}
}

func (cw *classWriter) u16(v uint16) {
	cw.put(v)
}

func (cw *classWriter) count(n int) {
	if n < 0 || n > math.MaxUint16 {
		if cw.err == nil {
			cw.err = fmt.Errorf("count %d out of range", n)
		}
		return
	}
	cw.u16(uint16(n))
}

func (cw *classWriter) str(s string) {
	cw.count(len(s))
	cw.bytes([]byte(s))
}

func (cw *classWriter) instr(in Instr) {
	if in.Op >= numOpcodes {
		if cw.err == nil {
			cw.err = fmt.Errorf("invalid opcode %d", byte(in.Op))
		}
		return
	}
	cw.put(byte(in.Op))
	switch opInfo[in.Op].arg {
	case argInt:
		cw.put(in.Int)
	case argStr:
		cw.str(in.Str)
	case argStrCount:
		cw.str(in.Str)
		cw.count(int(in.Int))
	}
}
