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
	"os"
)

type FormatError struct {
	Source string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: not a class file: %s", e.Source, e.Reason)
}

// Read a class in class file format from r. The name is used only
// in error messages.
func Read(name string, r io.Reader) (*Class, error) {
	cr := &classReader{name: name, r: bufio.NewReader(r)}
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(cr.r, magic); err != nil || string(magic) != Magic {
		return nil, &FormatError{name, "bad magic"}
	}
	if v := cr.u16(); cr.err == nil && v != FormatVersion {
		return nil, &FormatError{name, fmt.Sprintf("version %d, want %d", v, FormatVersion)}
	}

	c := &Class{}
	c.Name = cr.str()
	c.Parent = cr.str()

	nFields := int(cr.u16())
	for i := 0; i < nFields && cr.err == nil; i++ {
		c.Fields = append(c.Fields, Field{Name: cr.str(), Type: cr.str()})
	}

	nMethods := int(cr.u16())
	for i := 0; i < nMethods && cr.err == nil; i++ {
		m := Method{Name: cr.str(), Result: cr.str()}
		m.NArgs = int(cr.u16())
		m.NLocals = int(cr.u16())
		var nCode uint32
		cr.get(&nCode)
		for j := uint32(0); j < nCode && cr.err == nil; j++ {
			m.Code = append(m.Code, cr.instr())
		}
		c.Methods = append(c.Methods, m)
	}

	if cr.err != nil {
		if cr.err == io.EOF || cr.err == io.ErrUnexpectedEOF {
			return nil, &FormatError{name, "truncated"}
		}
		return nil, cr.err
	}
	return c, nil
}

func ReadFile(path string) (*Class, error) {
	pc, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer pc.Close()
	return Read(path, pc)
}

type classReader struct {
	name string
	r    *bufio.Reader
	err  error
}

func (cr *classReader) get(v any) {
	if cr.err == nil {
		cr.err = binary.Read(cr.r, binary.LittleEndian, v)
	}
}

func (cr *classReader) u16() uint16 {
	var v uint16
	cr.get(&v)
	return v
}

func (cr *classReader) str() string {
	n := cr.u16()
	if cr.err != nil {
		return ""
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(cr.r, b); err != nil {
		cr.err = err
		return ""
	}
	return string(b)
}

func (cr *classReader) instr() Instr {
	var op byte
	cr.get(&op)
	if cr.err != nil {
		return Instr{}
	}
	in := Instr{Op: Opcode(op)}
	if in.Op >= numOpcodes {
		cr.err = &FormatError{cr.name, fmt.Sprintf("invalid opcode %d", op)}
		return in
	}
	switch opInfo[in.Op].arg {
	case argInt:
		cr.get(&in.Int)
	case argStr:
		in.Str = cr.str()
	case argStrCount:
		in.Str = cr.str()
		in.Int = int64(cr.u16())
	}
	return in
}
