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

// Package classfile reads and writes .pc class files, the output of
// the Phantom language compiler.
package classfile

import (
	"fmt"
	"strings"
)

const Magic = "PHFR"
const FormatVersion = 1
const Suffix = ".pc"

type Opcode byte

const (
	OpNop Opcode = iota
	OpIConst
	OpSConst
	OpLoad
	OpStore
	OpGetField
	OpPutField
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpConcat
	OpJz
	OpJmp
	OpCall
	OpNew
	OpPop
	OpRet
	OpRetv
	numOpcodes
)

// Operand encodings
const (
	argNone = iota
	argInt        // int64
	argStr        // counted string
	argStrCount   // counted string followed by a uint16 count
)

var opInfo = [numOpcodes]struct {
	name string
	arg  int
}{
	OpNop:      {"nop", argNone},
	OpIConst:   {"iconst", argInt},
	OpSConst:   {"sconst", argStr},
	OpLoad:     {"load", argInt},
	OpStore:    {"store", argInt},
	OpGetField: {"getfield", argStr},
	OpPutField: {"putfield", argStr},
	OpAdd:      {"add", argNone},
	OpSub:      {"sub", argNone},
	OpMul:      {"mul", argNone},
	OpDiv:      {"div", argNone},
	OpNeg:      {"neg", argNone},
	OpEq:       {"eq", argNone},
	OpNe:       {"ne", argNone},
	OpLt:       {"lt", argNone},
	OpGt:       {"gt", argNone},
	OpLe:       {"le", argNone},
	OpGe:       {"ge", argNone},
	OpConcat:   {"concat", argNone},
	OpJz:       {"jz", argInt},
	OpJmp:      {"jmp", argInt},
	OpCall:     {"call", argStrCount},
	OpNew:      {"new", argStr},
	OpPop:      {"pop", argNone},
	OpRet:      {"ret", argNone},
	OpRetv:     {"retv", argNone},
}

func (op Opcode) String() string {
	if op >= numOpcodes {
		return fmt.Sprintf("op(%d)", byte(op))
	}
	return opInfo[op].name
}

type Instr struct {
	Op  Opcode
	Int int64  // constant, slot or jump target
	Str string // string constant, field, method or class name
}

func (in Instr) String() string {
	if in.Op >= numOpcodes {
		return in.Op.String()
	}
	switch opInfo[in.Op].arg {
	case argInt:
		return fmt.Sprintf("%s %d", in.Op, in.Int)
	case argStr:
		return fmt.Sprintf("%s %q", in.Op, in.Str)
	case argStrCount:
		return fmt.Sprintf("%s %s/%d", in.Op, in.Str, in.Int)
	}
	return in.Op.String()
}

type Field struct {
	Name string
	Type string
}

type Method struct {
	Name    string
	Result  string
	NArgs   int
	NLocals int // including the arguments
	Code    []Instr
}

type Class struct {
	Name    string
	Parent  string // empty for a root class
	Fields  []Field
	Methods []Method
}

func (c *Class) Method(name string) (*Method, bool) {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

// FileName is the name of the class file holding the named class. A
// qualified name is reduced to its last component.
func FileName(class string) string {
	return ShortName(class) + Suffix
}

func ShortName(class string) string {
	if i := strings.LastIndexByte(class, '.'); i >= 0 {
		return class[i+1:]
	}
	return class
}
