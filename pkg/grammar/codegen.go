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
	"github.com/zclconf/go-cty/cty"

	cf "github.com/rxell/phantomuserland/pkg/classfile"
)

var binaryOps = map[string]cf.Opcode{
	"+":  cf.OpAdd,
	"-":  cf.OpSub,
	"*":  cf.OpMul,
	"/":  cf.OpDiv,
	"==": cf.OpEq,
	"!=": cf.OpNe,
	"<":  cf.OpLt,
	">":  cf.OpGt,
	"<=": cf.OpLe,
	">=": cf.OpGe,
}

func lowerClass(cls *Class) *cf.Class {
	out := &cf.Class{Name: cls.Name, Parent: cls.Parent}
	for _, f := range cls.Fields {
		out.Fields = append(out.Fields, cf.Field{Name: f.Name, Type: string(f.Type)})
	}
	for _, m := range cls.Methods {
		out.Methods = append(out.Methods, lowerMethod(m))
	}
	return out
}

func lowerMethod(m *Method) cf.Method {
	var e emitter
	e.block(m.Body)
	if m.Result == TypeVoid && !e.endsInRet() {
		e.emit(cf.OpRet)
	}
	return cf.Method{
		Name:    m.Name,
		Result:  string(m.Result),
		NArgs:   len(m.Params),
		NLocals: m.nlocals,
		Code:    e.code,
	}
}

// Emits stack machine code for one method. Jump targets are
// instruction indexes within the method.
type emitter struct {
	code []cf.Instr
}

func (e *emitter) emit(op cf.Opcode) int {
	e.code = append(e.code, cf.Instr{Op: op})
	return len(e.code) - 1
}

func (e *emitter) emitInt(op cf.Opcode, n int64) int {
	e.code = append(e.code, cf.Instr{Op: op, Int: n})
	return len(e.code) - 1
}

func (e *emitter) emitStr(op cf.Opcode, s string) {
	e.code = append(e.code, cf.Instr{Op: op, Str: s})
}

// Reports whether the code ends in a ret that no jump goes past.
func (e *emitter) endsInRet() bool {
	n := len(e.code)
	if n == 0 || e.code[n-1].Op != cf.OpRet {
		return false
	}
	for _, in := range e.code {
		if (in.Op == cf.OpJz || in.Op == cf.OpJmp) && in.Int == int64(n) {
			return false
		}
	}
	return true
}

// Point the jump at index at to the next instruction emitted.
func (e *emitter) patch(at int) {
	e.code[at].Int = int64(len(e.code))
}

func (e *emitter) block(b *Block) {
	for _, s := range b.Stmts {
		e.stmt(s)
	}
}

func (e *emitter) stmt(s Stmt) {
	switch s := s.(type) {
	case *VarStmt:
		if s.Init != nil {
			e.expr(s.Init)
			e.emitInt(cf.OpStore, int64(s.slot))
		}
	case *AssignStmt:
		e.expr(s.Value)
		if s.local != nil {
			e.emitInt(cf.OpStore, int64(s.local.slot))
		} else {
			e.emitStr(cf.OpPutField, s.Name)
		}
	case *ReturnStmt:
		if s.Value == nil {
			e.emit(cf.OpRet)
			return
		}
		e.expr(s.Value)
		e.emit(cf.OpRetv)
	case *IfStmt:
		e.expr(s.Cond)
		skipThen := e.emitInt(cf.OpJz, 0)
		e.block(s.Then)
		if s.Else == nil {
			e.patch(skipThen)
			return
		}
		skipElse := e.emitInt(cf.OpJmp, 0)
		e.patch(skipThen)
		e.block(s.Else)
		e.patch(skipElse)
	case *WhileStmt:
		top := int64(len(e.code))
		e.expr(s.Cond)
		exit := e.emitInt(cf.OpJz, 0)
		e.block(s.Body)
		e.emitInt(cf.OpJmp, top)
		e.patch(exit)
	case *CallStmt:
		e.expr(s.Call)
		if s.result != TypeVoid {
			e.emit(cf.OpPop)
		}
	}
}

func (e *emitter) expr(x Expr) {
	switch x := x.(type) {
	case *ConstExpr:
		if x.Value.Type() == cty.String {
			e.emitStr(cf.OpSConst, x.Value.AsString())
			return
		}
		n, _ := int64Of(x.Value)
		e.emitInt(cf.OpIConst, n)
	case *NameExpr:
		if x.local != nil {
			e.emitInt(cf.OpLoad, int64(x.local.slot))
		} else {
			e.emitStr(cf.OpGetField, x.Name)
		}
	case *UnaryExpr:
		e.expr(x.X)
		e.emit(cf.OpNeg)
	case *BinaryExpr:
		e.expr(x.X)
		e.expr(x.Y)
		if x.Op == "+" && x.typ == TypeString {
			e.emit(cf.OpConcat)
			return
		}
		e.emit(binaryOps[x.Op])
	case *CallExpr:
		for _, a := range x.Args {
			e.expr(a)
		}
		e.code = append(e.code, cf.Instr{Op: cf.OpCall, Str: x.Name, Int: int64(len(x.Args))})
	case *NewExpr:
		e.emitStr(cf.OpNew, x.Class)
	}
}
