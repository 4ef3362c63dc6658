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
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/rxell/phantomuserland/pkg/classfile"
)

type Type string

const (
	TypeUnknown Type = "" // result of an erroneous expression; never reported twice
	TypeVoid    Type = "void"
	TypeInt     Type = "int"
	TypeString  Type = "string"
)

func (t Type) isClass() bool {
	return t != TypeUnknown && t != TypeVoid && t != TypeInt && t != TypeString
}

// Class types compare by their last name component.
func (t Type) same(u Type) bool {
	if t.isClass() && u.isClass() {
		return classfile.ShortName(string(t)) == classfile.ShortName(string(u))
	}
	return t == u
}

type File struct {
	Imports []*Import
	Classes []*Class
}

type Import struct {
	Name  string
	Range hcl.Range
	class *classfile.Class // set when resolved
	used  bool
}

type Class struct {
	Name        string
	Parent      string
	Range       hcl.Range
	ParentRange hcl.Range
	Fields      []*Field
	Methods     []*Method
}

type Field struct {
	Name  string
	Type  Type
	Range hcl.Range
}

type Param struct {
	Name  string
	Type  Type
	Range hcl.Range
}

type Method struct {
	Name   string
	Result Type
	Params []*Param
	Body   *Block
	Range  hcl.Range

	nlocals int // parameters and locals, set by the checker
}

type Block struct {
	Stmts []Stmt
	Range hcl.Range
}

type Stmt interface {
	StmtRange() hcl.Range
}

type VarStmt struct {
	Name  string
	Type  Type
	Init  Expr // may be nil
	Range hcl.Range
	slot  int
}

type AssignStmt struct {
	Name  string
	Value Expr
	Range hcl.Range
	local *local // nil for a field
}

type ReturnStmt struct {
	Value Expr // nil in a void method
	Range hcl.Range
}

type IfStmt struct {
	Cond  Expr
	Then  *Block
	Else  *Block // may be nil
	Range hcl.Range
}

type WhileStmt struct {
	Cond  Expr
	Body  *Block
	Range hcl.Range
}

type CallStmt struct {
	Call   *CallExpr
	Range  hcl.Range
	result Type
}

func (s *VarStmt) StmtRange() hcl.Range    { return s.Range }
func (s *AssignStmt) StmtRange() hcl.Range { return s.Range }
func (s *ReturnStmt) StmtRange() hcl.Range { return s.Range }
func (s *IfStmt) StmtRange() hcl.Range     { return s.Range }
func (s *WhileStmt) StmtRange() hcl.Range  { return s.Range }
func (s *CallStmt) StmtRange() hcl.Range   { return s.Range }

type Expr interface {
	ExprRange() hcl.Range
}

type ConstExpr struct {
	Value cty.Value // cty.Number holding an integer, or cty.String
	Range hcl.Range
}

type NameExpr struct {
	Name  string
	Range hcl.Range
	local *local // nil for a field
}

type UnaryExpr struct {
	Op    string
	X     Expr
	Range hcl.Range
}

type BinaryExpr struct {
	Op    string
	X, Y  Expr
	Range hcl.Range
	typ   Type // operand type
}

type CallExpr struct {
	Name  string
	Args  []Expr
	Range hcl.Range
}

type NewExpr struct {
	Class string
	Range hcl.Range
}

func (e *ConstExpr) ExprRange() hcl.Range  { return e.Range }
func (e *NameExpr) ExprRange() hcl.Range   { return e.Range }
func (e *UnaryExpr) ExprRange() hcl.Range  { return e.Range }
func (e *BinaryExpr) ExprRange() hcl.Range { return e.Range }
func (e *CallExpr) ExprRange() hcl.Range   { return e.Range }
func (e *NewExpr) ExprRange() hcl.Range    { return e.Range }
