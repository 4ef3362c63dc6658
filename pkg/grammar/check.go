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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/rxell/phantomuserland/pkg/classfile"
)

// Classes under this prefix are provided by the runtime and need no import.
const internalPrefix = ".internal."

type local struct {
	name  string
	typ   Type
	slot  int
	param bool
	used  bool
	rng   hcl.Range
}

// The checker resolves imports and names, computes expression
// types, folds constants and records counted diagnostics.
type checker struct {
	*diagList
	searchPath []string
	classes    map[string]*Class  // this file's classes by name
	imports    map[string]*Import // by last name component

	cls     *Class
	method  *Method
	scopes  []map[string]*local
	nlocals int
}

func check(f *File, searchPath []string, d *diagList) {
	c := &checker{
		diagList:   d,
		searchPath: searchPath,
		classes:    map[string]*Class{},
		imports:    map[string]*Import{},
	}
	for _, imp := range f.Imports {
		c.resolveImport(imp)
	}
	for _, cls := range f.Classes {
		if _, dup := c.classes[cls.Name]; dup {
			c.errorf(cls.Range, "class %s redefined", cls.Name)
			continue
		}
		if imp, clash := c.imports[cls.Name]; clash {
			c.errorf(cls.Range, "class %s clashes with import %s", cls.Name, imp.Name)
		}
		c.classes[cls.Name] = cls
	}
	for _, cls := range f.Classes {
		c.checkClass(cls)
	}
	for _, imp := range f.Imports {
		if imp.class != nil && !imp.used {
			c.warnf(imp.Range, "import %s is not used", imp.Name)
		}
	}
}

// Look for the class file of an import in each directory of the
// search path, in order. The first file found is used.
func (c *checker) resolveImport(imp *Import) {
	short := classfile.ShortName(imp.Name)
	if prev, dup := c.imports[short]; dup {
		c.errorf(imp.Range, "%s imported twice (previous import %s)", short, prev.Name)
		return
	}
	c.imports[short] = imp
	for _, dir := range c.searchPath {
		path := filepath.Join(dir, classfile.FileName(imp.Name))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cls, err := classfile.ReadFile(path)
		if err != nil {
			c.errorf(imp.Range, "import %s: %v", imp.Name, err)
			return
		}
		imp.class = cls
		return
	}
	detail := "The search path is empty; add directories with -I."
	if len(c.searchPath) > 0 {
		detail = "Searched: " + strings.Join(c.searchPath, ", ")
	}
	c.add(hcl.DiagError, imp.Range, "class file "+classfile.FileName(imp.Name)+" for import "+imp.Name+" not found", detail)
}

// Reports whether the class name refers to a class known here,
// marking an import as used if it supplies the class.
func (c *checker) knownClass(name string) bool {
	if strings.HasPrefix(name, internalPrefix) {
		return true
	}
	short := classfile.ShortName(name)
	if imp, ok := c.imports[short]; ok {
		// An unresolved import has been reported already.
		imp.used = true
		return true
	}
	_, ok := c.classes[short]
	return ok
}

func (c *checker) checkType(t Type, rng hcl.Range) {
	if t.isClass() && !c.knownClass(string(t)) {
		c.errorf(rng, "unknown class %s", t)
	}
}

func (c *checker) checkClass(cls *Class) {
	c.cls = cls
	if cls.Parent != "" {
		if !c.knownClass(cls.Parent) {
			c.errorf(cls.ParentRange, "unknown parent class %s", cls.Parent)
		} else if c.inheritsFrom(cls.Parent, cls.Name) {
			c.errorf(cls.ParentRange, "inheritance cycle through %s", cls.Parent)
		}
	}

	seen := map[string]hcl.Range{}
	for _, f := range cls.Fields {
		if _, dup := seen[f.Name]; dup {
			c.errorf(f.Range, "field %s redeclared in class %s", f.Name, cls.Name)
		}
		seen[f.Name] = f.Range
		c.checkType(f.Type, f.Range)
	}
	for _, m := range cls.Methods {
		if _, dup := seen[m.Name]; dup {
			c.errorf(m.Range, "%s redeclared in class %s", m.Name, cls.Name)
		}
		seen[m.Name] = m.Range
		c.checkMethod(m)
	}
}

// Reports whether following same-file parents from name reaches target.
func (c *checker) inheritsFrom(name, target string) bool {
	visited := map[string]bool{}
	for name != "" && !visited[name] && !strings.HasPrefix(name, internalPrefix) {
		if name == target {
			return true
		}
		visited[name] = true
		cls, ok := c.classes[classfile.ShortName(name)]
		if !ok {
			return false
		}
		name = cls.Parent
	}
	return false
}

// ---------
// Methods
// ---------

func (c *checker) checkMethod(m *Method) {
	c.method = m
	c.nlocals = 0
	c.checkType(m.Result, m.Range)
	c.push()
	for _, p := range m.Params {
		c.checkType(p.Type, p.Range)
		c.declare(&local{name: p.Name, typ: p.Type, param: true, rng: p.Range})
	}
	terminates := c.checkBlock(m.Body)
	c.pop()
	if m.Result != TypeVoid && !terminates {
		c.errorf(m.Body.Range, "missing return at end of %s", m.Name)
	}
	m.nlocals = c.nlocals
}

func (c *checker) push() {
	c.scopes = append(c.scopes, map[string]*local{})
}

func (c *checker) pop() {
	top := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	var unused []*local
	for _, l := range top {
		if !l.param && !l.used {
			unused = append(unused, l)
		}
	}
	sort.Slice(unused, func(i, j int) bool { return unused[i].slot < unused[j].slot })
	for _, l := range unused {
		c.warnf(l.rng, "%s declared and not used", l.name)
	}
}

func (c *checker) declare(l *local) {
	if prev := c.lookupLocal(l.name); prev != nil {
		c.errorf(l.rng, "%s redeclared in this method", l.name)
		return
	}
	l.slot = c.nlocals
	c.nlocals++
	c.scopes[len(c.scopes)-1][l.name] = l
}

func (c *checker) lookupLocal(name string) *local {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if l, ok := c.scopes[i][name]; ok {
			return l
		}
	}
	return nil
}

// Find a field of the current class or an ancestor.
func (c *checker) lookupField(name string) (Type, bool) {
	var found Type
	ok := c.walkAncestors(func(cls *Class) bool {
		for _, f := range cls.Fields {
			if f.Name == name {
				found = f.Type
				return true
			}
		}
		return false
	}, func(cf *classfile.Class) bool {
		for _, f := range cf.Fields {
			if f.Name == name {
				found = Type(f.Type)
				return true
			}
		}
		return false
	})
	return found, ok
}

type methodSig struct {
	params []Type // nil when only the count is known
	nargs  int
	result Type
}

func (c *checker) lookupMethod(name string) (methodSig, bool) {
	var sig methodSig
	ok := c.walkAncestors(func(cls *Class) bool {
		for _, m := range cls.Methods {
			if m.Name == name {
				sig = methodSig{nargs: len(m.Params), result: m.Result}
				for _, p := range m.Params {
					sig.params = append(sig.params, p.Type)
				}
				return true
			}
		}
		return false
	}, func(cf *classfile.Class) bool {
		if m, found := cf.Method(name); found {
			sig = methodSig{nargs: m.NArgs, result: Type(m.Result)}
			return true
		}
		return false
	})
	return sig, ok
}

// Visit the current class and its ancestors until a visitor returns
// true. Same-file classes go to inFile, imported ones to imported.
func (c *checker) walkAncestors(inFile func(*Class) bool, imported func(*classfile.Class) bool) bool {
	visited := map[string]bool{}
	cls := c.cls
	for cls != nil && !visited[cls.Name] {
		visited[cls.Name] = true
		if inFile(cls) {
			return true
		}
		parent := classfile.ShortName(cls.Parent)
		if cls.Parent == "" || strings.HasPrefix(cls.Parent, internalPrefix) {
			return false
		}
		if next, ok := c.classes[parent]; ok {
			cls = next
			continue
		}
		// Walk up through imported class files.
		imp, ok := c.imports[parent]
		for ok && imp.class != nil && !visited[imp.class.Name] {
			visited[imp.class.Name] = true
			if imported(imp.class) {
				return true
			}
			if imp.class.Parent == "" {
				return false
			}
			imp, ok = c.imports[classfile.ShortName(imp.class.Parent)]
		}
		return false
	}
	return false
}

// -----------
// Statements
// -----------

// Check the statements of a block in a new scope. Reports whether
// the block always ends in a return.
func (c *checker) checkBlock(b *Block) bool {
	c.push()
	defer c.pop()
	terminated, warned := false, false
	for _, s := range b.Stmts {
		if terminated && !warned {
			c.warnf(s.StmtRange(), "unreachable code")
			warned = true
		}
		if c.checkStmt(s) {
			terminated = true
		}
	}
	return terminated
}

func (c *checker) checkStmt(s Stmt) bool {
	switch s := s.(type) {
	case *VarStmt:
		c.checkType(s.Type, s.Range)
		if s.Init != nil {
			var t Type
			s.Init, t = c.expr(s.Init)
			c.assignable(s.Type, t, s.Init.ExprRange())
		}
		l := &local{name: s.Name, typ: s.Type, rng: s.Range}
		c.declare(l)
		s.slot = l.slot

	case *AssignStmt:
		var t Type
		s.Value, t = c.expr(s.Value)
		if l := c.lookupLocal(s.Name); l != nil {
			s.local = l
			c.assignable(l.typ, t, s.Value.ExprRange())
		} else if ft, ok := c.lookupField(s.Name); ok {
			c.assignable(ft, t, s.Value.ExprRange())
		} else {
			c.errorf(s.Range, "undefined: %s", s.Name)
		}

	case *ReturnStmt:
		if s.Value == nil {
			if c.method.Result != TypeVoid {
				c.errorf(s.Range, "missing return value in %s", c.method.Name)
			}
			return true
		}
		var t Type
		s.Value, t = c.expr(s.Value)
		if c.method.Result == TypeVoid {
			c.errorf(s.Value.ExprRange(), "void method %s returns a value", c.method.Name)
		} else {
			c.assignable(c.method.Result, t, s.Value.ExprRange())
		}
		return true

	case *IfStmt:
		s.Cond = c.condition(s.Cond)
		thenReturns := c.checkBlock(s.Then)
		if s.Else == nil {
			return false
		}
		elseReturns := c.checkBlock(s.Else)
		return thenReturns && elseReturns

	case *WhileStmt:
		s.Cond = c.condition(s.Cond)
		c.checkBlock(s.Body)

	case *CallStmt:
		s.result = c.call(s.Call)
	}
	return false
}

func (c *checker) condition(e Expr) Expr {
	e, t := c.expr(e)
	if t != TypeUnknown && t != TypeInt {
		c.errorf(e.ExprRange(), "condition must be int, found %s", t)
	}
	return e
}

func (c *checker) assignable(to, from Type, rng hcl.Range) {
	if to == TypeUnknown || from == TypeUnknown {
		return
	}
	if !to.same(from) {
		c.errorf(rng, "cannot use %s value as %s", from, to)
	}
}

// ------------
// Expressions
// ------------

// Check an expression, returning it (possibly folded) with its type.
func (c *checker) expr(e Expr) (Expr, Type) {
	switch e := e.(type) {
	case *ConstExpr:
		if e.Value.Type() == cty.String {
			return e, TypeString
		}
		return e, TypeInt

	case *NameExpr:
		if l := c.lookupLocal(e.Name); l != nil {
			l.used = true
			e.local = l
			return e, l.typ
		}
		if t, ok := c.lookupField(e.Name); ok {
			return e, t
		}
		c.errorf(e.Range, "undefined: %s", e.Name)
		return e, TypeUnknown

	case *UnaryExpr:
		var t Type
		e.X, t = c.expr(e.X)
		if t == TypeUnknown {
			return e, t
		}
		if t != TypeInt {
			c.errorf(e.Range, "invalid operation: -%s", t)
			return e, TypeUnknown
		}
		if k, ok := e.X.(*ConstExpr); ok {
			if v, ok := intConst(k.Value.Negate()); ok {
				return &ConstExpr{Value: v, Range: e.Range}, TypeInt
			}
		}
		return e, TypeInt

	case *BinaryExpr:
		return c.binary(e)

	case *CallExpr:
		t := c.call(e)
		if t == TypeVoid {
			c.errorf(e.Range, "%s returns no value", e.Name)
			return e, TypeUnknown
		}
		return e, t

	case *NewExpr:
		if !c.knownClass(e.Class) {
			c.errorf(e.Range, "unknown class %s", e.Class)
			return e, TypeUnknown
		}
		return e, Type(e.Class)
	}
	return e, TypeUnknown
}

func (c *checker) binary(e *BinaryExpr) (Expr, Type) {
	var xt, yt Type
	e.X, xt = c.expr(e.X)
	e.Y, yt = c.expr(e.Y)
	if xt == TypeUnknown || yt == TypeUnknown {
		return e, TypeUnknown
	}

	result := TypeUnknown
	switch e.Op {
	case "+":
		if xt == yt && (xt == TypeInt || xt == TypeString) {
			result = xt
		}
	case "-", "*", "/":
		if xt == TypeInt && yt == TypeInt {
			result = TypeInt
		}
	case "==", "!=":
		if xt.same(yt) {
			result = TypeInt
		}
	case "<", ">", "<=", ">=":
		if xt == TypeInt && yt == TypeInt {
			result = TypeInt
		}
	}
	if result == TypeUnknown {
		c.errorf(e.Range, "invalid operation: %s %s %s", xt, e.Op, yt)
		return e, TypeUnknown
	}
	e.typ = xt

	if e.Op == "/" {
		if k, ok := e.Y.(*ConstExpr); ok && isZero(k.Value) {
			c.errorf(e.Y.ExprRange(), "division by zero")
			return e, result
		}
	}
	if folded, ok := fold(e); ok {
		return folded, result
	}
	return e, result
}

// Check a call of a method of the current class or an ancestor.
// Returns the result type.
func (c *checker) call(e *CallExpr) Type {
	argTypes := make([]Type, len(e.Args))
	for i := range e.Args {
		e.Args[i], argTypes[i] = c.expr(e.Args[i])
	}
	sig, ok := c.lookupMethod(e.Name)
	if !ok {
		c.errorf(e.Range, "undefined method %s", e.Name)
		return TypeUnknown
	}
	if sig.nargs != len(e.Args) {
		c.errorf(e.Range, "%s takes %d arguments, found %d", e.Name, sig.nargs, len(e.Args))
		return sig.result
	}
	for i, pt := range sig.params {
		c.assignable(pt, argTypes[i], e.Args[i].ExprRange())
	}
	return sig.result
}
