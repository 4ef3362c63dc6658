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
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/rxell/phantomuserland/pkg/lex"
)

// TokenSource is what the parser needs from a tokenizer.
type TokenSource interface {
	Next() lex.Token
	Peek() lex.Token
}

// Recursive descent parser. Syntax errors unwind with a panic
// carrying *CompileError, recovered in parse.
type parser struct {
	ts   TokenSource
	last lex.Token
}

func parse(ts TokenSource) (f *File, err error) {
	p := &parser{ts: ts}
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*CompileError)
			if !ok {
				panic(r)
			}
			f, err = nil, ce
		}
	}()
	return p.parseFile(), nil
}

func (p *parser) fail(rng hcl.Range, format string, args ...any) {
	panic(&CompileError{Range: rng, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) peek() lex.Token {
	tk := p.ts.Peek()
	if tk.Kind == lex.Error {
		p.fail(tk.Range, "%s", tk.Text)
	}
	return tk
}

func (p *parser) next() lex.Token {
	p.peek()
	p.last = p.ts.Next()
	return p.last
}

func (p *parser) at(kind lex.Kind, text string) bool {
	return p.peek().Is(kind, text)
}

func (p *parser) accept(kind lex.Kind, text string) bool {
	if p.at(kind, text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(kind lex.Kind, text string) lex.Token {
	tk := p.next()
	if !tk.Is(kind, text) {
		p.fail(tk.Range, "expected %q, found %s", text, describe(tk))
	}
	return tk
}

func (p *parser) expectIdent() lex.Token {
	tk := p.next()
	if tk.Kind != lex.Ident {
		p.fail(tk.Range, "expected identifier, found %s", describe(tk))
	}
	return tk
}

func describe(tk lex.Token) string {
	switch tk.Kind {
	case lex.EOF:
		return "end of file"
	case lex.String:
		return strconv.Quote(tk.Text)
	}
	return fmt.Sprintf("%q", tk.Text)
}

func between(start hcl.Range, end hcl.Range) hcl.Range {
	return hcl.RangeBetween(start, end)
}

// file := { import } { class }
func (p *parser) parseFile() *File {
	f := &File{}
	for p.at(lex.Keyword, "import") {
		f.Imports = append(f.Imports, p.parseImport())
	}
	for p.peek().Kind != lex.EOF {
		f.Classes = append(f.Classes, p.parseClass())
	}
	return f
}

func (p *parser) parseImport() *Import {
	start := p.expect(lex.Keyword, "import").Range
	name, _ := p.parseQName()
	end := p.expect(lex.Punct, ";").Range
	return &Import{Name: name, Range: between(start, end)}
}

// qname := ["."] ident { "." ident }
func (p *parser) parseQName() (string, hcl.Range) {
	name := ""
	start := p.peek().Range
	if p.accept(lex.Punct, ".") {
		name = "."
	}
	name += p.expectIdent().Text
	for p.accept(lex.Punct, ".") {
		name += "." + p.expectIdent().Text
	}
	return name, between(start, p.last.Range)
}

// class := "class" ident [ "extends" qname ] "{" { field | method } "}"
func (p *parser) parseClass() *Class {
	tk := p.next()
	if !tk.Is(lex.Keyword, "class") {
		p.fail(tk.Range, "expected class definition, found %s", describe(tk))
	}
	c := &Class{}
	name := p.expectIdent()
	c.Name = name.Text
	c.Range = between(tk.Range, name.Range)
	if p.accept(lex.Keyword, "extends") {
		c.Parent, c.ParentRange = p.parseQName()
	}
	p.expect(lex.Punct, "{")
	for !p.accept(lex.Punct, "}") {
		if p.at(lex.Keyword, "var") {
			c.Fields = append(c.Fields, p.parseField())
		} else {
			c.Methods = append(c.Methods, p.parseMethod())
		}
	}
	return c
}

func (p *parser) parseField() *Field {
	start := p.expect(lex.Keyword, "var").Range
	name := p.expectIdent()
	p.expect(lex.Punct, ":")
	typ := p.parseType()
	p.expect(lex.Punct, ";")
	return &Field{Name: name.Text, Type: typ, Range: between(start, name.Range)}
}

// type := "int" | "string" | qname
func (p *parser) parseType() Type {
	tk := p.peek()
	switch {
	case tk.Is(lex.Keyword, "int"):
		p.next()
		return TypeInt
	case tk.Is(lex.Keyword, "string"):
		p.next()
		return TypeString
	case tk.Kind == lex.Ident || tk.Is(lex.Punct, "."):
		name, _ := p.parseQName()
		return Type(name)
	}
	p.fail(tk.Range, "expected type, found %s", describe(tk))
	return TypeUnknown
}

// method := ("void" | type) ident "(" [ param { "," param } ] ")" block
func (p *parser) parseMethod() *Method {
	m := &Method{}
	start := p.peek().Range
	if p.accept(lex.Keyword, "void") {
		m.Result = TypeVoid
	} else {
		m.Result = p.parseType()
	}
	name := p.expectIdent()
	m.Name = name.Text
	m.Range = between(start, name.Range)
	p.expect(lex.Punct, "(")
	if !p.accept(lex.Punct, ")") {
		for {
			pname := p.expectIdent()
			p.expect(lex.Punct, ":")
			m.Params = append(m.Params, &Param{Name: pname.Text, Type: p.parseType(), Range: pname.Range})
			if p.accept(lex.Punct, ")") {
				break
			}
			p.expect(lex.Punct, ",")
		}
	}
	m.Body = p.parseBlock()
	return m
}

func (p *parser) parseBlock() *Block {
	b := &Block{}
	start := p.expect(lex.Punct, "{").Range
	for !p.accept(lex.Punct, "}") {
		b.Stmts = append(b.Stmts, p.parseStmt())
	}
	b.Range = between(start, p.last.Range)
	return b
}

func (p *parser) parseStmt() Stmt {
	tk := p.next()
	switch {
	case tk.Is(lex.Keyword, "var"):
		s := &VarStmt{}
		name := p.expectIdent()
		s.Name = name.Text
		p.expect(lex.Punct, ":")
		s.Type = p.parseType()
		if p.accept(lex.Punct, "=") {
			s.Init = p.parseExpr()
		}
		s.Range = between(tk.Range, p.expect(lex.Punct, ";").Range)
		return s

	case tk.Is(lex.Keyword, "return"):
		s := &ReturnStmt{}
		if !p.at(lex.Punct, ";") {
			s.Value = p.parseExpr()
		}
		s.Range = between(tk.Range, p.expect(lex.Punct, ";").Range)
		return s

	case tk.Is(lex.Keyword, "if"):
		s := &IfStmt{}
		p.expect(lex.Punct, "(")
		s.Cond = p.parseExpr()
		p.expect(lex.Punct, ")")
		s.Then = p.parseBlock()
		if p.accept(lex.Keyword, "else") {
			s.Else = p.parseBlock()
		}
		s.Range = between(tk.Range, p.last.Range)
		return s

	case tk.Is(lex.Keyword, "while"):
		s := &WhileStmt{}
		p.expect(lex.Punct, "(")
		s.Cond = p.parseExpr()
		p.expect(lex.Punct, ")")
		s.Body = p.parseBlock()
		s.Range = between(tk.Range, p.last.Range)
		return s

	case tk.Kind == lex.Ident:
		if p.accept(lex.Punct, "=") {
			s := &AssignStmt{Name: tk.Text, Value: p.parseExpr()}
			s.Range = between(tk.Range, p.expect(lex.Punct, ";").Range)
			return s
		}
		if p.at(lex.Punct, "(") {
			call := p.parseCall(tk)
			return &CallStmt{Call: call, Range: between(tk.Range, p.expect(lex.Punct, ";").Range)}
		}
		p.fail(p.peek().Range, "expected \"=\" or \"(\" after %s, found %s", tk.Text, describe(p.peek()))
	}
	p.fail(tk.Range, "expected statement, found %s", describe(tk))
	return nil
}

// expr := sum [ cmpop sum ]
func (p *parser) parseExpr() Expr {
	x := p.parseSum()
	tk := p.peek()
	if tk.Kind == lex.Punct {
		switch tk.Text {
		case "==", "!=", "<", ">", "<=", ">=":
			p.next()
			y := p.parseSum()
			return &BinaryExpr{Op: tk.Text, X: x, Y: y, Range: between(x.ExprRange(), y.ExprRange())}
		}
	}
	return x
}

func (p *parser) parseSum() Expr {
	x := p.parseProd()
	for p.at(lex.Punct, "+") || p.at(lex.Punct, "-") {
		op := p.next().Text
		y := p.parseProd()
		x = &BinaryExpr{Op: op, X: x, Y: y, Range: between(x.ExprRange(), y.ExprRange())}
	}
	return x
}

func (p *parser) parseProd() Expr {
	x := p.parseUnary()
	for p.at(lex.Punct, "*") || p.at(lex.Punct, "/") {
		op := p.next().Text
		y := p.parseUnary()
		x = &BinaryExpr{Op: op, X: x, Y: y, Range: between(x.ExprRange(), y.ExprRange())}
	}
	return x
}

func (p *parser) parseUnary() Expr {
	if p.at(lex.Punct, "-") {
		tk := p.next()
		x := p.parseUnary()
		return &UnaryExpr{Op: "-", X: x, Range: between(tk.Range, x.ExprRange())}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() Expr {
	tk := p.next()
	switch {
	case tk.Kind == lex.Int:
		n, err := strconv.ParseInt(tk.Text, 0, 64)
		if err != nil {
			p.fail(tk.Range, "malformed number %q", tk.Text)
		}
		return &ConstExpr{Value: cty.NumberIntVal(n), Range: tk.Range}
	case tk.Kind == lex.String:
		return &ConstExpr{Value: cty.StringVal(tk.Text), Range: tk.Range}
	case tk.Kind == lex.Ident:
		if p.at(lex.Punct, "(") {
			return p.parseCall(tk)
		}
		return &NameExpr{Name: tk.Text, Range: tk.Range}
	case tk.Is(lex.Punct, "("):
		x := p.parseExpr()
		p.expect(lex.Punct, ")")
		return x
	case tk.Is(lex.Keyword, "new"):
		name, _ := p.parseQName()
		p.expect(lex.Punct, "(")
		end := p.expect(lex.Punct, ")")
		return &NewExpr{Class: name, Range: between(tk.Range, end.Range)}
	}
	p.fail(tk.Range, "expected expression, found %s", describe(tk))
	return nil
}

// call := ident "(" [ expr { "," expr } ] ")"
func (p *parser) parseCall(name lex.Token) *CallExpr {
	c := &CallExpr{Name: name.Text}
	p.expect(lex.Punct, "(")
	if !p.accept(lex.Punct, ")") {
		for {
			c.Args = append(c.Args, p.parseExpr())
			if p.accept(lex.Punct, ")") {
				break
			}
			p.expect(lex.Punct, ",")
		}
	}
	c.Range = between(name.Range, p.last.Range)
	return c
}
