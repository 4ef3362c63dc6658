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

// Package lex is the tokenizer for Phantom language source files.
package lex

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Token kinds
type Kind int

const (
	EOF Kind = iota
	Error
	Ident
	Keyword
	Int
	String
	Punct
)

var kindToString = []string{
	"end of file",
	"error",
	"identifier",
	"keyword",
	"integer",
	"string",
	"punctuation",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindToString) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindToString[k]
}

var keywords = map[string]bool{
	"import":  true,
	"class":   true,
	"extends": true,
	"var":     true,
	"void":    true,
	"int":     true,
	"string":  true,
	"return":  true,
	"if":      true,
	"else":    true,
	"while":   true,
	"new":     true,
}

// Operators that may be followed by '=' to form a two byte operator.
const eqFollowers = "=!<>"
const singles = "{}();:,.=<>+-*/"

type Token struct {
	Kind  Kind
	Text  string // for String tokens, the unquoted value
	Range hcl.Range
}

func (t Token) String() string {
	return fmt.Sprintf("{%s %s}", t.Kind, t.Text)
}

// Is reports whether the token has the given kind and text.
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

type Lexer struct {
	rd     *nameLineByteReader
	peeked *Token
}

// New returns a lexer for the named source. The lexer produces only
// EOF tokens until SetInput binds it to a byte stream.
func New(name string) *Lexer {
	return &Lexer{rd: newNameLineByteReader(name, nil)}
}

func (l *Lexer) SetInput(r io.ByteReader) {
	l.rd = newNameLineByteReader(l.rd.name(), r)
	l.peeked = nil
}

func (l *Lexer) Name() string {
	return l.rd.name()
}

// Err returns the read error that ended the input early, or nil if
// the input was consumed to EOF.
func (l *Lexer) Err() error {
	return l.rd.failure()
}

// Source returns the bytes consumed so far.
func (l *Lexer) Source() []byte {
	return l.rd.source()
}

func (l *Lexer) Peek() Token {
	if l.peeked == nil {
		tk := l.scan()
		l.peeked = &tk
	}
	return *l.peeked
}

func (l *Lexer) Next() Token {
	tk := l.Peek()
	if tk.Kind != EOF {
		l.peeked = nil
	}
	return tk
}

func (l *Lexer) token(kind Kind, text string, start hcl.Pos) Token {
	return Token{kind, text, hcl.Range{Filename: l.rd.name(), Start: start, End: l.rd.pos()}}
}

func (l *Lexer) scan() Token {
	start, b, found := l.skipSpace()
	switch found {
	case atEOF:
		return l.token(EOF, "", start)
	case inComment:
		return l.token(Error, "unterminated comment", start)
	}

	switch {
	case isLetter(b):
		text := l.collect(b, isIdentByte)
		if keywords[text] {
			return l.token(Keyword, text, start)
		}
		return l.token(Ident, text, start)
	case isDigit(b):
		text := l.collect(b, isIdentByte)
		if _, err := strconv.ParseInt(text, 0, 64); err != nil {
			return l.token(Error, fmt.Sprintf("malformed number %q", text), start)
		}
		return l.token(Int, text, start)
	case b == '"':
		return l.scanString(start)
	case strings.IndexByte(singles, b) >= 0 || b == '!':
		if strings.IndexByte(eqFollowers, b) >= 0 {
			if c, err := l.rd.ReadByte(); err == nil {
				if c == '=' {
					return l.token(Punct, string([]byte{b, c}), start)
				}
				l.rd.unreadByte()
			}
		}
		if b == '!' {
			return l.token(Error, "character 0x21 (!) unexpected", start)
		}
		return l.token(Punct, string(b), start)
	}
	return l.token(Error, fmt.Sprintf("character 0x%02X (%c) unexpected", b, b), start)
}

// Results of skipSpace
const (
	atToken = iota
	atEOF
	inComment
)

// Skip white space and comments. Returns the position and value of
// the first significant byte. For an unterminated block comment the
// position is that of the comment.
func (l *Lexer) skipSpace() (hcl.Pos, byte, int) {
	for {
		start := l.rd.pos()
		b, err := l.rd.ReadByte()
		if err != nil {
			return start, 0, atEOF
		}
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == NL:
			continue
		case b == '/':
			c, err := l.rd.ReadByte()
			if err != nil {
				return start, b, atToken
			}
			if c == '/' {
				for c != NL && err == nil {
					c, err = l.rd.ReadByte()
				}
				continue
			}
			if c == '*' {
				if !l.skipBlockComment() {
					return start, 0, inComment
				}
				continue
			}
			l.rd.unreadByte()
			return start, b, atToken
		default:
			return start, b, atToken
		}
	}
}

func (l *Lexer) skipBlockComment() bool {
	star := false
	for {
		b, err := l.rd.ReadByte()
		if err != nil {
			return false
		}
		if star && b == '/' {
			return true
		}
		star = b == '*'
	}
}

func (l *Lexer) collect(first byte, ok func(byte) bool) string {
	var sb strings.Builder
	sb.WriteByte(first)
	for {
		b, err := l.rd.ReadByte()
		if err != nil {
			break
		}
		if !ok(b) {
			l.rd.unreadByte()
			break
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func (l *Lexer) scanString(start hcl.Pos) Token {
	var sb strings.Builder
	for {
		b, err := l.rd.ReadByte()
		if err != nil || b == NL {
			return l.token(Error, "unterminated string", start)
		}
		switch b {
		case '"':
			return l.token(String, sb.String(), start)
		case '\\':
			c, err := l.rd.ReadByte()
			if err != nil {
				return l.token(Error, "unterminated string", start)
			}
			switch c {
			case 'n':
				sb.WriteByte(NL)
			case 't':
				sb.WriteByte('\t')
			case '"', '\\':
				sb.WriteByte(c)
			default:
				return l.token(Error, fmt.Sprintf("unknown escape \\%c", c), start)
			}
		default:
			sb.WriteByte(b)
		}
	}
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentByte(b byte) bool {
	return isLetter(b) || isDigit(b)
}
