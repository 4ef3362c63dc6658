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

package lex

import (
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2"
)

const NL = byte('\n')

// A byte reader that knows the name of its source and keeps the
// line, column and byte offset of the next byte to be read. Every
// byte consumed is kept so the caller can render source snippets
// after the stream is gone. One byte of pushback is supported.
type nameLineByteReader struct {
	sourceName string
	reader     io.ByteReader
	next       hcl.Pos // position of the next byte
	prev       hcl.Pos // position before the last ReadByte
	consumed   []byte
	unread     int // bytes of consumed pushed back, 0 or 1
	err        error
}

func newNameLineByteReader(name string, reader io.ByteReader) *nameLineByteReader {
	return &nameLineByteReader{
		sourceName: name,
		reader:     reader,
		next:       hcl.Pos{Line: 1, Column: 1, Byte: 0},
	}
}

func (r *nameLineByteReader) name() string {
	return r.sourceName
}

func (r *nameLineByteReader) line() int {
	return r.next.Line
}

func (r *nameLineByteReader) pos() hcl.Pos {
	return r.next
}

// The first non-EOF error returned by the underlying reader, if any.
// After an error the reader behaves as if it were at EOF.
func (r *nameLineByteReader) failure() error {
	return r.err
}

func (r *nameLineByteReader) source() []byte {
	return r.consumed
}

func (r *nameLineByteReader) ReadByte() (byte, error) {
	var b byte
	if r.unread > 0 {
		b = r.consumed[len(r.consumed)-r.unread]
		r.unread--
	} else {
		if r.reader == nil || r.err != nil {
			return 0, io.EOF
		}
		var err error
		b, err = r.reader.ReadByte()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			r.reader = nil
			return 0, io.EOF
		}
		r.consumed = append(r.consumed, b)
	}
	r.prev = r.next
	r.next.Byte++
	if b == NL {
		r.next.Line++
		r.next.Column = 1
	} else {
		r.next.Column++
	}
	return b, nil
}

// Push back the byte most recently returned by ReadByte. Only one
// byte may be pushed back between reads.
func (r *nameLineByteReader) unreadByte() error {
	if r.unread > 0 || r.next.Byte == 0 {
		return fmt.Errorf("%s: unread not possible at offset %d", r.sourceName, r.next.Byte)
	}
	r.unread++
	r.next = r.prev
	return nil
}

func (r *nameLineByteReader) String() string {
	return fmt.Sprintf("%s:%d", r.sourceName, r.next.Line)
}
