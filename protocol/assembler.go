// The MIT License (MIT)
//
// # Copyright (c) 2024 aesdsocket contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package protocol implements the per-connection packet assembler (C3)
// and the seek-to-entry control-command grammar (C6).
package protocol

import (
	"bytes"

	"github.com/pkg/errors"
)

const initialBufferSize = 1024

// DefaultMaxPacketBytes bounds assembler growth so a connection that
// never sends a newline cannot grow its assembly buffer without limit.
const DefaultMaxPacketBytes = 1 << 20 // 1 MiB

// ErrPacketTooLarge is returned by Feed when the bytes buffered before the
// first newline would exceed MaxPacketBytes.
var ErrPacketTooLarge = errors.New("packet exceeds maximum size without a terminating newline")

// Assembler accumulates bytes received on one connection until a
// terminating newline is seen, doubling its buffer on demand. It is not
// safe for concurrent use; each connection owns exactly one Assembler.
type Assembler struct {
	buf            []byte
	len            int
	newlineAt      int // -1 until Feed finds a newline
	MaxPacketBytes int
}

// NewAssembler returns an Assembler with the default initial capacity.
func NewAssembler(maxPacketBytes int) *Assembler {
	if maxPacketBytes <= 0 {
		maxPacketBytes = DefaultMaxPacketBytes
	}
	return &Assembler{
		buf:            make([]byte, initialBufferSize),
		newlineAt:      -1,
		MaxPacketBytes: maxPacketBytes,
	}
}

// Feed appends chunk to the assembly buffer, growing it (doubling) as
// needed, and reports whether a newline is now present anywhere in the
// buffer. It returns ErrPacketTooLarge, leaving the buffer unchanged, if
// the bytes before the first newline would exceed MaxPacketBytes.
func (a *Assembler) Feed(chunk []byte) (hasNewline bool, err error) {
	if a.newlineAt == -1 && a.len+len(chunk) > a.MaxPacketBytes {
		if nl := bytes.IndexByte(chunk, '\n'); nl < 0 || a.len+nl+1 > a.MaxPacketBytes {
			return false, ErrPacketTooLarge
		}
	}
	for a.len+len(chunk) > len(a.buf) {
		grown := make([]byte, len(a.buf)*2)
		copy(grown, a.buf[:a.len])
		a.buf = grown
	}

	for _, b := range chunk {
		a.buf[a.len] = b
		a.len++
		if b == '\n' && a.newlineAt == -1 {
			a.newlineAt = a.len - 1
		}
	}

	return a.newlineAt != -1, nil
}

// HasNewline reports whether a terminating newline has been observed
// since the last TakePacket/Reset.
func (a *Assembler) HasNewline() bool {
	return a.newlineAt != -1
}

// TakePacket returns the bytes from the start of the buffer through the
// first newline (inclusive) and resets the assembler for the next
// packet. It must only be called after Feed has reported a newline; any
// bytes received after that newline within the same chunk are discarded.
func (a *Assembler) TakePacket() []byte {
	if a.newlineAt == -1 {
		return nil
	}
	packet := make([]byte, a.newlineAt+1)
	copy(packet, a.buf[:a.newlineAt+1])
	a.Reset()
	return packet
}

// Reset discards any partially-assembled packet, for use when a
// connection is abandoned mid-frame (e.g. it closed without ever
// sending a newline).
func (a *Assembler) Reset() {
	a.len = 0
	a.newlineAt = -1
}

// Len reports the number of bytes currently buffered (including a
// partial, newline-less packet).
func (a *Assembler) Len() int {
	return a.len
}
