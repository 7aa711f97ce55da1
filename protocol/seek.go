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

package protocol

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SeekPrefix is the ASCII token that marks a packet as a seek-to-entry
// control command rather than ordinary data.
const SeekPrefix = "AESDCHAR_IOCSEEKTO:"

// ErrNotSeekCommand means the packet does not begin with SeekPrefix; it
// is ordinary data and should be appended to the log instead.
var ErrNotSeekCommand = errors.New("packet is not a seek-to-entry command")

// IsSeekCommand reports whether packet begins with SeekPrefix.
func IsSeekCommand(packet []byte) bool {
	return strings.HasPrefix(string(packet), SeekPrefix)
}

// ParseSeek extracts the two decimal integer arguments from a
// seek-to-entry command. The grammar is exactly
// "AESDCHAR_IOCSEEKTO:<decimal_int>,<decimal_int>\n" with no whitespace
// and no surrounding quotes or signs; a non-matching body is a parse
// error, which the caller treats as a rejected control command (this
// package only knows about grammar, not store error taxonomy).
func ParseSeek(packet []byte) (entryIndex, innerOffset int64, err error) {
	s := string(packet)
	if !strings.HasPrefix(s, SeekPrefix) {
		return 0, 0, ErrNotSeekCommand
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, SeekPrefix), "\n")

	comma := strings.IndexByte(body, ',')
	if comma < 0 {
		return 0, 0, errors.Errorf("malformed seek command %q: missing comma", s)
	}

	left, right := body[:comma], body[comma+1:]
	if left == "" || right == "" || strings.ContainsAny(left+right, " \t\"+-") {
		return 0, 0, errors.Errorf("malformed seek command %q: expected two bare decimal integers", s)
	}

	w, err := strconv.ParseInt(left, 10, 64)
	if err != nil || w < 0 {
		return 0, 0, errors.Errorf("malformed seek command %q: invalid write_cmd %q", s, left)
	}
	u, err := strconv.ParseInt(right, 10, 64)
	if err != nil || u < 0 {
		return 0, 0, errors.Errorf("malformed seek command %q: invalid write_cmd_offset %q", s, right)
	}

	return w, u, nil
}
