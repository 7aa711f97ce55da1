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

package store

import "github.com/pkg/errors"

// Kind is the abstract error taxonomy the appliance spec defines: the
// propagation policy (terminate-this-worker vs fatal-to-process) depends
// on which Kind an operation failed with, not on the underlying cause.
type Kind int

const (
	// KindNone means no error occurred; never attached to a returned error.
	KindNone Kind = iota
	// KindInvalidArgument covers a malformed control command, W >= K,
	// U >= slot[W].size, or a nil/empty argument where one is required.
	KindInvalidArgument
	// KindResourceExhaustion covers allocation failure for a
	// per-connection buffer.
	KindResourceExhaustion
	// KindIOFailure covers recv/send/accept/bind/listen/file errors.
	KindIOFailure
	// KindInterrupted covers a lock acquisition interrupted by shutdown.
	KindInterrupted
	// KindNotPermitted covers defensive checks such as a store used
	// before initialization or after Close.
	KindNotPermitted
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid-argument"
	case KindResourceExhaustion:
		return "resource-exhaustion"
	case KindIOFailure:
		return "io-failure"
	case KindInterrupted:
		return "interrupted"
	case KindNotPermitted:
		return "not-permitted"
	default:
		return "none"
	}
}

// Error pairs a Kind with the underlying cause so callers can both log a
// human-readable message and branch on propagation policy via KindOf.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// newError wraps a formatted message with github.com/pkg/errors (the
// teacher's error-wrapping library) and tags it with kind.
func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// KindOf extracts the Kind attached to err, or KindNone if err is nil or
// was not produced by this package.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindNone
}
