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

// Package store wraps the ring log (package ringlog) or a file-backed
// equivalent behind a single serializing lock, exposing the C2 Log Store
// contract: append, read-at-offset, and seek-to-entry. Both
// implementations satisfy the same Store interface so callers (package
// worker) are backend-agnostic.
package store

// Store is the C2 Log Store contract. Implementations must hold their
// serialization primitive across the find-plus-copy portion of ReadAt so
// that a concurrent AppendPacket cannot evict the packet being read.
type Store interface {
	// AppendPacket atomically appends packet to the log. evicted reports
	// whether the append pushed the log past capacity and dropped the
	// oldest entry, so callers that report metrics don't need their own
	// copy of the eviction policy. AppendPacket never fails for reasons
	// internal to the log; an error here means the store is closed or the
	// backing resource (e.g. a file) could not be written.
	AppendPacket(packet []byte) (evicted bool, err error)

	// ReadAt copies up to len(buf) bytes starting at the virtual byte
	// offset cursor into buf, returning the number of bytes copied. Each
	// call copies from the single entry containing cursor only, so
	// streaming the whole log takes one call per entry. It does not
	// mutate cursor; the caller advances it by the returned
	// count. n == 0 with a nil error means EOF (cursor >= total bytes).
	ReadAt(cursor int64, buf []byte) (n int, err error)

	// SeekToEntry resolves (entryIndex, innerOffset) to a virtual byte
	// offset, or returns a KindInvalidArgument error if entryIndex is out
	// of range, the entry is empty, or innerOffset is beyond the entry's
	// size.
	SeekToEntry(entryIndex, innerOffset int64) (cursor int64, err error)

	// TotalBytes returns the current length of the virtual byte stream.
	TotalBytes() (int64, error)

	// Close releases all resources owned by the store (packet memory,
	// open file handles). It does not remove a file-backed store's
	// backing file; callers that want that do so explicitly at shutdown.
	Close() error
}
