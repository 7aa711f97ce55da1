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

import (
	"sync"

	"github.com/aesdsocket/aesdsocket/ringlog"
)

// MemoryStore serializes access to an in-memory ringlog.Log with a single
// mutex. It is the default, primary configuration.
type MemoryStore struct {
	mu     sync.Mutex
	log    *ringlog.Log
	closed bool
}

// NewMemoryStore returns a MemoryStore with the given ring capacity.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{log: ringlog.New(capacity)}
}

func (s *MemoryStore) AppendPacket(packet []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, newError(KindNotPermitted, "store is closed")
	}
	// The evicted packet, if any, is simply dropped here: ownership
	// passes to this call, which is the last reference to it, so Go's
	// GC reclaims it once it falls out of scope. No other goroutine can
	// observe it because the mutex serializes every access.
	_, wasEvicted := s.log.Append(packet)
	return wasEvicted, nil
}

func (s *MemoryStore) ReadAt(cursor int64, buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, newError(KindNotPermitted, "store is closed")
	}

	slot, inner, ok := s.log.FindAt(cursor)
	if !ok {
		return 0, nil
	}
	packet, _ := s.log.Slot(slot)
	n := copy(buf, packet[inner:])
	return n, nil
}

func (s *MemoryStore) SeekToEntry(entryIndex, innerOffset int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, newError(KindNotPermitted, "store is closed")
	}

	if entryIndex < 0 || entryIndex >= int64(s.log.Cap()) {
		return 0, newError(KindInvalidArgument, "entry index %d out of range [0,%d)", entryIndex, s.log.Cap())
	}
	packet, ok := s.log.Slot(int(entryIndex))
	if !ok {
		return 0, newError(KindInvalidArgument, "entry %d is empty", entryIndex)
	}
	if innerOffset < 0 || innerOffset >= int64(len(packet)) {
		return 0, newError(KindInvalidArgument, "inner offset %d out of range for entry %d of size %d", innerOffset, entryIndex, len(packet))
	}

	return s.log.BytesBeforeSlot(int(entryIndex)) + innerOffset, nil
}

func (s *MemoryStore) TotalBytes() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.TotalBytes(), nil
}

// Snapshot returns the underlying ring log's Stats without requiring
// callers to reach past the Store interface for metrics/logging.
func (s *MemoryStore) Snapshot() ringlog.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Snapshot()
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Reset()
	s.closed = true
	return nil
}
