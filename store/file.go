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
	"io"
	"os"
	"sync"
)

// entryRange records where one logical packet lives within the backing
// file, so SeekToEntry/ReadAt can translate offsets without rescanning
// the whole file on every call.
type entryRange struct {
	offset int64
	size   int64
}

// FileStore is the file-backed alternative to MemoryStore. It keeps the
// same bounded-capacity, eviction-on-overflow contract as the in-memory
// ring: the backing file holds at most capacity packets, and appending
// past capacity rewrites the file without its oldest entry. All
// opens/closes of the backing file happen while mu is held, so a reader
// can never observe a half-rewritten file.
type FileStore struct {
	mu       sync.Mutex
	path     string
	capacity int
	entries  []entryRange
	closed   bool
}

// NewFileStore returns a FileStore backed by path. If the file already
// exists it is truncated, matching the original's append-only,
// fresh-per-session behavior.
func NewFileStore(path string, capacity int) (*FileStore, error) {
	if capacity <= 0 {
		capacity = 10
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, newError(KindIOFailure, "create backing file %s: %v", path, err)
	}
	f.Close()
	return &FileStore{path: path, capacity: capacity}, nil
}

func (s *FileStore) AppendPacket(packet []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, newError(KindNotPermitted, "store is closed")
	}

	evicted := len(s.entries) >= s.capacity
	if evicted {
		if err := s.evictOldestLocked(); err != nil {
			return false, err
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return false, newError(KindIOFailure, "open backing file for append: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, newError(KindIOFailure, "stat backing file: %v", err)
	}

	n, err := f.Write(packet)
	if err != nil {
		return false, newError(KindIOFailure, "write backing file: %v", err)
	}

	s.entries = append(s.entries, entryRange{offset: info.Size(), size: int64(n)})
	return evicted, nil
}

// evictOldestLocked rewrites the backing file without its first entry.
// Called with mu held.
func (s *FileStore) evictOldestLocked() error {
	keepFrom := s.entries[0].offset + s.entries[0].size

	old, err := os.Open(s.path)
	if err != nil {
		return newError(KindIOFailure, "open backing file for eviction rewrite: %v", err)
	}
	defer old.Close()

	if _, err := old.Seek(keepFrom, 0); err != nil {
		return newError(KindIOFailure, "seek backing file: %v", err)
	}

	tmpPath := s.path + ".rewrite"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return newError(KindIOFailure, "create rewrite file: %v", err)
	}

	if _, err := copyAll(tmp, old); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return newError(KindIOFailure, "rewrite backing file: %v", err)
	}
	tmp.Close()

	if err := os.Rename(tmpPath, s.path); err != nil {
		return newError(KindIOFailure, "replace backing file: %v", err)
	}

	dropped := s.entries[0].size
	s.entries = s.entries[1:]
	for i := range s.entries {
		s.entries[i].offset -= dropped
	}
	return nil
}

func copyAll(dst *os.File, src *os.File) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

func (s *FileStore) ReadAt(cursor int64, buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, newError(KindNotPermitted, "store is closed")
	}

	entryIdx, inner, ok := s.findAtLocked(cursor)
	if !ok {
		return 0, nil
	}
	entry := s.entries[entryIdx]

	f, err := os.Open(s.path)
	if err != nil {
		return 0, newError(KindIOFailure, "open backing file for read: %v", err)
	}
	defer f.Close()

	want := entry.size - inner
	if want > int64(len(buf)) {
		want = int64(len(buf))
	}

	readBuf := make([]byte, want)
	n, err := f.ReadAt(readBuf, entry.offset+inner)
	if err != nil && n == 0 {
		return 0, newError(KindIOFailure, "read backing file: %v", err)
	}
	copy(buf, readBuf[:n])
	return n, nil
}

// findAtLocked mirrors ringlog.Log.FindAt but walks the file-backed
// entry list instead of a slot array. Called with mu held.
func (s *FileStore) findAtLocked(cursor int64) (entryIdx int, inner int64, ok bool) {
	if cursor < 0 {
		return 0, 0, false
	}
	var total int64
	for i, e := range s.entries {
		if cursor < total+e.size {
			return i, cursor - total, true
		}
		total += e.size
	}
	return 0, 0, false
}

// SeekToEntry treats entryIndex as an index into the file's current
// logical entry order: entry 0 is always the oldest retained entry,
// because eviction rewrites the file without it. MemoryStore, by
// contrast, indexes the raw slot array of its ring.
func (s *FileStore) SeekToEntry(entryIndex, innerOffset int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, newError(KindNotPermitted, "store is closed")
	}

	if entryIndex < 0 || entryIndex >= int64(s.capacity) {
		return 0, newError(KindInvalidArgument, "entry index %d out of range [0,%d)", entryIndex, s.capacity)
	}
	if entryIndex >= int64(len(s.entries)) {
		return 0, newError(KindInvalidArgument, "entry %d is empty", entryIndex)
	}
	entry := s.entries[entryIndex]
	if innerOffset < 0 || innerOffset >= entry.size {
		return 0, newError(KindInvalidArgument, "inner offset %d out of range for entry %d of size %d", innerOffset, entryIndex, entry.size)
	}

	var before int64
	for i := int64(0); i < entryIndex; i++ {
		before += s.entries[i].size
	}
	return before + innerOffset, nil
}

func (s *FileStore) TotalBytes() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, e := range s.entries {
		total += e.size
	}
	return total, nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

// Path returns the backing file's path, so the shutdown sequence can
// remove it without the store package owning removal policy.
func (s *FileStore) Path() string {
	return s.path
}
