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
	"path/filepath"
	"testing"
)

func newTestFileStore(t *testing.T, capacity int) *FileStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aesdsocketdata")
	s, err := NewFileStore(path, capacity)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := newTestFileStore(t, 10)
	if _, err := s.AppendPacket([]byte("hello\n")); err != nil {
		t.Fatalf("AppendPacket: %v", err)
	}

	buf := make([]byte, 64)
	n, err := s.ReadAt(0, buf)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if got, want := string(buf[:n]), "hello\n"; got != want {
		t.Fatalf("ReadAt(0) = %q, want %q", got, want)
	}
}

func TestFileStoreEvictsOldestPastCapacity(t *testing.T) {
	s := newTestFileStore(t, 2)
	s.AppendPacket([]byte("a\n"))
	s.AppendPacket([]byte("b\n"))
	evicted, _ := s.AppendPacket([]byte("c\n"))
	if !evicted {
		t.Fatal("append past capacity did not report eviction")
	}

	total, _ := s.TotalBytes()
	if total != 4 {
		t.Fatalf("TotalBytes = %d, want 4", total)
	}

	if got, want := string(readStream(t, s, 0)), "b\nc\n"; got != want {
		t.Fatalf("stream = %q, want %q", got, want)
	}
}

func TestFileStoreSeekToEntry(t *testing.T) {
	s := newTestFileStore(t, 10)
	s.AppendPacket([]byte("one\n"))
	s.AppendPacket([]byte("two\n"))

	cursor, err := s.SeekToEntry(1, 1)
	if err != nil {
		t.Fatalf("SeekToEntry: %v", err)
	}
	if want := int64(5); cursor != want {
		t.Fatalf("cursor = %d, want %d", cursor, want)
	}
}

func TestFileStoreSeekBeyondWrittenEntriesFails(t *testing.T) {
	s := newTestFileStore(t, 10)
	s.AppendPacket([]byte("one\n"))

	if _, err := s.SeekToEntry(3, 0); KindOf(err) != KindInvalidArgument {
		t.Fatalf("SeekToEntry(3,0) kind = %v, want invalid-argument", KindOf(err))
	}
}
