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
	"bytes"
	"sync"
	"testing"
)

// readStream drains s from cursor to EOF. ReadAt copies from one entry
// per call, so the stream is assembled the way a worker streams it.
func readStream(t *testing.T, s Store, cursor int64) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 64)
	for {
		n, err := s.ReadAt(cursor, buf)
		if err != nil {
			t.Fatalf("ReadAt(%d): %v", cursor, err)
		}
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
		cursor += int64(n)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(10)
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

func TestMemoryStoreEmptyReadAtIsEOF(t *testing.T) {
	s := NewMemoryStore(10)
	buf := make([]byte, 16)
	n, err := s.ReadAt(0, buf)
	if err != nil || n != 0 {
		t.Fatalf("ReadAt on empty store = (%d, %v), want (0, nil)", n, err)
	}
}

func TestMemoryStoreSeekToEntry(t *testing.T) {
	s := NewMemoryStore(10)
	s.AppendPacket([]byte("one\n"))
	s.AppendPacket([]byte("two\n"))
	s.AppendPacket([]byte("three\n"))

	cursor, err := s.SeekToEntry(1, 2)
	if err != nil {
		t.Fatalf("SeekToEntry: %v", err)
	}
	if want := int64(6); cursor != want {
		t.Fatalf("cursor = %d, want %d", cursor, want)
	}

	if got, want := string(readStream(t, s, cursor)), "o\nthree\n"; got != want {
		t.Fatalf("stream from seeked cursor = %q, want %q", got, want)
	}
}

func TestMemoryStoreSeekToEmptyEntryFails(t *testing.T) {
	s := NewMemoryStore(10)
	s.AppendPacket([]byte("one\n"))
	s.AppendPacket([]byte("two\n"))
	s.AppendPacket([]byte("three\n"))

	_, err := s.SeekToEntry(5, 0)
	if KindOf(err) != KindInvalidArgument {
		t.Fatalf("SeekToEntry(5,0) kind = %v, want invalid-argument", KindOf(err))
	}
}

func TestMemoryStoreSeekOutOfRangeIndexFails(t *testing.T) {
	s := NewMemoryStore(10)
	s.AppendPacket([]byte("one\n"))

	_, err := s.SeekToEntry(10, 0)
	if KindOf(err) != KindInvalidArgument {
		t.Fatalf("SeekToEntry(10,0) kind = %v, want invalid-argument", KindOf(err))
	}
}

func TestMemoryStoreSeekOffsetBeyondEntryFails(t *testing.T) {
	s := NewMemoryStore(10)
	s.AppendPacket([]byte("hi\n"))

	_, err := s.SeekToEntry(0, 99)
	if KindOf(err) != KindInvalidArgument {
		t.Fatalf("SeekToEntry(0,99) kind = %v, want invalid-argument", KindOf(err))
	}
}

func TestMemoryStoreEvictsPastCapacity(t *testing.T) {
	s := NewMemoryStore(2)
	if evicted, _ := s.AppendPacket([]byte("a\n")); evicted {
		t.Fatal("first append reported eviction")
	}
	s.AppendPacket([]byte("b\n"))
	evicted, _ := s.AppendPacket([]byte("c\n"))
	if !evicted {
		t.Fatal("append past capacity did not report eviction")
	}

	total, _ := s.TotalBytes()
	if total != 4 {
		t.Fatalf("TotalBytes = %d, want 4 (a evicted)", total)
	}

	if got := readStream(t, s, 0); !bytes.Equal(got, []byte("b\nc\n")) {
		t.Fatalf("stream = %q, want %q", got, "b\nc\n")
	}
}

func TestMemoryStoreCloseRejectsFurtherUse(t *testing.T) {
	s := NewMemoryStore(10)
	s.Close()
	if _, err := s.AppendPacket([]byte("x\n")); KindOf(err) != KindNotPermitted {
		t.Fatalf("AppendPacket after Close kind = %v, want not-permitted", KindOf(err))
	}
}

// TestMemoryStoreConcurrentAppends drives many goroutines through
// AppendPacket at once. Run with -race: the store's correctness claim is
// that mu serializes every append, so no interleaving of concurrent
// writers should ever corrupt TotalBytes or leave a partially-applied
// packet visible.
func TestMemoryStoreConcurrentAppends(t *testing.T) {
	const goroutines = 20
	const perGoroutine = 50

	s := NewMemoryStore(goroutines * perGoroutine)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if _, err := s.AppendPacket([]byte("x\n")); err != nil {
					t.Errorf("AppendPacket: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	total, err := s.TotalBytes()
	if err != nil {
		t.Fatalf("TotalBytes: %v", err)
	}
	if want := int64(goroutines * perGoroutine * 2); total != want {
		t.Fatalf("TotalBytes = %d, want %d", total, want)
	}
}
