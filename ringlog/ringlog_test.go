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

package ringlog

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func packet(s string) []byte { return []byte(s) }

func TestAppendFillsWithoutEviction(t *testing.T) {
	l := New(4)
	for i := 0; i < 4; i++ {
		if _, evicted := l.Append(packet(fmt.Sprintf("p%d\n", i))); evicted {
			t.Fatalf("unexpected eviction at append %d", i)
		}
	}
	if got, want := l.Count(), 4; got != want {
		t.Fatalf("Count() = %d, want %d", got, want)
	}
}

func TestAppendEvictsOldestWhenFull(t *testing.T) {
	l := New(2)
	l.Append(packet("a\n"))
	l.Append(packet("b\n"))

	evicted, ok := l.Append(packet("c\n"))
	if !ok {
		t.Fatal("expected eviction on third append into capacity-2 log")
	}
	if diff := cmp.Diff("a\n", string(evicted)); diff != "" {
		t.Fatalf("evicted packet mismatch (-want +got):\n%s", diff)
	}

	var order []string
	l.ForEachOccupied(func(_ int, p []byte) { order = append(order, string(p)) })
	if diff := cmp.Diff([]string{"b\n", "c\n"}, order); diff != "" {
		t.Fatalf("occupied order mismatch (-want +got):\n%s", diff)
	}
}

func TestFindAtMapsOffsetToSlot(t *testing.T) {
	l := New(10)
	l.Append(packet("one\n"))
	l.Append(packet("two\n"))
	l.Append(packet("three\n"))

	slot, inner, ok := l.FindAt(6)
	if !ok {
		t.Fatal("expected a match for offset 6")
	}
	p, _ := l.Slot(slot)
	if got := string(p[inner]); got != "o" {
		t.Fatalf("byte at offset 6 = %q, want %q", got, "o")
	}
}

func TestFindAtOffsetEqualTotalIsEOF(t *testing.T) {
	l := New(10)
	l.Append(packet("hi\n"))
	if _, _, ok := l.FindAt(l.TotalBytes()); ok {
		t.Fatal("expected EOF (ok=false) at offset == total bytes")
	}
}

func TestEmptyLogHasNoVirtualBytes(t *testing.T) {
	l := New(10)
	if got := l.TotalBytes(); got != 0 {
		t.Fatalf("TotalBytes() on empty log = %d, want 0", got)
	}
	if _, _, ok := l.FindAt(0); ok {
		t.Fatal("expected EOF on empty log at offset 0")
	}
}

func TestAppendingEmptyPacketContributesNothing(t *testing.T) {
	l := New(10)
	l.Append(packet("x\n"))
	l.Append([]byte{})
	if got, want := l.TotalBytes(), int64(2); got != want {
		t.Fatalf("TotalBytes() = %d, want %d (empty packet contributes 0)", got, want)
	}
}

func TestOneByteNewlinePacket(t *testing.T) {
	l := New(10)
	l.Append(packet("\n"))
	if got, want := l.TotalBytes(), int64(1); got != want {
		t.Fatalf("TotalBytes() = %d, want %d", got, want)
	}
}

func TestBytesBeforeSlotUsesRawIndexOrder(t *testing.T) {
	l := New(10)
	l.Append(packet("one\n"))  // slot 0
	l.Append(packet("two\n"))  // slot 1
	l.Append(packet("three\n")) // slot 2

	if got, want := l.BytesBeforeSlot(1), int64(4); got != want {
		t.Fatalf("BytesBeforeSlot(1) = %d, want %d", got, want)
	}
}

func TestScenarioElevenPacketsEvictsOldest(t *testing.T) {
	l := New(10)
	for i := 0; i < 10; i++ {
		l.Append(packet(fmt.Sprintf("p%d\n", i)))
	}
	l.Append(packet("p10\n"))

	var got string
	l.ForEachOccupied(func(_ int, p []byte) { got += string(p) })
	want := "p1\np2\np3\np4\np5\np6\np7\np8\np9\np10\n"
	if got != want {
		t.Fatalf("stream after eviction = %q, want %q", got, want)
	}
}

func TestResetClearsAllSlots(t *testing.T) {
	l := New(4)
	l.Append(packet("a\n"))
	l.Reset()
	if got := l.Count(); got != 0 {
		t.Fatalf("Count() after Reset = %d, want 0", got)
	}
	if l.SlotOccupied(0) {
		t.Fatal("slot 0 should be unoccupied after Reset")
	}
}
