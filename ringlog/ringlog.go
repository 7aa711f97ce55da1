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

// Package ringlog implements the fixed-capacity circular packet log (the
// "CORE" ring described by the appliance spec): a fixed number of slots,
// each owning zero or one complete packet, exposed as a single virtual
// byte stream in oldest-to-newest order.
//
// Log itself performs no locking; callers that share a Log across
// goroutines must serialize access (see package store).
package ringlog

// DefaultCapacity is the slot count K used when none is configured.
const DefaultCapacity = 10

// Log is a fixed-capacity ring of owned packets.
type Log struct {
	slots   [][]byte
	inIdx   int
	outIdx  int
	full    bool
	evicted uint64 // lifetime eviction counter, for metrics/diagnostics
	stored  uint64 // lifetime append counter
}

// New returns an initialized Log with capacity slots. capacity <= 0 falls
// back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{slots: make([][]byte, capacity)}
}

// Cap returns the fixed slot count K.
func (l *Log) Cap() int {
	return len(l.slots)
}

// Append stores packet at the head of the ring. If the ring is already
// full, the packet occupying the tail slot is evicted and returned;
// ownership of its bytes passes to the caller. Append never fails for
// reasons internal to the log (spec invariant).
func (l *Log) Append(packet []byte) (evicted []byte, wasEvicted bool) {
	if l.full {
		evicted = l.slots[l.outIdx]
		wasEvicted = true
		l.outIdx = (l.outIdx + 1) % len(l.slots)
		l.evicted++
	}

	l.slots[l.inIdx] = packet
	l.inIdx = (l.inIdx + 1) % len(l.slots)
	l.stored++

	l.full = l.inIdx == l.outIdx
	return evicted, wasEvicted
}

// FindAt walks the occupied slots oldest-to-newest, starting at outIdx,
// and returns the slot index and inner byte offset that charOffset maps
// to. ok is false when charOffset >= TotalBytes() (EOF).
func (l *Log) FindAt(charOffset int64) (slot int, inner int64, ok bool) {
	if charOffset < 0 {
		return 0, 0, false
	}

	var total int64
	idx := l.outIdx
	for checked := 0; checked < len(l.slots); checked++ {
		size := int64(len(l.slots[idx]))
		// A slot with zero-length bytes is still "occupied" if it was
		// ever written (an empty packet is accepted per spec); but a
		// nil slot (never written) means we've walked past the
		// occupied region defensively.
		if l.slots[idx] == nil {
			break
		}

		if charOffset < total+size {
			return idx, charOffset - total, true
		}

		total += size
		idx = (idx + 1) % len(l.slots)

		if idx == l.inIdx && !l.full {
			break
		}
	}
	return 0, 0, false
}

// Slot returns the raw packet bytes stored at the given slot index,
// regardless of logical order. ok is false if the slot has never been
// written or capacity is out of range.
func (l *Log) Slot(index int) (packet []byte, ok bool) {
	if index < 0 || index >= len(l.slots) {
		return nil, false
	}
	if l.slots[index] == nil {
		return nil, false
	}
	return l.slots[index], true
}

// SlotOccupied reports whether index currently owns a packet.
func (l *Log) SlotOccupied(index int) bool {
	_, ok := l.Slot(index)
	return ok
}

// BytesBeforeSlot returns the sum of packet sizes occupying slot
// positions [0, index) of the raw array, used by seek-to-entry to
// translate a raw slot index into a virtual-stream byte offset.
func (l *Log) BytesBeforeSlot(index int) int64 {
	var total int64
	for i := 0; i < index && i < len(l.slots); i++ {
		total += int64(len(l.slots[i]))
	}
	return total
}

// TotalBytes sums the sizes of all occupied slots (the virtual stream's
// length).
func (l *Log) TotalBytes() int64 {
	var total int64
	l.ForEachOccupied(func(_ int, packet []byte) {
		total += int64(len(packet))
	})
	return total
}

// Count returns the number of occupied slots.
func (l *Log) Count() int {
	if l.full {
		return len(l.slots)
	}
	if l.inIdx >= l.outIdx {
		return l.inIdx - l.outIdx
	}
	return len(l.slots) - l.outIdx + l.inIdx
}

// ForEachOccupied visits occupied slots oldest-to-newest, passing the raw
// slot index and its packet bytes. Used at shutdown to release packet
// memory and by TotalBytes/streaming helpers.
func (l *Log) ForEachOccupied(visit func(slot int, packet []byte)) {
	if l.Count() == 0 {
		return
	}
	idx := l.outIdx
	for checked := 0; checked < len(l.slots); checked++ {
		if l.slots[idx] == nil {
			break
		}
		visit(idx, l.slots[idx])
		idx = (idx + 1) % len(l.slots)
		if idx == l.inIdx && !l.full {
			break
		}
	}
}

// Reset releases every slot's packet bytes and returns the log to the
// empty state. Mirrors the original's shutdown-time buffer release.
func (l *Log) Reset() {
	for i := range l.slots {
		l.slots[i] = nil
	}
	l.inIdx, l.outIdx, l.full = 0, 0, false
}

// Stats is a point-in-time snapshot of lifetime counters, used for
// metrics/logging without exposing the slot array itself.
type Stats struct {
	Occupied     int
	TotalBytes   int64
	Appended     uint64
	Evicted      uint64
	Capacity     int
}

// Snapshot returns a Stats value describing the log's current state.
func (l *Log) Snapshot() Stats {
	return Stats{
		Occupied:   l.Count(),
		TotalBytes: l.TotalBytes(),
		Appended:   l.stored,
		Evicted:    l.evicted,
		Capacity:   len(l.slots),
	}
}
