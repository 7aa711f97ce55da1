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

// Package timestamp implements a periodic timestamp-writer collaborator
// that appends a formatted wall-clock line to a Store on a fixed
// interval. It is ordinary application logic, not OS/process plumbing,
// and is only meaningful against a file-backed store: a memory-backed
// log is reset on every process restart anyway.
package timestamp

import (
	"fmt"
	"log"
	"time"

	"github.com/aesdsocket/aesdsocket/store"
)

// DefaultInterval matches the original's TIMESTAMP_INTERVAL of 10 seconds.
const DefaultInterval = 10 * time.Second

// layout renders "timestamp: %Y/%m/%d %H:%M:%S\n" in Go's reference-time
// format.
const layout = "2006/01/02 15:04:05"

// Writer appends a formatted wall-clock line to a Store on a fixed
// interval, through the same AppendPacket path (and therefore the same
// lock) any other packet uses.
type Writer struct {
	store    store.Store
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewWriter returns a Writer that appends through st every interval.
// interval <= 0 selects DefaultInterval. A nil logger selects log.Default.
func NewWriter(st store.Store, interval time.Duration, logger *log.Logger) *Writer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{
		store:    st,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks, appending a timestamp line every interval, until Stop is
// called. It is meant to be launched in its own goroutine.
func (w *Writer) Run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case t := <-ticker.C:
			line := fmt.Sprintf("timestamp: %s\n", t.Format(layout))
			if _, err := w.store.AppendPacket([]byte(line)); err != nil {
				w.logger.Printf("timestamp writer: append failed: %v", err)
			}
		}
	}
}

// Stop signals Run to return and blocks until it has.
func (w *Writer) Stop() {
	close(w.stop)
	<-w.done
}
