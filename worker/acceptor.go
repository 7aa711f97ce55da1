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

package worker

import (
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/aesdsocket/aesdsocket/store"
)

// Acceptor listens, accepts, spawns one Conn per accepted connection, and
// reaps finished workers from its registry. The registry is touched only
// by the Acceptor's own goroutine(s) — workers never mutate it, they
// only close their own Done channel.
type Acceptor struct {
	listener       net.Listener
	store          store.Store
	maxPacketBytes int
	compress       bool
	metrics        *Metrics
	logger         *log.Logger

	mu       sync.Mutex
	registry []*Conn
	wg       sync.WaitGroup

	shuttingDown atomic.Bool
}

// NewAcceptor wires a listener to a Store. maxPacketBytes of 0 selects
// protocol.DefaultMaxPacketBytes for every spawned worker; metrics may be
// nil to disable Prometheus instrumentation entirely. compress wraps
// every accepted connection in a CompStream before it reaches a worker.
func NewAcceptor(listener net.Listener, st store.Store, maxPacketBytes int, compress bool, metrics *Metrics, logger *log.Logger) *Acceptor {
	if logger == nil {
		logger = log.Default()
	}
	return &Acceptor{
		listener:       listener,
		store:          st,
		maxPacketBytes: maxPacketBytes,
		compress:       compress,
		metrics:        metrics,
		logger:         logger,
	}
}

// Serve runs the accept loop until the listener is closed (normally via
// Shutdown). It always returns nil once shutdown has been requested; any
// other Accept error is logged and the loop retries, treating a
// transient accept failure as non-fatal.
func (a *Acceptor) Serve() error {
	for {
		nc, err := a.listener.Accept()
		if err != nil {
			if a.shuttingDown.Load() {
				return nil
			}
			a.logger.Printf("accept: %v", err)
			continue
		}

		a.metrics.incConnections()
		var transport net.Conn = nc
		if a.compress {
			transport = NewCompStream(nc)
		}
		c := newConn(transport, a.store, a.maxPacketBytes, a.metrics, a.logger)
		a.logger.Printf("accepted connection from %s", c.RemoteAddr)
		a.metrics.incActiveWorkers()

		a.mu.Lock()
		a.registry = append(a.registry, c)
		a.mu.Unlock()

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			defer a.metrics.decActiveWorkers()
			c.run()
			a.logger.Printf("closed connection from %s", c.RemoteAddr)
		}()

		a.reap()
	}
}

// reap sweeps the registry for workers whose Done channel has closed and
// removes them.
func (a *Acceptor) reap() {
	a.mu.Lock()
	defer a.mu.Unlock()

	live := a.registry[:0]
	for _, c := range a.registry {
		select {
		case <-c.Done():
			// finished; dropped from the registry without being
			// appended to live.
		default:
			live = append(live, c)
		}
	}
	a.registry = live
}

// ActiveCount returns the number of workers the registry currently
// tracks (accepted but not yet reaped).
func (a *Acceptor) ActiveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.registry)
}

// Shutdown stops accepting new connections, closes the listener (which
// unblocks a pending Accept in Serve), and waits for every in-flight
// worker to finish before returning.
func (a *Acceptor) Shutdown() error {
	a.shuttingDown.Store(true)
	err := a.listener.Close()
	a.wg.Wait()
	return err
}

// HumanBytes formats a byte count for log lines, e.g. "1.2 kB" — a small
// logging nicety grounded on the pack's dustin/go-humanize usage
// (godtoy-netcap).
func HumanBytes(n int64) string {
	return humanize.Bytes(uint64(n))
}
