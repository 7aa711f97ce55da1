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

// Package worker implements the per-connection state machine (C4) and the
// acceptor/registry that spawns and reaps it (C5).
package worker

import (
	"io"
	"log"
	"net"

	"github.com/google/uuid"

	"github.com/aesdsocket/aesdsocket/protocol"
	"github.com/aesdsocket/aesdsocket/store"
)

const streamChunkSize = 4096

// Conn drives one accepted connection through Receiving -> Processing ->
// Streaming -> Done. It owns its assembly buffer and discards it on
// exit; it never touches the Acceptor's registry directly.
type Conn struct {
	ID         uuid.UUID
	RemoteAddr string

	netConn   net.Conn
	st        store.Store
	assembler *protocol.Assembler
	metrics   *Metrics
	logger    *log.Logger

	done chan struct{}
}

// newConn wraps an accepted net.Conn. maxPacketBytes configures the
// assembler's overflow threshold (0 selects protocol.DefaultMaxPacketBytes).
func newConn(nc net.Conn, st store.Store, maxPacketBytes int, metrics *Metrics, logger *log.Logger) *Conn {
	addr := ""
	if tcp, ok := nc.RemoteAddr().(*net.TCPAddr); ok {
		addr = tcp.IP.String()
	} else {
		addr = nc.RemoteAddr().String()
	}
	return &Conn{
		ID:         uuid.New(),
		RemoteAddr: addr,
		netConn:    nc,
		st:         st,
		assembler:  protocol.NewAssembler(maxPacketBytes),
		metrics:    metrics,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Done returns a channel closed once the worker has fully exited,
// letting the Acceptor observe completion without polling.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// run executes the full Receiving->Processing->Streaming->Done state
// machine for this connection and closes c.done on return.
func (c *Conn) run() {
	defer close(c.done)
	defer c.netConn.Close()

	packet, err := c.receive()
	if err != nil {
		c.logger.Printf("worker %s: %v", c.ID, err)
		return
	}
	if packet == nil {
		// Zero-length read or a frame abandoned without a newline:
		// nothing to process or stream back.
		return
	}

	cursor := c.process(packet)
	c.stream(cursor)
}

// receive loops reading into the assembler until a newline is seen, the
// connection reaches EOF, or a read error occurs. It returns (nil, nil)
// when the connection closed before ever producing a complete packet.
func (c *Conn) receive() ([]byte, error) {
	buf := make([]byte, streamChunkSize)
	for {
		n, err := c.netConn.Read(buf)
		if n > 0 {
			hasNewline, ferr := c.assembler.Feed(buf[:n])
			if ferr != nil {
				return nil, ferr
			}
			if hasNewline {
				return c.assembler.TakePacket(), nil
			}
		}
		if err != nil {
			if err == io.EOF {
				if c.assembler.Len() > 0 {
					c.logger.Printf("worker %s: received %d bytes without a terminating newline", c.ID, c.assembler.Len())
				}
				return nil, nil
			}
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
	}
}

// process examines the packet's prefix: a recognized seek-to-entry
// command is parsed and forwarded to the store, never appended; anything
// else is appended. It returns the cursor the Streaming phase should
// start from.
func (c *Conn) process(packet []byte) int64 {
	if protocol.IsSeekCommand(packet) {
		w, u, err := protocol.ParseSeek(packet)
		if err != nil {
			c.logger.Printf("worker %s: malformed seek command: %v", c.ID, err)
			c.metrics.incControlRejected()
			return 0
		}

		cursor, err := c.st.SeekToEntry(w, u)
		if err != nil {
			c.logger.Printf("worker %s: seek-to-entry(%d,%d) failed: %v", c.ID, w, u, err)
			c.metrics.incControlRejected()
			return 0
		}
		c.metrics.incControlAccepted()
		return cursor
	}

	evicted, err := c.st.AppendPacket(packet)
	if err != nil {
		c.logger.Printf("worker %s: append failed: %v", c.ID, err)
		return 0
	}
	c.metrics.incPacketsAppended()
	if evicted {
		c.metrics.incPacketsEvicted()
	}
	if total, err := c.st.TotalBytes(); err == nil {
		c.metrics.setBytesInLog(total)
		c.logger.Printf("worker %s: appended %d bytes, log now holds %s", c.ID, len(packet), HumanBytes(total))
	}
	return 0
}

// stream copies the virtual byte stream from cursor to EOF back to the
// client, chunk by chunk, stopping at the first zero-byte read.
func (c *Conn) stream(cursor int64) {
	buf := make([]byte, streamChunkSize)
	for {
		n, err := c.st.ReadAt(cursor, buf)
		if err != nil {
			c.logger.Printf("worker %s: read-at(%d) failed: %v", c.ID, cursor, err)
			return
		}
		if n == 0 {
			return
		}
		if _, werr := c.netConn.Write(buf[:n]); werr != nil {
			c.logger.Printf("worker %s: send failed: %v", c.ID, werr)
			return
		}
		c.metrics.addBytesStreamed(n)
		cursor += int64(n)
	}
}
