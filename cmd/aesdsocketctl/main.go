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

// Command aesdsocketctl is a small diagnostic client for an aesdsocket
// server: it dials the server, sends one packet (a literal line or a
// seek-to-entry control command), and prints whatever comes back before
// the connection closes.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/aesdsocket/aesdsocket/protocol"
	"github.com/aesdsocket/aesdsocket/worker"
)

func main() {
	myApp := cli.NewApp()
	myApp.Name = "aesdsocketctl"
	myApp.Usage = "send one packet to an aesdsocket server and print the echoed stream"
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "addr",
			Value: "127.0.0.1:9000",
			Usage: "server address",
		},
		cli.StringFlag{
			Name:  "send",
			Value: "",
			Usage: "literal line to send (a trailing newline is added if missing)",
		},
		cli.StringFlag{
			Name:  "seek",
			Value: "",
			Usage: "send a seek-to-entry command, formatted W,U (entry index, inner byte offset)",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Value: 5 * time.Second,
			Usage: "read timeout waiting for the echoed stream",
		},
		cli.BoolFlag{
			Name:  "compress",
			Usage: "speak snappy compression, matching a server started with -compress",
		},
	}
	myApp.Action = run
	if err := myApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	packet, err := buildPacket(c.String("send"), c.String("seek"))
	if err != nil {
		return err
	}

	conn, err := net.Dial("tcp", c.String("addr"))
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	var transport net.Conn = conn
	if c.Bool("compress") {
		transport = worker.NewCompStream(conn)
	}

	if _, err := transport.Write(packet); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	transport.SetReadDeadline(time.Now().Add(c.Duration("timeout")))

	reader := bufio.NewReader(transport)
	n, err := io.Copy(os.Stdout, reader)
	if err != nil && !strings.Contains(err.Error(), "closed") {
		return fmt.Errorf("read: %w", err)
	}
	log.Printf("received %d bytes", n)
	return nil
}

// buildPacket resolves the -send/-seek flags (mutually exclusive) into the
// exact bytes to write to the connection.
func buildPacket(send, seek string) ([]byte, error) {
	if send != "" && seek != "" {
		return nil, fmt.Errorf("-send and -seek are mutually exclusive")
	}
	if seek != "" {
		line := protocol.SeekPrefix + seek
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		return []byte(line), nil
	}
	if send == "" {
		return nil, fmt.Errorf("one of -send or -seek is required")
	}
	if !strings.HasSuffix(send, "\n") {
		send += "\n"
	}
	return []byte(send), nil
}
