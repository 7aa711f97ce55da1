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

package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	"github.com/aesdsocket/aesdsocket/config"
	"github.com/aesdsocket/aesdsocket/store"
	"github.com/aesdsocket/aesdsocket/timestamp"
	"github.com/aesdsocket/aesdsocket/worker"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "aesdsocket"
	myApp.Usage = "bounded circular packet log with a concurrent TCP echo front end"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "d",
			Usage: "daemonize: detach into the background before the listener is opened",
		},
		cli.IntFlag{
			Name:  "port",
			Value: 9000,
			Usage: "TCP port to listen on",
		},
		cli.IntFlag{
			Name:  "capacity",
			Value: 10,
			Usage: "number of packet slots the log retains before evicting the oldest",
		},
		cli.StringFlag{
			Name:  "backend",
			Value: "memory",
			Usage: "log storage backend: memory or file",
		},
		cli.StringFlag{
			Name:  "datafile",
			Value: "/var/tmp/aesdsocketdata",
			Usage: "backing file path when backend=file",
		},
		cli.IntFlag{
			Name:  "maxpacket",
			Value: 1 << 20,
			Usage: "maximum bytes accepted for a single newline-terminated packet",
		},
		cli.BoolFlag{
			Name:  "compress",
			Usage: "wrap every accepted connection in snappy compression",
		},
		cli.BoolFlag{
			Name:  "timestamp",
			Usage: "append a formatted timestamp line to the log every 10 seconds (backend=file only)",
		},
		cli.BoolFlag{
			Name:  "metrics",
			Usage: "start a Prometheus /metrics server",
		},
		cli.StringFlag{
			Name:  "metricsaddr",
			Value: ":9090",
			Usage: "address for the Prometheus /metrics server",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "",
			Usage: "config from json file, which will override the command from shell",
		},
	}
	myApp.Action = run
	myApp.Run(os.Args)
}

func run(c *cli.Context) error {
	cfg := config.Default()
	cfg.Daemonize = c.Bool("d")
	cfg.Port = c.Int("port")
	cfg.Capacity = c.Int("capacity")
	cfg.Backend = c.String("backend")
	cfg.DataFile = c.String("datafile")
	cfg.MaxPacketBytes = c.Int("maxpacket")
	cfg.Compress = c.Bool("compress")
	cfg.TimestampEnabled = c.Bool("timestamp")
	cfg.MetricsEnabled = c.Bool("metrics")
	cfg.MetricsAddr = c.String("metricsaddr")
	cfg.LogFile = c.String("log")

	if c.String("c") != "" {
		if err := config.ParseJSONFile(&cfg, c.String("c")); err != nil {
			checkError(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		checkError(err)
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		checkError(err)
		defer f.Close()
		log.SetOutput(f)
	}

	if cfg.Daemonize {
		checkError(Daemonize())
	}

	log.Println("version:", VERSION)
	log.Println("port:", cfg.Port)
	log.Println("capacity:", cfg.Capacity)
	log.Println("backend:", cfg.Backend)
	if cfg.Backend == "file" {
		log.Println("datafile:", cfg.DataFile)
	}
	log.Println("maxpacket:", cfg.MaxPacketBytes)
	log.Println("compress:", cfg.Compress)
	log.Println("timestamp:", cfg.TimestampEnabled)
	log.Println("metrics:", cfg.MetricsEnabled)

	if cfg.TimestampEnabled && cfg.Backend != "file" {
		color.Red("warning: -timestamp has no effect on backend=%s; it only runs against a file-backed log", cfg.Backend)
	}

	st, cleanup, err := openStore(cfg)
	checkError(err)
	defer cleanup()

	var metrics *worker.Metrics
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		metrics = worker.NewMetrics(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
		log.Println("metrics listening on:", cfg.MetricsAddr)
	}

	var tsWriter *timestamp.Writer
	if cfg.TimestampEnabled && cfg.Backend == "file" {
		tsWriter = timestamp.NewWriter(st, cfg.TimestampInterval, log.Default())
		go tsWriter.Run()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	listener, err := worker.Listen(addr)
	checkError(err)
	log.Println("listening on:", addr)

	acc := worker.NewAcceptor(listener, st, cfg.MaxPacketBytes, cfg.Compress, metrics, log.Default())

	var caughtSignal atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Println("caught signal:", sig, "shutting down")
		caughtSignal.Store(true)
		if tsWriter != nil {
			tsWriter.Stop()
		}
		if err := acc.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	serveErr := acc.Serve()
	if serveErr != nil && !caughtSignal.Load() {
		log.Printf("serve: %v", serveErr)
		return serveErr
	}
	log.Println("shutdown complete")
	return nil
}

// openStore constructs the configured Store backend and returns a cleanup
// func that closes it (and, for a file backend, removes the backing file,
// so a clean exit leaves no state behind).
func openStore(cfg config.Config) (store.Store, func(), error) {
	switch cfg.Backend {
	case "file":
		fs, err := store.NewFileStore(cfg.DataFile, cfg.Capacity)
		if err != nil {
			return nil, func() {}, err
		}
		cleanup := func() {
			fs.Close()
			os.Remove(fs.Path())
		}
		return fs, cleanup, nil
	default:
		ms := store.NewMemoryStore(cfg.Capacity)
		return ms, func() { ms.Close() }, nil
	}
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}
