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

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the acceptor and its workers
// update. A nil *Metrics is valid and every method on it is a no-op, so
// callers that run with -metrics=false never pay for label lookups.
// Grounded on the pack's prometheus/client_golang usage
// (lavigneer-c8s's pkg/metrics), generalized to this appliance's domain.
type Metrics struct {
	PacketsAppended  prometheus.Counter
	PacketsEvicted   prometheus.Counter
	ControlAccepted  prometheus.Counter
	ControlRejected  prometheus.Counter
	BytesStreamed    prometheus.Counter
	BytesInLog       prometheus.Gauge
	ActiveWorkers    prometheus.Gauge
	ConnectionsTotal prometheus.Counter
}

// NewMetrics constructs and registers a fresh Metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PacketsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aesdsocket_packets_appended_total",
			Help: "Total packets appended to the log.",
		}),
		PacketsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aesdsocket_packets_evicted_total",
			Help: "Total packets evicted from the log on overflow.",
		}),
		ControlAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aesdsocket_control_commands_accepted_total",
			Help: "Total seek-to-entry commands that parsed and applied successfully.",
		}),
		ControlRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aesdsocket_control_commands_rejected_total",
			Help: "Total seek-to-entry commands rejected (parse failure or out of range).",
		}),
		BytesStreamed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aesdsocket_bytes_streamed_total",
			Help: "Total bytes streamed back to clients.",
		}),
		BytesInLog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aesdsocket_bytes_in_log",
			Help: "Current size of the virtual byte stream held by the log.",
		}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aesdsocket_active_workers",
			Help: "Number of connection workers currently in flight.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aesdsocket_connections_total",
			Help: "Total connections accepted.",
		}),
	}
	reg.MustRegister(
		m.PacketsAppended,
		m.PacketsEvicted,
		m.ControlAccepted,
		m.ControlRejected,
		m.BytesStreamed,
		m.BytesInLog,
		m.ActiveWorkers,
		m.ConnectionsTotal,
	)
	return m
}

func (m *Metrics) incPacketsAppended() {
	if m != nil {
		m.PacketsAppended.Inc()
	}
}

func (m *Metrics) incPacketsEvicted() {
	if m != nil {
		m.PacketsEvicted.Inc()
	}
}

func (m *Metrics) setBytesInLog(n int64) {
	if m != nil {
		m.BytesInLog.Set(float64(n))
	}
}

func (m *Metrics) incControlAccepted() {
	if m != nil {
		m.ControlAccepted.Inc()
	}
}

func (m *Metrics) incControlRejected() {
	if m != nil {
		m.ControlRejected.Inc()
	}
}

func (m *Metrics) addBytesStreamed(n int) {
	if m != nil {
		m.BytesStreamed.Add(float64(n))
	}
}

func (m *Metrics) incActiveWorkers() {
	if m != nil {
		m.ActiveWorkers.Inc()
	}
}

func (m *Metrics) decActiveWorkers() {
	if m != nil {
		m.ActiveWorkers.Dec()
	}
}

func (m *Metrics) incConnections() {
	if m != nil {
		m.ConnectionsTotal.Inc()
	}
}
