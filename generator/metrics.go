/*
   Copyright The hoprd-config-generator Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package generator

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// NodesRenderedKey counts node configs rendered successfully.
	NodesRenderedKey = "nodes_rendered_total"

	// RenderFailuresKey counts node configs that failed to render.
	RenderFailuresKey = "render_failures_total"

	// RenderLatencyKeyMilliseconds is the per-node render latency.
	RenderLatencyKeyMilliseconds = "render_duration_milliseconds"

	// LastRunKey is the unix time of the last completed run.
	LastRunKey = "last_run_timestamp_seconds"

	namespace = "hoprd_config"
	subsystem = "generator"

	networkLabel = "network"
)

var latencyBucketsMilliseconds = []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}

// Metrics collects generation metrics. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	nodesRendered  *prometheus.CounterVec
	renderFailures *prometheus.CounterVec
	renderLatency  *prometheus.HistogramVec
	lastRun        *prometheus.GaugeVec
}

// NewMetrics creates the generator metrics and registers them with a fresh
// registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodesRendered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      NodesRenderedKey,
				Help:      "Number of node configs rendered. Broken down by network.",
			},
			[]string{networkLabel},
		),
		renderFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      RenderFailuresKey,
				Help:      "Number of node configs that failed to render. Broken down by network.",
			},
			[]string{networkLabel},
		),
		renderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      RenderLatencyKeyMilliseconds,
				Help:      "Latency in milliseconds of rendering one node config. Broken down by network.",
				Buckets:   latencyBucketsMilliseconds,
			},
			[]string{networkLabel},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      LastRunKey,
				Help:      "Unix time of the last completed generation run. Broken down by network.",
			},
			[]string{networkLabel},
		),
	}
	for _, c := range []prometheus.Collector{m.nodesRendered, m.renderFailures, m.renderLatency, m.lastRun} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observeRender(networkName string, start time.Time, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.renderFailures.WithLabelValues(networkName).Inc()
		return
	}
	m.nodesRendered.WithLabelValues(networkName).Inc()
	m.renderLatency.WithLabelValues(networkName).Observe(float64(time.Since(start).Microseconds()) / 1000)
}

func (m *Metrics) markRun(networkName string, t time.Time) {
	if m == nil {
		return
	}
	m.lastRun.WithLabelValues(networkName).Set(float64(t.Unix()))
}

// Gatherer exposes the collected metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteToTextfile writes the metrics in the text exposition format read by
// the node exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Gatherer()); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
