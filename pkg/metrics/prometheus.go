// Copyright 2025 The OpenFIB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewPromCounter wraps a prometheus counter vector as a Counter. Returns
// nil if cv is nil.
func NewPromCounter(cv *prometheus.CounterVec) Counter {
	if cv == nil {
		return nil
	}
	return promCounter{cv: cv}
}

// NewPromGauge wraps a prometheus gauge vector as a Gauge. Returns nil if
// gv is nil.
func NewPromGauge(gv *prometheus.GaugeVec) Gauge {
	if gv == nil {
		return nil
	}
	return promGauge{gv: gv}
}

// NewPromHistogram wraps a prometheus histogram vector as a Histogram.
// Returns nil if hv is nil.
func NewPromHistogram(hv *prometheus.HistogramVec) Histogram {
	if hv == nil {
		return nil
	}
	return promHistogram{hv: hv}
}

// labelValues accumulates alternating key-value label pairs across With
// calls. An odd number of values is padded with "unknown" to avoid a
// panic deep inside the prometheus client.
type labelValues []string

func (lvs labelValues) with(more []string) labelValues {
	if len(more)%2 != 0 {
		more = append(more, "unknown")
	}
	result := make(labelValues, len(lvs), len(lvs)+len(more))
	copy(result, lvs)
	return append(result, more...)
}

func (lvs labelValues) labels() prometheus.Labels {
	labels := make(prometheus.Labels, len(lvs)/2)
	for i := 0; i < len(lvs)-1; i += 2 {
		labels[lvs[i]] = lvs[i+1]
	}
	return labels
}

type promCounter struct {
	cv  *prometheus.CounterVec
	lvs labelValues
}

func (c promCounter) Add(delta float64) {
	c.cv.With(c.lvs.labels()).Add(delta)
}

func (c promCounter) With(labelValues ...string) Counter {
	return promCounter{cv: c.cv, lvs: c.lvs.with(labelValues)}
}

type promGauge struct {
	gv  *prometheus.GaugeVec
	lvs labelValues
}

func (g promGauge) Set(value float64) {
	g.gv.With(g.lvs.labels()).Set(value)
}

func (g promGauge) Add(delta float64) {
	g.gv.With(g.lvs.labels()).Add(delta)
}

func (g promGauge) With(labelValues ...string) Gauge {
	return promGauge{gv: g.gv, lvs: g.lvs.with(labelValues)}
}

type promHistogram struct {
	hv  *prometheus.HistogramVec
	lvs labelValues
}

func (h promHistogram) Observe(value float64) {
	h.hv.With(h.lvs.labels()).Observe(value)
}

func (h promHistogram) With(labelValues ...string) Histogram {
	return promHistogram{hv: h.hv, lvs: h.lvs.with(labelValues)}
}
