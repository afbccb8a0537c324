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

// Package metrics defines thin interfaces over the metric types used by
// this project. Components hold the interfaces so that tests can run with
// nil metrics; all package helpers treat nil as a no-op.
package metrics

// Counter describes a monotonically increasing value.
type Counter interface {
	Add(delta float64)
	With(labelValues ...string) Counter
}

// Gauge describes a value that can go up and down.
type Gauge interface {
	Set(value float64)
	Add(delta float64)
	With(labelValues ...string) Gauge
}

// Histogram describes a distribution of observed values.
type Histogram interface {
	Observe(value float64)
	With(labelValues ...string) Histogram
}

// CounterInc increments the counter by one, if it is non-nil.
func CounterInc(c Counter) {
	if c != nil {
		c.Add(1)
	}
}

// CounterWith returns the counter with the labels attached, or nil if the
// counter is nil.
func CounterWith(c Counter, labelValues ...string) Counter {
	if c == nil {
		return nil
	}
	return c.With(labelValues...)
}

// GaugeSet sets the gauge to the value, if it is non-nil.
func GaugeSet(g Gauge, value float64) {
	if g != nil {
		g.Set(value)
	}
}

// HistogramObserve records the value in the histogram, if it is non-nil.
func HistogramObserve(h Histogram, value float64) {
	if h != nil {
		h.Observe(value)
	}
}
