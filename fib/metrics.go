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

package fib

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openfib/fibsync/fib/control"
	"github.com/openfib/fibsync/fib/ingress"
	"github.com/openfib/fibsync/pkg/metrics"
)

// Metrics aggregates the metrics of all pipeline components.
type Metrics struct {
	Controller control.Metrics
	Ingress    ingress.Metrics
}

// NewMetrics registers and returns the service metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Controller: control.Metrics{
			UpdatesReceived: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_updates_received_total",
					Help: "Total number of route snapshots received from the publisher.",
				}, []string{})),
			UpdatesRejected: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_updates_rejected_total",
					Help: "Total number of malformed or foreign snapshots rejected.",
				}, []string{})),
			PassesProgrammed: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_passes_programmed_total",
					Help: "Total number of successful programming passes.",
				}, []string{})),
			PassesFailed: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_passes_failed_total",
					Help: "Total number of programming passes abandoned at the " +
						"retry ceiling.",
				}, []string{})),
			ReconcileRuns: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_reconcile_runs_total",
					Help: "Total number of reconciliation passes started.",
				}, []string{})),
			ReconcileFailures: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_reconcile_failures_total",
					Help: "Total number of reconciliation passes abandoned.",
				}, []string{})),
			AgentCallFailures: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_agent_call_failures_total",
					Help: "Total number of failed forwarding agent calls.",
				}, []string{"op"})),
			AgentCallRetries: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_agent_call_retries_total",
					Help: "Total number of forwarding agent call retries.",
				}, []string{"op"})),
			RoutesInstalled: metrics.NewPromGauge(promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "fib_routes_installed",
					Help: "Number of prefixes currently believed installed in " +
						"the forwarding agent.",
				}, []string{})),
			PassDuration: metrics.NewPromHistogram(promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "fib_pass_duration_seconds",
					Help:    "Duration of programming passes from snapshot receipt.",
					Buckets: prometheus.DefBuckets,
				}, []string{})),
		},
		Ingress: ingress.Metrics{
			MessagesReceived: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_ingress_messages_total",
					Help: "Total number of pub/sub messages received.",
				}, []string{})),
			DecodeErrors: metrics.NewPromCounter(promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "fib_ingress_decode_errors_total",
					Help: "Total number of pub/sub messages dropped as undecodable.",
				}, []string{})),
		},
	}
}
