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

// Package mgmtapi exposes the pipeline's query interface over HTTP: the
// currently installed routes, the per-pass perf history, the lifecycle
// status and the prometheus metrics.
package mgmtapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openfib/fibsync/fib/control"
	"github.com/openfib/fibsync/pkg/log"
	"github.com/openfib/fibsync/pkg/route"
)

// Pipeline is the query surface of the controller.
type Pipeline interface {
	RouteSnapshot() *route.Snapshot
	PerfHistory() []control.PerfTrace
	Phase() control.Phase
}

// Server serves the management API.
type Server struct {
	// Pipeline is the pipeline to query. Must not be nil.
	Pipeline Pipeline
}

// Router constructs the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/routes", s.getRoutes)
	r.Get("/api/v1/perf", s.getPerfHistory)
	r.Get("/api/v1/status", s.getStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func (s *Server) getRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Pipeline.RouteSnapshot())
}

func (s *Server) getPerfHistory(w http.ResponseWriter, r *http.Request) {
	history := s.Pipeline.PerfHistory()
	if history == nil {
		history = []control.PerfTrace{}
	}
	writeJSON(w, struct {
		Traces []control.PerfTrace `json:"traces"`
	}{Traces: history})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Phase string `json:"phase"`
	}{Phase: s.Pipeline.Phase().String()})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(body); err != nil {
		log.Info("Writing management API response", "err", err)
	}
}
