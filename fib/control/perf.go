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

package control

import (
	"sync"
	"time"
)

// Pipeline stages stamped on a perf trace. Consumers derive per-stage
// latency by subtracting neighboring events.
const (
	PerfRouteReceived    = "route-received"
	PerfDebounceFired    = "debounce-fired"
	PerfRoutesProgrammed = "routes-programmed"
)

// PerfEvent is a single named timestamp within a pipeline pass.
type PerfEvent struct {
	Name string    `json:"name"`
	Time time.Time `json:"time"`
}

// PerfTrace is the ordered sequence of events of one pipeline pass.
type PerfTrace struct {
	Events []PerfEvent `json:"events"`
}

func (t *PerfTrace) stamp(name string) {
	if t == nil {
		return
	}
	t.Events = append(t.Events, PerfEvent{Name: name, Time: time.Now()})
}

// duration returns the elapsed time between the first and the last event.
func (t *PerfTrace) duration() time.Duration {
	if t == nil || len(t.Events) < 2 {
		return 0
	}
	return t.Events[len(t.Events)-1].Time.Sub(t.Events[0].Time)
}

// perfRecorder keeps a bounded history of completed traces, evicting the
// oldest first. Recording failures are impossible by construction; the
// recorder never propagates errors into the pipeline.
type perfRecorder struct {
	capacity int

	mtx    sync.Mutex
	traces []PerfTrace
}

func newPerfRecorder(capacity int) *perfRecorder {
	return &perfRecorder{capacity: capacity}
}

func (r *perfRecorder) finalize(t *PerfTrace) {
	if t == nil || r.capacity <= 0 {
		return
	}
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if len(r.traces) == r.capacity {
		copy(r.traces, r.traces[1:])
		r.traces = r.traces[:len(r.traces)-1]
	}
	r.traces = append(r.traces, *t)
}

// history returns a copy of the recorded traces, oldest first.
func (r *perfRecorder) history() []PerfTrace {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	history := make([]PerfTrace, len(r.traces))
	for i, t := range r.traces {
		history[i] = PerfTrace{Events: append([]PerfEvent(nil), t.Events...)}
	}
	return history
}
