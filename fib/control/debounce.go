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

	"github.com/openfib/fibsync/pkg/route"
)

// Update is one ingested snapshot traveling through the pipeline together
// with its perf trace.
type Update struct {
	// Snapshot is the desired route set as received from the publisher.
	Snapshot *route.Snapshot

	trace *PerfTrace
}

// Debouncer coalesces bursts of snapshot notifications into a single
// downstream action. Only the most recent snapshot of a window is ever
// forwarded; intermediate transients are discarded. The first notify of a
// window arms a timer for Interval and fixes a hard deadline of
// MaxInterval; every further notify re-arms the timer, but never past the
// deadline, so continuous input still makes progress at least once per
// MaxInterval.
type Debouncer struct {
	// Interval is the quiet period after the last notification before the
	// window fires.
	Interval time.Duration
	// MaxInterval is the upper bound on the lifetime of a single window.
	MaxInterval time.Duration

	mtx      sync.Mutex
	pending  *Update
	timer    *time.Timer
	gen      uint64
	deadline time.Time
	closed   bool

	initOnce sync.Once
	fired    chan *Update
}

func (d *Debouncer) init() {
	d.initOnce.Do(func() {
		d.fired = make(chan *Update, 1)
	})
}

// Notify records the update as the window's latest, replacing any queued
// one, and arms or extends the window timer.
func (d *Debouncer) Notify(u *Update) {
	d.init()
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.closed {
		return
	}
	d.pending = u
	now := time.Now()
	if d.timer == nil {
		d.deadline = now.Add(d.MaxInterval)
		d.armLocked(d.Interval)
		return
	}
	wait := d.Interval
	if remaining := d.deadline.Sub(now); remaining < wait {
		wait = remaining
	}
	if wait < 0 {
		wait = 0
	}
	d.armLocked(wait)
}

// armLocked replaces the window timer. The generation counter invalidates
// a superseded callback that already fired but has not taken the lock yet,
// so re-arming cannot leak an early fire.
func (d *Debouncer) armLocked(wait time.Duration) {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(wait, func() { d.fire(gen) })
}

// Updates returns the channel on which fired windows are delivered. If the
// consumer lags behind, a newly fired window replaces the undelivered one.
func (d *Debouncer) Updates() <-chan *Update {
	d.init()
	return d.fired
}

// Close discards any pending window. Notify calls after Close are no-ops.
func (d *Debouncer) Close() {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.closed = true
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mtx.Lock()
	if gen != d.gen || d.closed {
		d.mtx.Unlock()
		return
	}
	u := d.pending
	d.pending = nil
	d.timer = nil
	d.mtx.Unlock()
	if u == nil {
		return
	}
	for {
		select {
		case d.fired <- u:
			return
		default:
		}
		// Consumer still holds an older window, drop it in favor of the
		// newer one.
		select {
		case <-d.fired:
		default:
		}
	}
}
