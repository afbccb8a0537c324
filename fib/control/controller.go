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

// Package control implements the route synchronization pipeline: snapshots
// received from the path computation publisher are debounced, diffed
// against the installed state and programmed into the forwarding agent,
// with a periodic reconciliation pass as the consistency backstop.
package control

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openfib/fibsync/pkg/log"
	"github.com/openfib/fibsync/pkg/metrics"
	"github.com/openfib/fibsync/pkg/private/serrors"
	"github.com/openfib/fibsync/pkg/route"
	"github.com/openfib/fibsync/private/periodic"
	"github.com/openfib/fibsync/private/worker"
)

// Default tuning values, used when the corresponding Controller field is
// zero.
const (
	DefaultDebounceInterval    = 100 * time.Millisecond
	DefaultMaxDebounceInterval = time.Second
	DefaultSyncInterval        = 10 * time.Second
	DefaultRPCTimeout          = 5 * time.Second
	DefaultRPCAttempts         = 3
	DefaultRPCBackoff          = 100 * time.Millisecond
	DefaultMaxRPCBackoff       = 2 * time.Second
	DefaultPerfHistoryCapacity = 64
)

// Phase is the lifecycle phase of the controller.
type Phase int32

// The controller phases, in order of progression.
const (
	PhaseStopped Phase = iota
	PhaseStarting
	PhaseRunning
	PhaseStopping
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "stopped"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// SnapshotSource delivers snapshots from the path computation publisher.
// Delivery is at-most-once; the reconciler compensates for drops.
type SnapshotSource interface {
	// Updates returns the channel on which snapshots are delivered.
	Updates() <-chan *route.Snapshot
	// Close releases the subscription. The updates channel is closed
	// afterwards.
	Close()
}

// Metrics are the metrics updated by the controller. Nil members are
// not reported.
type Metrics struct {
	UpdatesReceived   metrics.Counter
	UpdatesRejected   metrics.Counter
	PassesProgrammed  metrics.Counter
	PassesFailed      metrics.Counter
	ReconcileRuns     metrics.Counter
	ReconcileFailures metrics.Counter
	AgentCallFailures metrics.Counter
	AgentCallRetries  metrics.Counter
	RoutesInstalled   metrics.Gauge
	PassDuration      metrics.Histogram
}

// Controller owns the synchronization pipeline. All collaborators are
// injected; the zero values of the tuning fields select the defaults
// above. Run blocks until Close is invoked from another goroutine.
//
// The run loop is the single logical writer of the installed state. The
// reconciliation timer only injects triggers into the loop, so a
// reconcile pass can never race with a delta pass.
type Controller struct {
	// NodeID is the identifier of the node this pipeline programs routes
	// for. Snapshots owned by other nodes are rejected.
	NodeID string
	// Source delivers computed snapshots. Must not be nil.
	Source SnapshotSource
	// Agent is the forwarding agent programming interface. May only be
	// nil in dryrun mode.
	Agent Agent
	// Dryrun disables live programming; deltas are validated, logged and
	// applied to the in-memory state only.
	Dryrun bool

	// DebounceDisabled bypasses the debouncer entirely.
	DebounceDisabled bool
	// DebounceInterval is the quiet period of a debounce window.
	DebounceInterval time.Duration
	// MaxDebounceInterval bounds the lifetime of a debounce window.
	MaxDebounceInterval time.Duration

	// PeriodicSync enables the reconciler.
	PeriodicSync bool
	// SyncInterval is the reconciliation period.
	SyncInterval time.Duration
	// WaitOnInitialSync makes Run complete its setup only after the first
	// full sync with the agent succeeded.
	WaitOnInitialSync bool

	// RPCTimeout bounds each individual agent call.
	RPCTimeout time.Duration
	// RPCAttempts is the attempt ceiling per agent call.
	RPCAttempts int
	// RPCBackoff is the initial retry backoff, doubled per attempt up to
	// MaxRPCBackoff.
	RPCBackoff    time.Duration
	MaxRPCBackoff time.Duration

	// PerfHistoryCapacity is the number of per-pass traces retained.
	PerfHistoryCapacity int

	// Metrics are the controller metrics.
	Metrics Metrics

	phase       atomic.Int32
	initOnce    sync.Once
	state       *State
	lastGood    *route.Snapshot
	perf        *perfRecorder
	debouncer   *Debouncer
	programmer  *programmer
	syncRunner  *periodic.Runner
	reconcile   chan struct{}
	runFinished chan struct{}
	workerBase  worker.Base
}

// Run starts the pipeline and blocks until Close is invoked. It returns an
// error if the configuration is invalid or, with WaitOnInitialSync set, if
// the initial sync fails.
func (c *Controller) Run(ctx context.Context) error {
	return c.workerBase.RunWrapper(ctx, c.setup, c.run)
}

// Close stops the pipeline. It is idempotent and safe to invoke
// concurrently with an in-flight pass: the pass finishes (or is abandoned
// at its attempt ceiling) before Close returns.
func (c *Controller) Close(ctx context.Context) error {
	return c.workerBase.CloseWrapper(ctx, c.close)
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	return Phase(c.phase.Load())
}

// RouteSnapshot returns a point-in-time copy of the installed state,
// ordered by prefix. Safe to invoke concurrently with Run.
func (c *Controller) RouteSnapshot() *route.Snapshot {
	c.ensureInitialized()
	return c.state.Snapshot(c.NodeID)
}

// PerfHistory returns a copy of the recorded per-pass traces, oldest
// first. Safe to invoke concurrently with Run.
func (c *Controller) PerfHistory() []PerfTrace {
	c.ensureInitialized()
	return c.perf.history()
}

// ensureInitialized publishes the query-surface state. Both the run
// goroutine and external query callers go through the same Once, which
// gives the readers a happens-before edge on the created pointers.
func (c *Controller) ensureInitialized() {
	c.initOnce.Do(func() {
		c.initDefaults()
		c.state = NewState()
		c.perf = newPerfRecorder(c.PerfHistoryCapacity)
		c.debouncer = &Debouncer{
			Interval:    c.DebounceInterval,
			MaxInterval: c.MaxDebounceInterval,
		}
		c.reconcile = make(chan struct{}, 1)
		c.runFinished = make(chan struct{})
	})
}

func (c *Controller) setup(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}
	c.phase.Store(int32(PhaseStarting))
	c.ensureInitialized()

	c.programmer = &programmer{
		agent:       c.Agent,
		dryrun:      c.Dryrun,
		attempts:    c.RPCAttempts,
		backoff:     c.RPCBackoff,
		maxBackoff:  c.MaxRPCBackoff,
		callTimeout: c.RPCTimeout,
		rpcFailures: c.Metrics.AgentCallFailures,
		rpcRetries:  c.Metrics.AgentCallRetries,
	}

	if c.WaitOnInitialSync {
		if err := c.initialSync(ctx); err != nil {
			// The run loop never starts, release anyone waiting in Close.
			close(c.runFinished)
			c.phase.Store(int32(PhaseStopped))
			return serrors.Wrap("initial sync", err)
		}
	} else {
		c.triggerReconcile()
	}
	return nil
}

func (c *Controller) validate() error {
	if c.NodeID == "" {
		return serrors.New("node ID must not be empty")
	}
	if c.Source == nil {
		return serrors.New("snapshot source must not be nil")
	}
	if c.Agent == nil && !c.Dryrun {
		return serrors.New("agent must not be nil in live mode")
	}
	return nil
}

func (c *Controller) initDefaults() {
	if c.DebounceInterval == 0 {
		c.DebounceInterval = DefaultDebounceInterval
	}
	if c.MaxDebounceInterval == 0 {
		c.MaxDebounceInterval = DefaultMaxDebounceInterval
	}
	if c.SyncInterval == 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.RPCTimeout == 0 {
		c.RPCTimeout = DefaultRPCTimeout
	}
	if c.RPCAttempts == 0 {
		c.RPCAttempts = DefaultRPCAttempts
	}
	if c.RPCBackoff == 0 {
		c.RPCBackoff = DefaultRPCBackoff
	}
	if c.MaxRPCBackoff == 0 {
		c.MaxRPCBackoff = DefaultMaxRPCBackoff
	}
	if c.PerfHistoryCapacity == 0 {
		c.PerfHistoryCapacity = DefaultPerfHistoryCapacity
	}
}

func (c *Controller) run(ctx context.Context) error {
	defer close(c.runFinished)
	logger := log.FromCtx(ctx)

	if c.PeriodicSync {
		c.syncRunner = periodic.Start(
			reconcileTask{trigger: c.triggerReconcile},
			periodic.NewTicker(c.SyncInterval),
			c.SyncInterval,
		)
	}
	c.phase.Store(int32(PhaseRunning))
	logger.Info("Pipeline running", "node_id", c.NodeID, "dryrun", c.Dryrun)

	updates := c.Source.Updates()
	for {
		select {
		case <-c.workerBase.GetDoneChan():
			return nil
		case snapshot, ok := <-updates:
			if !ok {
				// The subscription is gone. Keep serving the installed
				// state; the source re-establishes delivery on its own.
				updates = nil
				continue
			}
			c.handleSnapshot(ctx, snapshot)
		case u := <-c.debouncer.Updates():
			c.program(ctx, u)
		case <-c.reconcile:
			c.runReconcile(ctx)
		}
	}
}

func (c *Controller) close(ctx context.Context) error {
	c.phase.Store(int32(PhaseStopping))
	if c.syncRunner != nil {
		c.syncRunner.Kill()
	}
	if c.Source != nil {
		c.Source.Close()
	}
	if c.debouncer != nil {
		c.debouncer.Close()
	}
	if c.runFinished != nil {
		select {
		case <-c.runFinished:
		case <-ctx.Done():
			return serrors.Wrap("waiting for run loop", ctx.Err())
		}
	}
	c.phase.Store(int32(PhaseStopped))
	return nil
}

// handleSnapshot validates an incoming snapshot and hands it to the
// debouncer. Malformed snapshots are dropped with no pipeline effect.
func (c *Controller) handleSnapshot(ctx context.Context, snapshot *route.Snapshot) {
	logger := log.FromCtx(ctx)
	metrics.CounterInc(c.Metrics.UpdatesReceived)

	if snapshot.NodeID != c.NodeID {
		metrics.CounterInc(c.Metrics.UpdatesRejected)
		logger.Info("Rejecting snapshot for foreign node", "node_id", snapshot.NodeID)
		return
	}
	if err := snapshot.Validate(); err != nil {
		metrics.CounterInc(c.Metrics.UpdatesRejected)
		logger.Info("Rejecting malformed snapshot", "err", err)
		return
	}
	u := &Update{Snapshot: snapshot.Copy(), trace: &PerfTrace{}}
	u.trace.stamp(PerfRouteReceived)
	c.lastGood = u.Snapshot

	if c.DebounceDisabled {
		u.trace.stamp(PerfDebounceFired)
		c.program(ctx, u)
		return
	}
	c.debouncer.Notify(u)
}

// program runs one delta pass: diff against the installed state, apply
// through the programmer, stamp and finalize the perf trace.
func (c *Controller) program(ctx context.Context, u *Update) {
	logger := log.FromCtx(ctx)
	if !c.DebounceDisabled {
		u.trace.stamp(PerfDebounceFired)
	}
	delta := Diff(c.state, u.Snapshot)
	if delta.Empty() {
		logger.Debug("Snapshot already installed", "routes", len(u.Snapshot.Routes))
		c.perf.finalize(u.trace)
		return
	}
	if err := c.programmer.apply(ctx, c.state, delta); err != nil {
		// The state reflects exactly the confirmed calls; the next pass
		// or the reconciler re-derives the remainder.
		metrics.CounterInc(c.Metrics.PassesFailed)
		logger.Error("Programming pass abandoned", "delta", delta, "err", err)
		return
	}
	u.trace.stamp(PerfRoutesProgrammed)
	c.perf.finalize(u.trace)
	metrics.CounterInc(c.Metrics.PassesProgrammed)
	metrics.GaugeSet(c.Metrics.RoutesInstalled, float64(c.state.Len()))
	metrics.HistogramObserve(c.Metrics.PassDuration, u.trace.duration().Seconds())
	logger.Debug("Programming pass complete", "delta", delta)
}

func (c *Controller) triggerReconcile() {
	select {
	case c.reconcile <- struct{}{}:
	default:
	}
}
