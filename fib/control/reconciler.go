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
	"context"

	"github.com/openfib/fibsync/pkg/log"
	"github.com/openfib/fibsync/pkg/metrics"
	"github.com/openfib/fibsync/pkg/route"
)

// initialSync bulk-replaces the agent's table with the last known desired
// routes (empty at first start) so that the agent's state is trustworthy
// before the pipeline starts serving.
func (c *Controller) initialSync(ctx context.Context) error {
	var routes []route.UnicastRoute
	if c.lastGood != nil {
		routes = c.lastGood.Routes
	}
	if err := c.programmer.syncAll(ctx, c.state, routes); err != nil {
		return err
	}
	metrics.GaugeSet(c.Metrics.RoutesInstalled, float64(c.state.Len()))
	return nil
}

// runReconcile performs a full resync: it reads the agent's installed
// table, diffs the last known good snapshot against that ground truth and
// programs the difference. This corrects drift from missed updates, agent
// restarts and abandoned passes.
func (c *Controller) runReconcile(ctx context.Context) {
	logger := log.FromCtx(ctx)
	metrics.CounterInc(c.Metrics.ReconcileRuns)

	desired := c.lastGood
	if desired == nil {
		desired = &route.Snapshot{NodeID: c.NodeID}
	}
	if c.Dryrun {
		c.state.replace(desired.Routes)
		metrics.GaugeSet(c.Metrics.RoutesInstalled, float64(c.state.Len()))
		return
	}
	installed, err := c.programmer.listRoutes(ctx)
	if err != nil {
		metrics.CounterInc(c.Metrics.ReconcileFailures)
		logger.Error("Reconciliation abandoned, agent unreachable", "err", err)
		return
	}
	truth := NewState()
	truth.replace(installed)
	delta := Diff(truth, desired)
	if err := c.programmer.apply(ctx, truth, delta); err != nil {
		metrics.CounterInc(c.Metrics.ReconcileFailures)
		logger.Error("Reconciliation pass abandoned", "delta", delta, "err", err)
		// Keep what the agent confirmed, it is still the best estimate.
		c.state.replaceFrom(truth)
		return
	}
	c.state.replaceFrom(truth)
	metrics.GaugeSet(c.Metrics.RoutesInstalled, float64(c.state.Len()))
	if !delta.Empty() {
		logger.Info("Reconciliation corrected drift", "delta", delta)
	}
}

// reconcileTask adapts the reconcile trigger to the periodic runner. The
// actual pass runs serialized on the controller's run loop.
type reconcileTask struct {
	trigger func()
}

func (t reconcileTask) Run(ctx context.Context) {
	t.trigger()
}

func (t reconcileTask) Name() string {
	return "fib_reconciler"
}
