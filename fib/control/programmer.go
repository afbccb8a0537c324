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
	"time"

	"github.com/openfib/fibsync/pkg/log"
	"github.com/openfib/fibsync/pkg/metrics"
	"github.com/openfib/fibsync/pkg/private/serrors"
	"github.com/openfib/fibsync/pkg/route"
)

// programmer drives the forwarding agent with batched programming calls.
// Batching keeps the per-call overhead constant regardless of delta size.
// Every agent call gets its own deadline and is retried with bounded
// exponential backoff; once the attempt ceiling is reached the pass is
// abandoned and the state is left exactly as confirmed by the agent.
type programmer struct {
	agent       Agent
	dryrun      bool
	attempts    int
	backoff     time.Duration
	maxBackoff  time.Duration
	callTimeout time.Duration

	rpcFailures metrics.Counter
	rpcRetries  metrics.Counter
}

// apply transforms state by the delta. In dryrun mode no agent call is
// issued and the state is updated optimistically. In live mode the state
// tracks the agent batch by batch: if the upsert batch succeeds but the
// delete batch fails, the state reflects the confirmed upserts only.
func (p *programmer) apply(ctx context.Context, state *State, delta *Delta) error {
	delta.mustBeConsistent()
	if delta.Empty() {
		return nil
	}
	logger := log.FromCtx(ctx)

	upserts := make([]route.UnicastRoute, 0, len(delta.Add)+len(delta.Update))
	upserts = append(upserts, delta.Add...)
	upserts = append(upserts, delta.Update...)

	if p.dryrun {
		logger.Info("Dryrun, skipping agent programming", "delta", delta)
		state.upsert(upserts)
		state.remove(delta.Remove)
		return nil
	}
	if len(upserts) > 0 {
		err := p.call(ctx, "add_or_update", func(callCtx context.Context) error {
			return p.agent.AddOrUpdateRoutes(callCtx, upserts)
		})
		if err != nil {
			return serrors.Wrap("programming route upserts", err,
				"count", len(upserts))
		}
		state.upsert(upserts)
	}
	if len(delta.Remove) > 0 {
		err := p.call(ctx, "delete", func(callCtx context.Context) error {
			return p.agent.DeleteRoutes(callCtx, delta.Remove)
		})
		if err != nil {
			return serrors.Wrap("programming route deletions", err,
				"count", len(delta.Remove))
		}
		state.remove(delta.Remove)
	}
	return nil
}

// syncAll replaces the agent's entire table with the given routes, then
// sets the state accordingly.
func (p *programmer) syncAll(ctx context.Context, state *State,
	routes []route.UnicastRoute) error {

	if p.dryrun {
		log.FromCtx(ctx).Info("Dryrun, skipping agent sync", "routes", len(routes))
		state.replace(routes)
		return nil
	}
	err := p.call(ctx, "sync", func(callCtx context.Context) error {
		return p.agent.SyncRoutes(callCtx, routes)
	})
	if err != nil {
		return serrors.Wrap("syncing routes", err, "count", len(routes))
	}
	state.replace(routes)
	return nil
}

// listRoutes reads the agent's installed table with a bounded deadline.
func (p *programmer) listRoutes(ctx context.Context) ([]route.UnicastRoute, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	return p.agent.ListRoutes(callCtx)
}

func (p *programmer) call(ctx context.Context, op string,
	f func(ctx context.Context) error) error {

	logger := log.FromCtx(ctx)
	backoff := p.backoff
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
		err = f(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		metrics.CounterInc(metrics.CounterWith(p.rpcFailures, "op", op))
		if ctx.Err() != nil {
			// The pipeline is shutting down, don't burn the remaining
			// attempts.
			return err
		}
		if attempt == p.attempts {
			break
		}
		logger.Info("Agent call failed, retrying",
			"op", op, "attempt", attempt, "backoff", backoff, "err", err)
		metrics.CounterInc(metrics.CounterWith(p.rpcRetries, "op", op))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return err
		}
		backoff *= 2
		if backoff > p.maxBackoff {
			backoff = p.maxBackoff
		}
	}
	return serrors.Wrap("attempt ceiling reached", err, "op", op, "attempts", p.attempts)
}
