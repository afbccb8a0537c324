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

// Package agenttest provides an in-memory forwarding agent for tests. It
// implements the same programming capability set as the real agent, records
// every call and supports failure injection.
package agenttest

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/openfib/fibsync/pkg/route"
)

// Agent is an in-memory forwarding agent.
type Agent struct {
	mtx    sync.Mutex
	routes map[netip.Prefix]route.UnicastRoute
	err    error

	addOrUpdateCalls int
	deleteCalls      int
	syncCalls        int
	listCalls        int

	updated chan struct{}
	synced  chan struct{}
}

// New returns an empty agent.
func New() *Agent {
	return &Agent{
		routes:  make(map[netip.Prefix]route.UnicastRoute),
		updated: make(chan struct{}, 128),
		synced:  make(chan struct{}, 128),
	}
}

// SetError makes every subsequent call fail with err until reset with nil.
func (a *Agent) SetError(err error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.err = err
}

// AddOrUpdateRoutes installs or overwrites the given routes.
func (a *Agent) AddOrUpdateRoutes(ctx context.Context,
	routes []route.UnicastRoute) error {

	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.addOrUpdateCalls++
	if a.err != nil {
		return a.err
	}
	for _, r := range routes {
		a.routes[r.Prefix] = r.Copy()
	}
	a.notifyLocked(a.updated)
	return nil
}

// DeleteRoutes removes the routes for the given prefixes.
func (a *Agent) DeleteRoutes(ctx context.Context, prefixes []netip.Prefix) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.deleteCalls++
	if a.err != nil {
		return a.err
	}
	for _, p := range prefixes {
		delete(a.routes, p)
	}
	a.notifyLocked(a.updated)
	return nil
}

// SyncRoutes replaces the agent's entire table.
func (a *Agent) SyncRoutes(ctx context.Context, routes []route.UnicastRoute) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.syncCalls++
	if a.err != nil {
		return a.err
	}
	a.routes = make(map[netip.Prefix]route.UnicastRoute, len(routes))
	for _, r := range routes {
		a.routes[r.Prefix] = r.Copy()
	}
	a.notifyLocked(a.synced)
	return nil
}

// ListRoutes returns the installed routes.
func (a *Agent) ListRoutes(ctx context.Context) ([]route.UnicastRoute, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.listCalls++
	if a.err != nil {
		return nil, a.err
	}
	return a.routesLocked(), nil
}

// Routes returns a copy of the installed routes, ordered by prefix.
func (a *Agent) Routes() []route.UnicastRoute {
	a.mtx.Lock()
	routes := a.routesLocked()
	a.mtx.Unlock()
	s := route.Snapshot{Routes: routes}
	s.SortByPrefix()
	return s.Routes
}

// Len returns the number of installed prefixes.
func (a *Agent) Len() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return len(a.routes)
}

// Calls returns the number of add-or-update, delete, sync and list calls
// observed so far, including failed ones.
func (a *Agent) Calls() (addOrUpdate, del, sync, list int) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.addOrUpdateCalls, a.deleteCalls, a.syncCalls, a.listCalls
}

// WaitForUpdate blocks until an add-or-update or delete call succeeds, or
// the timeout expires. It reports whether a call was observed. Successful
// calls that happened before WaitForUpdate are consumed in order.
func (a *Agent) WaitForUpdate(timeout time.Duration) bool {
	return wait(a.updated, timeout)
}

// WaitForSync is like WaitForUpdate for sync calls.
func (a *Agent) WaitForSync(timeout time.Duration) bool {
	return wait(a.synced, timeout)
}

func (a *Agent) routesLocked() []route.UnicastRoute {
	routes := make([]route.UnicastRoute, 0, len(a.routes))
	for _, r := range a.routes {
		routes = append(routes, r.Copy())
	}
	return routes
}

func (a *Agent) notifyLocked(c chan struct{}) {
	select {
	case c <- struct{}{}:
	default:
	}
}

func wait(c chan struct{}, timeout time.Duration) bool {
	select {
	case <-c:
		return true
	case <-time.After(timeout):
		return false
	}
}
