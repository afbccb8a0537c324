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
	"net/netip"
	"sync"

	"github.com/openfib/fibsync/pkg/route"
)

// State is the pipeline's belief of what is currently installed in the
// forwarding agent. It is mutated only after a confirmed agent call (or
// optimistically in dryrun mode); queries obtain point-in-time copies.
type State struct {
	mtx    sync.RWMutex
	routes map[netip.Prefix]route.UnicastRoute
}

// NewState returns an empty state.
func NewState() *State {
	return &State{routes: make(map[netip.Prefix]route.UnicastRoute)}
}

// Len returns the number of installed prefixes.
func (s *State) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.routes)
}

// Route returns the installed route for the prefix, if any.
func (s *State) Route(prefix netip.Prefix) (route.UnicastRoute, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	r, ok := s.routes[prefix]
	return r, ok
}

// Snapshot returns a deep copy of the state as a snapshot ordered by
// prefix.
func (s *State) Snapshot(nodeID string) *route.Snapshot {
	s.mtx.RLock()
	snapshot := &route.Snapshot{
		NodeID: nodeID,
		Routes: make([]route.UnicastRoute, 0, len(s.routes)),
	}
	for _, r := range s.routes {
		snapshot.Routes = append(snapshot.Routes, r.Copy())
	}
	s.mtx.RUnlock()
	snapshot.SortByPrefix()
	return snapshot
}

func (s *State) prefixes() []netip.Prefix {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	prefixes := make([]netip.Prefix, 0, len(s.routes))
	for p := range s.routes {
		prefixes = append(prefixes, p)
	}
	return prefixes
}

// upsert installs the routes, overwriting existing entries.
func (s *State) upsert(routes []route.UnicastRoute) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, r := range routes {
		s.routes[r.Prefix] = r.Copy()
	}
}

// remove deletes the given prefixes. Unknown prefixes are ignored.
func (s *State) remove(prefixes []netip.Prefix) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, p := range prefixes {
		delete(s.routes, p)
	}
}

// replace swaps the entire contents for the given routes.
func (s *State) replace(routes []route.UnicastRoute) {
	next := make(map[netip.Prefix]route.UnicastRoute, len(routes))
	for _, r := range routes {
		next[r.Prefix] = r.Copy()
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.routes = next
}

// replaceFrom swaps the entire contents for a copy of the other state.
func (s *State) replaceFrom(other *State) {
	other.mtx.RLock()
	next := make(map[netip.Prefix]route.UnicastRoute, len(other.routes))
	for p, r := range other.routes {
		next[p] = r.Copy()
	}
	other.mtx.RUnlock()

	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.routes = next
}
