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

// Package route contains the routing model exchanged between the path
// computation publisher, the synchronization pipeline and the forwarding
// agent. A Snapshot is the full set of desired routes for one node at one
// point in time; it is treated as immutable once it enters the pipeline.
package route

import (
	"fmt"
	"net/netip"
	"sort"

	"github.com/openfib/fibsync/pkg/private/serrors"
)

// NextHop is one egress path of a unicast route.
type NextHop struct {
	// Interface is the name of the egress interface.
	Interface string `json:"interface"`
	// Addr is the next hop address.
	Addr netip.Addr `json:"addr"`
	// Weight is the optional unequal-cost load balancing weight. Zero
	// means unweighted.
	Weight uint32 `json:"weight,omitempty"`
}

func (n NextHop) String() string {
	if n.Weight == 0 {
		return fmt.Sprintf("%s dev %s", n.Addr, n.Interface)
	}
	return fmt.Sprintf("%s dev %s weight %d", n.Addr, n.Interface, n.Weight)
}

// UnicastRoute is a destination prefix together with its next hops. The
// next hop order is meaningful for programming, but not for equality.
type UnicastRoute struct {
	Prefix   netip.Prefix `json:"prefix"`
	NextHops []NextHop    `json:"next_hops"`
}

// Copy returns a deep copy of the route.
func (r UnicastRoute) Copy() UnicastRoute {
	nhs := make([]NextHop, len(r.NextHops))
	copy(nhs, r.NextHops)
	return UnicastRoute{Prefix: r.Prefix, NextHops: nhs}
}

// SameNextHops reports whether both routes have the same set of next
// hops. Order is insignificant, multiplicity is not.
func (r UnicastRoute) SameNextHops(other UnicastRoute) bool {
	if len(r.NextHops) != len(other.NextHops) {
		return false
	}
	counts := make(map[NextHop]int, len(r.NextHops))
	for _, nh := range r.NextHops {
		counts[nh]++
	}
	for _, nh := range other.NextHops {
		counts[nh]--
		if counts[nh] < 0 {
			return false
		}
	}
	return true
}

// Snapshot is a complete description of the desired routes of one node.
type Snapshot struct {
	// NodeID identifies the node the routes were computed for.
	NodeID string `json:"node_id"`
	// Routes is the ordered list of desired unicast routes.
	Routes []UnicastRoute `json:"routes"`
}

// Validate checks the structural invariants of the snapshot: prefixes must
// be valid and unique, and every route must have at least one valid next
// hop.
func (s *Snapshot) Validate() error {
	seen := make(map[netip.Prefix]struct{}, len(s.Routes))
	for _, r := range s.Routes {
		if !r.Prefix.IsValid() {
			return serrors.New("invalid prefix", "prefix", r.Prefix)
		}
		if _, ok := seen[r.Prefix]; ok {
			return serrors.New("duplicate prefix", "prefix", r.Prefix)
		}
		seen[r.Prefix] = struct{}{}
		if len(r.NextHops) == 0 {
			return serrors.New("route without next hops", "prefix", r.Prefix)
		}
		for _, nh := range r.NextHops {
			if !nh.Addr.IsValid() {
				return serrors.New("invalid next hop address",
					"prefix", r.Prefix, "interface", nh.Interface)
			}
		}
	}
	return nil
}

// Copy returns a deep copy of the snapshot.
func (s *Snapshot) Copy() *Snapshot {
	if s == nil {
		return nil
	}
	routes := make([]UnicastRoute, 0, len(s.Routes))
	for _, r := range s.Routes {
		routes = append(routes, r.Copy())
	}
	return &Snapshot{NodeID: s.NodeID, Routes: routes}
}

// SortByPrefix orders the routes by prefix. Used when a deterministic
// order is required, e.g. in query responses.
func (s *Snapshot) SortByPrefix() {
	sort.Slice(s.Routes, func(i, j int) bool {
		a, b := s.Routes[i].Prefix, s.Routes[j].Prefix
		if c := a.Addr().Compare(b.Addr()); c != 0 {
			return c < 0
		}
		return a.Bits() < b.Bits()
	})
}
