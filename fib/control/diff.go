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
	"fmt"
	"net/netip"
	"sort"

	"github.com/openfib/fibsync/pkg/route"
)

// Delta is the minimal set of programming operations that transforms the
// installed state into the incoming snapshot. A prefix appears in at most
// one of the three sets; prefixes whose next-hop set is unchanged appear
// in none.
type Delta struct {
	// Add contains routes for prefixes that are not installed yet.
	Add []route.UnicastRoute
	// Update contains routes for installed prefixes whose next-hop set
	// changed.
	Update []route.UnicastRoute
	// Remove contains installed prefixes that are absent from the
	// incoming snapshot.
	Remove []netip.Prefix
}

// Empty reports whether the delta contains no operations.
func (d *Delta) Empty() bool {
	return len(d.Add) == 0 && len(d.Update) == 0 && len(d.Remove) == 0
}

func (d *Delta) String() string {
	return fmt.Sprintf("add=%d update=%d remove=%d",
		len(d.Add), len(d.Update), len(d.Remove))
}

// mustBeConsistent panics if a prefix appears in more than one set. Such a
// delta indicates a bug in the diff computation, not an environmental
// condition, and must never reach the agent.
func (d *Delta) mustBeConsistent() {
	seen := make(map[netip.Prefix]struct{}, len(d.Add)+len(d.Update)+len(d.Remove))
	mark := func(p netip.Prefix) {
		if _, ok := seen[p]; ok {
			panic(fmt.Sprintf("inconsistent delta: prefix %s in multiple sets", p))
		}
		seen[p] = struct{}{}
	}
	for _, r := range d.Add {
		mark(r.Prefix)
	}
	for _, r := range d.Update {
		mark(r.Prefix)
	}
	for _, p := range d.Remove {
		mark(p)
	}
}

// Diff computes the delta between the installed state and an incoming
// snapshot. It is a pure function: no side effects, no I/O. Next-hop
// comparison is set-wise, but the incoming next-hop order is preserved in
// the delta for programming. An incoming snapshot with zero routes yields
// a full withdrawal.
func Diff(state *State, incoming *route.Snapshot) *Delta {
	delta := &Delta{}
	incomingPrefixes := make(map[netip.Prefix]struct{}, len(incoming.Routes))
	for _, r := range incoming.Routes {
		incomingPrefixes[r.Prefix] = struct{}{}
		installed, ok := state.Route(r.Prefix)
		switch {
		case !ok:
			delta.Add = append(delta.Add, r.Copy())
		case !installed.SameNextHops(r):
			delta.Update = append(delta.Update, r.Copy())
		}
	}
	for _, p := range state.prefixes() {
		if _, ok := incomingPrefixes[p]; !ok {
			delta.Remove = append(delta.Remove, p)
		}
	}
	// Removals come from map iteration, order them for deterministic
	// programming calls.
	sort.Slice(delta.Remove, func(i, j int) bool {
		a, b := delta.Remove[i], delta.Remove[j]
		if c := a.Addr().Compare(b.Addr()); c != 0 {
			return c < 0
		}
		return a.Bits() < b.Bits()
	})
	return delta
}
