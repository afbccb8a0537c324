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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfib/fibsync/pkg/route"
)

func testRoute(prefix string, nextHops ...string) route.UnicastRoute {
	r := route.UnicastRoute{Prefix: netip.MustParsePrefix(prefix)}
	for _, nh := range nextHops {
		addr := netip.MustParseAddr(nh)
		r.NextHops = append(r.NextHops, route.NextHop{
			Interface: fmt.Sprintf("eth%d", addr.As4()[3]),
			Addr:      addr,
		})
	}
	return r
}

func TestDiff(t *testing.T) {
	installed := []route.UnicastRoute{
		testRoute("10.1.0.0/24", "10.0.0.1"),
		testRoute("10.2.0.0/24", "10.0.0.1", "10.0.0.2"),
		testRoute("10.3.0.0/24", "10.0.0.3"),
	}
	testCases := map[string]struct {
		incoming []route.UnicastRoute
		expected Delta
	}{
		"identical snapshot yields empty delta": {
			incoming: installed,
			expected: Delta{},
		},
		"new prefix is an add": {
			incoming: append([]route.UnicastRoute{
				testRoute("10.4.0.0/24", "10.0.0.4"),
			}, installed...),
			expected: Delta{
				Add: []route.UnicastRoute{testRoute("10.4.0.0/24", "10.0.0.4")},
			},
		},
		"changed next hops are an update": {
			incoming: []route.UnicastRoute{
				testRoute("10.1.0.0/24", "10.0.0.9"),
				testRoute("10.2.0.0/24", "10.0.0.1", "10.0.0.2"),
				testRoute("10.3.0.0/24", "10.0.0.3"),
			},
			expected: Delta{
				Update: []route.UnicastRoute{testRoute("10.1.0.0/24", "10.0.0.9")},
			},
		},
		"absent prefix is a remove": {
			incoming: installed[:2],
			expected: Delta{
				Remove: []netip.Prefix{netip.MustParsePrefix("10.3.0.0/24")},
			},
		},
		"reordered next hops are not an update": {
			incoming: []route.UnicastRoute{
				testRoute("10.1.0.0/24", "10.0.0.1"),
				testRoute("10.2.0.0/24", "10.0.0.2", "10.0.0.1"),
				testRoute("10.3.0.0/24", "10.0.0.3"),
			},
			expected: Delta{},
		},
		"empty snapshot is a full withdrawal": {
			incoming: nil,
			expected: Delta{
				Remove: []netip.Prefix{
					netip.MustParsePrefix("10.1.0.0/24"),
					netip.MustParsePrefix("10.2.0.0/24"),
					netip.MustParsePrefix("10.3.0.0/24"),
				},
			},
		},
	}
	for name, tc := range testCases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			state := NewState()
			state.upsert(installed)
			delta := Diff(state, &route.Snapshot{NodeID: "node-1", Routes: tc.incoming})
			assert.Equal(t, tc.expected.Add, delta.Add)
			assert.Equal(t, tc.expected.Update, delta.Update)
			assert.Equal(t, tc.expected.Remove, delta.Remove)
			assert.NotPanics(t, delta.mustBeConsistent)
		})
	}
}

func TestDiffPreservesNextHopOrder(t *testing.T) {
	state := NewState()
	incoming := testRoute("10.1.0.0/24", "10.0.0.2", "10.0.0.1")
	delta := Diff(state, &route.Snapshot{Routes: []route.UnicastRoute{incoming}})
	require.Len(t, delta.Add, 1)
	assert.Equal(t, incoming.NextHops, delta.Add[0].NextHops)
}

func TestDiffDoesNotAliasIncoming(t *testing.T) {
	state := NewState()
	incoming := &route.Snapshot{
		Routes: []route.UnicastRoute{testRoute("10.1.0.0/24", "10.0.0.1")},
	}
	delta := Diff(state, incoming)
	require.Len(t, delta.Add, 1)
	incoming.Routes[0].NextHops[0].Interface = "eth9"
	assert.Equal(t, "eth1", delta.Add[0].NextHops[0].Interface)
}

func TestDeltaConsistencyPanics(t *testing.T) {
	delta := &Delta{
		Add:    []route.UnicastRoute{testRoute("10.1.0.0/24", "10.0.0.1")},
		Remove: []netip.Prefix{netip.MustParsePrefix("10.1.0.0/24")},
	}
	assert.Panics(t, delta.mustBeConsistent)
}
