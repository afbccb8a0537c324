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
	"net/netip"

	"github.com/openfib/fibsync/pkg/route"
)

// Agent is the programming interface of the forwarding agent. The real
// agent is driven over RPC; tests substitute an in-memory variant. All
// calls are issued with a bounded context; a call that exceeds its
// deadline counts as failed even if the agent eventually applies it.
type Agent interface {
	// AddOrUpdateRoutes installs or overwrites the given routes.
	AddOrUpdateRoutes(ctx context.Context, routes []route.UnicastRoute) error
	// DeleteRoutes removes the routes for the given prefixes. Unknown
	// prefixes are ignored by the agent.
	DeleteRoutes(ctx context.Context, prefixes []netip.Prefix) error
	// ListRoutes returns the routes currently installed in the agent.
	ListRoutes(ctx context.Context) ([]route.UnicastRoute, error)
	// SyncRoutes replaces the agent's entire table with the given routes.
	SyncRoutes(ctx context.Context, routes []route.UnicastRoute) error
}
