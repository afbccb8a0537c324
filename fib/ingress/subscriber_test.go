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

package ingress_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openfib/fibsync/fib/ingress"
)

func TestRunValidation(t *testing.T) {
	testCases := map[string]*ingress.Subscriber{
		"missing channel": {
			Addr: "127.0.0.1:6379",
		},
		"missing address": {
			Channel: "fib.routes.node-1",
		},
	}
	for name, s := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Run(context.Background()))
		})
	}
}

func TestCloseBeforeRun(t *testing.T) {
	s := &ingress.Subscriber{Addr: "127.0.0.1:6379", Channel: "fib.routes.node-1"}
	assert.NotPanics(t, s.Close)
	// Run after close is a no-op and must not subscribe.
	assert.NoError(t, s.Run(context.Background()))
}

func TestDoubleRunRejected(t *testing.T) {
	s := &ingress.Subscriber{}
	_ = s.Run(context.Background())
	assert.Error(t, s.Run(context.Background()))
}
