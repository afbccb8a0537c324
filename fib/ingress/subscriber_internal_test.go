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

package ingress

import (
	"context"
	"encoding/json"
	"net/netip"
	"sync/atomic"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfib/fibsync/pkg/metrics"
	"github.com/openfib/fibsync/pkg/route"
)

type testCounter struct {
	value atomic.Int64
}

func (c *testCounter) Add(delta float64) {
	c.value.Add(int64(delta))
}

func (c *testCounter) With(labelValues ...string) metrics.Counter {
	return c
}

func TestConsumeDecodesAndForwards(t *testing.T) {
	received := &testCounter{}
	decodeErrors := &testCounter{}
	s := &Subscriber{
		Channel: "fib.routes.node-1",
		Metrics: Metrics{
			MessagesReceived: received,
			DecodeErrors:     decodeErrors,
		},
		updates: make(chan *route.Snapshot, updatesBufferSize),
	}

	want := &route.Snapshot{
		NodeID: "node-1",
		Routes: []route.UnicastRoute{
			{
				Prefix: netip.MustParsePrefix("10.1.0.0/24"),
				NextHops: []route.NextHop{
					{Interface: "eth0", Addr: netip.MustParseAddr("10.0.0.1")},
				},
			},
		},
	}
	raw, err := json.Marshal(want)
	require.NoError(t, err)

	messages := make(chan *redis.Message, 3)
	messages <- &redis.Message{Channel: s.Channel, Payload: "this is not json {"}
	messages <- &redis.Message{Channel: s.Channel, Payload: string(raw)}
	close(messages)

	go s.consume(context.Background(), messages)

	var delivered []*route.Snapshot
	for snapshot := range s.Updates() {
		delivered = append(delivered, snapshot)
	}
	require.Len(t, delivered, 1, "the undecodable payload must be dropped")
	assert.Equal(t, want, delivered[0])
	assert.Equal(t, int64(2), received.value.Load())
	assert.Equal(t, int64(1), decodeErrors.value.Load())
}

func TestConsumeClosesUpdatesWhenDrained(t *testing.T) {
	s := &Subscriber{updates: make(chan *route.Snapshot, 1)}
	messages := make(chan *redis.Message)
	close(messages)
	s.consume(context.Background(), messages)

	_, ok := <-s.Updates()
	assert.False(t, ok, "updates must be closed once the subscription is gone")
}
