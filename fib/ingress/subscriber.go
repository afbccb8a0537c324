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

// Package ingress subscribes to the pub/sub channel on which the path
// computation component publishes route snapshots. Delivery is
// at-most-once: there is no acknowledgment, decode failures are dropped,
// and a lost connection loses the messages published while it is
// re-established. The pipeline's periodic reconciliation compensates.
package ingress

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/openfib/fibsync/pkg/log"
	"github.com/openfib/fibsync/pkg/metrics"
	"github.com/openfib/fibsync/pkg/private/serrors"
	"github.com/openfib/fibsync/pkg/route"
	"github.com/openfib/fibsync/private/worker"
)

const updatesBufferSize = 16

// Metrics are the metrics updated by the subscriber. Nil members are not
// reported.
type Metrics struct {
	MessagesReceived metrics.Counter
	DecodeErrors     metrics.Counter
}

// Subscriber receives serialized snapshots over a redis pub/sub channel
// and implements control.SnapshotSource. The underlying client
// re-establishes a dropped subscription on its own; until it does, the
// pipeline keeps serving its installed state.
type Subscriber struct {
	// Addr is the address of the broker, e.g. "127.0.0.1:6379". Ignored
	// if Client is set.
	Addr string
	// Channel is the pub/sub channel to subscribe to.
	Channel string
	// Client is an optional pre-configured client, used by tests.
	Client *redis.Client
	// Metrics are the subscriber metrics.
	Metrics Metrics

	pubsub     *redis.PubSub
	updates    chan *route.Snapshot
	workerBase worker.Base
}

// Run subscribes and consumes messages until Close is invoked. It returns
// once the subscription is established and the consuming goroutine is up.
func (s *Subscriber) Run(ctx context.Context) error {
	return s.workerBase.RunWrapper(ctx, s.setup, s.run)
}

func (s *Subscriber) setup(ctx context.Context) error {
	if s.Channel == "" {
		return serrors.New("channel must not be empty")
	}
	if s.Client == nil {
		if s.Addr == "" {
			return serrors.New("broker address must not be empty")
		}
		s.Client = redis.NewClient(&redis.Options{Addr: s.Addr})
	}
	s.pubsub = s.Client.Subscribe(ctx, s.Channel)
	// Wait for the subscription confirmation so that Run only returns
	// with an established subscription.
	if _, err := s.pubsub.Receive(ctx); err != nil {
		return serrors.Wrap("establishing subscription", err, "channel", s.Channel)
	}
	s.updates = make(chan *route.Snapshot, updatesBufferSize)
	return nil
}

func (s *Subscriber) run(ctx context.Context) error {
	messages := s.pubsub.Channel()
	s.workerBase.WG.Add(1)
	go func() {
		defer log.HandlePanic()
		defer s.workerBase.WG.Done()
		s.consume(ctx, messages)
	}()
	return nil
}

// consume decodes and forwards messages until the channel is drained or
// the subscriber is closed. Undecodable payloads are counted and dropped.
func (s *Subscriber) consume(ctx context.Context, messages <-chan *redis.Message) {
	logger := log.FromCtx(ctx)
	defer close(s.updates)
	for {
		select {
		case <-s.workerBase.GetDoneChan():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			metrics.CounterInc(s.Metrics.MessagesReceived)
			snapshot := &route.Snapshot{}
			if err := json.Unmarshal([]byte(msg.Payload), snapshot); err != nil {
				metrics.CounterInc(s.Metrics.DecodeErrors)
				logger.Info("Dropping undecodable snapshot", "err", err)
				continue
			}
			select {
			case s.updates <- snapshot:
			case <-s.workerBase.GetDoneChan():
				return
			}
		}
	}
}

// Updates returns the channel on which decoded snapshots are delivered.
// The channel is closed when the subscriber shuts down.
func (s *Subscriber) Updates() <-chan *route.Snapshot {
	return s.updates
}

// Close releases the subscription and stops the consuming goroutine.
func (s *Subscriber) Close() {
	_ = s.workerBase.CloseWrapper(context.Background(), func(ctx context.Context) error {
		if s.pubsub != nil {
			if err := s.pubsub.Close(); err != nil {
				log.Info("Closing subscription", "err", err)
			}
		}
		s.workerBase.WG.Wait()
		return nil
	})
}
