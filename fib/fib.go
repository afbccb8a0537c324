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

// Package fib wires the route synchronization pipeline together: the
// ingress subscription, the controller, the forwarding agent client and
// the management API.
package fib

import (
	"context"
	"net/http"
	"time"

	"github.com/openfib/fibsync/fib/agent"
	"github.com/openfib/fibsync/fib/config"
	"github.com/openfib/fibsync/fib/control"
	"github.com/openfib/fibsync/fib/ingress"
	"github.com/openfib/fibsync/fib/mgmtapi"
	"github.com/openfib/fibsync/pkg/log"
	"github.com/openfib/fibsync/pkg/private/serrors"
)

// Service is the assembled synchronization service.
type Service struct {
	// Config is the validated service configuration. Must not be nil.
	Config *config.Config
	// Metrics are the service metrics. If nil, no metrics are reported.
	Metrics *Metrics

	controller *control.Controller
	subscriber *ingress.Subscriber
	apiServer  *http.Server
}

// Run assembles and starts all components. It blocks until Close is
// invoked or a component fails to start.
func (s *Service) Run(ctx context.Context) error {
	cfg := s.Config
	m := s.Metrics
	if m == nil {
		m = &Metrics{}
	}

	s.subscriber = &ingress.Subscriber{
		Addr:    cfg.Ingress.Addr,
		Channel: cfg.Ingress.Channel,
		Metrics: m.Ingress,
	}
	if err := s.subscriber.Run(ctx); err != nil {
		return serrors.Wrap("starting ingress subscriber", err)
	}

	var agentClient control.Agent
	if cfg.Agent.Addr != "" {
		agentClient = &agent.Client{BaseURL: cfg.Agent.Addr}
	}
	s.controller = &control.Controller{
		NodeID:              cfg.Fib.NodeID,
		Source:              s.subscriber,
		Agent:               agentClient,
		Dryrun:              cfg.Fib.Dryrun,
		DebounceDisabled:    cfg.Fib.DebounceDisabled,
		DebounceInterval:    cfg.Fib.DebounceInterval.Duration,
		MaxDebounceInterval: cfg.Fib.MaxDebounceInterval.Duration,
		PeriodicSync:        cfg.Fib.PeriodicSync,
		SyncInterval:        cfg.Fib.SyncInterval.Duration,
		WaitOnInitialSync:   cfg.Fib.WaitOnInitialSync,
		RPCTimeout:          cfg.Agent.Timeout.Duration,
		RPCAttempts:         cfg.Agent.Attempts,
		PerfHistoryCapacity: cfg.Fib.PerfHistoryCapacity,
		Metrics:             m.Controller,
	}

	if cfg.API.Addr != "" {
		api := &mgmtapi.Server{Pipeline: s.controller}
		s.apiServer = &http.Server{
			Addr:    cfg.API.Addr,
			Handler: api.Router(),
		}
		go func() {
			defer log.HandlePanic()
			if err := s.apiServer.ListenAndServe(); err != nil &&
				err != http.ErrServerClosed {

				log.Error("Management API server failed", "err", err)
			}
		}()
		log.Info("Management API listening", "addr", cfg.API.Addr)
	}

	return s.controller.Run(ctx)
}

// Close shuts the service down. The controller closes the ingress
// subscription on its way out.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	if s.apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := s.apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, serrors.Wrap("shutting down management API", err))
		}
	}
	if s.controller != nil {
		if err := s.controller.Close(ctx); err != nil {
			errs = append(errs, serrors.Wrap("stopping controller", err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
