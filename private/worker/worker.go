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

// Package worker contains helpers for working with long-running goroutines
// that need to be stopped from the outside.
package worker

import (
	"context"
	"sync"

	"github.com/openfib/fibsync/pkg/private/serrors"
)

// Base provides run and close lifecycle support for workers. It must not
// be copied after first use. Embed it in the worker implementation and
// dispatch the Run and Close entry points through the wrappers.
type Base struct {
	// WG can be used by workers to wait on internal goroutines during
	// shutdown.
	WG sync.WaitGroup

	mtx         sync.Mutex
	runCalled   bool
	closeCalled bool
	doneChan    chan struct{}
}

// RunWrapper guards the worker's main execution. The setup function is
// invoked first; if it errors, the run function is never called. The run
// function is expected to block until the worker is closed. RunWrapper
// returns an error if it is invoked more than once. If the worker was
// closed before RunWrapper is called, neither callback runs and the return
// value is nil.
func (b *Base) RunWrapper(ctx context.Context,
	setup func(ctx context.Context) error,
	run func(ctx context.Context) error) error {

	b.mtx.Lock()
	if b.runCalled {
		b.mtx.Unlock()
		return serrors.New("worker already started")
	}
	b.runCalled = true
	b.ensureInitializedLocked()
	closed := b.closeCalled
	b.mtx.Unlock()

	if closed {
		return nil
	}
	if setup != nil {
		if err := setup(ctx); err != nil {
			return err
		}
	}
	if run == nil {
		return nil
	}
	return run(ctx)
}

// CloseWrapper guards the worker's shutdown. The close function runs at
// most once, no matter how many times CloseWrapper is invoked. The done
// channel is closed before the close function executes, so a blocked run
// function observes shutdown first.
func (b *Base) CloseWrapper(ctx context.Context,
	closeF func(ctx context.Context) error) error {

	b.mtx.Lock()
	if b.closeCalled {
		b.mtx.Unlock()
		return nil
	}
	b.closeCalled = true
	b.ensureInitializedLocked()
	doneChan := b.doneChan
	b.mtx.Unlock()

	close(doneChan)
	if closeF != nil {
		return closeF(ctx)
	}
	return nil
}

// GetDoneChan returns a channel that is closed once CloseWrapper is
// invoked for the first time.
func (b *Base) GetDoneChan() <-chan struct{} {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.ensureInitializedLocked()
	return b.doneChan
}

func (b *Base) ensureInitializedLocked() {
	if b.doneChan == nil {
		b.doneChan = make(chan struct{})
	}
}
