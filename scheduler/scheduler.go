// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scheduler defines the external batch-scheduler contract the
// dispatcher submits alignment jobs onto. Local is a concrete
// in-process implementation used when no external scheduler is
// configured and by the test suite; it runs each job as an *exec.Cmd.
package scheduler

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"
)

// JobID identifies a submitted job.
type JobID string

// Spec describes one unit of work to submit.
type Spec struct {
	Name    string
	Command func(ctx context.Context) (*exec.Cmd, error)
}

// Scheduler is the contract the job dispatcher places on an
// external batch scheduler: submit jobs, then block until every
// submitted job has ended.
type Scheduler interface {
	Submit(ctx context.Context, job Spec) (JobID, error)
	WaitAll(ctx context.Context, ids []JobID) error
	Cancel(ctx context.Context, ids []JobID) error
}

// Local runs jobs as local subprocesses, one goroutine per job, waiting
// for all of them with golang.org/x/sync/errgroup — the in-process
// stand-in for an external scheduler's wait-for-all barrier.
type Local struct {
	mu     sync.Mutex
	jobs   map[JobID]*exec.Cmd
	cancel map[JobID]context.CancelFunc
	next   int
}

// NewLocal returns a ready-to-use Local scheduler.
func NewLocal() *Local {
	return &Local{
		jobs:   make(map[JobID]*exec.Cmd),
		cancel: make(map[JobID]context.CancelFunc),
	}
}

// Submit starts job.Command immediately in the background and returns
// its JobID. A failure to construct or start the command is returned
// immediately — the dispatcher turns this into a SchedulerFailure
// warning, never a fatal error.
func (l *Local) Submit(ctx context.Context, job Spec) (JobID, error) {
	jobCtx, cancel := context.WithCancel(ctx)
	cmd, err := job.Command(jobCtx)
	if err != nil {
		cancel()
		return "", fmt.Errorf("scheduler: building command for %s: %w", job.Name, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return "", fmt.Errorf("scheduler: starting %s: %w", job.Name, err)
	}

	l.mu.Lock()
	l.next++
	id := JobID(fmt.Sprintf("local-%d-%s", l.next, job.Name))
	l.jobs[id] = cmd
	l.cancel[id] = cancel
	l.mu.Unlock()

	return id, nil
}

// WaitAll blocks until every named job has ended. It does not return
// until every job has reported "ended"; a per-job failure is reported
// but does not stop the other waits.
func (l *Local) WaitAll(ctx context.Context, ids []JobID) error {
	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			l.mu.Lock()
			cmd, ok := l.jobs[id]
			cancel := l.cancel[id]
			l.mu.Unlock()
			if !ok {
				return fmt.Errorf("scheduler: unknown job %s", id)
			}
			defer cancel()
			return cmd.Wait()
		})
	}
	return g.Wait()
}

// Cancel attempts to terminate every named job that is still running
// by cancelling its context; unknown ids are skipped. Cancellation is
// best-effort and reports no per-job errors.
func (l *Local) Cancel(ctx context.Context, ids []JobID) error {
	var errs []error
	for _, id := range ids {
		l.mu.Lock()
		cancel, ok := l.cancel[id]
		l.mu.Unlock()
		if !ok {
			continue
		}
		cancel()
	}
	if len(errs) > 0 {
		return fmt.Errorf("scheduler: cancel errors: %v", errs)
	}
	return nil
}
