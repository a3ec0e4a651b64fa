// Copyright 2021 MatrixOrigin.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package stop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable stopper is not running
	ErrUnavailable = errors.New("stopper is unavailable")
	// ErrStopTimeout some tasks did not exit in time
	ErrStopTimeout = errors.New("waiting for tasks to complete timeout")
)

var (
	defaultWaitStoppedTimeout = time.Minute
)

type state int

const (
	running  = state(0)
	stopping = state(1)
	stopped  = state(2)
)

// Option stopper option
type Option func(*Stopper)

// WithLogger set the logger used to report task lifecycle
func WithLogger(logger *zap.Logger) Option {
	return func(s *Stopper) {
		s.logger = logger
	}
}

// Stopper manages the long running goroutines of a server, for example the
// http listener and the metric pusher. Stop cancels every task's context and
// waits for them, returning the names of the tasks that did not exit in time.
type Stopper struct {
	logger *zap.Logger
	stopC  chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.Map // id -> name

	atomic struct {
		lastID    uint64
		taskCount int64
	}

	mu struct {
		sync.RWMutex
		state state
	}
}

// NewStopper create a stopper
func NewStopper(opts ...Option) *Stopper {
	s := &Stopper{
		stopC: make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.mu.state = running
	return s
}

// RunNamedTask runs the task in a new goroutine. The task must return once its
// context is done. ErrUnavailable is returned if the stopper is not running.
func (s *Stopper) RunNamedTask(name string, task func(context.Context)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.mu.state != running {
		return ErrUnavailable
	}

	id := atomic.AddUint64(&s.atomic.lastID, 1)
	s.tasks.Store(id, name)
	atomic.AddInt64(&s.atomic.taskCount, 1)
	go func() {
		defer func() {
			s.tasks.Delete(id)
			atomic.AddInt64(&s.atomic.taskCount, -1)
			s.logger.Debug("task exited", zap.String("task", name))
		}()

		task(s.ctx)
	}()
	return nil
}

// Stop stops all tasks in the default timeout.
func (s *Stopper) Stop() ([]string, error) {
	return s.StopWithTimeout(defaultWaitStoppedTimeout)
}

// StopWithTimeout stops all tasks in the specified timeout. If some tasks do
// not exit in time, their names are returned with ErrStopTimeout.
func (s *Stopper) StopWithTimeout(timeout time.Duration) ([]string, error) {
	s.mu.Lock()
	state := s.mu.state
	s.mu.state = stopping
	s.mu.Unlock()

	switch state {
	case stopped:
		return nil, nil
	case stopping:
		<-s.stopC
		return s.runningTasks(), nil
	}

	defer func() {
		s.mu.Lock()
		s.mu.state = stopped
		s.mu.Unlock()
		close(s.stopC)
	}()

	s.cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(time.Millisecond * 5)
	defer ticker.Stop()

	for {
		if atomic.LoadInt64(&s.atomic.taskCount) == 0 {
			return nil, nil
		}

		select {
		case <-timer.C:
			names := s.runningTasks()
			s.logger.Warn("tasks did not exit in time", zap.Strings("tasks", names))
			return names, ErrStopTimeout
		case <-ticker.C:
		}
	}
}

func (s *Stopper) runningTasks() []string {
	var tasks []string
	s.tasks.Range(func(key, value interface{}) bool {
		tasks = append(tasks, value.(string))
		return true
	})
	return tasks
}
