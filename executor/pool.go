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

package executor

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/metric"
	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// PoolOption pool option
type PoolOption func(*poolOptions)

type poolOptions struct {
	logger *zap.Logger
	expiry time.Duration
}

// WithPoolLogger set the logger of the pool
func WithPoolLogger(logger *zap.Logger) PoolOption {
	return func(opts *poolOptions) {
		opts.logger = logger
	}
}

// WithExpiryDuration set the duration after which idle workers are cleaned
func WithExpiryDuration(expiry time.Duration) PoolOption {
	return func(opts *poolOptions) {
		opts.expiry = expiry
	}
}

// Pool is the shared bounded worker pool. It never queues: a submission that
// finds every worker busy is rejected.
type Pool struct {
	// busy counts the workers running a task, ants counts idle workers as
	// running until they expire.
	busy   int64
	logger *zap.Logger
	pool   *ants.Pool
}

// NewPool creates a pool with size workers
func NewPool(size int, opts ...PoolOption) (*Pool, error) {
	o := &poolOptions{}
	for _, opt := range opts {
		opt(o)
	}
	logger := log.Adjust(o.logger).Named("pool")

	antsOpts := []ants.Option{
		ants.WithNonblocking(true),
		ants.WithLogger(antsLogger{logger: logger}),
		ants.WithPanicHandler(func(v interface{}) {
			logger.Error("task panic", zap.Any("panic", v), zap.Stack("stack"))
		}),
	}
	if o.expiry > 0 {
		antsOpts = append(antsOpts, ants.WithExpiryDuration(o.expiry))
	}

	pool, err := ants.NewPool(size, antsOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "create worker pool with %d workers", size)
	}

	logger.Info("worker pool created", zap.Int("capacity", size))
	return &Pool{logger: logger, pool: pool}, nil
}

// Execute submits the task. The returned error is marked with
// sqlerror.ErrRejected if the pool is saturated or released.
func (p *Pool) Execute(task func()) error {
	busy := atomic.AddInt64(&p.busy, 1)
	err := p.pool.Submit(func() {
		defer atomic.AddInt64(&p.busy, -1)
		task()
	})
	if err == nil {
		metric.SetRunningWorkers(int(busy))
		return nil
	}

	atomic.AddInt64(&p.busy, -1)

	if errors.Is(err, ants.ErrPoolOverload) || errors.Is(err, ants.ErrPoolClosed) {
		metric.IncRejectionCount()
		return sqlerror.Rejected(err)
	}
	return err
}

// AvailableWorkers returns max(Cap() - Running(), 1). The value is read from
// the pool on every call.
func (p *Pool) AvailableWorkers() int {
	n := p.pool.Cap() - p.Running()
	if n < 1 {
		n = 1
	}
	metric.SetAvailableWorkers(n)
	return n
}

// Running returns the number of workers running a task
func (p *Pool) Running() int {
	return int(atomic.LoadInt64(&p.busy))
}

// Cap returns the capacity of the pool
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Release closes the pool, running tasks are not interrupted
func (p *Pool) Release() {
	p.pool.Release()
	p.logger.Info("worker pool released")
}

type antsLogger struct {
	logger *zap.Logger
}

func (l antsLogger) Printf(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}
