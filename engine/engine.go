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

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/juju/ratelimit"
	"github.com/matrixorigin/cubesql/backend"
	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/executor"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/storage"
	"github.com/matrixorigin/cubesql/vfs"
	"go.uber.org/zap"
)

const (
	defaultShards          uint32 = 4
	defaultImportBatchSize        = 256
)

// Option engine option
type Option func(*options)

type options struct {
	logger          *zap.Logger
	shards          uint32
	importRate      int64
	importBatchSize int
	fs              vfs.FS
}

// WithLogger set the logger of the engine
func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithShards set the number of shards of new tables
func WithShards(shards uint32) Option {
	return func(opts *options) {
		opts.shards = shards
	}
}

// WithImportRate limits the rows imported per second, 0 is unlimited
func WithImportRate(rowsPerSecond int64) Option {
	return func(opts *options) {
		opts.importRate = rowsPerSecond
	}
}

// WithImportBatchSize set the number of rows written per batch on import
func WithImportBatchSize(size int) Option {
	return func(opts *options) {
		opts.importBatchSize = size
	}
}

// WithFS set the file system imports read from
func WithFS(fs vfs.FS) Option {
	return func(opts *options) {
		opts.fs = fs
	}
}

// Engine is a local backend implementing every port over a KVStorage. Port
// calls run on the worker pool, or on the caller when the pool is saturated.
type Engine struct {
	opts      options
	logger    *zap.Logger
	store     storage.KVStorage
	executor  executor.Executor
	available func() int
	catalog   *catalog
	bucket    *ratelimit.Bucket
	newID     func() string

	// writeMu serializes read-modify-write of documents
	writeMu sync.Mutex
}

// New returns an engine over the storage, work is submitted to the pool
func New(store storage.KVStorage, pool *executor.Pool, opts ...Option) (*Engine, error) {
	e := &Engine{store: store, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&e.opts)
	}
	e.adjust()
	e.logger = log.Adjust(e.opts.logger).Named("engine")
	e.executor = executor.NewFallbackExecutor(pool, e.logger)
	e.available = pool.AvailableWorkers
	if e.opts.importRate > 0 {
		e.bucket = ratelimit.NewBucketWithQuantum(
			time.Second, e.opts.importRate, e.opts.importRate)
	}

	c, err := newCatalog(store)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	e.catalog = c
	e.logger.Info("engine started",
		zap.Int("tables", len(c.tables)),
		zap.Uint32("shards", e.opts.shards))
	return e, nil
}

func (e *Engine) adjust() {
	if e.opts.shards == 0 {
		e.opts.shards = defaultShards
	}
	if e.opts.importBatchSize <= 0 {
		e.opts.importBatchSize = defaultImportBatchSize
	}
	if e.opts.fs == nil {
		e.opts.fs = vfs.Default
	}
}

// PrimaryKey returns the primary key column of the table
func (e *Engine) PrimaryKey(schema, table string) (string, bool) {
	info, err := e.catalog.table(schema, table)
	if err != nil || info.PrimaryKey == "" {
		return "", false
	}
	return info.PrimaryKey, true
}

// Ports returns the ports served by the engine
func (e *Engine) Ports() backend.Ports {
	return backend.Ports{
		Search:            port(e, e.search),
		Index:             port(e, e.index),
		DeleteByQuery:     port(e, e.deleteByQuery),
		Delete:            port(e, e.delete),
		Bulk:              port(e, e.bulk),
		Get:               port(e, e.get),
		MultiGet:          port(e, e.multiGet),
		Update:            port(e, e.update),
		Count:             port(e, e.count),
		CreateIndex:       port(e, e.createIndex),
		DeleteIndex:       port(e, e.deleteIndex),
		ClusterSettings:   port(e, e.clusterSettings),
		Import:            port(e, e.importFiles),
		Distributed:       backend.PortFunc[*backend.DistributedRequest, *response.SQLResponse](e.distributed),
		InformationSchema: port(e, e.informationSchema),
	}
}

// port runs fn on the executor and notifies the listener with its result
func port[Req, Resp any](e *Engine, fn func(Req) (Resp, error)) backend.Port[Req, Resp] {
	return backend.PortFunc[Req, Resp](func(ctx context.Context, req Req, listener response.Listener[Resp]) {
		run(e, ctx, listener, func() (Resp, error) {
			return fn(req)
		})
	})
}

func run[Resp any](e *Engine, ctx context.Context, listener response.Listener[Resp], fn func() (Resp, error)) {
	err := e.executor.Execute(func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("engine task panic", zap.Any("panic", r), zap.Stack("stack"))
				listener.OnFailure(errors.Newf("engine task panic: %v", r))
			}
		}()

		if err := ctx.Err(); err != nil {
			listener.OnFailure(err)
			return
		}
		resp, err := fn()
		if err != nil {
			listener.OnFailure(err)
			return
		}
		listener.OnResponse(resp)
	})
	if err != nil {
		listener.OnFailure(err)
	}
}
