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

package main

import (
	cpebble "github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/matrixorigin/cubesql/config"
	"github.com/matrixorigin/cubesql/dispatcher"
	"github.com/matrixorigin/cubesql/engine"
	"github.com/matrixorigin/cubesql/executor"
	"github.com/matrixorigin/cubesql/parser"
	"github.com/matrixorigin/cubesql/storage"
	"github.com/matrixorigin/cubesql/storage/mem"
	"github.com/matrixorigin/cubesql/storage/pebble"
)

// node wires storage, the worker pool, the engine and the dispatcher
type node struct {
	logger     *zap.Logger
	store      storage.KVStorage
	pool       *executor.Pool
	engine     *engine.Engine
	dispatcher *dispatcher.Dispatcher
}

func newNode(cfg *config.Config, logger *zap.Logger) (*node, error) {
	store, err := openStorage(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	pool, err := executor.NewPool(cfg.Pool.MaxWorkers,
		executor.WithPoolLogger(logger),
		executor.WithExpiryDuration(cfg.Pool.ExpiryDuration.Duration))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	e, err := engine.New(store, pool,
		engine.WithLogger(logger),
		engine.WithShards(cfg.Engine.Shards),
		engine.WithImportRate(cfg.Engine.ImportRowsPerSecond),
		engine.WithImportBatchSize(cfg.Engine.ImportBatchSize))
	if err != nil {
		pool.Release()
		_ = store.Close()
		return nil, err
	}

	d, err := dispatcher.NewDispatcher(e.Ports(),
		dispatcher.WithLogger(logger),
		dispatcher.WithAnalyzer(parser.NewAnalyzer(cfg.Engine.DefaultSchema, e)))
	if err != nil {
		pool.Release()
		_ = store.Close()
		return nil, err
	}

	return &node{
		logger:     logger,
		store:      store,
		pool:       pool,
		engine:     e,
		dispatcher: d,
	}, nil
}

func (n *node) close() error {
	n.pool.Release()
	return n.store.Close()
}

func openStorage(cfg config.StorageConfig, logger *zap.Logger) (storage.KVStorage, error) {
	switch cfg.Engine {
	case config.StoragePebble:
		cache := cpebble.NewCache(int64(cfg.CacheSize))
		defer cache.Unref()
		logger.Info("open pebble storage",
			zap.String("dir", cfg.DataPath),
			zap.String("cache-size", cfg.CacheSize.String()))
		return pebble.NewStorage(cfg.DataPath, logger, &cpebble.Options{Cache: cache})
	default:
		logger.Info("open memory storage")
		return mem.NewStorage(), nil
	}
}
