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

package pebble

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/storage"
	"go.uber.org/zap"
)

// Storage returns a kv storage based on pebble
type Storage struct {
	db    *pebble.DB
	stats storage.Stats
}

var _ storage.KVStorage = (*Storage)(nil)

// NewStorage returns a pebble backed kv store.
func NewStorage(dir string, logger *zap.Logger, opts *pebble.Options) (*Storage, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	if !hasEventListener(opts.EventListener) {
		opts.EventListener = getEventListener(log.Adjust(logger).Named("pebble"))
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open pebble storage at %s", dir)
	}

	return &Storage{
		db: db,
	}, nil
}

// Close close the storage
func (s *Storage) Close() error {
	return s.db.Close()
}

// Write write the data in batch
func (s *Storage) Write(uwb storage.WriteBatch, sync bool) error {
	wb := uwb.(*writeBatch)
	return s.db.Apply(wb.batch, toWriteOptions(sync))
}

// Set put the key, value pair to the storage
func (s *Storage) Set(key, value []byte, sync bool) error {
	s.stats.AddWrite(key, value)
	return s.db.Set(key, value, toWriteOptions(sync))
}

// Get returns the value of the key
func (s *Storage) Get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	s.stats.AddRead(key, value)
	return storage.Clone(value), nil
}

// Delete remove the key from the storage
func (s *Storage) Delete(key []byte, sync bool) error {
	s.stats.AddWrite(key, nil)
	return s.db.Delete(key, toWriteOptions(sync))
}

// RangeDelete remove data in [start,end)
func (s *Storage) RangeDelete(start, end []byte, sync bool) error {
	s.stats.AddWrite(start, end)

	if len(end) == 0 {
		iter := s.db.NewIter(&pebble.IterOptions{LowerBound: start})
		defer iter.Close()

		if !iter.Last() {
			return iter.Error()
		}
		lk := iter.Key()
		end = make([]byte, len(lk)+1)
		copy(end, lk)
	}
	return s.db.DeleteRange(start, end, toWriteOptions(sync))
}

// Scan scans the key-value pairs in [start, end), and perform with a handler function, if the function
// returns false, the scan will be terminated.
// The Handler func will received a cloned the key and value, if the `clone` is true.
func (s *Storage) Scan(start, end []byte, handler func(key, value []byte) (bool, error), clone bool) error {
	ios := &pebble.IterOptions{}
	if len(start) > 0 {
		ios.LowerBound = start
	}
	if len(end) > 0 {
		ios.UpperBound = end
	}
	iter := s.db.NewIter(ios)
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key, value := iter.Key(), iter.Value()
		s.stats.AddRead(key, value)
		if clone {
			key, value = storage.Clone(key), storage.Clone(value)
		}
		ok, err := handler(key, value)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return iter.Error()
}

// PrefixScan scans the key-value pairs starts from prefix but only keys for the same prefix,
// while perform with a handler function, if the function returns false, the scan will be terminated.
func (s *Storage) PrefixScan(prefix []byte, handler func(key, value []byte) (bool, error), clone bool) error {
	return s.Scan(prefix, storage.PrefixEnd(prefix), handler, clone)
}

// Stats returns the storage stats
func (s *Storage) Stats() storage.Stats {
	return s.stats.Copy()
}

// NewWriteBatch create and returns write batch
func (s *Storage) NewWriteBatch() storage.WriteBatch {
	return &writeBatch{batch: s.db.NewBatch(), stats: &s.stats}
}

func toWriteOptions(sync bool) *pebble.WriteOptions {
	if sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

type writeBatch struct {
	batch *pebble.Batch
	stats *storage.Stats
}

func (wb *writeBatch) Delete(key []byte) {
	if err := wb.batch.Delete(key, nil); err != nil {
		panic(err)
	}
	wb.stats.AddWrite(key, nil)
}

func (wb *writeBatch) DeleteRange(start, end []byte) {
	if err := wb.batch.DeleteRange(start, end, nil); err != nil {
		panic(err)
	}
	wb.stats.AddWrite(start, end)
}

func (wb *writeBatch) Set(key []byte, value []byte) {
	if err := wb.batch.Set(key, value, nil); err != nil {
		panic(err)
	}
	wb.stats.AddWrite(key, value)
}

func (wb *writeBatch) Reset() {
	wb.batch.Reset()
}

func (wb *writeBatch) Close() {
	wb.batch.Close()
}
