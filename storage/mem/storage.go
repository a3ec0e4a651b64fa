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

package mem

import (
	"bytes"
	"sync"

	"github.com/google/btree"
	"github.com/matrixorigin/cubesql/storage"
)

const defaultBTreeDegree = 64

type item struct {
	key   []byte
	value []byte
}

// Less returns true if the item key is less than the other.
func (i *item) Less(other btree.Item) bool {
	return bytes.Compare(i.key, other.(*item).key) < 0
}

// Storage is an ordered in-memory kv storage.
type Storage struct {
	sync.RWMutex
	tree  *btree.BTree
	stats storage.Stats
}

var _ storage.KVStorage = (*Storage)(nil)

// NewStorage returns a memory storage
func NewStorage() *Storage {
	return &Storage{tree: btree.New(defaultBTreeDegree)}
}

// NewWriteBatch create and returns write batch
func (s *Storage) NewWriteBatch() storage.WriteBatch {
	return &writeBatch{}
}

// Write write the data in batch
func (s *Storage) Write(wb storage.WriteBatch, sync bool) error {
	b := wb.(*writeBatch)
	s.Lock()
	defer s.Unlock()
	for _, op := range b.ops {
		switch op.kind {
		case opSet:
			s.set(op.key, op.value)
		case opDelete:
			s.delete(op.key)
		case opDeleteRange:
			s.rangeDelete(op.key, op.value)
		}
	}
	return nil
}

// Set put the key, value pair to the storage
func (s *Storage) Set(key []byte, value []byte, sync bool) error {
	s.Lock()
	defer s.Unlock()
	s.set(storage.Clone(key), storage.Clone(value))
	return nil
}

// Get returns the value of the key
func (s *Storage) Get(key []byte) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()
	v := s.tree.Get(&item{key: key})
	if v == nil {
		return nil, nil
	}
	value := v.(*item).value
	s.stats.AddRead(key, value)
	return storage.Clone(value), nil
}

// Delete remove the key from the storage
func (s *Storage) Delete(key []byte, sync bool) error {
	s.Lock()
	defer s.Unlock()
	s.delete(key)
	return nil
}

// RangeDelete remove data in [start,end)
func (s *Storage) RangeDelete(start, end []byte, sync bool) error {
	s.Lock()
	defer s.Unlock()
	s.rangeDelete(start, end)
	return nil
}

// Scan scans the key-value pairs in [start, end), and perform with a handler
// function, if the function returns false, the scan will be terminated.
func (s *Storage) Scan(start, end []byte,
	handler func(key, value []byte) (bool, error), clone bool) error {
	var err error
	fn := func(i btree.Item) bool {
		v := i.(*item)
		s.stats.AddRead(v.key, v.value)
		key, value := v.key, v.value
		if clone {
			key, value = storage.Clone(key), storage.Clone(value)
		}
		var ok bool
		ok, err = handler(key, value)
		return err == nil && ok
	}

	s.RLock()
	defer s.RUnlock()
	switch {
	case len(start) == 0 && len(end) == 0:
		s.tree.Ascend(fn)
	case len(end) == 0:
		s.tree.AscendGreaterOrEqual(&item{key: start}, fn)
	case len(start) == 0:
		s.tree.AscendLessThan(&item{key: end}, fn)
	default:
		s.tree.AscendRange(&item{key: start}, &item{key: end}, fn)
	}
	return err
}

// PrefixScan scans the key-value pairs starts from prefix but only keys for
// the same prefix.
func (s *Storage) PrefixScan(prefix []byte,
	handler func(key, value []byte) (bool, error), clone bool) error {
	return s.Scan(prefix, storage.PrefixEnd(prefix), handler, clone)
}

// Stats returns the storage stats
func (s *Storage) Stats() storage.Stats {
	return s.stats.Copy()
}

// Close close the storage
func (s *Storage) Close() error {
	s.Lock()
	defer s.Unlock()
	s.tree.Clear(false)
	return nil
}

func (s *Storage) set(key, value []byte) {
	s.stats.AddWrite(key, value)
	s.tree.ReplaceOrInsert(&item{key: key, value: value})
}

func (s *Storage) delete(key []byte) {
	s.stats.AddWrite(key, nil)
	s.tree.Delete(&item{key: key})
}

func (s *Storage) rangeDelete(start, end []byte) {
	s.stats.AddWrite(start, end)
	var keys []btree.Item
	fn := func(i btree.Item) bool {
		keys = append(keys, i)
		return true
	}
	if len(end) == 0 {
		s.tree.AscendGreaterOrEqual(&item{key: start}, fn)
	} else {
		s.tree.AscendRange(&item{key: start}, &item{key: end}, fn)
	}
	for _, k := range keys {
		s.tree.Delete(k)
	}
}

type opKind int

const (
	opSet opKind = iota
	opDelete
	opDeleteRange
)

type op struct {
	kind  opKind
	key   []byte
	value []byte
}

type writeBatch struct {
	ops []op
}

func (wb *writeBatch) Set(key, value []byte) {
	wb.ops = append(wb.ops, op{kind: opSet, key: storage.Clone(key), value: storage.Clone(value)})
}

func (wb *writeBatch) Delete(key []byte) {
	wb.ops = append(wb.ops, op{kind: opDelete, key: storage.Clone(key)})
}

func (wb *writeBatch) DeleteRange(start, end []byte) {
	wb.ops = append(wb.ops, op{kind: opDeleteRange, key: storage.Clone(start), value: storage.Clone(end)})
}

func (wb *writeBatch) Reset() {
	wb.ops = wb.ops[:0]
}

func (wb *writeBatch) Close() {
	wb.ops = nil
}
