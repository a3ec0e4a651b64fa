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

package storage

import (
	"bytes"
)

// WriteBatch collects writes that are applied atomically by KVStorage.Write.
type WriteBatch interface {
	// Set puts the key-value pair to the batch.
	Set(key, value []byte)
	// Delete removes the key.
	Delete(key []byte)
	// DeleteRange removes the keys in [start, end).
	DeleteRange(start, end []byte)
	// Reset clears the batch so it can be reused.
	Reset()
	// Close releases the batch.
	Close()
}

// KVStorage is the ordered key-value store the engine keeps its catalog and
// documents in.
type KVStorage interface {
	// NewWriteBatch creates a write batch for this storage.
	NewWriteBatch() WriteBatch
	// Write writes the data in batch to the storage.
	Write(wb WriteBatch, sync bool) error
	// Set puts the key-value pair to the storage.
	Set(key []byte, value []byte, sync bool) error
	// Get returns the value associated with the key, nil if the key does not
	// exist.
	Get(key []byte) ([]byte, error)
	// Delete removes the key-value pair specified by the key.
	Delete(key []byte, sync bool) error
	// Scan scans the key-value pairs in the specified [start, end) range, the
	// handler function is invoked on each key-value pair until the handler
	// returns false. Depending on the clone parameter, the handler is provided
	// a cloned key-value pair that can be retained after the handler returns
	// or a pair of temporary slices that could change after it returns.
	Scan(start, end []byte,
		handler func(key, value []byte) (bool, error), clone bool) error
	// PrefixScan scans all key-value pairs that share the specified prefix.
	PrefixScan(prefix []byte,
		handler func(key, value []byte) (bool, error), clone bool) error
	// RangeDelete delete data within the specified [start,end) range.
	RangeDelete(start, end []byte, sync bool) error
	// Stats returns the read and write counters.
	Stats() Stats
	// Close closes the storage.
	Close() error
}

// PrefixEnd returns the smallest key greater than every key with the prefix,
// nil if no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// HasPrefix returns true if key starts with prefix
func HasPrefix(key, prefix []byte) bool {
	return bytes.HasPrefix(key, prefix)
}

// Clone returns a copy of the value
func Clone(value []byte) []byte {
	if value == nil {
		return nil
	}
	v := make([]byte, len(value))
	copy(v, value)
	return v
}
