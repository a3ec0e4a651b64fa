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

// Package storagetest holds the behaviour tests every KVStorage
// implementation has to pass.
package storagetest

import (
	"fmt"
	"testing"

	"github.com/matrixorigin/cubesql/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory creates an empty storage for one test
type Factory func(t *testing.T) storage.KVStorage

// Run runs the behaviour tests against storages created by the factory
func Run(t *testing.T, factory Factory) {
	tests := []struct {
		name string
		fn   func(*testing.T, storage.KVStorage)
	}{
		{"SetGetDelete", testSetGetDelete},
		{"WriteBatch", testWriteBatch},
		{"Scan", testScan},
		{"PrefixScan", testPrefixScan},
		{"RangeDelete", testRangeDelete},
		{"Stats", testStats},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := factory(t)
			defer func() {
				assert.NoError(t, s.Close())
			}()
			tt.fn(t, s)
		})
	}
}

func load(t *testing.T, s storage.KVStorage, keys ...string) {
	for _, k := range keys {
		require.NoError(t, s.Set([]byte(k), []byte("v-"+k), false))
	}
}

func collect(t *testing.T, scan func(handler func(key, value []byte) (bool, error)) error) []string {
	var keys []string
	require.NoError(t, scan(func(key, value []byte) (bool, error) {
		assert.Equal(t, "v-"+string(key), string(value))
		keys = append(keys, string(key))
		return true, nil
	}))
	return keys
}

func testSetGetDelete(t *testing.T, s storage.KVStorage) {
	v, err := s.Get([]byte("k1"))
	assert.NoError(t, err)
	assert.Nil(t, v)

	load(t, s, "k1")
	v, err = s.Get([]byte("k1"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v-k1"), v)

	require.NoError(t, s.Set([]byte("k1"), []byte("v2"), true))
	v, err = s.Get([]byte("k1"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, s.Delete([]byte("k1"), false))
	v, err = s.Get([]byte("k1"))
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func testWriteBatch(t *testing.T, s storage.KVStorage) {
	load(t, s, "a", "b", "c1", "c2")

	wb := s.NewWriteBatch()
	defer wb.Close()
	wb.Set([]byte("d"), []byte("v-d"))
	wb.Delete([]byte("a"))
	wb.DeleteRange([]byte("c"), []byte("d"))
	require.NoError(t, s.Write(wb, true))

	assert.Equal(t, []string{"b", "d"}, collect(t, func(h func(key, value []byte) (bool, error)) error {
		return s.Scan(nil, nil, h, false)
	}))

	wb.Reset()
	wb.Set([]byte("e"), []byte("v-e"))
	require.NoError(t, s.Write(wb, false))
	v, err := s.Get([]byte("e"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v-e"), v)
}

func testScan(t *testing.T, s storage.KVStorage) {
	for i := 0; i < 10; i++ {
		load(t, s, fmt.Sprintf("k%d", i))
	}

	keys := collect(t, func(h func(key, value []byte) (bool, error)) error {
		return s.Scan([]byte("k2"), []byte("k5"), h, true)
	})
	assert.Equal(t, []string{"k2", "k3", "k4"}, keys)

	keys = collect(t, func(h func(key, value []byte) (bool, error)) error {
		return s.Scan([]byte("k8"), nil, h, false)
	})
	assert.Equal(t, []string{"k8", "k9"}, keys)

	keys = collect(t, func(h func(key, value []byte) (bool, error)) error {
		return s.Scan(nil, []byte("k1"), h, false)
	})
	assert.Equal(t, []string{"k0"}, keys)

	n := 0
	require.NoError(t, s.Scan(nil, nil, func(key, value []byte) (bool, error) {
		n++
		return n < 3, nil
	}, false))
	assert.Equal(t, 3, n)

	stop := fmt.Errorf("stop")
	assert.Equal(t, stop, s.Scan(nil, nil, func(key, value []byte) (bool, error) {
		return true, stop
	}, false))
}

func testPrefixScan(t *testing.T, s storage.KVStorage) {
	load(t, s, "t/a/1", "t/a/2", "t/ab/1", "t/b/1", "u")

	keys := collect(t, func(h func(key, value []byte) (bool, error)) error {
		return s.PrefixScan([]byte("t/a/"), h, false)
	})
	assert.Equal(t, []string{"t/a/1", "t/a/2"}, keys)

	keys = collect(t, func(h func(key, value []byte) (bool, error)) error {
		return s.PrefixScan([]byte("t/"), h, true)
	})
	assert.Equal(t, []string{"t/a/1", "t/a/2", "t/ab/1", "t/b/1"}, keys)
}

func testRangeDelete(t *testing.T, s storage.KVStorage) {
	load(t, s, "a", "b", "c", "d")
	require.NoError(t, s.RangeDelete([]byte("b"), []byte("d"), false))
	assert.Equal(t, []string{"a", "d"}, collect(t, func(h func(key, value []byte) (bool, error)) error {
		return s.Scan(nil, nil, h, false)
	}))

	require.NoError(t, s.RangeDelete([]byte("b"), nil, false))
	assert.Equal(t, []string{"a"}, collect(t, func(h func(key, value []byte) (bool, error)) error {
		return s.Scan(nil, nil, h, false)
	}))
}

func testStats(t *testing.T, s storage.KVStorage) {
	load(t, s, "a")
	_, err := s.Get([]byte("a"))
	require.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, uint64(1), stats.WrittenKeys)
	assert.Equal(t, uint64(4), stats.WrittenBytes)
	assert.Equal(t, uint64(1), stats.ReadKeys)
	assert.Equal(t, uint64(4), stats.ReadBytes)
}
