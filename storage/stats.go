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
	"sync/atomic"
)

// Stats storage stats
type Stats struct {
	WrittenKeys  uint64
	WrittenBytes uint64
	ReadKeys     uint64
	ReadBytes    uint64
}

// Copy returns another instance for rough statistics.
func (s *Stats) Copy() Stats {
	return Stats{
		WrittenKeys:  atomic.LoadUint64(&s.WrittenKeys),
		WrittenBytes: atomic.LoadUint64(&s.WrittenBytes),
		ReadKeys:     atomic.LoadUint64(&s.ReadKeys),
		ReadBytes:    atomic.LoadUint64(&s.ReadBytes),
	}
}

// AddWrite records a write of the key-value pair
func (s *Stats) AddWrite(key, value []byte) {
	atomic.AddUint64(&s.WrittenKeys, 1)
	atomic.AddUint64(&s.WrittenBytes, uint64(len(key)+len(value)))
}

// AddRead records a read of the key-value pair
func (s *Stats) AddRead(key, value []byte) {
	atomic.AddUint64(&s.ReadKeys, 1)
	atomic.AddUint64(&s.ReadBytes, uint64(len(key)+len(value)))
}
