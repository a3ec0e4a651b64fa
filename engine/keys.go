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
	"fmt"
	"hash/fnv"
)

// Key layout:
//
//	m/t/<schema>.<table>               table metadata
//	m/s/<name>                         cluster setting
//	t/<schema>.<table>/<shard>/<id>    document
var (
	tablesPrefix   = []byte("m/t/")
	settingsPrefix = []byte("m/s/")
)

func tableKey(schema, table string) []byte {
	return append(append([]byte(nil), tablesPrefix...), schema+"."+table...)
}

func settingKey(name string) []byte {
	return append(append([]byte(nil), settingsPrefix...), name...)
}

func tablePrefix(schema, table string) []byte {
	return []byte(fmt.Sprintf("t/%s.%s/", schema, table))
}

func shardPrefix(schema, table string, shard uint32) []byte {
	return []byte(fmt.Sprintf("t/%s.%s/%04d/", schema, table, shard))
}

func documentKey(schema, table string, shards uint32, id string) []byte {
	return append(shardPrefix(schema, table, shardOf(id, shards)), id...)
}

// shardOf returns the shard of the document id
func shardOf(id string, shards uint32) uint32 {
	if shards <= 1 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32() % shards
}
