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
	"strings"

	"github.com/matrixorigin/cubesql/backend"
	"github.com/matrixorigin/cubesql/storage"
)

// scanTable calls fn with every document of the table in key order
func (e *Engine) scanTable(info *TableInfo, fn func(key []byte, hit backend.Hit) (bool, error)) error {
	for shard := uint32(0); shard < info.Shards; shard++ {
		stop := false
		err := e.scanShard(info, shard, func(key []byte, hit backend.Hit) (bool, error) {
			ok, err := fn(key, hit)
			stop = !ok
			return ok, err
		})
		if err != nil || stop {
			return err
		}
	}
	return nil
}

func (e *Engine) scanShard(info *TableInfo, shard uint32, fn func(key []byte, hit backend.Hit) (bool, error)) error {
	prefix := shardPrefix(info.Schema, info.Name, shard)
	return e.store.PrefixScan(prefix, func(key, value []byte) (bool, error) {
		hit, err := decodeHit(string(key[len(prefix):]), value)
		if err != nil {
			return false, err
		}
		return fn(storage.Clone(key), hit)
	}, false)
}

func (e *Engine) getHit(info *TableInfo, id string) (backend.Hit, bool, error) {
	value, err := e.store.Get(documentKey(info.Schema, info.Name, info.Shards, id))
	if err != nil || value == nil {
		return backend.Hit{}, false, err
	}
	hit, err := decodeHit(id, value)
	if err != nil {
		return backend.Hit{}, false, err
	}
	return hit, true, nil
}

func (e *Engine) get(req *backend.GetRequest) (*backend.GetResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}
	hit, found, err := e.getHit(info, req.ID)
	if err != nil {
		return nil, err
	}
	return &backend.GetResponse{Fields: fieldsOf(info, req.Fields), Found: found, Hit: hit}, nil
}

func (e *Engine) multiGet(req *backend.MultiGetRequest) (*backend.MultiGetResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}
	resp := &backend.MultiGetResponse{Fields: fieldsOf(info, req.Fields)}
	for _, id := range req.IDs {
		hit, found, err := e.getHit(info, id)
		if err != nil {
			return nil, err
		}
		if found {
			resp.Hits = append(resp.Hits, hit)
		}
	}
	return resp, nil
}

func (e *Engine) search(req *backend.SearchRequest) (*backend.SearchResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}

	var hits []backend.Hit
	err = e.scanTable(info, func(key []byte, hit backend.Hit) (bool, error) {
		if matches(req.Conditions, hit) {
			hits = append(hits, hit)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if len(req.OrderBy) > 0 {
		sortRecords(hits, req.OrderBy)
	}
	return &backend.SearchResponse{
		Fields: fieldsOf(info, req.Fields),
		Hits:   page(hits, req.Offset, req.Limit),
	}, nil
}

func (e *Engine) count(req *backend.CountRequest) (*backend.CountResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}

	resp := &backend.CountResponse{}
	err = e.scanTable(info, func(key []byte, hit backend.Hit) (bool, error) {
		if matches(req.Conditions, hit) {
			resp.Count++
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// fieldsOf returns the requested fields, all table columns if none is
// requested
func fieldsOf(info *TableInfo, fields []string) []string {
	if len(fields) > 0 {
		return fields
	}
	columns := info.ColumnNames()
	if info.PrimaryKey == "" || strings.HasPrefix(info.PrimaryKey, "_") {
		return append([]string{backend.FieldID}, columns...)
	}
	return columns
}
