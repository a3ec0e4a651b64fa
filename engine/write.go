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
	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/backend"
)

func (e *Engine) index(req *backend.IndexRequest) (*backend.IndexResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.indexLocked(info, req)
}

func (e *Engine) indexLocked(info *TableInfo, req *backend.IndexRequest) (*backend.IndexResponse, error) {
	id := req.ID
	if id == "" {
		id = e.newID()
	}
	key := documentKey(info.Schema, info.Name, info.Shards, id)
	existing, err := e.store.Get(key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Mark(errors.Newf("[%s][%s]: document already exists", info.QualifiedName(), id),
			backend.ErrDuplicateKey)
	}

	value, err := encodeDocument(document{Version: 1, Source: req.Source})
	if err != nil {
		return nil, err
	}
	if err := e.store.Set(key, value, false); err != nil {
		return nil, err
	}
	return &backend.IndexResponse{ID: id, Version: 1}, nil
}

func (e *Engine) bulk(req *backend.BulkRequest) (*backend.BulkResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	resp := &backend.BulkResponse{Items: make([]backend.BulkItemResponse, 0, len(req.Items))}
	for i := range req.Items {
		item, err := e.indexLocked(info, &req.Items[i])
		if err != nil {
			resp.Items = append(resp.Items, backend.BulkItemResponse{ID: req.Items[i].ID, Err: err})
			continue
		}
		resp.Items = append(resp.Items, backend.BulkItemResponse{ID: item.ID, Version: item.Version})
	}
	return resp, nil
}

func (e *Engine) update(req *backend.UpdateRequest) (*backend.UpdateResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	key := documentKey(info.Schema, info.Name, info.Shards, req.ID)
	value, err := e.store.Get(key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, errors.Mark(errors.Newf("[%s][%s]: document missing", info.QualifiedName(), req.ID),
			backend.ErrDocumentMissing)
	}
	doc, err := decodeDocument(value)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(info, req.ID, doc.Version, req.Version); err != nil {
		return nil, err
	}

	if doc.Source == nil {
		doc.Source = make(map[string]interface{}, len(req.Doc))
	}
	for k, v := range req.Doc {
		doc.Source[k] = v
	}
	doc.Version++
	if value, err = encodeDocument(doc); err != nil {
		return nil, err
	}
	if err := e.store.Set(key, value, false); err != nil {
		return nil, err
	}
	return &backend.UpdateResponse{ID: req.ID, Version: doc.Version}, nil
}

func (e *Engine) delete(req *backend.DeleteRequest) (*backend.DeleteResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	key := documentKey(info.Schema, info.Name, info.Shards, req.ID)
	value, err := e.store.Get(key)
	if err != nil {
		return nil, err
	}
	if value == nil {
		if req.Version != nil {
			return nil, checkVersion(info, req.ID, 0, req.Version)
		}
		return &backend.DeleteResponse{ID: req.ID}, nil
	}
	doc, err := decodeDocument(value)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(info, req.ID, doc.Version, req.Version); err != nil {
		return nil, err
	}
	if err := e.store.Delete(key, false); err != nil {
		return nil, err
	}
	return &backend.DeleteResponse{ID: req.ID, Found: true}, nil
}

func (e *Engine) deleteByQuery(req *backend.DeleteByQueryRequest) (*backend.DeleteByQueryResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	var keys [][]byte
	err = e.scanTable(info, func(key []byte, hit backend.Hit) (bool, error) {
		if matches(req.Conditions, hit) {
			keys = append(keys, key)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return &backend.DeleteByQueryResponse{}, nil
	}

	wb := e.store.NewWriteBatch()
	defer wb.Close()
	for _, key := range keys {
		wb.Delete(key)
	}
	if err := e.store.Write(wb, false); err != nil {
		return nil, err
	}
	return &backend.DeleteByQueryResponse{Deleted: int64(len(keys))}, nil
}

func checkVersion(info *TableInfo, id string, current int64, expected *int64) error {
	if expected == nil || *expected == current {
		return nil
	}
	return errors.Mark(errors.Newf("[%s][%s]: version conflict, current version [%d] is different than the one provided [%d]",
		info.QualifiedName(), id, current, *expected), backend.ErrVersionConflict)
}
