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
	"time"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/backend"
	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/statement"
	"go.uber.org/zap"
)

func (e *Engine) createIndex(req *backend.CreateIndexRequest) (*backend.CreateIndexResponse, error) {
	if statement.IsSystemSchema(req.Schema) {
		return nil, errors.Newf("schema %s is read-only", req.Schema)
	}

	info := &TableInfo{
		Schema:     req.Schema,
		Name:       req.Table,
		Columns:    req.Columns,
		PrimaryKey: req.PrimaryKey,
		Shards:     e.opts.shards,
		CreatedAt:  time.Now(),
	}
	created, err := e.catalog.create(info)
	if err != nil {
		return nil, err
	}
	if !created {
		if req.IfNotExists {
			return &backend.CreateIndexResponse{}, nil
		}
		return nil, errors.Mark(errors.Newf("table %s already exists", info.QualifiedName()),
			backend.ErrTableExists)
	}

	e.logger.Info("table created",
		log.TableField(req.Schema, req.Table),
		zap.String("primary-key", req.PrimaryKey),
		zap.Uint32("shards", info.Shards))
	return &backend.CreateIndexResponse{Acknowledged: true}, nil
}

func (e *Engine) deleteIndex(req *backend.DeleteIndexRequest) (*backend.DeleteIndexResponse, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	dropped, err := e.catalog.drop(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}
	if !dropped {
		if req.IfExists {
			return &backend.DeleteIndexResponse{}, nil
		}
		return nil, errors.Mark(errors.Newf("table %s.%s unknown", req.Schema, req.Table),
			backend.ErrTableUnknown)
	}

	e.logger.Info("table dropped", log.TableField(req.Schema, req.Table))
	return &backend.DeleteIndexResponse{Acknowledged: true}, nil
}

func (e *Engine) clusterSettings(req *backend.ClusterSettingsRequest) (*backend.ClusterSettingsResponse, error) {
	wb := e.store.NewWriteBatch()
	defer wb.Close()
	for name, value := range req.Settings {
		data, err := codec.Marshal(value)
		if err != nil {
			return nil, errors.Wrapf(err, "encode setting %s", name)
		}
		wb.Set(settingKey(name), data)
	}
	if err := e.store.Write(wb, true); err != nil {
		return nil, err
	}

	settings, err := e.Settings()
	if err != nil {
		return nil, err
	}
	return &backend.ClusterSettingsResponse{Acknowledged: true, Settings: settings}, nil
}

// Settings returns the persisted cluster settings
func (e *Engine) Settings() (map[string]interface{}, error) {
	settings := make(map[string]interface{})
	err := e.store.PrefixScan(settingsPrefix, func(key, value []byte) (bool, error) {
		var v interface{}
		if err := codec.Unmarshal(value, &v); err != nil {
			return false, errors.Wrapf(err, "decode setting %s", key)
		}
		settings[string(key[len(settingsPrefix):])] = normalize(v)
		return true, nil
	}, false)
	if err != nil {
		return nil, err
	}
	return settings, nil
}
