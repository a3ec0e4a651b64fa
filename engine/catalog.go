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
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/backend"
	"github.com/matrixorigin/cubesql/statement"
	"github.com/matrixorigin/cubesql/storage"
)

// TableInfo is the metadata of a table
type TableInfo struct {
	Schema     string                       `json:"schema"`
	Name       string                       `json:"name"`
	Columns    []statement.ColumnDefinition `json:"columns"`
	PrimaryKey string                       `json:"primary-key"`
	Shards     uint32                       `json:"shards"`
	CreatedAt  time.Time                    `json:"created-at"`
}

// QualifiedName returns schema.name
func (t *TableInfo) QualifiedName() string {
	return t.Schema + "." + t.Name
}

// ColumnNames returns the declared columns in order
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// catalog caches the table metadata kept in the storage
type catalog struct {
	sync.RWMutex
	store  storage.KVStorage
	tables map[string]*TableInfo
}

func newCatalog(store storage.KVStorage) (*catalog, error) {
	c := &catalog{store: store, tables: make(map[string]*TableInfo)}
	err := store.PrefixScan(tablesPrefix, func(key, value []byte) (bool, error) {
		info := &TableInfo{}
		if err := codec.Unmarshal(value, info); err != nil {
			return false, errors.Wrapf(err, "decode table metadata %s", key)
		}
		c.tables[info.QualifiedName()] = info
		return true, nil
	}, false)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *catalog) table(schema, name string) (*TableInfo, error) {
	c.RLock()
	defer c.RUnlock()
	if info, ok := c.tables[schema+"."+name]; ok {
		return info, nil
	}
	return nil, errors.Mark(errors.Newf("table %s.%s unknown", schema, name), backend.ErrTableUnknown)
}

// list returns all tables ordered by schema and name
func (c *catalog) list() []*TableInfo {
	c.RLock()
	defer c.RUnlock()
	tables := make([]*TableInfo, 0, len(c.tables))
	for _, info := range c.tables {
		tables = append(tables, info)
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].QualifiedName() < tables[j].QualifiedName()
	})
	return tables
}

// create returns false if the table exists
func (c *catalog) create(info *TableInfo) (bool, error) {
	c.Lock()
	defer c.Unlock()
	if _, ok := c.tables[info.QualifiedName()]; ok {
		return false, nil
	}
	value, err := codec.Marshal(info)
	if err != nil {
		return false, err
	}
	if err := c.store.Set(tableKey(info.Schema, info.Name), value, true); err != nil {
		return false, err
	}
	c.tables[info.QualifiedName()] = info
	return true, nil
}

// drop removes the table metadata and its documents, it returns false if the
// table does not exist
func (c *catalog) drop(schema, name string) (bool, error) {
	c.Lock()
	defer c.Unlock()
	if _, ok := c.tables[schema+"."+name]; !ok {
		return false, nil
	}

	prefix := tablePrefix(schema, name)
	wb := c.store.NewWriteBatch()
	defer wb.Close()
	wb.DeleteRange(prefix, storage.PrefixEnd(prefix))
	wb.Delete(tableKey(schema, name))
	if err := c.store.Write(wb, true); err != nil {
		return false, err
	}
	delete(c.tables, schema+"."+name)
	return true, nil
}
