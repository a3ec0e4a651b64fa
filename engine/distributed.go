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
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/backend"
	"github.com/matrixorigin/cubesql/executor"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/statement"
	"go.uber.org/zap"
)

// Virtual tables
const (
	tableShards  = "shards"
	tableTables  = "tables"
	tableColumns = "columns"
)

var (
	shardsColumns  = []string{"table_schema", "table_name", "id", "num_docs"}
	tablesColumns  = []string{"table_schema", "table_name", "number_of_shards", "primary_key"}
	columnsColumns = []string{"table_schema", "table_name", "column_name", "data_type", "ordinal_position"}
)

// distributed runs an aggregation with one work unit per shard, or collects
// the shard stats of every table. The listener is notified when the last
// group completes.
func (e *Engine) distributed(ctx context.Context, req *backend.DistributedRequest,
	listener response.Listener[*response.SQLResponse]) {
	stmt := req.Statement
	if stmt == nil {
		listener.OnFailure(errors.New("distributed request without statement"))
		return
	}
	if stmt.Type == statement.TypeDistributedStats {
		e.shardStats(stmt, listener)
		return
	}

	info, err := e.catalog.table(stmt.Schema, stmt.Table)
	if err != nil {
		listener.OnFailure(err)
		return
	}

	units := make([]func() (*partial, error), 0, info.Shards)
	for shard := uint32(0); shard < info.Shards; shard++ {
		shard := shard
		units = append(units, func() (*partial, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return e.aggregateShard(info, shard, stmt)
		})
	}

	executor.RunWithAvailableWorkers(e.executor, e.available, units, mergePartials).
		OnComplete(func(parts []*partial, err error) {
			if err != nil {
				listener.OnFailure(err)
				return
			}
			p, _ := mergePartials(parts)
			names, rows, err := finalize(stmt, p)
			if err != nil {
				listener.OnFailure(err)
				return
			}
			listener.OnResponse(response.NewRowsResponse(names, rows))
		})
}

func (e *Engine) aggregateShard(info *TableInfo, shard uint32, stmt *statement.Statement) (*partial, error) {
	p := newPartial()
	err := e.scanShard(info, shard, func(key []byte, hit backend.Hit) (bool, error) {
		if !matches(stmt.Conditions, hit) {
			return true, nil
		}
		return true, p.add(stmt, hit)
	})
	if err != nil {
		return nil, err
	}
	if ce := e.logger.Check(zap.DebugLevel, "shard aggregated"); ce != nil {
		ce.Write(zap.String("table", info.QualifiedName()),
			zap.Uint32("shard", shard),
			zap.Int("groups", len(p.groups)))
	}
	return p, nil
}

// shardStats returns one row per shard of every table
func (e *Engine) shardStats(stmt *statement.Statement, listener response.Listener[*response.SQLResponse]) {
	if !strings.EqualFold(stmt.Table, tableShards) {
		listener.OnFailure(errors.Mark(errors.Newf("table %s unknown", stmt.QualifiedTable()),
			backend.ErrTableUnknown))
		return
	}

	var units []func() ([][]interface{}, error)
	for _, info := range e.catalog.list() {
		info := info
		for shard := uint32(0); shard < info.Shards; shard++ {
			shard := shard
			units = append(units, func() ([][]interface{}, error) {
				n := int64(0)
				err := e.store.PrefixScan(shardPrefix(info.Schema, info.Name, shard),
					func(key, value []byte) (bool, error) {
						n++
						return true, nil
					}, false)
				if err != nil {
					return nil, err
				}
				return [][]interface{}{{info.Schema, info.Name, int64(shard), n}}, nil
			})
		}
	}

	executor.RunWithAvailableWorkers(e.executor, e.available, units, concatRows).
		OnComplete(func(groups [][][]interface{}, err error) {
			if err != nil {
				listener.OnFailure(err)
				return
			}
			rows, _ := concatRows(groups)
			resp, err := selectRows(stmt, shardsColumns, rows)
			if err != nil {
				listener.OnFailure(err)
				return
			}
			listener.OnResponse(resp)
		})
}

func concatRows(values [][][]interface{}) ([][]interface{}, error) {
	var rows [][]interface{}
	for _, v := range values {
		rows = append(rows, v...)
	}
	return rows, nil
}

func (e *Engine) informationSchema(stmt *statement.Statement) (*response.SQLResponse, error) {
	var rows [][]interface{}
	switch strings.ToLower(stmt.Table) {
	case tableTables:
		for _, info := range e.catalog.list() {
			rows = append(rows, []interface{}{info.Schema, info.Name, int64(info.Shards), info.PrimaryKey})
		}
		return selectRows(stmt, tablesColumns, rows)
	case tableColumns:
		for _, info := range e.catalog.list() {
			for i, c := range info.Columns {
				rows = append(rows, []interface{}{info.Schema, info.Name, c.Name, c.Type, int64(i + 1)})
			}
		}
		return selectRows(stmt, columnsColumns, rows)
	}
	return nil, errors.Mark(errors.Newf("table %s unknown", stmt.QualifiedTable()),
		backend.ErrTableUnknown)
}

// selectRows evaluates the statement over the rows of a virtual table
func selectRows(stmt *statement.Statement, columns []string, rows [][]interface{}) (*response.SQLResponse, error) {
	records := make([]mapRow, 0, len(rows))
	for _, values := range rows {
		r := make(mapRow, len(columns))
		for i, c := range columns {
			r[c] = values[i]
		}
		if matches(stmt.Conditions, r) {
			records = append(records, r)
		}
	}

	if stmt.HasAggregates() || stmt.HasGroupBy() {
		p := newPartial()
		for _, r := range records {
			if err := p.add(stmt, r); err != nil {
				return nil, err
			}
		}
		names, values, err := finalize(stmt, p)
		if err != nil {
			return nil, err
		}
		return response.NewRowsResponse(names, values), nil
	}

	if len(stmt.OrderBy) > 0 {
		sortRecords(records, stmt.OrderBy)
	}
	records = page(records, stmt.Offset, stmt.Limit)

	names, fields := columns, columns
	if !selectsAll(stmt) {
		names = stmt.OutputNames()
		fields = make([]string, 0, len(stmt.Outputs))
		for _, o := range stmt.Outputs {
			fields = append(fields, o.Column)
		}
	}

	values := make([][]interface{}, 0, len(records))
	for _, r := range records {
		v := make([]interface{}, 0, len(fields))
		for _, f := range fields {
			v = append(v, r[f])
		}
		values = append(values, v)
	}
	return response.NewRowsResponse(names, values), nil
}

func selectsAll(stmt *statement.Statement) bool {
	if len(stmt.Outputs) == 0 {
		return true
	}
	for _, o := range stmt.Outputs {
		if o.Star {
			return true
		}
	}
	return false
}
