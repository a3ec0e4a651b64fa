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

package backend

import (
	"github.com/google/uuid"
	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
)

// RequestBuilder builds the backend request of a classified statement. An
// error fails the statement before any port is called.
type RequestBuilder interface {
	BuildSearchRequest(*statement.Statement) (*SearchRequest, error)
	BuildIndexRequest(*statement.Statement) (*IndexRequest, error)
	BuildDeleteByQueryRequest(*statement.Statement) (*DeleteByQueryRequest, error)
	BuildDeleteRequest(*statement.Statement) (*DeleteRequest, error)
	BuildBulkRequest(*statement.Statement) (*BulkRequest, error)
	BuildGetRequest(*statement.Statement) (*GetRequest, error)
	BuildMultiGetRequest(*statement.Statement) (*MultiGetRequest, error)
	BuildUpdateRequest(*statement.Statement) (*UpdateRequest, error)
	BuildCountRequest(*statement.Statement) (*CountRequest, error)
	BuildCreateIndexRequest(*statement.Statement) (*CreateIndexRequest, error)
	BuildDeleteIndexRequest(*statement.Statement) (*DeleteIndexRequest, error)
	BuildClusterSettingsRequest(*statement.Statement) (*ClusterSettingsRequest, error)
	BuildImportRequest(*statement.Statement) (*ImportRequest, error)
}

type requestBuilder struct {
	idGenerator func() string
}

// NewRequestBuilder returns the default request builder. Documents inserted
// without a primary key value get a random uuid as id.
func NewRequestBuilder() RequestBuilder {
	return &requestBuilder{idGenerator: uuid.NewString}
}

func (b *requestBuilder) BuildSearchRequest(stmt *statement.Statement) (*SearchRequest, error) {
	return &SearchRequest{
		Schema:     stmt.Schema,
		Table:      stmt.Table,
		Fields:     fields(stmt),
		Conditions: stmt.Conditions,
		OrderBy:    stmt.OrderBy,
		Limit:      stmt.Limit,
		Offset:     stmt.Offset,
	}, nil
}

func (b *requestBuilder) BuildIndexRequest(stmt *statement.Statement) (*IndexRequest, error) {
	if len(stmt.Rows) != 1 {
		return nil, sqlerror.Malformedf("insert requires exactly one row, got %d", len(stmt.Rows))
	}
	return b.indexRequest(stmt, stmt.Rows[0])
}

func (b *requestBuilder) BuildDeleteByQueryRequest(stmt *statement.Statement) (*DeleteByQueryRequest, error) {
	return &DeleteByQueryRequest{
		Schema:     stmt.Schema,
		Table:      stmt.Table,
		Conditions: stmt.Conditions,
	}, nil
}

func (b *requestBuilder) BuildDeleteRequest(stmt *statement.Statement) (*DeleteRequest, error) {
	id, err := singleKey(stmt)
	if err != nil {
		return nil, err
	}
	return &DeleteRequest{
		Schema:  stmt.Schema,
		Table:   stmt.Table,
		ID:      id,
		Version: stmt.Version,
	}, nil
}

func (b *requestBuilder) BuildBulkRequest(stmt *statement.Statement) (*BulkRequest, error) {
	if len(stmt.Rows) == 0 {
		return nil, sqlerror.Malformedf("bulk insert without rows")
	}

	req := &BulkRequest{
		Schema: stmt.Schema,
		Table:  stmt.Table,
		Items:  make([]IndexRequest, 0, len(stmt.Rows)),
	}
	for _, row := range stmt.Rows {
		item, err := b.indexRequest(stmt, row)
		if err != nil {
			return nil, err
		}
		req.Items = append(req.Items, *item)
	}
	return req, nil
}

func (b *requestBuilder) BuildGetRequest(stmt *statement.Statement) (*GetRequest, error) {
	id, err := singleKey(stmt)
	if err != nil {
		return nil, err
	}
	return &GetRequest{
		Schema: stmt.Schema,
		Table:  stmt.Table,
		ID:     id,
		Fields: fields(stmt),
	}, nil
}

func (b *requestBuilder) BuildMultiGetRequest(stmt *statement.Statement) (*MultiGetRequest, error) {
	if len(stmt.PrimaryKeys) == 0 {
		return nil, sqlerror.Malformedf("multi get without primary keys")
	}
	return &MultiGetRequest{
		Schema: stmt.Schema,
		Table:  stmt.Table,
		IDs:    stmt.PrimaryKeys,
		Fields: fields(stmt),
	}, nil
}

func (b *requestBuilder) BuildUpdateRequest(stmt *statement.Statement) (*UpdateRequest, error) {
	id, err := singleKey(stmt)
	if err != nil {
		return nil, err
	}
	if len(stmt.Assignments) == 0 {
		return nil, sqlerror.Malformedf("update without assignments")
	}

	doc := make(map[string]interface{}, len(stmt.Assignments))
	for _, a := range stmt.Assignments {
		if a.Column == stmt.PrimaryKeyColumn || a.Column == FieldID || a.Column == FieldVersion {
			return nil, sqlerror.Malformedf("column %s can not be updated", a.Column)
		}
		doc[a.Column] = a.Value
	}
	return &UpdateRequest{
		Schema:  stmt.Schema,
		Table:   stmt.Table,
		ID:      id,
		Doc:     doc,
		Version: stmt.Version,
	}, nil
}

func (b *requestBuilder) BuildCountRequest(stmt *statement.Statement) (*CountRequest, error) {
	return &CountRequest{
		Schema:     stmt.Schema,
		Table:      stmt.Table,
		Conditions: stmt.Conditions,
	}, nil
}

func (b *requestBuilder) BuildCreateIndexRequest(stmt *statement.Statement) (*CreateIndexRequest, error) {
	if len(stmt.TableColumns) == 0 {
		return nil, sqlerror.Malformedf("create table %s without columns", stmt.QualifiedTable())
	}
	return &CreateIndexRequest{
		Schema:      stmt.Schema,
		Table:       stmt.Table,
		Columns:     stmt.TableColumns,
		PrimaryKey:  stmt.PrimaryKeyColumn,
		IfNotExists: stmt.IfNotExists,
	}, nil
}

func (b *requestBuilder) BuildDeleteIndexRequest(stmt *statement.Statement) (*DeleteIndexRequest, error) {
	return &DeleteIndexRequest{
		Schema:   stmt.Schema,
		Table:    stmt.Table,
		IfExists: stmt.IfExists,
	}, nil
}

func (b *requestBuilder) BuildClusterSettingsRequest(stmt *statement.Statement) (*ClusterSettingsRequest, error) {
	if len(stmt.Settings) == 0 {
		return nil, sqlerror.Malformedf("set without settings")
	}
	return &ClusterSettingsRequest{Settings: stmt.Settings}, nil
}

func (b *requestBuilder) BuildImportRequest(stmt *statement.Statement) (*ImportRequest, error) {
	if stmt.ImportPath == "" {
		return nil, sqlerror.Malformedf("copy %s without path", stmt.QualifiedTable())
	}
	return &ImportRequest{
		Schema: stmt.Schema,
		Table:  stmt.Table,
		Path:   stmt.ImportPath,
	}, nil
}

func (b *requestBuilder) indexRequest(stmt *statement.Statement, row []interface{}) (*IndexRequest, error) {
	if len(row) != len(stmt.Columns) {
		return nil, sqlerror.Malformedf("insert has %d columns but %d values",
			len(stmt.Columns), len(row))
	}

	req := &IndexRequest{
		Schema: stmt.Schema,
		Table:  stmt.Table,
		Source: make(map[string]interface{}, len(row)),
	}
	for i, column := range stmt.Columns {
		if column == stmt.PrimaryKeyColumn {
			id, err := statement.KeyString(row[i])
			if err != nil {
				return nil, sqlerror.MalformedWrap(err, "invalid primary key")
			}
			req.ID = id
		}
		if column == FieldID || column == FieldVersion {
			if column == stmt.PrimaryKeyColumn {
				continue
			}
			return nil, sqlerror.Malformedf("column %s can not be inserted", column)
		}
		req.Source[column] = row[i]
	}

	if req.ID == "" {
		req.ID = b.idGenerator()
	}
	return req, nil
}

func singleKey(stmt *statement.Statement) (string, error) {
	if len(stmt.PrimaryKeys) != 1 {
		return "", sqlerror.Malformedf("expect one primary key, got %d", len(stmt.PrimaryKeys))
	}
	return stmt.PrimaryKeys[0], nil
}

func fields(stmt *statement.Statement) []string {
	if len(stmt.Outputs) == 0 || hasStar(stmt) {
		return nil
	}
	values := make([]string, 0, len(stmt.Outputs))
	for _, o := range stmt.Outputs {
		values = append(values, o.Column)
	}
	return values
}
