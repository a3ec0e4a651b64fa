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
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/statement"
)

// Converters from backend responses to the uniform response. Read converters
// take the statement to name the output columns after its aliases.

// FromSearch converts a search response
func FromSearch(stmt *statement.Statement) response.Converter[*SearchResponse] {
	return func(resp *SearchResponse) (*response.SQLResponse, error) {
		return response.NewRowsResponse(columns(stmt, resp.Fields), rows(resp.Fields, resp.Hits)), nil
	}
}

// FromIndex converts an index response
func FromIndex(resp *IndexResponse) (*response.SQLResponse, error) {
	return response.NewRowCountResponse(1), nil
}

// FromDeleteByQuery converts a delete by query response
func FromDeleteByQuery(resp *DeleteByQueryResponse) (*response.SQLResponse, error) {
	return response.NewRowCountResponse(resp.Deleted), nil
}

// FromDelete converts a delete response
func FromDelete(resp *DeleteResponse) (*response.SQLResponse, error) {
	if !resp.Found {
		return response.NewRowCountResponse(0), nil
	}
	return response.NewRowCountResponse(1), nil
}

// FromBulk converts a bulk response, the row count is the number of
// successful items
func FromBulk(resp *BulkResponse) (*response.SQLResponse, error) {
	return response.NewRowCountResponse(resp.Succeeded()), nil
}

// FromGet converts a get response
func FromGet(stmt *statement.Statement) response.Converter[*GetResponse] {
	return func(resp *GetResponse) (*response.SQLResponse, error) {
		var hits []Hit
		if resp.Found {
			hits = []Hit{resp.Hit}
		}
		return response.NewRowsResponse(columns(stmt, resp.Fields), rows(resp.Fields, hits)), nil
	}
}

// FromMultiGet converts a multi get response
func FromMultiGet(stmt *statement.Statement) response.Converter[*MultiGetResponse] {
	return func(resp *MultiGetResponse) (*response.SQLResponse, error) {
		return response.NewRowsResponse(columns(stmt, resp.Fields), rows(resp.Fields, resp.Hits)), nil
	}
}

// FromUpdate converts an update response
func FromUpdate(resp *UpdateResponse) (*response.SQLResponse, error) {
	return response.NewRowCountResponse(1), nil
}

// FromCount converts a count response into a single row
func FromCount(stmt *statement.Statement) response.Converter[*CountResponse] {
	return func(resp *CountResponse) (*response.SQLResponse, error) {
		cols := stmt.OutputNames()
		if len(cols) != 1 {
			cols = []string{"count(*)"}
		}
		return response.NewRowsResponse(cols, [][]interface{}{{resp.Count}}), nil
	}
}

// FromCreateIndex converts a create index response
func FromCreateIndex(resp *CreateIndexResponse) (*response.SQLResponse, error) {
	return response.NewRowCountResponse(0), nil
}

// FromDeleteIndex converts a delete index response
func FromDeleteIndex(resp *DeleteIndexResponse) (*response.SQLResponse, error) {
	return response.NewRowCountResponse(0), nil
}

// FromClusterSettings converts a cluster settings response
func FromClusterSettings(resp *ClusterSettingsResponse) (*response.SQLResponse, error) {
	return response.NewRowCountResponse(0), nil
}

// FromImport converts an import response, the row count is the number of
// imported rows
func FromImport(resp *ImportResponse) (*response.SQLResponse, error) {
	return response.NewRowCountResponse(resp.Imported), nil
}

func columns(stmt *statement.Statement, fields []string) []string {
	names := stmt.OutputNames()
	if len(names) == len(fields) && !hasStar(stmt) {
		return names
	}
	return fields
}

func hasStar(stmt *statement.Statement) bool {
	for _, o := range stmt.Outputs {
		if o.Star {
			return true
		}
	}
	return false
}

func rows(fields []string, hits []Hit) [][]interface{} {
	values := make([][]interface{}, 0, len(hits))
	for _, hit := range hits {
		row := make([]interface{}, 0, len(fields))
		for _, f := range fields {
			row = append(row, hit.Field(f))
		}
		values = append(values, row)
	}
	return values
}
