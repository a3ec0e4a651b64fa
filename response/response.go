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

package response

import (
	"time"
)

// SQLResponse is the uniform response of every statement, regardless of the
// backend that executed it.
type SQLResponse struct {
	Cols     []string
	Rows     [][]interface{}
	RowCount int64
	// Duration is the time from RequestStartedTime until the response was
	// normalized
	Duration           time.Duration
	RequestStartedTime time.Time
	// DocumentMissing is set if an update found no document to update
	DocumentMissing bool
}

// NewRowCountResponse returns a response without rows
func NewRowCountResponse(rowCount int64) *SQLResponse {
	return &SQLResponse{Cols: []string{}, Rows: [][]interface{}{}, RowCount: rowCount}
}

// NewRowsResponse returns a response with rows, the row count is the number
// of rows
func NewRowsResponse(cols []string, rows [][]interface{}) *SQLResponse {
	if cols == nil {
		cols = []string{}
	}
	if rows == nil {
		rows = [][]interface{}{}
	}
	return &SQLResponse{Cols: cols, Rows: rows, RowCount: int64(len(rows))}
}
