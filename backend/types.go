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
	"time"

	"github.com/matrixorigin/cubesql/statement"
)

// Document fields maintained by the backend
const (
	FieldID      = statement.ColumnID
	FieldVersion = statement.ColumnVersion
)

// Hit is one document returned by a read.
type Hit struct {
	ID      string
	Version int64
	Source  map[string]interface{}
}

// Field returns the value of the field, including the _id and _version
// fields.
func (h Hit) Field(name string) interface{} {
	switch name {
	case FieldID:
		return h.ID
	case FieldVersion:
		return h.Version
	}
	return h.Source[name]
}

// SearchRequest filters, sorts and projects the documents of a table.
type SearchRequest struct {
	Schema string
	Table  string
	// Fields to return, nil returns every column of the table
	Fields     []string
	Conditions []statement.Condition
	OrderBy    []statement.Order
	Limit      *int64
	Offset     int64
}

// SearchResponse contains the hits in order and the returned fields.
type SearchResponse struct {
	Fields []string
	Hits   []Hit
}

// IndexRequest writes a new document.
type IndexRequest struct {
	Schema string
	Table  string
	ID     string
	Source map[string]interface{}
}

// IndexResponse result of an index request
type IndexResponse struct {
	ID      string
	Version int64
}

// DeleteByQueryRequest deletes the documents matching the conditions.
type DeleteByQueryRequest struct {
	Schema     string
	Table      string
	Conditions []statement.Condition
}

// DeleteByQueryResponse result of a delete by query request
type DeleteByQueryResponse struct {
	Deleted int64
}

// DeleteRequest deletes one document by id, the delete fails with
// ErrVersionConflict if Version is set and does not match.
type DeleteRequest struct {
	Schema  string
	Table   string
	ID      string
	Version *int64
}

// DeleteResponse result of a delete request
type DeleteResponse struct {
	ID    string
	Found bool
}

// BulkRequest writes many documents, every item succeeds or fails alone.
type BulkRequest struct {
	Schema string
	Table  string
	Items  []IndexRequest
}

// BulkItemResponse result of one bulk item
type BulkItemResponse struct {
	ID      string
	Version int64
	Err     error
}

// BulkResponse result of a bulk request, one item per request item
type BulkResponse struct {
	Items []BulkItemResponse
}

// Succeeded returns the number of successful items
func (r *BulkResponse) Succeeded() int64 {
	n := int64(0)
	for _, item := range r.Items {
		if item.Err == nil {
			n++
		}
	}
	return n
}

// GetRequest reads one document by id.
type GetRequest struct {
	Schema string
	Table  string
	ID     string
	Fields []string
}

// GetResponse result of a get request
type GetResponse struct {
	Fields []string
	Found  bool
	Hit    Hit
}

// MultiGetRequest reads many documents by id.
type MultiGetRequest struct {
	Schema string
	Table  string
	IDs    []string
	Fields []string
}

// MultiGetResponse contains the found documents in request order.
type MultiGetResponse struct {
	Fields []string
	Hits   []Hit
}

// UpdateRequest updates one document by id. The update fails with
// ErrDocumentMissing if the document does not exist, and with
// ErrVersionConflict if Version is set and does not match.
type UpdateRequest struct {
	Schema  string
	Table   string
	ID      string
	Doc     map[string]interface{}
	Version *int64
}

// UpdateResponse result of an update request
type UpdateResponse struct {
	ID      string
	Version int64
}

// CountRequest counts the documents matching the conditions.
type CountRequest struct {
	Schema     string
	Table      string
	Conditions []statement.Condition
}

// CountResponse result of a count request
type CountResponse struct {
	Count int64
}

// CreateIndexRequest creates a table.
type CreateIndexRequest struct {
	Schema      string
	Table       string
	Columns     []statement.ColumnDefinition
	PrimaryKey  string
	IfNotExists bool
}

// CreateIndexResponse result of a create index request
type CreateIndexResponse struct {
	Acknowledged bool
}

// DeleteIndexRequest drops a table and its documents.
type DeleteIndexRequest struct {
	Schema   string
	Table    string
	IfExists bool
}

// DeleteIndexResponse result of a delete index request
type DeleteIndexResponse struct {
	Acknowledged bool
}

// ClusterSettingsRequest updates persistent cluster settings.
type ClusterSettingsRequest struct {
	Settings map[string]interface{}
}

// ClusterSettingsResponse result of a cluster settings request
type ClusterSettingsResponse struct {
	Acknowledged bool
	Settings     map[string]interface{}
}

// ImportRequest imports json lines files into a table.
type ImportRequest struct {
	Schema string
	Table  string
	Path   string
}

// ImportResponse result of an import request
type ImportResponse struct {
	Files    int
	Imported int64
	Failed   int64
}

// DistributedRequest runs an aggregation or a stats query over all shards.
type DistributedRequest struct {
	SQL       string
	Args      []interface{}
	CreatedAt time.Time
	Statement *statement.Statement
}
