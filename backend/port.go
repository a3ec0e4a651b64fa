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
	"context"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
)

// Port is an asynchronous backend operation. Execute must not block on the
// backend, the result is delivered to the listener exactly once.
type Port[Req, Resp any] interface {
	Execute(ctx context.Context, req Req, listener response.Listener[Resp])
}

// PortFunc adapts a function to the Port interface
type PortFunc[Req, Resp any] func(ctx context.Context, req Req, listener response.Listener[Resp])

// Execute calls f(ctx, req, listener)
func (f PortFunc[Req, Resp]) Execute(ctx context.Context, req Req, listener response.Listener[Resp]) {
	f(ctx, req, listener)
}

// Backend failure markers, backends mark their native errors with these.
var (
	ErrDocumentMissing = sqlerror.ErrDocumentMissing
	ErrVersionConflict = sqlerror.ErrVersionConflict
	ErrTableUnknown    = sqlerror.ErrTableUnknown
	ErrTableExists     = sqlerror.ErrTableExists
	ErrDuplicateKey    = sqlerror.ErrDuplicateKey
)

// Ports holds one port per statement classification.
type Ports struct {
	Search            Port[*SearchRequest, *SearchResponse]
	Index             Port[*IndexRequest, *IndexResponse]
	DeleteByQuery     Port[*DeleteByQueryRequest, *DeleteByQueryResponse]
	Delete            Port[*DeleteRequest, *DeleteResponse]
	Bulk              Port[*BulkRequest, *BulkResponse]
	Get               Port[*GetRequest, *GetResponse]
	MultiGet          Port[*MultiGetRequest, *MultiGetResponse]
	Update            Port[*UpdateRequest, *UpdateResponse]
	Count             Port[*CountRequest, *CountResponse]
	CreateIndex       Port[*CreateIndexRequest, *CreateIndexResponse]
	DeleteIndex       Port[*DeleteIndexRequest, *DeleteIndexResponse]
	ClusterSettings   Port[*ClusterSettingsRequest, *ClusterSettingsResponse]
	Import            Port[*ImportRequest, *ImportResponse]
	Distributed       Port[*DistributedRequest, *response.SQLResponse]
	InformationSchema Port[*statement.Statement, *response.SQLResponse]
}

// Validate returns an error if any port is missing
func (p Ports) Validate() error {
	missing := func(name string) error {
		return errors.Newf("missing %s port", name)
	}

	switch {
	case p.Search == nil:
		return missing("search")
	case p.Index == nil:
		return missing("index")
	case p.DeleteByQuery == nil:
		return missing("delete-by-query")
	case p.Delete == nil:
		return missing("delete")
	case p.Bulk == nil:
		return missing("bulk")
	case p.Get == nil:
		return missing("get")
	case p.MultiGet == nil:
		return missing("multi-get")
	case p.Update == nil:
		return missing("update")
	case p.Count == nil:
		return missing("count")
	case p.CreateIndex == nil:
		return missing("create-index")
	case p.DeleteIndex == nil:
		return missing("delete-index")
	case p.ClusterSettings == nil:
		return missing("cluster-settings")
	case p.Import == nil:
		return missing("import")
	case p.Distributed == nil:
		return missing("distributed")
	case p.InformationSchema == nil:
		return missing("information-schema")
	}
	return nil
}
