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

package dispatcher

import (
	"time"

	"github.com/google/uuid"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/statement"
)

// Request is an inbound statement.
type Request struct {
	ID        string
	SQL       string
	Args      []interface{}
	CreatedAt time.Time
}

// NewRequest returns a request with a random id. A zero createdAt is
// replaced with the current time.
func NewRequest(sql string, args []interface{}, createdAt time.Time) *Request {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &Request{
		ID:        uuid.NewString(),
		SQL:       sql,
		Args:      args,
		CreatedAt: createdAt,
	}
}

// requestContext lives from classification until the listener is notified
type requestContext struct {
	req            *Request
	stmt           *statement.Statement
	classification statement.Classification
	listener       response.Listener[*response.SQLResponse]
}
