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

package log

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxStatementFieldLength = 256
)

// RequestIDField returns the request id field
func RequestIDField(id string) zap.Field {
	return zap.String("request-id", id)
}

// StatementField returns the sql statement field, long statements are truncated
func StatementField(stmt string) zap.Field {
	stmt = strings.TrimSpace(stmt)
	if len(stmt) > maxStatementFieldLength {
		stmt = stmt[:maxStatementFieldLength] + "..."
	}
	return zap.String("statement", stmt)
}

// ClassificationField returns the statement classification field
func ClassificationField(name string) zap.Field {
	return zap.String("classification", name)
}

// TableField returns the schema qualified table field
func TableField(schema, table string) zap.Field {
	if schema == "" {
		return zap.String("table", table)
	}
	return zap.String("table", schema+"."+table)
}

// WorkerCountField returns the available workers field
func WorkerCountField(n int) zap.Field {
	return zap.Int("available-workers", n)
}

// GroupField returns the partition group field
func GroupField(index, size int) zap.Field {
	return zap.Ints("group", []int{index, size})
}

// UnitCountField returns the work unit count field
func UnitCountField(n int) zap.Field {
	return zap.Int("work-units", n)
}

// ErrorKindField returns the outward error kind field
func ErrorKindField(kind string) zap.Field {
	return zap.String("error-kind", kind)
}

// DurationField returns the elapsed time field
func DurationField(d time.Duration) zap.Field {
	return zap.Duration("duration", d)
}

// ReasonField returns zap.StringField
func ReasonField(why string) zap.Field {
	return zap.String("reason", why)
}

// ListenAddressField return address field
func ListenAddressField(address string) zap.Field {
	return zap.String("listen-address", address)
}

// ShardField returns the engine shard field
func ShardField(shard int) zap.Field {
	return zap.Int("shard", shard)
}
