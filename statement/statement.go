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

package statement

import (
	"fmt"
	"strings"
)

// Type is the explicit statement type tag set by the analyzer. Statements
// without a tag are TypeDefault and are classified by their shape.
type Type int

const (
	// TypeDefault untyped select
	TypeDefault Type = iota
	TypeInformationSchema
	TypeInsert
	TypeDeleteByQuery
	TypeDelete
	TypeBulk
	TypeGet
	TypeMultiGet
	TypeUpdate
	TypeCreateIndex
	TypeDeleteIndex
	TypeCreateAnalyzer
	TypeCopyImport
	TypeDistributedStats
)

var typeNames = [...]string{
	TypeDefault:           "default",
	TypeInformationSchema: "information-schema",
	TypeInsert:            "insert",
	TypeDeleteByQuery:     "delete-by-query",
	TypeDelete:            "delete",
	TypeBulk:              "bulk",
	TypeGet:               "get",
	TypeMultiGet:          "multi-get",
	TypeUpdate:            "update",
	TypeCreateIndex:       "create-index",
	TypeDeleteIndex:       "delete-index",
	TypeCreateAnalyzer:    "create-analyzer",
	TypeCopyImport:        "copy-import",
	TypeDistributedStats:  "distributed-stats",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Aggregate functions supported in outputs
const (
	AggregateCount = "count"
	AggregateSum   = "sum"
	AggregateAvg   = "avg"
	AggregateMin   = "min"
	AggregateMax   = "max"
)

// Condition operators
const (
	OpEq        = "="
	OpNe        = "!="
	OpLt        = "<"
	OpLe        = "<="
	OpGt        = ">"
	OpGe        = ">="
	OpIn        = "in"
	OpNotIn     = "not in"
	OpLike      = "like"
	OpIsNull    = "is null"
	OpIsNotNull = "is not null"
)

// Output is one select output, a column, all columns or an aggregate.
type Output struct {
	// Name is the output column name, the alias if given
	Name string
	// Column is empty for "*" and count(*)
	Column    string
	Star      bool
	Aggregate string
	Distinct  bool
}

// IsAggregate returns true if the output is an aggregate function
func (o Output) IsAggregate() bool {
	return o.Aggregate != ""
}

// Condition is one predicate of the conjunctive where clause.
type Condition struct {
	Column string
	Op     string
	Value  interface{}
	// Values of in and not in
	Values []interface{}
}

// Assignment is one column assignment of an update.
type Assignment struct {
	Column string
	Value  interface{}
}

// Order is one order by item.
type Order struct {
	Column string
	Desc   bool
}

// ColumnDefinition is one column of a create table.
type ColumnDefinition struct {
	Name string
	Type string
}

// Statement is an analyzed statement.
type Statement struct {
	SQL    string
	Type   Type
	Schema string
	Table  string

	Outputs     []Output
	Columns     []string
	Rows        [][]interface{}
	Assignments []Assignment
	Conditions  []Condition

	PrimaryKeyColumn string
	PrimaryKeys      []string
	// Version is the expected _version of a delete or update, if given
	Version *int64

	GroupBy []string
	OrderBy []Order
	// Limit is nil if the statement has no limit
	Limit  *int64
	Offset int64

	// GlobalAggregate aggregates without group by, excluding count only
	GlobalAggregate bool
	// CountOnly the only output is count(*)
	CountOnly bool

	Settings     map[string]interface{}
	ImportPath   string
	TableColumns []ColumnDefinition
	IfExists     bool
	IfNotExists  bool
}

// QualifiedTable returns schema.table
func (s *Statement) QualifiedTable() string {
	return s.Schema + "." + s.Table
}

// HasGroupBy returns true if the statement has a group by clause
func (s *Statement) HasGroupBy() bool {
	return len(s.GroupBy) > 0
}

// HasAggregates returns true if any output is an aggregate
func (s *Statement) HasAggregates() bool {
	for _, o := range s.Outputs {
		if o.IsAggregate() {
			return true
		}
	}
	return false
}

// OutputNames returns the names of the outputs
func (s *Statement) OutputNames() []string {
	names := make([]string, 0, len(s.Outputs))
	for _, o := range s.Outputs {
		names = append(names, o.Name)
	}
	return names
}

// IsSystemSchema returns true if the schema is one of the reserved schemas
func IsSystemSchema(schema string) bool {
	switch strings.ToLower(schema) {
	case SchemaSys, SchemaInformation:
		return true
	}
	return false
}

// System columns of every document
const (
	ColumnID      = "_id"
	ColumnVersion = "_version"
)

// Reserved schemas
const (
	SchemaSys         = "sys"
	SchemaInformation = "information_schema"
)
