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

import "fmt"

// Classification is the execution shape of a statement. Every classification
// maps to exactly one backend port.
type Classification int

const (
	ClassInformationSchema Classification = iota
	ClassInsert
	ClassDeleteByQuery
	ClassDelete
	ClassBulk
	ClassGet
	ClassMultiGet
	ClassUpdate
	ClassCreateIndex
	ClassDeleteIndex
	ClassSettingsUpdate
	ClassCopyImport
	ClassDistributedAggregation
	ClassCount
	ClassPlainSearch
)

var classificationNames = [...]string{
	ClassInformationSchema:      "information-schema",
	ClassInsert:                 "insert",
	ClassDeleteByQuery:          "delete-by-query",
	ClassDelete:                 "delete",
	ClassBulk:                   "bulk",
	ClassGet:                    "get",
	ClassMultiGet:               "multi-get",
	ClassUpdate:                 "update",
	ClassCreateIndex:            "create-index",
	ClassDeleteIndex:            "delete-index",
	ClassSettingsUpdate:         "settings-update",
	ClassCopyImport:             "copy-import",
	ClassDistributedAggregation: "distributed-aggregation",
	ClassCount:                  "count",
	ClassPlainSearch:            "plain-search",
}

func (c Classification) String() string {
	if c >= 0 && int(c) < len(classificationNames) {
		return classificationNames[c]
	}
	return fmt.Sprintf("classification(%d)", int(c))
}

var typeClassifications = map[Type]Classification{
	TypeInformationSchema: ClassInformationSchema,
	TypeInsert:            ClassInsert,
	TypeDeleteByQuery:     ClassDeleteByQuery,
	TypeDelete:            ClassDelete,
	TypeBulk:              ClassBulk,
	TypeGet:               ClassGet,
	TypeMultiGet:          ClassMultiGet,
	TypeUpdate:            ClassUpdate,
	TypeCreateIndex:       ClassCreateIndex,
	TypeDeleteIndex:       ClassDeleteIndex,
	TypeCreateAnalyzer:    ClassSettingsUpdate,
	TypeCopyImport:        ClassCopyImport,
	TypeDistributedStats:  ClassDistributedAggregation,
}

// Classify returns the classification of the statement. An explicit type tag
// always wins. Untyped statements with a group by or a global aggregate are
// distributed aggregations, even if they are also count only. The remaining
// count only statements are counts, everything else is a plain search.
func Classify(stmt *Statement) Classification {
	if c, ok := typeClassifications[stmt.Type]; ok {
		return c
	}

	switch {
	case stmt.HasGroupBy() || stmt.GlobalAggregate:
		return ClassDistributedAggregation
	case stmt.CountOnly:
		return ClassCount
	default:
		return ClassPlainSearch
	}
}
