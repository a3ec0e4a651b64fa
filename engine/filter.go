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
	"regexp"
	"sort"
	"strings"

	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
)

// row is a named value source conditions are evaluated against
type row interface {
	Field(name string) interface{}
}

type mapRow map[string]interface{}

func (r mapRow) Field(name string) interface{} {
	return r[name]
}

func matches(conditions []statement.Condition, r row) bool {
	for _, c := range conditions {
		if !match(c, r.Field(c.Column)) {
			return false
		}
	}
	return true
}

func match(c statement.Condition, value interface{}) bool {
	switch c.Op {
	case statement.OpIsNull:
		return value == nil
	case statement.OpIsNotNull:
		return value != nil
	case statement.OpIn, statement.OpNotIn:
		if value == nil {
			return false
		}
		found := false
		for _, v := range c.Values {
			if cmp, ok := compare(value, v); ok && cmp == 0 {
				found = true
				break
			}
		}
		return found == (c.Op == statement.OpIn)
	case statement.OpLike:
		s, ok := value.(string)
		pattern, ok2 := c.Value.(string)
		return ok && ok2 && like(pattern, s)
	}

	cmp, ok := compare(value, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case statement.OpEq:
		return cmp == 0
	case statement.OpNe:
		return cmp != 0
	case statement.OpLt:
		return cmp < 0
	case statement.OpLe:
		return cmp <= 0
	case statement.OpGt:
		return cmp > 0
	case statement.OpGe:
		return cmp >= 0
	}
	return false
}

// compare returns -1, 0 or 1, ok is false if the values are not comparable.
// Null is not comparable with anything.
func compare(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	if x, ok := a.(int64); ok {
		if y, ok := b.(int64); ok {
			return compareOrdered(x, y), true
		}
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return compareOrdered(x, y), true
		}
		return 0, false
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

func compareOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// like matches s against a sql like pattern, % matches any sequence and _
// matches one character
func like(pattern, s string) bool {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString("(?s:.*)")
		case '_':
			b.WriteString("(?s:.)")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	ok, err := regexp.MatchString(b.String(), s)
	return err == nil && ok
}

// sortRows orders rows by the order by items, nulls first. Values that are
// not comparable keep their relative order.
func sortRows(rows [][]interface{}, columns []int, orders []statement.Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		return less(orders, func(k int) (interface{}, interface{}) {
			return rows[i][columns[k]], rows[j][columns[k]]
		})
	})
}

// sortRecords orders rows that are not projected yet
func sortRecords[R row](records []R, orders []statement.Order) {
	sort.SliceStable(records, func(i, j int) bool {
		return less(orders, func(k int) (interface{}, interface{}) {
			return records[i].Field(orders[k].Column), records[j].Field(orders[k].Column)
		})
	})
}

func less(orders []statement.Order, values func(k int) (interface{}, interface{})) bool {
	for k, o := range orders {
		a, b := values(k)
		cmp := 0
		switch {
		case a == nil && b == nil:
		case a == nil:
			cmp = -1
		case b == nil:
			cmp = 1
		default:
			cmp, _ = compare(a, b)
		}
		if o.Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
	}
	return false
}

// page applies offset and limit
func page[T any](values []T, offset int64, limit *int64) []T {
	if offset >= int64(len(values)) {
		return values[:0]
	}
	values = values[offset:]
	if limit != nil && *limit < int64(len(values)) {
		values = values[:*limit]
	}
	return values
}

// orderColumns resolves the order by items against the output names, then
// against the output columns
func orderColumns(orders []statement.Order, names []string, columns []string) ([]int, error) {
	indexes := make([]int, 0, len(orders))
	for _, o := range orders {
		idx := indexOf(names, o.Column)
		if idx < 0 {
			idx = indexOf(columns, o.Column)
		}
		if idx < 0 {
			return nil, sqlerror.Malformedf("order by column %s is not selected", o.Column)
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func indexOf(values []string, value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}
