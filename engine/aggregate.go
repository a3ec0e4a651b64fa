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
	"hash/fnv"
	"sort"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/matrixorigin/cubesql/statement"
	"github.com/montanaflynn/stats"
)

// partial is the aggregation state of a subset of the rows. Partials are
// merged in any grouping and order with the same final result.
//
// count(distinct) is approximate: it counts the 64 bit fnv hashes of the
// encoded values, so distinct values with colliding hashes are counted once.
type partial struct {
	groups map[string]*groupState
}

type groupState struct {
	keys []interface{}
	aggs []*aggState
}

// aggState is the state of one aggregate output. count(distinct) keeps the
// hashes of the values, sum, avg, min and max keep the numeric values. While
// every value is an int64, sum, min and max are also kept exactly.
type aggState struct {
	count    int64
	values   stats.Float64Data
	integral bool
	// overflow is set once the exact sum left the int64 range
	overflow bool
	sum      int64
	min      int64
	max      int64
	distinct *roaring64.Bitmap
}

func newPartial() *partial {
	return &partial{groups: make(map[string]*groupState)}
}

// add aggregates the row into its group
func (p *partial) add(stmt *statement.Statement, r row) error {
	keys := make([]interface{}, 0, len(stmt.GroupBy))
	for _, column := range stmt.GroupBy {
		keys = append(keys, r.Field(column))
	}
	g, err := p.group(stmt, keys)
	if err != nil {
		return err
	}

	for i, o := range stmt.Outputs {
		if !o.IsAggregate() {
			continue
		}
		if o.Column == "" {
			g.aggs[i].count++
			continue
		}
		if err := g.aggs[i].add(o, r.Field(o.Column)); err != nil {
			return err
		}
	}
	return nil
}

func (p *partial) group(stmt *statement.Statement, keys []interface{}) (*groupState, error) {
	id, err := codec.MarshalToString(keys)
	if err != nil {
		return nil, err
	}
	if g, ok := p.groups[id]; ok {
		return g, nil
	}

	g := &groupState{keys: keys, aggs: make([]*aggState, len(stmt.Outputs))}
	for i, o := range stmt.Outputs {
		if o.IsAggregate() {
			g.aggs[i] = &aggState{integral: true}
			if o.Distinct {
				g.aggs[i].distinct = roaring64.New()
			}
		}
	}
	p.groups[id] = g
	return g, nil
}

// merge merges the other partial into p
func (p *partial) merge(other *partial) {
	for id, og := range other.groups {
		g, ok := p.groups[id]
		if !ok {
			p.groups[id] = og
			continue
		}
		for i, a := range g.aggs {
			if a != nil {
				a.merge(og.aggs[i])
			}
		}
	}
}

func mergePartials(parts []*partial) (*partial, error) {
	result := newPartial()
	for _, p := range parts {
		result.merge(p)
	}
	return result, nil
}

func (a *aggState) add(o statement.Output, value interface{}) error {
	if value == nil {
		return nil
	}
	if a.distinct != nil {
		data, err := codec.Marshal(value)
		if err != nil {
			return err
		}
		h := fnv.New64a()
		h.Write(data)
		a.distinct.Add(h.Sum64())
		return nil
	}

	a.count++
	if o.Aggregate == statement.AggregateCount {
		return nil
	}
	f, ok := toFloat(value)
	if !ok {
		return nil
	}
	if i, ok := value.(int64); ok {
		a.addExact(len(a.values) == 0, i, i, i)
	} else {
		a.integral = false
	}
	a.values = append(a.values, f)
	return nil
}

func (a *aggState) addExact(first bool, sum, min, max int64) {
	if first {
		a.sum, a.min, a.max = sum, min, max
		return
	}
	s := a.sum + sum
	if (sum > 0 && s < a.sum) || (sum < 0 && s > a.sum) {
		a.overflow = true
	}
	a.sum = s
	if min < a.min {
		a.min = min
	}
	if max > a.max {
		a.max = max
	}
}

func (a *aggState) merge(other *aggState) {
	a.count += other.count
	if len(other.values) > 0 {
		a.addExact(len(a.values) == 0, other.sum, other.min, other.max)
		a.overflow = a.overflow || other.overflow
		a.values = append(a.values, other.values...)
	}
	a.integral = a.integral && other.integral
	if a.distinct != nil && other.distinct != nil {
		a.distinct.Or(other.distinct)
	}
}

func (a *aggState) result(aggregate string) interface{} {
	if a.distinct != nil && aggregate == statement.AggregateCount {
		return int64(a.distinct.GetCardinality())
	}

	if aggregate == statement.AggregateCount {
		return a.count
	}
	if len(a.values) == 0 {
		return nil
	}
	if a.integral {
		switch aggregate {
		case statement.AggregateSum:
			if !a.overflow {
				return a.sum
			}
		case statement.AggregateMin:
			return a.min
		case statement.AggregateMax:
			return a.max
		}
	}

	var v float64
	var err error
	switch aggregate {
	case statement.AggregateSum:
		v, err = stats.Sum(a.values)
	case statement.AggregateAvg:
		if v, err = stats.Mean(a.values); err == nil {
			return v
		}
	case statement.AggregateMin:
		v, err = stats.Min(a.values)
	case statement.AggregateMax:
		v, err = stats.Max(a.values)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return v
}

// finalize reduces the merged partial into the result rows, ordered and
// paged by the statement
func finalize(stmt *statement.Statement, p *partial) ([]string, [][]interface{}, error) {
	if len(stmt.GroupBy) == 0 && len(p.groups) == 0 {
		if _, err := p.group(stmt, []interface{}{}); err != nil {
			return nil, nil, err
		}
	}

	ids := make([]string, 0, len(p.groups))
	for id := range p.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	names := stmt.OutputNames()
	columns := make([]string, 0, len(stmt.Outputs))
	for _, o := range stmt.Outputs {
		columns = append(columns, o.Column)
	}

	rows := make([][]interface{}, 0, len(ids))
	for _, id := range ids {
		g := p.groups[id]
		row := make([]interface{}, 0, len(stmt.Outputs))
		for i, o := range stmt.Outputs {
			if o.IsAggregate() {
				row = append(row, g.aggs[i].result(o.Aggregate))
				continue
			}
			if idx := indexOf(stmt.GroupBy, o.Column); idx >= 0 {
				row = append(row, g.keys[idx])
			} else {
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}

	if len(stmt.OrderBy) > 0 {
		indexes, err := orderColumns(stmt.OrderBy, names, columns)
		if err != nil {
			return nil, nil, err
		}
		sortRows(rows, indexes, stmt.OrderBy)
	}
	return names, page(rows, stmt.Offset, stmt.Limit), nil
}
