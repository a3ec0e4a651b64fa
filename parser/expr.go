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

package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
	"github.com/xwb1989/sqlparser"
)

type binder struct {
	args []interface{}
}

func newBinder(tree *Tree, args []interface{}) (*binder, error) {
	if n := placeholders(tree); n != len(args) {
		return nil, sqlerror.Malformedf("statement has %d placeholders but %d args", n, len(args))
	}

	values := make([]interface{}, 0, len(args))
	for _, arg := range args {
		values = append(values, normalizeArg(arg))
	}
	return &binder{args: values}, nil
}

func placeholders(tree *Tree) int {
	if tree.Copy != nil {
		if tree.Copy.Placeholder {
			return 1
		}
		return 0
	}

	n := 0
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if v, ok := node.(*sqlparser.SQLVal); ok && v.Type == sqlparser.ValArg {
			n++
		}
		return true, nil
	}, tree.Statement)
	return n
}

// normalizeArg converts integral json numbers into int64
func normalizeArg(arg interface{}) interface{} {
	switch v := arg.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
			return int64(v)
		}
	}
	return arg
}

// arg returns the 1-based positional arg
func (b *binder) arg(index int) (interface{}, error) {
	if index < 1 || index > len(b.args) {
		return nil, sqlerror.Malformedf("missing arg %d", index)
	}
	return b.args[index-1], nil
}

func (b *binder) value(expr sqlparser.Expr) (interface{}, error) {
	switch e := expr.(type) {
	case *sqlparser.SQLVal:
		return b.literal(e)
	case *sqlparser.NullVal:
		return nil, nil
	case sqlparser.BoolVal:
		return bool(e), nil
	case *sqlparser.ParenExpr:
		return b.value(e.Expr)
	case *sqlparser.UnaryExpr:
		v, err := b.value(e.Expr)
		if err != nil {
			return nil, err
		}
		switch e.Operator {
		case sqlparser.UPlusStr:
			return v, nil
		case sqlparser.UMinusStr:
			switch n := v.(type) {
			case int64:
				return -n, nil
			case float64:
				return -n, nil
			}
		}
	}
	return nil, sqlerror.Malformedf("unsupported value expression: %s", sqlparser.String(expr))
}

func (b *binder) literal(v *sqlparser.SQLVal) (interface{}, error) {
	text := string(v.Val)
	switch v.Type {
	case sqlparser.StrVal:
		return text, nil
	case sqlparser.IntVal:
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n, nil
		}
		if n, err := strconv.ParseUint(text, 10, 64); err == nil {
			return n, nil
		}
		return strconv.ParseFloat(text, 64)
	case sqlparser.FloatVal:
		return strconv.ParseFloat(text, 64)
	case sqlparser.ValArg:
		index, err := strconv.Atoi(strings.TrimPrefix(text, ":v"))
		if err != nil {
			return nil, sqlerror.Malformedf("named arg %s is not supported", text)
		}
		return b.arg(index)
	}
	return nil, sqlerror.Malformedf("unsupported literal: %s", sqlparser.String(v))
}

var aggregates = map[string]bool{
	statement.AggregateCount: true,
	statement.AggregateSum:   true,
	statement.AggregateAvg:   true,
	statement.AggregateMin:   true,
	statement.AggregateMax:   true,
}

func aggregateName(aggregate string, distinct bool, column string) string {
	if column == "" {
		column = "*"
	}
	if distinct {
		column = "distinct " + column
	}
	return fmt.Sprintf("%s(%s)", aggregate, column)
}

func outputs(exprs sqlparser.SelectExprs) ([]statement.Output, error) {
	values := make([]statement.Output, 0, len(exprs))
	star := false
	for _, e := range exprs {
		switch se := e.(type) {
		case *sqlparser.StarExpr:
			star = true
			values = append(values, statement.Output{Name: "*", Star: true})
		case *sqlparser.AliasedExpr:
			o, err := output(se.Expr)
			if err != nil {
				return nil, err
			}
			if !se.As.IsEmpty() {
				o.Name = se.As.Lowered()
			}
			values = append(values, o)
		default:
			return nil, sqlerror.Malformedf("unsupported select expression: %s", sqlparser.String(e))
		}
	}
	if star && len(values) > 1 {
		return nil, sqlerror.Malformedf("* can not be mixed with other outputs")
	}
	return values, nil
}

func output(expr sqlparser.Expr) (statement.Output, error) {
	switch e := expr.(type) {
	case *sqlparser.ColName:
		name := e.Name.Lowered()
		return statement.Output{Name: name, Column: name}, nil
	case *sqlparser.FuncExpr:
		return aggregate(e)
	}
	return statement.Output{}, sqlerror.Malformedf("unsupported output: %s", sqlparser.String(expr))
}

func aggregate(e *sqlparser.FuncExpr) (statement.Output, error) {
	name := e.Name.Lowered()
	if !aggregates[name] {
		return statement.Output{}, sqlerror.Malformedf("unknown function %s", name)
	}
	if len(e.Exprs) != 1 {
		return statement.Output{}, sqlerror.Malformedf("%s requires exactly one argument", name)
	}
	if e.Distinct && name != statement.AggregateCount {
		return statement.Output{}, sqlerror.Malformedf("%s(distinct) is not supported", name)
	}

	o := statement.Output{Aggregate: name, Distinct: e.Distinct}
	switch arg := e.Exprs[0].(type) {
	case *sqlparser.StarExpr:
		if name != statement.AggregateCount || e.Distinct {
			return statement.Output{}, sqlerror.Malformedf("%s(*) is not supported", name)
		}
	case *sqlparser.AliasedExpr:
		col, ok := arg.Expr.(*sqlparser.ColName)
		if !ok {
			return statement.Output{}, sqlerror.Malformedf("%s argument must be a column", name)
		}
		o.Column = col.Name.Lowered()
	default:
		return statement.Output{}, sqlerror.Malformedf("unsupported %s argument", name)
	}
	o.Name = aggregateName(name, o.Distinct, o.Column)
	return o, nil
}

func groupBy(exprs sqlparser.GroupBy) ([]string, error) {
	var columns []string
	for _, expr := range exprs {
		col, ok := expr.(*sqlparser.ColName)
		if !ok {
			return nil, sqlerror.Malformedf("group by must reference columns: %s", sqlparser.String(expr))
		}
		columns = append(columns, col.Name.Lowered())
	}
	return columns, nil
}

// checkGrouping requires every plain output of an aggregation to be a group
// by column
func checkGrouping(stmt *statement.Statement) error {
	if !stmt.HasGroupBy() && !stmt.HasAggregates() {
		return nil
	}

	for _, o := range stmt.Outputs {
		if o.IsAggregate() {
			continue
		}
		if o.Star || !contains(stmt.GroupBy, o.Column) {
			return sqlerror.Malformedf("output %s must be an aggregate or appear in group by", o.Name)
		}
	}
	return nil
}

func orderBy(orders sqlparser.OrderBy) ([]statement.Order, error) {
	var values []statement.Order
	for _, order := range orders {
		o := statement.Order{Desc: order.Direction == sqlparser.DescScr}
		switch e := order.Expr.(type) {
		case *sqlparser.ColName:
			o.Column = e.Name.Lowered()
		case *sqlparser.FuncExpr:
			agg, err := aggregate(e)
			if err != nil {
				return nil, err
			}
			o.Column = agg.Name
		default:
			return nil, sqlerror.Malformedf("unsupported order by: %s", sqlparser.String(order.Expr))
		}
		values = append(values, o)
	}
	return values, nil
}

func limit(l *sqlparser.Limit, b *binder) (*int64, int64, error) {
	var offset int64
	if l.Offset != nil {
		v, err := b.value(l.Offset)
		if err != nil {
			return nil, 0, err
		}
		if offset, err = nonNegative(v); err != nil {
			return nil, 0, err
		}
	}
	if l.Rowcount == nil {
		return nil, offset, nil
	}

	v, err := b.value(l.Rowcount)
	if err != nil {
		return nil, 0, err
	}
	n, err := nonNegative(v)
	if err != nil {
		return nil, 0, err
	}
	return &n, offset, nil
}

func nonNegative(v interface{}) (int64, error) {
	n, ok := v.(int64)
	if !ok || n < 0 {
		return 0, sqlerror.Malformedf("expect a non negative integer, got %v", v)
	}
	return n, nil
}

var comparisonOps = map[string]string{
	sqlparser.EqualStr:        statement.OpEq,
	sqlparser.NotEqualStr:     statement.OpNe,
	sqlparser.LessThanStr:     statement.OpLt,
	sqlparser.LessEqualStr:    statement.OpLe,
	sqlparser.GreaterThanStr:  statement.OpGt,
	sqlparser.GreaterEqualStr: statement.OpGe,
	sqlparser.InStr:           statement.OpIn,
	sqlparser.NotInStr:        statement.OpNotIn,
	sqlparser.LikeStr:         statement.OpLike,
}

var flippedOps = map[string]string{
	statement.OpEq: statement.OpEq,
	statement.OpNe: statement.OpNe,
	statement.OpLt: statement.OpGt,
	statement.OpLe: statement.OpGe,
	statement.OpGt: statement.OpLt,
	statement.OpGe: statement.OpLe,
}

// conditions flattens the where clause into a conjunction of predicates
func conditions(expr sqlparser.Expr, b *binder) ([]statement.Condition, error) {
	var values []statement.Condition
	var walk func(sqlparser.Expr) error
	walk = func(expr sqlparser.Expr) error {
		switch e := expr.(type) {
		case *sqlparser.AndExpr:
			if err := walk(e.Left); err != nil {
				return err
			}
			return walk(e.Right)
		case *sqlparser.ParenExpr:
			return walk(e.Expr)
		case *sqlparser.ComparisonExpr:
			c, err := comparison(e, b)
			if err != nil {
				return err
			}
			values = append(values, c)
			return nil
		case *sqlparser.RangeCond:
			col, ok := e.Left.(*sqlparser.ColName)
			if !ok || e.Operator != sqlparser.BetweenStr {
				return sqlerror.Malformedf("unsupported range condition: %s", sqlparser.String(e))
			}
			from, err := b.value(e.From)
			if err != nil {
				return err
			}
			to, err := b.value(e.To)
			if err != nil {
				return err
			}
			values = append(values,
				statement.Condition{Column: col.Name.Lowered(), Op: statement.OpGe, Value: from},
				statement.Condition{Column: col.Name.Lowered(), Op: statement.OpLe, Value: to})
			return nil
		case *sqlparser.IsExpr:
			col, ok := e.Expr.(*sqlparser.ColName)
			if !ok {
				return sqlerror.Malformedf("unsupported is expression: %s", sqlparser.String(e))
			}
			switch e.Operator {
			case sqlparser.IsNullStr:
				values = append(values, statement.Condition{Column: col.Name.Lowered(), Op: statement.OpIsNull})
			case sqlparser.IsNotNullStr:
				values = append(values, statement.Condition{Column: col.Name.Lowered(), Op: statement.OpIsNotNull})
			default:
				return sqlerror.Malformedf("unsupported is expression: %s", sqlparser.String(e))
			}
			return nil
		case *sqlparser.OrExpr:
			return sqlerror.Malformedf("or is not supported")
		}
		return sqlerror.Malformedf("unsupported condition: %s", sqlparser.String(expr))
	}

	if err := walk(expr); err != nil {
		return nil, err
	}
	return values, nil
}

func comparison(e *sqlparser.ComparisonExpr, b *binder) (statement.Condition, error) {
	op, ok := comparisonOps[e.Operator]
	if !ok {
		return statement.Condition{}, sqlerror.Malformedf("unsupported operator %s", e.Operator)
	}

	left, right := e.Left, e.Right
	col, ok := left.(*sqlparser.ColName)
	if !ok {
		col, ok = right.(*sqlparser.ColName)
		flipped, canFlip := flippedOps[op]
		if !ok || !canFlip {
			return statement.Condition{}, sqlerror.Malformedf("condition must compare a column: %s", sqlparser.String(e))
		}
		op, right = flipped, left
	}

	c := statement.Condition{Column: col.Name.Lowered(), Op: op}
	if op == statement.OpIn || op == statement.OpNotIn {
		tuple, ok := right.(sqlparser.ValTuple)
		if !ok {
			return statement.Condition{}, sqlerror.Malformedf("%s requires a value list", op)
		}
		for _, expr := range tuple {
			v, err := b.value(expr)
			if err != nil {
				return statement.Condition{}, err
			}
			c.Values = append(c.Values, v)
		}
		return c, nil
	}

	v, err := b.value(right)
	if err != nil {
		return statement.Condition{}, err
	}
	c.Value = v
	return c, nil
}

func isCountOnly(outputs []statement.Output) bool {
	return len(outputs) == 1 &&
		outputs[0].Aggregate == statement.AggregateCount &&
		outputs[0].Column == "" &&
		!outputs[0].Distinct
}

// primaryKeyLookup returns the keys of a select whose only condition is a
// primary key equality or in list
func primaryKeyLookup(stmt *statement.Statement) ([]string, string, bool) {
	if len(stmt.Conditions) != 1 {
		return nil, "", false
	}
	c := stmt.Conditions[0]
	if c.Column != stmt.PrimaryKeyColumn {
		return nil, "", false
	}

	var values []interface{}
	switch c.Op {
	case statement.OpEq:
		values = []interface{}{c.Value}
	case statement.OpIn:
		values = c.Values
	default:
		return nil, "", false
	}

	keys, ok := keyStrings(values)
	return keys, c.Op, ok
}

// primaryKeyWrite returns the key of a write whose conditions are a primary
// key equality and an optional _version equality
func primaryKeyWrite(stmt *statement.Statement) ([]string, *int64, bool) {
	if len(stmt.Conditions) == 0 || len(stmt.Conditions) > 2 {
		return nil, nil, false
	}

	var keys []string
	var version *int64
	for _, c := range stmt.Conditions {
		if c.Op != statement.OpEq {
			return nil, nil, false
		}
		switch {
		case c.Column == stmt.PrimaryKeyColumn && keys == nil:
			k, ok := keyStrings([]interface{}{c.Value})
			if !ok {
				return nil, nil, false
			}
			keys = k
		case c.Column == statement.ColumnVersion && version == nil:
			v, ok := c.Value.(int64)
			if !ok {
				return nil, nil, false
			}
			version = &v
		default:
			return nil, nil, false
		}
	}
	return keys, version, keys != nil
}

func keyStrings(values []interface{}) ([]string, bool) {
	if len(values) == 0 {
		return nil, false
	}
	keys := make([]string, 0, len(values))
	for _, v := range values {
		k, err := statement.KeyString(v)
		if err != nil {
			return nil, false
		}
		keys = append(keys, k)
	}
	return keys, true
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
