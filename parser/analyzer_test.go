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
	"testing"

	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type primaryKeys map[string]string

func (pks primaryKeys) PrimaryKey(schema, table string) (string, bool) {
	pk, ok := pks[schema+"."+table]
	return pk, ok
}

func analyze(t *testing.T, sql string, args ...interface{}) (*statement.Statement, error) {
	choice, tree, err := NewGate(nil).Classify(sql)
	require.NoError(t, err, sql)
	require.Equal(t, ChoiceLegacy, choice, sql)
	return NewAnalyzer("doc", primaryKeys{"doc.users": "id"}).Analyze(sql, tree, args)
}

func mustAnalyze(t *testing.T, sql string, args ...interface{}) *statement.Statement {
	stmt, err := analyze(t, sql, args...)
	require.NoError(t, err, sql)
	return stmt
}

func TestAnalyzeTypes(t *testing.T) {
	cases := []struct {
		sql    string
		args   []interface{}
		expect statement.Type
	}{
		{"select * from information_schema.tables", nil, statement.TypeInformationSchema},
		{"select * from sys.shards", nil, statement.TypeDistributedStats},
		{"insert into users (id, name) values (1, 'a')", nil, statement.TypeInsert},
		{"insert into users (id, name) values (1, 'a'), (2, 'b')", nil, statement.TypeBulk},
		{"delete from users where id = 1", nil, statement.TypeDelete},
		{"delete from users where id = ? and _version = ?", []interface{}{1, 2}, statement.TypeDelete},
		{"delete from users where name = 'a'", nil, statement.TypeDeleteByQuery},
		{"delete from users", nil, statement.TypeDeleteByQuery},
		{"delete from users where id = 1 and name = 'a'", nil, statement.TypeDeleteByQuery},
		{"select * from users where id = 1", nil, statement.TypeGet},
		{"select name from users where id in (1, 2)", nil, statement.TypeMultiGet},
		{"select * from users where id > 1", nil, statement.TypeDefault},
		{"select * from users where id = 1 limit 1", nil, statement.TypeDefault},
		{"select count(*) from users where id = 1", nil, statement.TypeDefault},
		{"update users set name = 'b' where id = 1", nil, statement.TypeUpdate},
		{"create table t (id int primary key, name text)", nil, statement.TypeCreateIndex},
		{"drop table t", nil, statement.TypeDeleteIndex},
		{"set stats_enabled = true", nil, statement.TypeCreateAnalyzer},
		{"copy users from '/tmp/users.json'", nil, statement.TypeCopyImport},
	}

	for _, c := range cases {
		stmt := mustAnalyze(t, c.sql, c.args...)
		assert.Equal(t, c.expect, stmt.Type, c.sql)
	}
}

func TestAnalyzeSelect(t *testing.T) {
	stmt := mustAnalyze(t, "select name as n, age from Users where age >= ? and name like 'a%' order by age desc limit 10 offset 5", 18)
	assert.Equal(t, "doc", stmt.Schema)
	assert.Equal(t, "users", stmt.Table)
	assert.Equal(t, "id", stmt.PrimaryKeyColumn)
	assert.Equal(t, []statement.Output{
		{Name: "n", Column: "name"},
		{Name: "age", Column: "age"},
	}, stmt.Outputs)
	assert.Equal(t, []statement.Condition{
		{Column: "age", Op: statement.OpGe, Value: int64(18)},
		{Column: "name", Op: statement.OpLike, Value: "a%"},
	}, stmt.Conditions)
	assert.Equal(t, []statement.Order{{Column: "age", Desc: true}}, stmt.OrderBy)
	require.NotNil(t, stmt.Limit)
	assert.Equal(t, int64(10), *stmt.Limit)
	assert.Equal(t, int64(5), stmt.Offset)
}

func TestAnalyzeConditions(t *testing.T) {
	stmt := mustAnalyze(t, "select * from t where 10 < age and (score between 1 and 2.5) and name is not null and id not in (1, -2)")
	assert.Equal(t, []statement.Condition{
		{Column: "age", Op: statement.OpGt, Value: int64(10)},
		{Column: "score", Op: statement.OpGe, Value: int64(1)},
		{Column: "score", Op: statement.OpLe, Value: 2.5},
		{Column: "name", Op: statement.OpIsNotNull},
		{Column: "id", Op: statement.OpNotIn, Values: []interface{}{int64(1), int64(-2)}},
	}, stmt.Conditions)

	_, err := analyze(t, "select * from t where a = 1 or b = 2")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement))
}

func TestAnalyzeShapeFlags(t *testing.T) {
	stmt := mustAnalyze(t, "select count(*) from users")
	assert.True(t, stmt.CountOnly)
	assert.False(t, stmt.GlobalAggregate)
	assert.Equal(t, statement.ClassCount, statement.Classify(stmt))

	stmt = mustAnalyze(t, "select count(*) from users group by name")
	assert.False(t, stmt.GlobalAggregate)
	assert.Equal(t, []string{"name"}, stmt.GroupBy)
	assert.Equal(t, statement.ClassDistributedAggregation, statement.Classify(stmt))

	stmt = mustAnalyze(t, "select max(age), count(distinct name) from users")
	assert.False(t, stmt.CountOnly)
	assert.True(t, stmt.GlobalAggregate)
	assert.Equal(t, []string{"max(age)", "count(distinct name)"}, stmt.OutputNames())
	assert.Equal(t, statement.ClassDistributedAggregation, statement.Classify(stmt))

	stmt = mustAnalyze(t, "select name, count(*) c from users group by name order by count(*) desc")
	assert.Equal(t, []statement.Order{{Column: "count(*)", Desc: true}}, stmt.OrderBy)

	stmt = mustAnalyze(t, "select * from users")
	assert.Equal(t, statement.ClassPlainSearch, statement.Classify(stmt))
}

func TestAnalyzeGroupingErrors(t *testing.T) {
	for _, sql := range []string{
		"select name, count(*) from users",
		"select *, count(*) from users group by name",
		"select age, count(*) from users group by name",
		"select sum(*) from users",
		"select sum(distinct age) from users",
		"select lower(name) from users",
		"select distinct name from users",
		"select * from a, b",
	} {
		_, err := analyze(t, sql)
		assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement), sql)
	}
}

func TestAnalyzeBindsArgs(t *testing.T) {
	stmt := mustAnalyze(t, "insert into users (id, name, score) values (?, ?, ?)", float64(1), "a", 1.5)
	assert.Equal(t, [][]interface{}{{int64(1), "a", 1.5}}, stmt.Rows)

	_, err := analyze(t, "insert into users (id, name) values (?, ?)", 1)
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement))

	_, err = analyze(t, "select * from users", 1)
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement))

	stmt = mustAnalyze(t, "copy users from ?", "/tmp/users.json")
	assert.Equal(t, "/tmp/users.json", stmt.ImportPath)

	_, err = analyze(t, "copy users from ?", 1)
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement))
}

func TestAnalyzeWrites(t *testing.T) {
	stmt := mustAnalyze(t, "delete from users where _version = 3 and id = 'a'")
	assert.Equal(t, []string{"a"}, stmt.PrimaryKeys)
	require.NotNil(t, stmt.Version)
	assert.Equal(t, int64(3), *stmt.Version)

	stmt = mustAnalyze(t, "update users set name = 'b', age = -1 where id = 1")
	assert.Equal(t, []string{"1"}, stmt.PrimaryKeys)
	assert.Nil(t, stmt.Version)
	assert.Equal(t, []statement.Assignment{
		{Column: "name", Value: "b"},
		{Column: "age", Value: int64(-1)},
	}, stmt.Assignments)

	_, err := analyze(t, "update users set name = 'b' where name = 'a'")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement))

	_, err = analyze(t, "insert into users values (1, 'a')")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement))

	_, err = analyze(t, "insert into sys.shards (id) values (1)")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement))
}

func TestAnalyzeDDL(t *testing.T) {
	stmt := mustAnalyze(t, "create table if not exists doc.t (id int primary key, name varchar(10))")
	assert.Equal(t, "t", stmt.Table)
	assert.Equal(t, "id", stmt.PrimaryKeyColumn)
	assert.True(t, stmt.IfNotExists)
	assert.Equal(t, []statement.ColumnDefinition{
		{Name: "id", Type: "int"},
		{Name: "name", Type: "varchar"},
	}, stmt.TableColumns)

	stmt = mustAnalyze(t, "create table t2 (code int, name text, primary key (code))")
	assert.Equal(t, "code", stmt.PrimaryKeyColumn)
	assert.False(t, stmt.IfNotExists)

	stmt = mustAnalyze(t, "create table t3 (name text)")
	assert.Equal(t, DefaultPrimaryKey, stmt.PrimaryKeyColumn)

	stmt = mustAnalyze(t, "drop table if exists t")
	assert.True(t, stmt.IfExists)

	_, err := analyze(t, "create table t4 (a int, b int, primary key (a, b))")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement))

	_, err = analyze(t, "create table t5 (id int primary key) number_of_shards = 2")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement))
}

func TestAnalyzeSet(t *testing.T) {
	stmt := mustAnalyze(t, "set stats_enabled = true, refresh_interval = 10")
	assert.Equal(t, map[string]interface{}{
		"stats_enabled":    true,
		"refresh_interval": int64(10),
	}, stmt.Settings)
}
