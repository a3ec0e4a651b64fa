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
	"context"
	"errors"
	"testing"
	"time"

	cpebble "github.com/cockroachdb/pebble"
	pvfs "github.com/cockroachdb/pebble/vfs"
	"github.com/matrixorigin/cubesql/dispatcher"
	"github.com/matrixorigin/cubesql/executor"
	"github.com/matrixorigin/cubesql/parser"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/storage"
	"github.com/matrixorigin/cubesql/storage/mem"
	"github.com/matrixorigin/cubesql/storage/pebble"
	"github.com/matrixorigin/cubesql/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	t *testing.T
	e *Engine
	d *dispatcher.Dispatcher
}

func newTestEnv(t *testing.T, store storage.KVStorage, opts ...Option) *testEnv {
	pool, err := executor.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	e, err := New(store, pool, opts...)
	require.NoError(t, err)
	d, err := dispatcher.NewDispatcher(e.Ports(), dispatcher.WithAnalyzer(parser.NewAnalyzer("doc", e)))
	require.NoError(t, err)
	return &testEnv{t: t, e: e, d: d}
}

func (env *testEnv) exec(sql string, args ...interface{}) (*response.SQLResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	return env.d.Submit(ctx, sql, args, time.Now()).Get(ctx)
}

func (env *testEnv) mustExec(sql string, args ...interface{}) *response.SQLResponse {
	resp, err := env.exec(sql, args...)
	require.NoError(env.t, err, sql)
	return resp
}

func (env *testEnv) rows(sql string, args ...interface{}) [][]interface{} {
	return env.mustExec(sql, args...).Rows
}

func reason(t *testing.T, err error) string {
	var e *sqlerror.Error
	require.True(t, errors.As(err, &e), "%+v", err)
	return e.Reason
}

func newUsers(t *testing.T, opts ...Option) *testEnv {
	env := newTestEnv(t, mem.NewStorage(), opts...)
	env.mustExec("create table users (id int primary key, name text, age int)")
	resp := env.mustExec("insert into users (id, name, age) values (1, 'a', 10), (2, 'b', 20), (3, 'c', 30), (4, 'a', 40)")
	require.Equal(t, int64(4), resp.RowCount)
	return env
}

func TestPointReads(t *testing.T) {
	env := newUsers(t)

	resp := env.mustExec("select name, age from users where id = ?", 2)
	assert.Equal(t, []string{"name", "age"}, resp.Cols)
	assert.Equal(t, [][]interface{}{{"b", int64(20)}}, resp.Rows)

	assert.Equal(t, [][]interface{}{{int64(1), "a", int64(10)}}, env.rows("select * from users where id = 1"))
	assert.Empty(t, env.rows("select name from users where id = 9"))
	assert.Equal(t, [][]interface{}{{int64(3), "c"}, {int64(1), "a"}},
		env.rows("select id, name from users where id in (3, 9, 1)"))
}

func TestSearchAndCount(t *testing.T) {
	env := newUsers(t)

	assert.Equal(t, [][]interface{}{{"a"}, {"c"}},
		env.rows("select name from users where age > 10 order by age desc limit 2"))
	assert.Equal(t, [][]interface{}{{"b"}, {"c"}},
		env.rows("select name from users where age between 20 and 30 order by name"))
	assert.Equal(t, [][]interface{}{{int64(2)}, {int64(3)}},
		env.rows("select id from users where name != 'a' order by id"))
	assert.Equal(t, [][]interface{}{{int64(4)}},
		env.rows("select id from users where name like 'a' order by id desc limit 1"))
	assert.Equal(t, [][]interface{}{{int64(3)}},
		env.rows("select id from users order by id limit 1 offset 2"))

	resp := env.mustExec("select count(*) from users where name = 'a'")
	assert.Equal(t, []string{"count(*)"}, resp.Cols)
	assert.Equal(t, [][]interface{}{{int64(2)}}, resp.Rows)
}

func TestWrites(t *testing.T) {
	env := newUsers(t)

	_, err := env.exec("insert into users (id, name, age) values (1, 'x', 1)")
	assert.Equal(t, "duplicate key", reason(t, err))

	resp := env.mustExec("insert into users (id, name, age) values (1, 'x', 1), (5, 'e', 50)")
	assert.Equal(t, int64(1), resp.RowCount)

	resp = env.mustExec("update users set age = 11 where id = 1")
	assert.Equal(t, int64(1), resp.RowCount)
	assert.Equal(t, [][]interface{}{{int64(11), int64(2)}}, env.rows("select age, _version from users where id = 1"))

	resp = env.mustExec("update users set age = 12 where id = 1 and _version = 2")
	assert.Equal(t, int64(1), resp.RowCount)
	_, err = env.exec("update users set age = 13 where id = 1 and _version = 2")
	assert.Equal(t, "version conflict", reason(t, err))

	resp = env.mustExec("update users set age = 1 where id = 99")
	assert.True(t, resp.DocumentMissing)
	assert.Equal(t, int64(0), resp.RowCount)
}

func TestDeletes(t *testing.T) {
	env := newUsers(t)

	resp := env.mustExec("delete from users where id = 2 and _version = 5")
	assert.Equal(t, int64(0), resp.RowCount)
	assert.Equal(t, int64(1), env.mustExec("delete from users where id = 2 and _version = 1").RowCount)
	assert.Equal(t, int64(0), env.mustExec("delete from users where id = 2").RowCount)

	assert.Equal(t, int64(2), env.mustExec("delete from users where name = 'a'").RowCount)
	assert.Equal(t, [][]interface{}{{int64(1)}}, env.rows("select count(*) from users"))
}

func TestTableLifecycle(t *testing.T) {
	env := newUsers(t)

	_, err := env.exec("create table users (id int primary key)")
	assert.Equal(t, "table already exists", reason(t, err))
	env.mustExec("create table if not exists users (id int primary key)")

	assert.Equal(t, int64(0), env.mustExec("drop table users").RowCount)
	_, err = env.exec("select name from users")
	assert.Equal(t, "table unknown", reason(t, err))
	_, err = env.exec("drop table users")
	assert.Equal(t, "table unknown", reason(t, err))
	env.mustExec("drop table if exists users")

	_, err = env.exec("create table t4 (id int primary key) with (number_of_shards = 0)")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement), "%+v", err)
	_, err = env.exec("select * from t4")
	assert.Equal(t, "table unknown", reason(t, err))

	env.mustExec("create table users (name text)")
	env.mustExec("insert into users (name) values ('z')")
	resp := env.mustExec("select * from users")
	assert.Equal(t, []string{"_id", "name"}, resp.Cols)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "z", resp.Rows[0][1])
}

func TestClusterSettings(t *testing.T) {
	env := newTestEnv(t, mem.NewStorage())
	assert.Equal(t, int64(0), env.mustExec("set stats_enabled = true").RowCount)

	settings, err := env.e.Settings()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"stats_enabled": true}, settings)
}

func newOrders(t *testing.T) *testEnv {
	env := newTestEnv(t, mem.NewStorage(), WithShards(5))
	env.mustExec("create table orders (id int primary key, customer text, amount int)")
	env.mustExec("insert into orders (id, customer, amount) values " +
		"(1, 'x', 1), (2, 'x', 2), (3, 'x', 2), (4, 'y', 10), (5, 'y', 20), (6, 'z', 5)")
	return env
}

func TestAggregation(t *testing.T) {
	env := newOrders(t)

	resp := env.mustExec("select customer, count(*), sum(amount), min(amount), max(amount), count(distinct amount) " +
		"from orders group by customer order by customer")
	assert.Equal(t, []string{"customer", "count(*)", "sum(amount)", "min(amount)", "max(amount)", "count(distinct amount)"},
		resp.Cols)
	assert.Equal(t, [][]interface{}{
		{"x", int64(3), int64(5), int64(1), int64(2), int64(2)},
		{"y", int64(2), int64(30), int64(10), int64(20), int64(2)},
		{"z", int64(1), int64(5), int64(5), int64(5), int64(1)},
	}, resp.Rows)

	rows := env.rows("select customer, avg(amount) from orders group by customer order by customer")
	require.Len(t, rows, 3)
	assert.InDelta(t, 5.0/3, rows[0][1], 1e-9)
	assert.InDelta(t, 15.0, rows[1][1], 1e-9)

	assert.Equal(t, [][]interface{}{{"x", int64(3)}},
		env.rows("select customer, count(*) from orders group by customer order by count(*) desc limit 1"))
	assert.Equal(t, [][]interface{}{{int64(6), int64(20)}},
		env.rows("select count(amount), max(amount) from orders"))
	assert.Equal(t, [][]interface{}{{nil, int64(0)}},
		env.rows("select sum(amount), count(amount) from orders where amount > 100"))
	assert.Empty(t, env.rows("select customer, count(*) from orders where amount > 100 group by customer"))
}

func TestAggregationIsIndependentOfWorkers(t *testing.T) {
	env := newOrders(t)
	sql := "select customer, count(*), sum(amount), count(distinct amount) from orders group by customer"

	var expected [][]interface{}
	for w := 1; w <= 6; w++ {
		w := w
		env.e.available = func() int { return w }
		rows := env.rows(sql)
		if expected == nil {
			expected = rows
			continue
		}
		assert.Equal(t, expected, rows, "workers %d", w)
	}
	assert.Len(t, expected, 3)
}

func TestSystemTables(t *testing.T) {
	env := newOrders(t)
	env.mustExec("create table users (name text)")

	rows := env.rows("select id, num_docs from sys.shards where table_name = 'orders' order by id")
	require.Len(t, rows, 5)
	total := int64(0)
	for i, row := range rows {
		assert.Equal(t, int64(i), row[0])
		total += row[1].(int64)
	}
	assert.Equal(t, int64(6), total)
	assert.Equal(t, [][]interface{}{{int64(10)}}, env.rows("select count(*) from sys.shards"))

	assert.Equal(t, [][]interface{}{{"orders", "id"}, {"users", "_id"}},
		env.rows("select table_name, primary_key from information_schema.tables order by table_name"))
	assert.Equal(t, [][]interface{}{{"id", "int"}, {"customer", "text"}, {"amount", "int"}},
		env.rows("select column_name, data_type from information_schema.columns where table_name = 'orders' order by ordinal_position"))

	_, err := env.exec("select * from sys.unknown")
	assert.Equal(t, "table unknown", reason(t, err))
}

func TestImport(t *testing.T) {
	fs := vfs.NewMemFS()
	require.NoError(t, fs.MkdirAll("/import", 0755))
	write := func(name, data string) {
		f, err := fs.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(data))
		require.NoError(t, err)
		require.NoError(t, f.Sync())
		require.NoError(t, f.Close())
	}
	write("/import/users-1.json", "{\"id\": 10, \"name\": \"i\", \"age\": 1}\n\nnot json\n{\"id\": 1, \"name\": \"dup\"}\n")
	write("/import/users-2.json", "{\"id\": 11, \"name\": \"j\", \"age\": 2.5}\n{\"name\": \"no key\"}\n")
	write("/import/other.txt", "{\"id\": 12}\n")

	env := newUsers(t, WithFS(fs), WithImportBatchSize(1), WithImportRate(1000))
	assert.Equal(t, int64(2), env.mustExec("copy users from '/import/*.json'").RowCount)
	assert.Equal(t, [][]interface{}{{"j", 2.5}}, env.rows("select name, age from users where id = 11"))
	assert.Equal(t, int64(1), env.mustExec("copy users from '/import/other.txt'").RowCount)
	assert.Equal(t, int64(0), env.mustExec("copy users from ?", "/import").RowCount)
	assert.Equal(t, [][]interface{}{{int64(7)}}, env.rows("select count(*) from users"))

	_, err := env.exec("copy users from '/missing.json'")
	assert.Equal(t, "path missing", reason(t, err))
	_, err = env.exec("copy users from '/missing/*.json'")
	assert.Equal(t, "path missing", reason(t, err))
}

func TestEngineOverPebble(t *testing.T) {
	fs := pvfs.NewMem()
	open := func() *pebble.Storage {
		s, err := pebble.NewStorage("/data", zap.NewNop(), &cpebble.Options{FS: fs})
		require.NoError(t, err)
		return s
	}

	s := open()
	env := newTestEnv(t, s)
	env.mustExec("create table users (id int primary key, name text)")
	env.mustExec("insert into users (id, name) values (1, 'a')")
	require.NoError(t, s.Close())

	s = open()
	defer s.Close()
	env = newTestEnv(t, s)
	pk, ok := env.e.PrimaryKey("doc", "users")
	assert.True(t, ok)
	assert.Equal(t, "id", pk)
	assert.Equal(t, [][]interface{}{{"a"}}, env.rows("select name from users where id = 1"))
	assert.True(t, s.Stats().ReadKeys > 0)
}

func TestShardOf(t *testing.T) {
	assert.Equal(t, uint32(0), shardOf("a", 0))
	assert.Equal(t, uint32(0), shardOf("a", 1))
	for _, id := range []string{"1", "2", "abc"} {
		assert.Equal(t, shardOf(id, 8), shardOf(id, 8))
		assert.True(t, shardOf(id, 8) < 8)
	}
}
