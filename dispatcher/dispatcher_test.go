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
	"context"
	"errors"
	"testing"
	"time"

	cerrors "github.com/cockroachdb/errors"
	"github.com/golang/mock/gomock"
	"github.com/matrixorigin/cubesql/backend"
	"github.com/matrixorigin/cubesql/backend/mock"
	"github.com/matrixorigin/cubesql/executor"
	"github.com/matrixorigin/cubesql/parser"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPorts struct {
	search            *mock.MockPort[*backend.SearchRequest, *backend.SearchResponse]
	index             *mock.MockPort[*backend.IndexRequest, *backend.IndexResponse]
	deleteByQuery     *mock.MockPort[*backend.DeleteByQueryRequest, *backend.DeleteByQueryResponse]
	delete            *mock.MockPort[*backend.DeleteRequest, *backend.DeleteResponse]
	bulk              *mock.MockPort[*backend.BulkRequest, *backend.BulkResponse]
	get               *mock.MockPort[*backend.GetRequest, *backend.GetResponse]
	multiGet          *mock.MockPort[*backend.MultiGetRequest, *backend.MultiGetResponse]
	update            *mock.MockPort[*backend.UpdateRequest, *backend.UpdateResponse]
	count             *mock.MockPort[*backend.CountRequest, *backend.CountResponse]
	createIndex       *mock.MockPort[*backend.CreateIndexRequest, *backend.CreateIndexResponse]
	deleteIndex       *mock.MockPort[*backend.DeleteIndexRequest, *backend.DeleteIndexResponse]
	clusterSettings   *mock.MockPort[*backend.ClusterSettingsRequest, *backend.ClusterSettingsResponse]
	imports           *mock.MockPort[*backend.ImportRequest, *backend.ImportResponse]
	distributed       *mock.MockPort[*backend.DistributedRequest, *response.SQLResponse]
	informationSchema *mock.MockPort[*statement.Statement, *response.SQLResponse]
}

func newMockPorts(ctrl *gomock.Controller) *mockPorts {
	return &mockPorts{
		search:            mock.NewMockPort[*backend.SearchRequest, *backend.SearchResponse](ctrl),
		index:             mock.NewMockPort[*backend.IndexRequest, *backend.IndexResponse](ctrl),
		deleteByQuery:     mock.NewMockPort[*backend.DeleteByQueryRequest, *backend.DeleteByQueryResponse](ctrl),
		delete:            mock.NewMockPort[*backend.DeleteRequest, *backend.DeleteResponse](ctrl),
		bulk:              mock.NewMockPort[*backend.BulkRequest, *backend.BulkResponse](ctrl),
		get:               mock.NewMockPort[*backend.GetRequest, *backend.GetResponse](ctrl),
		multiGet:          mock.NewMockPort[*backend.MultiGetRequest, *backend.MultiGetResponse](ctrl),
		update:            mock.NewMockPort[*backend.UpdateRequest, *backend.UpdateResponse](ctrl),
		count:             mock.NewMockPort[*backend.CountRequest, *backend.CountResponse](ctrl),
		createIndex:       mock.NewMockPort[*backend.CreateIndexRequest, *backend.CreateIndexResponse](ctrl),
		deleteIndex:       mock.NewMockPort[*backend.DeleteIndexRequest, *backend.DeleteIndexResponse](ctrl),
		clusterSettings:   mock.NewMockPort[*backend.ClusterSettingsRequest, *backend.ClusterSettingsResponse](ctrl),
		imports:           mock.NewMockPort[*backend.ImportRequest, *backend.ImportResponse](ctrl),
		distributed:       mock.NewMockPort[*backend.DistributedRequest, *response.SQLResponse](ctrl),
		informationSchema: mock.NewMockPort[*statement.Statement, *response.SQLResponse](ctrl),
	}
}

func (m *mockPorts) ports() backend.Ports {
	return backend.Ports{
		Search:            m.search,
		Index:             m.index,
		DeleteByQuery:     m.deleteByQuery,
		Delete:            m.delete,
		Bulk:              m.bulk,
		Get:               m.get,
		MultiGet:          m.multiGet,
		Update:            m.update,
		Count:             m.count,
		CreateIndex:       m.createIndex,
		DeleteIndex:       m.deleteIndex,
		ClusterSettings:   m.clusterSettings,
		Import:            m.imports,
		Distributed:       m.distributed,
		InformationSchema: m.informationSchema,
	}
}

type users struct{}

func (users) PrimaryKey(schema, table string) (string, bool) {
	return "id", table == "users"
}

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *mockPorts) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	m := newMockPorts(ctrl)
	opts = append(opts, WithAnalyzer(parser.NewAnalyzer("doc", users{})))
	d, err := NewDispatcher(m.ports(), opts...)
	require.NoError(t, err)
	return d, m
}

func submit(t *testing.T, d *Dispatcher, sql string, args ...interface{}) (*response.SQLResponse, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	return d.Submit(ctx, sql, args, time.Now()).Get(ctx)
}

func TestNewDispatcherRequiresAllPorts(t *testing.T) {
	_, err := NewDispatcher(backend.Ports{})
	assert.Error(t, err)
}

func TestDispatchSearch(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.search.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.SearchRequest, l response.Listener[*backend.SearchResponse]) {
			assert.Equal(t, "doc", req.Schema)
			assert.Equal(t, "users", req.Table)
			assert.Equal(t, []string{"name"}, req.Fields)
			l.OnResponse(&backend.SearchResponse{
				Fields: []string{"name"},
				Hits:   []backend.Hit{{ID: "1", Source: map[string]interface{}{"name": "a"}}},
			})
		})

	resp, err := submit(t, d, "select name from users where name = ?", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, resp.Cols)
	assert.Equal(t, [][]interface{}{{"a"}}, resp.Rows)
}

func TestDispatchGroupByBeforeCount(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.distributed.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.DistributedRequest, l response.Listener[*response.SQLResponse]) {
			assert.True(t, req.Statement.HasGroupBy())
			l.OnResponse(response.NewRowsResponse([]string{"count(*)"}, [][]interface{}{{int64(1)}}))
		})

	_, err := submit(t, d, "select count(*) from users group by name")
	require.NoError(t, err)
}

func TestDispatchCount(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.count.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.CountRequest, l response.Listener[*backend.CountResponse]) {
			l.OnResponse(&backend.CountResponse{Count: 3})
		})

	resp, err := submit(t, d, "select count(*) from users where age > 1")
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{{int64(3)}}, resp.Rows)
}

func TestDispatchDistributedOverwritesStartTime(t *testing.T) {
	d, m := newTestDispatcher(t)
	created := time.Now().Add(-time.Second)
	m.distributed.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.DistributedRequest, l response.Listener[*response.SQLResponse]) {
			assert.Equal(t, created, req.CreatedAt)
			resp := response.NewRowsResponse([]string{"max(age)"}, [][]interface{}{{int64(1)}})
			resp.RequestStartedTime = time.Now()
			l.OnResponse(resp)
		})

	ctx := context.Background()
	resp, err := d.Submit(ctx, "select max(age) from users", nil, created).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, created, resp.RequestStartedTime)
	assert.True(t, resp.Duration >= time.Second)
}

func TestDispatchUpdateDocumentMissing(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.update.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.UpdateRequest, l response.Listener[*backend.UpdateResponse]) {
			assert.Equal(t, "1", req.ID)
			l.OnFailure(cerrors.Mark(errors.New("[users][1]: document missing"), backend.ErrDocumentMissing))
		})

	resp, err := submit(t, d, "update users set name = 'b' where id = 1")
	require.NoError(t, err)
	assert.True(t, resp.DocumentMissing)
	assert.Equal(t, int64(0), resp.RowCount)
}

func TestDispatchDeleteVersionConflict(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.delete.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.DeleteRequest, l response.Listener[*backend.DeleteResponse]) {
			require.NotNil(t, req.Version)
			assert.Equal(t, int64(1), *req.Version)
			l.OnFailure(cerrors.Mark(errors.New("version conflict"), backend.ErrVersionConflict))
		})

	resp, err := submit(t, d, "delete from users where id = 1 and _version = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.RowCount)
	assert.False(t, resp.DocumentMissing)
}

func TestDispatchBackendFailure(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.index.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.IndexRequest, l response.Listener[*backend.IndexResponse]) {
			l.OnFailure(cerrors.Mark(errors.New("document already exists"), backend.ErrDuplicateKey))
		})

	_, err := submit(t, d, "insert into users (id, name) values (1, 'a')")
	var e *sqlerror.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, sqlerror.KindBackendExecution, e.Kind)
	assert.Equal(t, "duplicate key", e.Reason)
}

func TestDispatchRejection(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.bulk.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.BulkRequest, l response.Listener[*backend.BulkResponse]) {
			l.OnFailure(sqlerror.Rejected(errors.New("pool overload")))
		})

	_, err := submit(t, d, "insert into users (id) values (1), (2)")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindRejection))
}

func TestDispatchNotifiesOnce(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.get.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.GetRequest, l response.Listener[*backend.GetResponse]) {
			l.OnResponse(&backend.GetResponse{Fields: []string{"id"}, Found: true, Hit: backend.Hit{ID: "1"}})
			l.OnFailure(errors.New("late"))
			l.OnResponse(&backend.GetResponse{Fields: []string{"id"}})
		})

	var responses, failures int
	d.Execute(context.Background(), NewRequest("select id from users where id = 1", nil, time.Now()),
		response.NewListener(
			func(*response.SQLResponse) { responses++ },
			func(error) { failures++ }))
	assert.Equal(t, 1, responses)
	assert.Equal(t, 0, failures)
}

func TestDispatchUnsupportedPath(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := submit(t, d, "select * from SYS.Nodes")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindUnsupportedPath))
}

func TestDispatchMalformed(t *testing.T) {
	d, _ := newTestDispatcher(t)
	for _, sql := range []string{
		"select from",
		"select * from users where a = 1 or b = 2",
		"update users set name = 'a'",
	} {
		_, err := submit(t, d, sql)
		assert.True(t, sqlerror.IsKind(err, sqlerror.KindMalformedStatement), sql)
	}
}

func TestDispatchBuilderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	builder := mock.NewMockRequestBuilder(ctrl)
	builder.EXPECT().BuildCountRequest(gomock.Any()).Return(nil, errors.New("can not build"))

	d, _ := newTestDispatcher(t, WithRequestBuilder(builder))
	_, err := submit(t, d, "select count(*) from users")
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindBackendExecution))
}

func TestDispatchEveryClassification(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.informationSchema.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *statement.Statement, l response.Listener[*response.SQLResponse]) {
			l.OnResponse(response.NewRowCountResponse(0))
		})
	m.deleteByQuery.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.DeleteByQueryRequest, l response.Listener[*backend.DeleteByQueryResponse]) {
			l.OnResponse(&backend.DeleteByQueryResponse{Deleted: 2})
		})
	m.multiGet.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.MultiGetRequest, l response.Listener[*backend.MultiGetResponse]) {
			l.OnResponse(&backend.MultiGetResponse{Fields: []string{"id"}, Hits: []backend.Hit{{ID: "1"}}})
		})
	m.createIndex.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.CreateIndexRequest, l response.Listener[*backend.CreateIndexResponse]) {
			l.OnResponse(&backend.CreateIndexResponse{Acknowledged: true})
		})
	m.deleteIndex.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.DeleteIndexRequest, l response.Listener[*backend.DeleteIndexResponse]) {
			l.OnResponse(&backend.DeleteIndexResponse{Acknowledged: true})
		})
	m.clusterSettings.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.ClusterSettingsRequest, l response.Listener[*backend.ClusterSettingsResponse]) {
			l.OnResponse(&backend.ClusterSettingsResponse{Acknowledged: true})
		})
	m.imports.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.ImportRequest, l response.Listener[*backend.ImportResponse]) {
			l.OnResponse(&backend.ImportResponse{Imported: 5})
		})
	m.distributed.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.DistributedRequest, l response.Listener[*response.SQLResponse]) {
			assert.Equal(t, statement.TypeDistributedStats, req.Statement.Type)
			l.OnResponse(response.NewRowCountResponse(0))
		})

	cases := []struct {
		sql      string
		rowCount int64
	}{
		{"select * from information_schema.tables", 0},
		{"delete from users where name = 'a'", 2},
		{"select id from users where id in (1, 2)", 1},
		{"create table t (id int primary key)", 0},
		{"drop table t", 0},
		{"set stats_enabled = true", 0},
		{"copy users from '/tmp/users.json'", 5},
		{"select * from sys.shards", 0},
	}
	for _, c := range cases {
		resp, err := submit(t, d, c.sql)
		require.NoError(t, err, c.sql)
		assert.Equal(t, c.rowCount, resp.RowCount, c.sql)
	}
}

func TestRunnerOverDispatcher(t *testing.T) {
	d, m := newTestDispatcher(t)
	m.get.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *backend.GetRequest, l response.Listener[*backend.GetResponse]) {
			go l.OnResponse(&backend.GetResponse{Fields: []string{"_id"}, Found: true, Hit: backend.Hit{ID: req.ID}})
		}).Times(7)

	ex := executor.ExecutorFunc(func(task func()) error {
		go task()
		return nil
	})
	units := make([]func() ([][]interface{}, error), 0, 7)
	for i := 0; i < 7; i++ {
		i := i
		units = append(units, func() ([][]interface{}, error) {
			resp, err := submit(t, d, "select id from users where id = ?", i)
			if err != nil {
				return nil, err
			}
			return resp.Rows, nil
		})
	}
	concat := func(values [][][]interface{}) ([][]interface{}, error) {
		var rows [][]interface{}
		for _, v := range values {
			rows = append(rows, v...)
		}
		return rows, nil
	}

	ctx := context.Background()
	values, err := executor.RunWithAvailableWorkers(ex, func() int { return 2 }, units, concat).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][][]interface{}{
		{{"0"}, {"1"}, {"2"}},
		{{"3"}, {"4"}, {"5"}, {"6"}},
	}, values)
}
