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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/cubesql/config"
	"github.com/matrixorigin/cubesql/dispatcher"
	"github.com/matrixorigin/cubesql/engine"
	"github.com/matrixorigin/cubesql/executor"
	"github.com/matrixorigin/cubesql/parser"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/storage/mem"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	pool, err := executor.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	e, err := engine.New(mem.NewStorage(), pool)
	require.NoError(t, err)
	d, err := dispatcher.NewDispatcher(e.Ports(), dispatcher.WithAnalyzer(parser.NewAnalyzer("doc", e)))
	require.NoError(t, err)
	return NewServer(cfg, d, WithWorkerStats(pool))
}

func testConfig() config.ServerConfig {
	cfg := config.NewConfig().Server
	cfg.Addr = "127.0.0.1:0"
	return cfg
}

func post(t *testing.T, h http.Handler, stmt string, args ...interface{}) (int, map[string]interface{}) {
	body, err := json.Marshal(sqlRequest{Stmt: stmt, Args: args})
	require.NoError(t, err)
	return do(t, h, string(body))
}

func do(t *testing.T, h http.Handler, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodPost, "/_sql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	result := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), w.Body.String())
	return w.Code, result
}

func errorOf(t *testing.T, result map[string]interface{}) map[string]interface{} {
	e, ok := result["error"].(map[string]interface{})
	require.True(t, ok, "%+v", result)
	return e
}

func TestSQLEndpoint(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	code, result := post(t, h, "create table users (id int primary key, name text, age int)")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), result["rowcount"])

	code, result = post(t, h, "insert into users (id, name, age) values (?, ?, ?), (2, 'b', 20)", 1, "a", 10)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), result["rowcount"])

	code, result = post(t, h, "select name, age from users where id = ?", 1)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"name", "age"}, result["cols"])
	assert.Equal(t, []interface{}{[]interface{}{"a", float64(10)}}, result["rows"])
	assert.Equal(t, float64(1), result["rowcount"])
	_, ok := result["duration"]
	assert.True(t, ok)

	code, result = post(t, h, "select name from users where id = 99")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{}, result["rows"])

	code, result = post(t, h, "update users set age = 1 where id = 99")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, result["document_missing"])
	assert.Equal(t, float64(0), result["rowcount"])
}

func TestSQLEndpointErrors(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	cases := []struct {
		body   string
		code   int
		kind   string
		reason string
	}{
		{body: "{", code: http.StatusBadRequest, kind: "malformed-statement"},
		{body: "{}", code: http.StatusBadRequest, kind: "malformed-statement"},
		{body: `{"stmt": "selec 1 fro"}`, code: http.StatusBadRequest, kind: "malformed-statement"},
		{body: `{"stmt": "select * from missing"}`, code: http.StatusNotFound, kind: "backend-execution", reason: "table unknown"},
		{body: `{"stmt": "select * from sys.nodes"}`, code: http.StatusNotImplemented, kind: "unsupported-path"},
	}
	for _, c := range cases {
		code, result := do(t, h, c.body)
		assert.Equal(t, c.code, code, c.body)
		e := errorOf(t, result)
		assert.Equal(t, c.kind, e["kind"], c.body)
		if c.reason != "" {
			assert.Equal(t, c.reason, e["reason"], c.body)
		}
		assert.NotEmpty(t, e["message"], c.body)
	}

	post(t, h, "create table users (id int primary key)")
	post(t, h, "insert into users (id) values (1)")
	code, result := post(t, h, "insert into users (id) values (1)")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "duplicate key", errorOf(t, result)["reason"])
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{sqlerror.ErrRejected, http.StatusServiceUnavailable},
		{sqlerror.ErrMalformed, http.StatusBadRequest},
		{sqlerror.ErrUnsupported, http.StatusNotImplemented},
		{sqlerror.ErrTableUnknown, http.StatusNotFound},
		{sqlerror.ErrDocumentMissing, http.StatusNotFound},
		{sqlerror.ErrPathMissing, http.StatusNotFound},
		{sqlerror.ErrTableExists, http.StatusConflict},
		{sqlerror.ErrVersionConflict, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusRequestTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, statusOf(sqlerror.Translate(c.err)), "%v", c.err)
	}
}

func TestNormalizeArg(t *testing.T) {
	assert.Equal(t, int64(1), normalizeArg(json.Number("1")))
	assert.Equal(t, 1.5, normalizeArg(json.Number("1.5")))
	assert.Equal(t, "a", normalizeArg("a"))
	assert.Nil(t, normalizeArg(nil))
}

type submitFunc func(ctx context.Context, sql string, args []interface{}, createdAt time.Time) *executor.Future[*response.SQLResponse]

func (f submitFunc) Submit(ctx context.Context, sql string, args []interface{}, createdAt time.Time) *executor.Future[*response.SQLResponse] {
	return f(ctx, sql, args, createdAt)
}

func TestSQLEndpointRejection(t *testing.T) {
	s := NewServer(testConfig(), submitFunc(func(ctx context.Context, sql string, args []interface{}, createdAt time.Time) *executor.Future[*response.SQLResponse] {
		return executor.FailedFuture[*response.SQLResponse](sqlerror.Translate(sqlerror.Rejected(nil)))
	}))

	code, result := post(t, s.Handler(), "select 1")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "rejection", errorOf(t, result)["kind"])
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 2
	var calls int
	s := NewServer(cfg, submitFunc(func(ctx context.Context, sql string, args []interface{}, createdAt time.Time) *executor.Future[*response.SQLResponse] {
		calls++
		return executor.CompletedFuture(response.NewRowCountResponse(1))
	}))

	for i := 0; i < 2; i++ {
		code, _ := post(t, s.Handler(), "delete from users where id = 1")
		assert.Equal(t, http.StatusOK, code)
	}
	code, result := post(t, s.Handler(), "delete from users where id = 1")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate-limited", errorOf(t, result)["kind"])
	assert.Equal(t, 2, calls)
}

func TestRateLimiterEvict(t *testing.T) {
	rl := newRateLimiter(1, 1, time.Minute)
	now := time.Now()
	assert.True(t, rl.allow("a", now))
	assert.False(t, rl.allow("a", now))
	assert.True(t, rl.allow("b", now.Add(time.Minute)))
	assert.Equal(t, 2, rl.size())

	assert.Equal(t, 1, rl.evict(now.Add(time.Minute*2)))
	assert.Equal(t, 1, rl.size())
	assert.True(t, rl.allow("a", now.Add(time.Minute*2)))
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()
	post(t, h, "create table users (id int primary key)")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	health := healthResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 4, health.MaxWorkers)
	assert.True(t, health.AvailableWorkers >= 1 && health.AvailableWorkers <= 4)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cubesql_dispatch_statements_total")
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t, testConfig())
	assert.Empty(t, s.Addr())
	require.NoError(t, s.Start())
	assert.Equal(t, ErrServerStarted, s.Start())

	body, err := json.Marshal(sqlRequest{Stmt: "create table users (id int primary key)"})
	require.NoError(t, err)
	resp, err := http.Post("http://"+s.Addr()+"/_sql", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	require.NoError(t, s.Stop())
	_, err = http.Post("http://"+s.Addr()+"/_sql", "application/json", bytes.NewReader(body))
	assert.Error(t, err)
}
