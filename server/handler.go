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
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/util"
)

var (
	codec = jsoniter.Config{EscapeHTML: false, UseNumber: true}.Froze()
)

type sqlRequest struct {
	Stmt string        `json:"stmt"`
	Args []interface{} `json:"args"`
}

type sqlResponse struct {
	Cols            []string        `json:"cols"`
	Rows            [][]interface{} `json:"rows"`
	RowCount        int64           `json:"rowcount"`
	Duration        float64         `json:"duration"`
	DocumentMissing bool            `json:"document_missing,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status           string          `json:"status"`
	Host             *util.HostStats `json:"host,omitempty"`
	AvailableWorkers int             `json:"available_workers"`
	RunningWorkers   int             `json:"running_workers"`
	MaxWorkers       int             `json:"max_workers"`
}

func (s *Server) handleSQL(c *gin.Context) {
	createdAt := time.Now()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.writeError(c, sqlerror.Translate(sqlerror.MalformedWrap(err, "read request body")))
		return
	}
	req := sqlRequest{}
	if err := codec.Unmarshal(body, &req); err != nil {
		s.writeError(c, sqlerror.Translate(sqlerror.MalformedWrap(err, "decode request body")))
		return
	}
	if req.Stmt == "" {
		s.writeError(c, sqlerror.Translate(sqlerror.Malformedf("missing stmt")))
		return
	}
	for i := range req.Args {
		req.Args[i] = normalizeArg(req.Args[i])
	}

	resp, err := s.submitter.Submit(c.Request.Context(), req.Stmt, req.Args, createdAt).
		Get(c.Request.Context())
	if err != nil {
		s.writeError(c, sqlerror.Translate(err))
		return
	}

	rows := resp.Rows
	if rows == nil {
		rows = [][]interface{}{}
	}
	cols := resp.Cols
	if cols == nil {
		cols = []string{}
	}
	c.JSON(http.StatusOK, sqlResponse{
		Cols:            cols,
		Rows:            rows,
		RowCount:        resp.RowCount,
		Duration:        float64(resp.Duration) / float64(time.Millisecond),
		DocumentMissing: resp.DocumentMissing,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := healthResponse{Status: "ok"}
	if s.stats != nil {
		resp.AvailableWorkers = s.stats.AvailableWorkers()
		resp.RunningWorkers = s.stats.Running()
		resp.MaxWorkers = s.stats.Cap()
	}
	host, err := util.GetHostStats(s.dataPath)
	if err != nil {
		s.logger.Warn("fail to collect host stats", zap.Error(err))
	} else {
		resp.Host = &host
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) writeError(c *gin.Context, err *sqlerror.Error) {
	c.JSON(statusOf(err), gin.H{
		"error": errorBody{
			Kind:    err.Kind.String(),
			Reason:  err.Reason,
			Message: err.Error(),
		},
	})
}

func statusOf(err *sqlerror.Error) int {
	switch err.Kind {
	case sqlerror.KindMalformedStatement:
		return http.StatusBadRequest
	case sqlerror.KindUnsupportedPath:
		return http.StatusNotImplemented
	case sqlerror.KindRejection:
		return http.StatusServiceUnavailable
	}

	switch err.Reason {
	case "table unknown", "document missing", "path missing":
		return http.StatusNotFound
	case "table already exists", "duplicate key", "version conflict":
		return http.StatusConflict
	case sqlerror.ReasonCanceled:
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func normalizeArg(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
