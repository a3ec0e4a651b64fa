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
	"time"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/backend"
	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/executor"
	"github.com/matrixorigin/cubesql/metric"
	"github.com/matrixorigin/cubesql/parser"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
	"go.uber.org/zap"
)

const unclassified = "unclassified"

// Option dispatcher option
type Option func(*Dispatcher)

// WithLogger set the logger of the dispatcher
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithRequestBuilder replace the default request builder
func WithRequestBuilder(builder backend.RequestBuilder) Option {
	return func(d *Dispatcher) {
		d.builder = builder
	}
}

// WithAnalyzer replace the default analyzer
func WithAnalyzer(analyzer *parser.Analyzer) Option {
	return func(d *Dispatcher) {
		d.analyzer = analyzer
	}
}

// Dispatcher classifies statements and forwards every statement to exactly
// one backend port.
type Dispatcher struct {
	logger   *zap.Logger
	gate     *parser.Gate
	analyzer *parser.Analyzer
	builder  backend.RequestBuilder
	ports    backend.Ports
}

// NewDispatcher returns a dispatcher over the ports
func NewDispatcher(ports backend.Ports, opts ...Option) (*Dispatcher, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	d := &Dispatcher{ports: ports}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = log.Adjust(d.logger).Named("dispatcher")
	if d.builder == nil {
		d.builder = backend.NewRequestBuilder()
	}
	if d.analyzer == nil {
		d.analyzer = parser.NewAnalyzer("doc", nil)
	}
	d.gate = parser.NewGate(d.logger)
	return d, nil
}

// Submit executes the statement. The returned future is completed with the
// response or failed with a *sqlerror.Error.
func (d *Dispatcher) Submit(ctx context.Context, sql string, args []interface{}, createdAt time.Time) *executor.Future[*response.SQLResponse] {
	f := executor.NewFuture[*response.SQLResponse]()
	d.Execute(ctx, NewRequest(sql, args, createdAt), response.NewListener(
		func(resp *response.SQLResponse) { f.Complete(resp) },
		func(err error) { f.Fail(err) }))
	return f
}

// Execute executes the request, the listener is notified exactly once with
// the response or a *sqlerror.Error. Execute does not wait for the backend.
func (d *Dispatcher) Execute(ctx context.Context, req *Request, listener response.Listener[*response.SQLResponse]) {
	listener = response.Once(listener)
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch statement panic",
				log.RequestIDField(req.ID),
				log.StatementField(req.SQL),
				zap.Any("panic", r),
				zap.Stack("stack"))
			listener.OnFailure(sqlerror.Translate(errors.Newf("dispatch panic: %v", r)))
		}
	}()

	choice, tree, err := d.gate.Classify(req.SQL)
	if err != nil {
		d.fail(req, unclassified, listener, err)
		return
	}
	if choice == parser.ChoiceCurrent {
		d.fail(req, unclassified, listener,
			sqlerror.Unsupportedf("statement requires the %s parser path", choice))
		return
	}

	stmt, err := d.analyzer.Analyze(req.SQL, tree, req.Args)
	if err != nil {
		d.fail(req, unclassified, listener, err)
		return
	}

	rc := &requestContext{
		req:            req,
		stmt:           stmt,
		classification: statement.Classify(stmt),
	}
	rc.listener = d.instrument(rc, listener)
	metric.IncDispatchCount(rc.classification.String())
	if ce := d.logger.Check(zap.DebugLevel, "dispatch statement"); ce != nil {
		ce.Write(log.RequestIDField(req.ID),
			log.StatementField(req.SQL),
			log.ClassificationField(rc.classification.String()),
			log.TableField(stmt.Schema, stmt.Table))
	}
	d.dispatch(ctx, rc)
}

func (d *Dispatcher) dispatch(ctx context.Context, rc *requestContext) {
	stmt := rc.stmt
	switch rc.classification {
	case statement.ClassInformationSchema:
		call(ctx, rc, d.ports.InformationSchema, statementOf, response.PassThrough, nil)
	case statement.ClassInsert:
		call(ctx, rc, d.ports.Index, d.builder.BuildIndexRequest, backend.FromIndex, nil)
	case statement.ClassDeleteByQuery:
		call(ctx, rc, d.ports.DeleteByQuery, d.builder.BuildDeleteByQueryRequest, backend.FromDeleteByQuery, nil)
	case statement.ClassDelete:
		call(ctx, rc, d.ports.Delete, d.builder.BuildDeleteRequest, backend.FromDelete,
			response.RecoverDeleteVersionConflict)
	case statement.ClassBulk:
		call(ctx, rc, d.ports.Bulk, d.builder.BuildBulkRequest, backend.FromBulk, nil)
	case statement.ClassGet:
		call(ctx, rc, d.ports.Get, d.builder.BuildGetRequest, backend.FromGet(stmt), nil)
	case statement.ClassMultiGet:
		call(ctx, rc, d.ports.MultiGet, d.builder.BuildMultiGetRequest, backend.FromMultiGet(stmt), nil)
	case statement.ClassUpdate:
		call(ctx, rc, d.ports.Update, d.builder.BuildUpdateRequest, backend.FromUpdate,
			response.RecoverUpdateDocumentMissing)
	case statement.ClassCreateIndex:
		call(ctx, rc, d.ports.CreateIndex, d.builder.BuildCreateIndexRequest, backend.FromCreateIndex, nil)
	case statement.ClassDeleteIndex:
		call(ctx, rc, d.ports.DeleteIndex, d.builder.BuildDeleteIndexRequest, backend.FromDeleteIndex, nil)
	case statement.ClassSettingsUpdate:
		call(ctx, rc, d.ports.ClusterSettings, d.builder.BuildClusterSettingsRequest, backend.FromClusterSettings, nil)
	case statement.ClassCopyImport:
		call(ctx, rc, d.ports.Import, d.builder.BuildImportRequest, backend.FromImport, nil)
	case statement.ClassDistributedAggregation:
		call(ctx, rc, d.ports.Distributed, distributedRequest(rc.req), response.PassThrough, nil)
	case statement.ClassCount:
		call(ctx, rc, d.ports.Count, d.builder.BuildCountRequest, backend.FromCount(stmt), nil)
	case statement.ClassPlainSearch:
		call(ctx, rc, d.ports.Search, d.builder.BuildSearchRequest, backend.FromSearch(stmt), nil)
	default:
		rc.listener.OnFailure(sqlerror.Translate(
			errors.AssertionFailedf("unknown classification %s", rc.classification)))
	}
}

// call builds the backend request and invokes the port with a normalizing
// handler. A build error fails the request without calling the port.
func call[Req, Resp any](ctx context.Context,
	rc *requestContext,
	port backend.Port[Req, Resp],
	build func(*statement.Statement) (Req, error),
	convert response.Converter[Resp],
	recover response.Recovery) {
	req, err := build(rc.stmt)
	if err != nil {
		rc.listener.OnFailure(sqlerror.Translate(err))
		return
	}
	port.Execute(ctx, req, response.NewHandler(rc.listener, rc.req.CreatedAt, convert, recover))
}

func statementOf(stmt *statement.Statement) (*statement.Statement, error) {
	return stmt, nil
}

func distributedRequest(req *Request) func(*statement.Statement) (*backend.DistributedRequest, error) {
	return func(stmt *statement.Statement) (*backend.DistributedRequest, error) {
		return &backend.DistributedRequest{
			SQL:       req.SQL,
			Args:      req.Args,
			CreatedAt: req.CreatedAt,
			Statement: stmt,
		}, nil
	}
}

func (d *Dispatcher) fail(req *Request, classification string,
	listener response.Listener[*response.SQLResponse], err error) {
	e := sqlerror.Translate(err)
	metric.IncFailureCount(classification, e.Kind.String())
	if ce := d.logger.Check(zap.DebugLevel, "statement failed"); ce != nil {
		ce.Write(log.RequestIDField(req.ID),
			log.StatementField(req.SQL),
			log.ClassificationField(classification),
			log.ErrorKindField(e.Kind.String()),
			zap.Error(err))
	}
	listener.OnFailure(e)
}

// instrument records the outcome of a classified request
func (d *Dispatcher) instrument(rc *requestContext,
	listener response.Listener[*response.SQLResponse]) response.Listener[*response.SQLResponse] {
	classification := rc.classification.String()
	return response.NewListener(
		func(resp *response.SQLResponse) {
			metric.IncResponseCount(classification)
			metric.ObserveDispatchDuration(classification, resp.Duration)
			if ce := d.logger.Check(zap.DebugLevel, "statement completed"); ce != nil {
				ce.Write(log.RequestIDField(rc.req.ID),
					log.ClassificationField(classification),
					log.DurationField(resp.Duration),
					zap.Int64("rowcount", resp.RowCount))
			}
			listener.OnResponse(resp)
		},
		func(err error) {
			d.fail(rc.req, classification, listener, err)
		})
}
