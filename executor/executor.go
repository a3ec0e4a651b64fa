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

package executor

import (
	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/metric"
	"github.com/matrixorigin/cubesql/sqlerror"
	"go.uber.org/zap"
)

// Executor is a task submission surface. Execute either accepts the task or
// returns an error, a saturated executor returns an error marked with
// sqlerror.ErrRejected.
type Executor interface {
	Execute(task func()) error
}

// ExecutorFunc adapts a function to the Executor interface
type ExecutorFunc func(task func()) error

// Execute calls f(task)
func (f ExecutorFunc) Execute(task func()) error {
	return f(task)
}

// FallbackExecutor submits tasks to the delegate executor, and runs the task
// on the caller if the delegate rejects it. No task is ever dropped.
type FallbackExecutor struct {
	delegate Executor
	logger   *zap.Logger
}

// NewFallbackExecutor returns a FallbackExecutor over the delegate
func NewFallbackExecutor(delegate Executor, logger *zap.Logger) *FallbackExecutor {
	return &FallbackExecutor{
		delegate: delegate,
		logger:   log.Adjust(logger).Named("fallback-executor"),
	}
}

// Execute submits the task to the delegate. If the delegate rejects it, the
// task runs synchronously before Execute returns and nil is returned. Other
// delegate errors are returned unchanged.
func (e *FallbackExecutor) Execute(task func()) error {
	err := e.delegate.Execute(task)
	if err == nil {
		return nil
	}
	if !sqlerror.IsRejected(err) {
		return err
	}

	metric.IncFallbackCount()
	if ce := e.logger.Check(zap.DebugLevel, "delegate rejected task, run on caller"); ce != nil {
		ce.Write(zap.Error(err))
	}
	task()
	return nil
}
