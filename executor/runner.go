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
	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/metric"
	"github.com/matrixorigin/cubesql/sqlerror"
	"go.uber.org/zap"
)

// RunWithAvailableWorkers runs each unit in its own task unless there are not
// enough available workers. In that case the units are partitioned into
// exactly available() contiguous groups of len(units)/available() units, the
// remainder is folded into the last group. A group task runs its units in
// order and combines their values with merge, so merge must give the same
// result regardless of how the units are grouped.
//
// available is read once per call. The returned future holds one value per
// task in submission order. If the executor rejects a task, no further tasks
// are submitted and the future fails with a rejection error.
func RunWithAvailableWorkers[T any](ex Executor,
	available func() int,
	units []func() (T, error),
	merge func([]T) (T, error)) *Future[[]T] {
	if len(units) == 0 {
		return CompletedFuture([]T{})
	}

	w := available()
	if w < 1 {
		w = 1
	}

	logger := log.Logger().Named("runner")
	if w >= len(units) {
		if ce := logger.Check(zap.DebugLevel, "run units individually"); ce != nil {
			ce.Write(log.WorkerCountField(w), log.UnitCountField(len(units)))
		}

		futures := make([]*Future[T], 0, len(units))
		for _, unit := range units {
			f, err := submit(ex, unit)
			if err != nil {
				return FailedFuture[[]T](submitError(err))
			}
			futures = append(futures, f)
		}
		metric.AddIndividualGroupCount(len(futures))
		return AllAsList(futures)
	}

	groups := Partition(len(units), w)
	if ce := logger.Check(zap.DebugLevel, "run units partitioned"); ce != nil {
		ce.Write(log.WorkerCountField(w), log.UnitCountField(len(units)))
	}

	futures := make([]*Future[T], 0, len(groups))
	for _, g := range groups {
		group := units[g[0]:g[1]]
		metric.ObservePartitionSize(len(group))
		f, err := submit(ex, func() (T, error) {
			values := make([]T, 0, len(group))
			for _, unit := range group {
				v, err := unit()
				if err != nil {
					var zero T
					return zero, err
				}
				values = append(values, v)
			}
			return merge(values)
		})
		if err != nil {
			return FailedFuture[[]T](submitError(err))
		}
		futures = append(futures, f)
	}
	metric.AddPartitionedGroupCount(len(futures))
	return AllAsList(futures)
}

// Partition returns the [start, end) bounds of exactly w contiguous groups
// over n units, each of n/w units with the remainder folded into the last
// group. It requires 1 <= w <= n.
func Partition(n, w int) [][2]int {
	size := n / w
	groups := make([][2]int, 0, w)
	for i := 0; i < w; i++ {
		start := i * size
		end := start + size
		if i == w-1 {
			end = n
		}
		groups = append(groups, [2]int{start, end})
	}
	return groups
}

func submit[T any](ex Executor, fn func() (T, error)) (*Future[T], error) {
	f := NewFuture[T]()
	err := ex.Execute(func() {
		v, err := call(fn)
		if err != nil {
			f.Fail(err)
			return
		}
		f.Complete(v)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func call[T any](fn func() (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("work unit panic: %v", r)
		}
	}()
	return fn()
}

func submitError(err error) error {
	if sqlerror.IsRejected(err) {
		return sqlerror.New(sqlerror.KindRejection, "worker pool saturated", err)
	}
	return err
}
