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
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workers(n int) func() int {
	return func() int { return n }
}

func sum(values []int) (int, error) {
	total := 0
	for _, v := range values {
		total += v
	}
	return total, nil
}

func ones(n int) []func() (int, error) {
	units := make([]func() (int, error), 0, n)
	for i := 0; i < n; i++ {
		units = append(units, func() (int, error) { return 1, nil })
	}
	return units
}

func get[T any](t *testing.T, f *Future[T]) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	return f.Get(ctx)
}

func TestPartition(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 3}, {3, 6}, {6, 10}}, Partition(10, 3))
	assert.Equal(t, [][2]int{{0, 3}, {3, 7}}, Partition(7, 2))
	assert.Equal(t, [][2]int{{0, 5}}, Partition(5, 1))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 3}}, Partition(3, 3))
}

func TestRunEveryUnitExactlyOnce(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for w := 1; w <= n; w++ {
			counts := make([]int32, n)
			units := make([]func() (int, error), 0, n)
			for i := 0; i < n; i++ {
				i := i
				units = append(units, func() (int, error) {
					atomic.AddInt32(&counts[i], 1)
					return 1, nil
				})
			}

			values, err := get(t, RunWithAvailableWorkers(goExecutor, workers(w), units, sum))
			require.NoError(t, err)
			total, _ := sum(values)
			assert.Equal(t, n, total, "n=%d w=%d", n, w)
			for i := range counts {
				assert.Equal(t, int32(1), atomic.LoadInt32(&counts[i]), "n=%d w=%d unit=%d", n, w, i)
			}
		}
	}
}

func TestRunKeepsSubmissionOrder(t *testing.T) {
	n := 6
	units := make([]func() (int, error), 0, n)
	for i := 0; i < n; i++ {
		i := i
		units = append(units, func() (int, error) {
			time.Sleep(time.Millisecond * time.Duration((n-i)*10))
			return i, nil
		})
	}

	values, err := get(t, RunWithAvailableWorkers(goExecutor, workers(n), units, sum))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, values)

	values, err = get(t, RunWithAvailableWorkers(goExecutor, workers(3), units, sum))
	require.NoError(t, err)
	assert.Equal(t, []int{0 + 1, 2 + 3, 4 + 5}, values)
}

func TestRunPartitionSizes(t *testing.T) {
	values, err := get(t, RunWithAvailableWorkers(goExecutor, workers(3), ones(10), sum))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 4}, values)

	var merged int32
	values, err = get(t, RunWithAvailableWorkers(goExecutor, workers(10), ones(5),
		func(values []int) (int, error) {
			atomic.AddInt32(&merged, 1)
			return sum(values)
		}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, values)
	assert.Equal(t, int32(0), atomic.LoadInt32(&merged))
}

func TestRunReadsAvailableWorkersOnce(t *testing.T) {
	calls := 0
	_, err := get(t, RunWithAvailableWorkers(goExecutor, func() int {
		calls++
		return 2
	}, ones(4), sum))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunClampsAvailableWorkers(t *testing.T) {
	values, err := get(t, RunWithAvailableWorkers(goExecutor, workers(0), ones(4), sum))
	require.NoError(t, err)
	assert.Equal(t, []int{4}, values)
}

func TestRunEmptyBatch(t *testing.T) {
	submitted := false
	ex := ExecutorFunc(func(task func()) error {
		submitted = true
		return nil
	})
	values, err := get(t, RunWithAvailableWorkers(ex, workers(3), nil, sum))
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.False(t, submitted)
}

func TestRunRejectedSubmission(t *testing.T) {
	var submitted, executed int32
	var wg sync.WaitGroup
	ex := ExecutorFunc(func(task func()) error {
		if atomic.AddInt32(&submitted, 1) > 1 {
			return sqlerror.Rejected(errors.New("pool overload"))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			task()
		}()
		return nil
	})

	units := ones(4)
	for i := range units {
		units[i] = func() (int, error) {
			atomic.AddInt32(&executed, 1)
			return 1, nil
		}
	}

	_, err := get(t, RunWithAvailableWorkers(ex, workers(4), units, sum))
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindRejection))
	wg.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&submitted))
	assert.Equal(t, int32(1), atomic.LoadInt32(&executed))

	_, err = get(t, RunWithAvailableWorkers(rejectingExecutor, workers(2), ones(4), sum))
	assert.True(t, sqlerror.IsKind(err, sqlerror.KindRejection))
}

func TestRunUnitFailureFailsAggregate(t *testing.T) {
	errUnit := errors.New("unit failed")
	units := ones(5)
	units[3] = func() (int, error) { return 0, errUnit }

	_, err := get(t, RunWithAvailableWorkers(goExecutor, workers(2), units, sum))
	assert.True(t, errors.Is(err, errUnit))

	_, err = get(t, RunWithAvailableWorkers(goExecutor, workers(5), units, sum))
	assert.True(t, errors.Is(err, errUnit))
}

func TestRunUnitPanic(t *testing.T) {
	units := ones(3)
	units[1] = func() (int, error) { panic("boom") }

	_, err := get(t, RunWithAvailableWorkers(goExecutor, workers(1), units, sum))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRunWithPool(t *testing.T) {
	p, err := NewPool(8)
	require.NoError(t, err)
	defer p.Release()

	values, err := get(t, RunWithAvailableWorkers(NewFallbackExecutor(p, nil), p.AvailableWorkers, ones(100), sum))
	require.NoError(t, err)
	total, _ := sum(values)
	assert.Equal(t, 100, total)
	assert.Len(t, values, 8)
}

func TestRunConcatenatesReadGroups(t *testing.T) {
	units := make([]func() ([]string, error), 0, 7)
	for i := 0; i < 7; i++ {
		i := i
		units = append(units, func() ([]string, error) {
			return []string{fmt.Sprintf("row-%d", i)}, nil
		})
	}
	concat := func(values [][]string) ([]string, error) {
		var rows []string
		for _, v := range values {
			rows = append(rows, v...)
		}
		return rows, nil
	}

	values, err := get(t, RunWithAvailableWorkers(goExecutor, workers(2), units, concat))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"row-0", "row-1", "row-2"},
		{"row-3", "row-4", "row-5", "row-6"},
	}, values)
}
