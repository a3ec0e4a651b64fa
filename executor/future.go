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
	"sync"
)

// Future is the result of an asynchronous computation. A future is completed
// at most once, later completions are ignored.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	value     T
	err       error
	callbacks []func(T, error)
}

// NewFuture returns an incomplete future
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// CompletedFuture returns a future completed with the value
func CompletedFuture[T any](value T) *Future[T] {
	f := NewFuture[T]()
	f.Complete(value)
	return f
}

// FailedFuture returns a future failed with the error
func FailedFuture[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Fail(err)
	return f
}

// Complete completes the future with the value. Returns false if the future
// was already completed.
func (f *Future[T]) Complete(value T) bool {
	return f.finish(value, nil)
}

// Fail completes the future with the error. Returns false if the future was
// already completed.
func (f *Future[T]) Fail(err error) bool {
	var zero T
	return f.finish(zero, err)
}

func (f *Future[T]) finish(value T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.value = value
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(value, err)
	}
	return true
}

// Done returns a channel which is closed once the future is completed
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get waits for the result. The context only bounds the wait, the
// computation behind the future is not canceled.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers a callback called with the result once the future is
// completed. If the future is already completed, the callback is called
// immediately on the caller.
func (f *Future[T]) OnComplete(cb func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	cb(value, err)
}

// AllAsList returns a future completed with the values of all futures in
// input order. The first failure fails the returned future, the values of the
// remaining futures are discarded.
func AllAsList[T any](futures []*Future[T]) *Future[[]T] {
	result := NewFuture[[]T]()
	if len(futures) == 0 {
		result.Complete([]T{})
		return result
	}

	var mu sync.Mutex
	values := make([]T, len(futures))
	pending := len(futures)
	for i, f := range futures {
		i := i
		f.OnComplete(func(value T, err error) {
			if err != nil {
				result.Fail(err)
				return
			}

			mu.Lock()
			values[i] = value
			pending--
			last := pending == 0
			mu.Unlock()

			if last {
				result.Complete(values)
			}
		})
	}
	return result
}
