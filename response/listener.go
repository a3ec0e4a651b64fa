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

package response

import "sync/atomic"

// Listener is notified with the result of an asynchronous operation.
type Listener[T any] interface {
	OnResponse(T)
	OnFailure(error)
}

type funcListener[T any] struct {
	onResponse func(T)
	onFailure  func(error)
}

// NewListener returns a listener calling the functions
func NewListener[T any](onResponse func(T), onFailure func(error)) Listener[T] {
	return &funcListener[T]{onResponse: onResponse, onFailure: onFailure}
}

func (l *funcListener[T]) OnResponse(value T) {
	l.onResponse(value)
}

func (l *funcListener[T]) OnFailure(err error) {
	l.onFailure(err)
}

type onceListener[T any] struct {
	notified int32
	delegate Listener[T]
}

// Once returns a listener which delivers at most one notification to the
// delegate, later notifications are dropped.
func Once[T any](l Listener[T]) Listener[T] {
	if o, ok := l.(*onceListener[T]); ok {
		return o
	}
	return &onceListener[T]{delegate: l}
}

func (l *onceListener[T]) OnResponse(value T) {
	if atomic.CompareAndSwapInt32(&l.notified, 0, 1) {
		l.delegate.OnResponse(value)
	}
}

func (l *onceListener[T]) OnFailure(err error) {
	if atomic.CompareAndSwapInt32(&l.notified, 0, 1) {
		l.delegate.OnFailure(err)
	}
}
