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

// Package mock contains gomock mocks of the backend ports.
package mock

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/matrixorigin/cubesql/response"
)

// MockPort is a mock of the backend.Port interface.
type MockPort[Req, Resp any] struct {
	ctrl     *gomock.Controller
	recorder *MockPortMockRecorder[Req, Resp]
}

// MockPortMockRecorder is the mock recorder for MockPort.
type MockPortMockRecorder[Req, Resp any] struct {
	mock *MockPort[Req, Resp]
}

// NewMockPort creates a new mock instance.
func NewMockPort[Req, Resp any](ctrl *gomock.Controller) *MockPort[Req, Resp] {
	mock := &MockPort[Req, Resp]{ctrl: ctrl}
	mock.recorder = &MockPortMockRecorder[Req, Resp]{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockPort[Req, Resp]) EXPECT() *MockPortMockRecorder[Req, Resp] {
	return m.recorder
}

// Execute mocks base method.
func (m *MockPort[Req, Resp]) Execute(ctx context.Context, req Req, listener response.Listener[Resp]) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Execute", ctx, req, listener)
}

// Execute indicates an expected call of Execute.
func (mr *MockPortMockRecorder[Req, Resp]) Execute(ctx, req, listener interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Execute",
		reflect.TypeOf((*MockPort[Req, Resp])(nil).Execute), ctx, req, listener)
}
