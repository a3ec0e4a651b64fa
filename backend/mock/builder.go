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

package mock

import (
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/matrixorigin/cubesql/backend"
	"github.com/matrixorigin/cubesql/statement"
)

// MockRequestBuilder is a mock of the backend.RequestBuilder interface.
type MockRequestBuilder struct {
	ctrl     *gomock.Controller
	recorder *MockRequestBuilderMockRecorder
}

// MockRequestBuilderMockRecorder is the mock recorder for MockRequestBuilder.
type MockRequestBuilderMockRecorder struct {
	mock *MockRequestBuilder
}

// NewMockRequestBuilder creates a new mock instance.
func NewMockRequestBuilder(ctrl *gomock.Controller) *MockRequestBuilder {
	mock := &MockRequestBuilder{ctrl: ctrl}
	mock.recorder = &MockRequestBuilderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRequestBuilder) EXPECT() *MockRequestBuilderMockRecorder {
	return m.recorder
}

// BuildSearchRequest mocks base method.
func (m *MockRequestBuilder) BuildSearchRequest(arg0 *statement.Statement) (*backend.SearchRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildSearchRequest", arg0)
	ret0, _ := ret[0].(*backend.SearchRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildSearchRequest indicates an expected call of BuildSearchRequest.
func (mr *MockRequestBuilderMockRecorder) BuildSearchRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildSearchRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildSearchRequest), arg0)
}

// BuildIndexRequest mocks base method.
func (m *MockRequestBuilder) BuildIndexRequest(arg0 *statement.Statement) (*backend.IndexRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildIndexRequest", arg0)
	ret0, _ := ret[0].(*backend.IndexRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildIndexRequest indicates an expected call of BuildIndexRequest.
func (mr *MockRequestBuilderMockRecorder) BuildIndexRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildIndexRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildIndexRequest), arg0)
}

// BuildDeleteByQueryRequest mocks base method.
func (m *MockRequestBuilder) BuildDeleteByQueryRequest(arg0 *statement.Statement) (*backend.DeleteByQueryRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildDeleteByQueryRequest", arg0)
	ret0, _ := ret[0].(*backend.DeleteByQueryRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildDeleteByQueryRequest indicates an expected call of BuildDeleteByQueryRequest.
func (mr *MockRequestBuilderMockRecorder) BuildDeleteByQueryRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildDeleteByQueryRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildDeleteByQueryRequest), arg0)
}

// BuildDeleteRequest mocks base method.
func (m *MockRequestBuilder) BuildDeleteRequest(arg0 *statement.Statement) (*backend.DeleteRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildDeleteRequest", arg0)
	ret0, _ := ret[0].(*backend.DeleteRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildDeleteRequest indicates an expected call of BuildDeleteRequest.
func (mr *MockRequestBuilderMockRecorder) BuildDeleteRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildDeleteRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildDeleteRequest), arg0)
}

// BuildBulkRequest mocks base method.
func (m *MockRequestBuilder) BuildBulkRequest(arg0 *statement.Statement) (*backend.BulkRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildBulkRequest", arg0)
	ret0, _ := ret[0].(*backend.BulkRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildBulkRequest indicates an expected call of BuildBulkRequest.
func (mr *MockRequestBuilderMockRecorder) BuildBulkRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildBulkRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildBulkRequest), arg0)
}

// BuildGetRequest mocks base method.
func (m *MockRequestBuilder) BuildGetRequest(arg0 *statement.Statement) (*backend.GetRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildGetRequest", arg0)
	ret0, _ := ret[0].(*backend.GetRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildGetRequest indicates an expected call of BuildGetRequest.
func (mr *MockRequestBuilderMockRecorder) BuildGetRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildGetRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildGetRequest), arg0)
}

// BuildMultiGetRequest mocks base method.
func (m *MockRequestBuilder) BuildMultiGetRequest(arg0 *statement.Statement) (*backend.MultiGetRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildMultiGetRequest", arg0)
	ret0, _ := ret[0].(*backend.MultiGetRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildMultiGetRequest indicates an expected call of BuildMultiGetRequest.
func (mr *MockRequestBuilderMockRecorder) BuildMultiGetRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildMultiGetRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildMultiGetRequest), arg0)
}

// BuildUpdateRequest mocks base method.
func (m *MockRequestBuilder) BuildUpdateRequest(arg0 *statement.Statement) (*backend.UpdateRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildUpdateRequest", arg0)
	ret0, _ := ret[0].(*backend.UpdateRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildUpdateRequest indicates an expected call of BuildUpdateRequest.
func (mr *MockRequestBuilderMockRecorder) BuildUpdateRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildUpdateRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildUpdateRequest), arg0)
}

// BuildCountRequest mocks base method.
func (m *MockRequestBuilder) BuildCountRequest(arg0 *statement.Statement) (*backend.CountRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildCountRequest", arg0)
	ret0, _ := ret[0].(*backend.CountRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildCountRequest indicates an expected call of BuildCountRequest.
func (mr *MockRequestBuilderMockRecorder) BuildCountRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildCountRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildCountRequest), arg0)
}

// BuildCreateIndexRequest mocks base method.
func (m *MockRequestBuilder) BuildCreateIndexRequest(arg0 *statement.Statement) (*backend.CreateIndexRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildCreateIndexRequest", arg0)
	ret0, _ := ret[0].(*backend.CreateIndexRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildCreateIndexRequest indicates an expected call of BuildCreateIndexRequest.
func (mr *MockRequestBuilderMockRecorder) BuildCreateIndexRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildCreateIndexRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildCreateIndexRequest), arg0)
}

// BuildDeleteIndexRequest mocks base method.
func (m *MockRequestBuilder) BuildDeleteIndexRequest(arg0 *statement.Statement) (*backend.DeleteIndexRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildDeleteIndexRequest", arg0)
	ret0, _ := ret[0].(*backend.DeleteIndexRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildDeleteIndexRequest indicates an expected call of BuildDeleteIndexRequest.
func (mr *MockRequestBuilderMockRecorder) BuildDeleteIndexRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildDeleteIndexRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildDeleteIndexRequest), arg0)
}

// BuildClusterSettingsRequest mocks base method.
func (m *MockRequestBuilder) BuildClusterSettingsRequest(arg0 *statement.Statement) (*backend.ClusterSettingsRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildClusterSettingsRequest", arg0)
	ret0, _ := ret[0].(*backend.ClusterSettingsRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildClusterSettingsRequest indicates an expected call of BuildClusterSettingsRequest.
func (mr *MockRequestBuilderMockRecorder) BuildClusterSettingsRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildClusterSettingsRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildClusterSettingsRequest), arg0)
}

// BuildImportRequest mocks base method.
func (m *MockRequestBuilder) BuildImportRequest(arg0 *statement.Statement) (*backend.ImportRequest, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BuildImportRequest", arg0)
	ret0, _ := ret[0].(*backend.ImportRequest)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BuildImportRequest indicates an expected call of BuildImportRequest.
func (mr *MockRequestBuilderMockRecorder) BuildImportRequest(arg0 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BuildImportRequest", reflect.TypeOf((*MockRequestBuilder)(nil).BuildImportRequest), arg0)
}
