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

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/sqlerror"
)

var now = time.Now

// Converter converts a backend response into the uniform response
type Converter[R any] func(R) (*SQLResponse, error)

// Recovery turns a backend failure into a successful response. It returns
// false if the failure is not recoverable.
type Recovery func(error) (*SQLResponse, bool)

type handler[R any] struct {
	listener Listener[*SQLResponse]
	start    time.Time
	convert  Converter[R]
	recover  Recovery
}

// NewHandler returns the listener passed to a backend port. A backend response
// is converted and stamped with the request start time and the elapsed
// duration. A backend failure is passed to recover, which may be nil, and
// translated into an outward error if it is not recovered. The listener is
// notified at most once.
func NewHandler[R any](listener Listener[*SQLResponse],
	start time.Time,
	convert Converter[R],
	recover Recovery) Listener[R] {
	return &handler[R]{
		listener: Once(listener),
		start:    start,
		convert:  convert,
		recover:  recover,
	}
}

func (h *handler[R]) OnResponse(value R) {
	resp, err := h.doConvert(value)
	if err != nil {
		h.listener.OnFailure(sqlerror.Translate(err))
		return
	}
	h.deliver(resp)
}

func (h *handler[R]) OnFailure(err error) {
	if h.recover != nil {
		if resp, ok := h.recover(err); ok {
			h.deliver(resp)
			return
		}
	}
	h.listener.OnFailure(sqlerror.Translate(err))
}

func (h *handler[R]) doConvert(value R) (resp *SQLResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("convert backend response panic: %v", r)
		}
	}()
	resp, err = h.convert(value)
	if err == nil && resp == nil {
		err = errors.New("backend returned no response")
	}
	return
}

// deliver stamps the request start time, replacing any start time set by the
// backend itself.
func (h *handler[R]) deliver(resp *SQLResponse) {
	resp.RequestStartedTime = h.start
	resp.Duration = now().Sub(h.start)
	h.listener.OnResponse(resp)
}

// PassThrough is the converter of backends answering with the uniform
// response
func PassThrough(resp *SQLResponse) (*SQLResponse, error) {
	return resp, nil
}

// RecoverDeleteVersionConflict turns a version conflict of a delete into a
// response without deleted rows.
func RecoverDeleteVersionConflict(err error) (*SQLResponse, bool) {
	if errors.Is(err, sqlerror.ErrVersionConflict) {
		return NewRowCountResponse(0), true
	}
	return nil, false
}

// RecoverUpdateDocumentMissing turns a missing document of an update into a
// response flagged as document missing.
func RecoverUpdateDocumentMissing(err error) (*SQLResponse, bool) {
	if errors.Is(err, sqlerror.ErrDocumentMissing) {
		resp := NewRowCountResponse(0)
		resp.DocumentMissing = true
		return resp, true
	}
	return nil, false
}
