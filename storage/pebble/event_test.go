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

package pebble

import (
	"testing"

	cpebble "github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHasEventListener(t *testing.T) {
	assert.False(t, hasEventListener(cpebble.EventListener{}))
	assert.True(t, hasEventListener(cpebble.EventListener{BackgroundError: func(error) {}}))
	assert.True(t, hasEventListener(cpebble.EventListener{DiskSlow: func(cpebble.DiskSlowInfo) {}}))
	assert.True(t, hasEventListener(cpebble.EventListener{WriteStallEnd: func() {}}))
	assert.True(t, hasEventListener(getEventListener(zap.NewNop())))
}
