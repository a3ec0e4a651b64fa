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

package util

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPUCount(t *testing.T) {
	assert.True(t, CPUCount() > 0)
}

func TestGetHostStats(t *testing.T) {
	stats, err := GetHostStats("")
	require.NoError(t, err)
	assert.True(t, stats.CPUs > 0)
	assert.True(t, stats.MemoryTotal > 0)
	assert.Equal(t, uint64(0), stats.DiskTotal)

	stats, err = GetHostStats(os.TempDir())
	require.NoError(t, err)
	assert.True(t, stats.DiskTotal > 0)
}
