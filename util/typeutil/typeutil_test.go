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

package typeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteSize(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("64MB")))
	assert.Equal(t, ByteSize(64*1024*1024), b)

	require.NoError(t, b.UnmarshalJSON([]byte(`"1KB"`)))
	assert.Equal(t, ByteSize(1024), b)

	v, err := b.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1KiB"`, string(v))

	assert.Error(t, b.UnmarshalText([]byte("many bytes")))
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, time.Second*90, d.Duration)

	require.NoError(t, d.UnmarshalJSON([]byte(`"10ms"`)))
	assert.Equal(t, NewDuration(time.Millisecond*10), d)

	v, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "10ms", string(v))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
