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

package vfs

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotExist(t *testing.T) {
	fs := NewMemFS()
	_, err := fs.Stat("/missing")
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
	assert.True(t, IsNotExist(errors.Wrap(err, "import")))

	_, err = fs.List("/missing")
	assert.True(t, IsNotExist(errors.Wrap(err, "list")))

	f, err := fs.Create("/data.json")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = fs.Stat("/data.json")
	assert.NoError(t, err)
	assert.False(t, IsNotExist(errors.New("disk on fire")))
}
