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

// Package vfs is the file system used by COPY FROM. Imports read through an
// FS so tests can run against memory files.
package vfs

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	lvfs "github.com/lni/vfs"
)

// FS file system of the import sources
type FS = lvfs.FS

// File an opened import source
type File = lvfs.File

// Default reads the local disk
var Default FS = lvfs.Default

// NewMemFS returns an empty memory file system
func NewMemFS() FS {
	return lvfs.NewMem()
}

// IsNotExist returns true if err reports a missing file or directory
func IsNotExist(err error) bool {
	return oserror.IsNotExist(errors.UnwrapAll(err))
}
