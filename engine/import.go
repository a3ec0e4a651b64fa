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

package engine

import (
	"bufio"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/backend"
	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
	"github.com/matrixorigin/cubesql/vfs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	maxImportLineSize      = 16 * 1024 * 1024
	maxConcurrentFileReads = 4
)

// importFiles imports json lines from a file, a directory or the files
// matching a pattern in the last path element
func (e *Engine) importFiles(req *backend.ImportRequest) (*backend.ImportResponse, error) {
	info, err := e.catalog.table(req.Schema, req.Table)
	if err != nil {
		return nil, err
	}
	files, err := e.importPaths(strings.TrimPrefix(req.Path, "file://"))
	if err != nil {
		return nil, err
	}

	var imported, failed int64
	g := errgroup.Group{}
	g.SetLimit(maxConcurrentFileReads)
	for _, file := range files {
		file := file
		g.Go(func() error {
			ok, bad, err := e.importFile(info, file)
			atomic.AddInt64(&imported, ok)
			atomic.AddInt64(&failed, bad)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("import completed",
		log.TableField(info.Schema, info.Name),
		zap.Int("files", len(files)),
		zap.Int64("imported", imported),
		zap.Int64("failed", failed))
	return &backend.ImportResponse{Files: len(files), Imported: imported, Failed: failed}, nil
}

func (e *Engine) importPaths(name string) ([]string, error) {
	fs := e.opts.fs
	if !strings.ContainsAny(fs.PathBase(name), "*?[") {
		stat, err := fs.Stat(name)
		if err != nil {
			return nil, pathError(err, "import %s", name)
		}
		if !stat.IsDir() {
			return []string{name}, nil
		}
		return e.listFiles(name, "*")
	}
	return e.listFiles(fs.PathDir(name), fs.PathBase(name))
}

func (e *Engine) listFiles(dir, pattern string) ([]string, error) {
	fs := e.opts.fs
	names, err := fs.List(dir)
	if err != nil {
		return nil, pathError(err, "list %s", dir)
	}
	sort.Strings(names)

	var files []string
	for _, name := range names {
		if ok, err := path.Match(pattern, name); err != nil || !ok {
			continue
		}
		file := fs.PathJoin(dir, name)
		stat, err := fs.Stat(file)
		if err != nil {
			return nil, err
		}
		if !stat.IsDir() {
			files = append(files, file)
		}
	}
	return files, nil
}

// importFile returns the number of imported and failed rows of the file
func (e *Engine) importFile(info *TableInfo, name string) (int64, int64, error) {
	f, err := e.opts.fs.Open(name)
	if err != nil {
		return 0, 0, pathError(err, "open %s", name)
	}
	defer f.Close()

	var imported, failed int64
	batch := make([]backend.IndexRequest, 0, e.opts.importBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		resp, err := e.bulk(&backend.BulkRequest{Schema: info.Schema, Table: info.Name, Items: batch})
		if err != nil {
			return err
		}
		ok := resp.Succeeded()
		imported += ok
		failed += int64(len(batch)) - ok
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if e.bucket != nil {
			e.bucket.Wait(1)
		}

		item, err := e.importRow(info, line)
		if err != nil {
			failed++
			continue
		}
		batch = append(batch, item)
		if len(batch) == e.opts.importBatchSize {
			if err := flush(); err != nil {
				return imported, failed, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return imported, failed, errors.Wrapf(err, "read %s", name)
	}
	return imported, failed, flush()
}

func (e *Engine) importRow(info *TableInfo, line string) (backend.IndexRequest, error) {
	var source map[string]interface{}
	if err := codec.UnmarshalFromString(line, &source); err != nil {
		return backend.IndexRequest{}, err
	}
	for k, v := range source {
		source[k] = normalize(v)
	}

	item := backend.IndexRequest{Schema: info.Schema, Table: info.Name, Source: source}
	pk := info.PrimaryKey
	if pk == "" || pk == statement.ColumnID {
		pk = statement.ColumnID
		if v, ok := source[pk]; ok {
			delete(source, pk)
			id, err := statement.KeyString(v)
			if err != nil {
				return item, err
			}
			item.ID = id
		}
		return item, nil
	}

	v, ok := source[pk]
	if !ok {
		return item, errors.Newf("missing primary key %s", pk)
	}
	id, err := statement.KeyString(v)
	if err != nil {
		return item, err
	}
	item.ID = id
	return item, nil
}

// pathError marks errors of missing import sources with sqlerror.ErrPathMissing
func pathError(err error, format string, args ...interface{}) error {
	err = errors.Wrapf(err, format, args...)
	if vfs.IsNotExist(err) {
		return errors.Mark(err, sqlerror.ErrPathMissing)
	}
	return err
}
