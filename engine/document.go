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
	"encoding/json"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/matrixorigin/cubesql/backend"
)

var codec = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// document is the stored form of a row
type document struct {
	Version int64                  `json:"v"`
	Source  map[string]interface{} `json:"s"`
}

func encodeDocument(doc document) ([]byte, error) {
	return codec.Marshal(doc)
}

func decodeDocument(value []byte) (document, error) {
	var doc document
	if err := codec.Unmarshal(value, &doc); err != nil {
		return doc, errors.Wrap(err, "decode document")
	}
	for k, v := range doc.Source {
		doc.Source[k] = normalize(v)
	}
	return doc, nil
}

func decodeHit(id string, value []byte) (backend.Hit, error) {
	doc, err := decodeDocument(value)
	if err != nil {
		return backend.Hit{}, err
	}
	return backend.Hit{ID: id, Version: doc.Version, Source: doc.Source}, nil
}

// normalize converts decoded json numbers to int64 or float64
func normalize(v interface{}) interface{} {
	switch value := v.(type) {
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return n
		}
		if f, err := value.Float64(); err == nil {
			return f
		}
		return value.String()
	case []interface{}:
		for i := range value {
			value[i] = normalize(value[i])
		}
		return value
	case map[string]interface{}:
		for k := range value {
			value[k] = normalize(value[k])
		}
		return value
	}
	return v
}
