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

package parser

import (
	"regexp"
	"strings"
)

// CopyStatement is a COPY <table> FROM '<path>' statement, which the legacy
// grammar does not support.
type CopyStatement struct {
	Schema string
	Table  string
	// Path is empty if the path is the positional placeholder
	Path        string
	Placeholder bool
}

var (
	copyPrefix = regexp.MustCompile(`(?is)^\s*copy\s`)
	copyStmt   = regexp.MustCompile(
		`(?is)^\s*copy\s+(\w+|"[^"]+")(?:\s*\.\s*(\w+|"[^"]+"))?\s+from\s+(?:'((?:[^']|'')*)'|(\?))\s*;?\s*$`)
)

// isCopy returns true if the statement starts with the copy keyword
func isCopy(sql string) bool {
	return copyPrefix.MatchString(sql)
}

// parseCopy parses a copy statement, returns false if the statement is not a
// valid copy statement.
func parseCopy(sql string) (*CopyStatement, bool) {
	m := copyStmt.FindStringSubmatch(sql)
	if m == nil {
		return nil, false
	}

	stmt := &CopyStatement{}
	if m[2] == "" {
		stmt.Table = identifier(m[1])
	} else {
		stmt.Schema = identifier(m[1])
		stmt.Table = identifier(m[2])
	}
	if m[4] != "" {
		stmt.Placeholder = true
	} else {
		stmt.Path = strings.ReplaceAll(m[3], "''", "'")
	}
	return stmt, true
}

func identifier(value string) string {
	if strings.HasPrefix(value, `"`) {
		return strings.Trim(value, `"`)
	}
	return strings.ToLower(value)
}
