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
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
	"github.com/xwb1989/sqlparser"
	"go.uber.org/zap"
)

// Choice is the parser path of a statement
type Choice int

const (
	// ChoiceLegacy the statement is analyzed from the legacy tree
	ChoiceLegacy Choice = iota
	// ChoiceCurrent the statement needs the current parser path, which is
	// not implemented yet
	ChoiceCurrent
)

func (c Choice) String() string {
	if c == ChoiceCurrent {
		return "current"
	}
	return "legacy"
}

const reservedTable = "nodes"

// Tree is the legacy parse tree of a statement. Exactly one field is set.
type Tree struct {
	Statement sqlparser.Statement
	Copy      *CopyStatement
}

// Gate decides the parser path of statements. Statements reading the
// reserved sys.nodes relation are routed to the current path, every other
// statement stays on the legacy path.
type Gate struct {
	logger *zap.Logger
}

// NewGate returns a gate
func NewGate(logger *zap.Logger) *Gate {
	return &Gate{logger: log.Adjust(logger).Named("gate")}
}

// Classify parses the statement with the legacy grammar. It returns
// ChoiceCurrent without a tree if any table reference resolves to sys.nodes.
// A parse failure is a malformed statement error.
func (g *Gate) Classify(sql string) (Choice, *Tree, error) {
	tree, err := parse(sql)
	if err != nil {
		return ChoiceLegacy, nil, err
	}

	if referencesReservedTable(tree) {
		if ce := g.logger.Check(zap.DebugLevel, "statement routed to current parser path"); ce != nil {
			ce.Write(log.StatementField(sql))
		}
		return ChoiceCurrent, nil, nil
	}
	return ChoiceLegacy, tree, nil
}

func parse(sql string) (*Tree, error) {
	if isCopy(sql) {
		stmt, ok := parseCopy(sql)
		if !ok {
			return nil, sqlerror.Malformedf("invalid copy statement: %s", sql)
		}
		return &Tree{Copy: stmt}, nil
	}

	stmt, err := sqlparser.ParseStrictDDL(sql)
	if err != nil {
		return nil, sqlerror.MalformedWrap(err, "parse statement")
	}
	return &Tree{Statement: stmt}, nil
}

var errFound = errors.New("found")

// referencesReservedTable walks the tree parents first and stops at the first
// base table reference resolving to sys.nodes.
func referencesReservedTable(tree *Tree) bool {
	if tree.Copy != nil {
		return isReservedTable(tree.Copy.Schema, tree.Copy.Table)
	}

	err := sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		expr, ok := node.(*sqlparser.AliasedTableExpr)
		if !ok {
			return true, nil
		}
		if name, ok := expr.Expr.(sqlparser.TableName); ok &&
			isReservedTable(name.Qualifier.String(), name.Name.String()) {
			return false, errFound
		}
		return true, nil
	}, tree.Statement)
	return err == errFound
}

// isReservedTable returns true for sys.nodes in any letter casing, and for an
// unqualified nodes, which resolves to the reserved relation.
func isReservedTable(schema, table string) bool {
	if !strings.EqualFold(table, reservedTable) {
		return false
	}
	return schema == "" || strings.EqualFold(schema, statement.SchemaSys)
}
