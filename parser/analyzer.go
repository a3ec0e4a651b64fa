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

	"github.com/matrixorigin/cubesql/sqlerror"
	"github.com/matrixorigin/cubesql/statement"
	"github.com/xwb1989/sqlparser"
)

// DefaultPrimaryKey is the primary key column of tables created without one
const DefaultPrimaryKey = statement.ColumnID

// PrimaryKeyResolver returns the primary key column of a table.
type PrimaryKeyResolver interface {
	PrimaryKey(schema, table string) (string, bool)
}

var ifNotExists = regexp.MustCompile(`(?is)^\s*create\s+table\s+if\s+not\s+exists\s`)

// Analyzer turns a legacy tree into a statement and sets its type tag.
type Analyzer struct {
	defaultSchema string
	resolver      PrimaryKeyResolver
}

// NewAnalyzer returns an analyzer, resolver may be nil in which case every
// table uses DefaultPrimaryKey.
func NewAnalyzer(defaultSchema string, resolver PrimaryKeyResolver) *Analyzer {
	return &Analyzer{defaultSchema: strings.ToLower(defaultSchema), resolver: resolver}
}

// Analyze builds the statement of the tree, binding the positional args.
// Every error is a malformed statement error.
func (a *Analyzer) Analyze(sql string, tree *Tree, args []interface{}) (*statement.Statement, error) {
	b, err := newBinder(tree, args)
	if err != nil {
		return nil, err
	}

	stmt := &statement.Statement{SQL: sql}
	if tree.Copy != nil {
		err = a.analyzeCopy(stmt, tree.Copy, b)
	} else {
		switch node := tree.Statement.(type) {
		case *sqlparser.Select:
			err = a.analyzeSelect(stmt, node, b)
		case *sqlparser.Insert:
			err = a.analyzeInsert(stmt, node, b)
		case *sqlparser.Update:
			err = a.analyzeUpdate(stmt, node, b)
		case *sqlparser.Delete:
			err = a.analyzeDelete(stmt, node, b)
		case *sqlparser.DDL:
			err = a.analyzeDDL(stmt, node)
		case *sqlparser.Set:
			err = a.analyzeSet(stmt, node, b)
		default:
			err = sqlerror.Malformedf("unsupported statement: %s", sqlparser.String(tree.Statement))
		}
	}
	if err != nil {
		if sqlerror.IsKind(err, sqlerror.KindMalformedStatement) {
			return nil, err
		}
		return nil, sqlerror.MalformedWrap(err, "analyze statement")
	}
	return stmt, nil
}

func (a *Analyzer) analyzeCopy(stmt *statement.Statement, node *CopyStatement, b *binder) error {
	a.setTable(stmt, node.Schema, node.Table)
	stmt.Type = statement.TypeCopyImport
	stmt.ImportPath = node.Path
	if node.Placeholder {
		v, err := b.arg(1)
		if err != nil {
			return err
		}
		path, ok := v.(string)
		if !ok {
			return sqlerror.Malformedf("copy path must be a string, got %T", v)
		}
		stmt.ImportPath = path
	}
	return nil
}

func (a *Analyzer) analyzeSelect(stmt *statement.Statement, node *sqlparser.Select, b *binder) error {
	if node.Distinct != "" {
		return sqlerror.Malformedf("select distinct is not supported")
	}
	if node.Having != nil {
		return sqlerror.Malformedf("having is not supported")
	}

	schema, table, err := singleTable(node.From)
	if err != nil {
		return err
	}
	a.setTable(stmt, schema, table)

	if stmt.Outputs, err = outputs(node.SelectExprs); err != nil {
		return err
	}
	if stmt.GroupBy, err = groupBy(node.GroupBy); err != nil {
		return err
	}
	if err = checkGrouping(stmt); err != nil {
		return err
	}
	if node.Where != nil {
		if stmt.Conditions, err = conditions(node.Where.Expr, b); err != nil {
			return err
		}
	}
	if stmt.OrderBy, err = orderBy(node.OrderBy); err != nil {
		return err
	}
	if node.Limit != nil {
		if stmt.Limit, stmt.Offset, err = limit(node.Limit, b); err != nil {
			return err
		}
	}

	switch {
	case stmt.Schema == statement.SchemaInformation:
		stmt.Type = statement.TypeInformationSchema
		return nil
	case stmt.Schema == statement.SchemaSys:
		stmt.Type = statement.TypeDistributedStats
		return nil
	}

	aggregates := stmt.HasAggregates()
	stmt.CountOnly = isCountOnly(stmt.Outputs)
	stmt.GlobalAggregate = aggregates && !stmt.HasGroupBy() && !stmt.CountOnly
	if aggregates || stmt.HasGroupBy() || len(stmt.OrderBy) > 0 || stmt.Limit != nil || stmt.Offset > 0 {
		return nil
	}

	keys, op, ok := primaryKeyLookup(stmt)
	if !ok {
		return nil
	}
	stmt.PrimaryKeys = keys
	if op == statement.OpEq {
		stmt.Type = statement.TypeGet
	} else {
		stmt.Type = statement.TypeMultiGet
	}
	return nil
}

func (a *Analyzer) analyzeInsert(stmt *statement.Statement, node *sqlparser.Insert, b *binder) error {
	if node.Action != sqlparser.InsertStr {
		return sqlerror.Malformedf("%s is not supported", node.Action)
	}
	if len(node.OnDup) > 0 {
		return sqlerror.Malformedf("on duplicate key update is not supported")
	}
	a.setTable(stmt, node.Table.Qualifier.String(), node.Table.Name.String())
	if statement.IsSystemSchema(stmt.Schema) {
		return sqlerror.Malformedf("schema %s is read only", stmt.Schema)
	}

	if len(node.Columns) == 0 {
		return sqlerror.Malformedf("insert requires a column list")
	}
	for _, c := range node.Columns {
		stmt.Columns = append(stmt.Columns, c.Lowered())
	}

	values, ok := node.Rows.(sqlparser.Values)
	if !ok {
		return sqlerror.Malformedf("insert from query is not supported")
	}
	for _, tuple := range values {
		if len(tuple) != len(stmt.Columns) {
			return sqlerror.Malformedf("insert has %d columns but %d values", len(stmt.Columns), len(tuple))
		}
		row := make([]interface{}, 0, len(tuple))
		for _, expr := range tuple {
			v, err := b.value(expr)
			if err != nil {
				return err
			}
			row = append(row, v)
		}
		stmt.Rows = append(stmt.Rows, row)
	}

	stmt.Type = statement.TypeInsert
	if len(stmt.Rows) > 1 {
		stmt.Type = statement.TypeBulk
	}
	return nil
}

func (a *Analyzer) analyzeUpdate(stmt *statement.Statement, node *sqlparser.Update, b *binder) error {
	if len(node.OrderBy) > 0 || node.Limit != nil {
		return sqlerror.Malformedf("update with order by or limit is not supported")
	}
	schema, table, err := singleTable(node.TableExprs)
	if err != nil {
		return err
	}
	a.setTable(stmt, schema, table)
	if statement.IsSystemSchema(stmt.Schema) {
		return sqlerror.Malformedf("schema %s is read only", stmt.Schema)
	}

	for _, expr := range node.Exprs {
		v, err := b.value(expr.Expr)
		if err != nil {
			return err
		}
		stmt.Assignments = append(stmt.Assignments, statement.Assignment{
			Column: expr.Name.Name.Lowered(),
			Value:  v,
		})
	}
	if node.Where != nil {
		if stmt.Conditions, err = conditions(node.Where.Expr, b); err != nil {
			return err
		}
	}

	keys, version, ok := primaryKeyWrite(stmt)
	if !ok {
		return sqlerror.Malformedf("update requires a %s equality", stmt.PrimaryKeyColumn)
	}
	stmt.Type = statement.TypeUpdate
	stmt.PrimaryKeys = keys
	stmt.Version = version
	return nil
}

func (a *Analyzer) analyzeDelete(stmt *statement.Statement, node *sqlparser.Delete, b *binder) error {
	if len(node.Targets) > 0 || len(node.OrderBy) > 0 || node.Limit != nil {
		return sqlerror.Malformedf("delete with targets, order by or limit is not supported")
	}
	schema, table, err := singleTable(node.TableExprs)
	if err != nil {
		return err
	}
	a.setTable(stmt, schema, table)
	if statement.IsSystemSchema(stmt.Schema) {
		return sqlerror.Malformedf("schema %s is read only", stmt.Schema)
	}

	if node.Where != nil {
		if stmt.Conditions, err = conditions(node.Where.Expr, b); err != nil {
			return err
		}
	}

	stmt.Type = statement.TypeDeleteByQuery
	if keys, version, ok := primaryKeyWrite(stmt); ok {
		stmt.Type = statement.TypeDelete
		stmt.PrimaryKeys = keys
		stmt.Version = version
	}
	return nil
}

func (a *Analyzer) analyzeDDL(stmt *statement.Statement, node *sqlparser.DDL) error {
	switch node.Action {
	case sqlparser.CreateStr:
		name := node.NewName
		if name.Name.IsEmpty() {
			name = node.Table
		}
		a.setTable(stmt, name.Qualifier.String(), name.Name.String())
		if node.TableSpec == nil {
			return sqlerror.Malformedf("create table %s without columns", stmt.QualifiedTable())
		}
		if opts := strings.TrimSpace(node.TableSpec.Options); opts != "" {
			return sqlerror.Malformedf("unsupported table options %q", opts)
		}

		pk, err := tableColumns(stmt, node.TableSpec)
		if err != nil {
			return err
		}
		stmt.PrimaryKeyColumn = pk
		stmt.IfNotExists = ifNotExists.MatchString(stmt.SQL)
		stmt.Type = statement.TypeCreateIndex
	case sqlparser.DropStr:
		a.setTable(stmt, node.Table.Qualifier.String(), node.Table.Name.String())
		stmt.IfExists = node.IfExists
		stmt.Type = statement.TypeDeleteIndex
	default:
		return sqlerror.Malformedf("%s table is not supported", node.Action)
	}

	if statement.IsSystemSchema(stmt.Schema) {
		return sqlerror.Malformedf("schema %s is read only", stmt.Schema)
	}
	return nil
}

func (a *Analyzer) analyzeSet(stmt *statement.Statement, node *sqlparser.Set, b *binder) error {
	stmt.Settings = make(map[string]interface{}, len(node.Exprs))
	for _, expr := range node.Exprs {
		v, err := b.value(expr.Expr)
		if err != nil {
			return err
		}
		stmt.Settings[expr.Name.Lowered()] = v
	}
	stmt.Type = statement.TypeCreateAnalyzer
	return nil
}

func (a *Analyzer) setTable(stmt *statement.Statement, schema, table string) {
	stmt.Schema = strings.ToLower(schema)
	if stmt.Schema == "" {
		stmt.Schema = a.defaultSchema
	}
	stmt.Table = strings.ToLower(table)
	stmt.PrimaryKeyColumn = DefaultPrimaryKey
	if a.resolver != nil && !statement.IsSystemSchema(stmt.Schema) {
		if pk, ok := a.resolver.PrimaryKey(stmt.Schema, stmt.Table); ok && pk != "" {
			stmt.PrimaryKeyColumn = pk
		}
	}
}

func singleTable(exprs sqlparser.TableExprs) (string, string, error) {
	if len(exprs) != 1 {
		return "", "", sqlerror.Malformedf("statement must reference exactly one table")
	}
	expr, ok := exprs[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return "", "", sqlerror.Malformedf("joins are not supported")
	}
	name, ok := expr.Expr.(sqlparser.TableName)
	if !ok {
		return "", "", sqlerror.Malformedf("subqueries are not supported")
	}
	return name.Qualifier.String(), name.Name.String(), nil
}

func tableColumns(stmt *statement.Statement, spec *sqlparser.TableSpec) (string, error) {
	var pks []string
	for _, c := range spec.Columns {
		name := c.Name.Lowered()
		stmt.TableColumns = append(stmt.TableColumns, statement.ColumnDefinition{
			Name: name,
			Type: strings.ToLower(c.Type.Type),
		})
		buf := sqlparser.NewTrackedBuffer(nil)
		c.Type.Format(buf)
		if strings.Contains(strings.ToLower(buf.String()), "primary key") {
			pks = append(pks, name)
		}
	}
	for _, idx := range spec.Indexes {
		if idx.Info == nil || !idx.Info.Primary {
			continue
		}
		for _, c := range idx.Columns {
			pks = append(pks, c.Column.Lowered())
		}
	}

	switch len(pks) {
	case 0:
		return DefaultPrimaryKey, nil
	case 1:
		return pks[0], nil
	default:
		return "", sqlerror.Malformedf("composite primary keys are not supported")
	}
}
