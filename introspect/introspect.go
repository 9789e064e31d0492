package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ridoystarlord/fbmeta/schema"
)

// Querier runs a read-only catalog query. *sql.DB, *sql.Conn and *sql.Tx
// all satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Reader reconstructs schema objects from the Firebird system tables.
type Reader struct {
	q Querier
}

func NewReader(q Querier) *Reader {
	return &Reader{q: q}
}

const domainsQuery = `
	SELECT f.RDB$FIELD_NAME, f.RDB$FIELD_TYPE, f.RDB$FIELD_LENGTH, f.RDB$CHARACTER_LENGTH,
	       f.RDB$FIELD_PRECISION, f.RDB$FIELD_SCALE, f.RDB$NULL_FLAG,
	       f.RDB$DEFAULT_SOURCE, f.RDB$VALIDATION_SOURCE
	FROM RDB$FIELDS f
	WHERE COALESCE(f.RDB$SYSTEM_FLAG, 0) = 0 AND f.RDB$FIELD_NAME NOT LIKE 'RDB$%'
	ORDER BY f.RDB$FIELD_NAME`

const domainNamesQuery = `
	SELECT f.RDB$FIELD_NAME
	FROM RDB$FIELDS f
	WHERE COALESCE(f.RDB$SYSTEM_FLAG, 0) = 0 AND f.RDB$FIELD_NAME NOT LIKE 'RDB$%'`

const tablesQuery = `
	SELECT r.RDB$RELATION_NAME
	FROM RDB$RELATIONS r
	WHERE COALESCE(r.RDB$SYSTEM_FLAG, 0) = 0 AND r.RDB$VIEW_BLR IS NULL
	ORDER BY r.RDB$RELATION_NAME`

const columnsQuery = `
	SELECT rf.RDB$FIELD_NAME, rf.RDB$NULL_FLAG, rf.RDB$DEFAULT_SOURCE, rf.RDB$FIELD_SOURCE,
	       f.RDB$FIELD_TYPE, f.RDB$FIELD_LENGTH, f.RDB$CHARACTER_LENGTH,
	       f.RDB$FIELD_PRECISION, f.RDB$FIELD_SCALE
	FROM RDB$RELATION_FIELDS rf
	JOIN RDB$FIELDS f ON f.RDB$FIELD_NAME = rf.RDB$FIELD_SOURCE
	WHERE rf.RDB$RELATION_NAME = ?
	ORDER BY rf.RDB$FIELD_POSITION`

const keyConstraintsQuery = `
	SELECT rc.RDB$RELATION_NAME, rc.RDB$CONSTRAINT_NAME, rc.RDB$CONSTRAINT_TYPE, sg.RDB$FIELD_NAME
	FROM RDB$RELATION_CONSTRAINTS rc
	JOIN RDB$INDICES i ON i.RDB$INDEX_NAME = rc.RDB$INDEX_NAME
	JOIN RDB$INDEX_SEGMENTS sg ON sg.RDB$INDEX_NAME = i.RDB$INDEX_NAME
	WHERE rc.RDB$CONSTRAINT_TYPE IN ('PRIMARY KEY', 'UNIQUE')
	ORDER BY rc.RDB$RELATION_NAME, rc.RDB$CONSTRAINT_NAME, sg.RDB$FIELD_POSITION`

// The referenced columns come from the referenced unique index, matched
// segment by segment on position.
const foreignKeysQuery = `
	SELECT rc.RDB$RELATION_NAME, rc.RDB$CONSTRAINT_NAME, sg.RDB$FIELD_NAME,
	       uq.RDB$RELATION_NAME, usg.RDB$FIELD_NAME,
	       refc.RDB$DELETE_RULE, refc.RDB$UPDATE_RULE
	FROM RDB$RELATION_CONSTRAINTS rc
	JOIN RDB$REF_CONSTRAINTS refc ON refc.RDB$CONSTRAINT_NAME = rc.RDB$CONSTRAINT_NAME
	JOIN RDB$INDEX_SEGMENTS sg ON sg.RDB$INDEX_NAME = rc.RDB$INDEX_NAME
	JOIN RDB$RELATION_CONSTRAINTS uq ON uq.RDB$CONSTRAINT_NAME = refc.RDB$CONST_NAME_UQ
	JOIN RDB$INDEX_SEGMENTS usg ON usg.RDB$INDEX_NAME = uq.RDB$INDEX_NAME
	     AND usg.RDB$FIELD_POSITION = sg.RDB$FIELD_POSITION
	WHERE rc.RDB$CONSTRAINT_TYPE = 'FOREIGN KEY'
	ORDER BY rc.RDB$RELATION_NAME, rc.RDB$CONSTRAINT_NAME, sg.RDB$FIELD_POSITION`

const proceduresQuery = `
	SELECT p.RDB$PROCEDURE_NAME, p.RDB$PROCEDURE_SOURCE
	FROM RDB$PROCEDURES p
	WHERE COALESCE(p.RDB$SYSTEM_FLAG, 0) = 0
	ORDER BY p.RDB$PROCEDURE_NAME`

const parametersQuery = `
	SELECT pp.RDB$PARAMETER_NAME, pp.RDB$PARAMETER_TYPE, pp.RDB$FIELD_SOURCE,
	       f.RDB$FIELD_TYPE, f.RDB$FIELD_LENGTH, f.RDB$CHARACTER_LENGTH,
	       f.RDB$FIELD_PRECISION, f.RDB$FIELD_SCALE
	FROM RDB$PROCEDURE_PARAMETERS pp
	JOIN RDB$FIELDS f ON f.RDB$FIELD_NAME = pp.RDB$FIELD_SOURCE
	WHERE pp.RDB$PROCEDURE_NAME = ?
	ORDER BY pp.RDB$PARAMETER_NUMBER`

// fieldDesc is the RDB$FIELDS part shared by domains, columns and parameters.
type fieldDesc struct {
	fieldType  int16
	length     int16
	charLength sql.NullInt16
	precision  sql.NullInt16
	scale      sql.NullInt16
}

func (f fieldDesc) sqlType() (string, error) {
	var charLength *int16
	if f.charLength.Valid {
		charLength = &f.charLength.Int16
	}
	return MapFieldType(f.fieldType, f.length, charLength, f.precision.Int16, f.scale.Int16)
}

// GetDomains returns the user-defined domains ordered by name.
func (r *Reader) GetDomains(ctx context.Context) ([]schema.Domain, error) {
	rows, err := r.q.QueryContext(ctx, domainsQuery)
	if err != nil {
		return nil, catalogError("query domains", err)
	}
	defer rows.Close()

	var domains []schema.Domain
	for rows.Next() {
		var (
			name              string
			fd                fieldDesc
			nullFlag          sql.NullInt16
			defaultSrc, check sql.NullString
		)
		if err := rows.Scan(&name, &fd.fieldType, &fd.length, &fd.charLength,
			&fd.precision, &fd.scale, &nullFlag, &defaultSrc, &check); err != nil {
			return nil, catalogError("scan domain", err)
		}

		name = strings.TrimSpace(name)
		sqlType, err := fd.sqlType()
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", name, err)
		}

		domains = append(domains, schema.Domain{
			Name:    name,
			SQLType: sqlType,
			NotNull: nullFlag.Int16 == 1,
			Default: defaultExpr(defaultSrc),
			Check:   trimmed(check),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, catalogError("iterate domains", err)
	}

	return domains, nil
}

// GetTables returns the user tables ordered by name, with columns in field
// position order and their PRIMARY KEY, UNIQUE and FOREIGN KEY constraints.
func (r *Reader) GetTables(ctx context.Context) ([]schema.Table, error) {
	domainNames, err := r.userDomainNames(ctx)
	if err != nil {
		return nil, err
	}

	names, err := r.queryNames(ctx, "tables", tablesQuery)
	if err != nil {
		return nil, err
	}

	tables := make([]schema.Table, 0, len(names))
	for _, name := range names {
		columns, err := r.getColumns(ctx, name, domainNames)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		tables = append(tables, schema.Table{Name: name, Columns: columns})
	}

	constraints, err := r.GetConstraints(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tables {
		list := constraints[schema.Key(tables[i].Name)]
		if err := checkConstraintColumns(tables[i], list); err != nil {
			return nil, err
		}
		tables[i].Constraints = list
	}

	return tables, nil
}

func (r *Reader) getColumns(ctx context.Context, table string, domainNames schema.NameSet) ([]schema.Column, error) {
	rows, err := r.q.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, catalogError("query columns", err)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			name, source string
			nullFlag     sql.NullInt16
			defaultSrc   sql.NullString
			fd           fieldDesc
		)
		if err := rows.Scan(&name, &nullFlag, &defaultSrc, &source,
			&fd.fieldType, &fd.length, &fd.charLength, &fd.precision, &fd.scale); err != nil {
			return nil, catalogError("scan column", err)
		}

		name = strings.TrimSpace(name)
		sqlType, err := resolveType(strings.TrimSpace(source), fd, domainNames)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}

		columns = append(columns, schema.Column{
			Name:    name,
			SQLType: sqlType,
			NotNull: nullFlag.Int16 == 1,
			Default: defaultExpr(defaultSrc),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, catalogError("iterate columns", err)
	}

	return columns, nil
}

// GetConstraints returns PRIMARY KEY, UNIQUE and FOREIGN KEY constraints keyed
// by schema.Key of the owning table. Within a table the order is the order of
// discovery: key constraints first, then foreign keys.
func (r *Reader) GetConstraints(ctx context.Context) (map[string][]schema.Constraint, error) {
	c := newConstraintCollector()

	if err := r.collectKeyConstraints(ctx, c); err != nil {
		return nil, err
	}
	if err := r.collectForeignKeys(ctx, c); err != nil {
		return nil, err
	}

	return c.byTable, nil
}

func (r *Reader) collectKeyConstraints(ctx context.Context, c *constraintCollector) error {
	rows, err := r.q.QueryContext(ctx, keyConstraintsQuery)
	if err != nil {
		return catalogError("query key constraints", err)
	}
	defer rows.Close()

	for rows.Next() {
		var table, name, kind, column string
		if err := rows.Scan(&table, &name, &kind, &column); err != nil {
			return catalogError("scan key constraint", err)
		}

		ctype := schema.ConstraintType(strings.TrimSpace(kind))
		if !ctype.Valid() {
			return catalogError("scan key constraint", fmt.Errorf("unexpected constraint type %q", kind))
		}

		con := c.get(strings.TrimSpace(table), strings.TrimSpace(name), ctype)
		con.Columns = append(con.Columns, strings.TrimSpace(column))
	}
	if err := rows.Err(); err != nil {
		return catalogError("iterate key constraints", err)
	}

	return nil
}

func (r *Reader) collectForeignKeys(ctx context.Context, c *constraintCollector) error {
	rows, err := r.q.QueryContext(ctx, foreignKeysQuery)
	if err != nil {
		return catalogError("query foreign keys", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			table, name, column, refTable, refColumn string
			deleteRule, updateRule                   sql.NullString
		)
		if err := rows.Scan(&table, &name, &column, &refTable, &refColumn, &deleteRule, &updateRule); err != nil {
			return catalogError("scan foreign key", err)
		}

		con := c.get(strings.TrimSpace(table), strings.TrimSpace(name), schema.ForeignKey)
		con.ReferencedTable = strings.TrimSpace(refTable)
		con.OnDelete = referentialAction(deleteRule)
		con.OnUpdate = referentialAction(updateRule)
		con.Columns = append(con.Columns, strings.TrimSpace(column))
		con.ReferencedColumns = append(con.ReferencedColumns, strings.TrimSpace(refColumn))
	}
	if err := rows.Err(); err != nil {
		return catalogError("iterate foreign keys", err)
	}

	return nil
}

// GetProcedures returns the user procedures ordered by name.
func (r *Reader) GetProcedures(ctx context.Context) ([]schema.Procedure, error) {
	domainNames, err := r.userDomainNames(ctx)
	if err != nil {
		return nil, err
	}

	procedures, err := r.listProcedures(ctx)
	if err != nil {
		return nil, err
	}

	for i := range procedures {
		params, err := r.getParameters(ctx, procedures[i].Name, domainNames)
		if err != nil {
			return nil, fmt.Errorf("procedure %s: %w", procedures[i].Name, err)
		}
		procedures[i].Parameters = params
	}

	return procedures, nil
}

func (r *Reader) listProcedures(ctx context.Context) ([]schema.Procedure, error) {
	rows, err := r.q.QueryContext(ctx, proceduresQuery)
	if err != nil {
		return nil, catalogError("query procedures", err)
	}
	defer rows.Close()

	var procedures []schema.Procedure
	for rows.Next() {
		var (
			name string
			body sql.NullString
		)
		if err := rows.Scan(&name, &body); err != nil {
			return nil, catalogError("scan procedure", err)
		}
		procedures = append(procedures, schema.Procedure{
			Name: strings.TrimSpace(name),
			Body: strings.TrimSpace(body.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, catalogError("iterate procedures", err)
	}

	return procedures, nil
}

func (r *Reader) getParameters(ctx context.Context, procedure string, domainNames schema.NameSet) ([]schema.Parameter, error) {
	rows, err := r.q.QueryContext(ctx, parametersQuery, procedure)
	if err != nil {
		return nil, catalogError("query parameters", err)
	}
	defer rows.Close()

	var params []schema.Parameter
	for rows.Next() {
		var (
			name      sql.NullString
			paramType sql.NullInt16
			source    string
			fd        fieldDesc
		)
		if err := rows.Scan(&name, &paramType, &source,
			&fd.fieldType, &fd.length, &fd.charLength, &fd.precision, &fd.scale); err != nil {
			return nil, catalogError("scan parameter", err)
		}

		paramName := strings.TrimSpace(name.String)
		sqlType, err := resolveType(strings.TrimSpace(source), fd, domainNames)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", paramName, err)
		}

		params = append(params, schema.Parameter{
			Name:    paramName,
			SQLType: sqlType,
			Output:  paramType.Int16 == 1,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, catalogError("iterate parameters", err)
	}

	return params, nil
}

func (r *Reader) userDomainNames(ctx context.Context) (schema.NameSet, error) {
	names, err := r.queryNames(ctx, "domain names", domainNamesQuery)
	if err != nil {
		return nil, err
	}
	return schema.NewNameSet(names...), nil
}

// queryNames materializes a single-column name query. The rows are closed
// before the caller issues dependent queries, so one connection is enough.
func (r *Reader) queryNames(ctx context.Context, what, query string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, catalogError("query "+what, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, catalogError("scan "+what, err)
		}
		names = append(names, strings.TrimSpace(name))
	}
	if err := rows.Err(); err != nil {
		return nil, catalogError("iterate "+what, err)
	}

	return names, nil
}

// resolveType keeps the domain name for domain-typed fields; the primitive
// type lives in the domain script.
func resolveType(source string, fd fieldDesc, domainNames schema.NameSet) (string, error) {
	if domainNames.Contains(source) {
		return source, nil
	}
	return fd.sqlType()
}

func checkConstraintColumns(table schema.Table, constraints []schema.Constraint) error {
	known := schema.NewNameSet(table.ColumnNames()...)
	for _, con := range constraints {
		for _, col := range con.Columns {
			if !known.Contains(col) {
				return catalogError("attach constraints",
					fmt.Errorf("constraint %s references unknown column %s.%s", con.Name, table.Name, col))
			}
		}
	}
	return nil
}

// defaultExpr strips the DEFAULT keyword the catalog keeps in RDB$DEFAULT_SOURCE.
func defaultExpr(src sql.NullString) *string {
	s := trimmed(src)
	if s == nil {
		return nil
	}
	expr := *s
	if len(expr) >= len("DEFAULT") && strings.EqualFold(expr[:len("DEFAULT")], "DEFAULT") {
		rest := expr[len("DEFAULT"):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '\r' {
			expr = strings.TrimSpace(rest)
		}
	}
	if expr == "" {
		return nil
	}
	return &expr
}

func trimmed(src sql.NullString) *string {
	if !src.Valid {
		return nil
	}
	s := strings.TrimSpace(src.String)
	if s == "" {
		return nil
	}
	return &s
}

func referentialAction(rule sql.NullString) string {
	action := strings.ToUpper(strings.TrimSpace(rule.String))
	switch action {
	case "", "RESTRICT", "NO ACTION":
		return ""
	}
	return action
}

type constraintCollector struct {
	byTable map[string][]schema.Constraint
	index   map[string]int
}

func newConstraintCollector() *constraintCollector {
	return &constraintCollector{
		byTable: map[string][]schema.Constraint{},
		index:   map[string]int{},
	}
}

// get returns the constraint named name on table, appending a new one on
// first sight.
func (c *constraintCollector) get(table, name string, ctype schema.ConstraintType) *schema.Constraint {
	tableKey := schema.Key(table)
	key := tableKey + "\x00" + name

	i, ok := c.index[key]
	if !ok {
		c.byTable[tableKey] = append(c.byTable[tableKey], schema.Constraint{Name: name, Type: ctype})
		i = len(c.byTable[tableKey]) - 1
		c.index[key] = i
	}
	return &c.byTable[tableKey][i]
}
