package generator

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/fbmeta/schema"
)

// GenerateDomains renders one CREATE DOMAIN statement per line. Firebird
// only accepts DEFAULT ahead of NOT NULL and CHECK.
func GenerateDomains(domains []schema.Domain) string {
	var sb strings.Builder

	for _, d := range domains {
		stmt := fmt.Sprintf("CREATE DOMAIN %s AS %s", d.Name, d.SQLType)
		if d.Default != nil {
			stmt += fmt.Sprintf(" DEFAULT %s", *d.Default)
		}
		if d.NotNull {
			stmt += " NOT NULL"
		}
		if d.Check != nil {
			stmt += " " + *d.Check
		}
		sb.WriteString(stmt + ";\n")
	}

	return sb.String()
}

// GenerateTables renders each table as a CREATE TABLE statement followed by
// one ALTER TABLE ... ADD CONSTRAINT statement per constraint.
func GenerateTables(tables []schema.Table) string {
	var sb strings.Builder

	for _, t := range tables {
		sb.WriteString(generateCreateTable(t))
		sb.WriteString("\n")

		for _, c := range t.Constraints {
			if stmt, ok := generateAddConstraint(t.Name, c); ok {
				sb.WriteString(stmt + "\n")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func generateCreateTable(t schema.Table) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", t.Name))

	for i, col := range t.Columns {
		line := fmt.Sprintf("    %s %s", col.Name, col.SQLType)
		if col.Default != nil {
			line += fmt.Sprintf(" DEFAULT %s", *col.Default)
		}
		if col.NotNull {
			line += " NOT NULL"
		}
		if i < len(t.Columns)-1 {
			line += ","
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString(");\n")
	return sb.String()
}

// generateAddConstraint reports false for foreign keys that cannot be
// rendered because the referenced side is unknown.
func generateAddConstraint(table string, c schema.Constraint) (string, bool) {
	cols := strings.Join(c.Columns, ", ")

	switch c.Type {
	case schema.PrimaryKey, schema.Unique:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s (%s);", table, c.Name, c.Type, cols), true

	case schema.ForeignKey:
		if c.ReferencedTable == "" || len(c.ReferencedColumns) == 0 {
			return "", false
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			table,
			c.Name,
			cols,
			c.ReferencedTable,
			strings.Join(c.ReferencedColumns, ", "),
		)
		if c.OnDelete != "" {
			stmt += " ON DELETE " + c.OnDelete
		}
		if c.OnUpdate != "" {
			stmt += " ON UPDATE " + c.OnUpdate
		}
		return stmt + ";", true
	}

	return "", false
}

// GenerateProcedures renders every procedure as an empty stub followed by an
// ALTER PROCEDURE carrying the real body, so procedures calling each other
// can be created in any order.
func GenerateProcedures(procedures []schema.Procedure) string {
	var sb strings.Builder

	for _, p := range procedures {
		header := procedureHeader(p)

		sb.WriteString("CREATE PROCEDURE " + header)
		sb.WriteString("AS\n")
		sb.WriteString("BEGIN\n")
		sb.WriteString("  SUSPEND;\n")
		sb.WriteString("END;\n\n")

		sb.WriteString("ALTER PROCEDURE " + header)
		sb.WriteString("AS\n")
		sb.WriteString(strings.TrimSpace(p.Body) + ";\n\n")
	}

	return sb.String()
}

// procedureHeader renders the name, input parameters and RETURNS clause,
// each part terminated by a newline.
func procedureHeader(p schema.Procedure) string {
	header := p.Name

	if inputs := p.Inputs(); len(inputs) > 0 {
		params := make([]string, 0, len(inputs))
		for _, in := range inputs {
			params = append(params, fmt.Sprintf("%s %s", in.Name, in.SQLType))
		}
		header += fmt.Sprintf(" (%s)", strings.Join(params, ", "))
	}
	header += "\n"

	if outputs := p.Outputs(); len(outputs) > 0 {
		lines := make([]string, 0, len(outputs))
		for _, out := range outputs {
			lines = append(lines, fmt.Sprintf("    %s %s", out.Name, out.SQLType))
		}
		header += "RETURNS (\n" + strings.Join(lines, ",\n") + "\n)\n"
	}

	return header
}
