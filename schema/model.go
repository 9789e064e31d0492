package schema

// Domain is a named, reusable column type.
type Domain struct {
	Name    string
	SQLType string
	NotNull bool
	Default *string // expression without the DEFAULT keyword
	Check   *string // full CHECK (...) clause
}

// Column is a table column. SQLType holds either a primitive type or the
// name of the domain the column is declared with.
type Column struct {
	Name    string
	SQLType string
	NotNull bool
	Default *string
}

type ConstraintType string

const (
	PrimaryKey ConstraintType = "PRIMARY KEY"
	Unique     ConstraintType = "UNIQUE"
	ForeignKey ConstraintType = "FOREIGN KEY"
)

// Valid reports whether t is one of the supported constraint types.
func (t ConstraintType) Valid() bool {
	switch t {
	case PrimaryKey, Unique, ForeignKey:
		return true
	}
	return false
}

type Constraint struct {
	Name    string
	Type    ConstraintType
	Columns []string

	// Only set for FOREIGN KEY.
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string // CASCADE, SET NULL, SET DEFAULT; empty for the default rule
	OnUpdate          string
}

type Table struct {
	Name        string
	Columns     []Column
	Constraints []Constraint
}

// ColumnNames returns the table's column names in position order.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

type Procedure struct {
	Name       string
	Parameters []Parameter
	Body       string // procedural block source, no CREATE header
}

// Inputs returns the input parameters in declaration order.
func (p Procedure) Inputs() []Parameter {
	return p.filter(false)
}

// Outputs returns the output parameters in declaration order.
func (p Procedure) Outputs() []Parameter {
	return p.filter(true)
}

func (p Procedure) filter(output bool) []Parameter {
	var params []Parameter
	for _, param := range p.Parameters {
		if param.Output == output {
			params = append(params, param)
		}
	}
	return params
}

type Parameter struct {
	Name    string
	SQLType string
	Output  bool
}
