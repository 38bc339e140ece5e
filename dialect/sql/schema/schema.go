// Package schema describes SQL tables and creates them on a database.
package schema

// ColumnType is the portable type of a column.
type ColumnType uint8

// Column types.
const (
	TypeString ColumnType = iota + 1
	TypeText
	TypeBlob
	TypeInt
)

// String returns the type name.
func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	case TypeInt:
		return "int"
	}
	return "invalid"
}

// ReferenceOption for ON DELETE.
type ReferenceOption string

// Reference options.
const (
	NoAction ReferenceOption = "NO ACTION"
	Restrict ReferenceOption = "RESTRICT"
	Cascade  ReferenceOption = "CASCADE"
	SetNull  ReferenceOption = "SET NULL"
)

// Table is a table definition.
type Table struct {
	Name        string
	Columns     []*Column
	PrimaryKey  []*Column
	ForeignKeys []*ForeignKey
	Indexes     []*Index
}

// NewTable returns a table with the given name.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumns appends columns to the table.
func (t *Table) AddColumns(cs ...*Column) *Table {
	t.Columns = append(t.Columns, cs...)
	return t
}

// SetPrimaryKey sets the primary key columns.
func (t *Table) SetPrimaryKey(cs ...*Column) *Table {
	t.PrimaryKey = cs
	return t
}

// AddForeignKey appends a foreign key.
func (t *Table) AddForeignKey(fk *ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return t
}

// AddIndex appends an index over the given columns.
func (t *Table) AddIndex(name string, unique bool, cs ...*Column) *Table {
	t.Indexes = append(t.Indexes, &Index{Name: name, Unique: unique, Columns: cs})
	return t
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Column is a column definition.
type Column struct {
	Name     string
	Type     ColumnType
	Size     int
	Nullable bool
	Unique   bool
	Default  any
}

// ForeignKey is a foreign key constraint.
type ForeignKey struct {
	Symbol     string
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
	OnDelete   ReferenceOption
}

// Index is a table index.
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}
