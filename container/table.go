package container

import (
	"strings"

	"github.com/liljencrantz/crush/errs"
	"github.com/liljencrantz/crush/value"
)

// Table is an immutable, shared-ownership sequence of Rows conforming
// to a fixed column schema (§4.B). Rows are plain value slices; schema
// conformance is checked once, at construction.
type Table struct {
	id      Identity
	columns value.Columns
	rows    []*Row
}

// Row is a single record belonging to a Table's schema. Rows carry a
// reference to the table they were produced from so IntoStruct can
// recover column names without re-threading the schema everywhere.
type Row struct {
	table *Table
	cells []value.Value
}

// NewTable validates every row against columns and returns an
// immutable table, or the first conformance error encountered.
func NewTable(columns value.Columns, rowCells [][]value.Value) (*Table, error) {
	t := &Table{id: newIdentity(), columns: columns}
	rows := make([]*Row, len(rowCells))
	for i, cells := range rowCells {
		if len(cells) != len(columns) {
			return nil, errs.New(errs.Data, "row %d has %d cells, table has %d columns", i, len(cells), len(columns))
		}
		for j, c := range cells {
			if !columns[j].Element.Is(c) {
				return nil, errs.New(errs.Data, "row %d column %q: expected %s, got %s", i, columns[j].Name, columns[j].Element, c.Type())
			}
		}
		cp := make([]value.Value, len(cells))
		copy(cp, cells)
		rows[i] = &Row{cells: cp}
	}
	t.rows = rows
	for _, r := range t.rows {
		r.table = t
	}
	return t, nil
}

func (t *Table) Identity() Identity { return t.id }
func (t *Table) Type() value.Type   { return value.NewTableType(t.columns) }
func (t *Table) Columns() value.Columns { return t.columns }
func (t *Table) Len() int               { return len(t.rows) }

func (t *Table) Row(i int) (*Row, error) {
	if i < 0 || i >= len(t.rows) {
		return nil, errs.New(errs.Data, "row index %d out of range [0, %d)", i, len(t.rows))
	}
	return t.rows[i], nil
}

func (t *Table) Rows() []*Row {
	out := make([]*Row, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *Table) Materialize() (value.Value, error) {
	rowCells := make([][]value.Value, len(t.rows))
	for i, r := range t.rows {
		cells := make([]value.Value, len(r.cells))
		for j, c := range r.cells {
			mv, err := c.Materialize()
			if err != nil {
				return nil, err
			}
			cells[j] = mv
		}
		rowCells[i] = cells
	}
	return NewTable(t.columns, rowCells)
}

func (t *Table) Field(name string) (value.Value, bool) {
	return lookupMethod(tableMethods, t, name)
}

func (t *Table) Convert(target value.Type) (value.Value, error) {
	if target.Kind() == value.KindTable {
		return t, nil
	}
	return nil, errNotConvertible(t, target)
}

func (t *Table) String() string { return t.display(nil) }

func (t *Table) display(visited visitedSet) string {
	visited, first := visited.enter(t.id)
	if !first {
		return displayIdentity("table", t.id)
	}
	lines := make([]string, 0, len(t.rows)+1)
	lines = append(lines, t.columns.String())
	for _, r := range t.rows {
		parts := make([]string, len(r.cells))
		for i, c := range r.cells {
			parts[i] = displayNested(c, visited)
		}
		lines = append(lines, "("+strings.Join(parts, ", ")+")")
	}
	return strings.Join(lines, "\n")
}

var tableMethods = methodMap{
	"len": func(recv value.Value) value.Value {
		return method("len", func(args []value.Value) (value.Value, error) {
			return value.NewInteger(int64(recv.(*Table).Len())), nil
		})
	},
}

// Type returns the owning table's per-row type, reflecting the shared
// schema (§4.B: rows don't carry their own type, the table does).
func (r *Row) Type() value.Type { return value.NewTableType(r.table.columns) }

func (r *Row) Materialize() (value.Value, error) {
	cells := make([]value.Value, len(r.cells))
	for i, c := range r.cells {
		mv, err := c.Materialize()
		if err != nil {
			return nil, err
		}
		cells[i] = mv
	}
	return &Row{table: r.table, cells: cells}, nil
}

func (r *Row) Field(name string) (value.Value, bool) {
	idx := r.table.columns.IndexOf(name)
	if idx < 0 {
		return nil, false
	}
	return r.cells[idx], true
}

func (r *Row) Convert(target value.Type) (value.Value, error) {
	if target.Kind() == value.KindStruct {
		s, err := r.IntoStruct()
		return s, err
	}
	return nil, errNotConvertible(r, target)
}

func (r *Row) String() string {
	parts := make([]string, len(r.cells))
	for i, c := range r.cells {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Cells returns a defensive copy of the row's values in column order.
func (r *Row) Cells() []value.Value {
	out := make([]value.Value, len(r.cells))
	copy(out, r.cells)
	return out
}

// IntoStruct projects a row into a Struct keyed by its table's column
// names (§4.B row<->struct conversion).
func (r *Row) IntoStruct() (*Struct, error) {
	s := NewStruct(nil)
	for i, col := range r.table.columns {
		s.Set(col.Name, r.cells[i])
	}
	return s, nil
}
