package sheet

import (
	"math"
	"strconv"
)

// CellKind distinguishes the value types a spreadsheet cell can hold
type CellKind int

const (
	CellAbsent CellKind = iota
	CellString
	CellNumber
)

// Cell is a single spreadsheet value: absent, a string, or a number
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Absent returns the empty cell
func Absent() Cell { return Cell{} }

// String creates a text cell
func String(s string) Cell { return Cell{Kind: CellString, Text: s} }

// Number creates a numeric cell
func Number(v float64) Cell { return Cell{Kind: CellNumber, Number: v} }

// IsAbsent reports whether the cell holds no value
func (c Cell) IsAbsent() bool { return c.Kind == CellAbsent }

// Truthy follows the loose truthiness the UI relies on: absent cells,
// empty strings, zero and NaN are false.
func (c Cell) Truthy() bool {
	switch c.Kind {
	case CellString:
		return c.Text != ""
	case CellNumber:
		return c.Number != 0 && !math.IsNaN(c.Number)
	default:
		return false
	}
}

// String renders the cell as display text. Numbers use the shortest
// decimal form ("12.5", "3").
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Row is an ordered sequence of cells; it may be shorter than the header
type Row []Cell

// At returns the cell at index i, or an absent cell when i is out of range
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Absent()
	}
	return r[i]
}

// Dataset is the first sheet of a workbook: row 0 is the header row,
// the remaining rows are data rows.
type Dataset struct {
	Rows []Row
}

// NewDataset builds a dataset from a header row and data rows
func NewDataset(header Row, data ...Row) *Dataset {
	rows := make([]Row, 0, len(data)+1)
	rows = append(rows, header)
	rows = append(rows, data...)
	return &Dataset{Rows: rows}
}

// FromStrings builds a dataset where every non-empty string becomes a text
// cell. Mostly useful in tests and for CSV-like input.
func FromStrings(rows [][]string) *Dataset {
	ds := &Dataset{Rows: make([]Row, len(rows))}
	for i, raw := range rows {
		row := make(Row, len(raw))
		for j, v := range raw {
			if v != "" {
				row[j] = String(v)
			}
		}
		ds.Rows[i] = row
	}
	return ds
}

// IsEmpty reports whether the dataset has no rows at all, not even a header
func (d *Dataset) IsEmpty() bool {
	return d == nil || len(d.Rows) == 0
}

// Header returns the column names of row 0 as text
func (d *Dataset) Header() []string {
	if d.IsEmpty() {
		return nil
	}
	names := make([]string, len(d.Rows[0]))
	for i, c := range d.Rows[0] {
		names[i] = c.String()
	}
	return names
}

// HeaderRow returns row 0 unchanged
func (d *Dataset) HeaderRow() Row {
	if d.IsEmpty() {
		return nil
	}
	return d.Rows[0]
}

// DataRows returns rows 1..N
func (d *Dataset) DataRows() []Row {
	if d.IsEmpty() {
		return nil
	}
	return d.Rows[1:]
}

// Len returns the total number of rows including the header
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Width returns the widest row length, used for reporting only
func (d *Dataset) Width() int {
	width := 0
	if d == nil {
		return width
	}
	for _, r := range d.Rows {
		if len(r) > width {
			width = len(r)
		}
	}
	return width
}
