package render

import (
	"bytes"
	"html/template"
	"io"

	"qcview/domain/sheet"
)

// TableRow is one rendered row; Header marks row 0
type TableRow struct {
	Header bool
	Cells  []string
}

// TableView is the display model of a dataset. Rows keep their own length;
// nothing is padded to a common width.
type TableView struct {
	Rows []TableRow
}

// RowCount returns the number of visual rows
func (v TableView) RowCount() int {
	return len(v.Rows)
}

// BuildTable converts every dataset row to display text
func BuildTable(ds *sheet.Dataset) TableView {
	view := TableView{}
	if ds.IsEmpty() {
		return view
	}
	view.Rows = make([]TableRow, len(ds.Rows))
	for i, row := range ds.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = c.String()
		}
		view.Rows[i] = TableRow{Header: i == 0, Cells: cells}
	}
	return view
}

// tableTemplate escapes every cell as text; cell values never become markup
var tableTemplate = template.Must(template.New("table").Parse(
	`<table>{{range .Rows}}<tr>{{if .Header}}{{range .Cells}}<th>{{.}}</th>{{end}}{{else}}{{range .Cells}}<td>{{.}}</td>{{end}}{{end}}</tr>{{end}}</table>`))

// WriteTable writes the view as an HTML table
func WriteTable(w io.Writer, view TableView) error {
	return tableTemplate.Execute(w, view)
}

// TableHTML renders the view for embedding in a page template
func TableHTML(view TableView) (template.HTML, error) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, view); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
