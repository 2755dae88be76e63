package sheet

import "strings"

// Criteria are the user-supplied row filters. Empty fields do not constrain.
type Criteria struct {
	Keyword string // substring of the product name
	Date    string // YYYY-MM-DD from a date picker
}

// IsZero reports whether neither criterion is set
func (c Criteria) IsZero() bool {
	return c.Keyword == "" && c.Date == ""
}

// DatePrefix turns a picker date (2025-07-22) into the dotted two-digit-year
// form used in the sheets (25.07.22). The first two characters are dropped
// unconditionally.
func DatePrefix(date string) string {
	runes := []rune(date)
	if len(runes) <= 2 {
		return ""
	}
	return strings.ReplaceAll(string(runes[2:]), "-", ".")
}

// Filter returns a new dataset holding the header row and every data row that
// matches both criteria, in their original order. The input is not modified.
// An empty dataset is returned as is.
func Filter(ds *Dataset, c Criteria) *Dataset {
	if ds.IsEmpty() {
		return ds
	}

	header := ds.Header()
	productCol := ResolveRole(header, RoleProduct)
	dateCol := ResolveRole(header, RoleDate)

	prefix := ""
	if c.Date != "" {
		prefix = DatePrefix(c.Date)
	}

	out := &Dataset{Rows: []Row{ds.HeaderRow()}}
	for _, row := range ds.DataRows() {
		if matchProduct(productCol.Cell(row), c.Keyword) && matchDate(dateCol.Cell(row), c.Date, prefix) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

func matchProduct(cell Cell, keyword string) bool {
	if keyword == "" {
		return true
	}
	return cell.Truthy() && strings.Contains(cell.String(), keyword)
}

func matchDate(cell Cell, date, prefix string) bool {
	if date == "" {
		return true
	}
	return cell.Truthy() && strings.HasPrefix(cell.String(), prefix)
}
