package chart

import (
	"fmt"
	"strings"

	"qcview/domain/sheet"
)

// Slot is one of the three measurement charts on the page
type Slot string

const (
	SlotTensile    Slot = "chartTensile"
	SlotElongation Slot = "chartElongation"
	SlotModulus    Slot = "chartModulus"
)

// Slots lists the charts in page order
var Slots = []Slot{SlotTensile, SlotElongation, SlotModulus}

var slotLabels = map[Slot]string{
	SlotTensile:    "인장강도",
	SlotElongation: "연신율 (%)",
	SlotModulus:    "모듈러스",
}

// slotNames are the legend names used when no Hangul font is configured
var slotNames = map[Slot]string{
	SlotTensile:    "Tensile strength",
	SlotElongation: "Elongation (%)",
	SlotModulus:    "Modulus",
}

var slotRoles = map[Slot]sheet.Role{
	SlotTensile:    sheet.RoleTensile,
	SlotElongation: sheet.RoleElongation,
	SlotModulus:    sheet.RoleModulus,
}

// Label is the legend text of the chart
func (s Slot) Label() string { return slotLabels[s] }

// LegendName is the name drawn into the chart image. Korean labels need a
// font with Hangul glyphs.
func (s Slot) LegendName(hangul bool) string {
	if hangul {
		return slotLabels[s]
	}
	return slotNames[s]
}

// Role is the measurement column plotted in the chart
func (s Slot) Role() sheet.Role { return slotRoles[s] }

// Valid reports whether s names a known chart
func (s Slot) Valid() bool {
	_, ok := slotLabels[s]
	return ok
}

// Point is one scatter point: X is the raw date text, Y the measurement
type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Series holds the points of every chart, aligned by source row
type Series map[Slot][]Point

// MissingColumnsError reports the roles whose header column was not found
type MissingColumnsError struct {
	Roles []sheet.Role
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("chart columns not found: %s", strings.Join(names, ", "))
}

// chartRoles are the columns every chart needs
var chartRoles = []sheet.Role{sheet.RoleDate, sheet.RoleTensile, sheet.RoleElongation, sheet.RoleModulus}

// ExtractSeries builds the three measurement series from the data rows.
// Rows with a falsy date cell are left out of every series so all three
// stay aligned; unparsable measurements become 0.
func ExtractSeries(ds *sheet.Dataset) (Series, error) {
	res := sheet.ResolveRoles(ds.Header())
	if missing := res.Missing(chartRoles...); len(missing) > 0 {
		return nil, &MissingColumnsError{Roles: missing}
	}

	dateCol := res[sheet.RoleDate]
	series := make(Series, len(Slots))
	for _, slot := range Slots {
		series[slot] = []Point{}
	}

	for _, row := range ds.DataRows() {
		date := dateCol.Cell(row)
		if !date.Truthy() {
			continue
		}
		x := date.String()
		for _, slot := range Slots {
			y := sheet.Float(res[slot.Role()].Cell(row))
			series[slot] = append(series[slot], Point{X: x, Y: y})
		}
	}
	return series, nil
}

// Values returns the Y values of the points
func Values(points []Point) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Y
	}
	return values
}
