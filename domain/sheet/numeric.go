package sheet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the longest decimal prefix of a measurement such as
// "12.5MPa" or " -3e2 ".
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Float reads a numeric value out of a cell. Numbers are returned directly;
// text is parsed from its leading numeric prefix. Anything unparsable,
// including absent cells and NaN, yields 0.
func Float(c Cell) float64 {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return 0
		}
		return c.Number
	case CellString:
		m := leadingNumber.FindString(strings.TrimLeft(c.Text, " \t\r\n"))
		if m == "" {
			return 0
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || math.IsInf(v, 0) {
			return 0
		}
		return v
	default:
		return 0
	}
}
