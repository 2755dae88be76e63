package chart

import (
	"bytes"
	"math"

	"github.com/golang/freetype/truetype"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DrawOptions controls chart image size and colours
type DrawOptions struct {
	Width      int
	Height     int
	PointColor string // hex without '#'
	PointSize  float64
	Background string
	TextColor  string
	// Font replaces go-chart's built-in Roboto. Without it the labels are
	// drawn in English since Roboto has no Hangul glyphs.
	Font *truetype.Font
}

// DefaultDrawOptions matches the dark theme of the page
func DefaultDrawOptions() DrawOptions {
	return DrawOptions{
		Width:      800,
		Height:     360,
		PointColor: "00e0ff",
		PointSize:  3,
		Background: "1e1e2f",
		TextColor:  "ffffff",
	}
}

// Drawer renders one chart to PNG bytes
type Drawer func(slot Slot, points []Point, opts DrawOptions) ([]byte, error)

// categoryAxis places each distinct X label at 1..n in order of first
// appearance. Repeated labels share a position. Unlabelled ticks at 0.5 and
// n+0.5 pad the axis; go-chart derives the x range from the ticks and
// refuses to draw a zero-width range.
func categoryAxis(points []Point, name string, style gochart.Style) ([]float64, gochart.XAxis) {
	positions := make(map[string]float64)
	ticks := make([]gochart.Tick, 0, len(points)+2)
	ticks = append(ticks, gochart.Tick{Value: 0.5})
	xs := make([]float64, len(points))
	for i, p := range points {
		x, ok := positions[p.X]
		if !ok {
			x = float64(len(positions) + 1)
			positions[p.X] = x
			ticks = append(ticks, gochart.Tick{Value: x, Label: p.X})
		}
		xs[i] = x
	}
	maxR := float64(len(positions)) + 0.5
	if len(positions) == 0 {
		maxR = 1.5
	}
	ticks = append(ticks, gochart.Tick{Value: maxR})
	return xs, gochart.XAxis{
		Name:      name,
		NameStyle: style,
		Style:     style,
		Ticks:     ticks,
		Range:     &gochart.ContinuousRange{Min: 0.5, Max: maxR},
	}
}

// zeroBasedRange starts the y axis at zero unless values go negative
func zeroBasedRange(ys []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if hi <= lo {
		hi = lo + 1
	}
	span := hi - lo
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		hi = math.Ceil((hi+span*0.05)/mag) * mag
		if lo < 0 {
			lo = math.Floor((lo-span*0.05)/mag) * mag
		}
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

// DrawScatter renders a single-series scatter chart with a category x axis
func DrawScatter(slot Slot, points []Point, opts DrawOptions) ([]byte, error) {
	hangul := opts.Font != nil
	xName, yName := "Date", "Value"
	if hangul {
		xName, yName = "날짜", "값"
	}

	text := gochart.Style{FontColor: drawing.ColorFromHex(opts.TextColor), StrokeColor: drawing.ColorFromHex(opts.TextColor)}
	xs, xAxis := categoryAxis(points, xName, text)
	ys := Values(points)

	dots := gochart.Style{
		StrokeWidth: gochart.Disabled,
		DotWidth:    opts.PointSize,
		DotColor:    drawing.ColorFromHex(opts.PointColor),
		StrokeColor: drawing.ColorFromHex(opts.PointColor),
	}
	if len(points) == 0 {
		// go-chart rejects empty series and needs one visible series;
		// the placeholder point has no dot
		xs, ys = []float64{1}, []float64{0}
		dots.DotWidth = gochart.Disabled
	}

	bg := drawing.ColorFromHex(opts.Background)
	ch := gochart.Chart{
		Width:      opts.Width,
		Height:     opts.Height,
		Font:       opts.Font,
		Background: gochart.Style{FillColor: bg, Padding: gochart.Box{Top: 20, Left: 16, Right: 16, Bottom: 28}},
		Canvas:     gochart.Style{FillColor: bg},
		XAxis:      xAxis,
		YAxis: gochart.YAxis{
			Name:      yName,
			NameStyle: text,
			Style:     text,
			Range:     zeroBasedRange(ys),
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{Name: slot.LegendName(hangul), XValues: xs, YValues: ys, Style: dots},
		},
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch, gochart.Style{FillColor: bg, FontColor: text.FontColor, StrokeColor: text.FontColor})}

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
