package sheet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellTruthy(t *testing.T) {
	assert.False(t, Absent().Truthy())
	assert.False(t, String("").Truthy())
	assert.False(t, Number(0).Truthy())
	assert.False(t, Number(math.NaN()).Truthy())
	assert.True(t, String("0").Truthy())
	assert.True(t, Number(-1).Truthy())
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", Absent().String())
	assert.Equal(t, "12.5", Number(12.5).String())
	assert.Equal(t, "3", Number(3).String())
	assert.Equal(t, "25.07.22", String("25.07.22").String())
}

func TestDatasetAccessors(t *testing.T) {
	ds := NewDataset(Row{String("a"), Number(2)}, Row{String("x")}, Row{String("y"), String("z"), String("w")})

	assert.Equal(t, []string{"a", "2"}, ds.Header())
	assert.Len(t, ds.DataRows(), 2)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, 3, ds.Width())

	var empty *Dataset
	assert.True(t, empty.IsEmpty())
	assert.Nil(t, empty.Header())
	assert.Equal(t, 0, empty.Len())
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want float64
	}{
		{"number", Number(31.5), 31.5},
		{"text", String("29.8"), 29.8},
		{"unit suffix", String("12.5MPa"), 12.5},
		{"leading space", String("  7"), 7},
		{"exponent", String("1e3"), 1000},
		{"leading dot", String(".5"), 0.5},
		{"not a number", String("N/A"), 0},
		{"absent", Absent(), 0},
		{"nan", Number(math.NaN()), 0},
		{"overflow", String("1e999"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Float(tt.cell))
		})
	}
}
