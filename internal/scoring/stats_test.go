package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shrimpsizemoose/semla/internal/table"
)

func TestDescribe(t *testing.T) {
	s := table.Series{"a": 1, "b": 2, "c": 3, "d": 4}

	sum := Describe("total", s)

	assert.Equal(t, 4, sum.Count)
	assert.InDelta(t, 2.5, sum.Mean, 1e-12)
	assert.InDelta(t, 1.2909944487358056, sum.Std, 1e-12)
	assert.Equal(t, 1.0, sum.Min)
	assert.InDelta(t, 1.75, sum.Q25, 1e-12)
	assert.InDelta(t, 2.5, sum.Q50, 1e-12)
	assert.InDelta(t, 3.25, sum.Q75, 1e-12)
	assert.Equal(t, 4.0, sum.Max)

	out := sum.String()
	assert.Contains(t, out, "count      4.000000")
	assert.Contains(t, out, "Name: total, dtype: float64")
}

func TestDescribe_SingleAndEmpty(t *testing.T) {
	one := Describe("total", table.Series{"a": 3})
	assert.Equal(t, 1, one.Count)
	assert.Equal(t, 3.0, one.Q75)
	assert.True(t, math.IsNaN(one.Std))

	none := Describe("total", table.Series{})
	assert.Equal(t, 0, none.Count)
	assert.True(t, math.IsNaN(none.Mean))
}
