package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/shrimpsizemoose/semla/internal/table"
)

// Summary is the count/mean/std/min/quartiles/max description of a column.
type Summary struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Describe summarises a series. Std is the sample standard deviation and
// quartiles interpolate linearly between order statistics. An empty series
// yields NaN everywhere but Count.
func Describe(name string, s table.Series) Summary {
	values := s.Values()
	sum := Summary{Name: name, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		sum.Mean, sum.Std, sum.Min, sum.Q25, sum.Q50, sum.Q75, sum.Max = nan, nan, nan, nan, nan, nan, nan
		return sum
	}

	var total float64
	for _, v := range values {
		total += v
	}
	sum.Mean = total / float64(len(values))

	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			sq += (v - sum.Mean) * (v - sum.Mean)
		}
		sum.Std = math.Sqrt(sq / float64(len(values)-1))
	} else {
		sum.Std = math.NaN()
	}

	sum.Min = values[0]
	sum.Max = values[len(values)-1]
	sum.Q25 = quantile(values, 0.25)
	sum.Q50 = quantile(values, 0.5)
	sum.Q75 = quantile(values, 0.75)
	return sum
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func (s Summary) String() string {
	var b strings.Builder
	rows := []struct {
		label string
		value float64
	}{
		{"count", float64(s.Count)},
		{"mean", s.Mean},
		{"std", s.Std},
		{"min", s.Min},
		{"25%", s.Q25},
		{"50%", s.Q50},
		{"75%", s.Q75},
		{"max", s.Max},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%-6s %12.6f\n", r.label, r.value)
	}
	fmt.Fprintf(&b, "Name: %s, dtype: float64\n", s.Name)
	return b.String()
}
