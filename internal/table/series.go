package table

import "sort"

// Series is one numeric value per student. A student absent from the map
// has no value; readers choose the fill explicitly through ValueOr.
type Series map[string]float64

func (s Series) ValueOr(id string, fill float64) float64 {
	if v, ok := s[id]; ok {
		return v
	}
	return fill
}

// IDs returns the students of the series in sorted order.
func (s Series) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Values returns the values sorted ascending.
func (s Series) Values() []float64 {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

// Max reports the largest value; ok is false for an empty series.
func (s Series) Max() (max float64, ok bool) {
	for _, v := range s {
		if !ok || v > max {
			max, ok = v, true
		}
	}
	return max, ok
}
