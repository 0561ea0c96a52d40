package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/shrimpsizemoose/semla/internal/table"
	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

// LessonColumn is a lesson score series under its gradebook column name.
type LessonColumn struct {
	Name   string
	Scores table.Series
}

// Aggregate sums lesson scores per student and caps the sum at
// len(columns)-dropLowest.
//
// The cap only matches dropping the N lowest lessons when the dropped
// lessons would have scored zero. Grades already released were computed
// this way, so do not replace it with a true bottom-N exclusion.
func Aggregate(columns []LessonColumn, dropLowest int) (table.Series, error) {
	if dropLowest < 0 {
		return nil, apperrors.ConfigurationError{
			Err: fmt.Errorf("%w: drop_lowest=%d is negative", apperrors.ErrDropExceedsLessons, dropLowest),
		}
	}
	if dropLowest > len(columns) {
		return nil, apperrors.ConfigurationError{
			Err: fmt.Errorf("%w: drop_lowest=%d, lessons=%d", apperrors.ErrDropExceedsLessons, dropLowest, len(columns)),
		}
	}
	limit := float64(len(columns) - dropLowest)

	perStudent := make(map[string][]float64)
	for _, col := range columns {
		for id := range col.Scores {
			perStudent[id] = nil
		}
	}
	for id := range perStudent {
		values := make([]float64, len(columns))
		for i, col := range columns {
			values[i] = col.Scores.ValueOr(id, 0)
		}
		perStudent[id] = values
	}

	total := make(table.Series, len(perStudent))
	for id, values := range perStudent {
		total[id] = math.Min(sumSorted(values), limit)
	}
	return total, nil
}

// sumSorted adds in ascending order so the total does not depend on the
// order lessons were listed in.
func sumSorted(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum
}
