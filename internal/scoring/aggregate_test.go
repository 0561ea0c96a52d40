package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/table"
	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

func columnsFor(student string, scores ...float64) []LessonColumn {
	cols := make([]LessonColumn, len(scores))
	for i, s := range scores {
		cols[i] = LessonColumn{
			Name:   fmt.Sprintf("L%d", i+1),
			Scores: table.Series{student: s},
		}
	}
	return cols
}

func TestAggregate(t *testing.T) {
	testCases := []struct {
		name       string
		scores     []float64
		dropLowest int
		expected   float64
	}{
		{
			name:       "cap not binding",
			scores:     []float64{1, 1, 1, 0, 0},
			dropLowest: 2,
			expected:   3,
		},
		{
			name:       "perfect scores clipped to cap",
			scores:     []float64{1, 1, 1, 1, 1},
			dropLowest: 2,
			expected:   3,
		},
		{
			name:       "partial scores are not dropped, only capped",
			scores:     []float64{1, 1, 1, 0.5, 0.5},
			dropLowest: 2,
			expected:   3,
		},
		{
			name:       "cap above sum of low partials",
			scores:     []float64{0.5, 0.5, 0.5, 0.5, 0.5},
			dropLowest: 2,
			expected:   2.5,
		},
		{
			name:       "nothing dropped",
			scores:     []float64{0.25, 0.75},
			dropLowest: 0,
			expected:   1,
		},
		{
			name:       "everything dropped",
			scores:     []float64{1, 1},
			dropLowest: 2,
			expected:   0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			total, err := Aggregate(columnsFor("ada", tc.scores...), tc.dropLowest)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, total["ada"], 1e-12)
		})
	}
}

func TestAggregate_MissingLessonCountsZero(t *testing.T) {
	cols := []LessonColumn{
		{Name: "L1", Scores: table.Series{"ada": 1, "bob": 0.5}},
		{Name: "L2", Scores: table.Series{"ada": 1}},
		{Name: "L3", Scores: table.Series{"cyd": 0.25}},
	}

	total, err := Aggregate(cols, 0)
	require.NoError(t, err)

	assert.Equal(t, table.Series{"ada": 2, "bob": 0.5, "cyd": 0.25}, total)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	cols := []LessonColumn{
		{Name: "L1", Scores: table.Series{"ada": 0.1, "bob": 0.7}},
		{Name: "L2", Scores: table.Series{"ada": 0.2, "bob": 0.3}},
		{Name: "L3", Scores: table.Series{"ada": 0.3, "bob": 0.9}},
		{Name: "L4", Scores: table.Series{"ada": 0.7, "bob": 0.1}},
	}
	reversed := []LessonColumn{cols[3], cols[2], cols[1], cols[0]}
	shuffled := []LessonColumn{cols[2], cols[0], cols[3], cols[1]}

	want, err := Aggregate(cols, 1)
	require.NoError(t, err)

	for _, perm := range [][]LessonColumn{reversed, shuffled} {
		got, err := Aggregate(perm, 1)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestAggregate_NeverAboveCap(t *testing.T) {
	cols := []LessonColumn{
		{Name: "L1", Scores: table.Series{"ada": 1, "bob": 0.2}},
		{Name: "L2", Scores: table.Series{"ada": 1, "bob": 0.3}},
		{Name: "L3", Scores: table.Series{"ada": 0.9, "bob": 0.1}},
	}

	total, err := Aggregate(cols, 1)
	require.NoError(t, err)

	assert.Equal(t, 2.0, total["ada"])
	assert.InDelta(t, 0.6, total["bob"], 1e-12)
}

func TestAggregate_DropExceedsLessons(t *testing.T) {
	_, err := Aggregate(columnsFor("ada", 1, 1), 3)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.ErrorIs(t, err, apperrors.ErrDropExceedsLessons)

	_, err = Aggregate(columnsFor("ada", 1, 1), -1)
	assert.ErrorIs(t, err, apperrors.ErrDropExceedsLessons)
}
