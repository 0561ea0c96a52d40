package table

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

func TestNew_RejectsDuplicateStudents(t *testing.T) {
	_, err := New("roster.csv",
		[]string{"email", "name"},
		[][]string{{"ada", "Ada"}, {"bob", "Bob"}, {"ada", "Ada again"}, {"bob", "Bobby"}},
		"email",
	)

	var integrity apperrors.DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateStudent)
	assert.Equal(t, []string{"ada", "bob"}, integrity.Students)
	assert.Contains(t, err.Error(), "roster.csv")
}

func TestNew_IdentifiersAreCaseSensitive(t *testing.T) {
	tbl, err := New("roster.csv", []string{"email"}, [][]string{{"Ada"}, {"ada"}}, "email")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestNew_MissingIdentifier(t *testing.T) {
	_, err := New("roster.csv", []string{"name"}, nil, "email")
	assert.ErrorIs(t, err, apperrors.ErrColumnNotFound)

	tbl, err := New("roster.csv", []string{"email", "name"}, nil, "email")
	require.NoError(t, err)
	assert.ErrorIs(t, tbl.AddRow(" "), apperrors.ErrMissingStudentID)
}

func TestNew_KeepsRowsWithoutIdentifier(t *testing.T) {
	tbl, err := New("roster.csv", []string{"name", "email", "score"}, [][]string{
		{"Ada", "ada", "1"},
		{"Student, Test", "", "0"},
		{"Bob", "bob", "2"},
		{"Nobody", " ", ""},
	}, "email")
	require.NoError(t, err)

	assert.Equal(t, []string{"ada", "bob"}, tbl.IDs())
	assert.Equal(t, 2, tbl.Len())
	assert.False(t, tbl.Has(""))
	assert.Equal(t, [][]string{{"Student, Test", "", "0"}, {"Nobody", " ", ""}}, tbl.Unkeyed())

	scores, err := tbl.FloatColumn("score")
	require.NoError(t, err)
	assert.Equal(t, Series{"ada": 1, "bob": 2}, scores)

	tbl.AddColumn("L1")
	require.NoError(t, tbl.SetColumn("L1", Series{"ada": 1}, 0))
	assert.Equal(t, [][]string{
		{"name", "email", "score", "L1"},
		{"Ada", "ada", "1", "1"},
		{"Student, Test", "", "0", ""},
		{"Bob", "bob", "2", "0"},
		{"Nobody", " ", "", ""},
	}, tbl.Records())
	assert.Equal(t, tbl.Records(), tbl.Clone().Records())

	_, err = New("roster.csv", []string{"name", "email"}, [][]string{
		{"Ada", "ada"}, {"Test", ""}, {"Ada again", "ada"},
	}, "email")
	assert.ErrorIs(t, err, apperrors.ErrDuplicateStudent)
}

func TestNew_RejectsRaggedRows(t *testing.T) {
	tbl, err := New("scores.csv", []string{"email", "score"}, [][]string{{"ada", "1", "", " "}}, "email")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"email", "score"}, {"ada", "1"}}, tbl.Records())

	_, err = New("scores.csv", []string{"email", "score"}, [][]string{{"ada", "1"}, {"bob", "2", "extra"}}, "email")
	assert.ErrorIs(t, err, apperrors.ErrDataIntegrity)
	assert.ErrorIs(t, err, apperrors.ErrRaggedRow)
	assert.Contains(t, err.Error(), "data row 2")
}

func TestReadCSV_ReportsFileLines(t *testing.T) {
	data := "Lesson completions\nExported today\nemail,score\n    Points Possible,10\nada,1\nbob,2,3\n"

	_, _, err := ReadCSV(strings.NewReader(data), "scores.csv", ReadOptions{IDColumn: "email", SkipRows: 2, LeadingRows: 1})
	assert.ErrorIs(t, err, apperrors.ErrRaggedRow)
	assert.Contains(t, err.Error(), "line 6")
}

func TestReadCSV(t *testing.T) {
	data := "junk line\nname,email,score\nAda,ada,1\n\nBob,bob\n"

	tbl, raw, err := ReadCSV(strings.NewReader(data), "scores.csv", ReadOptions{IDColumn: "email", SkipRows: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "email", "score"}, raw.Header)
	assert.Equal(t, []string{"ada", "bob"}, tbl.IDs())
	assert.Equal(t, []string{"name", "score"}, tbl.Columns())

	score, ok, err := tbl.Get("bob", "score")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", score)

	_, ok, err = tbl.Get("nobody", "score")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFloatColumn(t *testing.T) {
	tbl, err := New("scores.csv",
		[]string{"email", "score"},
		[][]string{{"ada", "10"}, {"bob", " 2.5 "}, {"cyd", ""}},
		"email",
	)
	require.NoError(t, err)

	scores, err := tbl.FloatColumn("score")
	require.NoError(t, err)
	assert.Equal(t, Series{"ada": 10, "bob": 2.5}, scores)

	for _, bad := range []string{"NaN", "nan", "Inf", "-Infinity"} {
		require.NoError(t, tbl.Set("cyd", "score", bad))
		_, err = tbl.FloatColumn("score")
		assert.ErrorIs(t, err, apperrors.ErrBadScore, bad)
	}

	require.NoError(t, tbl.Set("cyd", "score", "ten"))
	_, err = tbl.FloatColumn("score")
	assert.ErrorIs(t, err, apperrors.ErrBadScore)
}

func TestSetColumn_FillsMissing(t *testing.T) {
	tbl, err := New("roster.csv",
		[]string{"email", "L1"},
		[][]string{{"ada", "old"}, {"bob", "old"}},
		"email",
	)
	require.NoError(t, err)

	require.NoError(t, tbl.SetColumn("L1", Series{"ada": 0.5, "zed": 1}, 0))

	col, err := tbl.Column("L1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ada": "0.5", "bob": "0"}, col)

	assert.Error(t, tbl.SetColumn("email", Series{}, 0))
	assert.ErrorIs(t, tbl.SetColumn("L2", Series{}, 0), apperrors.ErrColumnNotFound)
}

func TestClone_IsIndependent(t *testing.T) {
	tbl, err := New("roster.csv", []string{"email", "L1"}, [][]string{{"ada", "1"}}, "email")
	require.NoError(t, err)

	c := tbl.Clone()
	require.NoError(t, tbl.Set("ada", "L1", "2"))
	tbl.AddColumn("L2")

	v, _, err := c.Get("ada", "L1")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.False(t, c.HasColumn("L2"))
}

func TestWriteCSV(t *testing.T) {
	tbl, err := New("roster.csv", []string{"name", "email"}, [][]string{{"Ada", "ada"}}, "email")
	require.NoError(t, err)
	tbl.AddColumn("total")
	require.NoError(t, tbl.AddRow("bob"))
	require.NoError(t, tbl.SetColumn("total", Series{"ada": 3}, 0))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl, [][]string{{"Points Possible"}}))
	assert.Equal(t, "name,email,total\nPoints Possible,,\nAda,ada,3\n,bob,0\n", buf.String())

	assert.ErrorIs(t, tbl.AddRow("ada"), apperrors.ErrDuplicateStudent)
}

func TestParseTimestamp(t *testing.T) {
	pst := time.FixedZone("PST", -8*60*60)

	testCases := []struct {
		raw      string
		expected time.Time
		ok       bool
	}{
		{"2024-01-10T09:10:00Z", time.Date(2024, 1, 10, 9, 10, 0, 0, time.UTC), true},
		{"2024-01-10T09:10:00.123456+11:00", time.Date(2024, 1, 9, 22, 10, 0, 123456000, time.UTC), true},
		{"2024-01-10 23:59:00-08:00", time.Date(2024, 1, 11, 7, 59, 0, 0, time.UTC), true},
		{"2024-01-10 09:00:00", time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC), true},
		{"2024-01-10", time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"NaT", time.Time{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			ts, ok, err := ParseTimestamp(tc.raw, pst)
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, tc.expected.Equal(ts), "got %s", ts)
			}
		})
	}

	_, _, err := ParseTimestamp("next tuesday", pst)
	assert.Error(t, err)
}
