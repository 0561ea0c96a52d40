package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/table"
	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

const metadataYAML = `
- title: lecture-2-data-types
  num: 2
  due_date: "2024-01-12 23:59:00-08:00"
  late_cutoff: "2024-01-19 23:59:00-08:00"
  quiz:
    - name: "Check-in: types"
      file: check-in-types
  code: []
- title: lecture-1-intro
  num: 1
  due_date: "2024-01-10 23:59:00-08:00"
  late_cutoff: null
  quiz: []
  code:
    - name: Hello World
      file: hello-world
`

const completionsCSV = `Lesson completions
Exported 2024-01-20
name,email,tutorial,first viewed,Reading,Check-in: types,total score
Ada,ada@uw.edu,AA,2024-01-09T10:00:00Z,2024-01-09T10:05:00Z,2024-01-12T10:00:00Z,1
Bob,bob@uw.edu,AB,,,,0
`

const resultsCSV = `email,name,total score,feedback grade
ada@uw.edu,Ada,10,
BOB@gmail.com,Bob,7.5,
,Test Student,3,
cyd@uw.edu,Cyd,,
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadMetadata(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, MetadataFile), metadataYAML)

	l := New(dir, DefaultCompletionOptions(), DefaultResultsOptions())
	lessons, err := l.LoadMetadata()
	require.NoError(t, err)
	require.Len(t, lessons, 2)

	assert.Equal(t, "lecture-1-intro", lessons[0].Title)
	assert.Equal(t, 1, lessons[0].Num)
	assert.Equal(t, []models.Activity{{Name: "Hello World", File: "hello-world"}}, lessons[0].Code)
	assert.Empty(t, lessons[0].LateCutoff)
	assert.Equal(t, "2024-01-12 23:59:00-08:00", lessons[1].DueDate)
	assert.Equal(t, "Check-in: types", lessons[1].Quiz[0].Name)
}

func TestLoadMetadata_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, MetadataFile), metadataYAML)
	lessons, err := LoadMetadata(filepath.Join(dir, MetadataFile))
	require.NoError(t, err)

	out := filepath.Join(dir, "copy", MetadataFile)
	require.NoError(t, SaveMetadata(out, lessons))

	again, err := LoadMetadata(out)
	require.NoError(t, err)
	assert.Equal(t, lessons, again)
}

func TestLoadMetadata_Invalid(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "missing-title.yaml")
	writeFile(t, path, "- num: 1\n  due_date: \"2024-01-10\"\n")
	_, err := LoadMetadata(path)
	assert.Error(t, err)

	path = filepath.Join(dir, "duplicate.yaml")
	writeFile(t, path, "- {title: a, num: 1, due_date: x}\n- {title: a, num: 2, due_date: y}\n")
	_, err = LoadMetadata(path)
	assert.ErrorContains(t, err, "duplicate lesson title")
}

func TestLoadCompletions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lecture-2", CompletionsFile), completionsCSV)

	l := New(dir, DefaultCompletionOptions(), DefaultResultsOptions())
	tbl, slides, err := l.LoadCompletions("lecture-2")
	require.NoError(t, err)

	assert.Equal(t, []string{"Reading", "Check-in: types"}, slides)
	assert.Equal(t, []string{"ada@uw.edu", "bob@uw.edu"}, tbl.IDs())

	tutorial, ok, err := tbl.Get("bob@uw.edu", "tutorial")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "AB", tutorial)
}

func TestLoadScores(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	writeFile(t, path, resultsCSV)

	t.Run("keep emails", func(t *testing.T) {
		scores, err := LoadScores(path, DefaultResultsOptions())
		require.NoError(t, err)
		assert.Equal(t, table.Series{"ada@uw.edu": 10, "BOB@gmail.com": 7.5}, scores)
	})

	t.Run("rows without email are skipped", func(t *testing.T) {
		scores, err := LoadScores(path, DefaultResultsOptions())
		require.NoError(t, err)
		_, ok := scores[""]
		assert.False(t, ok)
		assert.Len(t, scores, 2)
	})

	t.Run("strip email and rename", func(t *testing.T) {
		opts := DefaultResultsOptions()
		opts.SIDIsEmail = true
		opts.Renames = map[string]string{"BOB": "bob"}
		scores, err := LoadScores(path, opts)
		require.NoError(t, err)
		assert.Equal(t, table.Series{"ada": 10, "bob": 7.5}, scores)
	})

	t.Run("rename collision", func(t *testing.T) {
		opts := DefaultResultsOptions()
		opts.SIDIsEmail = true
		opts.Renames = map[string]string{"BOB": "ada"}
		_, err := LoadScores(path, opts)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateStudent)
	})

	t.Run("missing score column", func(t *testing.T) {
		opts := DefaultResultsOptions()
		opts.ScoreColumn = "grade"
		_, err := LoadScores(path, opts)
		assert.ErrorIs(t, err, apperrors.ErrColumnNotFound)
	})
}

func TestLoadActivityScores_DuplicateStudents(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lecture-1", "hello-world.csv"),
		"email,total score\nada@uw.edu,1\nada@uw.edu,2\n")

	l := New(dir, DefaultCompletionOptions(), DefaultResultsOptions())
	_, err := l.LoadActivityScores("lecture-1", models.Activity{Name: "Hello World", File: "hello-world"})

	var integrity apperrors.DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, []string{"ada@uw.edu"}, integrity.Students)
	assert.Contains(t, err.Error(), `activity "Hello World"`)
}
