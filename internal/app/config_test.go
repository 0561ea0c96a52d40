package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[course]
name = "cse163"
drop_lowest = 2

[gradebook]
sid_column = "SIS User ID"

[[gradebook.merge]]
column = "Checkpoint Completion"
file = "out/lessons.csv"
sid_column = "email"
score_column = "total"
sid_is_email = true
grab_first = true
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "cse163", config.Course.Name)
	assert.Equal(t, 2, config.Course.DropLowest)
	assert.Equal(t, "L{num}", config.Course.ColumnTemplate)
	assert.Equal(t, "SIS User ID", config.Gradebook.SIDColumn)
	assert.Equal(t, 2, config.Gradebook.DummyRows)
	assert.Equal(t, 2, config.Completions.HeaderRows)

	require.Len(t, config.Gradebook.Merge, 1)
	m := config.Gradebook.Merge[0]
	assert.True(t, m.ResultsOptions().SIDIsEmail)
	assert.Equal(t, "first-match", m.Policy().String())
}

func TestLoadConfigInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errPart string
	}{
		{"missing course name", "[course]\ndrop_lowest = 1\n", "course name"},
		{"negative drop", "[course]\nname = \"x\"\ndrop_lowest = -1\n", "drop_lowest"},
		{"bad timezone", "[course]\nname = \"x\"\ntimezone = \"Mars/Olympus\"\n", "timezone"},
		{"incomplete merge", "[course]\nname = \"x\"\n[[gradebook.merge]]\ncolumn = \"HW1\"\n", "gradebook.merge[0]"},
		{"not toml", "[course\n", "error reading config file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tc.content)

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}
