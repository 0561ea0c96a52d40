// Package loader reads the files downloaded from the lesson platform: the
// lesson metadata, per-lesson completion exports and activity results.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/table"
)

const (
	MetadataFile    = "metadata.yaml"
	CompletionsFile = "completions.csv"
)

// CompletionOptions describe the completions export layout.
type CompletionOptions struct {
	IDColumn      string   `toml:"id_column"`
	HeaderRows    int      `toml:"header_rows"`
	IgnoreColumns []string `toml:"ignore_columns"`
}

func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{
		IDColumn:      "email",
		HeaderRows:    2,
		IgnoreColumns: []string{"name", "email", "tutorial", "SIS ID", "first viewed", "total score"},
	}
}

// ResultsOptions describe a single-score results export.
type ResultsOptions struct {
	SIDColumn   string `toml:"sid_column"`
	ScoreColumn string `toml:"score_column"`
	// SIDIsEmail strips everything from the first '@'.
	SIDIsEmail bool              `toml:"sid_is_email"`
	DummyRows  int               `toml:"dummy_rows"`
	Renames    map[string]string `toml:"renames"`
}

func DefaultResultsOptions() ResultsOptions {
	return ResultsOptions{
		SIDColumn:   "email",
		ScoreColumn: "total score",
	}
}

// Loader reads one course's lesson data directory.
type Loader struct {
	DataDir     string
	Completions CompletionOptions
	Results     ResultsOptions
}

func New(dataDir string, completions CompletionOptions, results ResultsOptions) *Loader {
	return &Loader{DataDir: dataDir, Completions: completions, Results: results}
}

// LoadMetadata reads metadata.yaml and returns lessons sorted by number.
func (l *Loader) LoadMetadata() ([]models.LessonMetadata, error) {
	return LoadMetadata(filepath.Join(l.DataDir, MetadataFile))
}

func LoadMetadata(path string) ([]models.LessonMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading metadata file: %w", err)
	}

	var lessons []models.LessonMetadata
	if err := yaml.Unmarshal(data, &lessons); err != nil {
		return nil, fmt.Errorf("error parsing metadata file %s: %w", path, err)
	}

	titles := make(map[string]bool, len(lessons))
	for i := range lessons {
		if err := lessons[i].Validate(); err != nil {
			return nil, err
		}
		if titles[lessons[i].Title] {
			return nil, fmt.Errorf("duplicate lesson title %q in %s", lessons[i].Title, path)
		}
		titles[lessons[i].Title] = true
	}

	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].Num < lessons[j].Num
	})

	logger.Debug.Printf("Loaded %d lessons from %s", len(lessons), path)
	return lessons, nil
}

// SaveMetadata writes lessons back in number order.
func SaveMetadata(path string, lessons []models.LessonMetadata) error {
	sorted := append([]models.LessonMetadata(nil), lessons...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Num < sorted[j].Num
	})

	data, err := yaml.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadCompletions reads a lesson's completions export and returns it with
// the slide columns, i.e. every column not in the ignore list.
func (l *Loader) LoadCompletions(lesson string) (*table.Table, []string, error) {
	path := filepath.Join(l.DataDir, lesson, CompletionsFile)
	t, _, err := table.ReadFile(path, table.ReadOptions{
		IDColumn: l.Completions.IDColumn,
		SkipRows: l.Completions.HeaderRows,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read completions for %s: %w", lesson, err)
	}

	ignore := make(map[string]bool, len(l.Completions.IgnoreColumns)+1)
	ignore[l.Completions.IDColumn] = true
	for _, c := range l.Completions.IgnoreColumns {
		ignore[c] = true
	}

	var slides []string
	for _, c := range t.Header() {
		if !ignore[c] {
			slides = append(slides, c)
		}
	}
	return t, slides, nil
}

// LoadActivityScores reads the results export of one activity of a lesson.
func (l *Loader) LoadActivityScores(lesson string, activity models.Activity) (table.Series, error) {
	path := filepath.Join(l.DataDir, lesson, activity.File+".csv")
	if !fileExists(path) {
		if alt := filepath.Join(l.DataDir, lesson, activity.File+".xlsx"); fileExists(alt) {
			path = alt
		}
	}
	scores, err := LoadScores(path, l.Results)
	if err != nil {
		return nil, fmt.Errorf("activity %q: %w", activity.Name, err)
	}
	return scores, nil
}

// LoadScores reads one score column keyed by student from a results
// export, normalising identifiers first.
func LoadScores(path string, opts ResultsOptions) (table.Series, error) {
	t, _, err := table.ReadFile(path, table.ReadOptions{
		IDColumn: opts.SIDColumn,
		SkipRows: opts.DummyRows,
	})
	if err != nil {
		return nil, err
	}

	if opts.SIDIsEmail || len(opts.Renames) > 0 {
		err := t.MapIDs(func(id string) string {
			if opts.SIDIsEmail {
				id, _, _ = strings.Cut(id, "@")
			}
			if renamed, ok := opts.Renames[id]; ok {
				return renamed
			}
			return id
		})
		if err != nil {
			return nil, err
		}
	}

	return t.FloatColumn(opts.ScoreColumn)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
