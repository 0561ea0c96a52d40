package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/gradebook"
	"github.com/shrimpsizemoose/semla/internal/loader"
	"github.com/shrimpsizemoose/semla/internal/metrics"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/scoring"
	"github.com/shrimpsizemoose/semla/internal/store"
	"github.com/shrimpsizemoose/semla/internal/table"
	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

const (
	ResultsFile = "lessons.csv"
	StatsFile   = "stats.txt"
)

type Service struct {
	Config *Config
	// Store is nil when no database is configured.
	Store  store.ScoreStore
	Loader *loader.Loader
	Scorer *scoring.LessonScorer

	// SkipFailedLessons leaves a lesson out of the course run instead of
	// aborting when it cannot be scored.
	SkipFailedLessons bool

	now func() time.Time
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var scoreStore store.ScoreStore
	if config.Database.DSN != "" {
		scoreStore, err = NewStore(config.Database.DSN, config.Database.MigrationsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to init store: %w", err)
		}
	}

	return NewServiceWith(config, scoreStore), nil
}

// NewServiceWith wires a service around an already loaded config.
func NewServiceWith(config *Config, scoreStore store.ScoreStore) *Service {
	return &Service{
		Config: config,
		Store:  scoreStore,
		Loader: loader.New(config.Course.DataDir, config.Completions, config.Results),
		Scorer: scoring.NewLessonScorer(),
		now:    time.Now,
	}
}

// LessonOutcome is the scored lesson together with its gradebook column.
type LessonOutcome struct {
	Metadata models.LessonMetadata
	Column   string
	Result   *scoring.LessonResult
}

// CourseResult is everything a course run produces.
type CourseResult struct {
	Lessons []LessonOutcome
	Total   table.Series
	Results *table.Table
	Summary scoring.Summary
}

func (s *Service) columnName(num int) string {
	return strings.ReplaceAll(s.Config.Course.ColumnTemplate, "{num}", strconv.Itoa(num))
}

// ScoreLesson loads and scores a single lesson. Any error aborts the lesson.
func (s *Service) ScoreLesson(meta models.LessonMetadata) (*scoring.LessonResult, error) {
	loc := s.Config.Location()

	due, ok, err := table.ParseTimestamp(meta.DueDate, loc)
	if err != nil || !ok {
		return nil, apperrors.ConfigurationError{
			Lesson: meta.Title,
			Err:    fmt.Errorf("due date %q: %w", meta.DueDate, apperrors.ErrBadTimestamp),
		}
	}

	raw, slides, err := s.Loader.LoadCompletions(meta.Title)
	if err != nil {
		return nil, err
	}
	completions, err := scoring.NewCompletions(raw, slides, loc)
	if err != nil {
		return nil, fmt.Errorf("lesson %q: %w", meta.Title, err)
	}

	scores := make(map[string]table.Series)
	for _, activity := range meta.Activities() {
		series, err := s.Loader.LoadActivityScores(meta.Title, activity.Activity)
		if err != nil {
			return nil, fmt.Errorf("lesson %q: %w", meta.Title, err)
		}
		scores[activity.Name] = series
	}

	return s.Scorer.ScoreLesson(meta, completions, scores, due)
}

// ScoreCourse scores every lesson in metadata order, totals them and
// builds the results table over the roster of the last lesson.
func (s *Service) ScoreCourse() (*CourseResult, error) {
	course := s.Config.Course.Name

	lessons, err := s.Loader.LoadMetadata()
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return nil, fmt.Errorf("no lessons found in %s", s.Config.Course.DataDir)
	}

	result := &CourseResult{}
	var columns []scoring.LessonColumn
	for _, meta := range lessons {
		logger.Info.Printf("Computing scores for %s", meta.Title)

		scored, err := s.ScoreLesson(meta)
		if err != nil {
			if s.SkipFailedLessons {
				logger.Error.Printf("Skipping lesson %s: %v", meta.Title, err)
				continue
			}
			return nil, fmt.Errorf("failed to score lesson %s: %w", meta.Title, err)
		}

		column := s.columnName(meta.Num)
		result.Lessons = append(result.Lessons, LessonOutcome{Metadata: meta, Column: column, Result: scored})
		columns = append(columns, scoring.LessonColumn{Name: column, Scores: scored.Scores})

		metrics.LessonsScoredTotal.WithLabelValues(course).Inc()
		for _, a := range scored.Activities {
			metrics.ActivitiesProcessedTotal.WithLabelValues(course, string(a.Kind)).Inc()
		}
		for _, v := range scored.Scores {
			metrics.LessonScoreHistogram.WithLabelValues(course, column).Observe(v)
		}
	}

	result.Total, err = scoring.Aggregate(columns, s.Config.Course.DropLowest)
	if err != nil {
		return nil, err
	}

	// The last lesson's completions double as the course roster.
	roster, _, err := s.Loader.LoadCompletions(lessons[len(lessons)-1].Title)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	result.Results, err = s.buildResults(roster, columns, result.Total)
	if err != nil {
		return nil, err
	}

	onRoster := make(table.Series, roster.Len())
	for _, id := range roster.IDs() {
		v := result.Total.ValueOr(id, 0)
		onRoster[id] = v
		metrics.TotalScoreHistogram.WithLabelValues(course).Observe(v)
	}
	result.Summary = scoring.Describe(s.Config.Course.TotalColumn, onRoster)

	return result, nil
}

func (s *Service) buildResults(roster *table.Table, columns []scoring.LessonColumn, total table.Series) (*table.Table, error) {
	header := []string{roster.IDColumn()}
	var identity []string
	for _, c := range s.Config.Course.RosterColumns {
		if roster.HasColumn(c) {
			identity = append(identity, c)
		}
	}
	header = append(header, identity...)

	results, err := table.New(ResultsFile, header, nil, roster.IDColumn())
	if err != nil {
		return nil, err
	}
	for _, id := range roster.IDs() {
		if err := results.AddRow(id); err != nil {
			return nil, err
		}
		for _, c := range identity {
			v, _, err := roster.Get(id, c)
			if err != nil {
				return nil, err
			}
			if err := results.Set(id, c, v); err != nil {
				return nil, err
			}
		}
	}

	for _, col := range columns {
		results.AddColumn(col.Name)
		if err := results.SetColumn(col.Name, col.Scores, 0); err != nil {
			return nil, err
		}
	}
	results.AddColumn(s.Config.Course.TotalColumn)
	if err := results.SetColumn(s.Config.Course.TotalColumn, total, 0); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteResults saves lessons.csv and stats.txt in the output directory.
func (s *Service) WriteResults(result *CourseResult) error {
	dir := s.Config.Course.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if err := table.WriteCSVFile(filepath.Join(dir, ResultsFile), result.Results, nil); err != nil {
		return err
	}

	stats := result.Summary.String()
	if err := os.WriteFile(filepath.Join(dir, StatsFile), []byte(stats), 0o644); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	return nil
}

// PersistLessonScores stores every lesson score of the run.
func (s *Service) PersistLessonScores(result *CourseResult) error {
	if s.Store == nil {
		return nil
	}

	computedAt := s.now().Unix()
	for _, lesson := range result.Lessons {
		rows := make([]models.LessonScore, 0, len(lesson.Result.Scores))
		for _, id := range lesson.Result.Scores.IDs() {
			rows = append(rows, models.LessonScore{
				Course:     s.Config.Course.Name,
				Lesson:     lesson.Metadata.Title,
				Student:    id,
				Score:      lesson.Result.Scores[id],
				ComputedAt: computedAt,
			})
		}
		if err := s.Store.SaveLessonScores(rows); err != nil {
			return fmt.Errorf("failed to persist %s: %w", lesson.Metadata.Title, err)
		}
	}
	return nil
}

// UpdateGradebook runs one merge session: load, merge each configured
// export, apply stored overrides and diff against the loaded state.
func (s *Service) UpdateGradebook(path string, merges []MergeConfig) (*gradebook.Gradebook, *gradebook.ChangeSet, error) {
	g, err := gradebook.Load(path, s.Config.Gradebook.Options)
	if err != nil {
		return nil, nil, err
	}

	for _, m := range merges {
		scores, err := loader.LoadScores(m.File, m.ResultsOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load scores for %q: %w", m.Column, err)
		}
		column, err := g.Merge(m.Column, scores, m.Policy())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to merge %q: %w", m.Column, err)
		}
		logger.Info.Printf("Merged %d scores from %s into %q", len(scores), m.File, column)
	}

	if err := s.applyOverrides(g); err != nil {
		return nil, nil, err
	}

	changes := g.ReportDiffs()
	metrics.GradebookChangedRows.WithLabelValues(s.Config.Course.Name).Set(float64(changes.Count()))
	return g, changes, nil
}

func (s *Service) applyOverrides(g *gradebook.Gradebook) error {
	if s.Store == nil {
		return nil
	}

	overrides, err := s.Store.ListScoreOverrides(s.Config.Course.Name)
	if err != nil {
		return fmt.Errorf("failed to load overrides: %w", err)
	}

	for _, o := range overrides {
		err := g.SetGrade(o.Student, o.Column, o.Score, gradebook.Unique)
		if errors.Is(err, apperrors.ErrUnknownStudent) {
			logger.Error.Printf("Override for %s in %q skipped: student not in gradebook", o.Student, o.Column)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to apply override for %s: %w", o.Student, err)
		}
		logger.Debug.Printf("Override %s/%s = %v (%s)", o.Column, o.Student, o.Score, o.Reason)
	}
	return nil
}

func (s *Service) Close() error {
	if s.Store == nil {
		return nil
	}
	if err := s.Store.Close(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}
