package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/models"
)

// ScoreStore keeps computed lesson scores for audit and the manual
// overrides applied to the gradebook.
type ScoreStore interface {
	Close() error
	ApplyMigrations(dir string) error

	SaveLessonScores(scores []models.LessonScore) error
	ListLessonScores(course, lesson string) ([]models.LessonScore, error)

	CreateScoreOverride(override models.ScoreOverride) error
	GetScoreOverride(course, column, student string) (*models.ScoreOverride, error)
	ListScoreOverrides(course string) ([]models.ScoreOverride, error)
	DeleteScoreOverride(course, column, student string) error
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in name order,
// translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Debug.Printf("Applying migration: %s", file.Name())
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

// SaveLessonScores upserts a whole lesson in one transaction.
func (s *BaseStore) SaveLessonScores(scores []models.LessonScore) error {
	for i := range scores {
		if err := scores[i].Validate(); err != nil {
			return fmt.Errorf("invalid lesson score for %s: %w", scores[i].Student, err)
		}
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, score := range scores {
		_, err := tx.NamedExec(`
			INSERT INTO lesson_scores (course, lesson, student, score, computed_at)
			VALUES (:course, :lesson, :student, :score, :computed_at)
			ON CONFLICT(course, lesson, student) DO UPDATE SET
			score = :score,
			computed_at = :computed_at
		`, score)
		if err != nil {
			return fmt.Errorf("failed to save lesson score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lesson scores: %w", err)
	}
	return nil
}

func (s *BaseStore) ListLessonScores(course, lesson string) ([]models.LessonScore, error) {
	var scores []models.LessonScore
	query := s.Converter(`
		SELECT course, lesson, student, score, computed_at
		FROM lesson_scores
		WHERE course = ?
		AND lesson = ?
		ORDER BY student
	`)

	if err := s.DB.Select(&scores, query, course, lesson); err != nil {
		return nil, fmt.Errorf("failed to list lesson scores: %w", err)
	}
	return scores, nil
}

func (s *BaseStore) CreateScoreOverride(override models.ScoreOverride) error {
	if err := override.Validate(); err != nil {
		return fmt.Errorf("invalid score override: %w", err)
	}

	_, err := s.DB.NamedExec(`
		INSERT INTO score_overrides (course, column_name, student, score, reason)
		VALUES (:course, :column_name, :student, :score, :reason)
		ON CONFLICT(course, column_name, student) DO UPDATE SET
		score = :score,
		reason = :reason
	`, override)
	if err != nil {
		return fmt.Errorf("failed to create score override: %w", err)
	}
	return nil
}

func (s *BaseStore) GetScoreOverride(course, column, student string) (*models.ScoreOverride, error) {
	var override models.ScoreOverride
	query := s.Converter(`
		SELECT course, column_name, student, score, reason
		FROM score_overrides
		WHERE course = ?
		AND column_name = ?
		AND student = ?
	`)

	err := s.DB.Get(&override, query, course, column, student)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get score override: %w", err)
	}
	return &override, nil
}

func (s *BaseStore) ListScoreOverrides(course string) ([]models.ScoreOverride, error) {
	var overrides []models.ScoreOverride
	query := s.Converter(`
		SELECT course, column_name, student, score, reason
		FROM score_overrides
		WHERE course = ?
		ORDER BY column_name, student
	`)

	if err := s.DB.Select(&overrides, query, course); err != nil {
		return nil, fmt.Errorf("failed to list score overrides: %w", err)
	}
	return overrides, nil
}

func (s *BaseStore) DeleteScoreOverride(course, column, student string) error {
	query := s.Converter(`
		DELETE FROM score_overrides
		WHERE course = ?
		AND column_name = ?
		AND student = ?
	`)
	if _, err := s.DB.Exec(query, course, column, student); err != nil {
		return fmt.Errorf("failed to delete score override: %w", err)
	}
	return nil
}
