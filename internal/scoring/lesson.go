package scoring

import (
	"math"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/table"
	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

// LessonScorer computes the late-adjusted fraction of activity points each
// student earned in a lesson.
type LessonScorer struct {
	Policy LatePolicy
}

func NewLessonScorer() *LessonScorer {
	return &LessonScorer{Policy: DefaultLatePolicy()}
}

// ActivityResult is the per-activity breakdown of a lesson score.
type ActivityResult struct {
	Kind           models.ActivityKind
	Name           string
	PointsPossible float64
}

// LessonResult is the score series of a lesson with the activities that
// made it up.
type LessonResult struct {
	Lesson     string
	Scores     table.Series
	Activities []ActivityResult
	Points     float64
}

// ScoreLesson scores every student found in the completions export or in
// any activity results. Raw scores are keyed by activity display name.
//
// Each activity contributes raw*timeFactor to the numerator and its best
// observed raw score to the denominator. A student missing from an
// activity's results scores 0 on it.
func (s *LessonScorer) ScoreLesson(
	meta models.LessonMetadata,
	completions *Completions,
	raw map[string]table.Series,
	due time.Time,
) (*LessonResult, error) {
	activities := meta.Activities()
	if len(activities) == 0 {
		return nil, apperrors.ConfigurationError{Lesson: meta.Title, Err: apperrors.ErrNoActivities}
	}

	students := make(map[string]struct{})
	for _, id := range completions.Students() {
		students[id] = struct{}{}
	}

	numerator := make(map[string]float64)
	result := &LessonResult{Lesson: meta.Title}

	for _, activity := range activities {
		logger.Debug.Printf("Processing %s", activity.Name)

		scores, ok := raw[activity.Name]
		if !ok {
			return nil, apperrors.ConfigurationError{
				Lesson:   meta.Title,
				Activity: activity.Name,
				Err:      apperrors.ErrMissingScoreTable,
			}
		}

		for id, score := range scores {
			if math.IsNaN(score) || math.IsInf(score, 0) {
				return nil, apperrors.DataIntegrityError{
					Table:    activity.Name,
					Value:    table.FormatFloat(score),
					Students: []string{id},
					Err:      apperrors.ErrBadScore,
				}
			}
		}

		// Nobody declares points possible; assume someone got full marks.
		possible, ok := scores.Max()
		if !ok {
			return nil, apperrors.ConfigurationError{
				Lesson:   meta.Title,
				Activity: activity.Name,
				Err:      apperrors.ErrEmptyScoreTable,
			}
		}

		slide, err := completions.SlideIndex(activity.Name)
		if err != nil {
			return nil, apperrors.WithLesson(err, meta.Title)
		}

		for id, score := range scores {
			students[id] = struct{}{}
			submitted, done := completions.Completed(id, slide)
			numerator[id] += score * s.Policy.TimeFactor(due, submitted, done)
		}

		result.Points += possible
		result.Activities = append(result.Activities, ActivityResult{
			Kind:           activity.Kind,
			Name:           activity.Name,
			PointsPossible: possible,
		})
	}

	if !(result.Points > 0) {
		return nil, apperrors.ConfigurationError{Lesson: meta.Title, Err: apperrors.ErrZeroPointsPossible}
	}

	result.Scores = make(table.Series, len(students))
	for id := range students {
		result.Scores[id] = clampUnit(numerator[id] / result.Points)
	}

	return result, nil
}

// clampUnit keeps float noise from pushing a fraction outside [0, 1].
func clampUnit(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
