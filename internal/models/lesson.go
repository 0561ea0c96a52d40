package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Activity is a graded slide of a lesson. Name must match the slide column
// of the completions export, File names the results export for it.
type Activity struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	File string `yaml:"file" json:"file" validate:"required"`
}

type ActivityKind string

const (
	ActivityQuiz ActivityKind = "quiz"
	ActivityCode ActivityKind = "code"
)

type LessonMetadata struct {
	Title      string     `yaml:"title" json:"title" validate:"required"`
	Num        int        `yaml:"num" json:"num" validate:"gte=0"`
	DueDate    string     `yaml:"due_date" json:"due_date" validate:"required"`
	LateCutoff string     `yaml:"late_cutoff,omitempty" json:"late_cutoff,omitempty"`
	Quiz       []Activity `yaml:"quiz" json:"quiz" validate:"dive"`
	Code       []Activity `yaml:"code" json:"code" validate:"dive"`
}

// KindActivity pairs an activity with the kind of slide it came from.
type KindActivity struct {
	Kind ActivityKind
	Activity
}

// Activities lists quizzes first, then code challenges.
func (l *LessonMetadata) Activities() []KindActivity {
	out := make([]KindActivity, 0, len(l.Quiz)+len(l.Code))
	for _, a := range l.Quiz {
		out = append(out, KindActivity{Kind: ActivityQuiz, Activity: a})
	}
	for _, a := range l.Code {
		out = append(out, KindActivity{Kind: ActivityCode, Activity: a})
	}
	return out
}

func (l *LessonMetadata) Validate() error {
	validate := validator.New()
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("lesson %q: %w", l.Title, err)
	}
	return nil
}
