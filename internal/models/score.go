package models

import "github.com/go-playground/validator/v10"

// LessonScore is one computed lesson score kept for audit.
type LessonScore struct {
	Course     string  `db:"course" json:"course" validate:"required"`
	Lesson     string  `db:"lesson" json:"lesson" validate:"required"`
	Student    string  `db:"student" json:"student" validate:"required"`
	Score      float64 `db:"score" json:"score" validate:"gte=0,lte=1"`
	ComputedAt int64   `db:"computed_at" json:"computed_at"`
}

func (s *LessonScore) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
