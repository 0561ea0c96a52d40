package models

import "github.com/go-playground/validator/v10"

// ScoreOverride is a manual grade for one gradebook column, applied after
// computed scores are merged.
type ScoreOverride struct {
	Course  string  `db:"course" json:"course" validate:"required"`
	Column  string  `db:"column_name" json:"column" validate:"required"`
	Student string  `db:"student" json:"student" validate:"required"`
	Score   float64 `db:"score" json:"score" validate:"gte=0"`
	Reason  string  `db:"reason" json:"reason"`
}

func (o *ScoreOverride) Validate() error {
	validate := validator.New()
	return validate.Struct(o)
}

// unique_together is handled on DB level:
/*
CREATE TABLE score_overrides (
    course TEXT NOT NULL,
    column_name TEXT NOT NULL,
    student TEXT NOT NULL,
    score DOUBLE PRECISION NOT NULL,
    reason TEXT,
    CONSTRAINT score_overrides_pkey PRIMARY KEY (course, column_name, student)
);
*/
