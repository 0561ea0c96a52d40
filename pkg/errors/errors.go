package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration      = errors.New("configuration error")
	ErrDataIntegrity      = errors.New("data integrity error")
	ErrAmbiguousColumn    = errors.New("column name does not uniquely identify one column")
	ErrColumnNotFound     = errors.New("column not found")
	ErrNoActivities       = errors.New("lesson declares no quiz or code activities")
	ErrEmptyScoreTable    = errors.New("activity score table is empty")
	ErrMissingScoreTable  = errors.New("no score table loaded for activity")
	ErrZeroPointsPossible = errors.New("lesson has zero points possible")
	ErrDropExceedsLessons = errors.New("drop_lowest exceeds number of lessons")
	ErrDuplicateStudent   = errors.New("duplicate student identifiers")
	ErrBadTimestamp       = errors.New("unparseable timestamp")
	ErrBadScore           = errors.New("unparseable score")
	ErrUnknownStudent     = errors.New("student not in gradebook")
	ErrMissingStudentID   = errors.New("row without student identifier")
	ErrRaggedRow          = errors.New("row has more cells than the header")
)

// ConfigurationError is fatal and never retried. It names the lesson and
// activity (when known) and the offending columns for ambiguous matches.
type ConfigurationError struct {
	Lesson   string
	Activity string
	Columns  []string
	Err      error
}

func (e ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Lesson != "" {
		fmt.Fprintf(&b, " in lesson %q", e.Lesson)
	}
	if e.Activity != "" {
		fmt.Fprintf(&b, " for activity %q", e.Activity)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if len(e.Columns) > 0 {
		fmt.Fprintf(&b, " (columns: %s)", strings.Join(e.Columns, ", "))
	}
	return b.String()
}

func (e ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

// DataIntegrityError reports malformed input tables.
type DataIntegrityError struct {
	Table    string
	Column   string
	Value    string
	Students []string
	Err      error
}

func (e DataIntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "data integrity error in %s: %v", e.Table, e.Err)
	if e.Column != "" {
		fmt.Fprintf(&b, " (column %q", e.Column)
		if e.Value != "" {
			fmt.Fprintf(&b, ", value %q", e.Value)
		}
		b.WriteString(")")
	} else if e.Value != "" {
		fmt.Fprintf(&b, " (%s)", e.Value)
	}
	if len(e.Students) > 0 {
		fmt.Fprintf(&b, " (students: %s)", strings.Join(e.Students, ", "))
	}
	return b.String()
}

func (e DataIntegrityError) Unwrap() []error {
	return []error{ErrDataIntegrity, e.Err}
}

// WithLesson attaches lesson context to a configuration error, leaving
// other errors untouched.
func WithLesson(err error, lesson string) error {
	var cfgErr ConfigurationError
	if errors.As(err, &cfgErr) && cfgErr.Lesson == "" {
		cfgErr.Lesson = lesson
		return cfgErr
	}
	return err
}
