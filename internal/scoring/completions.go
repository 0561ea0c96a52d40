package scoring

import (
	"strings"
	"time"

	"github.com/shrimpsizemoose/semla/internal/table"
	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

// Completions holds per-slide completion timestamps for one lesson.
// Slides may repeat a name; lookups by name reject that.
type Completions struct {
	Slides []string

	students []string
	done     map[string][]time.Time
}

// NewCompletions parses the slide columns of a completions table. Every
// non-blank cell must be a timestamp.
func NewCompletions(t *table.Table, slides []string, loc *time.Location) (*Completions, error) {
	c := &Completions{
		Slides:   append([]string(nil), slides...),
		students: t.IDs(),
		done:     make(map[string][]time.Time, t.Len()),
	}

	cols := make([]map[string]string, len(slides))
	seen := make(map[string]int)
	for i, slide := range slides {
		idx := seen[slide]
		seen[slide]++
		cells, err := columnOccurrence(t, slide, idx)
		if err != nil {
			return nil, err
		}
		cols[i] = cells
	}

	for _, id := range c.students {
		times := make([]time.Time, len(slides))
		for i, slide := range slides {
			raw := cols[i][id]
			ts, ok, err := table.ParseTimestamp(raw, loc)
			if err != nil {
				return nil, apperrors.DataIntegrityError{
					Table:    t.Name,
					Column:   slide,
					Value:    raw,
					Students: []string{id},
					Err:      apperrors.ErrBadTimestamp,
				}
			}
			if ok {
				times[i] = ts
			}
		}
		c.done[id] = times
	}

	return c, nil
}

// columnOccurrence reads the n-th column carrying the given name.
func columnOccurrence(t *table.Table, name string, n int) (map[string]string, error) {
	header := t.Header()
	ids := t.IDs()
	records := t.Records()[1:]

	pos, count := -1, 0
	for i, h := range header {
		if h == name {
			if count == n {
				pos = i
				break
			}
			count++
		}
	}
	if pos < 0 {
		return nil, apperrors.ConfigurationError{Columns: []string{name}, Err: apperrors.ErrColumnNotFound}
	}

	out := make(map[string]string, len(ids))
	for i, id := range ids {
		out[id] = records[i][pos]
	}
	return out, nil
}

// Students returns the students present in the export, in file order.
func (c *Completions) Students() []string {
	return append([]string(nil), c.students...)
}

// SlideIndex matches an activity display name against the slide columns.
// Exactly one column must match.
func (c *Completions) SlideIndex(name string) (int, error) {
	want := strings.TrimSpace(name)
	var matches []int
	for i, slide := range c.Slides {
		if strings.TrimSpace(slide) == want {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return -1, apperrors.ConfigurationError{
			Activity: name,
			Columns:  append([]string(nil), c.Slides...),
			Err:      apperrors.ErrColumnNotFound,
		}
	default:
		cols := make([]string, len(matches))
		for i, m := range matches {
			cols[i] = c.Slides[m]
		}
		return -1, apperrors.ConfigurationError{
			Activity: name,
			Columns:  cols,
			Err:      apperrors.ErrAmbiguousColumn,
		}
	}
}

// Completed reports when a student finished a slide. Students outside the
// export never completed anything.
func (c *Completions) Completed(student string, slide int) (time.Time, bool) {
	times, ok := c.done[student]
	if !ok || slide < 0 || slide >= len(times) || times[slide].IsZero() {
		return time.Time{}, false
	}
	return times[slide], true
}
