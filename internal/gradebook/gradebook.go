// Package gradebook applies computed scores onto a roster export and
// reports what changed.
package gradebook

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/table"
	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

const exportDateFormat = "2006-Jan-02-at-15-04"

type Options struct {
	StudentNameColumn string `toml:"student_name_column"`
	SIDColumn         string `toml:"sid_column"`
	// DummyRows sit under the header (points possible and the like) and
	// are written back untouched.
	DummyRows int    `toml:"dummy_rows"`
	OutDir    string `toml:"out_dir"`
}

func DefaultOptions() Options {
	return Options{
		StudentNameColumn: "Student",
		SIDColumn:         "SIS Login ID",
		DummyRows:         2,
		OutDir:            "out",
	}
}

// Gradebook is a single-session view of a roster export. It is not safe
// for concurrent use; a session either ends with Export or is dropped.
type Gradebook struct {
	opts     Options
	dummies  [][]string
	original *table.Table
	current  *table.Table
	changes  []string
}

// Load reads a gradebook export (CSV or XLSX).
func Load(path string, opts Options) (*Gradebook, error) {
	t, raw, err := table.ReadFile(path, table.ReadOptions{
		IDColumn:    opts.SIDColumn,
		LeadingRows: opts.DummyRows,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load gradebook: %w", err)
	}
	return New(t, raw.Leading, opts), nil
}

// New wraps an already loaded roster table.
func New(t *table.Table, dummies [][]string, opts Options) *Gradebook {
	return &Gradebook{
		opts:     opts,
		dummies:  dummies,
		original: t.Clone(),
		current:  t,
	}
}

func (g *Gradebook) Options() Options {
	return g.opts
}

// Table exposes the current state.
func (g *Gradebook) Table() *table.Table {
	return g.current
}

// Original exposes the state the gradebook was loaded with.
func (g *Gradebook) Original() *table.Table {
	return g.original
}

// Changes is the append-only ledger of columns written this session.
func (g *Gradebook) Changes() []string {
	return append([]string(nil), g.changes...)
}

// ResolveColumn looks up a column by exact name or prefix.
func (g *Gradebook) ResolveColumn(query string, policy MatchPolicy) Resolution {
	return Resolve(g.current.Columns(), query, policy)
}

func (g *Gradebook) resolve(query string, policy MatchPolicy) (string, error) {
	res := g.ResolveColumn(query, policy)
	if !res.OK() {
		return "", res.Err()
	}
	if res.Kind == FirstOfMany {
		logger.Debug.Printf("Column %q matched %v, using %q", query, res.Candidates, res.Column)
	}
	g.changes = append(g.changes, res.Column)
	return res.Column, nil
}

// Merge left-joins scores into the resolved column. Students of the
// gradebook missing from scores get 0; students only in scores are ignored.
// The column is replaced in one step or left untouched on error.
func (g *Gradebook) Merge(column string, scores table.Series, policy MatchPolicy) (string, error) {
	resolved, err := g.resolve(column, policy)
	if err != nil {
		return "", err
	}

	if err := g.current.SetColumn(resolved, scores, 0); err != nil {
		return "", fmt.Errorf("failed to merge %q: %w", resolved, err)
	}

	var unmatched int
	for id := range scores {
		if !g.current.Has(id) {
			unmatched++
		}
	}
	if unmatched > 0 {
		logger.Debug.Printf("%d scored students are not in the gradebook for %q", unmatched, resolved)
	}

	return resolved, nil
}

// SetGrade writes one cell.
func (g *Gradebook) SetGrade(student, column string, score float64, policy MatchPolicy) error {
	if !g.current.Has(student) {
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownStudent, student)
	}
	resolved, err := g.resolve(column, policy)
	if err != nil {
		return err
	}
	return g.current.Set(student, resolved, table.FormatFloat(score))
}

// GetGrade reads one cell as it is stored.
func (g *Gradebook) GetGrade(student, column string, policy MatchPolicy) (string, error) {
	res := g.ResolveColumn(column, policy)
	if !res.OK() {
		return "", res.Err()
	}
	value, ok, err := g.current.Get(student, res.Column)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnknownStudent, student)
	}
	return value, nil
}

// ReportDiffs compares the loaded state with the current one over every
// column in the ledger.
func (g *Gradebook) ReportDiffs() *ChangeSet {
	return Diff(g.original, g.current, g.changes, []string{g.opts.StudentNameColumn})
}

// Export writes the gradebook with its dummy rows. An empty filename picks
// a timestamped one in the output directory.
func (g *Gradebook) Export(filename string) (string, error) {
	if filename == "" {
		filename = g.ExportFilename(time.Now())
	}
	if err := table.WriteCSVFile(filename, g.current, g.dummies); err != nil {
		return "", fmt.Errorf("failed to export gradebook: %w", err)
	}
	return filename, nil
}

func (g *Gradebook) ExportFilename(now time.Time) string {
	return filepath.Join(g.opts.OutDir, fmt.Sprintf("Canvas-Export-%s.csv", now.Format(exportDateFormat)))
}
