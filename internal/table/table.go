// Package table is a small in-memory dataset keyed by a student identifier.
//
// Rows keep the exact column layout they were read with so a table can be
// written back in the same shape. Joins never align implicitly: callers pick
// a column and state the fill value for missing students.
package table

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	apperrors "github.com/shrimpsizemoose/semla/pkg/errors"
)

type Table struct {
	Name string

	header []string
	idCol  int
	cols   map[string][]int
	index  map[string]int
	rows   [][]string
	// unkeyed rows have a blank identifier; they are never joined and are
	// written back in place.
	unkeyed []unkeyedRow
}

type unkeyedRow struct {
	// after is the number of keyed rows that precede this one.
	after int
	cells []string
}

// New builds a table from a header and data records. The identifier column
// must exist exactly once and every non-blank identifier must be unique.
// Rows with a blank identifier are kept aside and only show up in Records.
func New(name string, header []string, records [][]string, idColumn string) (*Table, error) {
	return newTable(name, header, records, idColumn, 0)
}

// newTable is New with firstLine set to the file line of records[0]; zero
// numbers rows relative to the data instead.
func newTable(name string, header []string, records [][]string, idColumn string, firstLine int) (*Table, error) {
	t := &Table{
		Name:   name,
		header: append([]string(nil), header...),
		index:  make(map[string]int, len(records)),
	}
	t.reindexColumns()

	idCol, err := t.ColumnIndex(idColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: identifier column: %w", name, err)
	}
	t.idCol = idCol

	where := func(i int) string {
		if firstLine > 0 {
			return fmt.Sprintf("line %d", firstLine+i)
		}
		return fmt.Sprintf("data row %d", i+1)
	}

	seen := make(map[string]int)
	for i, rec := range records {
		if blank(rec) {
			continue
		}
		if len(rec) > len(t.header) && !blank(rec[len(t.header):]) {
			return nil, apperrors.DataIntegrityError{
				Table: name,
				Value: fmt.Sprintf("%s has %d cells, header has %d", where(i), len(rec), len(t.header)),
				Err:   apperrors.ErrRaggedRow,
			}
		}
		row := make([]string, len(t.header))
		copy(row, rec)
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			logger.Debug.Printf("%s: %s has no %s, keeping it as is", name, where(i), idColumn)
			t.unkeyed = append(t.unkeyed, unkeyedRow{after: len(t.rows), cells: row})
			continue
		}
		row[idCol] = id
		seen[id]++
		t.index[id] = len(t.rows)
		t.rows = append(t.rows, row)
	}

	if dups := duplicates(seen); len(dups) > 0 {
		return nil, apperrors.DataIntegrityError{
			Table:    name,
			Column:   idColumn,
			Students: dups,
			Err:      apperrors.ErrDuplicateStudent,
		}
	}

	return t, nil
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func duplicates(seen map[string]int) []string {
	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}

func (t *Table) reindexColumns() {
	t.cols = make(map[string][]int, len(t.header))
	for i, name := range t.header {
		t.cols[name] = append(t.cols[name], i)
	}
}

// Header returns the column names in file order, identifier included.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

func (t *Table) IDColumn() string {
	return t.header[t.idCol]
}

// Columns returns every column name except the identifier, in file order.
func (t *Table) Columns() []string {
	out := make([]string, 0, len(t.header)-1)
	for i, name := range t.header {
		if i != t.idCol {
			out = append(out, name)
		}
	}
	return out
}

// IDs returns the student identifiers in row order.
func (t *Table) IDs() []string {
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[t.idCol]
	}
	return out
}

// Len counts keyed rows only.
func (t *Table) Len() int {
	return len(t.rows)
}

// Unkeyed returns the rows that have no identifier, in file order.
func (t *Table) Unkeyed() [][]string {
	out := make([][]string, len(t.unkeyed))
	for i, u := range t.unkeyed {
		out[i] = append([]string(nil), u.cells...)
	}
	return out
}

func (t *Table) Has(id string) bool {
	_, ok := t.index[id]
	return ok
}

func (t *Table) HasColumn(name string) bool {
	return len(t.cols[name]) > 0
}

// ColumnIndex resolves a column name that must appear exactly once.
func (t *Table) ColumnIndex(name string) (int, error) {
	idx := t.cols[name]
	switch len(idx) {
	case 0:
		return -1, apperrors.ConfigurationError{Columns: []string{name}, Err: apperrors.ErrColumnNotFound}
	case 1:
		return idx[0], nil
	default:
		return -1, apperrors.ConfigurationError{Columns: []string{name}, Err: apperrors.ErrAmbiguousColumn}
	}
}

// Get returns the raw cell for a student and column. A missing student
// reports ok=false.
func (t *Table) Get(id, column string) (string, bool, error) {
	col, err := t.ColumnIndex(column)
	if err != nil {
		return "", false, err
	}
	pos, ok := t.index[id]
	if !ok {
		return "", false, nil
	}
	return t.rows[pos][col], true, nil
}

// Set overwrites a single cell of an existing student row.
func (t *Table) Set(id, column, value string) error {
	col, err := t.ColumnIndex(column)
	if err != nil {
		return err
	}
	if col == t.idCol {
		return fmt.Errorf("%s: refusing to overwrite identifier column %q", t.Name, column)
	}
	pos, ok := t.index[id]
	if !ok {
		return fmt.Errorf("%s: %w: %s", t.Name, apperrors.ErrUnknownStudent, id)
	}
	t.rows[pos][col] = value
	return nil
}

// AddColumn appends an empty column. Adding an existing column is a no-op.
func (t *Table) AddColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.header = append(t.header, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
	for i := range t.unkeyed {
		t.unkeyed[i].cells = append(t.unkeyed[i].cells, "")
	}
	t.reindexColumns()
}

// AddRow appends a student row with empty cells.
func (t *Table) AddRow(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.DataIntegrityError{Table: t.Name, Err: apperrors.ErrMissingStudentID}
	}
	if t.Has(id) {
		return apperrors.DataIntegrityError{
			Table:    t.Name,
			Students: []string{id},
			Err:      apperrors.ErrDuplicateStudent,
		}
	}
	row := make([]string, len(t.header))
	row[t.idCol] = id
	t.index[id] = len(t.rows)
	t.rows = append(t.rows, row)
	return nil
}

// SetColumn replaces a whole column at once from a series. Students absent
// from the series get fill. The column must already exist.
func (t *Table) SetColumn(column string, values Series, fill float64) error {
	col, err := t.ColumnIndex(column)
	if err != nil {
		return err
	}
	if col == t.idCol {
		return fmt.Errorf("%s: refusing to overwrite identifier column %q", t.Name, column)
	}

	next := make([]string, len(t.rows))
	for i, row := range t.rows {
		next[i] = FormatFloat(values.ValueOr(row[t.idCol], fill))
	}
	for i := range t.rows {
		t.rows[i][col] = next[i]
	}
	return nil
}

// Column returns the raw cells of a column keyed by student.
func (t *Table) Column(column string) (map[string]string, error) {
	col, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(t.rows))
	for _, row := range t.rows {
		out[row[t.idCol]] = row[col]
	}
	return out, nil
}

// FloatColumn parses a numeric column. Empty cells are left out of the
// series; anything else that does not parse is a data integrity error.
func (t *Table) FloatColumn(column string) (Series, error) {
	cells, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	out := make(Series, len(cells))
	for id, raw := range cells {
		v, ok, err := ParseFloat(raw)
		if err != nil {
			return nil, apperrors.DataIntegrityError{
				Table:    t.Name,
				Column:   column,
				Value:    raw,
				Students: []string{id},
				Err:      apperrors.ErrBadScore,
			}
		}
		if ok {
			out[id] = v
		}
	}
	return out, nil
}

// MapIDs rewrites every identifier. Collisions after rewriting are rejected.
func (t *Table) MapIDs(fn func(string) string) error {
	seen := make(map[string]int, len(t.rows))
	index := make(map[string]int, len(t.rows))
	next := make([]string, len(t.rows))
	for i, row := range t.rows {
		id := fn(row[t.idCol])
		next[i] = id
		seen[id]++
		index[id] = i
	}
	if dups := duplicates(seen); len(dups) > 0 {
		return apperrors.DataIntegrityError{
			Table:    t.Name,
			Column:   t.IDColumn(),
			Students: dups,
			Err:      apperrors.ErrDuplicateStudent,
		}
	}
	for i := range t.rows {
		t.rows[i][t.idCol] = next[i]
	}
	t.index = index
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:   t.Name,
		header: append([]string(nil), t.header...),
		idCol:  t.idCol,
		index:  make(map[string]int, len(t.index)),
		rows:   make([][]string, len(t.rows)),
	}
	for id, pos := range t.index {
		c.index[id] = pos
	}
	for i, row := range t.rows {
		c.rows[i] = append([]string(nil), row...)
	}
	for _, u := range t.unkeyed {
		c.unkeyed = append(c.unkeyed, unkeyedRow{after: u.after, cells: append([]string(nil), u.cells...)})
	}
	c.reindexColumns()
	return c
}

// Records returns header plus rows in their original order, unkeyed rows
// included, ready for a csv.Writer.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+len(t.unkeyed)+1)
	out = append(out, t.Header())
	next := 0
	flush := func(upTo int) {
		for next < len(t.unkeyed) && t.unkeyed[next].after <= upTo {
			out = append(out, append([]string(nil), t.unkeyed[next].cells...))
			next++
		}
	}
	for i, row := range t.rows {
		flush(i)
		out = append(out, append([]string(nil), row...))
	}
	flush(len(t.rows))
	return out
}

// ParseFloat parses a numeric cell. Blank cells report ok=false; NaN and
// infinities are rejected.
func ParseFloat(raw string) (float64, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("non-finite number %q", s)
	}
	return v, true, nil
}

func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
