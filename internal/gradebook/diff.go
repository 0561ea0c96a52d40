package gradebook

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/shrimpsizemoose/semla/internal/table"
)

// RowChange is one student whose tracked columns changed.
type RowChange struct {
	Student  string
	Identity map[string]string
	Old      map[string]string
	New      map[string]string
	// Changed lists the tracked columns that differ for this student.
	Changed []string
}

// ChangeSet is the old/new projection of changed rows.
type ChangeSet struct {
	SIDColumn      string
	IdentityColumn []string
	Columns        []string
	Rows           []RowChange
	PerColumn      map[string]int
}

func (c *ChangeSet) Count() int {
	return len(c.Rows)
}

func (c *ChangeSet) Empty() bool {
	return len(c.Rows) == 0
}

// Diff joins original and current on student identifier and keeps rows
// where any tracked column differs numerically. Ledger duplicates collapse.
func Diff(original, current *table.Table, changed []string, identity []string) *ChangeSet {
	cs := &ChangeSet{
		SIDColumn:      current.IDColumn(),
		IdentityColumn: identity,
		Columns:        dedupe(changed),
		PerColumn:      make(map[string]int),
	}

	for _, id := range current.IDs() {
		if !original.Has(id) {
			continue
		}

		row := RowChange{
			Student:  id,
			Identity: make(map[string]string, len(identity)),
			Old:      make(map[string]string, len(cs.Columns)),
			New:      make(map[string]string, len(cs.Columns)),
		}
		for _, col := range cs.Columns {
			before := cell(original, id, col)
			after := cell(current, id, col)
			row.Old[col], row.New[col] = before, after
			if !sameValue(before, after) {
				row.Changed = append(row.Changed, col)
				cs.PerColumn[col]++
			}
		}
		if len(row.Changed) == 0 {
			continue
		}
		for _, col := range identity {
			row.Identity[col] = cell(original, id, col)
		}
		cs.Rows = append(cs.Rows, row)
	}

	return cs
}

func cell(t *table.Table, id, col string) string {
	if !t.HasColumn(col) {
		return ""
	}
	v, _, err := t.Get(id, col)
	if err != nil {
		return ""
	}
	return v
}

// sameValue compares cells as numbers so "3" and "3.0" are equal. Blank
// cells equal each other; text that does not parse compares as text.
func sameValue(a, b string) bool {
	av, aok, aerr := table.ParseFloat(a)
	bv, bok, berr := table.ParseFloat(b)
	switch {
	case aerr == nil && berr == nil && aok && bok:
		return av == bv || (math.IsNaN(av) && math.IsNaN(bv))
	case aerr == nil && berr == nil && !aok && !bok:
		return true
	case aerr != nil && berr != nil:
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	default:
		return false
	}
}

func dedupe(cols []string) []string {
	seen := make(map[string]bool, len(cols))
	var out []string
	for _, c := range cols {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Render prints a summary. Verbose adds a per-column listing before the
// combined table.
func (c *ChangeSet) Render(w io.Writer, verbose bool) error {
	if c.Empty() {
		_, err := fmt.Fprintln(w, "No differences found!")
		return err
	}

	if verbose {
		for _, col := range c.Columns {
			if c.PerColumn[col] == 0 {
				continue
			}
			fmt.Fprintf(w, "Changes for %s\n", col)
			if err := c.writeTable(w, []string{col}, func(r RowChange) bool {
				return contains(r.Changed, col)
			}); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(w, "Found %d differences\n", c.Count())
	if verbose {
		fmt.Fprintln(w, "All Changes")
		return c.writeTable(w, c.Columns, func(RowChange) bool { return true })
	}
	return nil
}

func (c *ChangeSet) writeTable(w io.Writer, cols []string, keep func(RowChange) bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, line := range c.project(cols, keep) {
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	return tw.Flush()
}

// Records returns the identity, old and new columns of every changed row,
// header first.
func (c *ChangeSet) Records() [][]string {
	return c.project(c.Columns, func(RowChange) bool { return true })
}

func (c *ChangeSet) project(cols []string, keep func(RowChange) bool) [][]string {
	header := append([]string(nil), c.IdentityColumn...)
	header = append(header, c.SIDColumn)
	for _, col := range cols {
		header = append(header, col+"_old")
	}
	for _, col := range cols {
		header = append(header, col+"_new")
	}

	out := [][]string{header}
	for _, r := range c.Rows {
		if !keep(r) {
			continue
		}
		line := make([]string, 0, len(header))
		for _, col := range c.IdentityColumn {
			line = append(line, r.Identity[col])
		}
		line = append(line, r.Student)
		for _, col := range cols {
			line = append(line, r.Old[col])
		}
		for _, col := range cols {
			line = append(line, r.New[col])
		}
		out = append(out, line)
	}
	return out
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
