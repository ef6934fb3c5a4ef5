// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disttab implements the tabular data model shared by the
// pairwise tests, faceting, and collation: distribution tables, whose
// rows are observations, and stats tables, whose rows are tested
// pairs.
//
// A Table stores its columns in a go-gg table and carries provenance
// (a title, a description, and arbitrary extra keys) for the table
// as a whole and for every column. Provenance is propagated
// explicitly by every transform in this package. Tables are never
// modified in place: every transform returns a new Table that may
// share column storage with its input.
package disttab

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// Column names of a distribution table.
const (
	ID      = "id"
	Measure = "measure"
	Group   = "group"
	Subject = "subject"
	Class   = "class"
	Level   = "level"
)

// A Table is a set of equal-length named columns plus provenance.
type Table struct {
	// Attrs is the table-level provenance.
	Attrs Attrs

	t     *table.Table
	attrs map[string]Attrs
}

// A Builder constructs a Table column by column.
type Builder struct {
	b     *table.Builder
	attrs map[string]Attrs
	tab   Attrs
}

// NewBuilder returns a Builder populated with the columns and
// provenance of t, or an empty Builder if t is nil.
func NewBuilder(t *Table) *Builder {
	b := &Builder{attrs: make(map[string]Attrs)}
	if t == nil {
		b.b = table.NewBuilder(nil)
		return b
	}
	b.b = table.NewBuilder(t.t)
	b.tab = t.Attrs.Clone()
	for k, a := range t.attrs {
		b.attrs[k] = a.Clone()
	}
	return b
}

// Add adds column name to b with the given provenance, replacing any
// existing column of that name. data must be a slice with the same
// length as the other columns of b, or Add panics.
func (b *Builder) Add(name string, data any, attrs Attrs) *Builder {
	if data == nil {
		panic(fmt.Sprintf("disttab: nil data for column %q", name))
	}
	b.b.Add(name, data)
	b.attrs[name] = attrs.Clone()
	return b
}

// Remove removes column name from b, if present.
func (b *Builder) Remove(name string) *Builder {
	b.b.Add(name, nil)
	delete(b.attrs, name)
	return b
}

// Has reports whether b has a column named name.
func (b *Builder) Has(name string) bool {
	return b.b.Has(name)
}

// SetAttrs replaces the provenance of column name.
func (b *Builder) SetAttrs(name string, attrs Attrs) *Builder {
	b.attrs[name] = attrs.Clone()
	return b
}

// SetTableAttrs replaces the table-level provenance.
func (b *Builder) SetTableAttrs(attrs Attrs) *Builder {
	b.tab = attrs.Clone()
	return b
}

// Done returns the constructed Table and resets b.
func (b *Builder) Done() *Table {
	t := &Table{Attrs: b.tab, t: b.b.Done(), attrs: b.attrs}
	b.attrs = make(map[string]Attrs)
	b.tab = Attrs{}
	return t
}

// Len returns the number of rows in t.
func (t *Table) Len() int {
	return t.t.Len()
}

// Columns returns the names of the columns of t in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.t.Columns()...)
}

// Has reports whether t has a column named name.
func (t *Table) Has(name string) bool {
	return t.t.Column(name) != nil
}

// Column returns the data of column name, or nil if there is no such
// column. The result must not be modified.
func (t *Table) Column(name string) any {
	c := t.t.Column(name)
	if c == nil {
		return nil
	}
	return c
}

// ColumnAttrs returns a copy of the provenance of column name.
func (t *Table) ColumnAttrs(name string) Attrs {
	return t.attrs[name].Clone()
}

// Strings returns column name formatted as labels. It returns nil if
// there is no such column.
func (t *Table) Strings(name string) []string {
	c := t.t.Column(name)
	if c == nil {
		return nil
	}
	if ss, ok := c.([]string); ok {
		return ss
	}
	rv := reflect.ValueOf(c)
	out := make([]string, rv.Len())
	for i := range out {
		out[i] = FormatLabel(rv.Index(i).Interface())
	}
	return out
}

// Floats returns column name as float64 values. Integer columns are
// converted. Any other column type is a validation error.
func (t *Table) Floats(name string) ([]float64, error) {
	switch c := t.t.Column(name).(type) {
	case nil:
		return nil, Errorf("%q not found in distribution.", name)
	case []float64:
		return c, nil
	case []int:
		out := make([]float64, len(c))
		for i, v := range c {
			out[i] = float64(v)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(c))
		for i, v := range c {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, Errorf("column %q is not numeric (%T)", name, c)
	}
}

// SetAttrs returns a copy of t with the provenance of column name
// replaced by attrs.
func (t *Table) SetAttrs(name string, attrs Attrs) *Table {
	return NewBuilder(t).SetAttrs(name, attrs).Done()
}

// WithTableAttrs returns a copy of t with table-level provenance attrs.
func (t *Table) WithTableAttrs(attrs Attrs) *Table {
	return NewBuilder(t).SetTableAttrs(attrs).Done()
}

// With returns a copy of t with column name set to data. An existing
// column keeps its position.
func (t *Table) With(name string, data any, attrs Attrs) *Table {
	return NewBuilder(t).Add(name, data, attrs).Done()
}

// Prepend returns a copy of t with column name inserted before all
// other columns.
func (t *Table) Prepend(name string, data any, attrs Attrs) *Table {
	b := NewBuilder(nil).SetTableAttrs(t.Attrs)
	b.Add(name, data, attrs)
	for _, col := range t.t.Columns() {
		if col == name {
			continue
		}
		b.Add(col, t.t.Column(col), t.attrs[col])
	}
	return b.Done()
}

// Drop returns a copy of t without the named columns.
func (t *Table) Drop(names ...string) *Table {
	b := NewBuilder(t)
	for _, name := range names {
		b.Remove(name)
	}
	return b.Done()
}

// Rename returns a copy of t with column from renamed to to, keeping
// its position and provenance. If to already exists, it is replaced.
func (t *Table) Rename(from, to string) *Table {
	if from == to || !t.Has(from) {
		return t
	}
	b := NewBuilder(nil).SetTableAttrs(t.Attrs)
	for _, col := range t.t.Columns() {
		switch col {
		case to:
			continue
		case from:
			b.Add(to, t.t.Column(col), t.attrs[col])
		default:
			b.Add(col, t.t.Column(col), t.attrs[col])
		}
	}
	return b.Done()
}

// Select returns a new Table containing rows idx of t, in that order.
func (t *Table) Select(idx []int) *Table {
	b := NewBuilder(nil).SetTableAttrs(t.Attrs)
	for _, col := range t.t.Columns() {
		b.Add(col, slice.Select(t.t.Column(col), idx), t.attrs[col])
	}
	return b.Done()
}

// A Grouping is the subset of a Table's rows sharing the same values
// in the grouping columns.
type Grouping struct {
	// Key is the formatted label of each grouping column.
	Key []string

	// Values is the raw value of each grouping column.
	Values []any

	*Table
}

// GroupBy partitions t by the values of cols. Groups are returned in
// ascending key order as defined by CompareKeys. Rows whose key
// contains a NaN are dropped. Each group keeps every column of t,
// including the grouping columns, and inherits all provenance.
//
// GroupBy panics if t has no column other than cols.
func (t *Table) GroupBy(cols ...string) []Grouping {
	if len(cols) == 0 {
		return []Grouping{{Table: t}}
	}
	if len(t.t.Columns()) <= len(cols) {
		panic("disttab: GroupBy needs at least one non-key column")
	}
	g := table.GroupBy(t.t, cols...)
	var groups []Grouping
	for _, gid := range g.Tables() {
		sub := g.Table(gid)
		values := make([]any, len(cols))
		for i := len(cols) - 1; i >= 0; i-- {
			values[i] = gid.Label()
			gid = gid.Parent()
		}
		if hasNaN(values) {
			continue
		}
		key := make([]string, len(values))
		for i, v := range values {
			key[i] = FormatLabel(v)
		}

		// GroupBy turns the key columns into constants.
		// Materialize them so every column is a plain slice.
		b := NewBuilder(nil).SetTableAttrs(t.Attrs)
		for _, col := range sub.Columns() {
			b.Add(col, sub.Column(col), t.attrs[col])
		}
		groups = append(groups, Grouping{Key: key, Values: values, Table: b.Done()})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return CompareKeys(groups[i].Key, groups[j].Key) < 0
	})
	return groups
}

func hasNaN(vs []any) bool {
	for _, v := range vs {
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			return true
		}
	}
	return false
}

// Concat concatenates the rows of tabs. All tables must have the same
// set of columns with the same types; the column order of tabs[0] is
// used. Each column takes the provenance of the last table, and the
// table-level provenance is that of the first.
func Concat(tabs ...*Table) (*Table, error) {
	if len(tabs) == 0 {
		return NewBuilder(nil).Done(), nil
	}
	first := tabs[0]
	cols := first.t.Columns()
	for i, t := range tabs[1:] {
		if !sameColumns(cols, t.t.Columns()) {
			return nil, fmt.Errorf("columns of tables 0 and %d differ: %q vs %q", i+1, cols, t.t.Columns())
		}
	}

	last := tabs[len(tabs)-1]
	b := NewBuilder(nil).SetTableAttrs(first.Attrs)
	seqs := make([]slice.T, len(tabs))
	for _, col := range cols {
		typ := reflect.TypeOf(first.t.Column(col))
		for i, t := range tabs {
			seqs[i] = t.t.Column(col)
			if reflect.TypeOf(seqs[i]) != typ {
				return nil, fmt.Errorf("column %q has type %s in table 0 but %T in table %d", col, typ, seqs[i], i)
			}
		}
		b.Add(col, slice.Concat(seqs...), last.attrs[col])
	}
	return b.Done(), nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, c := range a {
		set[c] = true
	}
	for _, c := range b {
		if !set[c] {
			return false
		}
	}
	return true
}

// Fprint writes the raw contents of t to w, one row per line.
func (t *Table) Fprint(w io.Writer) error {
	if t.Attrs.Title != "" {
		if _, err := fmt.Fprintf(w, "# %s\n", t.Attrs.Title); err != nil {
			return err
		}
	}
	return table.Fprint(w, t.t)
}

// String returns a short description of t for diagnostics.
func (t *Table) String() string {
	return fmt.Sprintf("Table[%d rows: %s]", t.Len(), strings.Join(t.t.Columns(), ", "))
}
