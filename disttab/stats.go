// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disttab

import (
	"fmt"
	"reflect"
)

// Column names of a stats table.
const (
	AGroup    = "A:group"
	AN        = "A:n"
	AMeasure  = "A:measure"
	BGroup    = "B:group"
	BN        = "B:n"
	BMeasure  = "B:measure"
	N         = "n"
	Statistic = "test-statistic"
	PValue    = "p-value"
	QValue    = "q-value"
	Facet     = "facet"
)

// StatsColumns are the columns of a stats table, in order. Collated
// tables additionally start with a Facet column.
var StatsColumns = []string{AGroup, AN, AMeasure, BGroup, BN, BMeasure, N, Statistic, PValue, QValue}

// A StatsRow is one tested pair.
//
// AGroup and BGroup are group labels. AValue and BValue optionally
// hold the raw group values; when every row carries values of one
// type, the group columns keep that type instead of holding labels.
type StatsRow struct {
	AGroup   string
	AValue   any
	AN       int
	AMeasure float64
	BGroup   string
	BValue   any
	BN       int
	BMeasure float64

	// N is the number of observations used by the test.
	N int

	Statistic float64
	P         float64
	Q         float64
}

// NewStats returns a stats table holding rows, in order, with no
// column provenance.
func NewStats(rows []StatsRow) *Table {
	var (
		ag, bg     = make([]string, len(rows)), make([]string, len(rows))
		av, bv     = make([]any, len(rows)), make([]any, len(rows))
		an, bn, n  = make([]int, len(rows)), make([]int, len(rows)), make([]int, len(rows))
		am, bm     = make([]float64, len(rows)), make([]float64, len(rows))
		stat, p, q = make([]float64, len(rows)), make([]float64, len(rows)), make([]float64, len(rows))
	)
	for i, r := range rows {
		ag[i], av[i], an[i], am[i] = r.AGroup, r.AValue, r.AN, r.AMeasure
		bg[i], bv[i], bn[i], bm[i] = r.BGroup, r.BValue, r.BN, r.BMeasure
		n[i], stat[i], p[i], q[i] = r.N, r.Statistic, r.P, r.Q
	}
	return NewBuilder(nil).
		Add(AGroup, groupColumn(ag, av), Attrs{}).
		Add(AN, an, Attrs{}).
		Add(AMeasure, am, Attrs{}).
		Add(BGroup, groupColumn(bg, bv), Attrs{}).
		Add(BN, bn, Attrs{}).
		Add(BMeasure, bm, Attrs{}).
		Add(N, n, Attrs{}).
		Add(Statistic, stat, Attrs{}).
		Add(PValue, p, Attrs{}).
		Add(QValue, q, Attrs{}).
		Done()
}

// groupColumn returns values as a typed slice if they all share one
// type, and labels otherwise.
func groupColumn(labels []string, values []any) any {
	if len(values) == 0 {
		return labels
	}
	typ := reflect.TypeOf(values[0])
	if typ == nil {
		return labels
	}
	for _, v := range values[1:] {
		if reflect.TypeOf(v) != typ {
			return labels
		}
	}
	col := reflect.MakeSlice(reflect.SliceOf(typ), len(values), len(values))
	for i, v := range values {
		col.Index(i).Set(reflect.ValueOf(v))
	}
	return col.Interface()
}

// rawValues returns the values of a non-string column, or nil.
func rawValues(t *Table, col string) []any {
	c := t.Column(col)
	if _, ok := c.([]string); ok || c == nil {
		return nil
	}
	rv := reflect.ValueOf(c)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// StatsRows extracts the rows of stats table t.
func StatsRows(t *Table) ([]StatsRow, error) {
	if err := RequireColumns(t, StatsColumns...); err != nil {
		return nil, err
	}
	floats := make(map[string][]float64)
	for _, col := range []string{AN, AMeasure, BN, BMeasure, N, Statistic, PValue, QValue} {
		xs, err := t.Floats(col)
		if err != nil {
			return nil, fmt.Errorf("reading stats: %w", err)
		}
		floats[col] = xs
	}
	ag, bg := t.Strings(AGroup), t.Strings(BGroup)
	av, bv := rawValues(t, AGroup), rawValues(t, BGroup)
	rows := make([]StatsRow, t.Len())
	for i := range rows {
		rows[i] = StatsRow{
			AGroup:    ag[i],
			AN:        int(floats[AN][i]),
			AMeasure:  floats[AMeasure][i],
			BGroup:    bg[i],
			BN:        int(floats[BN][i]),
			BMeasure:  floats[BMeasure][i],
			N:         int(floats[N][i]),
			Statistic: floats[Statistic][i],
			P:         floats[PValue][i],
			Q:         floats[QValue][i],
		}
		if av != nil {
			rows[i].AValue = av[i]
		}
		if bv != nil {
			rows[i].BValue = bv[i]
		}
	}
	return rows, nil
}
