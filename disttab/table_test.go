// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disttab

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDist() *Table {
	return NewBuilder(nil).
		SetTableAttrs(Attrs{Title: "richness"}).
		Add(ID, []string{"s1", "s2", "s3", "s4", "s5"}, Attrs{Title: "sample"}).
		Add(Measure, []float64{1, 2, 3, 4, 5}, Attrs{Title: "observed features", Description: "count"}).
		Add(Group, []float64{10, 2, 10, 2, math.NaN()}, Attrs{Title: "week"}).
		Add(Subject, []string{"a", "a", "b", "b", "c"}, Attrs{Title: "mouse", Extra: map[string]any{"unit": "id"}}).
		Done()
}

func TestGroupBy(t *testing.T) {
	dist := testDist()
	groups := dist.GroupBy(Group)

	// NaN keys are dropped and groups sort numerically.
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"2"}, groups[0].Key)
	assert.Equal(t, []string{"10"}, groups[1].Key)
	assert.Equal(t, []any{2.0}, groups[0].Values)

	g := groups[0]
	assert.Equal(t, dist.Columns(), g.Columns())
	assert.Equal(t, []string{"s2", "s4"}, g.Strings(ID))
	assert.Equal(t, []float64{2, 2}, g.Column(Group))
	ms, err := g.Floats(Measure)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, ms)

	// Provenance survives the split.
	assert.Equal(t, "week", g.ColumnAttrs(Group).Title)
	assert.Equal(t, "id", g.ColumnAttrs(Subject).Extra["unit"])
	assert.Equal(t, "richness", g.Attrs.Title)
}

func TestGroupByMulti(t *testing.T) {
	tab := NewBuilder(nil).
		Add(Class, []string{"b", "a", "b", "a"}, Attrs{}).
		Add(Level, []string{"x", "y", "x", "x"}, Attrs{}).
		Add(Measure, []float64{1, 2, 3, 4}, Attrs{}).
		Done()
	var keys [][]string
	for _, g := range tab.GroupBy(Class, Level) {
		keys = append(keys, g.Key)
	}
	want := [][]string{{"a", "x"}, {"a", "y"}, {"b", "x"}}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
}

func TestTransforms(t *testing.T) {
	dist := testDist()

	sel := dist.Select([]int{4, 0})
	assert.Equal(t, 2, sel.Len())
	assert.Equal(t, []string{"s5", "s1"}, sel.Strings(ID))
	assert.Equal(t, "mouse", sel.ColumnAttrs(Subject).Title)

	dropped := dist.Drop(Subject, "nonexistent")
	assert.Equal(t, []string{ID, Measure, Group}, dropped.Columns())
	// The input is untouched.
	assert.True(t, dist.Has(Subject))

	renamed := dist.Rename(Group, Level)
	assert.Equal(t, []string{ID, Measure, Level, Subject}, renamed.Columns())
	assert.Equal(t, "week", renamed.ColumnAttrs(Level).Title)

	pre := dist.Prepend(Facet, []string{"f", "f", "f", "f", "f"}, Attrs{Title: "facet"})
	assert.Equal(t, Facet, pre.Columns()[0])
	assert.Equal(t, "richness", pre.Attrs.Title)

	with := dist.With(Measure, []float64{5, 4, 3, 2, 1}, Attrs{Title: "rev"})
	assert.Equal(t, dist.Columns(), with.Columns())
	assert.Equal(t, "rev", with.ColumnAttrs(Measure).Title)
	assert.Equal(t, "observed features", dist.ColumnAttrs(Measure).Title)
}

func TestAttrsIsolation(t *testing.T) {
	dist := testDist()
	a := dist.ColumnAttrs(Subject)
	a.Extra["unit"] = "changed"
	assert.Equal(t, "id", dist.ColumnAttrs(Subject).Extra["unit"])

	u := Attrs{Title: "x", Description: "d"}.Update(Attrs{Title: "y", Extra: map[string]any{"k": 1}})
	assert.Equal(t, Attrs{Title: "y", Description: "d", Extra: map[string]any{"k": 1}}, u)
	assert.Equal(t, "def", Attrs{}.TitleOr("def"))
}

func TestConcat(t *testing.T) {
	a := NewStats([]StatsRow{{AGroup: "1", BGroup: "2", P: 0.5}}).SetAttrs(AGroup, Attrs{Title: "first"})
	b := NewStats([]StatsRow{{AGroup: "3", BGroup: "4", P: 0.1}}).SetAttrs(AGroup, Attrs{Title: "last"})
	c, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, c.Strings(AGroup))
	assert.Equal(t, "last", c.ColumnAttrs(AGroup).Title)

	_, err = Concat(a, b.Drop(QValue))
	assert.Error(t, err)

	_, err = Concat(a, b.With(AN, []float64{1}, Attrs{}))
	assert.Error(t, err)

	empty, err := Concat()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestStatsRows(t *testing.T) {
	rows := []StatsRow{
		{AGroup: "0", AN: 3, AMeasure: 1.5, BGroup: "3", BN: 4, BMeasure: 2, N: 3, Statistic: 1, P: 0.25, Q: math.NaN()},
	}
	got, err := StatsRows(NewStats(rows))
	require.NoError(t, err)
	if diff := cmp.Diff(rows, got, cmpNaN); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}

	_, err = StatsRows(NewStats(rows).Drop(PValue))
	assert.True(t, IsValidation(err))
}

func TestStatsGroupTypes(t *testing.T) {
	rows := []StatsRow{
		{AGroup: "0", AValue: 0.0, BGroup: "3", BValue: 3.0, P: 0.5},
		{AGroup: "0", AValue: 0.0, BGroup: "10", BValue: 10.0, P: 0.1},
	}
	stats := NewStats(rows)
	assert.Equal(t, []float64{0, 0}, stats.Column(AGroup))
	assert.Equal(t, []float64{3, 10}, stats.Column(BGroup))
	got, err := StatsRows(stats)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got[1].BValue)
	assert.Equal(t, "10", got[1].BGroup)

	// Mixed or missing values fall back to labels.
	rows[1].BValue = 10
	rows[0].AValue = nil
	stats = NewStats(rows)
	assert.Equal(t, []string{"0", "0"}, stats.Column(AGroup))
	assert.Equal(t, []string{"3", "10"}, stats.Column(BGroup))
}

var cmpNaN = cmp.Comparer(func(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
})
