// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pairwise

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairstat/pairstat/distmath"
	"github.com/pairstat/pairstat/disttab"
	"github.com/pairstat/pairstat/internal/fixtures"
)

var (
	timeGroups = []string{"0", "3", "10", "18", "100"}
	subjects   = []string{"s1", "s2", "s3", "s4", "s5", "s6"}
	timeValues = [][]float64{
		{1.0, 2.0, 3.0, 4.0, 5.0, 6.0},
		{1.5, 2.9, 3.2, 4.8, 5.1, 7.3},
		{2.2, 2.1, 3.9, 3.7, 6.4, 6.9},
		{0.4, 2.5, 2.6, 5.5, 4.6, 8.0},
		{3.1, 4.4, 4.0, 6.2, 7.7, 9.9},
	}
)

func timeDist() *disttab.Table {
	// Scramble the group order to check sorting.
	order := []int{3, 0, 4, 1, 2}
	var gs []string
	var vs [][]float64
	for _, i := range order {
		gs = append(gs, timeGroups[i])
		vs = append(vs, timeValues[i])
	}
	d := fixtures.Matched(gs, subjects, vs)
	d = d.SetAttrs(disttab.Group, disttab.Attrs{Title: "week", Description: "weeks since start"})
	return d.SetAttrs(disttab.Measure, disttab.Attrs{Title: "Faith PD"})
}

func column(t *testing.T, tab *disttab.Table, col string) []float64 {
	t.Helper()
	xs, err := tab.Floats(col)
	require.NoError(t, err)
	return xs
}

func TestWilcoxonBaseline(t *testing.T) {
	res, err := WilcoxonSRT(timeDist(), WilcoxonOptions{
		Compare:       Baseline,
		BaselineGroup: "0.0",
		Approx:        distmath.Asymptotic,
	})
	require.NoError(t, err)
	stats := res.Stats

	assert.Equal(t, disttab.StatsColumns, stats.Columns())
	require.Equal(t, 4, stats.Len())
	assert.Equal(t, []string{"0", "0", "0", "0"}, stats.Strings(disttab.AGroup))
	assert.Equal(t, []string{"3", "10", "18", "100"}, stats.Strings(disttab.BGroup))
	assert.Equal(t, []float64{6, 6, 6, 6}, column(t, stats, disttab.N))
	assert.Equal(t, []float64{0, 2, 7, 0}, column(t, stats, disttab.Statistic))
	assert.InDeltaSlice(t, []float64{0.027707849358079864, 0.07473549830588253, 0.4630710150145881, 0.027707849358079864},
		column(t, stats, disttab.PValue), 1e-12)
	assert.InDeltaSlice(t, []float64{3.5, 3.5, 3.5, 3.5}, column(t, stats, disttab.AMeasure), 1e-12)

	ps := column(t, stats, disttab.PValue)
	qs := column(t, stats, disttab.QValue)
	for i := range ps {
		assert.GreaterOrEqual(t, qs[i], ps[i])
	}

	// Provenance.
	assert.Equal(t, "week", stats.ColumnAttrs(disttab.AGroup).Title)
	assert.Equal(t, "weeks since start", stats.ColumnAttrs(disttab.BGroup).Description)
	assert.Equal(t, "median of Faith PD", stats.ColumnAttrs(disttab.AMeasure).Title)
	assert.Equal(t, "The median measure of group B.", stats.ColumnAttrs(disttab.BMeasure).Description)
	assert.Equal(t, "count", stats.ColumnAttrs(disttab.N).Title)
	assert.Equal(t, "W", stats.ColumnAttrs(disttab.Statistic).Title)
	assert.Equal(t, "Wilcoxon signed-rank test", stats.ColumnAttrs(disttab.PValue).Title)
	assert.Equal(t, "Benjamini-Hochberg", stats.ColumnAttrs(disttab.QValue).Title)
}

func TestGroupColumnType(t *testing.T) {
	dist := timeDist()
	labels := dist.Strings(disttab.Group)
	weeks := make([]float64, len(labels))
	for i, l := range labels {
		weeks[i], _ = strconv.ParseFloat(l, 64)
	}
	dist = dist.With(disttab.Group, weeks, dist.ColumnAttrs(disttab.Group))

	res, err := WilcoxonSRT(dist, WilcoxonOptions{Compare: Baseline, BaselineGroup: "0.0", Approx: distmath.Asymptotic})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, res.Stats.Column(disttab.AGroup))
	assert.Equal(t, []float64{3, 10, 18, 100}, res.Stats.Column(disttab.BGroup))
	assert.Equal(t, "week", res.Stats.ColumnAttrs(disttab.AGroup).Title)

	res, err = MannWhitneyU(dist, MannWhitneyOptions{Compare: AllPairwise})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 3, 3, 3, 10, 10, 18}, res.Stats.Column(disttab.AGroup))

	// String groups stay strings.
	res, err = WilcoxonSRT(timeDist(), WilcoxonOptions{Compare: Consecutive})
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "3", "10", "18"}, res.Stats.Column(disttab.AGroup))
}

func TestWilcoxonConsecutive(t *testing.T) {
	opts := WilcoxonOptions{Compare: Consecutive, Approx: distmath.Asymptotic}
	res, err := WilcoxonSRT(timeDist(), opts)
	require.NoError(t, err)
	cons := res.Stats
	assert.Equal(t, []string{"0", "3", "10", "18"}, cons.Strings(disttab.AGroup))
	assert.Equal(t, []string{"3", "10", "18", "100"}, cons.Strings(disttab.BGroup))
	assert.InDelta(t, 0.916511907863894, column(t, cons, disttab.PValue)[1], 1e-12)

	// The first consecutive pair matches the first baseline pair.
	res, err = WilcoxonSRT(timeDist(), WilcoxonOptions{Compare: Baseline, BaselineGroup: "0", Approx: distmath.Asymptotic})
	require.NoError(t, err)
	base := res.Stats
	for _, col := range []string{disttab.AGroup, disttab.BGroup, disttab.N, disttab.Statistic, disttab.PValue} {
		assert.Equal(t, base.Strings(col)[0], cons.Strings(col)[0], col)
	}
}

func TestWilcoxonOneSided(t *testing.T) {
	run := func(alt distmath.Alternative) []float64 {
		res, err := WilcoxonSRT(timeDist(), WilcoxonOptions{
			Compare:     Consecutive,
			Alternative: alt,
			Approx:      distmath.Asymptotic,
		})
		require.NoError(t, err)
		return column(t, res.Stats, disttab.PValue)
	}
	greater, less := run(distmath.Greater), run(distmath.Less)
	for i := range greater {
		assert.InDelta(t, 1, greater[i]+less[i], 1e-9)
	}
}

func TestWilcoxonSubjectFiltering(t *testing.T) {
	// s3 is missing from group 2, so only two subjects are paired.
	dist := fixtures.Dist(
		fixtures.Obs{Measure: 1, Group: "1", Subject: "s1"},
		fixtures.Obs{Measure: 2, Group: "1", Subject: "s2"},
		fixtures.Obs{Measure: 3, Group: "1", Subject: "s3"},
		fixtures.Obs{Measure: 4, Group: "2", Subject: "s1"},
		fixtures.Obs{Measure: 6, Group: "2", Subject: "s2"},
		fixtures.Obs{Measure: 7, Group: "2", Subject: "s4"},
	)
	res, err := WilcoxonSRT(dist, WilcoxonOptions{Compare: Consecutive})
	require.NoError(t, err)
	rows, err := disttab.StatsRows(res.Stats)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, 3, r.AN)
	assert.Equal(t, 3, r.BN)
	assert.Equal(t, 2, r.N)
	assert.Equal(t, 2.0, r.AMeasure)
	assert.Equal(t, 6.0, r.BMeasure)
	assert.Equal(t, 0.0, r.Statistic)
	assert.Equal(t, 0.5, r.P)
	// Too few pairs for the normal approximation, but auto uses
	// the exact test, so nothing to warn about.
	assert.Empty(t, res.Warnings)
}

func TestWilcoxonEmptyComparator(t *testing.T) {
	dist := fixtures.Dist(
		fixtures.Obs{Measure: 0.9002, Group: "1", Subject: "subject1"},
		fixtures.Obs{Measure: 0.8221, Group: "1", Subject: "subject2"},
		fixtures.Obs{Measure: 0.4321, Group: "1", Subject: "subject3"},
		fixtures.Obs{Measure: 0.0981, Group: "2", Subject: "subject4"},
		fixtures.Obs{Measure: 0.0100, Group: "2", Subject: "subject5"},
		fixtures.Obs{Measure: 0.5200, Group: "2", Subject: "subject6"},
	)
	_, err := WilcoxonSRT(dist, WilcoxonOptions{Compare: Consecutive})
	require.Error(t, err)
	assert.True(t, disttab.IsValidation(err))
	msg := err.Error()
	assert.Contains(t, msg, "no subject overlap between Group 1 and Group 2")
	assert.Contains(t, msg, "['subject1', 'subject2', 'subject3']")
	assert.Contains(t, msg, "['subject4', 'subject5', 'subject6']")
	assert.Less(t, strings.Index(msg, "subject3"), strings.Index(msg, "subject4"))

	dist = dist.Select([]int{0, 1, 3, 4})
	res, err := WilcoxonSRT(dist, WilcoxonOptions{Compare: Consecutive, IgnoreEmptyComparator: true})
	require.NoError(t, err)
	rows, err := disttab.StatsRows(res.Stats)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "1", r.AGroup)
	assert.Equal(t, "2", r.BGroup)
	assert.Equal(t, 2, r.AN)
	assert.Equal(t, 2, r.BN)
	assert.InDelta(t, 0.86115, r.AMeasure, 1e-12)
	assert.InDelta(t, 0.05405, r.BMeasure, 1e-12)
	assert.Equal(t, 0, r.N)
	assert.True(t, math.IsNaN(r.Statistic))
	assert.True(t, math.IsNaN(r.P))
	assert.True(t, math.IsNaN(r.Q))
}

func TestWilcoxonErrors(t *testing.T) {
	check := func(dist *disttab.Table, opts WilcoxonOptions, want string) {
		t.Helper()
		_, err := WilcoxonSRT(dist, opts)
		if err == nil {
			t.Fatalf("want error %q, got nil", want)
		}
		if !disttab.IsValidation(err) {
			t.Errorf("want validation error, got %T", err)
		}
		if !strings.Contains(err.Error(), want) {
			t.Errorf("want error containing %q, got %q", want, err)
		}
	}
	dist := timeDist()
	check(dist, WilcoxonOptions{Compare: SignedRankCompare(0)},
		"Invalid comparison: \"SignedRankCompare(0)\". Please either choose `baseline` or `consecutive` as your comparison.")
	check(dist, WilcoxonOptions{Compare: Consecutive, BaselineGroup: "0"},
		"`consecutive` was selected as the comparison, but a `baseline_group` was added.")
	check(dist, WilcoxonOptions{Compare: Baseline},
		"no `baseline_group` was provided")
	check(dist, WilcoxonOptions{Compare: Baseline, BaselineGroup: "foo"},
		"'foo' was not found as a group within the distribution.")
	check(dist, WilcoxonOptions{Compare: Consecutive, Alternative: distmath.Alternative(7)},
		"Invalid `alternative` hypothesis selected: \"Alternative(7)\".")
	check(dist.Drop(disttab.Subject), WilcoxonOptions{Compare: Consecutive},
		`"subject" not found in distribution.`)
	dupes := fixtures.Dist(
		fixtures.Obs{Measure: 1, Group: "a", Subject: "s1"},
		fixtures.Obs{Measure: 2, Group: "a", Subject: "s1"},
		fixtures.Obs{Measure: 3, Group: "b", Subject: "s1"},
	)
	check(dupes, WilcoxonOptions{Compare: Consecutive},
		"Group(s) where duplicated subject was found: [a] Duplicated subjects: ['s1']")
}

func TestParseCompare(t *testing.T) {
	c, err := ParseSignedRankCompare("consecutive")
	require.NoError(t, err)
	assert.Equal(t, Consecutive, c)
	_, err = ParseSignedRankCompare("pairwise")
	assert.True(t, disttab.IsValidation(err))
	assert.ErrorContains(t, err, `Invalid comparison: "pairwise".`)

	r, err := ParseRankSumCompare("all-pairwise")
	require.NoError(t, err)
	assert.Equal(t, AllPairwise, r)
	assert.Equal(t, "reference", Reference.String())
	_, err = ParseRankSumCompare("baseline")
	assert.ErrorContains(t, err, "`reference` or `all-pairwise`")
	assert.ErrorContains(t, err, `"baseline"`)
	assert.Equal(t, "RankSumCompare(9)", RankSumCompare(9).String())
}
