// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pairwise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairstat/pairstat/distmath"
	"github.com/pairstat/pairstat/disttab"
	"github.com/pairstat/pairstat/internal/fixtures"
)

func refDist() *disttab.Table {
	var obs []fixtures.Obs
	for _, v := range []float64{7.5, 6.9, 8.1, 9.0, 7.2} {
		obs = append(obs, fixtures.Obs{Measure: v, Group: "reference"})
	}
	for _, v := range []float64{4.1, 5.2, 3.3, 6.0} {
		obs = append(obs, fixtures.Obs{Measure: v, Group: "control"})
	}
	d := fixtures.Dist(obs...)
	return d.SetAttrs(disttab.Group, disttab.Attrs{Title: "cohort"})
}

func TestMannWhitneyReference(t *testing.T) {
	res, err := MannWhitneyU(refDist(), MannWhitneyOptions{
		Compare:        Reference,
		ReferenceGroup: "control",
		Approx:         distmath.Exact,
	})
	require.NoError(t, err)
	rows, err := disttab.StatsRows(res.Stats)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "control", r.AGroup)
	assert.Equal(t, "reference", r.BGroup)
	assert.Equal(t, 4, r.AN)
	assert.Equal(t, 5, r.BN)
	assert.Equal(t, 9, r.N)
	assert.InDelta(t, 4.65, r.AMeasure, 1e-12)
	assert.Equal(t, 7.5, r.BMeasure)
	assert.Equal(t, 0.0, r.Statistic)
	assert.InDelta(t, 0.015873015873015872, r.P, 1e-12)
	assert.InDelta(t, 0.015873015873015872, r.Q, 1e-12)

	assert.Equal(t, "U", res.Stats.ColumnAttrs(disttab.Statistic).Title)
	assert.Equal(t, "Mann-Whitney U test", res.Stats.ColumnAttrs(disttab.PValue).Title)
	assert.Equal(t, "cohort", res.Stats.ColumnAttrs(disttab.AGroup).Title)
}

func TestMannWhitneyAgainstEach(t *testing.T) {
	timedist := timeDist().Drop(disttab.Subject)
	res, err := MannWhitneyU(refDist(), MannWhitneyOptions{
		Compare:     AllPairwise,
		AgainstEach: timedist,
		Approx:      distmath.Asymptotic,
	})
	require.NoError(t, err)
	stats := res.Stats
	require.Equal(t, 10, stats.Len())
	assert.Equal(t, []string{
		"control", "control", "control", "control", "control",
		"reference", "reference", "reference", "reference", "reference",
	}, stats.Strings(disttab.AGroup))
	assert.Equal(t, []string{"0", "3", "10", "18", "100", "0", "3", "10", "18", "100"}, stats.Strings(disttab.BGroup))
	assert.Equal(t, "cohort", stats.ColumnAttrs(disttab.AGroup).Title)
	assert.Equal(t, "week", stats.ColumnAttrs(disttab.BGroup).Title)
	assert.Equal(t, []float64{17.5}, column(t, stats, disttab.Statistic)[:1])

	// With reference, every group of against_each is compared.
	res, err = MannWhitneyU(refDist(), MannWhitneyOptions{
		Compare:        Reference,
		ReferenceGroup: "reference",
		AgainstEach:    timedist,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "3", "10", "18", "100"}, res.Stats.Strings(disttab.BGroup))
}

func TestMannWhitneyAllPairwise(t *testing.T) {
	res, err := MannWhitneyU(timeDist(), MannWhitneyOptions{Compare: AllPairwise})
	require.NoError(t, err)
	stats := res.Stats
	require.Equal(t, 10, stats.Len())
	assert.Equal(t, []string{"0", "0", "0", "0", "3", "3", "3", "10", "10", "18"}, stats.Strings(disttab.AGroup))
	assert.Equal(t, []string{"3", "10", "18", "100", "10", "18", "100", "18", "100", "100"}, stats.Strings(disttab.BGroup))
	for _, n := range column(t, stats, disttab.N) {
		assert.Equal(t, 12.0, n)
	}
}

func TestMannWhitneyErrors(t *testing.T) {
	check := func(dist *disttab.Table, opts MannWhitneyOptions, want string) {
		t.Helper()
		_, err := MannWhitneyU(dist, opts)
		require.Error(t, err)
		assert.True(t, disttab.IsValidation(err), "%T is not a validation error", err)
		assert.Contains(t, err.Error(), want)
	}
	dist := refDist()
	check(dist, MannWhitneyOptions{},
		"Invalid comparison: \"RankSumCompare(0)\". Please either choose `reference` or `all-pairwise` as your comparison.")
	check(dist, MannWhitneyOptions{Compare: AllPairwise, ReferenceGroup: "control"},
		"`all-pairwise` was selected as the comparison, but a `reference_group` was added.")
	check(dist, MannWhitneyOptions{Compare: Reference},
		"no `reference_group` was provided")
	check(dist, MannWhitneyOptions{Compare: Reference, ReferenceGroup: "foo"},
		"'foo' was not found as a group within the distribution.")
	check(dist, MannWhitneyOptions{Compare: AllPairwise, Approx: distmath.Approx(5)},
		"Invalid `p_val_approx` selected: \"Approx(5)\".")
	check(dist.Select([]int{0, 1}), MannWhitneyOptions{Compare: Reference, ReferenceGroup: "reference"},
		"at least two groups")
	check(dist.Drop(disttab.ID), MannWhitneyOptions{Compare: AllPairwise},
		`"id" not found in distribution.`)
	check(dist, MannWhitneyOptions{Compare: AllPairwise, AgainstEach: dist.Drop(disttab.Group)},
		`"group" not found in distribution.`)
}
