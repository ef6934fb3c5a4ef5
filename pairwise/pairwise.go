// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pairwise compares the groups of a distribution table two at
// a time and reports one stats table row per compared pair.
//
// WilcoxonSRT pairs observations by subject and runs a signed-rank
// test. MannWhitneyU treats groups as independent samples. Both
// validate their parameters and the shape of the distribution before
// computing anything, reporting problems as *disttab.ValidationError.
package pairwise

import (
	"fmt"

	"github.com/pairstat/pairstat/distmath"
	"github.com/pairstat/pairstat/disttab"
	"github.com/pairstat/pairstat/fdr"
)

// A Result is a stats table plus any warnings raised while computing
// it. Warnings don't invalidate the table but should be shown to the
// user.
type Result struct {
	Stats    *disttab.Table
	Warnings []error
}

// A sample is one group of a distribution.
type sample struct {
	label    string
	value    any
	measures []float64
	subjects []string
}

// groups returns the groups of dist in ascending label order.
func groups(dist *disttab.Table) ([]sample, error) {
	var out []sample
	for _, g := range dist.GroupBy(disttab.Group) {
		ms, err := g.Floats(disttab.Measure)
		if err != nil {
			return nil, err
		}
		out = append(out, sample{
			label:    g.Key[0],
			value:    g.Values[0],
			measures: ms,
			subjects: g.Strings(disttab.Subject),
		})
	}
	return out, nil
}

// findGroup returns the index of the group labeled label.
func findGroup(groups []sample, label string) (int, error) {
	for i, g := range groups {
		if disttab.SameLabel(g.label, label) {
			return i, nil
		}
	}
	return -1, disttab.Errorf("'%s' was not found as a group within the distribution.", label)
}

// checkChoices validates the parameters shared by both tests.
func checkChoices(alt distmath.Alternative, approx distmath.Approx) error {
	if !alt.Valid() {
		return disttab.Errorf("Invalid `alternative` hypothesis selected: %q. Choices: two-sided, greater, less.", alt.String())
	}
	if !approx.Valid() {
		return disttab.Errorf("Invalid `p_val_approx` selected: %q. Choices: auto, exact, asymptotic.", approx.String())
	}
	return nil
}

// A testInfo names a test for the provenance of its stats table.
type testInfo struct {
	statTitle string
	statDesc  string
	pTitle    string
	nullDesc  string
}

// finish computes q-values for rows and attaches the provenance of
// the stats table. distA and distB supply the A and B groups.
func finish(rows []disttab.StatsRow, distA, distB *disttab.Table, info testInfo) (*disttab.Table, error) {
	stats, err := fdr.Correct(disttab.NewStats(rows))
	if err != nil {
		return nil, err
	}

	measure := distA.ColumnAttrs(disttab.Measure).TitleOr(disttab.Measure)
	b := disttab.NewBuilder(stats).SetTableAttrs(distA.Attrs)
	b.SetAttrs(disttab.AGroup, distA.ColumnAttrs(disttab.Group))
	b.SetAttrs(disttab.BGroup, distB.ColumnAttrs(disttab.Group))
	for _, col := range []string{disttab.AN, disttab.BN} {
		b.SetAttrs(col, disttab.Attrs{
			Title:       "count",
			Description: "The number of observations in the group.",
		})
	}
	b.SetAttrs(disttab.AMeasure, disttab.Attrs{
		Title:       "median of " + measure,
		Description: "The median measure of group A.",
	})
	b.SetAttrs(disttab.BMeasure, disttab.Attrs{
		Title:       "median of " + measure,
		Description: "The median measure of group B.",
	})
	b.SetAttrs(disttab.N, disttab.Attrs{
		Title:       "count",
		Description: "The number of observations used in the test.",
	})
	b.SetAttrs(disttab.Statistic, disttab.Attrs{
		Title:       info.statTitle,
		Description: info.statDesc,
	})
	b.SetAttrs(disttab.PValue, disttab.Attrs{
		Title: info.pTitle,
		Description: fmt.Sprintf("The probability of obtaining a test-statistic at least as extreme"+
			" as observed under the null distribution. Where the null distribution is %s.", info.nullDesc),
	})
	b.SetAttrs(disttab.QValue, fdr.QValueAttrs)
	return b.Done(), nil
}

// warnf attributes test warnings to the pair that raised them.
func warnf(a, b string, warnings []error) []error {
	var out []error
	for _, w := range warnings {
		out = append(out, fmt.Errorf("%s vs %s: %w", a, b, w))
	}
	return out
}
