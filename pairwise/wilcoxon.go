// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pairwise

import (
	"fmt"
	"math"

	"github.com/pairstat/pairstat/distmath"
	"github.com/pairstat/pairstat/disttab"
)

// SignedRankCompare selects which groups WilcoxonSRT pairs up.
type SignedRankCompare int

const (
	// Baseline compares the baseline group against every other
	// group.
	Baseline SignedRankCompare = iota + 1
	// Consecutive compares each group with the next one in sorted
	// order.
	Consecutive
)

func (c SignedRankCompare) String() string {
	switch c {
	case Baseline:
		return "baseline"
	case Consecutive:
		return "consecutive"
	}
	return fmt.Sprintf("SignedRankCompare(%d)", int(c))
}

// ParseSignedRankCompare parses "baseline" or "consecutive".
func ParseSignedRankCompare(s string) (SignedRankCompare, error) {
	switch s {
	case "baseline":
		return Baseline, nil
	case "consecutive":
		return Consecutive, nil
	}
	return 0, errSignedRankCompare(s)
}

func errSignedRankCompare(s string) error {
	return disttab.Errorf("Invalid comparison: %q. Please either choose `baseline` or `consecutive` as your comparison.", s)
}

// WilcoxonOptions are the parameters of WilcoxonSRT.
type WilcoxonOptions struct {
	Compare SignedRankCompare

	// BaselineGroup is the label of the baseline group. It must be
	// set for Baseline comparisons and empty otherwise.
	BaselineGroup string

	Alternative distmath.Alternative
	Approx      distmath.Approx

	// IgnoreEmptyComparator, if set, reports pairs of groups with
	// no subjects in common as a row of NaNs instead of failing.
	IgnoreEmptyComparator bool
}

func (o *WilcoxonOptions) check() error {
	switch o.Compare {
	case Baseline:
		if o.BaselineGroup == "" {
			return disttab.Errorf("`baseline` was selected as the comparison, but no `baseline_group` was provided.")
		}
	case Consecutive:
		if o.BaselineGroup != "" {
			return disttab.Errorf("`consecutive` was selected as the comparison, but a `baseline_group`" +
				" was added. Please either select `baseline` as the comparison or remove the" +
				" `baseline_group` parameter.")
		}
	default:
		return errSignedRankCompare(o.Compare.String())
	}
	return checkChoices(o.Alternative, o.Approx)
}

var wilcoxonInfo = testInfo{
	statTitle: "W",
	statDesc:  "The Wilcoxon signed-rank test statistic.",
	pTitle:    "Wilcoxon signed-rank test",
	nullDesc:  "the distribution of signed ranks of the paired differences, symmetric about zero",
}

// WilcoxonSRT runs a Wilcoxon signed-rank test for each pair of
// groups selected by opts.Compare. Observations are paired by
// subject. A:n and B:n count every observation in each group, while
// n counts the subjects the two groups share.
func WilcoxonSRT(dist *disttab.Table, opts WilcoxonOptions) (*Result, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if err := disttab.Validate(dist, disttab.Kind{Order: disttab.Ordered, Dependence: disttab.Matched}); err != nil {
		return nil, err
	}
	gs, err := groups(dist)
	if err != nil {
		return nil, err
	}

	var pairs [][2]int
	switch opts.Compare {
	case Baseline:
		base, err := findGroup(gs, opts.BaselineGroup)
		if err != nil {
			return nil, err
		}
		for i := range gs {
			if i != base {
				pairs = append(pairs, [2]int{base, i})
			}
		}
	case Consecutive:
		for i := 0; i+1 < len(gs); i++ {
			pairs = append(pairs, [2]int{i, i + 1})
		}
	}

	res := new(Result)
	rows := make([]disttab.StatsRow, 0, len(pairs))
	for _, p := range pairs {
		a, b := gs[p[0]], gs[p[1]]
		row, warnings, err := signedRank(a, b, opts)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		res.Warnings = append(res.Warnings, warnf(a.label, b.label, warnings)...)
	}
	res.Stats, err = finish(rows, dist, dist, wilcoxonInfo)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func signedRank(a, b sample, opts WilcoxonOptions) (disttab.StatsRow, []error, error) {
	row := disttab.StatsRow{
		AGroup:    a.label,
		AValue:    a.value,
		AN:        len(a.measures),
		AMeasure:  distmath.Median(a.measures),
		BGroup:    b.label,
		BValue:    b.value,
		BN:        len(b.measures),
		BMeasure:  distmath.Median(b.measures),
		Statistic: math.NaN(),
		P:         math.NaN(),
		Q:         math.NaN(),
	}

	bBySubject := make(map[string]float64, len(b.subjects))
	for i, s := range b.subjects {
		bBySubject[s] = b.measures[i]
	}
	var xs, ys []float64
	for i, s := range a.subjects {
		if y, ok := bBySubject[s]; ok {
			xs = append(xs, a.measures[i])
			ys = append(ys, y)
		}
	}
	row.N = len(xs)

	if len(xs) == 0 {
		if opts.IgnoreEmptyComparator {
			return row, nil, nil
		}
		return row, nil, disttab.Errorf("There is no subject overlap between Group %s and Group %s."+
			" Please check that the groups share subjects, or set `ignore_empty_comparator` to"+
			" skip this comparison. Group %s subjects: %s Group %s subjects: %s",
			a.label, b.label, a.label, disttab.FormatList(a.subjects), b.label, disttab.FormatList(b.subjects))
	}

	tr, err := distmath.SignedRankTest(xs, ys, opts.Alternative, opts.Approx)
	if err != nil {
		return row, nil, err
	}
	row.Statistic, row.P = tr.Statistic, tr.P
	return row, tr.Warnings, nil
}
