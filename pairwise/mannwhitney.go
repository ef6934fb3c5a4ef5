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

// RankSumCompare selects which groups MannWhitneyU pairs up.
type RankSumCompare int

const (
	// Reference compares the reference group against every other
	// group.
	Reference RankSumCompare = iota + 1
	// AllPairwise compares every pair of groups.
	AllPairwise
)

func (c RankSumCompare) String() string {
	switch c {
	case Reference:
		return "reference"
	case AllPairwise:
		return "all-pairwise"
	}
	return fmt.Sprintf("RankSumCompare(%d)", int(c))
}

// ParseRankSumCompare parses "reference" or "all-pairwise".
func ParseRankSumCompare(s string) (RankSumCompare, error) {
	switch s {
	case "reference":
		return Reference, nil
	case "all-pairwise":
		return AllPairwise, nil
	}
	return 0, errRankSumCompare(s)
}

func errRankSumCompare(s string) error {
	return disttab.Errorf("Invalid comparison: %q. Please either choose `reference` or `all-pairwise` as your comparison.", s)
}

// MannWhitneyOptions are the parameters of MannWhitneyU.
type MannWhitneyOptions struct {
	Compare RankSumCompare

	// ReferenceGroup is the label of the reference group. It must
	// be set for Reference comparisons and empty otherwise.
	ReferenceGroup string

	// AgainstEach, if non-nil, supplies the B side of every pair.
	// Otherwise both sides come from the primary distribution.
	AgainstEach *disttab.Table

	Alternative distmath.Alternative
	Approx      distmath.Approx
}

func (o *MannWhitneyOptions) check() error {
	switch o.Compare {
	case Reference:
		if o.ReferenceGroup == "" {
			return disttab.Errorf("`reference` was selected as the comparison, but no `reference_group` was provided.")
		}
	case AllPairwise:
		if o.ReferenceGroup != "" {
			return disttab.Errorf("`all-pairwise` was selected as the comparison, but a `reference_group`" +
				" was added. Please either select `reference` as the comparison or remove the" +
				" `reference_group` parameter.")
		}
	default:
		return errRankSumCompare(o.Compare.String())
	}
	return checkChoices(o.Alternative, o.Approx)
}

var mannWhitneyInfo = testInfo{
	statTitle: "U",
	statDesc:  "The Mann-Whitney U statistic of group A.",
	pTitle:    "Mann-Whitney U test",
	nullDesc:  "the distribution of U when both groups are drawn from the same population",
}

var independent = disttab.Kind{Order: disttab.Unordered, Dependence: disttab.Independent}

// MannWhitneyU runs a Mann-Whitney U test for each pair of groups
// selected by opts. Groups are treated as independent samples, so n
// is A:n + B:n.
func MannWhitneyU(dist *disttab.Table, opts MannWhitneyOptions) (*Result, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if err := disttab.Validate(dist, independent); err != nil {
		return nil, err
	}
	gs, err := groups(dist)
	if err != nil {
		return nil, err
	}
	distB, others := dist, gs
	if opts.AgainstEach != nil {
		if err := disttab.Validate(opts.AgainstEach, independent); err != nil {
			return nil, err
		}
		distB = opts.AgainstEach
		if others, err = groups(distB); err != nil {
			return nil, err
		}
	}

	type pair struct{ a, b sample }
	var pairs []pair
	switch opts.Compare {
	case Reference:
		ref, err := findGroup(gs, opts.ReferenceGroup)
		if err != nil {
			return nil, err
		}
		if opts.AgainstEach == nil && len(gs) < 2 {
			return nil, disttab.Errorf("The distribution must contain at least two groups to compare" +
				" against the `reference_group`.")
		}
		for i, g := range others {
			if opts.AgainstEach == nil && i == ref {
				continue
			}
			pairs = append(pairs, pair{gs[ref], g})
		}
	case AllPairwise:
		for i, a := range gs {
			if opts.AgainstEach != nil {
				for _, b := range others {
					pairs = append(pairs, pair{a, b})
				}
				continue
			}
			for _, b := range gs[i+1:] {
				pairs = append(pairs, pair{a, b})
			}
		}
	}

	res := new(Result)
	rows := make([]disttab.StatsRow, 0, len(pairs))
	for _, p := range pairs {
		tr, err := distmath.RankSumTest(p.a.measures, p.b.measures, opts.Alternative, opts.Approx)
		if err != nil {
			return nil, err
		}
		rows = append(rows, disttab.StatsRow{
			AGroup:    p.a.label,
			AValue:    p.a.value,
			AN:        len(p.a.measures),
			AMeasure:  distmath.Median(p.a.measures),
			BGroup:    p.b.label,
			BValue:    p.b.value,
			BN:        len(p.b.measures),
			BMeasure:  distmath.Median(p.b.measures),
			N:         len(p.a.measures) + len(p.b.measures),
			Statistic: tr.U,
			P:         tr.P,
			Q:         math.NaN(),
		})
		res.Warnings = append(res.Warnings, warnf(p.a.label, p.b.label, tr.Warnings)...)
	}
	res.Stats, err = finish(rows, dist, distB, mannWhitneyInfo)
	if err != nil {
		return nil, err
	}
	return res, nil
}
