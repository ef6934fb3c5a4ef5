// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"fmt"

	"github.com/aclements/go-gg/generic/slice"

	"github.com/pairstat/pairstat/disttab"
	"github.com/pairstat/pairstat/facet"
	"github.com/pairstat/pairstat/pairwise"
)

// An Alpha is a per-sample diversity measurement.
type Alpha struct {
	// Name names the metric, such as "shannon_entropy".
	Name string

	// Values maps sample IDs to measurements.
	Values map[string]float64
}

// AlphaFromTable reads an Alpha from the id and measure columns of t.
// The metric is named by the measure column's title.
func AlphaFromTable(t *disttab.Table) (Alpha, error) {
	if err := disttab.RequireColumns(t, disttab.ID, disttab.Measure); err != nil {
		return Alpha{}, err
	}
	ms, err := t.Floats(disttab.Measure)
	if err != nil {
		return Alpha{}, err
	}
	a := Alpha{Name: t.ColumnAttrs(disttab.Measure).Title, Values: make(map[string]float64)}
	for i, id := range t.Strings(disttab.ID) {
		if _, ok := a.Values[id]; ok {
			return Alpha{}, disttab.Errorf("sample %q measured more than once", id)
		}
		a.Values[id] = ms[i]
	}
	return a, nil
}

// PrepAlphaDistribution melts alpha and the given metadata columns
// into a nested distribution. Each metadata column becomes a class
// whose levels are that column's values. If subject or timepoint name
// metadata columns, they supply the subject and group columns.
//
// metadata must have an id column. Samples without metadata are an
// error; metadata rows without a measurement, or without a value for
// a class, are skipped.
func PrepAlphaDistribution(alpha Alpha, metadata *disttab.Table, columns []string, subject, timepoint string) (*disttab.Table, error) {
	required := append([]string{disttab.ID}, columns...)
	for _, col := range []string{subject, timepoint} {
		if col != "" {
			required = append(required, col)
		}
	}
	if err := disttab.RequireColumns(metadata, required...); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, disttab.Errorf("no metadata columns selected")
	}

	ids := metadata.Strings(disttab.ID)
	var rows []int
	present := make(map[string]bool)
	for i, id := range ids {
		if _, ok := alpha.Values[id]; ok {
			rows = append(rows, i)
			present[id] = true
		}
	}
	for id := range alpha.Values {
		if !present[id] {
			return nil, disttab.Errorf("sample %q is not present in the metadata", id)
		}
	}
	md := metadata.Select(rows)
	mdIDs := md.Strings(disttab.ID)

	var (
		keep                   []int
		outIDs, classes, level []string
		measures               []float64
	)
	n := 0
	for _, col := range columns {
		for i, v := range md.Strings(col) {
			if v != "" && v != "NaN" {
				keep = append(keep, n)
				outIDs = append(outIDs, mdIDs[i])
				classes = append(classes, col)
				level = append(level, v)
				measures = append(measures, alpha.Values[mdIDs[i]])
			}
			n++
		}
	}

	title := alpha.Name
	if title == "" {
		title = "alpha-diversity"
	}
	b := disttab.NewBuilder(nil).
		Add(disttab.ID, outIDs, disttab.Attrs{}).
		Add(disttab.Class, classes, disttab.Attrs{}).
		Add(disttab.Level, level, disttab.Attrs{}).
		Add(disttab.Measure, measures, disttab.Attrs{Title: title})
	// Repeat the per-sample columns once per class.
	repeat := func(col string) any {
		return slice.Select(slice.Cycle(md.Column(col), n), keep)
	}
	if subject != "" {
		b.Add(disttab.Subject, repeat(subject), disttab.Attrs{Title: subject})
	}
	if timepoint != "" {
		b.Add(disttab.Group, repeat(timepoint), disttab.Attrs{Title: timepoint})
	}
	return b.Done(), nil
}

// AlphaGroupSignificance prepares a nested distribution from alpha and
// metadata and tests it. With both a subject and a timepoint, it runs
// WilcoxonSRTFacet, skipping pairs without shared subjects. With only
// a timepoint, it runs MannWhitneyUFacet across strata; with neither,
// within them. A subject without a timepoint is an error.
func AlphaGroupSignificance(alpha Alpha, metadata *disttab.Table, columns []string, subject, timepoint string, opts Options) (*disttab.Table, *pairwise.Result, error) {
	if subject != "" && timepoint == "" {
		return nil, nil, disttab.Errorf("Missing timepoints for subjects")
	}
	dist, err := PrepAlphaDistribution(alpha, metadata, columns, subject, timepoint)
	if err != nil {
		return nil, nil, err
	}
	var res *pairwise.Result
	switch {
	case subject != "":
		res, err = WilcoxonSRTFacet(dist, true, opts)
	case timepoint != "":
		res, err = MannWhitneyUFacet(dist, facet.Across, opts)
	default:
		res, err = MannWhitneyUFacet(dist, facet.Within, opts)
	}
	if err != nil {
		return nil, nil, err
	}
	return dist, res, nil
}
