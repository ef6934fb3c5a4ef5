// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline chains faceting, pairwise testing, and collation
// into the end-to-end analyses of nested distributions.
package pipeline

import (
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pairstat/pairstat/disttab"
	"github.com/pairstat/pairstat/facet"
	"github.com/pairstat/pairstat/pairwise"
)

// Options control how a pipeline runs. The zero value runs facets
// one at a time and logs to slog.Default.
type Options struct {
	Logger *slog.Logger

	// Parallelism is the number of facets tested concurrently.
	// Values below 2 test facets sequentially. The collated
	// output is the same either way.
	Parallelism int
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// MannWhitneyUFacet splits dist by strategy s and compares all pairs
// of groups within each facet with a Mann-Whitney U test.
func MannWhitneyUFacet(dist *disttab.Table, s facet.Strategy, opts Options) (*pairwise.Result, error) {
	facets, err := facet.Split(dist, s)
	if err != nil {
		return nil, err
	}
	return run(facets, opts, "mann-whitney-u-"+s.String(), func(d *disttab.Table) (*pairwise.Result, error) {
		return pairwise.MannWhitneyU(d, pairwise.MannWhitneyOptions{Compare: pairwise.AllPairwise})
	})
}

// WilcoxonSRTFacet splits dist across its (class, level) strata and
// compares consecutive groups within each with a Wilcoxon
// signed-rank test.
func WilcoxonSRTFacet(dist *disttab.Table, ignoreEmptyComparator bool, opts Options) (*pairwise.Result, error) {
	facets, err := facet.SplitAcross(dist)
	if err != nil {
		return nil, err
	}
	return run(facets, opts, "wilcoxon-srt", func(d *disttab.Table) (*pairwise.Result, error) {
		return pairwise.WilcoxonSRT(d, pairwise.WilcoxonOptions{
			Compare:               pairwise.Consecutive,
			IgnoreEmptyComparator: ignoreEmptyComparator,
		})
	})
}

// run applies test to every facet and collates the results in facet
// order.
func run(facets *facet.Map, opts Options, name string, test func(*disttab.Table) (*pairwise.Result, error)) (*pairwise.Result, error) {
	log := opts.logger().With("pipeline", name)
	keys := facets.Keys()
	results := make([]*pairwise.Result, len(keys))

	var g errgroup.Group
	g.SetLimit(max(opts.Parallelism, 1))
	for i, key := range keys {
		i, key := i, key
		dist, _ := facets.Get(key)
		g.Go(func() error {
			res, err := test(dist)
			if err != nil {
				return fmt.Errorf("facet %s: %w", key, err)
			}
			log.Debug("tested facet", "facet", key, "observations", dist.Len(), "rows", res.Stats.Len())
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := facet.NewMap()
	out := new(pairwise.Result)
	for i, key := range keys {
		stats.Set(key, results[i].Stats)
		for _, w := range results[i].Warnings {
			out.Warnings = append(out.Warnings, fmt.Errorf("facet %s: %w", key, w))
		}
	}
	collated, err := facet.Collate(stats)
	if err != nil {
		return nil, err
	}
	out.Stats = collated
	log.Info("collated facets", "facets", len(keys), "rows", collated.Len(), "warnings", len(out.Warnings))
	return out, nil
}
