// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pairstat/pairstat/dataresource"
	"github.com/pairstat/pairstat/distmath"
	"github.com/pairstat/pairstat/disttab"
	"github.com/pairstat/pairstat/facet"
	"github.com/pairstat/pairstat/internal/config"
	"github.com/pairstat/pairstat/internal/texttab"
	"github.com/pairstat/pairstat/pairwise"
	"github.com/pairstat/pairstat/pipeline"
	"github.com/pairstat/pairstat/resultdb"
)

func newRunCmd(g *globals) *cobra.Command {
	var (
		path        string
		output      string
		parallelism int
	)
	cmd := &cobra.Command{
		Use:   "run -c config.yaml",
		Short: "Run the test described by a YAML configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := config.Load(path)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				r.Output = output
			}
			if cmd.Flags().Changed("parallelism") {
				r.Parallelism = parallelism
			}
			return g.run(cmd.Context(), r)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "read the run configuration from `file`")
	cmd.Flags().StringVarP(&output, "output", "o", "", "override the configured output `location`")
	cmd.Flags().IntVar(&parallelism, "parallelism", 0, "override the number of facets tested concurrently")
	cmd.MarkFlagRequired("config")
	return cmd
}

// run validates r, executes it, and writes and archives the result.
func (g *globals) run(ctx context.Context, r *config.Run) error {
	if err := r.Validate(); err != nil {
		return err
	}
	g.logger.Debug("running", "test", r.Test, "output", r.Output)
	res, err := g.execute(ctx, r)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		g.logger.Warn(w.Error(), "test", r.Test)
	}
	if err := g.output(ctx, r.Output, res.Stats, res.Warnings); err != nil {
		return err
	}
	if r.Archive != nil {
		return g.archive(ctx, r.Archive, res.Stats)
	}
	return nil
}

// execute runs the test described by r.
func (g *globals) execute(ctx context.Context, r *config.Run) (*pairwise.Result, error) {
	alt, err := distmath.ParseAlternative(r.Alternative)
	if err != nil {
		return nil, err
	}
	approx, err := distmath.ParseApprox(r.PValApprox)
	if err != nil {
		return nil, err
	}
	popts := pipeline.Options{Logger: g.logger, Parallelism: r.Parallelism}

	if r.Test == config.AlphaSignificance {
		at, err := g.read(ctx, r.Inputs.Alpha)
		if err != nil {
			return nil, err
		}
		alpha, err := pipeline.AlphaFromTable(at)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Inputs.Alpha, err)
		}
		md, err := g.read(ctx, r.Inputs.Metadata)
		if err != nil {
			return nil, err
		}
		_, res, err := pipeline.AlphaGroupSignificance(alpha, md, r.Columns, r.Subject, r.Timepoint, popts)
		return res, err
	}

	dist, err := g.read(ctx, r.Inputs.Distribution)
	if err != nil {
		return nil, err
	}
	switch r.Test {
	case config.Wilcoxon:
		compare, err := pairwise.ParseSignedRankCompare(r.Compare)
		if err != nil {
			return nil, err
		}
		return pairwise.WilcoxonSRT(dist, pairwise.WilcoxonOptions{
			Compare:               compare,
			BaselineGroup:         r.BaselineGroup,
			Alternative:           alt,
			Approx:                approx,
			IgnoreEmptyComparator: r.IgnoreEmptyComparator,
		})
	case config.MannWhitney:
		compare, err := pairwise.ParseRankSumCompare(r.Compare)
		if err != nil {
			return nil, err
		}
		opts := pairwise.MannWhitneyOptions{
			Compare:        compare,
			ReferenceGroup: r.ReferenceGroup,
			Alternative:    alt,
			Approx:         approx,
		}
		if r.Inputs.AgainstEach != "" {
			if opts.AgainstEach, err = g.read(ctx, r.Inputs.AgainstEach); err != nil {
				return nil, err
			}
		}
		return pairwise.MannWhitneyU(dist, opts)
	case config.WilcoxonFacet:
		return pipeline.WilcoxonSRTFacet(dist, r.IgnoreEmptyComparator, popts)
	case config.MannWhitneyFacet:
		s, err := facet.ParseStrategy(r.Facet)
		if err != nil {
			return nil, err
		}
		return pipeline.MannWhitneyUFacet(dist, s, popts)
	}
	return nil, fmt.Errorf("unknown test %q", r.Test)
}

func (g *globals) read(ctx context.Context, loc string) (*disttab.Table, error) {
	t, err := dataresource.ReadFrom(ctx, loc, g.gcsOptions()...)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("read table", "location", loc, "rows", t.Len(), "columns", len(t.Columns()))
	return t, nil
}

// output writes t to loc, or prints it if loc is "-".
func (g *globals) output(ctx context.Context, loc string, t *disttab.Table, warnings []error) error {
	if loc == "-" {
		return texttab.WriteTable(g.stdout, t, warnings)
	}
	if err := dataresource.WriteTo(ctx, loc, t, g.gcsOptions()...); err != nil {
		return err
	}
	g.logger.Info("wrote table", "location", loc, "rows", t.Len())
	return nil
}

func (g *globals) archive(ctx context.Context, a *config.Archive, t *disttab.Table) error {
	db, err := resultdb.OpenSQL(a.Driver, a.DSN)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer db.Close()
	id, err := db.SaveReport(ctx, a.Name, t)
	if err != nil {
		return fmt.Errorf("archiving report: %w", err)
	}
	g.logger.Info("archived report", "id", id, "name", a.Name)
	return nil
}
