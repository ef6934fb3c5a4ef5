// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pairstat/pairstat/internal/config"
)

// testCmd builds a command that runs test on a configuration filled
// in from its flags and arguments.
type testCmd struct {
	g   *globals
	cmd *cobra.Command
	r   config.Run

	archiveDriver, archiveDSN string
}

func newTestCmd(g *globals, test, use, short string, args cobra.PositionalArgs, inputs func(r *config.Run, args []string)) *testCmd {
	tc := &testCmd{g: g}
	tc.r.Test = test
	tc.cmd = &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs(&tc.r, args)
			if tc.archiveDSN != "" {
				tc.r.Archive = &config.Archive{Driver: tc.archiveDriver, DSN: tc.archiveDSN, Name: test}
			}
			return g.run(cmd.Context(), &tc.r)
		},
	}
	f := tc.cmd.Flags()
	f.StringVarP(&tc.r.Output, "output", "o", "-", "write the stats table to `location` instead of printing it")
	f.StringVar(&tc.archiveDriver, "archive-driver", "sqlite3", "database `driver` for --archive-dsn: sqlite3 or mysql")
	f.StringVar(&tc.archiveDSN, "archive-dsn", "", "also save the stats table in the database at `dsn`")
	return tc
}

func (tc *testCmd) flags() *pflag.FlagSet { return tc.cmd.Flags() }

func (tc *testCmd) hypothesisFlags() {
	tc.flags().StringVar(&tc.r.Alternative, "alternative", "two-sided", "alternative `hypothesis`: two-sided, greater, or less")
	tc.flags().StringVar(&tc.r.PValApprox, "p-val-approx", "auto", "p-value `method`: auto, exact, or asymptotic")
}

func (tc *testCmd) parallelismFlag() {
	tc.flags().IntVar(&tc.r.Parallelism, "parallelism", 1, "test up to `n` facets concurrently")
}

func distribution(r *config.Run, args []string) {
	r.Inputs.Distribution = args[0]
}

func newWilcoxonCmd(g *globals) *cobra.Command {
	tc := newTestCmd(g, config.Wilcoxon, "wilcoxon [flags] distribution",
		"Wilcoxon signed-rank test between matched groups", cobra.ExactArgs(1), distribution)
	tc.flags().StringVar(&tc.r.Compare, "compare", "baseline", "compare against the baseline group or consecutive groups: baseline or consecutive")
	tc.flags().StringVar(&tc.r.BaselineGroup, "baseline-group", "", "`label` of the baseline group")
	tc.flags().BoolVar(&tc.r.IgnoreEmptyComparator, "ignore-empty-comparator", false, "report groups without shared subjects as NaN instead of failing")
	tc.hypothesisFlags()
	return tc.cmd
}

func newMannWhitneyCmd(g *globals) *cobra.Command {
	tc := newTestCmd(g, config.MannWhitney, "mann-whitney [flags] distribution",
		"Mann-Whitney U test between independent groups", cobra.ExactArgs(1), distribution)
	tc.flags().StringVar(&tc.r.Compare, "compare", "reference", "compare against the reference group or all pairs: reference or all-pairwise")
	tc.flags().StringVar(&tc.r.ReferenceGroup, "reference-group", "", "`label` of the reference group")
	tc.flags().StringVar(&tc.r.Inputs.AgainstEach, "against-each", "", "take the B groups from the distribution at `location`")
	tc.hypothesisFlags()
	return tc.cmd
}

func newWilcoxonFacetCmd(g *globals) *cobra.Command {
	tc := newTestCmd(g, config.WilcoxonFacet, "wilcoxon-facet [flags] distribution",
		"Wilcoxon test of consecutive groups in each class and level", cobra.ExactArgs(1), distribution)
	tc.flags().BoolVar(&tc.r.IgnoreEmptyComparator, "ignore-empty-comparator", false, "report groups without shared subjects as NaN instead of failing")
	tc.parallelismFlag()
	return tc.cmd
}

func newMannWhitneyFacetCmd(g *globals) *cobra.Command {
	tc := newTestCmd(g, config.MannWhitneyFacet, "mann-whitney-facet [flags] distribution",
		"Mann-Whitney test of all pairs of groups in each facet", cobra.ExactArgs(1), distribution)
	tc.flags().StringVar(&tc.r.Facet, "facet", "within", "split `strategy`: within or across")
	tc.parallelismFlag()
	return tc.cmd
}

func newAlphaSignificanceCmd(g *globals) *cobra.Command {
	tc := newTestCmd(g, config.AlphaSignificance, "alpha-significance [flags] alpha metadata",
		"Test a per-sample diversity measure against sample metadata", cobra.ExactArgs(2),
		func(r *config.Run, args []string) {
			r.Inputs.Alpha, r.Inputs.Metadata = args[0], args[1]
		})
	tc.flags().StringSliceVar(&tc.r.Columns, "columns", nil, "metadata `columns` to compare levels of")
	tc.flags().StringVar(&tc.r.Subject, "subject", "", "metadata `column` identifying subjects")
	tc.flags().StringVar(&tc.r.Timepoint, "timepoint", "", "metadata `column` giving timepoints")
	tc.parallelismFlag()
	return tc.cmd
}
