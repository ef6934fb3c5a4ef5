// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Pairstat runs pairwise nonparametric tests over distributions
// stored as tabular data resources.
//
// Usage:
//
//	pairstat [--log-level level] [--gcs-anonymous] command [flags] args...
//
// A distribution is a directory (or gs://bucket/prefix) holding
// data.ndjson and dataresource.json, with an id, measure, and group
// column, plus subject for matched tests and class and level for
// nested ones. Commands that produce a table write it as a data
// resource to the -o location, or print it if -o is not given.
//
// The commands are:
//
//	wilcoxon            Wilcoxon signed-rank test between matched groups
//	mann-whitney        Mann-Whitney U test between independent groups
//	wilcoxon-facet      Wilcoxon test of consecutive groups in each stratum
//	mann-whitney-facet  Mann-Whitney test of all pairs in each facet
//	alpha-significance  test a diversity measure against sample metadata
//	facet-within        split a nested distribution by its outer groups
//	facet-across        split a nested distribution by class and level
//	collate             merge per-facet stats tables
//	run                 run the test described by a YAML configuration
//	show                print a table or archived reports
//
// Warnings, such as pairs whose differences are all zero, are logged
// to standard error and do not change the exit status.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	_ "github.com/go-sql-driver/mysql"

	_ "github.com/pairstat/pairstat/resultdb/sqlite3"
)

// globals are the settings shared by all commands.
type globals struct {
	logLevel     string
	gcsAnonymous bool

	stdout io.Writer
	logger *slog.Logger
}

// gcsOptions returns the Cloud Storage client options for data
// resource locations.
func (g *globals) gcsOptions() []option.ClientOption {
	if g.gcsAnonymous {
		return []option.ClientOption{option.WithoutAuthentication()}
	}
	return nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stdout: stdout}
	root := &cobra.Command{
		Use:           "pairstat",
		Short:         "Pairwise nonparametric tests over distributions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			g.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "minimum `level` to log: debug, info, warn, or error")
	root.PersistentFlags().BoolVar(&g.gcsAnonymous, "gcs-anonymous", false, "access gs:// locations without credentials")

	root.AddCommand(
		newWilcoxonCmd(g),
		newMannWhitneyCmd(g),
		newWilcoxonFacetCmd(g),
		newMannWhitneyFacetCmd(g),
		newAlphaSignificanceCmd(g),
		newFacetCmd(g, "within"),
		newFacetCmd(g, "across"),
		newCollateCmd(g),
		newRunCmd(g),
		newShowCmd(g),
	)
	return root
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "pairstat: %v\n", err)
		os.Exit(1)
	}
}
