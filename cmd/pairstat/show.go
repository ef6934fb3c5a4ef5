// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pairstat/pairstat/disttab"
	"github.com/pairstat/pairstat/internal/texttab"
	"github.com/pairstat/pairstat/resultdb"
)

type showFlags struct {
	csv    bool
	driver string
	dsn    string
	report string
	maxQ   float64
}

func newShowCmd(g *globals) *cobra.Command {
	var f showFlags
	cmd := &cobra.Command{
		Use:   "show [flags] [location]",
		Short: "Print a table or archived reports",
		Long: "Print the table stored at location.\n\n" +
			"With --db-dsn, list the reports archived in that database instead, or\n" +
			"print the one named by --report. With --max-q, print only that report's\n" +
			"comparisons whose q-value is at most the given level.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if f.dsn != "" {
				if len(args) > 0 {
					return errors.New("a location cannot be combined with --db-dsn")
				}
				return g.showDB(ctx, &f)
			}
			if len(args) == 0 {
				return errors.New("missing location")
			}
			t, err := g.read(ctx, args[0])
			if err != nil {
				return err
			}
			return g.show(t, f.csv)
		},
	}
	cmd.Flags().BoolVar(&f.csv, "csv", false, "print as CSV")
	cmd.Flags().StringVar(&f.driver, "db-driver", "sqlite3", "database `driver`: sqlite3 or mysql")
	cmd.Flags().StringVar(&f.dsn, "db-dsn", "", "read archived reports from the database at `dsn`")
	cmd.Flags().StringVar(&f.report, "report", "", "print the archived report with the given `id`")
	cmd.Flags().Float64Var(&f.maxQ, "max-q", -1, "print only comparisons with q-value at most `q`")
	return cmd
}

func (g *globals) show(t *disttab.Table, asCSV bool) error {
	if asCSV {
		return texttab.WriteCSV(csv.NewWriter(g.stdout), t)
	}
	return texttab.WriteTable(g.stdout, t, nil)
}

func (g *globals) showDB(ctx context.Context, f *showFlags) error {
	db, err := resultdb.OpenSQL(f.driver, f.dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case f.report == "":
		reports, err := db.ListReports(ctx)
		if err != nil {
			return err
		}
		var o texttab.Layout
		o.Row().Cell("id").Cell("name").Cell("title").Cell("created").Cell("comparisons", texttab.Aligned(texttab.Right))
		for _, r := range reports {
			o.Row().Cell(r.ID).Cell(r.Name).Cell(r.Title).Cell(r.Created.Format(time.RFC3339)).
				Cell(strconv.Itoa(r.Comparisons), texttab.Aligned(texttab.Right))
		}
		return o.Format(g.stdout)
	case f.maxQ >= 0:
		cs, err := db.Comparisons(ctx, f.report, f.maxQ)
		if err != nil {
			return err
		}
		right := texttab.Aligned(texttab.Right)
		var o texttab.Layout
		o.Row().Cell(disttab.Facet).Cell(disttab.AGroup).Cell(disttab.BGroup).
			Cell(disttab.N, right).Cell(disttab.PValue, right).Cell(disttab.QValue, right)
		for _, c := range cs {
			o.Row().Cell(c.Facet).Cell(c.AGroup).Cell(c.BGroup).Cell(strconv.Itoa(c.N), right).
				Cell(fmt.Sprintf("%.4g", c.P), right).Cell(fmt.Sprintf("%.4g", c.Q), right)
		}
		return o.Format(g.stdout)
	}
	r, err := db.Report(ctx, f.report)
	if err != nil {
		return err
	}
	return g.show(r.Table, f.csv)
}
