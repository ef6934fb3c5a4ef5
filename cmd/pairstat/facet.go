// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pairstat/pairstat/dataresource"
	"github.com/pairstat/pairstat/facet"
)

// indexFile lists the facets under a location in order, one key per
// line.
const indexFile = "facets.txt"

func newFacetCmd(g *globals, strategy string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "facet-" + strategy + " -o location distribution",
		Short: "Split a nested distribution " + strategy + " its groups",
		Long: "Split a nested distribution " + strategy + " its groups.\n\n" +
			"Each facet is written as a data resource under location, named by its key,\n" +
			"and the keys are listed in order in " + indexFile + ".",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := facet.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			dist, err := g.read(ctx, args[0])
			if err != nil {
				return err
			}
			m, err := facet.Split(dist, s)
			if err != nil {
				return err
			}
			for _, key := range m.Keys() {
				t, _ := m.Get(key)
				if err := dataresource.WriteTo(ctx, subLoc(output, key), t, g.gcsOptions()...); err != nil {
					return err
				}
			}
			if err := g.writeIndex(ctx, output, m.Keys()); err != nil {
				return err
			}
			g.logger.Info("split distribution", "strategy", strategy, "facets", m.Len(), "location", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the facets under `location`")
	cmd.MarkFlagRequired("output")
	return cmd
}

func newCollateCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "collate [-o location] facets",
		Short: "Merge per-facet stats tables into one",
		Long: "Merge the stats tables of the facets listed in facets/" + indexFile + ",\n" +
			"tagging each row with its facet and recomputing q-values across all facets.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			keys, err := g.readIndex(ctx, args[0])
			if err != nil {
				return err
			}
			m := facet.NewMap()
			for _, key := range keys {
				t, err := g.read(ctx, subLoc(args[0], key))
				if err != nil {
					return err
				}
				m.Set(key, t)
			}
			stats, err := facet.Collate(m)
			if err != nil {
				return err
			}
			return g.output(ctx, output, stats, nil)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "write the collated table to `location` instead of printing it")
	return cmd
}

// subLoc returns the location of name under loc.
func subLoc(loc, name string) string {
	return strings.TrimSuffix(loc, "/") + "/" + name
}

func (g *globals) writeIndex(ctx context.Context, loc string, keys []string) error {
	s, err := dataresource.Open(ctx, loc, g.gcsOptions()...)
	if err != nil {
		return err
	}
	defer s.Close()
	w, err := s.Writer(ctx, indexFile)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, err := fmt.Fprintln(w, key); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func (g *globals) readIndex(ctx context.Context, loc string) ([]string, error) {
	s, err := dataresource.Open(ctx, loc, g.gcsOptions()...)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	r, err := s.Reader(ctx, indexFile)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var keys []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if key := strings.TrimSpace(sc.Text()); key != "" {
			keys = append(keys, key)
		}
	}
	return keys, sc.Err()
}
