// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package facet

import (
	"fmt"
	"reflect"

	"github.com/pairstat/pairstat/disttab"
	"github.com/pairstat/pairstat/fdr"
)

// SeeFacet is the group title of a collated table whose facets
// titled their groups differently.
const SeeFacet = "(see facet)"

// Collate concatenates the stats tables of m in order, prefixing each
// row with its facet key, and recomputes q-values over all rows.
//
// The facet column is titled with each table's own title, or "facet".
// Column provenance is merged from the last table, except that the
// A:group and B:group titles become SeeFacet when the facets
// disagree on them. The q-value column always carries fdr.QValueAttrs.
func Collate(m *Map) (*disttab.Table, error) {
	if m.Len() == 0 {
		return nil, disttab.Errorf("no stats tables to collate")
	}
	var (
		tabs   []*disttab.Table
		titles = make(map[string]bool)
	)
	for _, key := range m.keys {
		t := m.tabs[key]
		if err := disttab.RequireColumns(t, disttab.StatsColumns...); err != nil {
			return nil, fmt.Errorf("facet %s: %w", key, err)
		}
		keys := make([]string, t.Len())
		for i := range keys {
			keys[i] = key
		}
		t = t.Prepend(disttab.Facet, keys, disttab.Attrs{Title: t.Attrs.TitleOr("facet")})
		titles[t.ColumnAttrs(disttab.AGroup).TitleOr("group")] = true
		titles[t.ColumnAttrs(disttab.BGroup).TitleOr("group")] = true
		tabs = append(tabs, t)
	}

	stats, err := disttab.Concat(labelGroups(tabs)...)
	if err != nil {
		return nil, err
	}
	if stats, err = fdr.Correct(stats); err != nil {
		return nil, err
	}

	last := tabs[len(tabs)-1]
	b := disttab.NewBuilder(stats)
	for _, col := range last.Columns() {
		b.SetAttrs(col, stats.ColumnAttrs(col).Update(last.ColumnAttrs(col)))
	}
	b.SetAttrs(disttab.QValue, fdr.QValueAttrs)
	groupTitle := SeeFacet
	if len(titles) == 1 {
		for t := range titles {
			groupTitle = t
		}
	}
	for _, col := range []string{disttab.AGroup, disttab.BGroup} {
		b.SetAttrs(col, last.ColumnAttrs(col).Update(disttab.Attrs{Title: groupTitle}))
	}
	return b.Done(), nil
}

// labelGroups replaces the group columns of tabs with their labels
// when the tables disagree on their types.
func labelGroups(tabs []*disttab.Table) []*disttab.Table {
	for _, col := range []string{disttab.AGroup, disttab.BGroup} {
		typ := reflect.TypeOf(tabs[0].Column(col))
		mixed := false
		for _, t := range tabs[1:] {
			mixed = mixed || reflect.TypeOf(t.Column(col)) != typ
		}
		if !mixed {
			continue
		}
		for i, t := range tabs {
			tabs[i] = t.With(col, t.Strings(col), t.ColumnAttrs(col))
		}
	}
	return tabs
}
