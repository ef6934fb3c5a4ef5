// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package facet splits nested distributions into independent
// sub-distributions and merges the per-facet stats tables back into
// one.
//
// A nested distribution carries class and level columns in addition
// to its groups. Within splits it by its outer grouping and compares
// the levels of each class; Across splits it into one distribution
// per (class, level) stratum and keeps the original groups. Collate
// reverses either split for stats tables, tagging each row with its
// facet and correcting p-values across all facets at once.
package facet

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pairstat/pairstat/disttab"
)

// Strategy selects how a nested distribution is split.
type Strategy int

const (
	Within Strategy = iota + 1
	Across
)

func (s Strategy) String() string {
	switch s {
	case Within:
		return "within"
	case Across:
		return "across"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parses "within" or "across".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "within":
		return Within, nil
	case "across":
		return Across, nil
	}
	return 0, errStrategy(s)
}

func errStrategy(s string) error {
	return disttab.Errorf("`facet` should be \"within\" or \"across\", not %q", s)
}

// Split splits dist with strategy s.
func Split(dist *disttab.Table, s Strategy) (*Map, error) {
	switch s {
	case Within:
		return SplitWithin(dist)
	case Across:
		return SplitAcross(dist)
	}
	return nil, errStrategy(s.String())
}

// A Map is an insertion-ordered mapping from facet keys to tables.
type Map struct {
	keys []string
	tabs map[string]*disttab.Table
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{tabs: make(map[string]*disttab.Table)}
}

// Set maps key to t. A new key is appended to the order; an existing
// key keeps its position.
func (m *Map) Set(key string, t *disttab.Table) {
	if m.tabs == nil {
		m.tabs = make(map[string]*disttab.Table)
	}
	if _, ok := m.tabs[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.tabs[key] = t
}

// Get returns the table mapped to key.
func (m *Map) Get(key string) (*disttab.Table, bool) {
	t, ok := m.tabs[key]
	return t, ok
}

// Keys returns the keys of m in insertion order.
func (m *Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries in m.
func (m *Map) Len() int {
	return len(m.keys)
}

var unsafeKey = regexp.MustCompile(`[^a-zA-Z0-9_.\-+]`)

// CleanKey joins the parts of a grouping key with "__" and replaces
// every character other than ASCII letters, digits, and "_.-+" with
// ".".
func CleanKey(parts ...string) string {
	return unsafeKey.ReplaceAllString(strings.Join(parts, "__"), ".")
}

// SplitWithin splits dist by its outer grouping: by group and class
// if dist has a group column, otherwise by class alone. In each
// facet, the levels become the groups and the class and level columns
// are dropped. The new group column is titled with the class, and the
// facet's table title names the outer grouping column.
func SplitWithin(dist *disttab.Table) (*Map, error) {
	if err := disttab.RequireColumns(dist, disttab.ID, disttab.Measure, disttab.Class, disttab.Level); err != nil {
		return nil, err
	}
	by := []string{disttab.Class}
	title := dist.ColumnAttrs(disttab.Class).TitleOr("class")
	if dist.Has(disttab.Group) {
		by = []string{disttab.Group, disttab.Class}
		title = dist.ColumnAttrs(disttab.Group).TitleOr("group")
	}

	m := NewMap()
	for _, g := range dist.GroupBy(by...) {
		groupAttrs := dist.ColumnAttrs(disttab.Level).Update(disttab.Attrs{Title: g.Key[len(g.Key)-1]})
		t := g.Table.
			With(disttab.Group, g.Column(disttab.Level), groupAttrs).
			Drop(disttab.Class, disttab.Level).
			WithTableAttrs(dist.Attrs.Update(disttab.Attrs{Title: title}))
		m.Set(CleanKey(g.Key...), t)
	}
	return m, nil
}

// SplitAcross splits dist into one facet per (class, level) stratum.
// Each facet drops the class and level columns and keeps every other
// column, including its provenance, unchanged.
func SplitAcross(dist *disttab.Table) (*Map, error) {
	if err := disttab.RequireColumns(dist, disttab.ID, disttab.Measure, disttab.Class, disttab.Level); err != nil {
		return nil, err
	}
	m := NewMap()
	for _, g := range dist.GroupBy(disttab.Class, disttab.Level) {
		m.Set(CleanKey(g.Key...), g.Table.Drop(disttab.Class, disttab.Level))
	}
	return m, nil
}
