// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fixtures builds distribution tables for tests and examples.
//
// Nothing here is cached: every builder takes its random source as an
// argument, so callers control seeding and sharing.
package fixtures

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pairstat/pairstat/disttab"
)

// An Obs is one observation. Empty Subject, Class, and Level fields
// omit the corresponding column when every observation leaves them
// empty.
type Obs struct {
	ID      string
	Measure float64
	Group   string
	Subject string
	Class   string
	Level   string
}

// Dist builds a distribution table from observations. If an
// observation has no ID, one is generated from its position.
func Dist(obs ...Obs) *disttab.Table {
	var (
		ids, groups, subjects, classes, levels []string
		measures                               []float64
		hasSubject, hasClass, hasLevel         bool
	)
	for i, o := range obs {
		id := o.ID
		if id == "" {
			id = fmt.Sprintf("id%d", i+1)
		}
		ids = append(ids, id)
		measures = append(measures, o.Measure)
		groups = append(groups, o.Group)
		subjects = append(subjects, o.Subject)
		classes = append(classes, o.Class)
		levels = append(levels, o.Level)
		hasSubject = hasSubject || o.Subject != ""
		hasClass = hasClass || o.Class != ""
		hasLevel = hasLevel || o.Level != ""
	}

	b := disttab.NewBuilder(nil).
		Add(disttab.ID, ids, disttab.Attrs{Title: "id"}).
		Add(disttab.Measure, measures, disttab.Attrs{Title: "measure"}).
		Add(disttab.Group, groups, disttab.Attrs{Title: "group"})
	if hasSubject {
		b.Add(disttab.Subject, subjects, disttab.Attrs{Title: "subject"})
	}
	if hasClass {
		b.Add(disttab.Class, classes, disttab.Attrs{Title: "class"})
	}
	if hasLevel {
		b.Add(disttab.Level, levels, disttab.Attrs{Title: "level"})
	}
	return b.Done()
}

// Matched builds an ordered, matched distribution in which subject
// subjects[j] has measure values[i][j] in group groups[i]. NaN values
// are left out.
func Matched(groups []string, subjects []string, values [][]float64) *disttab.Table {
	var obs []Obs
	for i, g := range groups {
		for j, s := range subjects {
			v := values[i][j]
			if math.IsNaN(v) {
				continue
			}
			obs = append(obs, Obs{ID: fmt.Sprintf("%s.%s", s, g), Measure: v, Group: g, Subject: s})
		}
	}
	return Dist(obs...)
}

// A Class describes one class of a synthetic nested distribution:
// each of its levels draws its measures from one distribution.
type Class struct {
	Prefix string
	Levels []distuv.Rander
}

// Groups is the number of timepoints in a synthetic distribution.
const Groups = 5

// Nested builds a nested, ordered, matched distribution with rows
// observations per level of each class. Observations cycle through
// Groups timepoints, and every run of Groups observations within a
// level belongs to one subject. rows must be a multiple of Groups.
func Nested(rows int, classes ...Class) *disttab.Table {
	if rows%Groups != 0 {
		panic(fmt.Sprintf("fixtures: %d rows is not a multiple of %d groups", rows, Groups))
	}
	var (
		ids, subjects, cls, levels []string
		measures                   []float64
		groups                     []int
	)
	for _, c := range classes {
		// Draw a rows×levels matrix row by row, then emit it
		// column by column.
		draws := make([][]float64, rows)
		for r := range draws {
			draws[r] = make([]float64, len(c.Levels))
			for l, d := range c.Levels {
				draws[r][l] = d.Rand()
			}
		}
		n := 0
		for l := range c.Levels {
			for r := 0; r < rows; r++ {
				n++
				ids = append(ids, fmt.Sprintf("%s%d", c.Prefix, n))
				measures = append(measures, draws[r][l])
				subjects = append(subjects, fmt.Sprintf("%s_s%d", c.Prefix, (n-1)/Groups+1))
				groups = append(groups, r%Groups+1)
				cls = append(cls, c.Prefix)
				levels = append(levels, fmt.Sprintf("%s_g%d", c.Prefix, l+1))
			}
		}
	}
	return disttab.NewBuilder(nil).
		SetTableAttrs(disttab.Attrs{Title: "synthetic"}).
		Add(disttab.ID, ids, disttab.Attrs{Title: "id"}).
		Add(disttab.Measure, measures, disttab.Attrs{Title: "measure", Description: "synthetic measure"}).
		Add(disttab.Subject, subjects, disttab.Attrs{Title: "subject"}).
		Add(disttab.Group, groups, disttab.Attrs{Title: "timepoint"}).
		Add(disttab.Class, cls, disttab.Attrs{Title: "class"}).
		Add(disttab.Level, levels, disttab.Attrs{Title: "level"}).
		Done()
}

// scaled draws from d and multiplies by k.
type scaled struct {
	d distuv.Rander
	k float64
}

func (s scaled) Rand() float64 { return s.d.Rand() * s.k }

// Synthetic returns the standard synthetic nested distribution: a
// uniform class with two levels, a Poisson class with three, and a
// normal class with four, each with 100 observations per level.
func Synthetic(src rand.Source) *disttab.Table {
	var pois []distuv.Rander
	for _, lambda := range []float64{20, 24, 50} {
		pois = append(pois, scaled{distuv.Poisson{Lambda: lambda, Src: src}, 0.01})
	}
	var norm []distuv.Rander
	for i, mu := range []float64{0.2, 0.2, 0.5, 0.55} {
		sigma := []float64{0.5, 0.6, 1, 2}[i]
		norm = append(norm, distuv.Normal{Mu: mu, Sigma: sigma, Src: src})
	}
	return Nested(100,
		Class{"unif", []distuv.Rander{
			distuv.Uniform{Min: 0, Max: 1, Src: src},
			distuv.Uniform{Min: 0, Max: 1, Src: src},
		}},
		Class{"pois", pois},
		Class{"norm", norm},
	)
}

// Project drops the columns a distribution of kind k doesn't carry
// from a nested, matched distribution such as Synthetic.
func Project(t *disttab.Table, k disttab.Kind) *disttab.Table {
	var drop []string
	switch k.Order {
	case disttab.Ordered, disttab.Unordered:
		drop = append(drop, disttab.Class, disttab.Level)
	case disttab.Multi:
		drop = append(drop, disttab.Group)
	}
	if k.Dependence == disttab.Independent {
		drop = append(drop, disttab.Subject)
	}
	return t.Drop(drop...)
}

// NewSource returns a seeded random source.
func NewSource(seed uint64) rand.Source {
	return rand.NewSource(seed)
}
