// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fdr controls the false discovery rate of a family of tests
// with the Benjamini-Hochberg procedure.
package fdr

import (
	"fmt"
	"math"
	"sort"

	"github.com/pairstat/pairstat/distmath"
	"github.com/pairstat/pairstat/disttab"
)

// QValueAttrs is the provenance of the q-value column.
var QValueAttrs = disttab.Attrs{
	Title:       "Benjamini-Hochberg",
	Description: "Adjusted p-values to control false-discovery rate.",
}

// BenjaminiHochberg returns the Benjamini-Hochberg adjusted p-values
// (q-values) of ps.
//
// NaN p-values are left out: they don't count towards the number of
// tests and their q-value is NaN. Tied p-values share their average
// rank. The result is monotone in p and never exceeds 1.
func BenjaminiHochberg(ps []float64) []float64 {
	qs := make([]float64, len(ps))
	var idx []int
	var valid []float64
	for i, p := range ps {
		if math.IsNaN(p) {
			qs[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
		valid = append(valid, p)
	}
	if len(valid) == 0 {
		return qs
	}

	m := float64(len(valid))
	ranks := distmath.Rank(valid)
	order := make([]int, len(valid))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return valid[order[i]] < valid[order[j]]
	})

	running := math.Inf(1)
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		q := valid[i] * (m / ranks[i])
		running = math.Min(running, q)
		qs[idx[i]] = math.Min(running, 1)
	}
	return qs
}

// Correct returns a copy of stats with its q-value column computed
// from its p-value column.
func Correct(stats *disttab.Table) (*disttab.Table, error) {
	ps, err := stats.Floats(disttab.PValue)
	if err != nil {
		return nil, fmt.Errorf("correcting p-values: %w", err)
	}
	return stats.With(disttab.QValue, BenjaminiHochberg(ps), QValueAttrs), nil
}
