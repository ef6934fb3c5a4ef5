// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distmath

import "sort"

// Rank returns the 1-based rank of each element of xs. Tied values
// receive the average of the ranks they span.
func Rank(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return xs[idx[i]] < xs[idx[j]]
	})

	ranks := make([]float64, len(xs))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && xs[idx[j]] == xs[idx[i]] {
			j++
		}
		// Positions i..j-1 hold ranks i+1..j.
		r := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = r
		}
		i = j
	}
	return ranks
}

// TieCounts returns the number of occurrences of each distinct value
// of xs, in ascending order of value.
func TieCounts(xs []float64) []int {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	var counts []int
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		counts = append(counts, j-i)
		i = j
	}
	return counts
}

// hasTies reports whether any count in ts exceeds 1.
func hasTies(ts []int) bool {
	for _, t := range ts {
		if t > 1 {
			return true
		}
	}
	return false
}

// tieSum returns the sum of t³-t over ts, the tie correction term
// shared by both normal approximations.
func tieSum(ts []int) float64 {
	sum := 0.0
	for _, t := range ts {
		ft := float64(t)
		sum += ft*ft*ft - ft
	}
	return sum
}
