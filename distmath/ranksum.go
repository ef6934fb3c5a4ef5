// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distmath

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// A RankSumResult is the outcome of a Mann-Whitney U test.
type RankSumResult struct {
	N1, N2 int

	// U is the U statistic of the first sample: its rank sum in
	// the pooled sample minus N1(N1+1)/2.
	U float64

	P float64

	// Exact indicates the p-value came from the exact
	// distribution rather than the normal approximation.
	Exact bool

	Warnings []error
}

var errAllEqual = errors.New("all samples are equal")

// RankSumTest performs a Mann-Whitney U test of independent samples
// x and y. Under Greater, the alternative is that x is stochastically
// greater than y.
//
// The normal approximation applies a continuity correction and
// corrects the variance for ties. The exact distribution accounts
// for ties in the pooled sample.
func RankSumTest(x, y []float64, alt Alternative, approx Approx) (*RankSumResult, error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, fmt.Errorf("Mann-Whitney U test needs two non-empty samples (have %d and %d)", len(x), len(y))
	}
	if !alt.Valid() {
		return nil, errInvalidAlternative(alt.String())
	}
	if !approx.Valid() {
		return nil, errInvalidApprox(approx.String())
	}

	n1, n2 := len(x), len(y)
	pooled := make([]float64, 0, n1+n2)
	pooled = append(append(pooled, x...), y...)
	ranks := Rank(pooled)
	r1 := 0.0
	for _, r := range ranks[:n1] {
		r1 += r
	}
	fn1, fn2 := float64(n1), float64(n2)
	u1 := r1 - fn1*(fn1+1)/2
	u2 := fn1*fn2 - u1

	res := &RankSumResult{N1: n1, N2: n2, U: u1, P: math.NaN()}
	ties := TieCounts(pooled)
	switch approx {
	case Exact:
		res.Exact = true
	case Auto:
		res.Exact = (n1 < RankSumExactLimit || n2 < RankSumExactLimit) && !hasTies(ties)
	}

	if res.Exact {
		var dist *rankSumDist
		if hasTies(ties) {
			dist = newTiedRankSumDist(ranks, n1)
		} else {
			dist = newRankSumDist(n1, n2)
		}
		switch alt {
		case TwoSided:
			res.P = 2 * math.Min(dist.cdf(u1), dist.sf(u1))
		case Greater:
			res.P = dist.sf(u1)
		case Less:
			res.P = dist.cdf(u1)
		}
		res.P = clip01(res.P)
		return res, nil
	}

	n := fn1 + fn2
	mu := fn1 * fn2 / 2
	s := math.Sqrt(fn1 * fn2 / 12 * ((n + 1) - tieSum(ties)/(n*(n-1))))
	if s == 0 || math.IsNaN(s) {
		res.Warnings = append(res.Warnings, errAllEqual)
		return res, nil
	}
	var u float64
	switch alt {
	case TwoSided:
		u = math.Max(u1, u2)
	case Greater:
		u = u1
	case Less:
		u = u2
	}
	z := (u - mu - 0.5) / s
	res.P = normSF(z)
	if alt == TwoSided {
		res.P *= 2
	}
	res.P = clip01(res.P)
	return res, nil
}

// rankSumDist is the null distribution of U. Its pmf is indexed by
// scale*U + offset, so that U values built from mid-ranks map to
// integral indexes.
type rankSumDist struct {
	scale, offset float64
	pmf           []float64
}

// newRankSumDist returns the distribution of U for samples of size n1
// and n2 without ties.
//
// The number of arrangements with U = u is the coefficient of q^u in
// the Gaussian binomial [n1+n2 choose m]_q, m = min(n1, n2), which is
// built up as the product over i = 1..m of (1 - q^(n+i)) / (1 - q^i),
// n = max(n1, n2). Each factor costs O(m*n), and every intermediate
// product is itself a polynomial with integer coefficients.
func newRankSumDist(n1, n2 int) *rankSumDist {
	m, n := min(n1, n2), max(n1, n2)
	f := make([]float64, m*n+n+m+1)
	f[0] = 1
	total := 1.0
	for i := 1; i <= m; i++ {
		deg := (i - 1) * n
		// Multiply by 1 - q^(n+i).
		for s := deg + n + i; s >= n+i; s-- {
			f[s] -= f[s-n-i]
		}
		// Divide by 1 - q^i.
		for s := i; s <= deg+n+i; s++ {
			f[s] += f[s-i]
		}
		for s := deg + n + 1; s <= deg+n+i; s++ {
			f[s] = 0
		}
		// total is C(n+i, i).
		total = total * float64(n+i) / float64(i)
		if total > 1e250 {
			for s := range f {
				f[s] /= total
			}
			total = 1
		}
	}
	pmf := f[:m*n+1]
	for s := range pmf {
		pmf[s] = math.Max(pmf[s], 0) / total
	}
	return &rankSumDist{scale: 1, pmf: pmf}
}

// newTiedRankSumDist returns the distribution of U for a fixed pooled
// set of possibly tied ranks, where the first sample is a uniformly
// random subset of size n1. It is indexed by twice the rank sum so
// that mid-ranks stay integral.
func newTiedRankSumDist(ranks []float64, n1 int) *rankSumDist {
	twice := make([]int, len(ranks))
	for i, r := range ranks {
		twice[i] = int(math.Round(2 * r))
	}
	// No n1-subset sums to more than the n1 largest ranks.
	sorted := append([]int(nil), twice...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	limit := 0
	for _, r := range sorted[:n1] {
		limit += r
	}

	// ways[k][s] counts the k-subsets of the ranks seen so far
	// whose doubled sum is s.
	ways := make([][]float64, n1+1)
	for k := range ways {
		ways[k] = make([]float64, limit+1)
	}
	ways[0][0] = 1
	for i, r := range twice {
		for k := min(i+1, n1); k >= 1; k-- {
			prev, cur := ways[k-1], ways[k]
			for s := limit; s >= r; s-- {
				cur[s] += prev[s-r]
			}
		}
	}
	count := 0.0
	for _, w := range ways[n1] {
		count += w
	}
	pmf := ways[n1]
	for s := range pmf {
		pmf[s] /= count
	}
	return &rankSumDist{scale: 2, offset: float64(n1 * (n1 + 1)), pmf: pmf}
}

// index converts a U value to a pmf index.
func (d *rankSumDist) index(u float64) float64 {
	return d.scale*u + d.offset
}

// cdf returns P(U <= u).
func (d *rankSumDist) cdf(u float64) float64 {
	hi := int(math.Floor(d.index(u) + 1e-9))
	p := 0.0
	for s := 0; s <= hi && s < len(d.pmf); s++ {
		p += d.pmf[s]
	}
	return p
}

// sf returns P(U >= u).
func (d *rankSumDist) sf(u float64) float64 {
	lo := max(int(math.Ceil(d.index(u)-1e-9)), 0)
	p := 0.0
	for s := lo; s < len(d.pmf); s++ {
		p += d.pmf[s]
	}
	return p
}
