// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package distmath

import (
	"errors"
	"fmt"
	"math"

	"github.com/aclements/go-moremath/mathx"
)

// A SignedRankResult is the outcome of a Wilcoxon signed-rank test.
type SignedRankResult struct {
	// N is the number of pairs with a nonzero difference, which
	// is the number of pairs the statistic is computed over.
	N int

	// Statistic is the smaller of the positive and negative rank
	// sums for a two-sided test, and the positive rank sum
	// otherwise.
	Statistic float64

	P float64

	// Exact indicates the p-value came from the exact
	// distribution rather than the normal approximation.
	Exact bool

	Warnings []error
}

var (
	errAllZero     = errors.New("all paired differences are zero")
	errZeroSE      = errors.New("signed-rank statistic has zero variance")
	errSmallSample = errors.New("sample size too small for normal approximation")
)

// SignedRankTest performs a Wilcoxon signed-rank test on the paired
// samples x and y, which must have equal length. Pairs with a zero
// difference are discarded. Under Greater, the alternative is that
// x tends to exceed y.
func SignedRankTest(x, y []float64, alt Alternative, approx Approx) (*SignedRankResult, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("paired samples differ in length: %d vs %d", len(x), len(y))
	}
	if !alt.Valid() {
		return nil, errInvalidAlternative(alt.String())
	}
	if !approx.Valid() {
		return nil, errInvalidApprox(approx.String())
	}

	var d []float64
	for i := range x {
		if diff := x[i] - y[i]; mathx.Sign(diff) != 0 {
			d = append(d, diff)
		}
	}
	res := &SignedRankResult{N: len(d), Statistic: math.NaN(), P: math.NaN()}
	if len(d) == 0 {
		res.Warnings = append(res.Warnings, errAllZero)
		return res, nil
	}

	abs := make([]float64, len(d))
	for i, v := range d {
		abs[i] = math.Abs(v)
	}
	ranks := Rank(abs)
	var rPlus, rMinus float64
	for i, v := range d {
		if mathx.Sign(v) > 0 {
			rPlus += ranks[i]
		} else {
			rMinus += ranks[i]
		}
	}
	if alt == TwoSided {
		res.Statistic = math.Min(rPlus, rMinus)
	} else {
		res.Statistic = rPlus
	}

	ties := TieCounts(abs)
	n := len(d)
	switch approx {
	case Exact:
		res.Exact = true
	case Auto:
		res.Exact = n <= SignedRankExactLimit && !hasTies(ties)
	}

	if res.Exact {
		dist := newSignedRankDist(n)
		switch alt {
		case TwoSided:
			if rPlus > dist.mean() {
				res.P = 2 * dist.sf(rPlus)
			} else {
				res.P = 2 * dist.cdf(rPlus)
			}
		case Greater:
			res.P = dist.sf(rPlus)
		case Less:
			res.P = dist.cdf(rPlus)
		}
		res.P = clip01(res.P)
		return res, nil
	}

	fn := float64(n)
	mn := fn * (fn + 1) / 4
	se := fn*(fn+1)*(2*fn+1)/24 - tieSum(ties)/48
	if se <= 0 {
		res.Warnings = append(res.Warnings, errZeroSE)
		return res, nil
	}
	se = math.Sqrt(se)
	if n < 10 {
		res.Warnings = append(res.Warnings, errSmallSample)
	}
	z := (res.Statistic - mn) / se
	switch alt {
	case TwoSided:
		res.P = 2 * normSF(math.Abs(z))
	case Greater:
		res.P = normSF(z)
	case Less:
		res.P = normCDF(z)
	}
	res.P = clip01(res.P)
	return res, nil
}

// signedRankDist is the null distribution of the positive rank sum
// of n untied, nonzero differences.
type signedRankDist struct {
	n   int
	pmf []float64
}

func newSignedRankDist(n int) *signedRankDist {
	// Each rank k is independently positive with probability
	// 1/2. Fold the ranks in one at a time, walking the sums
	// downward so each step reads the previous distribution.
	pmf := make([]float64, n*(n+1)/2+1)
	pmf[0] = 1
	top := 0
	for k := 1; k <= n; k++ {
		top += k
		for s := top; s >= 0; s-- {
			p := pmf[s] * 0.5
			if s >= k {
				p += pmf[s-k] * 0.5
			}
			pmf[s] = p
		}
	}
	return &signedRankDist{n, pmf}
}

func (d *signedRankDist) mean() float64 {
	return float64(d.n*(d.n+1)) / 4
}

// cdf returns P(X <= x).
func (d *signedRankDist) cdf(x float64) float64 {
	hi := int(math.Floor(x + 1e-9))
	if hi < 0 {
		return 0
	}
	p := 0.0
	for s := 0; s <= hi && s < len(d.pmf); s++ {
		p += d.pmf[s]
	}
	return p
}

// sf returns P(X >= x).
func (d *signedRankDist) sf(x float64) float64 {
	lo := int(math.Ceil(x - 1e-9))
	if lo < 0 {
		lo = 0
	}
	p := 0.0
	for s := lo; s < len(d.pmf); s++ {
		p += d.pmf[s]
	}
	return p
}
