// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package distmath implements the rank-based hypothesis tests used to
// compare groups of a distribution: the Wilcoxon signed-rank test for
// matched samples and the Mann-Whitney U test for independent samples.
//
// Both tests compute p-values either from the exact permutation
// distribution of their statistic or from a normal approximation. The
// Auto policy picks between them using fixed sample size cutoffs.
//
// Results carry a list of warnings: conditions that don't prevent a
// result but should be shown to the user, such as a degenerate sample.
package distmath

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
	summary "github.com/montanaflynn/stats"

	"github.com/pairstat/pairstat/disttab"
)

// Alternative is the alternative hypothesis of a test.
type Alternative int

const (
	// TwoSided tests whether the two samples differ in location.
	TwoSided Alternative = iota
	// Greater tests whether the first sample is greater.
	Greater
	// Less tests whether the first sample is less.
	Less
)

func (a Alternative) String() string {
	switch a {
	case TwoSided:
		return "two-sided"
	case Greater:
		return "greater"
	case Less:
		return "less"
	}
	return fmt.Sprintf("Alternative(%d)", int(a))
}

// Valid reports whether a is one of the defined alternatives.
func (a Alternative) Valid() bool {
	return a == TwoSided || a == Greater || a == Less
}

// ParseAlternative parses "two-sided", "greater", or "less". The
// empty string means TwoSided.
func ParseAlternative(s string) (Alternative, error) {
	switch s {
	case "", "two-sided":
		return TwoSided, nil
	case "greater":
		return Greater, nil
	case "less":
		return Less, nil
	}
	return 0, errInvalidAlternative(s)
}

func errInvalidAlternative(s string) error {
	return disttab.Errorf("Invalid `alternative` hypothesis selected: %q. Choices: two-sided, greater, less.", s)
}

// Approx selects how p-values are computed.
type Approx int

const (
	// Auto uses the exact distribution for small samples without
	// ties and the normal approximation otherwise.
	Auto Approx = iota
	// Exact always uses the exact permutation distribution.
	Exact
	// Asymptotic always uses the normal approximation.
	Asymptotic
)

func (a Approx) String() string {
	switch a {
	case Auto:
		return "auto"
	case Exact:
		return "exact"
	case Asymptotic:
		return "asymptotic"
	}
	return fmt.Sprintf("Approx(%d)", int(a))
}

// Valid reports whether a is one of the defined approximations.
func (a Approx) Valid() bool {
	return a == Auto || a == Exact || a == Asymptotic
}

// ParseApprox parses "auto", "exact", or "asymptotic". The empty
// string means Auto.
func ParseApprox(s string) (Approx, error) {
	switch s {
	case "", "auto":
		return Auto, nil
	case "exact":
		return Exact, nil
	case "asymptotic":
		return Asymptotic, nil
	}
	return 0, errInvalidApprox(s)
}

func errInvalidApprox(s string) error {
	return disttab.Errorf("Invalid `p_val_approx` selected: %q. Choices: auto, exact, asymptotic.", s)
}

// Cutoffs of the Auto policy.
const (
	// SignedRankExactLimit is the largest number of tested pairs
	// for which Auto uses the exact signed-rank distribution.
	SignedRankExactLimit = 25

	// RankSumExactLimit is the sample size below which, for
	// either group, Auto uses the exact U distribution.
	RankSumExactLimit = 8
)

// Median returns the median of xs, or NaN if xs is empty.
func Median(xs []float64) float64 {
	m, err := summary.Median(summary.Float64Data(xs))
	if err != nil {
		return math.NaN()
	}
	return m
}

// normSF is the survival function of the standard normal
// distribution. It is computed from the lower tail to keep precision
// for large z.
func normSF(z float64) float64 {
	return stats.StdNormal.CDF(-z)
}

func normCDF(z float64) float64 {
	return stats.StdNormal.CDF(z)
}

// clip01 clamps a p-value to [0, 1], passing NaN through.
func clip01(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
