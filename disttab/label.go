// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disttab

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FormatLabel formats a column value as a group label.
func FormatLabel(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}

func parseLabel(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// CompareLabels orders group labels. Labels that parse as numbers
// sort numerically and before all other labels, with NaN after the
// other numbers. Everything else sorts lexically.
func CompareLabels(a, b string) int {
	aa, aok := parseLabel(a)
	bb, bok := parseLabel(b)
	switch {
	case aok && bok:
		if aa < bb || (!math.IsNaN(aa) && math.IsNaN(bb)) {
			return -1
		}
		if aa > bb || (math.IsNaN(aa) && !math.IsNaN(bb)) {
			return 1
		}
		// Numerically equal labels may still be spelled
		// differently ("1" and "1.0").
		return strings.Compare(a, b)
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a, b)
}

// CompareKeys orders multi-column keys lexicographically by
// CompareLabels.
func CompareKeys(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareLabels(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// SameLabel reports whether a and b name the same group: either they
// are identical, or both are numbers with the same value, so that
// "0" and "0.0" match.
func SameLabel(a, b string) bool {
	if a == b {
		return true
	}
	aa, aok := parseLabel(a)
	bb, bok := parseLabel(b)
	return aok && bok && aa == bb
}

// SortLabels sorts labels in place by CompareLabels.
func SortLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		return CompareLabels(labels[i], labels[j]) < 0
	})
}

// UniqueLabels returns the distinct labels in labels, sorted by
// CompareLabels.
func UniqueLabels(labels []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	SortLabels(out)
	return out
}

// FormatList formats strs as a bracketed list of quoted strings, such
// as ['a', 'b'], for use in error messages.
func FormatList(strs []string) string {
	var buf strings.Builder
	buf.WriteByte('[')
	for i, s := range strs {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteByte('\'')
		buf.WriteString(s)
		buf.WriteByte('\'')
	}
	buf.WriteByte(']')
	return buf.String()
}
