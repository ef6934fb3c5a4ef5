// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disttab

import (
	"reflect"
	"testing"
)

func TestCompareLabels(t *testing.T) {
	check := func(a, b string, want int) {
		t.Helper()
		if got := CompareLabels(a, b); got != want {
			t.Errorf("CompareLabels(%q, %q) = %d, want %d", a, b, got, want)
		}
		if got := CompareLabels(b, a); got != -want {
			t.Errorf("CompareLabels(%q, %q) = %d, want %d", b, a, got, -want)
		}
	}
	check("2", "10", -1)
	check("10", "10", 0)
	check("-1", "0.5", -1)
	check("100", "abc", -1)
	check("abc", "abd", -1)
	check("NaN", "abc", -1)
	check("5", "NaN", -1)
	check("1", "1.0", -1)
}

func TestLabels(t *testing.T) {
	labels := []string{"18", "control", "3", "0", "100", "10", "3"}
	got := UniqueLabels(labels)
	want := []string{"0", "3", "10", "18", "100", "control"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueLabels: want %q, got %q", want, got)
	}

	if !SameLabel("0", "0.0") || !SameLabel("a", "a") || SameLabel("a", "b") || SameLabel("1", "2") {
		t.Errorf("SameLabel mismatch")
	}

	for v, want := range map[any]string{0.0: "0", 2.5: "2.5", 7: "7", "x": "x", true: "true"} {
		if got := FormatLabel(v); got != want {
			t.Errorf("FormatLabel(%v) = %q, want %q", v, got, want)
		}
	}

	if got, want := FormatList([]string{"subject1", "subject2"}), "['subject1', 'subject2']"; got != want {
		t.Errorf("FormatList: want %s, got %s", want, got)
	}
}
