// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texttab

import (
	"encoding/csv"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pairstat/pairstat/disttab"
	"github.com/pairstat/pairstat/internal/diff"
)

func sample() *disttab.Table {
	return disttab.NewBuilder(nil).
		Add(disttab.Facet, []string{"f1", "f1", "f2"}, disttab.Attrs{Title: "week"}).
		Add(disttab.AGroup, []string{"1", "2", "1"}, disttab.Attrs{}).
		Add(disttab.PValue, []float64{0.03125, math.NaN(), 1}, disttab.Attrs{Title: "Wilcoxon"}).
		Done()
}

func TestWriteTable(t *testing.T) {
	sp := func(n int) string { return strings.Repeat(" ", n) }
	want := "facet │ A:group  p-value\n" +
		"week  │" + sp(9) + "Wilcoxon\n" +
		"f1    │ 1" + sp(8) + "0.03125\n" +
		"      │ 2" + sp(12) + "NaN\n" +
		"f2    │ 1" + sp(14) + "1\n" +
		"¹ facet f1: 1 vs 2: all differences are zero\n"

	var buf strings.Builder
	warnings := []error{errors.New("facet f1: 1 vs 2: all differences are zero")}
	if err := WriteTable(&buf, sample(), warnings); err != nil {
		t.Fatal(err)
	}
	if d := diff.Diff(buf.String(), want); d != "" {
		t.Errorf("wrong table: (- have/+ want)\n%s", d)
	}

	// Without titles there is one header row.
	buf.Reset()
	tab := disttab.NewBuilder(nil).Add("n", []int{3, 12}, disttab.Attrs{}).Done()
	if err := WriteTable(&buf, tab, nil); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), " n\n 3\n12\n"; got != want {
		t.Errorf("want:\n%sgot:\n%s", want, got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(csv.NewWriter(&buf), sample()); err != nil {
		t.Fatal(err)
	}
	want := "facet,A:group,p-value\nf1,1,0.03125\nf1,2,\nf2,1,1\n"
	if got := buf.String(); got != want {
		t.Errorf("want:\n%sgot:\n%s", want, got)
	}
}

func TestSuperscript(t *testing.T) {
	for i, want := range map[int]string{0: "⁰", 1: "¹", 12: "¹²", 305: "³⁰⁵"} {
		if got := superscript(i); got != want {
			t.Errorf("superscript(%d) = %q, want %q", i, got, want)
		}
	}
}
