// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texttab

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/pairstat/pairstat/disttab"
)

// blockStarts are the columns of a stats table that begin a new block
// and get a vertical rule on their left.
var blockStarts = map[string]bool{
	disttab.AGroup: true,
	disttab.BGroup: true,
	disttab.N:      true,
}

// WriteTable renders t to w, assuming a fixed-width font. The first
// header row names the columns and the second gives their titles, if
// any column has one. A run of rows with the same facet shows the
// facet once. warnings are listed as numbered notes below the table.
func WriteTable(w io.Writer, t *disttab.Table, warnings []error) error {
	var o Layout
	cols := t.Columns()
	numeric := make([]bool, len(cols))
	text := make([][]string, len(cols))
	hasTitles := false
	for i, col := range cols {
		numeric[i], text[i] = formatColumn(t, col)
		if title := t.ColumnAttrs(col).Title; title != "" && title != col {
			hasTitles = true
		}
	}
	opts := func(i int) []Option {
		var opts []Option
		if i > 0 && blockStarts[cols[i]] {
			opts = append(opts, Margin(" │ "))
		}
		if numeric[i] {
			opts = append(opts, Aligned(Right))
		}
		return opts
	}

	o.Row()
	for i, col := range cols {
		o.Cell(col, opts(i)...)
	}
	if hasTitles {
		o.Row()
		for i, col := range cols {
			title := t.ColumnAttrs(col).Title
			if title == col {
				title = ""
			}
			o.Cell(title, opts(i)...)
		}
	}
	for r := 0; r < t.Len(); r++ {
		o.Row()
		for i, col := range cols {
			v := text[i][r]
			if col == disttab.Facet && r > 0 && v == text[i][r-1] {
				v = ""
			}
			o.Cell(v, opts(i)...)
		}
	}
	if err := o.Format(w); err != nil {
		return err
	}

	for i, warning := range warnings {
		if _, err := fmt.Fprintf(w, "%s %s\n", superscript(i+1), warning); err != nil {
			return err
		}
	}
	return nil
}

// formatColumn formats the values of col for display and reports
// whether they are numbers.
func formatColumn(t *disttab.Table, col string) (numeric bool, text []string) {
	switch data := t.Column(col).(type) {
	case []float64:
		text = make([]string, len(data))
		for i, x := range data {
			text[i] = formatFloat(x)
		}
		return true, text
	case []int, []int64:
		return true, t.Strings(col)
	}
	return false, t.Strings(col)
}

func formatFloat(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return strconv.FormatFloat(x, 'g', 4, 64)
}

// WriteCSV writes t to o with one header row of column names. Floats
// are written at full precision and NaN as an empty field.
func WriteCSV(o *csv.Writer, t *disttab.Table) error {
	cols := t.Columns()
	if err := o.Write(cols); err != nil {
		return err
	}
	text := make([][]string, len(cols))
	for i, col := range cols {
		if data, ok := t.Column(col).([]float64); ok {
			text[i] = make([]string, len(data))
			for j, x := range data {
				if !math.IsNaN(x) {
					text[i][j] = strconv.FormatFloat(x, 'g', -1, 64)
				}
			}
			continue
		}
		text[i] = t.Strings(col)
	}
	row := make([]string, len(cols))
	for r := 0; r < t.Len(); r++ {
		for i := range cols {
			row[i] = text[i][r]
		}
		if err := o.Write(row); err != nil {
			return err
		}
	}
	o.Flush()
	return o.Error()
}

var superDigits = []rune("⁰¹²³⁴⁵⁶⁷⁸⁹")

func superscript(i int) string {
	if i == 0 {
		return string(superDigits[0])
	}
	var buf [20]rune
	pos := len(buf)
	for i > 0 && pos > 0 {
		pos--
		buf[pos] = superDigits[i%10]
		i /= 10
	}
	return string(buf[pos:])
}
