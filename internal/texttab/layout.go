// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texttab lays out tables of text for fixed-width terminals.
package texttab

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// Layout collects cells by row and column and formats them with
// aligned columns. Its methods return the Layout so calls can be
// chained.
type Layout struct {
	cells  []cell
	cols   int
	shrink map[int]bool

	row, col int
}

type cell struct {
	row, col, span int
	value          string
	margin         string
	align          Align
}

// Align positions a cell's value within its width.
type Align int

const (
	Left Align = iota
	Center
	Right
)

func (a Align) pad(s string, w int) string {
	n := utf8.RuneCountInString(s)
	switch a {
	case Center:
		return strings.Repeat(" ", max((w-n)/2, 0)) + s
	case Right:
		return strings.Repeat(" ", max(w-n, 0)) + s
	}
	return s
}

// An Option adjusts a single cell.
type Option func(c *cell)

// Margin sets the text printed before a cell. Every cell in a column
// is indented by the widest margin in that column.
func Margin(m string) Option {
	return func(c *cell) { c.margin = m }
}

// Aligned sets a cell's alignment.
func Aligned(a Align) Option {
	return func(c *cell) { c.align = a }
}

// Row starts a new row.
func (l *Layout) Row() *Layout {
	if len(l.cells) > 0 {
		l.row++
	}
	l.col = 0
	return l
}

// Col moves to column col of the current row. Columns are numbered
// from 0 and can only be visited left to right.
func (l *Layout) Col(col int) *Layout {
	if col < l.col {
		panic(fmt.Sprintf("texttab: cannot move back from column %d to %d", l.col, col))
	}
	l.col = col
	return l
}

// Cell adds a one-column cell at the current position.
func (l *Layout) Cell(value string, opts ...Option) *Layout {
	return l.Span(1, value, opts...)
}

// Span adds a cell covering cols columns at the current position.
// Cells after the first in a row get a one-space margin unless they
// are empty.
func (l *Layout) Span(cols int, value string, opts ...Option) *Layout {
	c := cell{row: l.row, col: l.col, span: cols, value: value}
	if l.col > 0 && value != "" {
		c.margin = " "
	}
	for _, o := range opts {
		o(&c)
	}
	l.cells = append(l.cells, c)
	l.col += cols
	l.cols = max(l.cols, l.col)
	return l
}

// Shrink marks col as a column that spans never widen.
func (l *Layout) Shrink(col int) *Layout {
	if l.shrink == nil {
		l.shrink = make(map[int]bool)
	}
	l.shrink[col] = true
	return l
}

// widths returns the width of each column, including its margin.
func (l *Layout) widths(margins []int) []int {
	ws := make([]int, l.cols)
	cells := append([]cell(nil), l.cells...)
	// Narrow cells settle the column widths before spans are
	// fitted over them.
	sort.SliceStable(cells, func(i, j int) bool { return cells[i].span < cells[j].span })
	var grow []int
	for _, c := range cells {
		need := utf8.RuneCountInString(c.value) + margins[c.col]
		if c.span == 1 {
			ws[c.col] = max(ws[c.col], need)
			continue
		}
		have := 0
		for col := c.col; col < c.col+c.span; col++ {
			have += ws[col]
		}
		if have >= need {
			continue
		}
		// Spread the shortfall over the growable columns,
		// widest first, so columns already above the average
		// keep their width and the rest share what remains.
		grow = grow[:0]
		for col := c.col; col < c.col+c.span; col++ {
			if l.shrink[col] {
				need -= ws[col]
			} else {
				grow = append(grow, col)
			}
		}
		sort.Slice(grow, func(i, j int) bool { return ws[grow[i]] > ws[grow[j]] })
		for i, col := range grow {
			left := len(grow) - i
			ws[col] = max(ws[col], (need+left-1)/left)
			need -= ws[col]
		}
	}
	return ws
}

// Format writes the laid out table to w. Trailing empty cells are
// not printed, so lines carry no trailing spaces.
func (l *Layout) Format(w io.Writer) error {
	margins := make([]int, l.cols)
	for _, c := range l.cells {
		margins[c.col] = max(margins[c.col], utf8.RuneCountInString(c.margin))
	}
	ws := l.widths(margins)
	offs := make([]int, l.cols+1)
	for i, w := range ws {
		offs[i+1] = offs[i] + w
	}

	cells := append([]cell(nil), l.cells...)
	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].row != cells[j].row {
			return cells[i].row < cells[j].row
		}
		return cells[i].col < cells[j].col
	})
	var b strings.Builder
	row, off := 0, 0
	for _, c := range cells {
		if strings.TrimSpace(c.value) == "" && strings.TrimSpace(c.margin) == "" {
			continue
		}
		for ; row < c.row; row++ {
			b.WriteByte('\n')
			off = 0
		}
		b.WriteString(strings.Repeat(" ", offs[c.col]-off))
		b.WriteString(Right.pad(c.margin, margins[c.col]))
		off = offs[c.col] + margins[c.col]

		s := c.align.pad(c.value, offs[c.col+c.span]-off)
		b.WriteString(s)
		off += utf8.RuneCountInString(s)
	}
	if len(cells) > 0 {
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
