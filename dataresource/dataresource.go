// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataresource reads and writes tables as tabular data
// resources: a directory holding newline-delimited JSON rows in
// data.ndjson and a descriptor in dataresource.json.
//
// The descriptor's schema lists each column's name, type, title, and
// description, plus any other keys, which round-trip through the
// column attributes of a disttab.Table. Number columns read as
// []float64 with null as NaN, integer columns as []int, and string
// columns as []string.
package dataresource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/pairstat/pairstat/disttab"
)

const (
	// DescriptorFile is the name of the resource descriptor.
	DescriptorFile = "dataresource.json"

	// DataFile is the default name of the row data.
	DataFile = "data.ndjson"
)

// Read reads the table stored in s.
func Read(ctx context.Context, s Store) (*disttab.Table, error) {
	res, err := readDescriptor(ctx, s)
	if err != nil {
		return nil, err
	}
	r, err := s.Reader(ctx, res.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Decode(r, res)
}

func readDescriptor(ctx context.Context, s Store) (*Resource, error) {
	r, err := s.Reader(ctx, DescriptorFile)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	res := new(Resource)
	if err := json.NewDecoder(r).Decode(res); err != nil {
		return nil, fmt.Errorf("%s: %w", DescriptorFile, err)
	}
	if res.Format != "" && res.Format != "ndjson" {
		return nil, fmt.Errorf("%s: unsupported format %q", DescriptorFile, res.Format)
	}
	if res.Path == "" {
		res.Path = DataFile
	}
	return res, nil
}

// column accumulates the decoded values of one column.
type column struct {
	name  string
	vals  []any
	field Field
}

// Decode reads newline-delimited JSON rows from r and builds a table
// described by res. Columns appear in schema order, followed by any
// unlisted keys in order of first appearance (by name within a row).
// Unlisted columns have their type inferred from their values.
func Decode(r io.Reader, res *Resource) (*disttab.Table, error) {
	var cols []*column
	byName := make(map[string]*column)
	for _, f := range res.Schema.Fields {
		if _, ok := byName[f.Name]; ok {
			return nil, fmt.Errorf("%s: duplicate field %q", DescriptorFile, f.Name)
		}
		c := &column{name: f.Name, field: f}
		cols = append(cols, c)
		byName[f.Name] = c
	}

	dec := json.NewDecoder(bufio.NewReader(r))
	dec.UseNumber()
	nrows := 0
	for {
		var row map[string]any
		err := dec.Decode(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", res.Path, nrows+1, err)
		}
		var added []string
		for name := range row {
			if _, ok := byName[name]; !ok {
				added = append(added, name)
			}
		}
		sort.Strings(added)
		for _, name := range added {
			c := &column{name: name, field: Field{Name: name}, vals: make([]any, nrows)}
			cols = append(cols, c)
			byName[name] = c
		}
		for _, c := range cols {
			c.vals = append(c.vals, row[c.name])
		}
		nrows++
	}
	b := disttab.NewBuilder(nil).SetTableAttrs(disttab.Attrs{Title: res.Title, Description: res.Description})
	for _, c := range cols {
		typ := c.field.Type
		if typ == "" {
			typ = infer(c.vals)
		}
		data, err := convert(c.vals, typ)
		if err != nil {
			return nil, fmt.Errorf("%s: column %q: %w", res.Path, c.name, err)
		}
		b.Add(c.name, data, c.field.Attrs())
	}
	return b.Done(), nil
}

// infer returns the narrowest type that holds every value in vals.
func infer(vals []any) string {
	typ := Integer
	for _, v := range vals {
		switch v := v.(type) {
		case nil:
		case json.Number:
			if _, err := v.Int64(); err != nil {
				typ = Number
			}
		default:
			return String
		}
	}
	return typ
}

func convert(vals []any, typ string) (any, error) {
	switch typ {
	case Integer:
		out := make([]int, len(vals))
		for i, v := range vals {
			n, ok := v.(json.Number)
			if !ok {
				// Nulls force the column to float, as
				// integers have no missing value.
				if v == nil {
					return convert(vals, Number)
				}
				return nil, fmt.Errorf("row %d: want integer, got %T", i+1, v)
			}
			x, err := strconv.Atoi(n.String())
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			out[i] = x
		}
		return out, nil
	case Number:
		out := make([]float64, len(vals))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				out[i] = math.NaN()
			case json.Number:
				x, err := v.Float64()
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", i+1, err)
				}
				out[i] = x
			default:
				return nil, fmt.Errorf("row %d: want number, got %T", i+1, v)
			}
		}
		return out, nil
	case String:
		out := make([]string, len(vals))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
			case string:
				out[i] = v
			case json.Number:
				out[i] = v.String()
			default:
				out[i] = fmt.Sprint(v)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type %q", typ)
}

// Write stores t in s.
func Write(ctx context.Context, s Store, t *disttab.Table) error {
	res := Describe(t)
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return err
	}
	if err := put(ctx, s, res.Path, buf.Bytes()); err != nil {
		return err
	}
	desc, err := json.MarshalIndent(res, "", "    ")
	if err != nil {
		return err
	}
	return put(ctx, s, DescriptorFile, append(desc, '\n'))
}

func put(ctx context.Context, s Store, name string, data []byte) error {
	w, err := s.Writer(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Join(err, w.Close())
	}
	return w.Close()
}

// Describe returns the resource descriptor of t.
func Describe(t *disttab.Table) *Resource {
	res := &Resource{
		Title:       t.Attrs.Title,
		Description: t.Attrs.Description,
		Format:      "ndjson",
		Path:        DataFile,
	}
	for _, col := range t.Columns() {
		a := t.ColumnAttrs(col)
		res.Schema.Fields = append(res.Schema.Fields, Field{
			Name:        col,
			Type:        typeOf(t.Column(col)),
			Title:       a.Title,
			Description: a.Description,
			Extra:       a.Extra,
		})
	}
	return res
}

func typeOf(data any) string {
	switch data.(type) {
	case []float64:
		return Number
	case []int, []int64:
		return Integer
	}
	return String
}

// Encode writes the rows of t to w as newline-delimited JSON objects
// with keys in column order. NaN and infinite numbers are written as
// null.
func Encode(w io.Writer, t *disttab.Table) error {
	cols := t.Columns()
	enc := make([]func(i int) ([]byte, error), len(cols))
	for j, col := range cols {
		enc[j] = encoder(t, col)
	}
	bw := bufio.NewWriter(w)
	for i := 0; i < t.Len(); i++ {
		bw.WriteByte('{')
		for j, col := range cols {
			if j > 0 {
				bw.WriteByte(',')
			}
			key, _ := json.Marshal(col)
			bw.Write(key)
			bw.WriteByte(':')
			val, err := enc[j](i)
			if err != nil {
				return fmt.Errorf("column %q: %w", col, err)
			}
			bw.Write(val)
		}
		bw.WriteString("}\n")
	}
	return bw.Flush()
}

func encoder(t *disttab.Table, col string) func(int) ([]byte, error) {
	switch data := t.Column(col).(type) {
	case []float64:
		return func(i int) ([]byte, error) {
			if math.IsNaN(data[i]) || math.IsInf(data[i], 0) {
				return []byte("null"), nil
			}
			return json.Marshal(data[i])
		}
	case []int:
		return func(i int) ([]byte, error) { return json.Marshal(data[i]) }
	case []int64:
		return func(i int) ([]byte, error) { return json.Marshal(data[i]) }
	}
	strs := t.Strings(col)
	return func(i int) ([]byte, error) { return json.Marshal(strs[i]) }
}
