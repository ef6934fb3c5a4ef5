// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataresource

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/pairstat/pairstat/disttab"
)

func stats() *disttab.Table {
	return disttab.NewStats([]disttab.StatsRow{
		{AGroup: "1", AN: 4, AMeasure: 0.5, BGroup: "2", BN: 4, BMeasure: 0.7, N: 4, Statistic: 1, P: 0.25, Q: 0.5},
		{AGroup: "2", AN: 4, AMeasure: 0.7, BGroup: "3", BN: 3, BMeasure: math.NaN(), N: 0, Statistic: math.NaN(), P: math.NaN(), Q: math.NaN()},
	}).WithTableAttrs(disttab.Attrs{Title: "week"}).
		SetAttrs(disttab.PValue, disttab.Attrs{
			Title:       "Wilcoxon signed-rank test",
			Description: "p",
			Extra:       map[string]any{"unit": "probability"},
		})
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "stats")
	want := stats()
	require.NoError(t, WriteTo(ctx, dir, want))

	got, err := ReadFrom(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, want.Columns(), got.Columns())
	assert.Equal(t, "week", got.Attrs.Title)
	assert.Equal(t, []int{4, 3}, got.Column(disttab.BN))
	assert.Equal(t, []string{"1", "2"}, got.Column(disttab.AGroup))
	qs, err := got.Floats(disttab.QValue)
	require.NoError(t, err)
	assert.Equal(t, 0.5, qs[0])
	assert.True(t, math.IsNaN(qs[1]))

	pa := got.ColumnAttrs(disttab.PValue)
	assert.Equal(t, "Wilcoxon signed-rank test", pa.Title)
	assert.Equal(t, "p", pa.Description)
	assert.Equal(t, map[string]any{"unit": "probability"}, pa.Extra)

	// NaN is stored as null.
	data, err := os.ReadFile(filepath.Join(dir, DataFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"A:group":"2","A:n":4,"A:measure":0.7,"B:group":"3","B:n":3,"B:measure":null,`+
		`"n":0,"test-statistic":null,"p-value":null,"q-value":null}`, lines[1])

	var res map[string]any
	desc, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(desc, &res))
	assert.Equal(t, "ndjson", res["format"])
	assert.Equal(t, DataFile, res["path"])
	fields := res["schema"].(map[string]any)["fields"].([]any)
	assert.Equal(t, map[string]any{
		"name": "p-value", "type": "number", "title": "Wilcoxon signed-rank test",
		"description": "p", "unit": "probability",
	}, fields[8])
	assert.Equal(t, "integer", fields[1].(map[string]any)["type"])
	assert.Equal(t, "string", fields[0].(map[string]any)["type"])
}

func TestDecode(t *testing.T) {
	res := &Resource{Path: DataFile, Schema: Schema{Fields: []Field{
		{Name: "id", Type: String, Title: "sample"},
		{Name: "measure", Type: Number},
		{Name: "group", Type: Integer},
	}}}
	rows := `{"id":"a","measure":1,"group":3,"subject":"x"}
{"id":"b","measure":null,"group":null,"weight":2.5,"age":4}
{"id":7,"measure":2.5,"group":1}
`
	tab, err := Decode(strings.NewReader(rows), res)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "measure", "group", "subject", "age", "weight"}, tab.Columns())
	assert.Equal(t, []string{"a", "b", "7"}, tab.Column("id"))
	assert.Equal(t, "sample", tab.ColumnAttrs("id").Title)

	ms := tab.Column("measure").([]float64)
	assert.Equal(t, 1.0, ms[0])
	assert.True(t, math.IsNaN(ms[1]))

	// A null integer turns the column into numbers.
	gs := tab.Column("group").([]float64)
	assert.Equal(t, 3.0, gs[0])
	assert.True(t, math.IsNaN(gs[1]))

	assert.Equal(t, []string{"x", "", ""}, tab.Column("subject"))
	assert.IsType(t, []float64(nil), tab.Column("weight"))
	// age is integral but missing from two rows.
	assert.IsType(t, []float64(nil), tab.Column("age"))

	// Empty data still has the schema's columns.
	tab, err = Decode(strings.NewReader(""), res)
	require.NoError(t, err)
	assert.Equal(t, 0, tab.Len())
	assert.Equal(t, []string{"id", "measure", "group"}, tab.Columns())
	assert.IsType(t, []int(nil), tab.Column("group"))

	_, err = Decode(strings.NewReader(`{"measure":"high"}`), res)
	assert.ErrorContains(t, err, `column "measure": row 1: want number, got string`)

	_, err = Decode(strings.NewReader(`{"id":`), res)
	assert.ErrorContains(t, err, "row 1")
}

func TestFieldJSON(t *testing.T) {
	var f Field
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","type":"number","title":"X","format":"default"}`), &f))
	assert.Equal(t, Field{Name: "x", Type: Number, Title: "X", Extra: map[string]any{"format": "default"}}, f)

	assert.ErrorContains(t, json.Unmarshal([]byte(`{"type":"number"}`), &f), "no name")
	assert.ErrorContains(t, json.Unmarshal([]byte(`{"name":"x","type":"date"}`), &f), `unsupported type "date"`)
	assert.ErrorContains(t, json.Unmarshal([]byte(`{"name":1}`), &f), "want string")

	data, err := json.Marshal(Field{Name: "x", Type: String})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","type":"string"}`, string(data))
}

func TestEncodeColumnOrder(t *testing.T) {
	tab := disttab.NewBuilder(nil).
		Add("z", []string{"a"}, disttab.Attrs{}).
		Add("a", []int64{2}, disttab.Attrs{}).
		Add("m", []float64{math.Inf(1)}, disttab.Attrs{}).
		Done()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tab))
	assert.Equal(t, "{\"z\":\"a\",\"a\":2,\"m\":null}\n", buf.String())
}

func TestReadErrors(t *testing.T) {
	ctx := context.Background()
	_, err := ReadFrom(ctx, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFile), []byte(`{"format":"csv","schema":{"fields":[]}}`), 0666))
	_, err = ReadFrom(ctx, dir)
	assert.ErrorContains(t, err, `unsupported format "csv"`)
}

func TestOpenGCS(t *testing.T) {
	ctx := context.Background()
	_, err := Open(ctx, "gs:///x")
	assert.ErrorContains(t, err, "invalid Cloud Storage location")

	s, err := Open(ctx, "gs://results/runs/week1/", option.WithoutAuthentication())
	require.NoError(t, err)
	defer s.Close()
	g, ok := s.(*GCS)
	require.True(t, ok)
	obj := g.object(DataFile)
	assert.Equal(t, "results", obj.BucketName())
	assert.Equal(t, "runs/week1/data.ndjson", obj.ObjectName())

	s, err = Open(ctx, "local/dir")
	require.NoError(t, err)
	assert.Equal(t, Dir("local/dir"), s)
}
