// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resultdb archives stats tables in a SQL database.
//
// Each saved table becomes a report with a date-based ID. The table
// is stored whole, with its column provenance, so it can be loaded
// back exactly; the pairwise comparisons of a stats table are also
// stored row by row so they can be filtered in SQL.
package resultdb

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/pairstat/pairstat/dataresource"
	"github.com/pairstat/pairstat/disttab"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// DB is a high-level interface to a report database. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	countReports     *sql.Stmt
	insertReport     *sql.Stmt
	insertColumn     *sql.Stmt
	insertComparison *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a
// connection to driverName. It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Reports (
	ReportID VARCHAR(32) PRIMARY KEY,
	Name VARCHAR(255),
	Title VARCHAR(1024),
	Description TEXT,
	Created BIGINT,
	Content {{if .sqlite3}}BLOB{{else}}LONGBLOB{{end}}
);
CREATE TABLE IF NOT EXISTS ReportColumns (
	ReportID VARCHAR(32),
	Pos INT,
	Name VARCHAR(255),
	Type VARCHAR(16),
	Title VARCHAR(1024),
	Description TEXT,
	Extra TEXT,
	PRIMARY KEY (ReportID, Pos),
	FOREIGN KEY (ReportID) REFERENCES Reports(ReportID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Comparisons (
	ReportID VARCHAR(32),
	RowID INT,
	Facet VARCHAR(255),
	AGroup VARCHAR(255),
	BGroup VARCHAR(255),
	N INT,
	Statistic DOUBLE,
	PValue DOUBLE,
	QValue DOUBLE,
	PRIMARY KEY (ReportID, RowID),
{{if not .sqlite3}}
	Index (ReportID, QValue),
{{end}}
	FOREIGN KEY (ReportID) REFERENCES Reports(ReportID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS ComparisonsQValue ON Comparisons(ReportID, QValue);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.countReports, err = db.sql.Prepare("SELECT COUNT(*) FROM Reports WHERE ReportID LIKE ?")
	if err != nil {
		return err
	}
	db.insertReport, err = db.sql.Prepare("INSERT INTO Reports(ReportID, Name, Title, Description, Created, Content) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertColumn, err = db.sql.Prepare("INSERT INTO ReportColumns(ReportID, Pos, Name, Type, Title, Description, Extra) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertComparison, err = db.sql.Prepare("INSERT INTO Comparisons(ReportID, RowID, Facet, AGroup, BGroup, N, Statistic, PValue, QValue) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing
var now = time.Now

// SaveReport stores t under name and returns the new report's ID.
// IDs have the form YYYYMMDD.n, numbering the reports saved each day
// from 1.
func (db *DB) SaveReport(ctx context.Context, name string, t *disttab.Table) (id string, err error) {
	var content bytes.Buffer
	if err := dataresource.Encode(&content, t); err != nil {
		return "", err
	}
	res := dataresource.Describe(t)

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	created := now().UTC()
	day := created.Format("20060102")
	var n int
	if err := tx.StmtContext(ctx, db.countReports).QueryRowContext(ctx, day+".%").Scan(&n); err != nil {
		return "", err
	}
	id = fmt.Sprintf("%s.%d", day, n+1)

	if _, err := tx.StmtContext(ctx, db.insertReport).ExecContext(ctx,
		id, name, t.Attrs.Title, t.Attrs.Description, created.Unix(), content.Bytes()); err != nil {
		return "", err
	}
	insertColumn := tx.StmtContext(ctx, db.insertColumn)
	for pos, f := range res.Schema.Fields {
		extra, err := json.Marshal(f.Extra)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", f.Name, err)
		}
		if _, err := insertColumn.ExecContext(ctx, id, pos, f.Name, f.Type, f.Title, f.Description, string(extra)); err != nil {
			return "", err
		}
	}

	if isStats(t) {
		rows, err := disttab.StatsRows(t)
		if err != nil {
			return "", err
		}
		facets := make([]string, len(rows))
		if t.Has(disttab.Facet) {
			facets = t.Strings(disttab.Facet)
		}
		insertComparison := tx.StmtContext(ctx, db.insertComparison)
		for i, r := range rows {
			if _, err := insertComparison.ExecContext(ctx, id, i, facets[i], r.AGroup, r.BGroup, r.N,
				nullFloat(r.Statistic), nullFloat(r.P), nullFloat(r.Q)); err != nil {
				return "", err
			}
		}
	}
	return id, nil
}

func isStats(t *disttab.Table) bool {
	for _, col := range disttab.StatsColumns {
		if !t.Has(col) {
			return false
		}
	}
	return true
}

// nullFloat stores NaN as NULL.
func nullFloat(x float64) sql.NullFloat64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: x, Valid: true}
}

func floatOrNaN(x sql.NullFloat64) float64 {
	if !x.Valid {
		return math.NaN()
	}
	return x.Float64
}

// A Report is a saved table.
type Report struct {
	ID      string
	Name    string
	Created time.Time
	Table   *disttab.Table
}

// Report loads the report with the given ID.
func (db *DB) Report(ctx context.Context, id string) (*Report, error) {
	r := &Report{ID: id}
	var (
		created int64
		content []byte
		tattrs  disttab.Attrs
	)
	err := db.sql.QueryRowContext(ctx, "SELECT Name, Title, Description, Created, Content FROM Reports WHERE ReportID = ?", id).
		Scan(&r.Name, &tattrs.Title, &tattrs.Description, &created, &content)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	r.Created = time.Unix(created, 0).UTC()

	rows, err := db.sql.QueryContext(ctx, "SELECT Name, Type, Title, Description, Extra FROM ReportColumns WHERE ReportID = ? ORDER BY Pos", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := &dataresource.Resource{Title: tattrs.Title, Description: tattrs.Description, Path: dataresource.DataFile}
	for rows.Next() {
		var (
			f     dataresource.Field
			extra string
		)
		if err := rows.Scan(&f.Name, &f.Type, &f.Title, &f.Description, &extra); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(extra), &f.Extra); err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		res.Schema.Fields = append(res.Schema.Fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.Table, err = dataresource.Decode(bytes.NewReader(content), res)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", id, err)
	}
	return r, nil
}

// A Summary describes a saved report.
type Summary struct {
	ID      string
	Name    string
	Title   string
	Created time.Time

	// Comparisons is the number of pairwise comparisons in the
	// report, or 0 if it is not a stats table.
	Comparisons int
}

// ListReports returns a summary of every report, oldest first.
func (db *DB) ListReports(ctx context.Context) ([]Summary, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT r.ReportID, r.Name, r.Title, r.Created, COUNT(c.RowID)
FROM Reports r LEFT JOIN Comparisons c ON r.ReportID = c.ReportID
GROUP BY r.ReportID, r.Name, r.Title, r.Created
ORDER BY r.Created, r.ReportID`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var (
			s       Summary
			created int64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Title, &created, &s.Comparisons); err != nil {
			return nil, err
		}
		s.Created = time.Unix(created, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// A Comparison is one row of a saved stats table.
type Comparison struct {
	Facet          string
	AGroup, BGroup string
	N              int
	Statistic      float64
	P, Q           float64
}

// Comparisons returns the comparisons of report id whose q-value is at
// most maxQ, in table order. Comparisons without a q-value are never
// returned.
func (db *DB) Comparisons(ctx context.Context, id string, maxQ float64) ([]Comparison, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT Facet, AGroup, BGroup, N, Statistic, PValue, QValue FROM Comparisons
WHERE ReportID = ? AND QValue IS NOT NULL AND QValue <= ?
ORDER BY RowID`, id, maxQ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Comparison
	for rows.Next() {
		var (
			c          Comparison
			stat, p, q sql.NullFloat64
		)
		if err := rows.Scan(&c.Facet, &c.AGroup, &c.BGroup, &c.N, &stat, &p, &q); err != nil {
			return nil, err
		}
		c.Statistic, c.P, c.Q = floatOrNaN(stat), floatOrNaN(p), floatOrNaN(q)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.countReports, db.insertReport, db.insertColumn, db.insertComparison} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
