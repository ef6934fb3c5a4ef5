// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disttab

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Order describes how the groups of a distribution relate.
type Order int

const (
	// Ordered groups form a sequence, such as timepoints.
	Ordered Order = iota
	// Unordered groups are categories.
	Unordered
	// NestedOrdered distributions carry class and level strata
	// over ordered groups.
	NestedOrdered
	// NestedUnordered distributions carry class and level strata
	// without an ordered group.
	NestedUnordered
	// Multi is an unordered set of several distributions.
	Multi
)

var orderNames = []string{"Ordered", "Unordered", "NestedOrdered", "NestedUnordered", "Multi"}

func (o Order) String() string {
	if o < 0 || int(o) >= len(orderNames) {
		return fmt.Sprintf("Order(%d)", int(o))
	}
	return orderNames[o]
}

// Nested reports whether o carries class and level columns.
func (o Order) Nested() bool {
	return o == NestedOrdered || o == NestedUnordered
}

// Dependence describes whether observations are linked across groups.
type Dependence int

const (
	Independent Dependence = iota
	Matched
)

func (d Dependence) String() string {
	switch d {
	case Independent:
		return "Independent"
	case Matched:
		return "Matched"
	}
	return fmt.Sprintf("Dependence(%d)", int(d))
}

// A Kind is the semantic type of a distribution table.
type Kind struct {
	Order      Order
	Dependence Dependence
}

func (k Kind) String() string {
	return fmt.Sprintf("Dist1D[%s, %s]", k.Order, k.Dependence)
}

// ParseKind parses the String form of a Kind.
func ParseKind(s string) (Kind, error) {
	inner, ok := strings.CutPrefix(strings.TrimSpace(s), "Dist1D[")
	if ok {
		inner, ok = strings.CutSuffix(inner, "]")
	}
	parts := strings.Split(inner, ",")
	if !ok || len(parts) != 2 {
		return Kind{}, Errorf("malformed distribution kind %q", s)
	}
	var k Kind
	order, dep := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	found := false
	for i, name := range orderNames {
		if name == order {
			k.Order, found = Order(i), true
		}
	}
	if !found {
		return Kind{}, Errorf("unknown distribution order %q", order)
	}
	switch dep {
	case "Independent":
		k.Dependence = Independent
	case "Matched":
		k.Dependence = Matched
	default:
		return Kind{}, Errorf("unknown distribution dependence %q", dep)
	}
	return k, nil
}

// RequiredColumns returns the columns a table of kind k must have.
func (k Kind) RequiredColumns() []string {
	cols := []string{ID, Measure}
	switch k.Order {
	case NestedOrdered:
		cols = append(cols, Group, Class, Level)
	case NestedUnordered:
		cols = append(cols, Class, Level)
	default:
		cols = append(cols, Group)
	}
	if k.Dependence == Matched {
		cols = append(cols, Subject)
	}
	return cols
}

// RequireColumns checks that t has every column in cols. All missing
// columns are reported together.
func RequireColumns(t *Table, cols ...string) error {
	var merr *multierror.Error
	for _, col := range cols {
		if !t.Has(col) {
			merr = multierror.Append(merr, fmt.Errorf("%q not found in distribution.", col))
		}
	}
	if merr == nil {
		return nil
	}
	if len(merr.Errors) == 1 {
		return &ValidationError{Msg: merr.Errors[0].Error()}
	}
	merr.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return strings.Join(msgs, " ")
	}
	return &ValidationError{Msg: "distribution is missing required columns", Err: merr}
}

// Validate checks that t is a well-formed distribution of kind k.
func Validate(t *Table, k Kind) error {
	if err := RequireColumns(t, k.RequiredColumns()...); err != nil {
		return err
	}
	if _, err := t.Floats(Measure); err != nil {
		return err
	}
	var strata []string
	if k.Order.Nested() {
		strata = []string{Class}
	}
	if err := checkUnique(t, ID, strata, func(stratum string, dupes []string) error {
		if stratum == "" {
			return Errorf("Duplicate ids found in distribution: %s", FormatList(dupes))
		}
		return Errorf("Duplicate ids found within class [%s]: %s", stratum, FormatList(dupes))
	}); err != nil {
		return err
	}
	if k.Dependence == Matched {
		return CheckUniqueSubjects(t)
	}
	return nil
}

// CheckUniqueSubjects checks that no subject occurs more than once
// within a group. For nested tables, groups are further split by
// class and level.
func CheckUniqueSubjects(t *Table) error {
	if !t.Has(Subject) {
		return Errorf("%q not found in distribution.", Subject)
	}
	var strata []string
	for _, col := range []string{Class, Level, Group} {
		if t.Has(col) {
			strata = append(strata, col)
		}
	}
	return checkUnique(t, Subject, strata, func(stratum string, dupes []string) error {
		return Errorf("Unique subject found more than once within an individual"+
			" group. Group(s) where duplicated subject was found:"+
			" [%s] Duplicated subjects: %s", stratum, FormatList(dupes))
	})
}

// checkUnique reports the first stratum of t (by strata columns) in
// which col has repeated values.
func checkUnique(t *Table, col string, strata []string, report func(stratum string, dupes []string) error) error {
	vals := t.Strings(col)
	keys := make([][]string, len(strata))
	for i, s := range strata {
		keys[i] = t.Strings(s)
	}
	type seenKey struct{ stratum, val string }
	seen := make(map[seenKey]bool)
	var order []string
	dupes := make(map[string][]string)
	for row, v := range vals {
		parts := make([]string, len(strata))
		for i := range strata {
			parts[i] = keys[i][row]
		}
		stratum := strings.Join(parts, ", ")
		k := seenKey{stratum, v}
		if seen[k] {
			if dupes[stratum] == nil {
				order = append(order, stratum)
			}
			dupes[stratum] = append(dupes[stratum], v)
			continue
		}
		seen[k] = true
	}
	if len(order) == 0 {
		return nil
	}
	SortLabels(order)
	return report(order[0], dupes[order[0]])
}
