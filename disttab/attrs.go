// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disttab

// Attrs is the provenance attached to a column or to a whole table.
//
// Extra holds any keys beyond title and description. They are
// carried through every transform and written back out by storage
// layers, but otherwise uninterpreted.
type Attrs struct {
	Title       string
	Description string
	Extra       map[string]any
}

// Clone returns a deep copy of a, so that updating the copy's Extra
// never affects a.
func (a Attrs) Clone() Attrs {
	if a.Extra == nil {
		return a
	}
	extra := make(map[string]any, len(a.Extra))
	for k, v := range a.Extra {
		extra[k] = v
	}
	a.Extra = extra
	return a
}

// Update returns a copy of a with the non-empty fields of o applied
// on top of it.
func (a Attrs) Update(o Attrs) Attrs {
	a = a.Clone()
	if o.Title != "" {
		a.Title = o.Title
	}
	if o.Description != "" {
		a.Description = o.Description
	}
	for k, v := range o.Extra {
		if a.Extra == nil {
			a.Extra = make(map[string]any)
		}
		a.Extra[k] = v
	}
	return a
}

// TitleOr returns a's title, or def if the title is empty.
func (a Attrs) TitleOr(def string) string {
	if a.Title == "" {
		return def
	}
	return a.Title
}

// IsZero reports whether a carries no provenance at all.
func (a Attrs) IsZero() bool {
	return a.Title == "" && a.Description == "" && len(a.Extra) == 0
}
