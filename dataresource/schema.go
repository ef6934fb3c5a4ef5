// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataresource

import (
	"encoding/json"
	"fmt"

	"github.com/pairstat/pairstat/disttab"
)

// Field types.
const (
	Number  = "number"
	Integer = "integer"
	String  = "string"
)

// A Field describes one column of a data resource.
type Field struct {
	Name        string
	Type        string
	Title       string
	Description string

	// Extra holds any other keys of the field descriptor. They are
	// preserved as column attributes.
	Extra map[string]any
}

// Attrs returns f's descriptor as column attributes.
func (f Field) Attrs() disttab.Attrs {
	return disttab.Attrs{Title: f.Title, Description: f.Description, Extra: f.Extra}.Clone()
}

func (f Field) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(f.Extra)+4)
	for k, v := range f.Extra {
		m[k] = v
	}
	m["name"] = f.Name
	m["type"] = f.Type
	if f.Title != "" {
		m["title"] = f.Title
	}
	if f.Description != "" {
		m["description"] = f.Description
	}
	return json.Marshal(m)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*f = Field{}
	for k, v := range m {
		switch k {
		case "name", "type", "title", "description":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("field key %q: want string, got %T", k, v)
			}
			switch k {
			case "name":
				f.Name = s
			case "type":
				f.Type = s
			case "title":
				f.Title = s
			case "description":
				f.Description = s
			}
		default:
			if f.Extra == nil {
				f.Extra = make(map[string]any)
			}
			f.Extra[k] = v
		}
	}
	if f.Name == "" {
		return fmt.Errorf("field has no name")
	}
	switch f.Type {
	case "", Number, Integer, String:
	default:
		return fmt.Errorf("field %q: unsupported type %q", f.Name, f.Type)
	}
	return nil
}

// A Resource is the descriptor stored in dataresource.json.
type Resource struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format"`
	Path        string `json:"path"`
	Schema      Schema `json:"schema"`
}

// A Schema lists the fields of a data resource in column order.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Field returns the field named name, if any.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
