// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads run configurations for the pairstat command.
//
// A run configuration is a YAML document naming one test, its inputs
// and parameters, where to write the stats table, and optionally a
// database to archive it in:
//
//	test: wilcoxon-facet
//	inputs:
//	  distribution: gs://my-bucket/runs/shannon
//	ignore_empty_comparator: true
//	output: out/shannon-stats
//	archive:
//	  driver: sqlite3
//	  dsn: results.db
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Tests.
const (
	Wilcoxon          = "wilcoxon"
	MannWhitney       = "mann-whitney"
	WilcoxonFacet     = "wilcoxon-facet"
	MannWhitneyFacet  = "mann-whitney-facet"
	AlphaSignificance = "alpha-significance"
)

// Run is a run configuration.
type Run struct {
	Test   string `yaml:"test" validate:"required,oneof=wilcoxon mann-whitney wilcoxon-facet mann-whitney-facet alpha-significance"`
	Inputs Inputs `yaml:"inputs"`

	// Parameters of the pairwise tests. Empty values take the
	// defaults applied by Parse.
	Compare               string `yaml:"compare" validate:"omitempty,oneof=baseline consecutive reference all-pairwise"`
	BaselineGroup         string `yaml:"baseline_group"`
	ReferenceGroup        string `yaml:"reference_group"`
	Alternative           string `yaml:"alternative" validate:"omitempty,oneof=two-sided greater less"`
	PValApprox            string `yaml:"p_val_approx" validate:"omitempty,oneof=auto exact asymptotic"`
	IgnoreEmptyComparator bool   `yaml:"ignore_empty_comparator"`
	Facet                 string `yaml:"facet" validate:"omitempty,oneof=within across"`

	// Parameters of alpha-significance.
	Columns   []string `yaml:"columns"`
	Subject   string   `yaml:"subject"`
	Timepoint string   `yaml:"timepoint"`

	Parallelism int      `yaml:"parallelism" validate:"gte=0"`
	Output      string   `yaml:"output" validate:"required"`
	Archive     *Archive `yaml:"archive"`
}

// Inputs locates the data resources a run reads. Each is a local
// directory or a gs:// URL.
type Inputs struct {
	Distribution string `yaml:"distribution"`
	AgainstEach  string `yaml:"against_each"`
	Alpha        string `yaml:"alpha"`
	Metadata     string `yaml:"metadata"`
}

// Archive names a database to save the stats table in.
type Archive struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite3 mysql"`
	DSN    string `yaml:"dsn" validate:"required"`

	// Name labels the saved report. It defaults to the test name.
	Name string `yaml:"name"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateRun, Run{})
	return v
}

// validateRun checks the fields whose requirements depend on the test.
func validateRun(sl validator.StructLevel) {
	r := sl.Current().Interface().(Run)
	switch r.Test {
	case AlphaSignificance:
		if r.Inputs.Alpha == "" {
			sl.ReportError(r.Inputs.Alpha, "inputs.alpha", "Alpha", "required", "")
		}
		if r.Inputs.Metadata == "" {
			sl.ReportError(r.Inputs.Metadata, "inputs.metadata", "Metadata", "required", "")
		}
		if len(r.Columns) == 0 {
			sl.ReportError(r.Columns, "columns", "Columns", "required", "")
		}
	case "":
	default:
		if r.Inputs.Distribution == "" {
			sl.ReportError(r.Inputs.Distribution, "inputs.distribution", "Distribution", "required", "")
		}
	}
	if r.Inputs.AgainstEach != "" && r.Test != MannWhitney {
		sl.ReportError(r.Inputs.AgainstEach, "inputs.against_each", "AgainstEach", "excluded_unless", MannWhitney)
	}
	switch r.Compare {
	case "baseline", "consecutive":
		if r.Test != Wilcoxon {
			sl.ReportError(r.Compare, "compare", "Compare", "oneof", "reference all-pairwise")
		}
	case "reference", "all-pairwise":
		if r.Test != MannWhitney {
			sl.ReportError(r.Compare, "compare", "Compare", "oneof", "baseline consecutive")
		}
	}
}

// Load reads the run configuration in the named file.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse decodes and validates a run configuration and fills in
// defaults. Unknown keys are an error.
func Parse(data []byte) (*Run, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	r := new(Run)
	if err := dec.Decode(r); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.setDefaults()
	return r, nil
}

// Validate checks r against its field constraints. Each violated
// constraint is reported as a separate error.
func (r *Run) Validate() error {
	err := validate.Struct(r)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var merr *multierror.Error
	for _, fe := range verrs {
		merr = multierror.Append(merr, fieldError(fe))
	}
	merr.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return "invalid configuration: " + strings.Join(msgs, "; ")
	}
	return merr
}

func fieldError(fe validator.FieldError) error {
	// Drop the root struct name.
	_, field, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return fmt.Errorf("%s must be one of %s, not %q", field, strings.Join(strings.Fields(fe.Param()), ", "), fe.Value())
	case "excluded_unless":
		return fmt.Errorf("%s is only used by %s", field, fe.Param())
	}
	return fmt.Errorf("%s fails %s%s", field, fe.Tag(), param(fe.Param()))
}

func param(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

func (r *Run) setDefaults() {
	if r.Compare == "" {
		switch r.Test {
		case Wilcoxon:
			r.Compare = "baseline"
		case MannWhitney:
			r.Compare = "reference"
		}
	}
	if r.Alternative == "" {
		r.Alternative = "two-sided"
	}
	if r.PValApprox == "" {
		r.PValApprox = "auto"
	}
	if r.Facet == "" && r.Test == MannWhitneyFacet {
		r.Facet = "within"
	}
	if r.Archive != nil && r.Archive.Name == "" {
		r.Archive.Name = r.Test
	}
}
