// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disttab

import (
	"errors"
	"fmt"
)

// A ValidationError reports invalid parameters or a malformed
// distribution. It is raised before any statistic is computed.
type ValidationError struct {
	Msg string

	// Err, if non-nil, holds the individual problems that make up
	// this error.
	Err error
}

// Errorf returns a *ValidationError with a formatted message.
func Errorf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether any error in err's chain is a
// *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
