// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fault defines the error kinds every kcdutil command can fail with.
package fault

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// 📐 FormatError reports a file that does not match the expected layout
type FormatError struct {
	Path   string
	Field  string
	Reason string
}

func (e *FormatError) Error() string {
	msg := "invalid format"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Field != "" {
		msg += " (field " + e.Field + ")"
	}
	return msg + ": " + e.Reason
}

// 📏 FieldTooLargeError reports a value that does not fit its fixed-width field
type FieldTooLargeError struct {
	Path      string
	Field     string
	Required  int
	Available int
}

func (e *FieldTooLargeError) Error() string {
	where := e.Field
	if e.Path != "" {
		where = e.Path + ": " + e.Field
	}
	return fmt.Sprintf("value for %s needs %d bytes but the field holds %d", where, e.Required, e.Available)
}

// 🔗 DanglingReferenceError reports a reference whose target does not exist
type DanglingReferenceError struct {
	Path  string
	Role  string
	Label string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s: %s reference %q points at a missing file", e.Path, e.Role, e.Label)
}

// 💾 IoError wraps an underlying read, write or copy failure
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// 🚧 AlreadyExistsError reports a destination collision
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists (use --overwrite to replace it)", e.Path)
}

// IO wraps err as an IoError unless it already carries a fault kind.
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != "" {
		return err
	}
	return &IoError{Op: op, Path: path, Err: err}
}

// SetPath fills the file path of a codec error that was raised without one.
func SetPath(err error, path string) error {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Path == "" {
		fe.Path = path
	}
	var fl *FieldTooLargeError
	if errors.As(err, &fl) && fl.Path == "" {
		fl.Path = path
	}
	return err
}

// Kind names the fault carried by err, or "" when err is not one of ours.
func Kind(err error) string {
	var (
		fe *FormatError
		fl *FieldTooLargeError
		dr *DanglingReferenceError
		ae *AlreadyExistsError
		ie *IoError
	)
	switch {
	case errors.As(err, &fe):
		return "format"
	case errors.As(err, &fl):
		return "field-too-large"
	case errors.As(err, &dr):
		return "dangling-reference"
	case errors.As(err, &ae):
		return "already-exists"
	case errors.As(err, &ie):
		return "io"
	}
	return ""
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch Kind(err) {
	case "format":
		return 2
	case "field-too-large":
		return 3
	case "dangling-reference":
		return 4
	case "already-exists":
		return 5
	case "io":
		return 6
	}
	return 1
}
