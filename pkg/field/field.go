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

// Package field reads and writes fixed-offset, fixed-width text fields inside
// binary files. Every byte outside the touched field is left as it was.
package field

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/walteh/kcdutil/pkg/fault"
	"gitlab.com/tozd/go/errors"
)

// 📍 Field locates one text field inside a file
type Field struct {
	Name   string
	Offset int64
	Width  int
}

// End returns the offset just past the field.
func (f Field) End() int64 {
	return f.Offset + int64(f.Width)
}

func (f Field) inBounds(size int64) error {
	if f.Offset < 0 || f.Width <= 0 || f.End() > size {
		return &fault.FormatError{
			Field:  f.Name,
			Reason: fmt.Sprintf("field [%d,%d) lies outside the file (%d bytes)", f.Offset, f.End(), size),
		}
	}
	return nil
}

// Decode turns raw field bytes into text. The value ends at the first NUL.
func Decode(f Field, raw []byte) (string, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	if !utf8.Valid(raw) {
		return "", &fault.FormatError{Field: f.Name, Reason: "field does not hold valid UTF-8 text"}
	}
	return string(raw), nil
}

// Encode renders text as exactly f.Width bytes, NUL padded.
func Encode(f Field, text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, &fault.FormatError{Field: f.Name, Reason: "value is not valid UTF-8"}
	}
	if bytes.IndexByte([]byte(text), 0) >= 0 {
		return nil, &fault.FormatError{Field: f.Name, Reason: "value contains a NUL byte"}
	}
	if len(text) > f.Width {
		return nil, &fault.FieldTooLargeError{Field: f.Name, Required: len(text), Available: f.Width}
	}
	buf := make([]byte, f.Width)
	copy(buf, text)
	return buf, nil
}

// Read decodes f from r, where size is the total length of r.
func Read(r io.ReaderAt, size int64, f Field) (string, error) {
	if err := f.inBounds(size); err != nil {
		return "", err
	}
	raw := make([]byte, f.Width)
	if _, err := r.ReadAt(raw, f.Offset); err != nil && !(errors.Is(err, io.EOF) && f.End() == size) {
		return "", errors.Errorf("reading field %s: %w", f.Name, err)
	}
	return Decode(f, raw)
}

// Write overwrites f in w with text. The value is encoded and bounds-checked
// before anything is written.
func Write(w io.WriterAt, size int64, f Field, text string) error {
	buf, err := Encode(f, text)
	if err != nil {
		return err
	}
	if err := f.inBounds(size); err != nil {
		return err
	}
	n, err := w.WriteAt(buf, f.Offset)
	if err != nil {
		return errors.Errorf("writing field %s: %w", f.Name, err)
	}
	if n != len(buf) {
		return errors.Errorf("writing field %s: short write (%d of %d bytes)", f.Name, n, len(buf))
	}
	return nil
}

// Patch overwrites f inside buf.
func Patch(buf []byte, f Field, text string) error {
	enc, err := Encode(f, text)
	if err != nil {
		return err
	}
	if err := f.inBounds(int64(len(buf))); err != nil {
		return err
	}
	copy(buf[f.Offset:f.End()], enc)
	return nil
}

// ReadFile decodes f from the file at path.
func ReadFile(path string, f Field) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fault.IO("open", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fault.IO("stat", path, err)
	}

	value, err := Read(file, info.Size(), f)
	if err != nil {
		return "", fault.SetPath(fault.IO("read", path, err), path)
	}
	return value, nil
}

// WriteFile overwrites f inside the file at path.
func WriteFile(path string, f Field, text string) error {
	// encode before opening so a rejected value never touches the file
	if _, err := Encode(f, text); err != nil {
		return fault.SetPath(err, path)
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fault.IO("open", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fault.IO("stat", path, err)
	}

	if err := Write(file, info.Size(), f, text); err != nil {
		return fault.SetPath(fault.IO("write", path, err), path)
	}
	if err := file.Close(); err != nil {
		return fault.IO("close", path, err)
	}
	return nil
}
