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

package bundle

import (
	"path/filepath"
	"strings"

	"github.com/walteh/kcdutil/pkg/fault"
)

// 🏷️ Kind is the logical role of a bundle file
type Kind int

const (
	KindVideo Kind = iota
	KindKCD
	KindHDR
	KindRAF
)

func (k Kind) String() string {
	switch k {
	case KindKCD:
		return "kcd"
	case KindHDR:
		return "hdr"
	case KindRAF:
		return "raf"
	default:
		return "video"
	}
}

// Ext returns the file extension for k, including the dot.
func (k Kind) Ext() string {
	if k == KindVideo {
		return ""
	}
	return "." + k.String()
}

// Detect derives the kind of path from its extension.
func Detect(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kcd":
		return KindKCD
	case ".hdr":
		return KindHDR
	case ".raf":
		return KindRAF
	default:
		return KindVideo
	}
}

// 📄 FileRef identifies one bundle member
type FileRef struct {
	Path string
	Kind Kind
}

// NewFileRef cleans path and detects its kind.
func NewFileRef(path string) FileRef {
	return FileRef{Path: filepath.Clean(path), Kind: Detect(path)}
}

// Stem returns the file name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ValidateLabel rejects labels that cannot name a bundle.
func ValidateLabel(label string) error {
	reason := ""
	switch {
	case label == "":
		reason = "label is empty"
	case strings.TrimSpace(label) != label:
		reason = "label has leading or trailing whitespace"
	case label == "." || label == "..":
		reason = "label must not be a relative directory name"
	case strings.ContainsAny(label, "\\/\x00:"):
		reason = "label must not contain path separators, colons or NUL"
	}
	if reason != "" {
		return &fault.FormatError{Field: "label", Reason: reason + ": " + label}
	}
	return nil
}

// 🗂️ Layout is the standard on-disk arrangement of one labelled bundle:
//
//	<dir>/<label>.kcd
//	<dir>/<label>.raf
//	<dir>/<label>/<label>.hdr
//	<dir>/<label>/<videos>
type Layout struct {
	Dir   string
	Label string
}

func (l Layout) KCD() string    { return filepath.Join(l.Dir, l.Label+".kcd") }
func (l Layout) RAF() string    { return filepath.Join(l.Dir, l.Label+".raf") }
func (l Layout) Folder() string { return filepath.Join(l.Dir, l.Label) }
func (l Layout) HDR() string    { return filepath.Join(l.Folder(), l.Label+".hdr") }

// LayoutOf locates the bundle that path belongs to. An HDR is expected inside
// the video folder; a KCD or RAF sits next to it.
func LayoutOf(path string) Layout {
	path = filepath.Clean(path)
	label := Stem(path)
	if Detect(path) == KindHDR {
		return Layout{Dir: filepath.Dir(filepath.Dir(path)), Label: label}
	}
	return Layout{Dir: filepath.Dir(path), Label: label}
}
