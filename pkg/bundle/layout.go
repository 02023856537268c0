package bundle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/field"
	"gitlab.com/tozd/go/errors"
)

// On-disk constants of the instrument formats.
const (
	// RefWidth is the width of every reference field.
	RefWidth = 256

	KCDMarker = "KCRMOVIE"
	// the HDR field starts this many bytes after the start of the marker
	kcdHDRFieldSkip = 16

	RAFMagic          = "RAF\x00"
	rafKCDFieldOffset = 574

	hdrBlocksOffset    = 8
	hdrBlockSize       = 292
	hdrBlockPathOffset = 16
)

// Roles of the association fields.
const (
	RoleHDR = "hdr"
	RoleKCD = "kcd"
)

// VideoRole names the i-th video entry of an HDR.
func VideoRole(i int) string {
	return fmt.Sprintf("video/%03d", i)
}

const scanChunk = 64 << 10

// findMarker returns the offset of the single occurrence of marker in r.
func findMarker(r io.Reader, marker []byte) (int64, error) {
	buf := make([]byte, scanChunk)
	var (
		carry []byte
		base  int64
		pos   int64 = -1
		count int
	)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			window := append(carry, buf[:n]...)
			for off := 0; ; {
				i := bytes.Index(window[off:], marker)
				if i < 0 {
					break
				}
				if count == 0 {
					pos = base + int64(off+i)
				}
				count++
				off += i + 1
			}
			if count > 1 {
				break
			}
			keep := len(marker) - 1
			if keep > len(window) {
				keep = len(window)
			}
			base += int64(len(window) - keep)
			carry = append([]byte(nil), window[len(window)-keep:]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, errors.Errorf("scanning for %s: %w", marker, err)
		}
	}

	switch count {
	case 0:
		return 0, &fault.FormatError{Field: "marker", Reason: "no " + string(marker) + " marker found"}
	case 1:
		return pos, nil
	default:
		return 0, &fault.FormatError{Field: "marker", Reason: "multiple " + string(marker) + " markers found"}
	}
}

// fieldsFor discovers the association fields of a file of the given kind.
func fieldsFor(kind Kind, r io.ReaderAt, size int64) ([]roleField, error) {
	switch kind {
	case KindKCD:
		pos, err := findMarker(io.NewSectionReader(r, 0, size), []byte(KCDMarker))
		if err != nil {
			return nil, err
		}
		return []roleField{{
			role:  RoleHDR,
			field: field.Field{Name: RoleHDR, Offset: pos + kcdHDRFieldSkip, Width: RefWidth},
		}}, nil

	case KindRAF:
		magic := make([]byte, len(RAFMagic))
		if size < int64(len(magic)) {
			return nil, &fault.FormatError{Field: "magic", Reason: "file too short for a RAF header"}
		}
		if _, err := r.ReadAt(magic, 0); err != nil {
			return nil, errors.Errorf("reading RAF magic: %w", err)
		}
		if string(magic) != RAFMagic {
			return nil, &fault.FormatError{Field: "magic", Reason: "missing RAF magic"}
		}
		return []roleField{{
			role:  RoleKCD,
			field: field.Field{Name: RoleKCD, Offset: rafKCDFieldOffset, Width: RefWidth},
		}}, nil

	case KindHDR:
		if size < hdrBlocksOffset {
			return nil, &fault.FormatError{Field: "count", Reason: "file too short for an HDR header"}
		}
		head := make([]byte, hdrBlocksOffset)
		if _, err := r.ReadAt(head, 0); err != nil {
			return nil, errors.Errorf("reading HDR header: %w", err)
		}
		count := int64(binary.LittleEndian.Uint32(head[4:8]))
		if need := hdrBlocksOffset + count*hdrBlockSize; need > size {
			return nil, &fault.FormatError{
				Field:  "count",
				Reason: fmt.Sprintf("header declares %d video blocks (%d bytes) but the file has %d bytes", count, need, size),
			}
		}
		out := make([]roleField, 0, count)
		for i := int64(0); i < count; i++ {
			role := VideoRole(int(i))
			out = append(out, roleField{
				role:  role,
				field: field.Field{Name: role, Offset: hdrBlocksOffset + i*hdrBlockSize + hdrBlockPathOffset, Width: RefWidth},
			})
		}
		return out, nil
	}
	return nil, nil
}

type roleField struct {
	role  string
	field field.Field
}
