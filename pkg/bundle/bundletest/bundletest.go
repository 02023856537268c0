// Package bundletest builds synthetic instrument files for tests.
package bundletest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/walteh/kcdutil/pkg/bundle"
)

const (
	refWidth      = 256
	kcdPrefixLen  = 300
	kcdTailLen    = 700
	rafHeaderLen  = 574
	rafTailLen    = 200
	hdrBlockSize  = 292
	hdrBlockHead  = 16
	hdrBlockTail  = 20
	hdrTrailerLen = 12
)

// HDRMagic is the magic written at the start of synthetic HDR files.
var HDRMagic = []byte{0x4b, 0x48, 0x44, 0x52}

// filler returns n deterministic bytes that never spell a marker.
func filler(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*13+int(seed)) % 61
	}
	return out
}

func refField(value string) []byte {
	buf := make([]byte, refWidth)
	copy(buf, value)
	return buf
}

// KCD returns a container whose HDR field holds hdrRef.
func KCD(hdrRef string) []byte {
	var out []byte
	out = append(out, filler(kcdPrefixLen, 1)...)
	out = append(out, "KCRMOVIE"...)
	out = append(out, filler(8, 2)...)
	out = append(out, refField(hdrRef)...)
	out = append(out, filler(kcdTailLen, 3)...)
	return out
}

// RAF returns a raw data file whose KCD field holds kcdRef.
func RAF(kcdRef string) []byte {
	var out []byte
	out = append(out, "RAF\x00"...)
	out = append(out, filler(rafHeaderLen-4, 4)...)
	out = append(out, refField(kcdRef)...)
	out = append(out, filler(rafTailLen, 5)...)
	return out
}

// HDR returns a video header listing paths.
func HDR(paths ...string) []byte {
	var out []byte
	out = append(out, HDRMagic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(paths)))
	for i, p := range paths {
		out = append(out, filler(hdrBlockHead, byte(10+i))...)
		out = append(out, refField(p)...)
		out = append(out, filler(hdrBlockTail, byte(20+i))...)
	}
	out = append(out, filler(hdrTrailerLen, 6)...)
	return out
}

// Write writes data to path, creating parent directories.
func Write(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// Bundle describes a synthetic bundle written to disk.
type Bundle struct {
	Dir    string
	Label  string
	KCD    string
	RAF    string
	HDR    string
	Folder string
	Videos []string
}

// WriteBundle lays out a complete bundle for label under dir:
// <label>.kcd, <label>.raf, <label>/<label>.hdr and one video per camera.
func WriteBundle(t *testing.T, dir, label string, cameras ...string) Bundle {
	t.Helper()

	b := Bundle{
		Dir:    dir,
		Label:  label,
		KCD:    filepath.Join(dir, label+".kcd"),
		RAF:    filepath.Join(dir, label+".raf"),
		Folder: filepath.Join(dir, label),
		HDR:    filepath.Join(dir, label, label+".hdr"),
	}

	entries := make([]string, 0, len(cameras))
	for i, cam := range cameras {
		name := label + "_" + cam + ".avi"
		entries = append(entries, label+`\`+name)
		video := filepath.Join(b.Folder, name)
		Write(t, video, filler(4096+i*100, byte(30+i)))
		b.Videos = append(b.Videos, video)
	}

	Write(t, b.HDR, HDR(entries...))
	Write(t, b.KCD, KCD(label+`\`+label+".hdr"))

	abs, err := filepath.Abs(b.KCD)
	require.NoError(t, err)
	Write(t, b.RAF, RAF(bundle.ToFieldPath(abs)))
	return b
}

// ReadFile reads path or fails the test.
func ReadFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
