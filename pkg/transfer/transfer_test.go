package transfer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/kcdutil/pkg/fault"
	"github.com/walteh/kcdutil/pkg/status"
	"gitlab.com/tozd/go/errors"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	return logger.WithContext(context.Background())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// stageArtifacts lists leftover staging entries under dir.
func stageArtifacts(t *testing.T, dir string) []string {
	t.Helper()
	var found []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasSuffix(d.Name(), StageSuffix) {
			found = append(found, path)
		}
		return nil
	})
	require.NoError(t, err)
	return found
}

// crossDeviceRename behaves like a rename between two filesystems.
func crossDeviceRename(oldpath, newpath string) error {
	return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeCopy},
		{in: "copy", want: ModeCopy},
		{in: "move", want: ModeMove},
		{in: "link", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransferFile(t *testing.T) {
	tests := []struct {
		name       string
		mode       Mode
		rename     func(string, string) error
		wantAction Action
		srcRemains bool
	}{
		{name: "copy", mode: ModeCopy, wantAction: ActionCopied, srcRemains: true},
		{name: "move", mode: ModeMove, wantAction: ActionRenamed},
		{name: "move_across_devices", mode: ModeMove, rename: crossDeviceRename, wantAction: ActionCopiedRemoved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			dir := t.TempDir()
			src := filepath.Join(dir, "a", "a_cam1.avi")
			dst := filepath.Join(dir, "b", "b_cam1.avi")
			writeFile(t, src, "frames")
			require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))

			e := New()
			if tt.rename != nil {
				e.rename = tt.rename
			}

			r, err := e.Transfer(ctx, src, dst, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, r.Action)
			assert.Equal(t, "frames", readFile(t, dst))
			assert.Equal(t, tt.srcRemains, exists(src), "source presence")
			assert.Empty(t, stageArtifacts(t, dir))

			require.NoError(t, e.Undo(ctx, r))
			assert.Equal(t, "frames", readFile(t, src), "undo restores the source")
			assert.False(t, exists(dst), "undo removes the destination")
		})
	}
}

func TestTransferExistingDestination(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src.avi")
	dst := filepath.Join(dir, "dst.avi")
	writeFile(t, src, "new")
	writeFile(t, dst, "old")

	_, err := New().Transfer(ctx, src, dst, ModeCopy)
	var ae *fault.AlreadyExistsError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, dst, ae.Path)
	assert.Equal(t, "old", readFile(t, dst))

	e := New(WithOverwrite(true))
	r, err := e.Transfer(ctx, src, dst, ModeCopy)
	require.NoError(t, err)
	assert.Equal(t, "new", readFile(t, dst))
	require.NotEmpty(t, r.Backup)

	require.NoError(t, e.Undo(ctx, r))
	assert.Equal(t, "old", readFile(t, dst), "undo puts the overwritten file back")
	assert.Empty(t, stageArtifacts(t, dir))
}

func TestTransferFinalizeDropsBackup(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src.avi")
	dst := filepath.Join(dir, "dst.avi")
	writeFile(t, src, "new")
	writeFile(t, dst, "old")

	e := New(WithOverwrite(true))
	r, err := e.Transfer(ctx, src, dst, ModeMove)
	require.NoError(t, err)
	require.NoError(t, e.Finalize(ctx, r))

	assert.Equal(t, "new", readFile(t, dst))
	assert.Empty(t, stageArtifacts(t, dir))
}

func TestTransferSamePath(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "a.avi")
	writeFile(t, src, "x")

	r, err := New().Transfer(ctx, src, src, ModeMove)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, r.Action)
	assert.Equal(t, status.StatusUnchanged, r.Status())
	assert.Equal(t, "x", readFile(t, src))
}

func TestTransferDirectory(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	writeFile(t, filepath.Join(src, "a_cam1.avi"), "one")
	writeFile(t, filepath.Join(src, "sub", "notes.txt"), "two")
	writeFile(t, filepath.Join(src, "sub", "scratch.tmp"), "skip")
	writeFile(t, filepath.Join(src, "Thumbs.db"), "skip")

	e := New(WithIgnore("**/*.tmp", "Thumbs.db"))
	r, err := e.Transfer(ctx, src, dst, ModeCopy)
	require.NoError(t, err)
	assert.True(t, r.Dir)

	assert.Equal(t, "one", readFile(t, filepath.Join(dst, "a_cam1.avi")))
	assert.Equal(t, "two", readFile(t, filepath.Join(dst, "sub", "notes.txt")))
	assert.False(t, exists(filepath.Join(dst, "sub", "scratch.tmp")))
	assert.False(t, exists(filepath.Join(dst, "Thumbs.db")))
	assert.True(t, exists(filepath.Join(src, "Thumbs.db")), "copy keeps the source")
}

func TestInterruptedMoveKeepsSource(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	writeFile(t, filepath.Join(src, "a_cam1.avi"), "one")
	writeFile(t, filepath.Join(src, "a_cam2.avi"), "two")
	writeFile(t, filepath.Join(src, "a_cam3.avi"), "three")

	copies := 0
	e := New()
	e.rename = crossDeviceRename
	e.copy = func(from, to string) error {
		copies++
		if copies == 2 {
			// half a file lands, then the copy dies
			_ = os.WriteFile(to, []byte("tw"), 0o644)
			return errors.New("device went away")
		}
		return copyFileVerified(from, to)
	}

	_, err := e.Transfer(ctx, src, dst, ModeMove)
	require.Error(t, err)
	assert.Equal(t, "io", fault.Kind(err))

	assert.Equal(t, "one", readFile(t, filepath.Join(src, "a_cam1.avi")))
	assert.Equal(t, "two", readFile(t, filepath.Join(src, "a_cam2.avi")))
	assert.Equal(t, "three", readFile(t, filepath.Join(src, "a_cam3.avi")))
	assert.False(t, exists(dst), "no destination folder after a failed copy")
	assert.Empty(t, stageArtifacts(t, dir))
}

// partialRemove deletes only victim and then fails, like a removal that
// hits an undeletable entry halfway through a folder.
func partialRemove(t *testing.T, victim string) func(string) error {
	return func(path string) error {
		require.NoError(t, os.Remove(victim))
		return &os.PathError{Op: "unlinkat", Path: path, Err: syscall.EPERM}
	}
}

func TestCrossDeviceMovePartialRemoveRestoresSource(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, filepath.Join(src, "one.avi"), "one")
	writeFile(t, filepath.Join(src, "z", "two.avi"), "two")

	e := New()
	e.rename = crossDeviceRename
	e.removeAll = partialRemove(t, filepath.Join(src, "one.avi"))

	_, err := e.Transfer(ctx, src, dst, ModeMove)
	require.Error(t, err)
	assert.Equal(t, "io", fault.Kind(err))

	assert.Equal(t, "one", readFile(t, filepath.Join(src, "one.avi")), "removed entry is put back")
	assert.Equal(t, "two", readFile(t, filepath.Join(src, "z", "two.avi")))
	assert.False(t, exists(dst), "copy is dropped once the source is whole again")
	assert.Empty(t, stageArtifacts(t, dir))
}

func TestCrossDeviceMovePartialRemoveKeepsCopy(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, filepath.Join(src, "one.avi"), "one")
	writeFile(t, filepath.Join(src, "z", "two.avi"), "two")

	e := New()
	e.rename = crossDeviceRename
	e.removeAll = partialRemove(t, filepath.Join(src, "one.avi"))
	e.copy = func(from, to string) error {
		if strings.HasPrefix(to, src+string(filepath.Separator)) {
			return errors.New("source device went read-only")
		}
		return copyFileVerified(from, to)
	}

	_, err := e.Transfer(ctx, src, dst, ModeMove)
	require.Error(t, err)
	assert.Equal(t, "io", fault.Kind(err))
	assert.Contains(t, err.Error(), dst)

	assert.False(t, exists(filepath.Join(src, "one.avi")))
	assert.Equal(t, "one", readFile(t, filepath.Join(dst, "one.avi")), "the only complete copy survives")
	assert.Equal(t, "two", readFile(t, filepath.Join(dst, "z", "two.avi")))
}

func TestCrossDeviceMoveCarriesIgnoredEntries(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, filepath.Join(src, "one.avi"), "one")
	writeFile(t, filepath.Join(src, "scratch.tmp"), "keep me")

	e := New(WithIgnore("*.tmp"))
	e.rename = crossDeviceRename

	r, err := e.Transfer(ctx, src, dst, ModeMove)
	require.NoError(t, err)
	assert.Equal(t, ActionCopiedRemoved, r.Action)
	assert.False(t, exists(src))
	assert.Equal(t, "keep me", readFile(t, filepath.Join(dst, "scratch.tmp")), "a move never drops entries")
}

func TestTransferAllUndoesOnFailure(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "a_cam1.avi"), "one")
	writeFile(t, filepath.Join(dir, "a", "a_cam2.avi"), "two")
	writeFile(t, filepath.Join(dir, "b", "b_cam2.avi"), "taken")

	reporter := status.NewLogReporter(status.NewDefaultFileFormatter())
	e := New(WithReporter(reporter))
	pairs := []Pair{
		{Src: filepath.Join(dir, "a", "a_cam1.avi"), Dst: filepath.Join(dir, "b", "b_cam1.avi")},
		{Src: filepath.Join(dir, "a", "a_cam2.avi"), Dst: filepath.Join(dir, "b", "b_cam2.avi")},
	}

	_, err := e.TransferAll(ctx, pairs, ModeMove)
	var ae *fault.AlreadyExistsError
	require.ErrorAs(t, err, &ae)

	assert.Equal(t, "one", readFile(t, filepath.Join(dir, "a", "a_cam1.avi")), "first move was undone")
	assert.False(t, exists(filepath.Join(dir, "b", "b_cam1.avi")))
	assert.Equal(t, 1, reporter.Processed())
}

func TestTransferAllReportsProgress(t *testing.T) {
	ctx := testContext(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "1.avi"), "1")
	writeFile(t, filepath.Join(dir, "a", "2.avi"), "2")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))

	reporter := status.NewLogReporter(status.NewDefaultFileFormatter())
	e := New(WithReporter(reporter))
	receipts, err := e.TransferAll(ctx, []Pair{
		{Src: filepath.Join(dir, "a", "1.avi"), Dst: filepath.Join(dir, "b", "1.avi")},
		{Src: filepath.Join(dir, "a", "2.avi"), Dst: filepath.Join(dir, "b", "2.avi")},
	}, ModeCopy)
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, 2, reporter.Processed())
	assert.Equal(t, status.StatusCopied, receipts[0].Status())
}

func TestCopyFileVerifiedRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "data")
	writeFile(t, dst, "keep")

	require.Error(t, copyFileVerified(src, dst))
	assert.Equal(t, "keep", readFile(t, dst))
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
