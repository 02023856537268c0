package status

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	ctx := logger.WithContext(context.Background())

	r := NewLogReporter(NewDefaultFileFormatter())
	r.StartOperation(ctx, "Copy videos", 2)
	r.UpdateProgress(ctx, 1)
	r.UpdateProgress(ctx, 2)
	r.FinishOperation(ctx)

	assert.Equal(t, 2, r.Processed())
	out := buf.String()
	assert.Contains(t, out, `"operation":"Copy videos"`)
	assert.Contains(t, out, "Progress: 1/2 (50%)")
	assert.Contains(t, out, "Progress: 2/2 (100%)")
}

func TestNewReporterModes(t *testing.T) {
	_, isLog := NewReporter(ProgressNever, nil).(*LogReporter)
	assert.True(t, isLog)

	_, isBar := NewReporter(ProgressAlways, nil).(*BarReporter)
	assert.True(t, isBar)

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	_, isLog = NewReporter(ProgressAuto, f).(*LogReporter)
	assert.True(t, isLog, "auto without a terminal falls back to log lines")

	var buf bytes.Buffer
	_, isLog = NewReporter(ProgressAuto, &buf).(*LogReporter)
	assert.True(t, isLog, "a plain writer is never a terminal")

	bar, isBar := NewReporter(ProgressAlways, &buf).(*BarReporter)
	require.True(t, isBar)
	assert.Same(t, &buf, bar.out, "the bar draws on the given writer")
}
