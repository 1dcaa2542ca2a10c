package edt

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldAccessors(t *testing.T) {
	vol := bitVolume(2, 3, 4, [3]int{1, 2, 3})

	fixed, err := Transform(vol, ScaledFixedPoint)
	require.NoError(t, err)
	assert.Equal(t, 24, fixed.Len())
	assert.Nil(t, fixed.Float)
	assert.Equal(t, 23, fixed.Index(1, 2, 3))

	// (0, 2, 2) is sqrt(2) from the foreground voxel.
	assert.Equal(t, 14.0, fixed.Raw(0, 2, 2))
	assert.InDelta(t, 1.4, fixed.At(0, 2, 2), 1e-9)
	assert.False(t, fixed.Saturated(fixed.Index(0, 2, 2)))

	float, err := Transform(vol, FloatingPoint)
	require.NoError(t, err)
	assert.Nil(t, float.Fixed)
	assert.InDelta(t, math.Sqrt2, float.At(0, 2, 2), 1e-6)
	assert.Equal(t, float.At(0, 2, 2), float.Raw(0, 2, 2))

	dist := float.Distances()
	require.Len(t, dist, 24)
	assert.Zero(t, dist[23])
	assert.InDelta(t, math.Sqrt(1+4+9), dist[0], 1e-6)
}

func TestLogger(t *testing.T) {
	defer SetLogger(nil)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_, err := Transform(bitVolume(2, 2, 2, [3]int{0, 0, 0}), FloatingPoint)
	require.NoError(t, err)

	out := buf.String()
	for _, pass := range []string{"column pass", "row pass", "band pass"} {
		assert.True(t, strings.Contains(out, pass), "missing %q in %q", pass, out)
	}

	SetLogger(nil)
	assert.False(t, Logger().Enabled(context.Background(), slog.LevelError))
}
