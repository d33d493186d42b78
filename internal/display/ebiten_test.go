package display

import (
	"context"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/ScanFreeze/internal/source"
)

func frameOf(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func TestUpdateCopiesFrame(t *testing.T) {
	logger, _ := test.NewNullLogger()
	frame := frameOf(2*2*4, 9)
	w := NewWindow(source.FrameSourceFunc(func() ([]byte, bool) { return frame, true }),
		Options{Width: 2, Height: 2}, logger)

	require.NoError(t, w.Update())
	assert.Equal(t, 1, w.Frames())
	assert.Equal(t, frame, w.pix)
	assert.False(t, w.Ended())
}

func TestUpdateDropsWrongSizeFrame(t *testing.T) {
	logger, hook := test.NewNullLogger()
	w := NewWindow(source.FrameSourceFunc(func() ([]byte, bool) { return frameOf(5, 9), true }),
		Options{Width: 2, Height: 2}, logger)

	require.NoError(t, w.Update())
	assert.Equal(t, 0, w.Frames())
	assert.Equal(t, make([]byte, 16), w.pix)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, 5, entry.Data["got"])
	assert.Equal(t, 16, entry.Data["want"])
}

func TestUpdateEndsWithSource(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := NewWindow(source.FrameSourceFunc(func() ([]byte, bool) { return nil, false }),
		Options{Width: 2, Height: 2}, logger)

	assert.ErrorIs(t, w.Update(), ebiten.Termination)
	assert.True(t, w.Ended())
	assert.Equal(t, 0, w.Frames())
}

func TestUpdateStopsWhenDone(t *testing.T) {
	logger, hook := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	pulls := 0
	w := NewWindow(source.FrameSourceFunc(func() ([]byte, bool) {
		pulls++
		return frameOf(16, 1), true
	}), Options{Width: 2, Height: 2, Done: ctx.Done()}, logger)

	require.NoError(t, w.Update())
	cancel()
	assert.ErrorIs(t, w.Update(), ebiten.Termination)
	assert.Equal(t, 1, pulls, "source is not pulled after stop")
	assert.False(t, w.Ended())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "stop requested", hook.LastEntry().Message)
}

func TestNewWindowDefaultsFPS(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := NewWindow(source.FrameSourceFunc(func() ([]byte, bool) { return nil, false }),
		Options{Width: 1, Height: 1}, logger)
	assert.Equal(t, ebiten.DefaultTPS, w.opts.FPS)
}

func TestAspectFitTransform(t *testing.T) {
	scale, x, y := aspectFitTransform(200, 100, 100, 100)
	assert.Equal(t, 1.0, scale)
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 0.0, y)

	scale, x, y = aspectFitTransform(100, 400, 50, 100)
	assert.Equal(t, 2.0, scale)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 100.0, y)
}
