package projector_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwave/motionscript/internal/media"
	"github.com/loopwave/motionscript/internal/media/projector"
	"github.com/loopwave/motionscript/internal/motion/bbox"
)

func solidFrame(w, h int, r, g, b byte) *media.Frame {
	pix := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pix[i*4] = r
		pix[i*4+1] = g
		pix[i*4+2] = b
		pix[i*4+3] = 255
	}
	return &media.Frame{Width: w, Height: h, Stride: w * 4, Pix: pix}
}

type fakeUI struct {
	keys []rune
	i    int
}

func (f *fakeUI) SelectROI(context.Context, *media.Frame, string) (bbox.Bbox, error) {
	return bbox.Bbox{}, nil
}

func (f *fakeUI) Show(string, *media.Frame) {}

func (f *fakeUI) MinMaxSelector(context.Context, *media.Frame, *media.Frame, string, string, string, int, int) (int, int, error) {
	return 0, 99, nil
}

func (f *fakeUI) PollKey() rune {
	if f.i >= len(f.keys) {
		return 'q'
	}
	k := f.keys[f.i]
	f.i++
	return k
}

func TestNew_UnknownProjection(t *testing.T) {
	t.Parallel()
	_, err := projector.New("fisheye")
	assert.Error(t, err)
}

func TestNew_FlatAliases(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"", "flat"} {
		p, err := projector.New(name)
		require.NoError(t, err)
		assert.Equal(t, projector.Flat, p.Kind)
	}
}

func TestProject_FlatResize(t *testing.T) {
	t.Parallel()
	p, err := projector.New("flat")
	require.NoError(t, err)

	frame := solidFrame(10, 10, 200, 50, 25)
	out, err := p.Project(frame, media.ProjectionConfig{Width: 5, Height: 5})
	require.NoError(t, err)

	assert.Equal(t, 5, out.Width)
	assert.Equal(t, 5, out.Height)
	assert.Equal(t, byte(200), out.Pix[0])
}

func TestProject_ResolvesAspectRatio(t *testing.T) {
	t.Parallel()
	p, err := projector.New("flat")
	require.NoError(t, err)

	frame := solidFrame(100, 50, 1, 2, 3)
	out, err := p.Project(frame, media.ProjectionConfig{Width: -1, Height: 25})
	require.NoError(t, err)

	assert.Equal(t, 50, out.Width)
	assert.Equal(t, 25, out.Height)
}

func TestProject_NilFrame(t *testing.T) {
	t.Parallel()
	p, err := projector.New("flat")
	require.NoError(t, err)

	_, err = p.Project(nil, media.ProjectionConfig{})
	assert.Error(t, err)
}

func TestProject_Equirectangular(t *testing.T) {
	t.Parallel()
	p, err := projector.New("vr")
	require.NoError(t, err)

	frame := solidFrame(360, 180, 10, 20, 30)
	out, err := p.Project(frame, media.ProjectionConfig{Width: 40, Height: 20, Phi: 0})
	require.NoError(t, err)

	assert.Equal(t, 40, out.Width)
	assert.Equal(t, 20, out.Height)
}

func TestConfigureVR_FlatIsNoop(t *testing.T) {
	t.Parallel()
	p, err := projector.New("flat")
	require.NoError(t, err)

	got, err := p.ConfigureVR(context.Background(), solidFrame(4, 4, 0, 0, 0), media.ProjectionConfig{Phi: 7}, &fakeUI{})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Phi)
}

func TestConfigureVR_AppliesTiltKeys(t *testing.T) {
	t.Parallel()
	p, err := projector.New("vr")
	require.NoError(t, err)

	ui := &fakeUI{keys: []rune{'w', 'w', 's', 'q'}}
	got, err := p.ConfigureVR(context.Background(), solidFrame(360, 180, 0, 0, 0), media.ProjectionConfig{Width: 10, Height: 10}, ui)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Phi)
}

func TestConfigureVR_ContextCancelled(t *testing.T) {
	t.Parallel()
	p, err := projector.New("vr")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.ConfigureVR(ctx, solidFrame(360, 180, 0, 0, 0), media.ProjectionConfig{Width: 10, Height: 10}, &fakeUI{})
	assert.Error(t, err)
}
