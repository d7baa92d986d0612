package consoleui_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwave/motionscript/internal/media"
	"github.com/loopwave/motionscript/internal/media/consoleui"
)

func TestConsoleUI_SelectROI(t *testing.T) {
	t.Parallel()
	in := strings.NewReader("10 20 30 40\n")
	var out bytes.Buffer
	ui := consoleui.New(in, &out)

	got, err := ui.SelectROI(context.Background(), &media.Frame{Width: 100, Height: 100}, "primary")

	require.NoError(t, err)
	assert.Equal(t, 10.0, got.X)
	assert.Equal(t, 40.0, got.H)
	assert.Contains(t, out.String(), "primary")
}

func TestConsoleUI_MinMaxSelector(t *testing.T) {
	t.Parallel()
	in := strings.NewReader("5 95\n")
	var out bytes.Buffer
	ui := consoleui.New(in, &out)

	min, max, err := ui.MinMaxSelector(context.Background(), nil, nil, "", "Bottom", "Top", 0, 99)

	require.NoError(t, err)
	assert.Equal(t, 5, min)
	assert.Equal(t, 95, max)
}

// TestConsoleUI_PollKeyDrainsBufferedKeys checks that keys typed ahead
// of a prompt end up in the bounded key queue and surface oldest-first,
// without PollKey ever blocking on fresh input.
func TestConsoleUI_PollKeyDrainsBufferedKeys(t *testing.T) {
	t.Parallel()
	in := strings.NewReader("1 2 3 4\nq\n")
	var out bytes.Buffer
	ui := consoleui.New(in, &out)

	_, err := ui.SelectROI(context.Background(), &media.Frame{Width: 10, Height: 10}, "primary")
	require.NoError(t, err)

	// Fscan stops at the newline after "4" and leaves it unread, so the
	// buffered keys are "\nq\n".
	assert.Equal(t, '\n', ui.PollKey())
	assert.Equal(t, 'q', ui.PollKey())
	assert.Equal(t, '\n', ui.PollKey())
	assert.Equal(t, rune(0), ui.PollKey())
}

func TestHeadless_ReturnsDefaults(t *testing.T) {
	t.Parallel()
	h := &consoleui.Headless{}

	roi, err := h.SelectROI(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, roi.X)

	min, max, err := h.MinMaxSelector(context.Background(), nil, nil, "", "", "", 0, 99)
	require.NoError(t, err)
	assert.Equal(t, 0, min)
	assert.Equal(t, 99, max)

	assert.Equal(t, 'q', h.PollKey())
}
