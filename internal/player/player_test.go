package player_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EinEisbxr/badapple-matrix/internal/frames"
	"github.com/EinEisbxr/badapple-matrix/internal/matrix"
	"github.com/EinEisbxr/badapple-matrix/internal/player"
)

type recordingRenderer struct {
	rendered []byte // first byte of each rendered frame
	err      error
}

func (r *recordingRenderer) Render(f matrix.Frame) error {
	if r.err != nil {
		return r.err
	}
	r.rendered = append(r.rendered, f[0])
	return nil
}

func threeFrames() frames.Slice {
	return frames.Slice{
		matrix.Frame{1, 0, 0, 0, 0, 0, 0, 0},
		matrix.Frame{2, 0, 0, 0, 0, 0, 0, 0},
		matrix.Frame{3, 0, 0, 0, 0, 0, 0, 0},
	}
}

// distinct returns rendered frame ids with consecutive repeats collapsed;
// each frame is re-rendered for its whole period, so repeats are expected.
func distinct(rendered []byte) []byte {
	var out []byte
	for _, b := range rendered {
		if len(out) == 0 || out[len(out)-1] != b {
			out = append(out, b)
		}
	}
	return out
}

func TestRunPlaysFramesInOrder(t *testing.T) {
	r := &recordingRenderer{}
	p := player.New(r, threeFrames(), 1000, false, zerolog.Nop())
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []byte{1, 2, 3}, distinct(r.rendered))
}

func TestRunLoopUntilCancelled(t *testing.T) {
	r := &recordingRenderer{}
	p := player.New(r, threeFrames(), 1000, true, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// Looped at least once through the sequence.
	assert.GreaterOrEqual(t, len(distinct(r.rendered)), 3)
}

func TestRunPropagatesRenderError(t *testing.T) {
	boom := errors.New("boom")
	r := &recordingRenderer{err: boom}
	p := player.New(r, threeFrames(), 1000, false, zerolog.Nop())
	err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRunEmptySource(t *testing.T) {
	p := player.New(&recordingRenderer{}, frames.Slice{}, 30, false, zerolog.Nop())
	assert.Error(t, p.Run(context.Background()))
}

func TestNewClampsFPS(t *testing.T) {
	r := &recordingRenderer{}
	p := player.New(r, threeFrames(), 0, false, zerolog.Nop())
	// Must still terminate with a sane default period.
	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("player did not terminate")
	}
}
