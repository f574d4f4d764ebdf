package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/EinEisbxr/badapple-matrix/internal/frames"
	"github.com/EinEisbxr/badapple-matrix/internal/matrix"
)

// Renderer is the sink the player drives; *matrix.Driver satisfies it.
type Renderer interface {
	Render(matrix.Frame) error
}

// Player advances through a frame source at a target FPS. A multiplexed
// panel only shows a row while it is being scanned, so each frame is
// re-rendered continuously for its whole display period.
type Player struct {
	r    Renderer
	src  frames.Source
	fps  int
	loop bool
	log  zerolog.Logger
}

func New(r Renderer, src frames.Source, fps int, loop bool, log zerolog.Logger) *Player {
	if fps <= 0 {
		fps = 30
	}
	return &Player{r: r, src: src, fps: fps, loop: loop, log: log}
}

// Run plays the source until it ends (forever when looping) or ctx is
// cancelled, in which case it returns ctx.Err(). Every frame is rendered
// at least once even if its period has already elapsed.
func (p *Player) Run(ctx context.Context) error {
	if p.src.Count() == 0 {
		return errors.New("player: source has no frames")
	}
	period := time.Second / time.Duration(p.fps)
	p.log.Info().
		Int("frames", p.src.Count()).
		Int("fps", p.fps).
		Bool("loop", p.loop).
		Msg("playback starting")

	for {
		for i := 0; i < p.src.Count(); i++ {
			f := p.src.Frame(i)
			deadline := time.Now().Add(period)
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if err := p.r.Render(f); err != nil {
					return fmt.Errorf("player: frame %d: %w", i, err)
				}
				if !time.Now().Before(deadline) {
					break
				}
			}
		}
		if !p.loop {
			p.log.Info().Msg("playback finished")
			return nil
		}
	}
}
