package frames

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"io"

	"github.com/EinEisbxr/badapple-matrix/internal/matrix"
)

// FromGIF decodes an 8x8 animated GIF into a frame sequence, thresholding
// each pixel's luminance. Frames composite onto a persistent canvas, so
// partial-update GIFs come out whole.
func FromGIF(r io.Reader, threshold byte) (Slice, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("frames: decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, errors.New("frames: gif has no frames")
	}
	if g.Config.Width != matrix.Cols || g.Config.Height != matrix.Rows {
		return nil, fmt.Errorf("frames: gif is %dx%d, need %dx%d",
			g.Config.Width, g.Config.Height, matrix.Cols, matrix.Rows)
	}

	canvas := image.NewGray(image.Rect(0, 0, matrix.Cols, matrix.Rows))
	out := make(Slice, 0, len(g.Image))
	gray := make([]byte, grayFrameLen)
	for _, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		for y := 0; y < matrix.Rows; y++ {
			for x := 0; x < matrix.Cols; x++ {
				gray[y*matrix.Cols+x] = canvas.GrayAt(x, y).Y
			}
		}
		out = append(out, packGray(gray, threshold))
	}
	return out, nil
}
