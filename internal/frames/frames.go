package frames

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/EinEisbxr/badapple-matrix/internal/matrix"
)

// Source produces a finite, ordered sequence of frames. The driver never
// retains a frame beyond the render call that consumes it.
type Source interface {
	// Count returns the number of frames.
	Count() int
	// Frame returns frame i. i must be in [0, Count).
	Frame(i int) matrix.Frame
}

// Slice is an in-memory Source.
type Slice []matrix.Frame

func (s Slice) Count() int               { return len(s) }
func (s Slice) Frame(i int) matrix.Frame { return s[i] }

// Format names the byte layout of converter output.
type Format string

const (
	// Packed is 8 bytes per frame, rows already bit-packed.
	Packed Format = "packed"
	// Gray8 is 64 grayscale bytes per frame (8x8, row-major), thresholded
	// into bits at load time.
	Gray8 Format = "gray8"
)

// ParseFormat validates a format name from config.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case Packed, Gray8:
		return Format(s), nil
	}
	return "", fmt.Errorf("frames: unknown format %q", s)
}

// FromPacked splits raw into consecutive 8-byte frames.
func FromPacked(raw []byte) (Slice, error) {
	if len(raw) == 0 || len(raw)%matrix.FrameLen != 0 {
		return nil, fmt.Errorf("frames: %d bytes is not a whole number of %d-byte frames",
			len(raw), matrix.FrameLen)
	}
	out := make(Slice, 0, len(raw)/matrix.FrameLen)
	for off := 0; off < len(raw); off += matrix.FrameLen {
		out = append(out, matrix.Frame(raw[off:off+matrix.FrameLen]))
	}
	return out, nil
}

// grayFrameLen is one 8x8 grayscale frame as the video converter emits it.
const grayFrameLen = matrix.Rows * matrix.Cols

// FromGray converts grayscale frames into bit-packed frames. Pixels at or
// above threshold are lit.
func FromGray(raw []byte, threshold byte) (Slice, error) {
	if len(raw) == 0 || len(raw)%grayFrameLen != 0 {
		return nil, fmt.Errorf("frames: %d bytes is not a whole number of %d-byte grayscale frames",
			len(raw), grayFrameLen)
	}
	out := make(Slice, 0, len(raw)/grayFrameLen)
	for off := 0; off < len(raw); off += grayFrameLen {
		out = append(out, packGray(raw[off:off+grayFrameLen], threshold))
	}
	return out, nil
}

func packGray(gray []byte, threshold byte) matrix.Frame {
	f := make(matrix.Frame, matrix.FrameLen)
	for row := 0; row < matrix.Rows; row++ {
		var b byte
		for col := 0; col < matrix.Cols; col++ {
			b <<= 1
			if gray[row*matrix.Cols+col] >= threshold {
				b |= 1
			}
		}
		f[row] = b
	}
	return f
}

// Load reads frame data from path: an 8x8 animated GIF, or a converter hex
// dump in the given format.
func Load(path string, format Format, threshold byte) (Slice, error) {
	if path == "" {
		return nil, errors.New("frames: no frame data path configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("frames: %w", err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".gif") {
		return FromGIF(f, threshold)
	}
	raw, err := ParseHex(f)
	if err != nil {
		return nil, err
	}
	switch format {
	case Gray8:
		return FromGray(raw, threshold)
	default:
		return FromPacked(raw)
	}
}
