// Package capture implements the frame capture and transmission pipeline:
// periodic low-rate still-frame snapshots of the host view, scaled down,
// JPEG-encoded, size-gated, and shipped to the grantor as proof of activity.
// Frames are transient: one that fails the admission check is dropped, never
// queued or retried, because a frame is stale the moment the next tick fires.
package capture

import (
	"context"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Source produces one snapshot of the host application's current view.
type Source interface {
	Snapshot(ctx context.Context) (image.Image, error)
}

// ViewportRenderer rasterizes the host application's text view onto a
// fixed-size canvas. The lines provider is called at capture time so the
// frame always reflects the current view.
type ViewportRenderer struct {
	width  int
	height int
	lines  func() []string
}

// Viewport canvas defaults, chosen to keep an encoded half-scale frame well
// under the admission threshold for ordinary views.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800
)

// NewViewportRenderer creates a renderer of the given dimensions. A zero or
// negative dimension falls back to the default. lines may be nil, producing
// blank frames.
func NewViewportRenderer(width, height int, lines func() []string) *ViewportRenderer {
	if width <= 0 {
		width = DefaultViewportWidth
	}
	if height <= 0 {
		height = DefaultViewportHeight
	}
	return &ViewportRenderer{width: width, height: height, lines: lines}
}

var (
	viewportBG = color.RGBA{R: 0x03, G: 0x00, B: 0x14, A: 0xff}
	viewportFG = color.RGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}
)

// Snapshot renders the current lines top-down with the basic 7x13 face.
// Lines that overflow the canvas are clipped.
func (r *ViewportRenderer) Snapshot(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			img.SetRGBA(x, y, viewportBG)
		}
	}

	if r.lines == nil {
		return img, nil
	}

	face := basicfont.Face7x13
	lineHeight := face.Height + 3
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(viewportFG),
		Face: face,
	}

	y := lineHeight
	for _, line := range r.lines() {
		if y > r.height {
			break
		}
		drawer.Dot = fixed.P(8, y)
		drawer.DrawString(line)
		y += lineHeight
	}
	return img, nil
}
